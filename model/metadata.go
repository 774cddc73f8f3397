package model

import "time"

// Collection 表示一个播放列表 URL 下的多个条目
type Collection struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Items       []*Item `json:"items"`
}

// Payload 是对单个 URL 抓取到的元数据，单视频或播放列表二选一
// 同一 URL 的形态由源本身决定，跨刷新保持稳定
type Payload struct {
	Item       *Item       `json:"item,omitempty"`
	Collection *Collection `json:"collection,omitempty"`
}

// Items 将负载展平为条目列表
func (p *Payload) Items() []*Item {
	switch {
	case p == nil:
		return nil
	case p.Collection != nil:
		return p.Collection.Items
	case p.Item != nil:
		return []*Item{p.Item}
	}
	return nil
}

// CachedMetadata 是元数据缓存中按 URL 持久化的一条记录
// 每次成功抓取后整体覆盖；抓取失败时保持旧记录不动
type CachedMetadata struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetchedAt"`
	Payload   *Payload  `json:"payload"`
}
