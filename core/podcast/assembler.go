package podcast

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"Bt1QCast/cache"
	"Bt1QCast/config"
	"Bt1QCast/model"
)

// ErrUnknownSource 表示请求的订阅 key 未在配置中定义
var ErrUnknownSource = errors.New("unknown source key")

// SourceLoader 返回当前配置的全部订阅源
type SourceLoader func() ([]*model.Source, error)

// Assembler 把缓存里的元数据组装成一个订阅源的有序条目列表
// 纯读路径：只读缓存，从不触发网络抓取，请求必须立即返回
type Assembler struct {
	store       *cache.MetaStore
	cfg         *config.Config
	loadSources SourceLoader
}

// NewAssembler 创建 Feed 组装器
func NewAssembler(store *cache.MetaStore, cfg *config.Config, loadSources SourceLoader) *Assembler {
	return &Assembler{store: store, cfg: cfg, loadSources: loadSources}
}

// Assemble 返回 key 对应订阅源在留存窗口内的条目，按上传日期降序
// 尚未抓取过的 URL 不算错误，只是暂时贡献零条目
func (a *Assembler) Assemble(key string) ([]*model.Item, error) {
	sources, err := a.loadSources()
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	var src *model.Source
	for _, s := range sources {
		if s.Key == key {
			src = s
			break
		}
	}
	if src == nil {
		return nil, ErrUnknownSource
	}

	cutoff := a.cfg.RetentionCutoff(time.Now())

	type dated struct {
		item      *model.Item
		published time.Time
	}
	var entries []dated
	for _, url := range src.URLs {
		rec, ok := a.store.Get(url)
		if !ok {
			continue
		}
		for _, item := range rec.Payload.Items() {
			published, err := item.PublishedAt()
			if err != nil || published.Before(cutoff) {
				continue
			}
			entries = append(entries, dated{item: item, published: published})
		}
	}

	// 同日条目保持输入顺序，整体顺序与 URL 遍历顺序无关
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].published.After(entries[j].published)
	})

	items := make([]*model.Item, len(entries))
	for i, e := range entries {
		items[i] = e.item
	}
	return items, nil
}
