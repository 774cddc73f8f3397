package podcast

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"Bt1QCast/model"
)

// RSS 2.0 文档结构，只保留播客客户端关心的字段
type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string       `xml:"title"`
	Description string       `xml:"description,omitempty"`
	GUID        string       `xml:"guid"`
	PubDate     string       `xml:"pubDate"`
	Enclosure   rssEnclosure `xml:"enclosure"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// RenderRSS 把已排序的条目列表渲染为 RSS 2.0 文档
// pubDate 使用 RFC-1123 带时区格式，enclosure 指向本服务的音频路由
func RenderRSS(key string, items []*model.Item, publicURL string) ([]byte, error) {
	base := strings.TrimRight(publicURL, "/")

	ch := rssChannel{
		Title:       key,
		Link:        fmt.Sprintf("%s/%s.xml", base, key),
		Description: fmt.Sprintf("Audio feed for %s", key),
	}

	for _, item := range items {
		published, err := item.PublishedAt()
		if err != nil {
			// 组装器已过滤过日期非法的条目，这里兜底跳过
			continue
		}
		title := item.Title
		if title == "" {
			title = item.ID
		}
		ch.Items = append(ch.Items, rssItem{
			Title:       title,
			Description: item.Description,
			GUID:        item.ID,
			PubDate:     published.Format(time.RFC1123Z),
			Enclosure: rssEnclosure{
				URL:  fmt.Sprintf("%s/%s.mp3", base, item.ID),
				Type: "audio/mpeg",
			},
		})
	}

	out, err := xml.MarshalIndent(rssDoc{Version: "2.0", Channel: ch}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render feed %s: %w", key, err)
	}
	return append([]byte(xml.Header), out...), nil
}
