package model

import (
	"fmt"
	"time"
)

// Item 表示一个可下载的音频单元（单个视频）
// ID 在同一集合内唯一且跨刷新稳定，用作产物文件名和下载队列的去重键
type Item struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Uploader    string  `json:"uploader,omitempty"`
	UploadDate  string  `json:"upload_date"` // 提取器返回的上传日期，格式 YYYYMMDD
	Duration    float64 `json:"duration,omitempty"`
	WebpageURL  string  `json:"webpage_url,omitempty"`
}

// PublishedAt 将 UploadDate 解析为 UTC 当天零点
func (it *Item) PublishedAt() (time.Time, error) {
	t, err := time.ParseInLocation("20060102", it.UploadDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid upload date %q for item %s: %w", it.UploadDate, it.ID, err)
	}
	return t, nil
}
