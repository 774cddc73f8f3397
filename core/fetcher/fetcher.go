package fetcher

import (
	"context"

	"Bt1QCast/model"
)

// MediaFetcher 负责抓取远端元数据和下载音频，由外部提取器实现
// 两个操作都走网络，可能很慢、可能失败；失败后重试是安全的
type MediaFetcher interface {
	// FetchMetadata 只抓取 url 的元数据，不触发任何下载
	FetchMetadata(ctx context.Context, url string) (*model.Payload, error)

	// Download 下载 id 对应的音频并转码为 mp3，返回产物路径
	Download(ctx context.Context, id string) (string, error)
}
