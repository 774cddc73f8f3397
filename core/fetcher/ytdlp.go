package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"Bt1QCast/config"
	"Bt1QCast/logger"
	"Bt1QCast/model"
	"Bt1QCast/storage"
)

// watchURLPrefix 用条目 ID 还原视频页面地址
const watchURLPrefix = "https://www.youtube.com/watch?v="

// YtdlpFetcher 通过外部 yt-dlp 进程实现 MediaFetcher
// 元数据走 -J 单次 JSON 探测；下载交给提取器自带的音频抽取加转码
type YtdlpFetcher struct {
	binPath         string
	artifacts       *storage.ArtifactStore
	format          string
	quality         string
	fetchTimeout    time.Duration
	downloadTimeout time.Duration
}

// NewYtdlpFetcher 创建 yt-dlp 提取器
func NewYtdlpFetcher(cfg *config.Config, artifacts *storage.ArtifactStore) *YtdlpFetcher {
	return &YtdlpFetcher{
		binPath:         cfg.YtdlpPath,
		artifacts:       artifacts,
		format:          cfg.AudioFormat,
		quality:         cfg.AudioQuality,
		fetchTimeout:    cfg.FetchTimeout,
		downloadTimeout: cfg.DownloadTimeout,
	}
}

// rawEntry 对应提取器输出中的一个条目
type rawEntry struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Uploader    string  `json:"uploader"`
	UploadDate  string  `json:"upload_date"`
	Duration    float64 `json:"duration"`
	WebpageURL  string  `json:"webpage_url"`
}

// rawInfo 对应提取器输出的顶层结构
// 播放列表带 _type=playlist 和 entries；单视频就是条目字段平铺
type rawInfo struct {
	rawEntry
	Type    string      `json:"_type"`
	Entries []*rawEntry `json:"entries"`
}

// FetchMetadata 用 yt-dlp -J 抓取 url 的元数据
func (f *YtdlpFetcher) FetchMetadata(ctx context.Context, url string) (*model.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binPath, "-J", "--no-warnings", url)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	logger.Info("抓取元数据", logger.String("url", url))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp metadata probe failed for %s: %w\nExtractor Error: %s", url, err, stderr.String())
	}

	return parseExtractorOutput(out.Bytes(), url)
}

// parseExtractorOutput 把提取器的 JSON 输出转换为内部负载
func parseExtractorOutput(data []byte, url string) (*model.Payload, error) {
	var info rawInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse extractor output for %s: %w", url, err)
	}

	if info.Type == "playlist" || len(info.Entries) > 0 {
		coll := &model.Collection{
			Title:       info.Title,
			Description: info.Description,
		}
		for _, e := range info.Entries {
			// 已下架的视频会以 null 条目出现，直接跳过
			if e == nil || e.ID == "" {
				continue
			}
			coll.Items = append(coll.Items, e.toItem())
		}
		return &model.Payload{Collection: coll}, nil
	}

	if info.ID == "" {
		return nil, fmt.Errorf("extractor returned no usable entry for %s", url)
	}
	return &model.Payload{Item: info.rawEntry.toItem()}, nil
}

func (e *rawEntry) toItem() *model.Item {
	return &model.Item{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Uploader:    e.Uploader,
		UploadDate:  e.UploadDate,
		Duration:    e.Duration,
		WebpageURL:  e.WebpageURL,
	}
}

// Download 下载 id 对应的音频并转码为 mp3
// 输出模板由产物仓库给出，落盘路径因此可以提前判定
func (f *YtdlpFetcher) Download(ctx context.Context, id string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.downloadTimeout)
	defer cancel()

	args := []string{
		"-f", f.format,
		"-x", "--audio-format", "mp3",
		"--audio-quality", f.quality,
		"-o", f.artifacts.OutputTemplate(),
		"--no-warnings",
		watchURLPrefix + id,
	}

	cmd := exec.CommandContext(ctx, f.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Info("开始下载音频", logger.String("id", id))
	start := time.Now()
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp download failed for %s: %w\nExtractor Error: %s", id, err, stderr.String())
	}

	path := f.artifacts.Path(id)
	if !f.artifacts.Exists(id) {
		return "", fmt.Errorf("extractor finished but artifact %s is missing", path)
	}

	logger.Info("音频下载完成",
		logger.String("id", id),
		logger.String("path", path),
		logger.Duration("elapsed", time.Since(start)),
	)
	return path, nil
}
