package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"Bt1QCast/logger"
	"Bt1QCast/model"

	"github.com/google/renameio/v2"
)

// MetaStore 是按 URL 落盘的元数据缓存
// 每个 URL 对应一个以其内容哈希命名的 JSON 文件，成功抓取后整体覆盖写入
// 刷新调度器是唯一写入方；Feed 组装和下载预扫描会并发读取
type MetaStore struct {
	dir string
	mu  sync.RWMutex
}

// NewMetaStore 创建元数据缓存，目录不存在时自动创建
func NewMetaStore(dir string) (*MetaStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create metadata dir %s: %w", dir, err)
	}
	return &MetaStore{dir: dir}, nil
}

// recordPath 根据 URL 的 SHA-1 哈希定位记录文件
func (s *MetaStore) recordPath(url string) string {
	sum := sha1.Sum([]byte(url))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

// Get 读取某个 URL 的缓存记录，不存在时返回 false
// 损坏或不完整的记录一律按不存在处理，单个坏文件不能拖垮刷新或请求
func (s *MetaStore) Get(url string) (*model.CachedMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.recordPath(url))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("读取元数据缓存失败", logger.String("url", url), logger.ErrorField(err))
		}
		return nil, false
	}

	var rec model.CachedMetadata
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Warn("元数据缓存记录损坏，按缺失处理", logger.String("url", url), logger.ErrorField(err))
		return nil, false
	}
	if rec.Payload == nil {
		return nil, false
	}
	return &rec, true
}

// Put 整体覆盖写入某个 URL 的缓存记录
// 先写临时文件再原子重命名，并发读取方永远看不到半成品
func (s *MetaStore) Put(url string, payload *model.Payload, fetchedAt time.Time) error {
	rec := model.CachedMetadata{URL: url, FetchedAt: fetchedAt, Payload: payload}
	data, err := json.MarshalIndent(&rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for %s: %w", url, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := renameio.WriteFile(s.recordPath(url), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata for %s: %w", url, err)
	}
	return nil
}

// IsStale 判断某个 URL 是否需要重新抓取：无记录，或距上次抓取已超过 TTL
func (s *MetaStore) IsStale(url string, ttl time.Duration) bool {
	rec, ok := s.Get(url)
	if !ok {
		return true
	}
	return time.Since(rec.FetchedAt) >= ttl
}
