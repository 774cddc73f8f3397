package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore 管理本地磁盘上的音频产物
// 文件名由条目 ID 唯一决定，写入一次后即视为不可变
// 产物存在即代表该条目至少成功下载过一次，核心不会重复下载
type ArtifactStore struct {
	dir string
}

// NewArtifactStore 创建音频产物目录
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio dir %s: %w", dir, err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Dir 返回产物目录
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Path 返回某个条目对应的产物路径
func (s *ArtifactStore) Path(id string) string {
	return filepath.Join(s.dir, id+".mp3")
}

// Exists 判断某个条目的产物是否已落盘
func (s *ArtifactStore) Exists(id string) bool {
	info, err := os.Stat(s.Path(id))
	return err == nil && !info.IsDir()
}

// OutputTemplate 返回交给提取器的输出模板，保证产物路径可预测
func (s *ArtifactStore) OutputTemplate() string {
	return filepath.Join(s.dir, "%(id)s.%(ext)s")
}
