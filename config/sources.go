package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"Bt1QCast/model"
)

// LoadSources 从 JSON 文件读取订阅源映射
// 文件格式: {"key": ["url1", "url2"], ...}
// 每个刷新周期重新读取一次，编辑后无需重启进程
func LoadSources(path string) ([]*model.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	// key 排序保证遍历顺序稳定；每个 key 下的 URL 顺序按文件原样保留
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sources := make([]*model.Source, 0, len(keys))
	for _, key := range keys {
		sources = append(sources, &model.Source{Key: key, URLs: raw[key]})
	}
	return sources, nil
}
