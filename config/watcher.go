package config

import (
	"context"
	"fmt"
	"path/filepath"

	"Bt1QCast/logger"

	"github.com/fsnotify/fsnotify"
)

// WatchSources 监听订阅源配置文件的变更
// 文件每次被写入时向返回的通道发送一个信号，用于触发一轮立即刷新
// 通道带一格缓冲，消费不及时的重复事件会被直接丢弃
func WatchSources(ctx context.Context, path string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监听器失败: %w", err)
	}

	// 监听所在目录而不是文件本身，编辑器原子替换文件后监听不会丢失
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("监听目录失败: %w", err)
	}

	ch := make(chan struct{}, 1)
	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("源配置文件监听错误", logger.ErrorField(err))
			}
		}
	}()

	return ch, nil
}
