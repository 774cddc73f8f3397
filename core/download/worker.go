package download

import (
	"context"
	"time"

	"Bt1QCast/cache"
	"Bt1QCast/config"
	"Bt1QCast/core/fetcher"
	"Bt1QCast/logger"
	"Bt1QCast/model"
)

// SourceLoader 返回当前配置的全部订阅源
type SourceLoader func() ([]*model.Source, error)

// Worker 顺序消费下载队列，一次只处理一个条目
// 串行是有意的：瓶颈在远端主机和本地转码，不在编排
type Worker struct {
	queue       *Queue
	fetcher     fetcher.MediaFetcher
	store       *cache.MetaStore
	cfg         *config.Config
	loadSources SourceLoader
}

// NewWorker 创建下载工作协程
func NewWorker(queue *Queue, f fetcher.MediaFetcher, store *cache.MetaStore, cfg *config.Config, loadSources SourceLoader) *Worker {
	return &Worker{
		queue:       queue,
		fetcher:     f,
		store:       store,
		cfg:         cfg,
		loadSources: loadSources,
	}
}

// Prepopulate 扫描全部缓存元数据，把留存窗口内缺产物的条目补进队列
// 进程重启后无需等待下一个刷新周期即可恢复未完成的下载
// 队列本身去重，重复扫描不会产生重复条目
func (w *Worker) Prepopulate() int {
	sources, err := w.loadSources()
	if err != nil {
		logger.Error("预扫描读取源配置失败", logger.ErrorField(err))
		return 0
	}

	cutoff := w.cfg.RetentionCutoff(time.Now())
	enqueued := 0
	for _, src := range sources {
		for _, url := range src.URLs {
			rec, ok := w.store.Get(url)
			if !ok {
				continue
			}
			for _, item := range rec.Payload.Items() {
				published, err := item.PublishedAt()
				if err != nil || published.Before(cutoff) {
					continue
				}
				if w.queue.Enqueue(item.ID) {
					enqueued++
				}
			}
		}
	}

	logger.Info("下载队列预填充完成", logger.Int("enqueued", enqueued))
	return enqueued
}

// Step 处理一个队列条目，队列为空时返回 false
// 单个条目下载失败只记录日志，不影响后续条目
func (w *Worker) Step(ctx context.Context) bool {
	id, ok := w.queue.Dequeue()
	if !ok {
		return false
	}

	if _, err := w.fetcher.Download(ctx, id); err != nil {
		logger.Error("音频下载失败", logger.String("id", id), logger.ErrorField(err))
	}
	return true
}

// Run 先预填充队列，然后持续消费直到 ctx 取消
// 队列为空时休眠一个周期再试
func (w *Worker) Run(ctx context.Context) {
	logger.Info("下载工作协程启动", logger.Duration("interval", w.cfg.WorkerInterval))
	w.Prepopulate()

	for {
		if ctx.Err() != nil {
			logger.Info("下载工作协程退出")
			return
		}
		if w.Step(ctx) {
			continue
		}
		select {
		case <-ctx.Done():
			logger.Info("下载工作协程退出")
			return
		case <-time.After(w.cfg.WorkerInterval):
		}
	}
}
