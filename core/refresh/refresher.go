package refresh

import (
	"context"
	"time"

	"Bt1QCast/cache"
	"Bt1QCast/config"
	"Bt1QCast/core/download"
	"Bt1QCast/core/fetcher"
	"Bt1QCast/logger"
	"Bt1QCast/model"
)

// SourceLoader 返回当前配置的全部订阅源
type SourceLoader func() ([]*model.Source, error)

// Refresher 周期性刷新全部订阅源的元数据，并把新条目送进下载队列
// 每个周期重新加载源配置；TTL 按 URL 单独判断，单个 URL 失败不影响其余
type Refresher struct {
	store       *cache.MetaStore
	queue       *download.Queue
	fetcher     fetcher.MediaFetcher
	cfg         *config.Config
	loadSources SourceLoader
	reload      <-chan struct{} // 源配置文件变更信号，触发立即刷新；可以为 nil
}

// NewRefresher 创建刷新调度器
func NewRefresher(store *cache.MetaStore, queue *download.Queue, f fetcher.MediaFetcher,
	cfg *config.Config, loadSources SourceLoader, reload <-chan struct{}) *Refresher {
	return &Refresher{
		store:       store,
		queue:       queue,
		fetcher:     f,
		cfg:         cfg,
		loadSources: loadSources,
		reload:      reload,
	}
}

// RefreshOnce 执行一轮刷新：重新加载源配置，逐个 URL 判断 TTL 并抓取
// 整轮都是尽力而为，任何单点失败只记录日志
func (r *Refresher) RefreshOnce(ctx context.Context) {
	sources, err := r.loadSources()
	if err != nil {
		logger.Error("读取源配置失败，跳过本轮刷新", logger.ErrorField(err))
		return
	}

	cutoff := r.cfg.RetentionCutoff(time.Now())
	for _, src := range sources {
		for _, url := range src.URLs {
			if ctx.Err() != nil {
				return
			}
			if !r.store.IsStale(url, r.cfg.MetadataTTL) {
				continue
			}
			r.refreshURL(ctx, src.Key, url, cutoff)
		}
	}
}

// refreshURL 刷新单个 URL：抓取、落盘、把留存窗口内的条目入队
// 抓取失败时保留旧缓存记录，本周期不为该 URL 入队任何条目
func (r *Refresher) refreshURL(ctx context.Context, key, url string, cutoff time.Time) {
	payload, err := r.fetcher.FetchMetadata(ctx, url)
	if err != nil {
		logger.Error("元数据刷新失败，保留旧记录",
			logger.String("source", key),
			logger.String("url", url),
			logger.ErrorField(err),
		)
		return
	}

	if err := r.store.Put(url, payload, time.Now()); err != nil {
		logger.Error("元数据写入失败",
			logger.String("source", key),
			logger.String("url", url),
			logger.ErrorField(err),
		)
		return
	}

	enqueued := 0
	for _, item := range payload.Items() {
		published, err := item.PublishedAt()
		if err != nil {
			logger.Warn("条目上传日期无法解析，跳过下载",
				logger.String("id", item.ID), logger.ErrorField(err))
			continue
		}
		if published.Before(cutoff) {
			continue
		}
		if r.queue.Enqueue(item.ID) {
			enqueued++
		}
	}

	logger.Info("元数据已刷新",
		logger.String("source", key),
		logger.String("url", url),
		logger.Int("items", len(payload.Items())),
		logger.Int("enqueued", enqueued),
	)
}

// Run 以固定周期运行刷新直到 ctx 取消，启动时先刷一轮
// 源配置文件被修改时立即追加一轮，不用等下一个周期
func (r *Refresher) Run(ctx context.Context) {
	logger.Info("刷新调度器启动",
		logger.Duration("interval", r.cfg.RefreshInterval),
		logger.Duration("ttl", r.cfg.MetadataTTL),
	)
	r.RefreshOnce(ctx)

	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("刷新调度器退出")
			return
		case <-ticker.C:
			r.RefreshOnce(ctx)
		case <-r.reload:
			logger.Info("检测到源配置变更，立即刷新")
			r.RefreshOnce(ctx)
		}
	}
}
