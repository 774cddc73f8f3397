package cmd

import (
	"context"
	"log"

	"Bt1QCast/cache"
	"Bt1QCast/config"
	"Bt1QCast/core/download"
	"Bt1QCast/core/fetcher"
	"Bt1QCast/core/refresh"
	"Bt1QCast/logger"
	"Bt1QCast/model"
	"Bt1QCast/storage"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "执行一轮元数据刷新后退出",
	Long:  `按当前配置对全部订阅源执行一次元数据刷新并填充下载队列，用于手工预热缓存或排查源配置问题`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: cfg.LogLevel})

		store, err := cache.NewMetaStore(cfg.MetaDir)
		if err != nil {
			log.Fatalf("Failed to open metadata store: %v", err)
		}
		artifacts, err := storage.NewArtifactStore(cfg.AudioDir)
		if err != nil {
			log.Fatalf("Failed to open artifact store: %v", err)
		}

		queue := download.NewQueue(download.Policy(cfg.QueuePolicy), artifacts.Exists)
		mediaFetcher := fetcher.NewYtdlpFetcher(cfg, artifacts)
		loadSources := func() ([]*model.Source, error) {
			return config.LoadSources(cfg.SourcesFile)
		}

		r := refresh.NewRefresher(store, queue, mediaFetcher, cfg, loadSources, nil)
		r.RefreshOnce(context.Background())
		logger.Info("单轮刷新完成", logger.Int("queued", queue.Len()))
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
