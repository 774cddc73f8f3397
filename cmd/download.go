package cmd

import (
	"context"
	"log"
	"regexp"

	"Bt1QCast/config"
	"Bt1QCast/core/fetcher"
	"Bt1QCast/logger"
	"Bt1QCast/storage"

	"github.com/spf13/cobra"
)

var downloadIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var downloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "下载单个条目的音频后退出",
	Long:  `跳过队列直接下载指定条目的音频产物，用于手工补齐个别缺失的文件`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		if !downloadIDPattern.MatchString(id) {
			log.Fatalf("Invalid item id: %q", id)
		}

		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: cfg.LogLevel})

		artifacts, err := storage.NewArtifactStore(cfg.AudioDir)
		if err != nil {
			log.Fatalf("Failed to open artifact store: %v", err)
		}
		if artifacts.Exists(id) {
			logger.Info("产物已存在，跳过下载", logger.String("path", artifacts.Path(id)))
			return
		}

		mediaFetcher := fetcher.NewYtdlpFetcher(cfg, artifacts)
		path, err := mediaFetcher.Download(context.Background(), id)
		if err != nil {
			logger.Fatal("下载失败", logger.String("id", id), logger.ErrorField(err))
		}
		logger.Info("下载完成", logger.String("path", path))
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}
