package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Bt1QCast/cache"
	"Bt1QCast/config"
	"Bt1QCast/core/download"
	"Bt1QCast/core/fetcher"
	"Bt1QCast/core/podcast"
	"Bt1QCast/core/refresh"
	"Bt1QCast/logger"
	"Bt1QCast/model"
	"Bt1QCast/storage"

	"github.com/gorilla/mux"
)

// Start initializes all components and starts the HTTP server.
// 进程内只有三个并发角色：HTTP 服务、刷新调度器、下载工作协程
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	store, err := cache.NewMetaStore(cfg.MetaDir)
	if err != nil {
		logger.Fatal("初始化元数据缓存失败", logger.ErrorField(err))
	}
	artifacts, err := storage.NewArtifactStore(cfg.AudioDir)
	if err != nil {
		logger.Fatal("初始化音频产物目录失败", logger.ErrorField(err))
	}

	mediaFetcher := fetcher.NewYtdlpFetcher(cfg, artifacts)
	queue := download.NewQueue(download.Policy(cfg.QueuePolicy), artifacts.Exists)

	loadSources := func() ([]*model.Source, error) {
		return config.LoadSources(cfg.SourcesFile)
	}

	// 后台循环随进程退出一起取消
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reload, err := config.WatchSources(ctx, cfg.SourcesFile)
	if err != nil {
		logger.Warn("无法监听源配置文件，仅按周期热加载", logger.ErrorField(err))
	}

	refresher := refresh.NewRefresher(store, queue, mediaFetcher, cfg, loadSources, reload)
	worker := download.NewWorker(queue, mediaFetcher, store, cfg, loadSources)
	assembler := podcast.NewAssembler(store, cfg, loadSources)

	go refresher.Run(ctx)
	go worker.Run(ctx)

	handler := NewPodcastHandler(assembler, artifacts, queue, cfg)

	router := mux.NewRouter()
	router.Use(requestIDMiddleware, accessLogMiddleware)
	router.HandleFunc("/", handler.HandleHome).Methods(http.MethodGet)
	router.HandleFunc("/{key}.xml", handler.HandleFeed).Methods(http.MethodGet)
	router.HandleFunc("/{id}.mp3", handler.HandleEpisode).Methods(http.MethodGet, http.MethodHead)

	server := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		// 音频文件可能很大，不设写超时
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("HTTP 服务启动",
			logger.String("addr", cfg.ListenAddr),
			logger.String("publicURL", cfg.PublicURL),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务启动失败", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("正在关闭服务...")

	// 先停后台循环，再优雅关闭 HTTP
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("服务关闭失败", logger.ErrorField(err))
	}
	logger.Info("服务已停止")
}
