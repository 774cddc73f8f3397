package server

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"Bt1QCast/config"
	"Bt1QCast/core/download"
	"Bt1QCast/core/podcast"
	"Bt1QCast/logger"
	"Bt1QCast/storage"

	"github.com/gorilla/mux"
)

// artifactIDPattern 限制音频请求的 ID 字符集，防止路径穿越
// 校验在任何文件系统访问之前完成
var artifactIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// PodcastHandler 处理播客相关的全部 HTTP 请求
type PodcastHandler struct {
	assembler *podcast.Assembler
	artifacts *storage.ArtifactStore
	queue     *download.Queue
	cfg       *config.Config
}

// NewPodcastHandler 创建播客请求处理器
func NewPodcastHandler(assembler *podcast.Assembler, artifacts *storage.ArtifactStore,
	queue *download.Queue, cfg *config.Config) *PodcastHandler {
	return &PodcastHandler{
		assembler: assembler,
		artifacts: artifacts,
		queue:     queue,
		cfg:       cfg,
	}
}

// HandleHome 健康探测
func (h *PodcastHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "ok")
}

// HandleFeed 渲染某个订阅源的 RSS 文档
// 只读缓存：源尚未抓取完成时返回当前已有的内容，绝不阻塞等网络
func (h *PodcastHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	items, err := h.assembler.Assemble(key)
	if err != nil {
		if errors.Is(err, podcast.ErrUnknownSource) {
			http.Error(w, "unknown feed", http.StatusNotFound)
			return
		}
		logger.Error("组装订阅失败", logger.String("key", key), logger.ErrorField(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	body, err := podcast.RenderRSS(key, items, h.cfg.PublicURL)
	if err != nil {
		logger.Error("渲染订阅失败", logger.String("key", key), logger.ErrorField(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write(body)
}

// HandleEpisode 发送某个条目的音频文件
// 产物未就绪时把条目补进下载队列并返回 202，让客户端稍后重试
func (h *PodcastHandler) HandleEpisode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if !artifactIDPattern.MatchString(id) {
		http.Error(w, "invalid episode id", http.StatusBadRequest)
		return
	}

	if !h.artifacts.Exists(id) {
		// 入队是幂等的：已排队或产物刚好出现都不会重复
		if h.queue.Enqueue(id) {
			logger.Info("按需补录下载任务", logger.String("id", id))
		}
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, "episode not ready yet")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, h.artifacts.Path(id))
}
