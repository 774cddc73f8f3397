package server

import (
	"net/http"
	"time"

	"Bt1QCast/logger"

	"github.com/google/uuid"
)

// requestIDMiddleware 为每个请求生成唯一 ID，写回响应头便于日志关联
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		r.Header.Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// accessLogMiddleware 记录访问日志
func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("requestId", r.Header.Get("X-Request-ID")),
			logger.Duration("elapsed", time.Since(start)),
		)
	})
}
