package main

import (
	"context"
	"net/http"

	"pokedex/internal/config"
	"pokedex/internal/httpx"

	"go.uber.org/zap"
)

type readinessFunc func(ctx context.Context) error

type routeRegistrar interface {
	Routes(mux *http.ServeMux)
}

func newRouter(cfg config.Config, logger *zap.Logger, ready readinessFunc, limiter *httpx.RateLimitMiddleware, handlers ...routeRegistrar) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := ready(r.Context()); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	for _, h := range handlers {
		h.Routes(router)
	}

	return httpx.Chain(router,
		httpx.RecoveryMiddleware(logger),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.SecurityHeadersMiddleware,
		httpx.CORSMiddleware(cfg.CORSOrigins),
		limiter.Middleware,
	)
}
