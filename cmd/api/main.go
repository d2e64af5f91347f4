package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pokedex/internal/app"
	"pokedex/internal/catalog"
	"pokedex/internal/config"
	"pokedex/internal/httpx"
	"pokedex/internal/ingest"
	"pokedex/internal/logging"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnvFiles()
	cfg := config.Load()

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("cannot initialise catalog", zap.Error(err))
	}
	defer a.Close()

	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	handler := catalog.NewHTTPHandler(a.Catalog, logger.Named("http"))

	var runs ingest.Repository
	if a.DB != nil {
		runs = ingest.NewPostgresRepo(a.DB)
	}
	warmer := ingest.NewService(a.Catalog, runs, ingest.Config{
		Pages:       cfg.WarmPages,
		Details:     true,
		Concurrency: cfg.DetailConcurrency,
	}, logger.Named("warm"))
	if a.Cache != nil {
		warmer.SetCache(a.Cache)
	}
	warmHandler := ingest.NewHTTPHandler(warmer, cfg.InternalSecret)

	httpServer := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      newRouter(cfg, logger, a.Ready, limiter, handler, warmHandler),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("addr", cfg.AppAddr), zap.Bool("persistent_cache", a.DB != nil))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
