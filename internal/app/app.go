// Package app wires configuration into a ready catalog service. Both
// binaries share it.
package app

import (
	"context"
	"fmt"
	"time"

	"pokedex/internal/catalog"
	"pokedex/internal/config"
	"pokedex/internal/platform/pokeapi"
	"pokedex/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Client  *pokeapi.Client
	Catalog *catalog.Service
	// DB and Cache are nil when no DSN is configured and the memory cache is
	// in use.
	DB    *pgxpool.Pool
	Cache *store.ResponseCachePG
}

// New builds the PokeAPI client with the response cache selected by cfg
// and the catalog service on top of it.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	var cache pokeapi.Cache
	if cfg.DatabaseDSN != "" {
		pool, err := openDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("database connection OK", zap.String("dsn", config.RedactDSN(cfg.DatabaseDSN)))
		a.DB = pool
		a.Cache = store.NewResponseCachePG(pool, store.DefaultCacheTTL)
		cache = a.Cache
	} else {
		mem, err := pokeapi.NewMemoryCache(cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("memory cache: %w", err)
		}
		cache = mem
	}

	a.Client = pokeapi.NewClient(cfg.UserAgent, cfg.UpstreamRPS, cfg.MaxRetries,
		pokeapi.WithBaseURL(cfg.PokeAPIBaseURL),
		pokeapi.WithCache(cache),
		pokeapi.WithLogger(logger.Named("pokeapi")),
	)
	a.Catalog = catalog.NewService(a.Client, catalog.Config{
		PageSize:          cfg.PageSize,
		DetailConcurrency: cfg.DetailConcurrency,
	}, logger.Named("catalog"))
	return a, nil
}

// Ready reports whether backing storage is reachable.
func (a *App) Ready(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return a.DB.Ping(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database (%s): %w", config.RedactDSN(dsn), err)
	}
	return pool, nil
}
