package main

import (
	"context"
	"flag"
	"fmt"

	"pokedex/internal/config"
	"pokedex/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	config.LoadEnvFiles()
	cfg := config.Load()

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	dsn := databaseDSN()
	dir := migrationsDir()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.String("dsn", config.RedactDSN(dsn)), zap.Error(err))
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal("failed to set dialect", zap.Error(err))
	}

	switch *command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("migrations applied", zap.String("dir", dir))
	case "down":
		if err := goose.Down(db, dir); err != nil {
			logger.Fatal("failed to roll back migrations", zap.Error(err))
		}
		logger.Info("migrations rolled back", zap.String("dir", dir))
	case "status":
		if err := goose.Status(db, dir); err != nil {
			logger.Fatal("failed to check migration status", zap.Error(err))
		}
	case "create":
		if *name == "" {
			logger.Fatal("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			logger.Fatal("failed to create migration", zap.Error(err))
		}
		fmt.Printf("Migration created: %s\n", *name)
	default:
		logger.Fatal(fmt.Sprintf("unknown command %q, use: up, down, status, create", *command))
	}
}
