package main

import (
	"context"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Adithyan-b-raj/Anonchat/internal/chat"
	"github.com/Adithyan-b-raj/Anonchat/internal/config"
	"github.com/Adithyan-b-raj/Anonchat/internal/repository"
	"github.com/Adithyan-b-raj/Anonchat/internal/repository/cache"
	"github.com/Adithyan-b-raj/Anonchat/internal/repository/database"
	"github.com/Adithyan-b-raj/Anonchat/internal/server"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	store, err := buildStore(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to init store: ", err)
	}
	slog.Info("Store inited", "backend", cfg.Store.Backend)

	hub := chat.NewHub(store, cfg.Chat)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := server.NewServer(hub, store, cfg.Chat.HistoryLimit,
		server.WithOnShutdown(func() error {
			cancel()
			return store.Close()
		}),
	)

	if err := srv.Run(cfg.App.Port); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(time.Second))

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		var db *sqlx.DB
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			var err error
			db, err = database.Connect(cfg.Database.DSN())
			return retry.RetryableError(err)
		})
		if err != nil {
			return nil, err
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		migrationsPath := filepath.Join("internal", "repository", "database", "migrations")
		if err := goose.Up(db.DB, migrationsPath); err != nil {
			return nil, err
		}
		slog.Info("Migrations completed")

		return database.NewPostgresStore(db), nil

	case config.BackendRedis:
		client := cache.NewClient(cfg.Redis.Addr)
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			return retry.RetryableError(client.Ping(ctx).Err())
		})
		if err != nil {
			return nil, err
		}
		return cache.NewRedisStore(client), nil

	default:
		return repository.NewMemoryStore(), nil
	}
}
