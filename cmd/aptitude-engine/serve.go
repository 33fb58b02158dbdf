package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/terra-clan/aptitude-engine/internal/api"
	"github.com/terra-clan/aptitude-engine/internal/app"
	"github.com/terra-clan/aptitude-engine/internal/assessment"
	"github.com/terra-clan/aptitude-engine/internal/auth"
	"github.com/terra-clan/aptitude-engine/internal/catalog"
	"github.com/terra-clan/aptitude-engine/internal/cleanup"
	"github.com/terra-clan/aptitude-engine/internal/config"
	"github.com/terra-clan/aptitude-engine/internal/history"
	"github.com/terra-clan/aptitude-engine/internal/services"
	"github.com/terra-clan/aptitude-engine/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Catalog.Dir = flagOr(cmd, "catalog", cfg.Catalog.Dir)
	cfg.Database.MigrationsDir = flagOr(cmd, "migrations", cfg.Database.MigrationsDir)

	setupLogging(cfg.LogLevel)

	slog.Info("starting aptitude-engine",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"history_backend", cfg.History.Backend,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	applied, err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		slog.Info("migrations applied", "migrations", applied)
	}

	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		return fmt.Errorf("failed to create database repository: %w", err)
	}
	defer repo.Close()
	slog.Info("database connected successfully")

	// Readiness probes
	registry := services.NewRegistry()
	defer registry.Close()

	expected, err := storage.MigrationNames(storage.MigrationsFS(cfg.Database.MigrationsDir))
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	pgProbe, err := services.NewPostgresProbe(cfg.Database.DSN, expected)
	if err != nil {
		return err
	}
	registry.Register(pgProbe)

	// Score history
	scores, redisClient, err := openHistory(initCtx, cfg)
	if err != nil {
		return err
	}
	defer scores.Close()
	if redisClient != nil {
		defer redisClient.Close()
		registry.Register(services.NewRedisProbe(redisClient))
	}

	// Catalog
	loader := catalog.NewLoader()
	if err := loader.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Warn("failed to load catalog from dir", "dir", cfg.Catalog.Dir, "error", err)
	}
	if problems := loader.Problems(); len(problems) > 0 {
		slog.Warn("catalog loaded with problems", "count", len(problems))
	}
	slog.Info("catalog loaded", "topics", len(loader.ListTopics()))

	authService := auth.NewService(repo, cfg.Auth, auth.NewLogSender(slog.Default()))
	manager := assessment.NewManager(loader, scores, cfg.Assessment)
	appService := app.NewService(authService, authService, scores)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleaner := cleanup.NewCleaner(manager, repo, cfg.Cleanup.Interval)
	cleaner.Start(ctx)

	server := api.NewServer(cfg.Server, loader, manager, appService, authService, registry)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      75 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serveErr:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("shutting down gracefully...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// stops every countdown before the stores close
	if err := manager.Close(); err != nil {
		slog.Error("manager close error", "error", err)
	}

	slog.Info("aptitude-engine stopped")
	return nil
}

// openHistory opens the configured score history backend. The Redis client
// is returned so the caller can probe and close it.
func openHistory(ctx context.Context, cfg *config.Config) (history.Store, *redis.Client, error) {
	switch cfg.History.Backend {
	case config.HistorySQLite:
		if cfg.History.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.History.SQLitePath), 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create history dir: %w", err)
			}
		}
		store, err := history.OpenSQLite(ctx, cfg.History.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("score history on sqlite", "path", cfg.History.SQLitePath)
		return store, nil, nil

	default:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("score history on redis", "address", cfg.Redis.Address)
		return history.NewRedisStore(client), client, nil
	}
}
