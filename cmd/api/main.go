// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Archivum HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and run migrations.
//  4. Connect to Redis when REDIS_URL is set.
//  5. Wire repositories, services and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/archivum/internal/api"
	"github.com/taibuivan/archivum/internal/core/access"
	"github.com/taibuivan/archivum/internal/core/archive"
	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/platform/config"
	"github.com/taibuivan/archivum/internal/platform/constants"
	"github.com/taibuivan/archivum/internal/platform/migration"
	pgstore "github.com/taibuivan/archivum/internal/platform/postgres"
	redisstore "github.com/taibuivan/archivum/internal/platform/redis"
	"github.com/taibuivan/archivum/internal/platform/sec"
	"github.com/taibuivan/archivum/internal/users/account"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName), slog.String("version", constants.AppVersion))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		level.Set(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("cache_enabled", cfg.RedisURL != ""),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	health := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
	}

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var versionCache archive.Cache = archive.NopCache{}
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()

		versionCache = archive.NewRedisCache(rdb, cfg.CacheTTL, log)
		health.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	verifier, err := sec.NewTokenVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize token verifier")

	accountService := account.NewService(account.NewPostgresRepository(pool), log)

	versionStore := archive.NewVersionStore(archive.NewPostgresRepository(pool), versionCache, cfg.VersionRetryLimit, log)

	rules := access.NewPostgresRepository(pool)
	evaluator := access.NewEvaluator(rules)
	accessService := access.NewService(rules, versionStore, log)

	archiveService := archive.NewService(versionStore, evaluator, cfg.PageMaxLimit, log)

	liveness, readiness := api.NewHealthHandlers(health, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Identity:  account.NewHandler(accountService),
		Rules:     access.NewHandler(accessService),
		Media:     archive.NewHandler(archiveService, entity.ClassMedia, cfg.PageDefaultLimit, cfg.PageMaxLimit),
		Series:    archive.NewHandler(archiveService, entity.ClassSeries, cfg.PageDefaultLimit, cfg.PageMaxLimit),
	}

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, verifier, accountService, handlers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_failed", slog.Any("error", err))
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// Only for startup wiring; after startup all errors are returned and handled.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failed", slog.String("step", step), slog.Any("error", err))
		os.Exit(1)
	}
}
