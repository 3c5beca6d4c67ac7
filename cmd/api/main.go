// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the freelancehub HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the aggregate store (PostgreSQL with migrations, or SQLite).
//  4. Connect to Redis when configured.
//  5. Wire the freelancer service and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/freelancehub/internal/api"
	"github.com/taibuivan/freelancehub/internal/freelancer"
	"github.com/taibuivan/freelancehub/internal/platform/config"
	"github.com/taibuivan/freelancehub/internal/platform/constants"
	"github.com/taibuivan/freelancehub/internal/platform/migration"
	pgstore "github.com/taibuivan/freelancehub/internal/platform/postgres"
	redisstore "github.com/taibuivan/freelancehub/internal/platform/redis"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("store_driver", cfg.StoreDriver),
	)

	// Startup deadline so misconfiguration fails fast instead of hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Aggregate Store ────────────────────────────────────────────────
	store, checkDatabase, closeStore := openStore(startupCtx, cfg, log)
	defer closeStore()

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var cache freelancer.Cache
	var checkCache api.Check
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any(constants.FieldError, cerr))
			}
		}()

		cache = freelancer.NewRedisCache(rdb, cfg.CacheTTL, log)
		checkCache = pingRedis(rdb)
	} else {
		log.Info("aggregate_cache_disabled")
	}

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		DatabaseName:  cfg.StoreDriver,
		CheckDatabase: checkDatabase,
		CheckCache:    checkCache,
	}, log)

	freelancerService := freelancer.NewService(store, cache, log)
	freelancerHandler := freelancer.NewHandler(freelancerService)

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Freelancer: freelancerHandler,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any(constants.FieldError, err))
	}

	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any(constants.FieldError, err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String(constants.FieldApp, constants.AppName))
}

/*
openStore opens the configured aggregate store.

Returns:
  - freelancer.Store: The store
  - api.Check: Readiness check for the store
  - func(): Releases the underlying connections
*/
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (freelancer.Store, api.Check, func()) {
	if cfg.StoreDriver == config.DriverSQLite {
		store, err := freelancer.OpenSQLite(ctx, cfg.SQLitePath)
		must(log, err, "open sqlite")
		log.Info("sqlite_store_opened", slog.String("path", cfg.SQLitePath))

		return store, store.Ping, func() {
			log.Info("closing_sqlite_store")
			if err := store.Close(); err != nil {
				log.Error("sqlite_close_failed", slog.Any(constants.FieldError, err))
			}
		}
	}

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, pgstore.Options{
		MaxConns:    cfg.DatabaseMaxConns,
		LockTimeout: cfg.DatabaseLockTimeout,
	}, log)
	must(log, err, "connect to postgres")

	must(log, migration.RunUp(cfg.DatabaseURL, migration.Source(cfg.MigrationPath), log), "run migrations")

	check := func(context context.Context) error {
		return pgstore.Ping(context, pool)
	}
	return freelancer.NewPostgresStore(pool), check, func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}
}

func pingRedis(client *goredis.Client) api.Check {
	return func(context context.Context) error {
		return redisstore.Ping(context, client)
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// Only used for startup wiring. After startup, errors are returned and handled.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any(constants.FieldError, err),
		)
		os.Exit(1)
	}
}
