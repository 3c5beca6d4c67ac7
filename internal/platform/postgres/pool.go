// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres provides the managed PostgreSQL connection pool used by
// the freelancer aggregate store.
//
// # Session Settings
//
// Every physical connection gets a statement timeout bounded by the request
// deadline and a lock timeout. A reconciliation waiting on another writer's
// parent row lock gives up after the lock timeout with SQLSTATE 55P03, which
// the store reports as a conflict.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/freelancehub/internal/platform/constants"
)

const (
	maxConnLifetime   = 60 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

// Options tunes the pool. Zero fields fall back to [DefaultOptions].
type Options struct {
	MaxConns    int32
	MinConns    int32
	LockTimeout time.Duration
}

// DefaultOptions is sized for one API process.
var DefaultOptions = Options{
	MaxConns:    25,
	MinConns:    5,
	LockTimeout: 5 * time.Second,
}

func (options Options) withDefaults() Options {
	if options.MaxConns <= 0 {
		options.MaxConns = DefaultOptions.MaxConns
	}
	if options.MinConns <= 0 || options.MinConns > options.MaxConns {
		options.MinConns = min(DefaultOptions.MinConns, options.MaxConns)
	}
	if options.LockTimeout <= 0 {
		options.LockTimeout = DefaultOptions.LockTimeout
	}
	return options
}

// sessionSettings are executed on every new connection.
func sessionSettings(lockTimeout time.Duration) []string {
	return []string{
		fmt.Sprintf("SET statement_timeout = %d", constants.GlobalRequestTimeout.Milliseconds()),
		fmt.Sprintf("SET lock_timeout = %d", lockTimeout.Milliseconds()),
	}
}

// NewPool creates and validates a new PostgreSQL connection pool.
//
// # Parameters
//   - ctx: Context for the initial connection attempt.
//   - dsn: A libpq-compatible connection string or postgres:// URL.
//   - options: Pool sizing and lock timeout.
//   - logger: Structured logger for pool-level events.
func NewPool(ctx context.Context, dsn string, options Options, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	options = options.withDefaults()
	poolConfig.MaxConns = options.MaxConns
	poolConfig.MinConns = options.MinConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	poolConfig.ConnConfig.RuntimeParams["application_name"] = constants.AppName

	settings := sessionSettings(options.LockTimeout)
	poolConfig.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
		for _, statement := range settings {
			if _, err := connection.Exec(ctx, statement); err != nil {
				return err
			}
		}
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_pool_connected",
		slog.Int("max_conns", int(options.MaxConns)),
		slog.Duration("lock_timeout", options.LockTimeout),
	)

	return pool, nil
}

// Ping verifies that the PostgreSQL connection pool is healthy.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}

	return nil
}
