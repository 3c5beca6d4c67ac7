// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides the client behind the freelancer aggregate cache.

Entries carry a TTL and are dropped whenever a write commits, so the
relational store stays the source of truth. The cache is optional: a client
that cannot be reached at startup is a configuration error, one that fails
later only costs cache hits.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/freelancehub/internal/platform/constants"
)

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 500 * time.Millisecond
	writeTimeout = 500 * time.Millisecond
	pingTimeout  = 2 * time.Second
	poolSize     = 10
)

// options parses redisURL and applies the cache tuning.
//
// Read and write timeouts stay short because a slow cache must not hold up a
// request the database could answer. Retries are left to the next request.
func options(redisURL string) (*redis.Options, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	parsed.ClientName = constants.AppName
	parsed.PoolSize = poolSize
	parsed.MaxRetries = -1
	parsed.DialTimeout = dialTimeout
	parsed.ReadTimeout = readTimeout
	parsed.WriteTimeout = writeTimeout

	return parsed, nil
}

// NewClient parses a Redis URL and returns a client that answered a ping.
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	parsed, err := options(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(parsed)

	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", parsed.Addr),
		slog.Int("db", parsed.DB),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
