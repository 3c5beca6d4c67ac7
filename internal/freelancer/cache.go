// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/freelancehub/internal/platform/constants"
)

// Cache is a best-effort read cache of hydrated aggregates.
//
// Implementations never return errors; a failing cache behaves like a miss.
type Cache interface {
	Get(context context.Context, id int64) (*Freelancer, bool)
	Set(context context.Context, entity *Freelancer)
	Invalidate(context context.Context, id int64)
}

// NoopCache disables caching.
type NoopCache struct{}

func (NoopCache) Get(context.Context, int64) (*Freelancer, bool) { return nil, false }
func (NoopCache) Set(context.Context, *Freelancer)               {}
func (NoopCache) Invalidate(context.Context, int64)              {}

// RedisCache stores aggregates as JSON under [constants.RedisPrefixFreelancer].
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache constructs a [RedisCache] with the given entry lifetime.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// CacheKey returns the redis key of an aggregate.
func CacheKey(id int64) string {
	return constants.RedisPrefixFreelancer + strconv.FormatInt(id, 10)
}

// Get returns the cached aggregate, if present and decodable.
func (cache *RedisCache) Get(context context.Context, id int64) (*Freelancer, bool) {
	payload, err := cache.client.Get(context, CacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.logger.Warn("freelancer_cache_get_failed", slog.Int64("freelancer_id", id), slog.Any("error", err))
		}
		return nil, false
	}

	entity := &Freelancer{}
	if err := json.Unmarshal(payload, entity); err != nil {
		cache.logger.Warn("freelancer_cache_decode_failed", slog.Int64("freelancer_id", id), slog.Any("error", err))
		return nil, false
	}

	return entity, true
}

// Set stores the aggregate with the configured TTL.
func (cache *RedisCache) Set(context context.Context, entity *Freelancer) {
	payload, err := json.Marshal(entity)
	if err != nil {
		cache.logger.Warn("freelancer_cache_encode_failed", slog.Int64("freelancer_id", entity.ID), slog.Any("error", err))
		return
	}

	if err := cache.client.Set(context, CacheKey(entity.ID), payload, cache.ttl).Err(); err != nil {
		cache.logger.Warn("freelancer_cache_set_failed", slog.Int64("freelancer_id", entity.ID), slog.Any("error", err))
	}
}

// Invalidate drops the cached aggregate.
func (cache *RedisCache) Invalidate(context context.Context, id int64) {
	if err := cache.client.Del(context, CacheKey(id)).Err(); err != nil {
		cache.logger.Warn("freelancer_cache_invalidate_failed", slog.Int64("freelancer_id", id), slog.Any("error", err))
	}
}
