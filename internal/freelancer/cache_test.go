// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "freelancer:aggregate:42", CacheKey(42))
}

func TestNoopCache_AlwaysMisses(t *testing.T) {
	cache := NoopCache{}
	cache.Set(context.Background(), &Freelancer{ID: 1})

	entity, hit := cache.Get(context.Background(), 1)
	assert.Nil(t, entity)
	assert.False(t, hit)
}

/*
TestRedisCache_UnreachableServerIsAMiss points the cache at a closed port.
Every call must degrade to a miss instead of failing the request.
*/
func TestRedisCache_UnreachableServerIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cache := NewRedisCache(client, time.Minute, discardLogger())
	ctx := context.Background()

	cache.Set(ctx, &Freelancer{ID: 7, Username: "ada"})
	cache.Invalidate(ctx, 7)

	entity, hit := cache.Get(ctx, 7)
	assert.Nil(t, entity)
	assert.False(t, hit)
}
