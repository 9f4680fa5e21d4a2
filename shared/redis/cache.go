// shared/redis/cache.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the subset of redis.UniversalClient the cache uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ResponseCache stores JSON encoded API responses with a fixed TTL.
type ResponseCache struct {
	kv  KV
	ttl time.Duration
}

func NewResponseCache(kv KV, ttl time.Duration) *ResponseCache {
	return &ResponseCache{kv: kv, ttl: ttl}
}

// Get decodes the cached value into dst. A miss returns ErrRedisKeyNotFound.
func (c *ResponseCache) Get(ctx context.Context, key string, dst interface{}) error {
	data, err := c.kv.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrRedisKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return nil
}

func (c *ResponseCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}
	if err := c.kv.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}
