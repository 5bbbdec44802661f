package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/peerpoint/scoring-engine/internal/config"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil // cache miss
	}
	return val, err
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// GetOrCompute returns the cached value for key, or runs compute, stores the
// result under key with the given TTL, and returns it. Compute errors are
// returned as-is; a cache read/write error is not fatal as long as compute
// succeeds, so a Redis outage degrades to uncached reads.
func (c *RedisCache) GetOrCompute(
	ctx context.Context,
	key string,
	ttl time.Duration,
	compute func(ctx context.Context) (string, error),
) (string, error) {
	if cached, err := c.Get(ctx, key); err == nil && cached != "" {
		return cached, nil
	}

	val, err := compute(ctx)
	if err != nil {
		return "", err
	}

	_ = c.Set(ctx, key, val, ttl)
	return val, nil
}

// KeyForTrendingTop generates the cache key for the top-N trending list.
func (c *RedisCache) KeyForTrendingTop(limit int) string {
	return fmt.Sprintf("trending:top:%d", limit)
}
