package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenCache shares auth tickets between concurrent sync processes
type RedisTokenCache struct {
	client *redis.Client
}

// NewRedisTokenCache connects to the Redis server at url (redis://host:port/db).
func NewRedisTokenCache(ctx context.Context, url string) (*RedisTokenCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.PoolSize = 4
	opts.MaxRetries = 3
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTokenCache{client: client}, nil
}

// NewRedisTokenCacheFromClient wraps an existing client.
func NewRedisTokenCacheFromClient(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

// Get returns an empty string on a cache miss.
func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return val, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, key string, token string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (c *RedisTokenCache) Close() error {
	return c.client.Close()
}
