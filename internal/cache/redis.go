package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// RedisCache shares reports between processes through Redis. Keys carry the
// cfpqc:v1: prefix so Clear only touches this tool's entries.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// DialRedis connects to addr and verifies the server answers
func DialRedis(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisCache(client, ttl), nil
}

// Get retrieves a value. Connection errors read as a miss.
func (c *RedisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a value. A zero ttl uses the cache default.
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	if ttl < 0 {
		ttl = 0 // redis: no expiry
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value
func (c *RedisCache) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := c.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes every cfpqc key using SCAN + DEL
func (c *RedisCache) Clear() error {
	ctx := context.Background()
	pattern := keyPrefix + "*"

	iter := c.client.Scan(ctx, 0, pattern, 200).Iterator()
	pipe := c.client.Pipeline()
	batch := 0

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		batch++
		if batch >= 500 {
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("redis clear pipeline exec: %w", err)
			}
			pipe = c.client.Pipeline()
			batch = 0
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis SCAN %s: %w", pattern, err)
	}

	if batch > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis clear pipeline exec: %w", err)
		}
	}
	return nil
}

// Close releases the client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
