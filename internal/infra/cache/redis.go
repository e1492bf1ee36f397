package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard implements domain.RunGuard on a Redis SETNX key. The guard is
// advisory: a double-fired cron triggers one run per window, but the
// pipeline stays correct without it.
type RedisGuard struct {
	client *redis.Client
}

// NewRedisGuard creates a guard.
func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

// Once runs fn if the key was not set within ttl. A failed fn releases the
// key so the next trigger retries.
func (g *RedisGuard) Once(key string, ttl time.Duration, fn func() error) error {
	ctx := context.Background()
	ok, err := g.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := fn(); err != nil {
		_ = g.client.Del(ctx, key).Err()
		return err
	}
	return nil
}
