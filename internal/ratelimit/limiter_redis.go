package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pressroom:ratelimit:"

// RedisLimiter is a fixed-window limiter shared across instances. Each
// window is a counter that expires with the window itself.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	per    time.Duration
}

// NewRedis builds a limiter allowing limit requests per key per window.
func NewRedis(client *redis.Client, limit int, per time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, per: per}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	k := redisKeyPrefix + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.per).Err(); err != nil {
			return Result{}, fmt.Errorf("set rate limit window expiry: %w", err)
		}
	}

	if count > int64(l.limit) {
		ttl, err := l.client.TTL(ctx, k).Result()
		if err != nil || ttl < 0 {
			ttl = l.per
		}
		return Result{Allowed: false, RetryAfter: ttl}, nil
	}
	return Result{Allowed: true, Remaining: l.limit - int(count)}, nil
}
