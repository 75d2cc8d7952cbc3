package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every instance that points
// at the same Redis. Keys carry the window start, so a window's counter is
// never reused once the window has passed.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, perMinute int) *RedisLimiter {
	if prefix == "" {
		prefix = "dscatalog:rl:"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		max:    int64(perMinute),
		window: defaultWindow,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if l.max <= 0 {
		return Result{Allowed: true}, nil
	}

	windowStart := l.now().UTC().Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), windowStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	hits := incr.Val()
	if hits <= l.max {
		return Result{Allowed: true, Remaining: l.max - hits}, nil
	}

	retryAfter := windowStart.Add(l.window).Sub(l.now().UTC())
	return Result{Allowed: false, RetryAfter: retryAfter}, nil
}

// Ping reports whether Redis is reachable.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
