package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTracker хранит счётчики в Redis: ключ login_attempts:<key>:<bucket>
// со сроком жизни в одно окно. Счётчики общие для всех экземпляров сервиса.
type RedisTracker struct {
	client redis.UniversalClient
	limits Limits
	clock  func() time.Time
}

func NewRedisTracker(client redis.UniversalClient, limits Limits) *RedisTracker {
	return &RedisTracker{client: client, limits: limits, clock: time.Now}
}

func (t *RedisTracker) WithClock(clock func() time.Time) *RedisTracker {
	t.clock = clock
	return t
}

func (t *RedisTracker) redisKey(key string, bucket int64) string {
	return fmt.Sprintf("login_attempts:%s:%d", key, bucket)
}

func (t *RedisTracker) Check(ctx context.Context, key string) error {
	now := t.clock()
	n, err := t.client.Get(ctx, t.redisKey(key, t.limits.bucket(now))).Int()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get attempts: %w", err)
	}
	if n >= t.limits.MaxAttempts {
		return t.limits.limited(key, now)
	}
	return nil
}

func (t *RedisTracker) Record(ctx context.Context, key string, success bool) error {
	now := t.clock()
	k := t.redisKey(key, t.limits.bucket(now))
	if success {
		if err := t.client.Del(ctx, k).Err(); err != nil {
			return fmt.Errorf("redis reset attempts: %w", err)
		}
		return nil
	}

	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, t.limits.retryAfter(now)+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record attempt: %w", err)
	}
	return nil
}
