package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Leganyst/mci-platform/internal/apperrors"
)

// Требует живой Redis: REDIS_ADDR=localhost:6379 go test ./internal/ratelimit
func TestRedisTracker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	key := "test-" + uuid.NewString()
	tr := NewRedisTracker(client, Limits{MaxAttempts: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		if err := tr.Check(ctx, key); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if err := tr.Record(ctx, key, false); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := tr.Check(ctx, key); !apperrors.IsKind(err, apperrors.KindRateLimited) {
		t.Fatalf("err = %v, want RATE_LIMITED", err)
	}
	if err := tr.Record(ctx, key, true); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := tr.Check(ctx, key); err != nil {
		t.Fatalf("after success: %v", err)
	}
}
