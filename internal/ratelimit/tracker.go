// Package ratelimit ограничивает число неудачных попыток входа по ключу.
//
// Время делится на фиксированные окна длины window; в каждом окне ключу
// разрешено не больше maxAttempts неудач. Успешный вход сбрасывает ключ.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/Leganyst/mci-platform/internal/apperrors"
)

// AttemptTracker — счётчик попыток. Экземпляр передаётся через конструкторы.
type AttemptTracker interface {
	// Check возвращает RATE_LIMITED, если в текущем окне лимит исчерпан.
	Check(ctx context.Context, key string) error
	// Record учитывает результат попытки.
	Record(ctx context.Context, key string, success bool) error
}

// Limits — общие параметры для всех реализаций.
type Limits struct {
	MaxAttempts int
	Window      time.Duration
}

func (l Limits) bucket(now time.Time) int64 {
	return now.UnixNano() / int64(l.Window)
}

// retryAfter — сколько осталось до начала следующего окна.
func (l Limits) retryAfter(now time.Time) time.Duration {
	next := (l.bucket(now) + 1) * int64(l.Window)
	return time.Duration(next - now.UnixNano())
}

func (l Limits) limited(key string, now time.Time) error {
	wait := l.retryAfter(now).Round(time.Second)
	return apperrors.WithMetadata(apperrors.KindRateLimited,
		fmt.Sprintf("too many failed attempts, retry in %s", wait),
		map[string]string{"key": key, "retry_after": wait.String()},
	)
}
