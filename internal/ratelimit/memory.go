package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	bucket   int64
	failures int
}

// MemoryTracker хранит счётчики в памяти процесса.
type MemoryTracker struct {
	limits Limits
	clock  func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryTracker(limits Limits) *MemoryTracker {
	return &MemoryTracker{limits: limits, clock: time.Now, entries: map[string]memoryEntry{}}
}

// WithClock подменяет часы (для тестов).
func (t *MemoryTracker) WithClock(clock func() time.Time) *MemoryTracker {
	t.clock = clock
	return t
}

func (t *MemoryTracker) Check(_ context.Context, key string) error {
	now := t.clock()
	bucket := t.limits.bucket(now)

	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok || e.bucket != bucket {
		return nil
	}
	if e.failures >= t.limits.MaxAttempts {
		return t.limits.limited(key, now)
	}
	return nil
}

func (t *MemoryTracker) Record(_ context.Context, key string, success bool) error {
	now := t.clock()
	bucket := t.limits.bucket(now)

	t.mu.Lock()
	defer t.mu.Unlock()
	if success {
		delete(t.entries, key)
		return nil
	}
	e := t.entries[key]
	if e.bucket != bucket {
		e = memoryEntry{bucket: bucket}
	}
	e.failures++
	t.entries[key] = e

	// старые окна других ключей не нужны
	for k, other := range t.entries {
		if other.bucket < bucket {
			delete(t.entries, k)
		}
	}
	return nil
}
