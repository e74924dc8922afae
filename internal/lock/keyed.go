package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KeyedLocker is an in-process Locker backed by one channel-semaphore per
// slot key. It is the default for single-instance deployments and tests;
// multi-instance deployments use the Redis locker.
type KeyedLocker struct {
	mu      sync.Mutex
	slots   map[string]chan struct{}
	maxWait time.Duration
}

func NewKeyedLocker(maxWait time.Duration) *KeyedLocker {
	return &KeyedLocker{
		slots:   make(map[string]chan struct{}),
		maxWait: maxWait,
	}
}

func (l *KeyedLocker) WithSlotLock(ctx context.Context, windowID uuid.UUID, ordinal int, fn func(ctx context.Context) error) error {
	sem := l.semaphore(slotKey(windowID, ordinal))

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
	case <-timer.C:
		return ErrNotAcquired
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sem }()

	return fn(ctx)
}

func (l *KeyedLocker) semaphore(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.slots[key]
	if !ok {
		sem = make(chan struct{}, 1)
		l.slots[key] = sem
	}
	return sem
}
