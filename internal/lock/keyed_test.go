package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLockerSerializesSameSlot(t *testing.T) {
	locker := NewKeyedLocker(2 * time.Second)
	windowID := uuid.New()

	var mu sync.Mutex
	inSection := 0
	maxConcurrent := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithSlotLock(context.Background(), windowID, 0, func(ctx context.Context) error {
				mu.Lock()
				inSection++
				if inSection > maxConcurrent {
					maxConcurrent = inSection
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inSection--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxConcurrent)
}

func TestKeyedLockerDistinctSlotsDoNotBlock(t *testing.T) {
	locker := NewKeyedLocker(50 * time.Millisecond)
	windowID := uuid.New()

	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = locker.WithSlotLock(context.Background(), windowID, 0, func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	err := locker.WithSlotLock(context.Background(), windowID, 1, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestKeyedLockerBoundedWait(t *testing.T) {
	locker := NewKeyedLocker(20 * time.Millisecond)
	windowID := uuid.New()

	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = locker.WithSlotLock(context.Background(), windowID, 3, func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	err := locker.WithSlotLock(context.Background(), windowID, 3, func(ctx context.Context) error {
		t.Fatal("critical section must not run when the lock is held")
		return nil
	})
	require.ErrorIs(t, err, ErrNotAcquired)
}

func TestKeyedLockerContextCancelled(t *testing.T) {
	locker := NewKeyedLocker(time.Second)
	windowID := uuid.New()

	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = locker.WithSlotLock(context.Background(), windowID, 0, func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := locker.WithSlotLock(ctx, windowID, 0, func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
