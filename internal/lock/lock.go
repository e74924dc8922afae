// Package lock serializes booking attempts per slot. Capacity checks and
// the subsequent insert are not atomic at the store level, so every
// booking runs under a slot-scoped critical section.
package lock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotAcquired is returned when the slot lock could not be obtained
// within the configured wait. Callers surface this as a retryable busy
// condition, never as a capacity failure.
var ErrNotAcquired = errors.New("slot lock not acquired")

// Locker guards a critical section keyed by slot identity.
type Locker interface {
	WithSlotLock(ctx context.Context, windowID uuid.UUID, ordinal int, fn func(ctx context.Context) error) error
}

func slotKey(windowID uuid.UUID, ordinal int) string {
	return fmt.Sprintf("lock:slot:%s:%d", windowID, ordinal)
}
