// Package lock provides per-user mutual exclusion keyed by user id.
// It serializes award cycles so a user never evaluates the same
// achievement twice at once.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// slot is a one-token semaphore. Holding the token means holding the lock.
type slot struct {
	ch      chan struct{}
	waiters int
}

// UserLock hands out one lock per user. Slots are reclaimed once no
// goroutine holds or waits on them.
type UserLock struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*slot
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{slots: make(map[uuid.UUID]*slot)}
}

func (ul *UserLock) acquireSlot(userID uuid.UUID) *slot {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	s, ok := ul.slots[userID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		ul.slots[userID] = s
	}
	s.waiters++
	return s
}

func (ul *UserLock) releaseSlot(userID uuid.UUID, s *slot) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	s.waiters--
	if s.waiters == 0 {
		delete(ul.slots, userID)
	}
}

// Lock blocks until the user's lock is held.
func (ul *UserLock) Lock(userID uuid.UUID) {
	s := ul.acquireSlot(userID)
	s.ch <- struct{}{}
}

// Unlock releases the user's lock. Unlocking a lock that is not held is a no-op.
func (ul *UserLock) Unlock(userID uuid.UUID) {
	ul.mu.Lock()
	s, ok := ul.slots[userID]
	ul.mu.Unlock()
	if !ok {
		return
	}

	select {
	case <-s.ch:
		ul.releaseSlot(userID, s)
	default:
	}
}

// TryLock acquires the lock only if it is free.
func (ul *UserLock) TryLock(userID uuid.UUID) bool {
	s := ul.acquireSlot(userID)
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		ul.releaseSlot(userID, s)
		return false
	}
}

// LockContext waits for the lock until ctx is done.
func (ul *UserLock) LockContext(ctx context.Context, userID uuid.UUID) error {
	s := ul.acquireSlot(userID)
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		ul.releaseSlot(userID, s)
		if ctx.Err() == context.DeadlineExceeded {
			return ErrLockTimeout
		}
		return ctx.Err()
	}
}

// WithLock runs fn while holding the user's lock.
func (ul *UserLock) WithLock(userID uuid.UUID, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}

// WithLockTimeout runs fn while holding the user's lock, waiting at most
// timeout for it. A non-positive timeout waits as long as ctx allows.
func (ul *UserLock) WithLockTimeout(ctx context.Context, userID uuid.UUID, timeout time.Duration, fn func() error) error {
	lockCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := ul.LockContext(lockCtx, userID); err != nil {
		return err
	}
	defer ul.Unlock(userID)

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// IsLocked reports whether the user's lock is currently held.
// The answer may be stale by the time the caller reads it.
func (ul *UserLock) IsLocked(userID uuid.UUID) bool {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	s, ok := ul.slots[userID]
	return ok && len(s.ch) == 1
}

// Len returns the number of users with a held or awaited lock.
func (ul *UserLock) Len() int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.slots)
}
