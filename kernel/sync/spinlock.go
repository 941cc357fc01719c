// Package sync provides the busy-wait lock used to serialize access to
// shared interrupt-controller and device state.
package sync

import "sync/atomic"

var (
	// yieldFn is invoked while spinning on a held lock. The kernel runs on a
	// single core without a scheduler so there is nothing to yield to; tests
	// point it to runtime.Gosched.
	yieldFn func()
)

// Spinlock implements a lock where each caller trying to acquire it
// busy-waits till the lock becomes available. The zero value is an unlocked
// Spinlock.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired. Re-acquiring a lock that is
// already held by the caller deadlocks.
func (l *Spinlock) Acquire() {
	for !l.TryToAcquire() {
		for atomic.LoadUint32(&l.state) != 0 {
			if yieldFn != nil {
				yieldFn()
			}
		}
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Held returns true if the lock is currently held.
func (l *Spinlock) Held() bool {
	return atomic.LoadUint32(&l.state) != 0
}

// Release relinquishes a held lock allowing other callers to acquire it.
// Calling Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
