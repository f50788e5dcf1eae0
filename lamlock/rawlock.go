package lamlock

import (
	"sync/atomic"

	"github.com/SchrodingerZhu/lamlock-go/internal/primitive"
)

const (
	statusUnlocked uint32 = 0
	statusLocked   uint32 = 1
	statusPoisoned uint32 = 2
)

// rawLock guards a single mutable slot with a combining wait queue rather
// than a conventional blocking mutex: contending goroutines publish a node
// onto tail and the thread that finds the queue empty runs every published
// task itself before releasing. status tracks only whether the slot is free,
// held, or poisoned; the queue of waiters lives in the node chain.
type rawLock struct {
	status atomic.Uint32
	tail   atomic.Pointer[node]
}

func (r *rawLock) poison() {
	r.status.Store(statusPoisoned)
}

func (r *rawLock) hasTail() bool {
	return r.tail.Load() != nil
}

func (r *rawLock) swapTail(newTail *node) *node {
	return r.tail.Swap(newTail)
}

func (r *rawLock) tryClose(expected *node) bool {
	return r.tail.CompareAndSwap(expected, nil)
}

// tryAcquire attempts to move Unlocked -> Locked without blocking. It
// reports false, nil if another holder already has the slot, and
// ErrPoisoned if the slot is poisoned.
func (r *rawLock) tryAcquire() (bool, error) {
	if r.status.CompareAndSwap(statusUnlocked, statusLocked) {
		return true, nil
	}
	if r.status.Load() == statusLocked {
		return false, nil
	}
	return false, ErrPoisoned
}

// acquire blocks until the slot is free and takes it, or reports
// ErrPoisoned if it is poisoned.
func (r *rawLock) acquire() error {
	for {
		ok, err := r.tryAcquire()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		for r.status.Load() == statusLocked {
			primitive.Pause()
		}
	}
}

// acquirePoisoned moves Poisoned -> Locked, granting exclusive access to a
// poisoned slot for inspection. It fails with ErrNotPoisoned if the slot is
// not currently poisoned.
func (r *rawLock) acquirePoisoned() error {
	if r.status.CompareAndSwap(statusPoisoned, statusLocked) {
		return nil
	}
	return ErrNotPoisoned
}

func (r *rawLock) release() {
	r.status.Store(statusUnlocked)
}

// isPoisoned reports whether the slot currently reads as poisoned. It exists
// for tests that need to observe poison propagation without racing a full
// acquirePoisoned/release cycle.
func (r *rawLock) isPoisoned() bool {
	return r.status.Load() == statusPoisoned
}
