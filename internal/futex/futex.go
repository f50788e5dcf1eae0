// Package futex provides the 32-bit atomic park/wake word used by the
// combining lock's wait queue (see the lamlock package). It realizes
// spec.md §4.1: park while the word equals an expected value, and wake a
// single waiter only if the word was actually observed sleeping.
//
// On linux, waiting and waking go through the real futex(2) syscall. On
// other platforms, and whenever built with the "lamlockspin" build tag, a
// condvar-bucket emulation transliterated from folly's Futex is used
// instead - see futex_spin.go. That emulation parks waiters on a
// sync.Cond; there is no busy-spin backend.
package futex

import "sync/atomic"

// Word is a 32-bit value with atomic load/store/CAS and OS-backed
// park/wake. The zero value holds 0, which callers in this module always
// treat as the Waiting/Unlocked sentinel.
type Word struct {
	v atomic.Uint32
}

// New returns a Word initialized to value.
func New(value uint32) *Word {
	w := new(Word)
	w.v.Store(value)
	return w
}

// Load reads the current value with acquire ordering.
func (w *Word) Load() uint32 {
	return w.v.Load()
}

// Store writes value with release ordering.
func (w *Word) Store(value uint32) {
	w.v.Store(value)
}

// CompareAndSwap performs an acquire-release CAS.
func (w *Word) CompareAndSwap(old, new uint32) bool {
	return w.v.CompareAndSwap(old, new)
}

// ParkWhileEqual blocks the calling goroutine's underlying thread for as
// long as the word equals expected. Spurious wakeups and signal
// interruptions are tolerated: the caller re-checks and re-parks internally.
func (w *Word) ParkWhileEqual(expected uint32) {
	parkWhileEqual(w, expected)
}

// WakeTo atomically swaps the word to new; if the previous value equals
// sleeping, a single waiter is woken via the OS. This avoids the cost of a
// wake syscall except when a thread actually transitioned into the parked
// state.
func (w *Word) WakeTo(new, sleeping uint32) {
	wakeTo(w, new, sleeping)
}
