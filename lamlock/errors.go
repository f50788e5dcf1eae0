package lamlock

import "errors"

// ErrPoisoned is returned by Run, Poison, and the slow-path attach protocol
// once the lock has entered its sticky failure state: a thunk panicked, or
// the lock was explicitly poisoned, and no inspection has cleared it since.
var ErrPoisoned = errors.New("lamlock: lock is poisoned")

// ErrNotPoisoned is returned by InspectPoison and Unpoison when called
// against a lock that is not currently poisoned.
var ErrNotPoisoned = errors.New("lamlock: lock is not poisoned")
