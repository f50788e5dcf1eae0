package vdsorng

import (
	"errors"
	"fmt"
)

// ErrNotSupported is returned when the fast-path randomness function is not
// available on the current platform.
var ErrNotSupported = errors.New("vdsorng: vdso randomness function not supported")

// ErrAllocationFailure is returned when growing the pool's backing memory
// fails (mmap returned an error).
var ErrAllocationFailure = errors.New("vdsorng: failed to allocate a new block")

// ErrPoolPoisoned is returned from Pool.Get when the pool's internal lock
// over its block list is observed poisoned - a previous grow panicked, or
// the pool is being torn down.
var ErrPoolPoisoned = errors.New("vdsorng: pool is poisoned")

// Errno wraps a negative return from the vDSO-equivalent function, which
// reports failure as -errno.
type Errno int

func (e Errno) Error() string {
	return fmt.Sprintf("vdsorng: vdso function failed with errno %d", int(e))
}

// Is lets errors.Is(err, Errno(0)) match any Errno value, while a caller
// comparing a specific errno still needs a plain type assertion.
func (e Errno) Is(target error) bool {
	_, ok := target.(Errno)
	return ok
}
