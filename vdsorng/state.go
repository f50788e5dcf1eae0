package vdsorng

import "unsafe"

// LocalState is a single opaque state rented from a Pool. It owns exactly
// one state pointer for its lifetime; Close returns that pointer to the
// pool's free-list rather than freeing it.
type LocalState struct {
	pool   *Pool
	state  unsafe.Pointer
	closed bool
	inFlight
}

// NewLocalState rents one state from pool.
func NewLocalState(pool *Pool) (*LocalState, error) {
	state, err := pool.Get()
	if err != nil {
		return nil, err
	}
	return &LocalState{pool: pool, state: state}, nil
}

// TryFill invokes the pool's randomness function once against this state,
// filling as much of buf as the single call produces. It returns the number
// of bytes written, or an Errno if the call reported failure.
func (s *LocalState) TryFill(buf []byte, flags uint32) (int, error) {
	s.enter()
	defer s.leave()

	var bufPtr unsafe.Pointer
	if len(buf) > 0 {
		bufPtr = unsafe.Pointer(&buf[0])
	}
	stateSize := uintptr(s.pool.cfg.Params.SizeOfOpaqueStates)
	ret := s.pool.cfg.Function(bufPtr, uintptr(len(buf)), flags, s.state, stateSize)
	if ret < 0 {
		return 0, Errno(-ret)
	}
	return int(ret), nil
}

// Fill repeatedly calls TryFill, advancing buf by the bytes each call
// produced, until buf is completely filled. Retryable errno values
// (EINTR/EAGAIN) are retried transparently; any other error is surfaced
// immediately.
func (s *LocalState) Fill(buf []byte, flags uint32) error {
	for len(buf) > 0 {
		n, err := s.TryFill(buf, flags)
		if err != nil {
			if isRetryable(err) {
				continue
			}
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func isRetryable(err error) bool {
	var e Errno
	if ok := asErrno(err, &e); !ok {
		return false
	}
	return int(e) == errnoEINTR || int(e) == errnoEAGAIN
}

func asErrno(err error, out *Errno) bool {
	e, ok := err.(Errno)
	if ok {
		*out = e
	}
	return ok
}

// Close recycles this state back to its pool. A LocalState must not be used
// after Close.
func (s *LocalState) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.pool.Recycle(s.state)
}
