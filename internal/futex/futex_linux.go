//go:build linux && !lamlockspin

package futex

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/SchrodingerZhu/lamlock-go/internal/primitive"
)

// The real futex(2) path. Grounded in the Go runtime's own
// lock_futex.go-style handshake (swap to new value, only issue a wake
// syscall if the previous value was the sleeping sentinel - see
// _examples/other_examples/4b8ed5e3_wenfang-golang1.6-src__src-runtime-lock_futex.go.go)
// and in the EINTR-retry idiom used throughout
// _examples/joeycumines-go-utilpkg/eventloop's linux poller.

const (
	futexWaitPrivate = 0 | 128 // FUTEX_WAIT | FUTEX_PRIVATE_FLAG
	futexWakePrivate = 1 | 128 // FUTEX_WAKE | FUTEX_PRIVATE_FLAG
)

func parkWhileEqual(w *Word, expected uint32) {
	addr := (*uint32)(unsafe.Pointer(&w.v))
	for w.Load() == expected {
		_, _, errno := unix.Syscall6(
			unix.SYS_FUTEX,
			uintptr(unsafe.Pointer(addr)),
			uintptr(futexWaitPrivate),
			uintptr(expected),
			0, 0, 0,
		)
		switch errno {
		case 0, unix.EAGAIN, unix.EINTR:
			// EAGAIN: the value already changed underneath us - loop
			// around and re-check. EINTR: a signal interrupted the
			// wait - re-check and re-park per spec.md's tolerance of
			// spurious wakeups.
		default:
			// Any other errno (e.g. ENOSYS on an ancient kernel) is
			// not actionable here; yield once, then the loop re-checks
			// the word and issues the wait again.
			primitive.Pause()
		}
	}
}

func wakeTo(w *Word, new, sleeping uint32) {
	old := w.v.Swap(new)
	if old != sleeping {
		return
	}
	addr := (*uint32)(unsafe.Pointer(&w.v))
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWakePrivate),
		1, 0, 0, 0,
	)
}
