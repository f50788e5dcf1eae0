//go:build linux

package vdsorng

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// opaqueStateSize, mmapProt and mmapFlags are the parameters
// DefaultResolver's emulated vDSO function reports on its sentinel probe -
// 256 bytes of read/write, anonymous, private memory per opaque state, sized
// generously enough to hold whatever per-thread bookkeeping a real
// vgetrandom state would need.
const (
	opaqueStateSize = 256
	mmapProt        = unix.PROT_READ | unix.PROT_WRITE
	mmapFlags       = unix.MAP_PRIVATE | unix.MAP_ANONYMOUS

	errnoEINTR  = int(unix.EINTR)
	errnoEAGAIN = int(unix.EAGAIN)
)

func mmapBlock(size uintptr, prot, flags uint32) (unsafe.Pointer, error) {
	b, err := unix.Mmap(-1, 0, int(size), int(prot), int(flags))
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(&b[0]), nil
}

func munmapBlock(ptr unsafe.Pointer, size uintptr) error {
	b := unsafe.Slice((*byte)(ptr), int(size))
	return unix.Munmap(b)
}

func getrandomFill(buf []byte, flags uint32) (int, int) {
	n, err := unix.Getrandom(buf, int(flags))
	if err != nil {
		if errno, ok := err.(unix.Errno); ok {
			return 0, int(errno)
		}
		return 0, int(unix.EIO)
	}
	return n, 0
}
