package vdsorng

import "unsafe"

// sentinelStateLen is the state-length value a caller passes to request the
// opaque parameter block instead of filling a buffer - mirrors the kernel
// vgetrandom convention of probing with all-ones.
const sentinelStateLen = ^uintptr(0)

// VGetrandomOpaqueParams is the parameter block the kernel-supplied
// randomness function reports on a sentinel probe call: the size of its
// per-thread opaque state, and the protection/flags that state's backing
// pages must be mapped with.
type VGetrandomOpaqueParams struct {
	SizeOfOpaqueStates uint32
	MmapProt           uint32
	MmapFlags          uint32
	_                  [13]uint32
}

// VdsoFunc is the signature of the kernel-supplied fast-path randomness
// function: fill buf (bufLen bytes) using the opaque state at state
// (stateLen bytes), honoring flags. It returns the number of bytes filled,
// or a negative errno. Calling it with stateLen == sentinelStateLen instead
// requests that it populate *state (cast to *VGetrandomOpaqueParams) and
// ignore buf entirely.
type VdsoFunc func(buf unsafe.Pointer, bufLen uintptr, flags uint32, state unsafe.Pointer, stateLen uintptr) int32

// Resolver locates the kernel-supplied randomness function and reports the
// system page size. Locating the real function requires walking the
// process's auxv/ELF vDSO mapping, which is out of scope for this module;
// callers substitute a Resolver that already knows how to reach it (or, in
// tests, a deterministic mock).
type Resolver interface {
	Resolve() (VdsoFunc, uintptr, error)
}

// pageSize is the page size DefaultResolver reports. 4 KiB covers every
// architecture this module targets; a resolver backed by the real vDSO
// would read this from the auxv AT_PAGESZ entry instead.
const pageSize = 4096

// DefaultResolver stands in for the real vDSO/auxv lookup the core's design
// treats as an external collaborator. It reports a VdsoFunc that emulates
// vgetrandom's calling convention (sentinel probe, buffer fill) but sources
// its actual randomness from getrandomFill, which is backed by the real
// getrandom(2) syscall on linux - so far as the caller can observe, bytes
// filled are randomness from the kernel, just not through the vDSO
// fast path this module's design is ultimately for.
type DefaultResolver struct{}

// Resolve implements Resolver.
func (DefaultResolver) Resolve() (VdsoFunc, uintptr, error) {
	return vdsoEmulatedFunc, pageSize, nil
}

func vdsoEmulatedFunc(buf unsafe.Pointer, bufLen uintptr, flags uint32, state unsafe.Pointer, stateLen uintptr) int32 {
	if stateLen == sentinelStateLen {
		params := (*VGetrandomOpaqueParams)(state)
		params.SizeOfOpaqueStates = opaqueStateSize
		params.MmapProt = mmapProt
		params.MmapFlags = mmapFlags
		return 0
	}
	if bufLen == 0 {
		return 0
	}
	buffer := unsafe.Slice((*byte)(buf), int(bufLen))
	n, errno := getrandomFill(buffer, flags)
	if errno != 0 {
		return -int32(errno)
	}
	return int32(n)
}
