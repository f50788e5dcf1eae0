package vdsorng

import "unsafe"

// mockResolver stands in for a real vDSO lookup in tests. Its function
// writes a deterministic per-state counter into the caller's buffer instead
// of true randomness - sufficient to exercise the pool/state plumbing, but
// not a meaningful source for any statistical test (see spec's note that
// fidelity against this backend isn't meaningful; only the real vDSO is).
type mockResolver struct {
	stateSize uint32
}

func (m mockResolver) Resolve() (VdsoFunc, uintptr, error) {
	size := m.stateSize
	if size == 0 {
		size = 64
	}
	return func(buf unsafe.Pointer, bufLen uintptr, flags uint32, state unsafe.Pointer, stateLen uintptr) int32 {
		if stateLen == sentinelStateLen {
			params := (*VGetrandomOpaqueParams)(state)
			params.SizeOfOpaqueStates = size
			params.MmapProt = mmapProt
			params.MmapFlags = mmapFlags
			return 0
		}
		if bufLen == 0 {
			return 0
		}
		counter := (*uint64)(state)
		*counter++
		out := unsafe.Slice((*byte)(buf), int(bufLen))
		for i := range out {
			out[i] = byte(*counter) ^ byte(i)
		}
		return int32(bufLen)
	}, 4096, nil
}
