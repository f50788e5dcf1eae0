package vdsorng

import "unsafe"

// Config is probed once per pool from the resolved vDSO-equivalent function:
// the opaque-state size and required mmap protection/flags, plus derived
// block-sizing figures. Immutable after construction.
type Config struct {
	PageSize      uintptr
	PagesPerBlock uintptr
	StatesPerPage uintptr
	Function      VdsoFunc
	Params        VGetrandomOpaqueParams
}

// newConfig probes function with the sentinel call that requests the opaque
// parameter block, then derives a block size sized to hold roughly one
// state per guessed CPU, rounded up to a whole number of pages.
func newConfig(function VdsoFunc, pageSize uintptr) (*Config, error) {
	var params VGetrandomOpaqueParams
	ret := function(nil, 0, 0, unsafe.Pointer(&params), sentinelStateLen)
	if ret != 0 {
		return nil, Errno(-ret)
	}
	if params.SizeOfOpaqueStates == 0 {
		return nil, ErrNotSupported
	}

	stateSize := uintptr(params.SizeOfOpaqueStates)
	guessedBytes := uintptr(guessCPUCount()) * stateSize
	remainder := guessedBytes % pageSize
	alignedBytes := guessedBytes
	if remainder != 0 {
		alignedBytes += pageSize - remainder
	}
	if alignedBytes == 0 {
		alignedBytes = pageSize
	}

	return &Config{
		PageSize:      pageSize,
		PagesPerBlock: alignedBytes / pageSize,
		StatesPerPage: pageSize / stateSize,
		Function:      function,
		Params:        params,
	}, nil
}
