//go:build linux

package vdsorng

import (
	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/unix"
)

// guessCPUCount estimates the number of CPUs this process can run on, used
// to pre-size the pool's first block. It sums the popcount of the calling
// thread's affinity mask (via CPUSet.Count, a thin wrapper over the same
// per-word popcount the original vdso-rng crate hand-rolled over a raw
// sched_getaffinity byte buffer), falling back to cpuid's logical core count
// if the affinity syscall is unavailable.
func guessCPUCount() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return cpuidFallback()
	}
	if n := set.Count(); n > 0 {
		return n
	}
	return cpuidFallback()
}

func cpuidFallback() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return 1
}
