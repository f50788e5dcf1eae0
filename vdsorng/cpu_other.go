//go:build !linux

package vdsorng

import "github.com/klauspost/cpuid/v2"

// guessCPUCount has no sched_getaffinity to consult on non-linux, so it
// reports cpuid's logical core count directly.
func guessCPUCount() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return 1
}
