//go:build !debug

package vdsorng

// inFlight is a no-op outside debug builds; see inflight_debug.go.
type inFlight struct{}

func (inFlight) enter() {}
func (inFlight) leave() {}
