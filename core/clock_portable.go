//go:build !linux

package core

import "time"

// monotonicNow uses the runtime's monotonic reading on platforms where we
// don't call the clock syscall directly.
func monotonicNow() time.Duration {
	return time.Since(processStart)
}

var processStart = time.Now()
