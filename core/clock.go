package core

import (
	"sync"
	"time"
)

// Clock supplies the scheduler's notion of current time as a monotonic
// offset from an arbitrary epoch (normally the clock's construction).
// Millisecond-or-better resolution is required; the Expiration conversion
// quantizes further on its own.
type Clock interface {
	Now() time.Duration
}

// SystemClock reads the platform monotonic clock. On Linux it goes through
// clock_gettime(CLOCK_MONOTONIC); elsewhere it falls back to the runtime's
// monotonic reading via time.Since.
type SystemClock struct {
	epoch time.Duration
}

// NewSystemClock creates a SystemClock whose epoch is "now".
func NewSystemClock() *SystemClock {
	return &SystemClock{epoch: monotonicNow()}
}

func (c *SystemClock) Now() time.Duration {
	return monotonicNow() - c.epoch
}

// ManualClock is a Clock driven explicitly by the caller. It only moves when
// Advance or Set is called, which makes scheduler tests deterministic.
type ManualClock struct {
	mu  sync.Mutex
	now time.Duration
}

// NewManualClock creates a ManualClock starting at zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// Set moves the clock to an absolute offset. Moving backwards is not
// supported; earlier values are ignored.
func (c *ManualClock) Set(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > c.now {
		c.now = d
	}
}
