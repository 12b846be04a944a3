package timeslice

import "github.com/CyfforPro/timeslice/core"

// Re-export commonly used types from core for convenience, so most users
// only need to import the timeslice package.

// Scheduler is the cooperative time-slicing engine.
type Scheduler = core.Scheduler

// Callback performs one slice of work and may return a continuation.
type Callback = core.Callback

// Result is the explicit outcome of a callback invocation.
type Result = core.Result

// Options carries per-request overrides for scheduling.
type Options = core.Options

// Handle identifies one scheduled work item.
type Handle = core.Handle

// PriorityLevel is one of the five ordered urgency classes.
type PriorityLevel = core.PriorityLevel

// Expiration is the integer deadline proxy ordering the queue.
type Expiration = core.Expiration

// Host is the embedding environment's wake-up/yield capability.
type Host = core.Host

// Clock supplies monotonic current time.
type Clock = core.Clock

// Priority constants
const (
	PriorityImmediate    PriorityLevel = core.PriorityImmediate
	PriorityUserBlocking PriorityLevel = core.PriorityUserBlocking
	PriorityNormal       PriorityLevel = core.PriorityNormal
	PriorityLow          PriorityLevel = core.PriorityLow
	PriorityIdle         PriorityLevel = core.PriorityIdle
)

// Done is the zero Result, returned by callbacks that completed.
var Done = core.Done

// Continue wraps unfinished work into a Result.
var Continue = core.Continue

// RunWithPriorityResult is core.RunWithPriorityResult, re-exported so call
// sites returning a value don't need the core import.
func RunWithPriorityResult[T any](s *Scheduler, level PriorityLevel, fn func() T) T {
	return core.RunWithPriorityResult(s, level, fn)
}
