package core

import "time"

// Callback performs one slice of work. didTimeout reports whether the item's
// deadline had already passed when the flush that ran it began; callbacks can
// use it to decide to finish synchronously instead of yielding.
//
// A callback that has more work left returns it as Result.Continuation; the
// scheduler re-enqueues the continuation at the same priority and deadline,
// ahead of other equal-deadline work.
type Callback func(didTimeout bool) Result

// Result is the explicit outcome of one callback invocation.
type Result struct {
	// Continuation, when non-nil, is unfinished work to resume later.
	Continuation Callback
}

// Done is the zero Result, returned by callbacks that completed.
var Done = Result{}

// Continue wraps unfinished work into a Result.
func Continue(next Callback) Result {
	return Result{Continuation: next}
}

// Options carries per-request overrides for ScheduleWithOptions.
type Options struct {
	// Timeout overrides the priority class's default deadline distance.
	// Zero means "use the class default". Timeout overrides are exact:
	// they do not go through batch bucketing.
	Timeout time.Duration
}

// Handle identifies one scheduled work item and doubles as its queue node.
// It is returned by the Schedule methods and accepted by Cancel.
//
// A Handle belongs to at most one queue position at a time: index is >= 0
// exactly while the item is enqueued, and is reset to -1 when the item is
// popped for execution or removed by cancellation.
type Handle struct {
	id         uint64
	callback   Callback
	priority   PriorityLevel
	expiration Expiration
	sequence   uint64 // insertion order; ties on expiration break FIFO
	index      int    // heap position, -1 when not enqueued
}

// ID returns the item's unique identity.
func (h *Handle) ID() uint64 { return h.id }

// Priority returns the class the item was scheduled at.
func (h *Handle) Priority() PriorityLevel { return h.priority }

// Deadline returns the item's expiration value.
func (h *Handle) Deadline() Expiration { return h.expiration }
