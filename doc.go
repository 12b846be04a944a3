// Package timeslice provides a cooperative time-slicing scheduler for Go.
//
// This library implements the scheduling engine a UI rendering library needs
// to interleave its work with the host environment's own rendering/input
// loop without blocking it: work items carry a priority class and a
// deadline, run incrementally, yield the thread back to the host when asked,
// and resume later without losing progress or ordering guarantees.
//
// # Quick Start
//
// Create a scheduler backed by the default timer-paced host:
//
//	sched := timeslice.New()
//	defer sched.Host().(*core.TimerHost).Stop()
//
//	handle := sched.ScheduleWithPriority(func(didTimeout bool) timeslice.Result {
//		// Do a slice of work, then either finish...
//		return timeslice.Done
//	}, timeslice.PriorityNormal)
//	_ = handle
//
// A callback with more work than fits in one slice polls ShouldYield and
// returns a continuation:
//
//	var step func(didTimeout bool) timeslice.Result
//	step = func(didTimeout bool) timeslice.Result {
//		for hasWork() {
//			doUnitOfWork()
//			if !didTimeout && sched.ShouldYield() {
//				return timeslice.Continue(step)
//			}
//		}
//		return timeslice.Done
//	}
//	sched.ScheduleWithPriority(step, timeslice.PriorityNormal)
//
// # Key Concepts
//
// PriorityLevel: one of five ordered urgency classes (Immediate,
// UserBlocking, Normal, Low, Idle). Each class maps to a default deadline
// distance; Immediate work runs before control returns to application code,
// Idle work effectively never expires.
//
// Expiration: an integer deadline proxy derived by quantizing wall-clock
// time. Requests of the same class inside one batch window collapse onto an
// identical expiration, so bursts coalesce into a single unit of urgency.
//
// Host: the embedding environment's capability for wake-ups and yield
// decisions. FrameHost synchronizes slices with a display frame loop and
// adapts its budget to the observed refresh rate; TimerHost paces slices
// with plain timers for headless use.
//
// # Thread Safety
//
// Scheduling and cancellation are safe from any goroutine. Callback
// execution is cooperative and single-flight: one flush at a time, each
// callback running to completion before the next starts. Once a deadline
// passes, the next flush runs the expired work without yielding, bounding
// worst-case staleness.
//
// For the full machinery (custom hosts, clocks, metrics, profiling), import
// github.com/CyfforPro/timeslice/core directly.
package timeslice
