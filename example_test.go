package timeslice_test

import (
	"fmt"
	"time"

	timeslice "github.com/CyfforPro/timeslice"
	"github.com/CyfforPro/timeslice/core"
)

// Deterministic setup: a FrameHost with no frame loop and an effectively
// disabled watchdog never runs anything on its own, so the explicit flush
// below is the only dispatcher.
func newExampleScheduler() *timeslice.Scheduler {
	scheduler, _ := timeslice.NewFrameSynced(core.FrameHostOptions{
		WatchdogTimeout: time.Hour,
	}, nil)
	return scheduler
}

func Example() {
	scheduler := newExampleScheduler()

	scheduler.ScheduleWithPriority(func(didTimeout bool) timeslice.Result {
		fmt.Println("cleanup caches")
		return timeslice.Done
	}, timeslice.PriorityIdle)

	scheduler.ScheduleWithPriority(func(didTimeout bool) timeslice.Result {
		fmt.Println("apply user input")
		return timeslice.Done
	}, timeslice.PriorityUserBlocking)

	scheduler.Schedule(func(didTimeout bool) timeslice.Result {
		fmt.Println("recompute layout")
		return timeslice.Done
	})

	scheduler.FlushUntilIdle()

	// Output:
	// apply user input
	// recompute layout
	// cleanup caches
}

func Example_continuation() {
	scheduler := newExampleScheduler()

	// Process a large input in slices; each invocation hands the remainder
	// back as a continuation instead of blocking the host.
	items := []string{"a", "b", "c", "d"}
	var process func(start int) timeslice.Callback
	process = func(start int) timeslice.Callback {
		return func(didTimeout bool) timeslice.Result {
			fmt.Println("processed", items[start])
			if start+1 < len(items) {
				return timeslice.Continue(process(start + 1))
			}
			return timeslice.Done
		}
	}

	scheduler.Schedule(process(0))
	scheduler.FlushUntilIdle()

	// Output:
	// processed a
	// processed b
	// processed c
	// processed d
}

func ExampleScheduler_RunWithPriority() {
	scheduler := newExampleScheduler()

	scheduler.RunWithPriority(timeslice.PriorityUserBlocking, func() {
		// Work scheduled here inherits the event's priority.
		scheduler.Schedule(func(didTimeout bool) timeslice.Result {
			fmt.Println("running at", scheduler.CurrentPriority())
			return timeslice.Done
		})
	})

	scheduler.FlushUntilIdle()

	// Output:
	// running at user_blocking
}
