package core

// SchedulerStats is a point-in-time snapshot of scheduler state, safe to
// read after the call returns.
type SchedulerStats struct {
	Queued              int
	Flushing            bool
	Paused              bool
	HostCallbackPending bool
	CurrentPriority     PriorityLevel

	ScheduledTotal uint64
	CompletedTotal uint64
	ContinuedTotal uint64
	CancelledTotal uint64
	PanickedTotal  uint64
}
