package core

import (
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: policy seam for failing callbacks
// =============================================================================

// PanicHandler is called when a scheduled callback panics. The scheduler
// recovers the panic at the flush boundary, restores its own invariants, and
// hands the failure here; whether to log, rethrow, or crash is the
// embedder's policy, not the scheduler's.
//
// Implementations should be thread-safe; the host may drive flushes from
// more than one goroutine over the process lifetime.
type PanicHandler interface {
	// HandlePanic receives the failed item's priority class, the panic
	// value, and the stack trace captured at recovery.
	HandlePanic(level PriorityLevel, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler prints panic information to stdout.
type DefaultPanicHandler struct{}

func (h *DefaultPanicHandler) HandlePanic(level PriorityLevel, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Scheduler %s] Callback panic: %v\nStack trace:\n%s",
		level, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: observability seam
// =============================================================================

// Metrics receives scheduler execution events. Implementations forward them
// to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods must be non-blocking and fast; they run on the dispatch path.
type Metrics interface {
	// RecordCallbackDuration records how long one callback invocation took.
	RecordCallbackDuration(level PriorityLevel, duration time.Duration)

	// RecordCallbackPanic records that a callback panicked.
	RecordCallbackPanic(level PriorityLevel, panicInfo any)

	// RecordFlushDuration records how long one flush pass took and
	// whether it was a forced (timed-out) drain.
	RecordFlushDuration(didTimeout bool, duration time.Duration)

	// RecordQueueDepth records the pending-item count after a change.
	RecordQueueDepth(depth int)

	// RecordCancelled records that a queued item was cancelled before it
	// could run.
	RecordCancelled(level PriorityLevel)
}

// NilMetrics is the no-op default.
type NilMetrics struct{}

func (m *NilMetrics) RecordCallbackDuration(level PriorityLevel, duration time.Duration) {}
func (m *NilMetrics) RecordCallbackPanic(level PriorityLevel, panicInfo any)             {}
func (m *NilMetrics) RecordFlushDuration(didTimeout bool, duration time.Duration)        {}
func (m *NilMetrics) RecordQueueDepth(depth int)                                         {}
func (m *NilMetrics) RecordCancelled(level PriorityLevel)                                {}

// =============================================================================
// SchedulerConfig
// =============================================================================

// SchedulerConfig holds optional collaborators for a Scheduler. Nil fields
// fall back to defaults.
type SchedulerConfig struct {
	// PanicHandler is called when a callback panics. Defaults to
	// DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics receives execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// Logger receives lifecycle messages. Defaults to no logging.
	Logger Logger

	// ProfilerCapacity, when positive, enables the event profiler with a
	// ring buffer of that many records.
	ProfilerCapacity int
}

// DefaultSchedulerConfig returns a config with default collaborators and
// profiling disabled.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PanicHandler: &DefaultPanicHandler{},
		Metrics:      &NilMetrics{},
		Logger:       NewNoOpLogger(),
	}
}
