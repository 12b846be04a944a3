package core

import (
	"runtime/debug"
	"sync"
	"time"
)

// Scheduler is the cooperative time-slicing engine. It owns the callback
// queue, decides what runs now versus later, and drives itself through a
// Host that supplies wake-ups and the yield heuristic.
//
// Execution is cooperative and single-flight: at most one flush runs at a
// time, and a callback always runs to completion (or returns a
// continuation) before the next item starts. Scheduling and cancellation
// are safe from any goroutine; the mutex only guards structural state, never
// a running callback.
type Scheduler struct {
	mu    sync.Mutex
	queue *callbackQueue
	host  Host

	nextID  uint64
	nextSeq uint64

	// Ambient state. Priority and event-start live in a frame stack, see
	// ambientFrame; expiration and didTimeout have a single writer (the
	// one in-progress flush) and plain save/restore suffices for them.
	ambient           []ambientFrame
	ambientToken      uint64
	currentExpiration Expiration
	currentDidTimeout bool

	isFlushing              bool
	isHostCallbackScheduled bool
	paused                  bool

	panicHandler PanicHandler
	metrics      Metrics
	logger       Logger
	profiler     *Profiler

	scheduledTotal uint64
	completedTotal uint64
	continuedTotal uint64
	cancelledTotal uint64
	panickedTotal  uint64
}

// ambientFrame is one entry of the ambient-priority stack. A running
// callback and a RunWithPriority event each push a frame and later remove
// it by token. Removal is by token, not strict LIFO, because the two can
// overlap on different goroutines: a flush on the host goroutine may finish
// inside an application-goroutine event, or the other way around, and the
// stack must unwind to the outermost state either way.
type ambientFrame struct {
	token      uint64
	level      PriorityLevel
	eventStart time.Duration
	hasEvent   bool
}

func (s *Scheduler) pushAmbientLocked(level PriorityLevel, eventStart time.Duration, hasEvent bool) uint64 {
	s.ambientToken++
	s.ambient = append(s.ambient, ambientFrame{
		token:      s.ambientToken,
		level:      level,
		eventStart: eventStart,
		hasEvent:   hasEvent,
	})
	return s.ambientToken
}

func (s *Scheduler) popAmbientLocked(token uint64) {
	for i := len(s.ambient) - 1; i >= 0; i-- {
		if s.ambient[i].token == token {
			s.ambient = append(s.ambient[:i], s.ambient[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) currentPriorityLocked() PriorityLevel {
	if n := len(s.ambient); n > 0 {
		return s.ambient[n-1].level
	}
	return PriorityNormal
}

// NewScheduler creates a Scheduler driven by host. A nil host gets a default
// TimerHost; a nil config gets DefaultSchedulerConfig.
func NewScheduler(host Host, config *SchedulerConfig) *Scheduler {
	if host == nil {
		host = NewTimerHost(TimerHostOptions{})
	}

	s := &Scheduler{
		queue:   newCallbackQueue(),
		host:    host,
		nextID:  1,
		nextSeq: 1,
	}

	if config != nil {
		s.panicHandler = config.PanicHandler
		s.metrics = config.Metrics
		s.logger = config.Logger
		if config.ProfilerCapacity > 0 {
			s.profiler = NewProfiler(config.ProfilerCapacity)
		}
	}
	if s.panicHandler == nil {
		s.panicHandler = &DefaultPanicHandler{}
	}
	if s.metrics == nil {
		s.metrics = &NilMetrics{}
	}
	if s.logger == nil {
		s.logger = NewNoOpLogger()
	}

	return s
}

// Host returns the scheduler's host controller.
func (s *Scheduler) Host() Host {
	return s.host
}

// Profiler returns the event profiler, or nil when profiling is disabled.
func (s *Scheduler) Profiler() *Profiler {
	return s.profiler
}

// Now returns the current time on the host's clock.
func (s *Scheduler) Now() time.Duration {
	return s.host.Now()
}

// =============================================================================
// Scheduling
// =============================================================================

// Schedule enqueues cb at the ambient priority level. Inside a running
// callback or RunWithPriority the ambient level is that of the enclosing
// invocation; otherwise it is Normal.
func (s *Scheduler) Schedule(cb Callback) *Handle {
	s.mu.Lock()
	level := s.currentPriorityLocked()
	s.mu.Unlock()
	return s.ScheduleWithOptions(cb, level, Options{})
}

// ScheduleWithPriority enqueues cb at an explicit priority level.
func (s *Scheduler) ScheduleWithPriority(cb Callback, level PriorityLevel) *Handle {
	return s.ScheduleWithOptions(cb, level, Options{})
}

// ScheduleWithOptions enqueues cb at an explicit priority level with
// per-request overrides. The returned Handle can be passed to Cancel.
//
// The deadline derives from the class default (bucketed, so same-class
// requests inside one batch window coalesce onto one deadline) or from
// opts.Timeout when set. If the new item becomes the earliest pending work,
// the host request is re-issued for its deadline.
func (s *Scheduler) ScheduleWithOptions(cb Callback, level PriorityLevel, opts Options) *Handle {
	if cb == nil {
		return nil
	}
	if !level.Valid() {
		level = PriorityNormal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.eventTimeLocked()
	var exp Expiration
	if opts.Timeout > 0 {
		exp = ExpirationForTime(now + opts.Timeout)
	} else {
		exp = level.expirationAt(ExpirationForTime(now))
	}

	item := &Handle{
		id:         s.nextID,
		callback:   cb,
		priority:   level,
		expiration: exp,
		sequence:   s.nextSeq,
		index:      -1,
	}
	s.nextID++
	s.nextSeq++

	s.queue.insert(item)
	s.scheduledTotal++
	s.metrics.RecordQueueDepth(s.queue.len())
	s.profiler.record(EventScheduled, item, now)

	if s.queue.peekEarliest() == item && !s.isFlushing && !s.paused {
		s.requestHostLocked(exp)
	}
	return item
}

// Cancel removes a scheduled item so it never runs. Cancelling a handle that
// already ran, was already cancelled, or was never scheduled is a no-op.
//
// A host request issued for the cancelled item is not retracted; it may
// still fire once and find nothing to do, which flushWork tolerates.
func (s *Scheduler) Cancel(h *Handle) {
	if h == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.queue.remove(h) {
		return
	}
	h.callback = nil
	s.cancelledTotal++
	s.metrics.RecordCancelled(h.priority)
	s.metrics.RecordQueueDepth(s.queue.len())
	s.profiler.record(EventCancelled, h, s.host.Now())
}

// eventTimeLocked returns the ambient event-start time when inside
// RunWithPriority, so that every request made during one event shares a time
// base, and the live clock otherwise.
func (s *Scheduler) eventTimeLocked() time.Duration {
	if n := len(s.ambient); n > 0 && s.ambient[n-1].hasEvent {
		return s.ambient[n-1].eventStart
	}
	return s.host.Now()
}

// requestHostLocked re-issues the host wake-up for the given deadline. The
// host replaces any pending request. Lock order is scheduler then host;
// hosts never call back into the scheduler while holding their own lock.
func (s *Scheduler) requestHostLocked(exp Expiration) {
	s.isHostCallbackScheduled = true
	s.host.RequestFlush(s.flushWork, time.Duration(exp.Millis())*time.Millisecond)
}

// =============================================================================
// Flushing
// =============================================================================

// flushWork drains the queue. It is the FlushFunc handed to the host.
//
// didTimeout=true means the host fired because the earliest deadline was
// missed: every item whose deadline has passed runs in a tight loop with no
// yield checks, re-sampling the clock only between batches. Otherwise items
// run one at a time until the host asks for the thread back.
//
// Either way, Immediate work left in the queue is drained synchronously
// before this returns, and if anything remains queued a fresh host request
// is issued for the new earliest deadline.
func (s *Scheduler) flushWork(didTimeout bool) {
	s.mu.Lock()
	s.isHostCallbackScheduled = false
	if s.isFlushing || s.paused {
		// Nested or spurious wake-up, or dispatch is halted. Items stay
		// queued; an empty flush is a no-op by contract.
		s.mu.Unlock()
		return
	}
	s.isFlushing = true
	flushStart := s.host.Now()
	prevDidTimeout := s.currentDidTimeout
	s.currentDidTimeout = didTimeout

	defer func() {
		s.currentDidTimeout = prevDidTimeout
		s.isFlushing = false
		s.metrics.RecordFlushDuration(didTimeout, s.host.Now()-flushStart)
		if !s.paused {
			if h := s.queue.peekEarliest(); h != nil {
				s.requestHostLocked(h.expiration)
			}
		}
		s.mu.Unlock()
	}()

	if didTimeout {
		current := ExpirationForTime(s.host.Now())
		for !s.paused {
			h := s.queue.peekEarliest()
			if h == nil {
				break
			}
			if !h.expiration.Reached(current) {
				// Re-sample once; time may have passed this deadline
				// while earlier batches ran.
				current = ExpirationForTime(s.host.Now())
				if !h.expiration.Reached(current) {
					break
				}
			}
			for h != nil && h.expiration.Reached(current) && !s.paused {
				s.runTopLocked(true)
				h = s.queue.peekEarliest()
			}
		}
	} else {
		for !s.paused {
			h := s.queue.peekEarliest()
			if h == nil || s.host.ShouldYield() {
				break
			}
			s.runTopLocked(false)
		}
	}

	s.drainImmediateLocked()
}

// drainImmediateLocked runs Immediate-class work regardless of yield state.
// Immediate work must complete before control returns to application code,
// not merely before the next host wake-up.
func (s *Scheduler) drainImmediateLocked() {
	for !s.paused {
		h := s.queue.peekEarliest()
		if h == nil || h.priority != PriorityImmediate {
			break
		}
		s.runTopLocked(true)
	}
}

// runTopLocked pops and executes the earliest item. Called with s.mu held;
// the lock is released for the duration of the callback so the callback can
// schedule, cancel, and query freely.
//
// The item is fully unlinked before invocation, so a panicking callback
// leaves the queue consistent, and the ambient priority/expiration are
// restored on every exit path.
func (s *Scheduler) runTopLocked(didTimeout bool) {
	item := s.queue.popEarliest()
	if item == nil {
		return
	}
	cb := item.callback
	item.callback = nil
	s.metrics.RecordQueueDepth(s.queue.len())

	token := s.pushAmbientLocked(item.priority, 0, false)
	prevExpiration := s.currentExpiration
	s.currentExpiration = item.expiration

	start := s.host.Now()
	s.profiler.record(EventStarted, item, start)
	s.mu.Unlock()

	var result Result
	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				s.panicHandler.HandlePanic(item.priority, r, debug.Stack())
				s.metrics.RecordCallbackPanic(item.priority, r)
			}
		}()
		result = cb(didTimeout)
	}()

	s.mu.Lock()
	now := s.host.Now()
	s.metrics.RecordCallbackDuration(item.priority, now-start)
	s.popAmbientLocked(token)
	s.currentExpiration = prevExpiration

	switch {
	case panicked:
		s.panickedTotal++
		s.profiler.record(EventPanicked, item, now)
	case result.Continuation != nil:
		cont := &Handle{
			id:         s.nextID,
			callback:   result.Continuation,
			priority:   item.priority,
			expiration: item.expiration,
			// Reusing the parent's sequence places the continuation
			// ahead of every equal-deadline peer still in the queue.
			sequence: item.sequence,
			index:    -1,
		}
		s.nextID++
		s.queue.insert(cont)
		s.continuedTotal++
		s.metrics.RecordQueueDepth(s.queue.len())
		s.profiler.record(EventContinued, cont, now)
	default:
		s.completedTotal++
		s.profiler.record(EventCompleted, item, now)
	}
}

// FlushUntilIdle synchronously runs every queued item to completion,
// ignoring deadlines and host yield state. Continuations produced along the
// way run too. Intended for tests and teardown; a paused scheduler is left
// untouched.
func (s *Scheduler) FlushUntilIdle() {
	s.mu.Lock()
	if s.isFlushing || s.paused {
		s.mu.Unlock()
		return
	}
	s.isFlushing = true
	prevDidTimeout := s.currentDidTimeout
	s.currentDidTimeout = true

	defer func() {
		s.currentDidTimeout = prevDidTimeout
		s.isFlushing = false
		s.mu.Unlock()
	}()

	for !s.paused && s.queue.peekEarliest() != nil {
		s.runTopLocked(true)
	}
}

// =============================================================================
// Ambient priority
// =============================================================================

// RunWithPriority invokes fn with the ambient priority set to level, so work
// scheduled inside fn inherits it and shares one event-start time. The
// previous ambient state is restored on every exit path, including a panic
// in fn, and any Immediate work accumulated during the call is flushed
// before RunWithPriority returns.
func (s *Scheduler) RunWithPriority(level PriorityLevel, fn func()) {
	if !level.Valid() {
		level = PriorityNormal
	}

	s.mu.Lock()
	token := s.pushAmbientLocked(level, s.host.Now(), true)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.popAmbientLocked(token)
		s.mu.Unlock()
		s.flushImmediate()
	}()

	fn()
}

// RunWithPriorityResult is RunWithPriority for functions that return a
// value.
func RunWithPriorityResult[T any](s *Scheduler, level PriorityLevel, fn func() T) T {
	var out T
	s.RunWithPriority(level, func() {
		out = fn()
	})
	return out
}

// flushImmediate drains Immediate-class work synchronously. Inside an
// ongoing flush it does nothing; the flush drains Immediate work itself
// before returning.
func (s *Scheduler) flushImmediate() {
	s.mu.Lock()
	if s.isFlushing || s.paused {
		s.mu.Unlock()
		return
	}
	s.isFlushing = true

	defer func() {
		s.isFlushing = false
		if !s.paused {
			if h := s.queue.peekEarliest(); h != nil {
				s.requestHostLocked(h.expiration)
			}
		}
		s.mu.Unlock()
	}()

	s.drainImmediateLocked()
}

// CurrentPriority returns the ambient priority level.
func (s *Scheduler) CurrentPriority() PriorityLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPriorityLocked()
}

// =============================================================================
// Yield polling
// =============================================================================

// ShouldYield is polled by long computations running inside a callback. It
// reports true when a sooner-deadline item is waiting (a higher-priority
// request preempted the current work) or when the host wants the thread
// back. During a forced timed-out drain it always reports false: expired
// work must complete.
func (s *Scheduler) ShouldYield() bool {
	s.mu.Lock()
	if s.currentDidTimeout {
		s.mu.Unlock()
		return false
	}
	if s.isFlushing && s.currentExpiration != NoWork {
		if h := s.queue.peekEarliest(); h != nil && h.expiration.Sooner(s.currentExpiration) {
			s.mu.Unlock()
			return true
		}
	}
	s.mu.Unlock()
	return s.host.ShouldYield()
}

// =============================================================================
// Pause / resume
// =============================================================================

// Pause halts dispatch. Queued items are retained but never run until
// Resume. Pausing an already-paused scheduler is a no-op.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.paused = true
	s.profiler.record(EventPaused, nil, s.host.Now())
	s.logger.Info("scheduler paused", F("queued", s.queue.len()))
}

// Resume restarts dispatch and re-requests a host wake-up if work is
// pending. Resuming a scheduler that is not paused is a no-op.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	s.profiler.record(EventResumed, nil, s.host.Now())
	s.logger.Info("scheduler resumed", F("queued", s.queue.len()))
	if h := s.queue.peekEarliest(); h != nil {
		s.requestHostLocked(h.expiration)
	}
}

// =============================================================================
// Introspection
// =============================================================================

// QueuedCount returns the number of pending items.
func (s *Scheduler) QueuedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// PeekDeadline returns the earliest pending deadline, or ok=false when the
// queue is empty.
func (s *Scheduler) PeekDeadline() (Expiration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h := s.queue.peekEarliest(); h != nil {
		return h.expiration, true
	}
	return NoWork, false
}

// Stats returns a snapshot of scheduler state.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStats{
		Queued:              s.queue.len(),
		Flushing:            s.isFlushing,
		Paused:              s.paused,
		HostCallbackPending: s.isHostCallbackScheduled,
		CurrentPriority:     s.currentPriorityLocked(),
		ScheduledTotal:      s.scheduledTotal,
		CompletedTotal:      s.completedTotal,
		ContinuedTotal:      s.continuedTotal,
		CancelledTotal:      s.cancelledTotal,
		PanickedTotal:       s.panickedTotal,
	}
}
