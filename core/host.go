package core

import (
	"context"
	"sync"
	"time"
)

// FlushFunc is invoked by a Host when the scheduler should drain work.
// didTimeout reports whether the requested deadline had passed when the host
// fired.
type FlushFunc func(didTimeout bool)

// Host is the capability the scheduler needs from its embedding environment:
// a wake-up primitive and a yield heuristic. Implementations decide when the
// thread must be handed back to the host's own loop.
//
// RequestFlush must be idempotent under rapid re-invocation: a pending
// request is replaced, never duplicated. CancelFlush is best-effort; a
// cancelled request may still produce one spurious wake-up, which the
// scheduler tolerates (an empty flush is a no-op).
type Host interface {
	// RequestFlush asks the host to invoke fn on its dispatch goroutine.
	// deadline is the absolute instant (on the host's Now axis) after
	// which fn must be invoked with didTimeout=true even if the host is
	// otherwise busy.
	RequestFlush(fn FlushFunc, deadline time.Duration)

	// CancelFlush retracts a pending request if one exists.
	CancelFlush()

	// ShouldYield reports whether the current execution slice has used up
	// its budget and control must return to the host.
	ShouldYield() bool

	// Now returns the current time on the host's clock.
	Now() time.Duration
}

type flushRequest struct {
	fn       FlushFunc
	deadline time.Duration
}

// =============================================================================
// TimerHost: timer-paced host for headless or background execution
// =============================================================================

// TimerHostOptions configures a TimerHost. Zero values select defaults.
type TimerHostOptions struct {
	// Clock supplies time. Defaults to a new SystemClock.
	Clock Clock

	// Interval is the pacing between flush slices. A pending request
	// fires once Interval has elapsed since the previous slice, or at its
	// deadline, whichever comes first. Defaults to 4ms.
	Interval time.Duration

	// Budget is the slice length after which ShouldYield turns true.
	// Defaults to 5ms.
	Budget time.Duration

	// Logger receives lifecycle messages. Defaults to no logging.
	Logger Logger
}

// TimerHost drives the scheduler from a dedicated timer goroutine. It is the
// fallback host for environments without a frame signal: slices are paced by
// a fixed interval and bounded by a fixed budget.
type TimerHost struct {
	clock    Clock
	interval time.Duration
	budget   time.Duration
	logger   Logger

	mu         sync.Mutex
	pending    *flushRequest
	lastFire   time.Duration
	sliceStart time.Duration

	wakeup chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTimerHost creates a TimerHost and starts its dispatch goroutine.
func NewTimerHost(opts TimerHostOptions) *TimerHost {
	if opts.Clock == nil {
		opts.Clock = NewSystemClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = 4 * time.Millisecond
	}
	if opts.Budget <= 0 {
		opts.Budget = 5 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = NewNoOpLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &TimerHost{
		clock:    opts.Clock,
		interval: opts.Interval,
		budget:   opts.Budget,
		logger:   opts.Logger,
		lastFire: -opts.Interval, // first request fires without pacing delay
		wakeup:   make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *TimerHost) RequestFlush(fn FlushFunc, deadline time.Duration) {
	h.mu.Lock()
	h.pending = &flushRequest{fn: fn, deadline: deadline}
	h.mu.Unlock()

	select {
	case h.wakeup <- struct{}{}:
	default:
	}
}

func (h *TimerHost) CancelFlush() {
	h.mu.Lock()
	h.pending = nil
	h.mu.Unlock()
}

func (h *TimerHost) ShouldYield() bool {
	h.mu.Lock()
	start := h.sliceStart
	h.mu.Unlock()
	return h.clock.Now() >= start+h.budget
}

func (h *TimerHost) Now() time.Duration {
	return h.clock.Now()
}

// Stop terminates the dispatch goroutine. A pending request is dropped.
func (h *TimerHost) Stop() {
	h.cancel()
	<-h.done
	h.CancelFlush()
	h.logger.Debug("timer host stopped")
}

// loop sleeps until the pending request is due, then runs it outside the
// lock. Re-requests made during the flush are picked up on the next pass.
func (h *TimerHost) loop() {
	defer close(h.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		wait, ok := h.nextWait()
		if !ok {
			// Nothing pending; sleep until a request arrives.
			select {
			case <-h.ctx.Done():
				return
			case <-h.wakeup:
				continue
			}
		}

		if wait > 0 {
			timer.Reset(wait)
			select {
			case <-h.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			case <-h.wakeup:
				// Request replaced; recompute the wait.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				continue
			}
		}

		h.fire()
	}
}

// nextWait returns how long to sleep before the pending request is due, or
// ok=false when nothing is pending.
func (h *TimerHost) nextWait() (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pending == nil {
		return 0, false
	}

	now := h.clock.Now()
	due := h.lastFire + h.interval
	if h.pending.deadline < due {
		due = h.pending.deadline
	}
	if due <= now {
		return 0, true
	}
	return due - now, true
}

func (h *TimerHost) fire() {
	h.mu.Lock()
	req := h.pending
	h.pending = nil
	if req == nil {
		// Cancelled between the sleep and now; spurious wake-ups are
		// fine for the scheduler but we can skip the call entirely.
		h.mu.Unlock()
		return
	}
	now := h.clock.Now()
	h.lastFire = now
	h.sliceStart = now
	h.mu.Unlock()

	req.fn(now >= req.deadline)
}

// =============================================================================
// FrameHost: frame-synchronized host with adaptive budget
// =============================================================================

// FrameHostOptions configures a FrameHost. Zero values select defaults.
type FrameHostOptions struct {
	// Clock supplies time. Defaults to a new SystemClock.
	Clock Clock

	// InitialFrameInterval seeds the refresh-interval estimate.
	// Defaults to 33ms (~30fps).
	InitialFrameInterval time.Duration

	// MinFrameInterval floors the estimate; the budget never tightens
	// below this. Defaults to 8ms (~120fps).
	MinFrameInterval time.Duration

	// WatchdogTimeout bounds how long a pending request may wait for a
	// frame signal before the watchdog fires it anyway. Defaults to
	// 100ms.
	WatchdogTimeout time.Duration

	// Logger receives lifecycle messages. Defaults to no logging.
	Logger Logger
}

// FrameHost synchronizes flushing with the embedder's frame loop. The
// embedder calls FrameTick once per display frame; each tick opens a new
// execution slice whose deadline is the frame start plus the current
// refresh-interval estimate.
//
// The estimate starts at the configured initial interval and tightens only
// after two consecutive frames both arrive faster than it, taking the larger
// of the two observations. A single slow frame therefore never loosens an
// established budget, and a single fast frame never tightens it.
//
// A watchdog timer guarantees forward progress when the frame signal stops,
// e.g. when the host backgrounds the surface and suppresses frame callbacks.
type FrameHost struct {
	clock           Clock
	minInterval     time.Duration
	watchdogTimeout time.Duration
	logger          Logger

	mu            sync.Mutex
	pending       *flushRequest
	frameInterval time.Duration
	prevInterval  time.Duration
	lastFrameAt   time.Duration
	sawFrame      bool
	frameDeadline time.Duration
	watchdog      *time.Timer
}

// NewFrameHost creates a FrameHost. It does not start any goroutine of its
// own; the embedder's frame loop drives it through FrameTick.
func NewFrameHost(opts FrameHostOptions) *FrameHost {
	if opts.Clock == nil {
		opts.Clock = NewSystemClock()
	}
	if opts.InitialFrameInterval <= 0 {
		opts.InitialFrameInterval = 33 * time.Millisecond
	}
	if opts.MinFrameInterval <= 0 {
		opts.MinFrameInterval = 8 * time.Millisecond
	}
	if opts.WatchdogTimeout <= 0 {
		opts.WatchdogTimeout = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = NewNoOpLogger()
	}
	return &FrameHost{
		clock:           opts.Clock,
		minInterval:     opts.MinFrameInterval,
		watchdogTimeout: opts.WatchdogTimeout,
		logger:          opts.Logger,
		frameInterval:   opts.InitialFrameInterval,
	}
}

func (h *FrameHost) RequestFlush(fn FlushFunc, deadline time.Duration) {
	h.mu.Lock()
	h.pending = &flushRequest{fn: fn, deadline: deadline}
	if h.watchdog == nil {
		h.watchdog = time.AfterFunc(h.watchdogTimeout, h.watchdogFire)
	} else {
		h.watchdog.Reset(h.watchdogTimeout)
	}
	h.mu.Unlock()
}

func (h *FrameHost) CancelFlush() {
	h.mu.Lock()
	h.pending = nil
	if h.watchdog != nil {
		h.watchdog.Stop()
	}
	h.mu.Unlock()
}

func (h *FrameHost) ShouldYield() bool {
	h.mu.Lock()
	deadline := h.frameDeadline
	h.mu.Unlock()
	return h.clock.Now() >= deadline
}

func (h *FrameHost) Now() time.Duration {
	return h.clock.Now()
}

// FrameInterval returns the current refresh-interval estimate.
func (h *FrameHost) FrameInterval() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frameInterval
}

// FrameTick opens a new execution slice. The embedder calls it at the start
// of each display frame, before its own paint work.
func (h *FrameHost) FrameTick() {
	h.mu.Lock()
	now := h.clock.Now()

	if h.sawFrame {
		interval := now - h.lastFrameAt
		if interval > 0 {
			if interval < h.frameInterval && h.prevInterval > 0 && h.prevInterval < h.frameInterval {
				// Two consecutive fast frames: the display refreshes
				// quicker than assumed. Track the slower of the two.
				next := interval
				if h.prevInterval > next {
					next = h.prevInterval
				}
				if next < h.minInterval {
					next = h.minInterval
				}
				h.frameInterval = next
			}
			h.prevInterval = interval
		}
	}
	h.sawFrame = true
	h.lastFrameAt = now
	h.frameDeadline = now + h.frameInterval

	req := h.pending
	h.pending = nil
	if req != nil && h.watchdog != nil {
		h.watchdog.Stop()
	}
	h.mu.Unlock()

	if req != nil {
		req.fn(now >= req.deadline)
	}
}

// watchdogFire runs a pending request when no frame signal showed up within
// the timeout. It opens a synthetic slice so ShouldYield still has a budget.
func (h *FrameHost) watchdogFire() {
	h.mu.Lock()
	req := h.pending
	h.pending = nil
	if req == nil {
		h.mu.Unlock()
		return
	}
	now := h.clock.Now()
	h.frameDeadline = now + h.frameInterval
	h.mu.Unlock()

	h.logger.Debug("frame signal missed, watchdog flush",
		F("timeout", h.watchdogTimeout))
	req.fn(now >= req.deadline)
}
