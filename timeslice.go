package timeslice

import "github.com/CyfforPro/timeslice/core"

// New creates a scheduler backed by a default TimerHost: slices are paced by
// plain timers, suitable for headless hosts and tests. This is the
// recommended way to get a scheduler when no frame signal is available.
func New() *core.Scheduler {
	return core.NewScheduler(nil, core.DefaultSchedulerConfig())
}

// NewWithConfig creates a scheduler backed by a default TimerHost with
// custom collaborators (panic handler, metrics, logger, profiling).
func NewWithConfig(config *core.SchedulerConfig) *core.Scheduler {
	return core.NewScheduler(nil, config)
}

// NewWithHost creates a scheduler driven by a custom host controller.
func NewWithHost(host core.Host, config *core.SchedulerConfig) *core.Scheduler {
	return core.NewScheduler(host, config)
}

// NewFrameSynced creates a scheduler driven by a FrameHost. The embedder
// must call FrameTick on the returned host once per display frame; a
// watchdog timer keeps work flowing if the frame signal stops.
func NewFrameSynced(opts core.FrameHostOptions, config *core.SchedulerConfig) (*core.Scheduler, *core.FrameHost) {
	host := core.NewFrameHost(opts)
	return core.NewScheduler(host, config), host
}
