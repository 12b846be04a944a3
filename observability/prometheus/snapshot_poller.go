package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/CyfforPro/timeslice/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SchedulerSnapshotProvider provides current scheduler stats snapshots.
// *core.Scheduler satisfies it.
type SchedulerSnapshotProvider interface {
	Stats() core.SchedulerStats
}

// SnapshotPoller periodically exports scheduler Stats() snapshots into
// Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	schedulersMu sync.RWMutex
	schedulers   map[string]SchedulerSnapshotProvider

	queued      *prom.GaugeVec
	paused      *prom.GaugeVec
	flushing    *prom.GaugeVec
	hostPending *prom.GaugeVec
	scheduled   *prom.GaugeVec
	completed   *prom.GaugeVec
	continued   *prom.GaugeVec
	cancelled   *prom.GaugeVec
	panicked    *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	labels := []string{"scheduler"}
	gauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "timeslice",
			Name:      name,
			Help:      help,
		}, labels)
	}

	queued := gauge("scheduler_queued", "Queued callbacks per scheduler.")
	paused := gauge("scheduler_paused", "Scheduler paused state (1=paused, 0=running).")
	flushing := gauge("scheduler_flushing", "Scheduler flushing state (1=flushing, 0=idle).")
	hostPending := gauge("scheduler_host_callback_pending", "Outstanding host request (1=pending, 0=none).")
	scheduled := gauge("scheduler_scheduled_total", "Scheduled callback count snapshot.")
	completed := gauge("scheduler_completed_total", "Completed callback count snapshot.")
	continued := gauge("scheduler_continued_total", "Continuation count snapshot.")
	cancelled := gauge("scheduler_cancelled_total", "Cancelled callback count snapshot.")
	panicked := gauge("scheduler_panicked_total", "Panicked callback count snapshot.")

	var err error
	if queued, err = registerCollector(reg, queued); err != nil {
		return nil, err
	}
	if paused, err = registerCollector(reg, paused); err != nil {
		return nil, err
	}
	if flushing, err = registerCollector(reg, flushing); err != nil {
		return nil, err
	}
	if hostPending, err = registerCollector(reg, hostPending); err != nil {
		return nil, err
	}
	if scheduled, err = registerCollector(reg, scheduled); err != nil {
		return nil, err
	}
	if completed, err = registerCollector(reg, completed); err != nil {
		return nil, err
	}
	if continued, err = registerCollector(reg, continued); err != nil {
		return nil, err
	}
	if cancelled, err = registerCollector(reg, cancelled); err != nil {
		return nil, err
	}
	if panicked, err = registerCollector(reg, panicked); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:    interval,
		schedulers:  make(map[string]SchedulerSnapshotProvider),
		queued:      queued,
		paused:      paused,
		flushing:    flushing,
		hostPending: hostPending,
		scheduled:   scheduled,
		completed:   completed,
		continued:   continued,
		cancelled:   cancelled,
		panicked:    panicked,
	}, nil
}

// AddScheduler adds or replaces a scheduler snapshot provider by name.
func (p *SnapshotPoller) AddScheduler(name string, provider SchedulerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "scheduler")
	p.schedulersMu.Lock()
	p.schedulers[name] = provider
	p.schedulersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.schedulersMu.RLock()
	defer p.schedulersMu.RUnlock()

	for name, provider := range p.schedulers {
		stats := provider.Stats()
		p.queued.WithLabelValues(name).Set(float64(stats.Queued))
		p.paused.WithLabelValues(name).Set(boolValue(stats.Paused))
		p.flushing.WithLabelValues(name).Set(boolValue(stats.Flushing))
		p.hostPending.WithLabelValues(name).Set(boolValue(stats.HostCallbackPending))
		p.scheduled.WithLabelValues(name).Set(float64(stats.ScheduledTotal))
		p.completed.WithLabelValues(name).Set(float64(stats.CompletedTotal))
		p.continued.WithLabelValues(name).Set(float64(stats.ContinuedTotal))
		p.cancelled.WithLabelValues(name).Set(float64(stats.CancelledTotal))
		p.panicked.WithLabelValues(name).Set(float64(stats.PanickedTotal))
	}
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
