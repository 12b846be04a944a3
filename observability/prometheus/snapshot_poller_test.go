package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/CyfforPro/timeslice/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type schedulerStub struct {
	stats core.SchedulerStats
}

func (s schedulerStub) Stats() core.SchedulerStats { return s.stats }

func TestSnapshotPoller_CollectsSchedulerStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddScheduler("ui", schedulerStub{stats: core.SchedulerStats{
		Queued:         3,
		Paused:         true,
		ScheduledTotal: 12,
		CompletedTotal: 9,
		ContinuedTotal: 2,
		CancelledTotal: 1,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		queued := testutil.ToFloat64(poller.queued.WithLabelValues("ui"))
		scheduled := testutil.ToFloat64(poller.scheduled.WithLabelValues("ui"))
		return queued == 3 && scheduled == 12
	})

	if got := testutil.ToFloat64(poller.paused.WithLabelValues("ui")); got != 1 {
		t.Fatalf("paused gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.completed.WithLabelValues("ui")); got != 9 {
		t.Fatalf("completed gauge = %v, want 9", got)
	}
	if got := testutil.ToFloat64(poller.continued.WithLabelValues("ui")); got != 2 {
		t.Fatalf("continued gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(poller.cancelled.WithLabelValues("ui")); got != 1 {
		t.Fatalf("cancelled gauge = %v, want 1", got)
	}
}

func TestSnapshotPoller_TracksLiveScheduler(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	host := core.NewFrameHost(core.FrameHostOptions{WatchdogTimeout: time.Hour})
	scheduler := core.NewScheduler(host, nil)
	poller.AddScheduler("background", scheduler)

	scheduler.ScheduleWithPriority(func(bool) core.Result { return core.Done }, core.PriorityNormal)
	scheduler.FlushUntilIdle()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		completed := testutil.ToFloat64(poller.completed.WithLabelValues("background"))
		return completed == 1
	})
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
