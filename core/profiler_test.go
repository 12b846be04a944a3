package core

import (
	"testing"
	"time"
)

// TestProfiler_RecordAndRecent verifies basic recording
// Main test items:
// 1. Recent returns newest first
// 2. Records carry the handle's identity and deadline
// 3. Sequence numbers are strictly increasing
func TestProfiler_RecordAndRecent(t *testing.T) {
	p := NewProfiler(8)
	item := newTestItem(7, ExpirationForMillis(100), 1)
	item.priority = PriorityUserBlocking

	p.record(EventScheduled, item, 5*time.Millisecond)
	p.record(EventStarted, item, 6*time.Millisecond)
	p.record(EventCompleted, item, 9*time.Millisecond)

	recent := p.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("got %d records, want 3", len(recent))
	}
	if recent[0].Kind != EventCompleted || recent[2].Kind != EventScheduled {
		t.Errorf("order = [%v %v %v], want newest first", recent[0].Kind, recent[1].Kind, recent[2].Kind)
	}
	if recent[0].HandleID != 7 || recent[0].Priority != PriorityUserBlocking {
		t.Errorf("record = %+v, want handle identity carried over", recent[0])
	}
	if recent[0].Seq <= recent[1].Seq || recent[1].Seq <= recent[2].Seq {
		t.Error("sequence numbers are not strictly increasing")
	}
}

// TestProfiler_RingEviction verifies that old records fall off a full ring
func TestProfiler_RingEviction(t *testing.T) {
	p := NewProfiler(4)
	for i := 0; i < 10; i++ {
		p.record(EventScheduled, newTestItem(uint64(i), Never, uint64(i)), 0)
	}

	recent := p.Recent(0)
	if len(recent) != 4 {
		t.Fatalf("got %d records, want capacity 4", len(recent))
	}
	if recent[0].HandleID != 9 || recent[3].HandleID != 6 {
		t.Errorf("retained handles %d..%d, want 9..6", recent[0].HandleID, recent[3].HandleID)
	}
}

// TestProfiler_RecentLimit verifies the limit argument
func TestProfiler_RecentLimit(t *testing.T) {
	p := NewProfiler(8)
	for i := 0; i < 5; i++ {
		p.record(EventScheduled, newTestItem(uint64(i), Never, uint64(i)), 0)
	}

	if got := len(p.Recent(2)); got != 2 {
		t.Errorf("Recent(2) returned %d records", got)
	}
	if got := len(p.Recent(100)); got != 5 {
		t.Errorf("Recent(100) returned %d records, want all 5", got)
	}
}

// TestProfiler_NilSafe verifies that a disabled profiler is inert
func TestProfiler_NilSafe(t *testing.T) {
	var p *Profiler
	p.record(EventScheduled, nil, 0) // must not panic
	if p.Recent(0) != nil {
		t.Error("nil profiler returned records")
	}
}

// TestEventKind_String covers the labels used in profiler dumps
func TestEventKind_String(t *testing.T) {
	labels := map[EventKind]string{
		EventScheduled: "scheduled",
		EventStarted:   "started",
		EventCompleted: "completed",
		EventContinued: "continued",
		EventCancelled: "cancelled",
		EventPanicked:  "panicked",
		EventPaused:    "paused",
		EventResumed:   "resumed",
	}
	for kind, want := range labels {
		if kind.String() != want {
			t.Errorf("%d.String() = %q, want %q", kind, kind.String(), want)
		}
	}
}
