package core

import (
	"sync"
	"time"
)

const defaultProfilerCapacity = 100

// EventKind classifies profiler records.
type EventKind int

const (
	EventScheduled EventKind = iota
	EventStarted
	EventCompleted
	EventContinued
	EventCancelled
	EventPanicked
	EventPaused
	EventResumed
)

func (k EventKind) String() string {
	switch k {
	case EventScheduled:
		return "scheduled"
	case EventStarted:
		return "started"
	case EventCompleted:
		return "completed"
	case EventContinued:
		return "continued"
	case EventCancelled:
		return "cancelled"
	case EventPanicked:
		return "panicked"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	default:
		return "unknown"
	}
}

// EventRecord captures one scheduler event.
type EventRecord struct {
	Seq        uint64
	Kind       EventKind
	HandleID   uint64
	Priority   PriorityLevel
	Expiration Expiration
	At         time.Duration
}

// Profiler records scheduler events into a fixed-capacity ring. Old records
// are overwritten once the ring is full. A nil *Profiler is a no-op, so the
// scheduler can call it unconditionally.
type Profiler struct {
	mu    sync.Mutex
	items []EventRecord
	head  int
	count int
	seq   uint64
}

// NewProfiler creates a Profiler holding up to capacity records.
func NewProfiler(capacity int) *Profiler {
	if capacity < 1 {
		capacity = defaultProfilerCapacity
	}
	return &Profiler{items: make([]EventRecord, capacity)}
}

func (p *Profiler) record(kind EventKind, item *Handle, at time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	rec := EventRecord{Seq: p.seq, Kind: kind, At: at}
	p.seq++
	if item != nil {
		rec.HandleID = item.id
		rec.Priority = item.priority
		rec.Expiration = item.expiration
	}

	p.items[p.head] = rec
	p.head = (p.head + 1) % len(p.items)
	if p.count < len(p.items) {
		p.count++
	}
}

// Recent returns up to limit records, newest first. limit <= 0 means all
// retained records.
func (p *Profiler) Recent(limit int) []EventRecord {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.count == 0 {
		return nil
	}
	if limit <= 0 || limit > p.count {
		limit = p.count
	}

	out := make([]EventRecord, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (p.head - 1 - i + len(p.items)) % len(p.items)
		out = append(out, p.items[idx])
	}
	return out
}
