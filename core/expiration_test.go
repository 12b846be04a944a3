package core

import (
	"testing"
	"time"
)

// TestExpiration_RoundTrip verifies the lossy inverse conversion
// Given: instants on the millisecond axis
// When: converted to Expiration and back
// Then: the result is within one quantization unit of the input
func TestExpiration_RoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 1, 9, 10, 99, 1000, 5000, 123456} {
		e := ExpirationForMillis(ms)
		back := e.Millis()
		if back > ms || ms-back >= unitMillis {
			t.Errorf("Millis(ExpirationForMillis(%d)) = %d, want within %dms below input", ms, back, unitMillis)
		}
	}
}

// TestExpiration_Quantization verifies intentional coalescing
// Given: two instants inside one 10ms quantum
// When: converted to Expiration
// Then: they produce identical values
func TestExpiration_Quantization(t *testing.T) {
	if ExpirationForMillis(100) != ExpirationForMillis(109) {
		t.Error("instants inside one quantum should share an Expiration")
	}
	if ExpirationForMillis(100) == ExpirationForMillis(110) {
		t.Error("instants in different quanta should differ")
	}
}

// TestExpiration_Ordering verifies the deadline comparators
// Given: deadlines at increasing instants
// Then: Sooner orders them by deadline and Reached tracks the current time
func TestExpiration_Ordering(t *testing.T) {
	early := ExpirationForMillis(100)
	late := ExpirationForMillis(10000)

	if !early.Sooner(late) {
		t.Error("earlier deadline should be Sooner")
	}
	if late.Sooner(early) {
		t.Error("later deadline should not be Sooner")
	}

	now := ExpirationForMillis(500)
	if !early.Reached(now) {
		t.Error("deadline at 100ms should be Reached at 500ms")
	}
	if late.Reached(now) {
		t.Error("deadline at 10000ms should not be Reached at 500ms")
	}

	// Monotonic with wall-clock time.
	if !ExpirationForMillis(0).Sooner(ExpirationForMillis(20)) {
		t.Error("expiration should be monotonic with time")
	}
}

// TestExpiration_Sentinels verifies the reserved constants stay distinct
// from every computable deadline
func TestExpiration_Sentinels(t *testing.T) {
	if !Sync.Sooner(Never) {
		t.Error("Sync must be the soonest deadline")
	}
	if !Sync.Reached(ExpirationForMillis(0)) {
		t.Error("Sync must already be expired at any instant")
	}

	for _, ms := range []int64{0, 1, 10000, 1 << 30} {
		e := ExpirationForMillis(ms)
		if e == NoWork || e == Sync {
			t.Errorf("computed expiration for %dms collides with a sentinel", ms)
		}
	}
}

// TestPriorityLevel_Bucketing verifies request coalescing per batch window
// Given: two Normal-priority requests 50ms apart (inside one 250ms window)
// Then: they share an expiration; requests straddling a boundary do not
func TestPriorityLevel_Bucketing(t *testing.T) {
	at := func(ms int64) Expiration {
		return PriorityNormal.expirationAt(ExpirationForMillis(ms))
	}

	if at(0) != at(50) {
		t.Error("Normal requests 50ms apart should coalesce onto one expiration")
	}
	if at(0) == at(260) {
		t.Error("Normal requests straddling a batch boundary should differ")
	}
	if !at(0).Sooner(at(260)) {
		t.Error("the earlier batch should hold the sooner deadline")
	}

	// Normal at t=0 lands about 500 units (5000ms) from the current-time
	// anchor, give or take one batch window.
	anchor := ExpirationForMillis(0)
	exp := at(0)
	units := int64(anchor - exp)
	if units < 500 || units > 530 {
		t.Errorf("Normal at t=0 is %d units from anchor, want ~500-530", units)
	}
}

// TestPriorityLevel_ClassExpirations verifies the per-class mapping
// Then: Immediate is already expired, Idle never expires, and the middle
// classes order UserBlocking < Normal < Low by deadline
func TestPriorityLevel_ClassExpirations(t *testing.T) {
	current := ExpirationForMillis(1000)

	if PriorityImmediate.expirationAt(current) != Sync {
		t.Error("Immediate should map to Sync")
	}
	if PriorityIdle.expirationAt(current) != Never {
		t.Error("Idle should map to Never")
	}

	ub := PriorityUserBlocking.expirationAt(current)
	no := PriorityNormal.expirationAt(current)
	lo := PriorityLow.expirationAt(current)
	if !ub.Sooner(no) || !no.Sooner(lo) {
		t.Errorf("class deadlines out of order: ub=%d normal=%d low=%d", ub, no, lo)
	}
	if ub.Reached(current) {
		t.Error("UserBlocking deadline should not be expired at request time")
	}
}

// TestPriorityLevel_Valid verifies level validation and labels
func TestPriorityLevel_Valid(t *testing.T) {
	levels := []PriorityLevel{
		PriorityImmediate, PriorityUserBlocking, PriorityNormal, PriorityLow, PriorityIdle,
	}
	for _, l := range levels {
		if !l.Valid() {
			t.Errorf("level %d should be valid", l)
		}
		if l.String() == "unknown" {
			t.Errorf("level %d has no label", l)
		}
	}
	if PriorityLevel(-1).Valid() || PriorityLevel(99).Valid() {
		t.Error("out-of-range levels should be invalid")
	}
}

// TestExpirationForTime verifies the Duration axis conversion
func TestExpirationForTime(t *testing.T) {
	if ExpirationForTime(250*time.Millisecond) != ExpirationForMillis(250) {
		t.Error("ExpirationForTime should match the millisecond conversion")
	}
}
