package core

import "time"

// =============================================================================
// Expiration: deadline proxy used to order scheduled work
// =============================================================================

// Expiration is an integer proxy for an absolute deadline. Values count down
// from a fixed ceiling: the later the wall-clock deadline, the smaller the
// value. Ordering helpers below hide the axis direction; callers should only
// compare through Sooner/Reached.
//
// Time is quantized into 10ms units, so two instants within the same quantum
// map to the same Expiration. This is intentional throttling: bursts of
// requests collapse onto one deadline.
type Expiration int32

const (
	// NoWork is the reserved sentinel meaning "no deadline / nothing queued".
	NoWork Expiration = 0

	// Never is the farthest representable deadline, used for Idle work.
	Never Expiration = 1

	// Sync is the most urgent deadline, used for Immediate work. It is
	// always already expired relative to any current time.
	Sync Expiration = maxSigned31
)

const (
	maxSigned31 = 1<<30 - 1 + 1<<30 // 2^31 - 1

	// unitMillis is the quantization unit. One Expiration step is 10ms.
	unitMillis = 10

	// magicOffset anchors computed values below Sync and well away from
	// the NoWork sentinel, so a legitimate deadline can never collide
	// with either reserved constant.
	magicOffset Expiration = Sync - 2
)

// ExpirationForMillis converts a wall-clock instant (milliseconds on the
// scheduler's monotonic axis) into an Expiration. Pure arithmetic.
func ExpirationForMillis(ms int64) Expiration {
	return magicOffset - Expiration(ms/unitMillis)
}

// Millis is the approximate inverse of ExpirationForMillis. Lossy by up to
// one quantization unit, and additionally by the bucket size for values
// produced by bucketing.
func (e Expiration) Millis() int64 {
	return int64(magicOffset-e) * unitMillis
}

// ExpirationForTime converts an instant on a Clock's axis.
func ExpirationForTime(t time.Duration) Expiration {
	return ExpirationForMillis(t.Milliseconds())
}

// Sooner reports whether e is an earlier deadline than o.
func (e Expiration) Sooner(o Expiration) bool {
	return e > o
}

// Reached reports whether the deadline e has passed at the instant
// represented by current.
func (e Expiration) Reached(current Expiration) bool {
	return current <= e
}

// ceilUnits rounds n up to the next multiple of precision. Used by bucketing
// so that nearly-simultaneous requests of the same class land on the same
// boundary.
func ceilUnits(n, precision Expiration) Expiration {
	return ((n / precision) + 1) * precision
}

// bucket maps (current instant, class timeout, class batch window) to an
// Expiration. All requests of one class inside one batch window receive an
// identical value, which is what merges bursts into a single unit of urgency.
func bucket(current Expiration, timeoutMillis, batchMillis int64) Expiration {
	return magicOffset - ceilUnits(
		magicOffset-current+Expiration(timeoutMillis/unitMillis),
		Expiration(batchMillis/unitMillis),
	)
}

// =============================================================================
// PriorityLevel: the five urgency classes
// =============================================================================

// PriorityLevel orders scheduled work. Lower values are more urgent.
type PriorityLevel int

const (
	// PriorityImmediate work runs before control returns to application
	// code. Its deadline is always already expired.
	PriorityImmediate PriorityLevel = iota

	// PriorityUserBlocking work is the result of direct user interaction.
	PriorityUserBlocking

	// PriorityNormal is the default class.
	PriorityNormal

	// PriorityLow work may be deferred for several seconds.
	PriorityLow

	// PriorityIdle work only runs when nothing else is pending; it
	// effectively never times out.
	PriorityIdle

	priorityLevelCount
)

// Class timeouts (deadline distance from "now") and batch windows.
const (
	userBlockingTimeoutMillis = 250
	normalTimeoutMillis       = 5000
	lowTimeoutMillis          = 10000

	userBlockingBatchMillis = 100
	normalBatchMillis       = 250
	lowBatchMillis          = 250
)

// Valid reports whether l is one of the five defined classes.
func (l PriorityLevel) Valid() bool {
	return l >= PriorityImmediate && l < priorityLevelCount
}

func (l PriorityLevel) String() string {
	switch l {
	case PriorityImmediate:
		return "immediate"
	case PriorityUserBlocking:
		return "user_blocking"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	case PriorityIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// expirationAt computes the deadline for work of class l requested at the
// instant current. Immediate and Idle map to their fixed constants; the
// middle classes go through bucketing.
func (l PriorityLevel) expirationAt(current Expiration) Expiration {
	switch l {
	case PriorityImmediate:
		return Sync
	case PriorityUserBlocking:
		return bucket(current, userBlockingTimeoutMillis, userBlockingBatchMillis)
	case PriorityLow:
		return bucket(current, lowTimeoutMillis, lowBatchMillis)
	case PriorityIdle:
		return Never
	default:
		return bucket(current, normalTimeoutMillis, normalBatchMillis)
	}
}
