package breaker

import (
	"sync/atomic"
	"time"
)

// Clock is a monotonic-ish millisecond time source. The breaker and the
// sliding-window counter never call time.Now() directly; every time-based
// decision flows through a Clock so tests can drive state transitions
// deterministically instead of sleeping.
type Clock interface {
	// CurrentMillis returns the current time in milliseconds.
	CurrentMillis() int64
}

// SystemClock is the default Clock, backed by wall time.
type SystemClock struct{}

// CurrentMillis returns time.Now() in milliseconds since the Unix epoch.
func (SystemClock) CurrentMillis() int64 {
	return time.Now().UnixMilli()
}

// ManualClock is a Clock that only moves when told to. Used by tests to
// exercise bucket rotation, OPEN timeout expiry, and HALF_OPEN trial
// intervals without real sleeps.
type ManualClock struct {
	millis atomic.Int64
}

// NewManualClock creates a ManualClock starting at the given millisecond value.
func NewManualClock(startMillis int64) *ManualClock {
	c := &ManualClock{}
	c.millis.Store(startMillis)
	return c
}

// CurrentMillis returns the clock's current value.
func (c *ManualClock) CurrentMillis() int64 {
	return c.millis.Load()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.millis.Add(int64(d / time.Millisecond))
}

// Set pins the clock to an absolute millisecond value. Can move backwards,
// which is how tests exercise the SlidingWindowCounter's instant-bucket path.
func (c *ManualClock) Set(ms int64) {
	c.millis.Store(ms)
}
