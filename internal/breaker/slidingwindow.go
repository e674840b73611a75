package breaker

import "sync/atomic"

// SlidingWindowCounter is the concrete, concurrent EventCounter that
// backs the CLOSED-state trip decision. It is non-blocking: recording an
// event and reading the accumulated count never take a lock.
//
// current is the active Bucket, atomically swappable. reservoir holds
// past (and occasional overflow/instant) buckets. snapshot is the most
// recently computed EventCount, refreshed once per bucket rotation and
// read in O(1) by GetCount.
type SlidingWindowCounter struct {
	clock Clock

	current atomic.Pointer[Bucket]
	history *reservoir
	snap    atomic.Pointer[EventCount]

	windowMillis         int64
	updateIntervalMillis int64
}

// NewSlidingWindowCounter builds a counter over the given window, divided
// into buckets of updateIntervalMillis each. Callers (via
// CircuitBreakerConfig validation) must ensure windowMillis >
// updateIntervalMillis; this is a build-time precondition the counter
// itself does not re-validate.
func NewSlidingWindowCounter(clock Clock, windowMillis, updateIntervalMillis int64) *SlidingWindowCounter {
	c := &SlidingWindowCounter{
		clock:                clock,
		history:              newReservoir(),
		windowMillis:         windowMillis,
		updateIntervalMillis: updateIntervalMillis,
	}
	zero := EventCountZero
	c.snap.Store(&zero)
	c.current.Store(newBucket(clock.CurrentMillis()))
	return c
}

// OnSuccess records one success event at the current clock time.
func (c *SlidingWindowCounter) OnSuccess() {
	c.record(true)
}

// OnFailure records one failure event at the current clock time.
func (c *SlidingWindowCounter) OnFailure() {
	c.record(false)
}

// GetCount returns the most recently computed snapshot. O(1),
// non-blocking; may lag real time by up to updateIntervalMillis during
// active traffic. The snapshot is refreshed only when a bucket rotates
// and sums only reservoir buckets, so events in the active bucket are
// not reflected until the next rotation.
func (c *SlidingWindowCounter) GetCount() EventCount {
	return *c.snap.Load()
}

// record implements the three-case recording algorithm.
func (c *SlidingWindowCounter) record(success bool) {
	now := c.clock.CurrentMillis()
	cur := c.current.Load()

	switch {
	case now < cur.timestamp:
		// Case 1: backward clock / stale event. Never touch current;
		// preserve the event in an instant bucket appended straight to
		// the reservoir.
		b := newBucket(now)
		applyOutcome(b, success)
		c.history.Append(b)

	case now < cur.timestamp+c.updateIntervalMillis:
		// Case 2: within the active bucket's window. No allocation.
		applyOutcome(cur, success)

	default:
		// Case 3: active bucket has expired. Build the replacement,
		// record the event on it, then try to install it as current.
		next := newBucket(now)
		applyOutcome(next, success)

		if c.current.CompareAndSwap(cur, next) {
			// We rotated; the old bucket is now history, and the window
			// sum is refreshed to reflect the rotation.
			c.history.Append(cur)
			snap := c.trimAndSum(now)
			c.snap.Store(&snap)
		} else {
			// Another writer rotated first. The event is not lost: append
			// next itself as an instant bucket; it will be folded in and
			// trimmed naturally on a future rotation.
			c.history.Append(next)
		}
	}
}

func applyOutcome(b *Bucket, success bool) {
	if success {
		b.recordSuccess()
	} else {
		b.recordFailure()
	}
}

// trimAndSum walks the reservoir, discarding buckets older than the
// window and summing the rest. Buckets appended concurrently during the
// walk need not be included in this pass — they will be picked up on the
// next rotation.
func (c *SlidingWindowCounter) trimAndSum(now int64) EventCount {
	cutoff := now - c.windowMillis

	for {
		b, ok := c.history.peekOldest()
		if !ok || b.timestamp >= cutoff {
			break
		}
		c.history.removeOldest()
	}

	var success, failure uint64
	c.history.forEachLive(func(b *Bucket) {
		s, f := b.counts()
		success += s
		failure += f
	})

	return EventCount{Success: success, Failure: failure}
}
