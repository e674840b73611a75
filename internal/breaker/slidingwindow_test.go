package breaker

import (
	"sync"
	"testing"
	"time"
)

func TestSlidingWindowCounterBasicAccumulation(t *testing.T) {
	clock := NewManualClock(0)
	c := NewSlidingWindowCounter(clock, 20_000, 1_000)

	if got := c.GetCount(); got != EventCountZero {
		t.Fatalf("fresh counter GetCount() = %+v, want zero", got)
	}

	c.OnSuccess()
	c.OnFailure()
	clock.Advance(time.Second)
	c.OnFailure()

	// After onSuccess; onFailure; advance(1s); onFailure, GetCount() ==
	// (1, 1) — the rotation triggered by the third event sums the
	// *previous* bucket, and the new bucket's own event is not yet
	// visible.
	if got := c.GetCount(); got != (EventCount{Success: 1, Failure: 1}) {
		t.Fatalf("GetCount() = %+v, want (1,1)", got)
	}
}

func TestSlidingWindowCounterTrimsOldBuckets(t *testing.T) {
	clock := NewManualClock(0)
	c := NewSlidingWindowCounter(clock, 20_000, 1_000)

	c.OnSuccess()
	c.OnFailure()
	clock.Advance(time.Second)
	c.OnFailure()

	if got := c.GetCount(); got != (EventCount{Success: 1, Failure: 1}) {
		t.Fatalf("GetCount() = %+v, want (1,1)", got)
	}

	// Continuation: advance past the whole window, then record one more
	// event. Buckets older than the window are trimmed; the freshly
	// recorded event has not yet been folded into a snapshot.
	clock.Advance(21 * time.Second)
	c.OnFailure()

	if got := c.GetCount(); got != EventCountZero {
		t.Fatalf("GetCount() after window trim = %+v, want (0,0)", got)
	}
}

func TestSlidingWindowCounterBackwardClock(t *testing.T) {
	clock := NewManualClock(10_000)
	c := NewSlidingWindowCounter(clock, 20_000, 1_000)

	c.OnSuccess() // lands in the current bucket at t=10_000

	clock.Set(5_000) // clock moves backward
	c.OnFailure()    // must not be lost, and must not corrupt `current`

	clock.Set(10_000)
	c.OnSuccess()
	clock.Set(32_000) // force a rotation so trimAndSum runs
	c.OnFailure()

	got := c.GetCount()
	if got.Total() == 0 {
		t.Fatalf("events recorded around a backward clock jump must not be lost, got %+v", got)
	}
}

func TestSlidingWindowCounterConcurrentLoadNoLostEvents(t *testing.T) {
	clock := NewManualClock(0)
	c := NewSlidingWindowCounter(clock, 60_000, 1_000)

	const goroutines = 6
	const opsPerGoroutine = 5_000

	var wg sync.WaitGroup
	var wantSuccess, wantFailure int64

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < opsPerGoroutine; i++ {
				if (i+seed)%2 == 0 {
					c.OnSuccess()
				} else {
					c.OnFailure()
				}
				if i%97 == 0 {
					_ = c.GetCount() // concurrent readers
				}
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < goroutines; g++ {
		for i := 0; i < opsPerGoroutine; i++ {
			if (i+g)%2 == 0 {
				wantSuccess++
			} else {
				wantFailure++
			}
		}
	}

	// Force a rotation so the bucket that absorbed every concurrent
	// event (all of them landed in the same active bucket, since the
	// clock never advanced during the loop) is folded into the
	// snapshot. The triggering event itself lands in the *new* active
	// bucket and is deliberately not counted below — it is not yet
	// part of any snapshot, by design (see package doc on staleness).
	clock.Advance(2 * time.Second)
	c.OnFailure()

	got := c.GetCount()
	if got.Total() != uint64(wantSuccess+wantFailure) {
		t.Fatalf("lost events under concurrency: got total %d, want %d", got.Total(), wantSuccess+wantFailure)
	}
	if got.Success != uint64(wantSuccess) || got.Failure != uint64(wantFailure) {
		t.Fatalf("got %+v, want success=%d failure=%d", got, wantSuccess, wantFailure)
	}
}

func TestNoOpCounterNeverAccumulates(t *testing.T) {
	NoOpCounter.OnSuccess()
	NoOpCounter.OnFailure()
	NoOpCounter.OnSuccess()

	if got := NoOpCounter.GetCount(); got != EventCountZero {
		t.Fatalf("NoOpCounter.GetCount() = %+v, want zero", got)
	}
}
