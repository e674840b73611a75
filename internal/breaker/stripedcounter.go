package breaker

import (
	"sync/atomic"
	"unsafe"
)

// stripeCount is the number of cells a stripedCounter spreads writes over.
// Sized for the contention a single bucket sees under high concurrency
// without wasting memory on the common case of light traffic; it need not
// match GOMAXPROCS exactly since Add() degrades to plain atomic contention
// gracefully when the shard count is too small, just like a single cell.
const stripeCount = 16

// paddedCell keeps adjacent cells on separate cache lines so concurrent
// writers to different cells don't false-share.
type paddedCell struct {
	v atomic.Int64
	_ [56]byte // pad to 64 bytes (8 byte atomic.Int64 + 56 = 64)
}

// stripedCounter is an add-only counter built from several independently
// writable cells, summed on read. This is preferred over a single shared
// atomic integer under extreme contention: writers spread across cells
// instead of all CAS-retrying the same memory word.
//
// Cell selection uses the calling goroutine's stack address as a cheap,
// allocation-free source of per-goroutine variance (distinct goroutines
// have distinct stacks). It is not a true goroutine ID and does not need
// to be: any reasonably stable, reasonably uniform hash is sufficient to
// spread writes, since correctness only depends on Sum() seeing every
// increment, never on any particular cell receiving it.
type stripedCounter struct {
	cells [stripeCount]paddedCell
}

// Add increments the counter by delta (delta is normally 1).
func (s *stripedCounter) Add(delta int64) {
	var probe byte
	idx := shardIndex(uintptr(unsafe.Pointer(&probe)))
	s.cells[idx].v.Add(delta)
}

// Sum returns the total across all cells. Not atomic as a whole — a
// concurrent Add may or may not be reflected — which matches the
// SlidingWindowCounter's documented staleness contract.
func (s *stripedCounter) Sum() uint64 {
	var total int64
	for i := range s.cells {
		total += s.cells[i].v.Load()
	}
	if total < 0 {
		return 0
	}
	return uint64(total)
}

func shardIndex(addr uintptr) int {
	// Fibonacci hashing spreads nearby stack addresses (common on a single
	// goroutine's call stack) across distinct cells.
	const multiplier = 0x9E3779B97F4A7C15
	h := addr * multiplier
	return int((h >> 56) & (stripeCount - 1))
}
