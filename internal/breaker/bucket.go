package breaker

// Bucket is a mutable aggregate over a sub-interval of the sliding
// window: a creation timestamp (immutable) plus independently-updatable
// success/failure counters safe under high-contention concurrent
// increment. SlidingWindowCounter is the only constructor of Bucket
// values.
type Bucket struct {
	timestamp int64 // ms, immutable after construction
	success   stripedCounter
	failure   stripedCounter
}

func newBucket(timestampMillis int64) *Bucket {
	return &Bucket{timestamp: timestampMillis}
}

func (b *Bucket) recordSuccess() {
	b.success.Add(1)
}

func (b *Bucket) recordFailure() {
	b.failure.Add(1)
}

// counts returns the bucket's current (success, failure) totals.
func (b *Bucket) counts() (success, failure uint64) {
	return b.success.Sum(), b.failure.Sum()
}
