package breaker

import "sync/atomic"

// reservoir is a lock-free, append-only FIFO of *Bucket, supporting
// concurrent Append from many writers and a single-thread traversal that
// may remove nodes as it goes (trimAndSum's walk-and-trim pass). It is a
// Michael-Scott queue specialized to this package's one consumer pattern,
// built from the same atomic-pointer-swap idiom used elsewhere in this
// package for a single field, generalized to a linked structure (see
// DESIGN.md).
type reservoir struct {
	head atomic.Pointer[reservoirNode] // sentinel; head.next is the oldest live bucket
	tail atomic.Pointer[reservoirNode]
}

type reservoirNode struct {
	bucket *Bucket
	next   atomic.Pointer[reservoirNode]
}

func newReservoir() *reservoir {
	sentinel := &reservoirNode{}
	r := &reservoir{}
	r.head.Store(sentinel)
	r.tail.Store(sentinel)
	return r
}

// Append adds a bucket to the tail. Safe for any number of concurrent
// callers.
func (r *reservoir) Append(b *Bucket) {
	node := &reservoirNode{bucket: b}
	for {
		tail := r.tail.Load()
		next := tail.next.Load()
		if next != nil {
			// Tail pointer is lagging behind a node another writer already
			// linked in; help advance it and retry.
			r.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, node) {
			// Linked in; best-effort advance of the tail pointer (a writer
			// that loses this race will simply help on its next Append).
			r.tail.CompareAndSwap(tail, node)
			return
		}
	}
}

// peekOldest returns the oldest live bucket without removing it, or
// (nil, false) if empty.
func (r *reservoir) peekOldest() (*Bucket, bool) {
	next := r.head.Load().next.Load()
	if next == nil {
		return nil, false
	}
	return next.bucket, true
}

// removeOldest detaches the current head node (the oldest bucket) and
// returns it, or (nil, false) if the reservoir is empty at this instant.
// Safe for concurrent callers: two overlapping bucket rotations can each
// enter trimAndSum at the same time, so the head advance is a CAS loop
// rather than a plain store — a losing caller simply re-reads the new
// head and retries.
func (r *reservoir) removeOldest() (*Bucket, bool) {
	for {
		head := r.head.Load()
		next := head.next.Load()
		if next == nil {
			return nil, false
		}
		if r.head.CompareAndSwap(head, next) {
			return next.bucket, true
		}
	}
}

// forEachLive calls fn for every bucket currently linked, oldest first.
// Concurrent Append during this walk is permitted: nodes appended after
// the walk starts may or may not be observed — just-appended buckets
// need not be summed this pass; they are picked up on the next one.
func (r *reservoir) forEachLive(fn func(*Bucket)) {
	node := r.head.Load().next.Load()
	for node != nil {
		fn(node.bucket)
		node = node.next.Load()
	}
}
