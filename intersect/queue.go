package intersect

import "github.com/quinlan-lab/bedder-rs/source"

// fifo is a per-source queue of live database intervals: ones pulled from
// the heap whose Stop is still greater than the current query's Start,
// i.e. candidates to overlap the current or a future query. It is kept in
// non-decreasing order by construction, since intervals are only ever
// appended in the order MergeHeap.PopMin returns them for a given source.
type fifo struct {
	items []*source.Interval
	head  int
}

// push appends iv to the back of the queue.
func (q *fifo) push(iv *source.Interval) {
	q.items = append(q.items, iv)
}

// front returns the first live item, or nil if the queue is empty.
func (q *fifo) front() *source.Interval {
	if q.head >= len(q.items) {
		return nil
	}
	return q.items[q.head]
}

// popFront discards the first live item. It is only called after front()
// confirmed one exists.
func (q *fifo) popFront() {
	q.items[q.head] = nil // let the GC reclaim it once no Intersections holds it
	q.head++
	q.maybeCompact()
}

// maybeCompact reclaims the backing array once at least 64 items and at
// least half of it are dead space, so a long-running queue doesn't grow
// unboundedly.
func (q *fifo) maybeCompact() {
	if q.head < 64 || q.head*2 < len(q.items) {
		return
	}
	n := copy(q.items, q.items[q.head:])
	q.items = q.items[:n]
	q.head = 0
}

// empty reports whether the queue currently holds no live items.
func (q *fifo) empty() bool {
	return q.head >= len(q.items)
}

// live returns the queue's current live items, in order. The returned
// slice aliases the queue's backing array and must not be retained past
// the next push/popFront.
func (q *fifo) live() []*source.Interval {
	return q.items[q.head:]
}
