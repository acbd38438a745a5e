// Package intersect drives the min-heap produced by package merge through
// the five-phase per-query state machine described by the design:
// PullQuery, DrainPast, FillOverlaps, Emit, Advance. It is the ~60% of the
// core that owns the shared-ownership discipline for database intervals
// (plain Go pointer sharing backed by the garbage collector — see the
// "Shared ownership without cycles" note in DESIGN.md) and produces one
// Intersections per query interval.
package intersect

import (
	"sort"

	"github.com/quinlan-lab/bedder-rs/biopb"
	"github.com/quinlan-lab/bedder-rs/merge"
	"github.com/quinlan-lab/bedder-rs/source"
)

// OverlapEntry is one database interval overlapping a query, tagged with
// the source it came from.
type OverlapEntry struct {
	Interval *source.Interval
	Source   source.SourceID
}

// Intersections is emitted once per query interval: the query itself
// (always from source 0) and every live database interval overlapping it,
// sorted by (ChromID, Start, Stop, Source) with no duplicates.
type Intersections struct {
	Base        *source.Interval
	Overlapping []OverlapEntry
}

// Recorder receives engine-internal counters as the stream progresses. It
// is optional instrumentation; a nil Recorder disables it entirely. See
// package metrics for a Prometheus-backed implementation.
type Recorder interface {
	QueryProcessed()
	OverlapsEmitted(n int)
	QueueDepth(src source.SourceID, depth int)
}

// Engine streams Intersections out of one query source and N database
// sources. It is single-threaded and cooperative: Next blocks exactly
// where the underlying sources block, and nothing inside Engine is safe
// for concurrent use. Two Engines over disjoint inputs may run in
// separate goroutines without interacting.
type Engine struct {
	heap     *merge.MergeHeap
	nSources int // number of database sources, i.e. max valid SourceID
	queues   []fifo
	// nextQuery holds a query interval read one step ahead of the one
	// currently being processed, per spec.md's single-slot lookahead.
	nextQuery *source.Interval
	recorder  Recorder

	// queueEmptyAtStart and seenThisRound are scratch state for the
	// skip-hint policy, reset at the start of every query's FillOverlaps.
	queueEmptyAtStart []bool
	seenThisRound     []bool

	seeded bool
	done   bool
}

// New constructs an Engine over sources, where sources[0] is the query and
// sources[1:] are databases. It does not pull any data until the first
// call to Next.
func New(sources []source.PositionedIterator) *Engine {
	n := len(sources) - 1
	if n < 0 {
		n = 0
	}
	return &Engine{
		heap:              merge.New(sources),
		nSources:          n,
		queues:            make([]fifo, n+1), // index 0 unused; queues[s] for s in 1..n
		queueEmptyAtStart: make([]bool, n+1),
		seenThisRound:     make([]bool, n+1),
	}
}

// SetRecorder attaches instrumentation. It must be called before the first
// Next, since Engine is not safe for concurrent use.
func (e *Engine) SetRecorder(r Recorder) { e.recorder = r }

// Next returns the Intersections for the next query interval, or (nil,
// nil) once the query source (and every database interval still capable
// of being queried) is exhausted.
func (e *Engine) Next() (*Intersections, error) {
	if e.done {
		return nil, nil
	}
	if !e.seeded {
		if err := e.seed(); err != nil {
			return nil, err
		}
	}

	q, err := e.pullQuery()
	if err != nil {
		return nil, err
	}
	if q == nil {
		e.done = true
		return nil, nil
	}

	e.drainPast(q.Position)
	e.snapshotQueueState()
	if err := e.fillOverlaps(q.Position); err != nil {
		return nil, err
	}
	result := e.emit(q)
	if e.recorder != nil {
		e.recorder.QueryProcessed()
		e.recorder.OverlapsEmitted(len(result.Overlapping))
		for s := 1; s <= e.nSources; s++ {
			e.recorder.QueueDepth(source.SourceID(s), len(e.queues[s].live()))
		}
	}
	return result, nil
}

// seed runs MergeHeap.Seed exactly once. It is kept separate from Engine's
// own zero-value state since a legitimately all-empty set of sources also
// leaves the heap at length zero after seeding.
func (e *Engine) seed() error {
	if err := e.heap.Seed(); err != nil {
		return err
	}
	e.seeded = true
	return nil
}

// pullQuery implements phase 1: pop intervals until one from the query
// source appears. Database intervals encountered along the way are kept
// (queued) if they are not strictly before the query about to be found,
// and dropped otherwise.
func (e *Engine) pullQuery() (*source.Interval, error) {
	if e.nextQuery != nil {
		q := e.nextQuery
		e.nextQuery = nil
		return q, nil
	}

	type pending struct {
		src source.SourceID
		iv  *source.Interval
	}
	var buffered []pending

	for {
		src, iv, err := e.heap.PopMin(nil)
		if err != nil {
			return nil, err
		}
		if iv == nil {
			return nil, nil
		}
		if src == source.QueryID {
			for _, p := range buffered {
				if !p.iv.Position.StrictlyBefore(iv.Position) {
					e.queues[p.src].push(p.iv)
				}
			}
			return iv, nil
		}
		buffered = append(buffered, pending{src: src, iv: iv})
	}
}

// drainPast implements phase 2: drop every queue's leading run of
// intervals strictly before q.
func (e *Engine) drainPast(q biopb.Position) {
	for s := 1; s <= e.nSources; s++ {
		queue := &e.queues[s]
		for {
			front := queue.front()
			if front == nil || !front.Position.StrictlyBefore(q) {
				break
			}
			queue.popFront()
		}
	}
}

// snapshotQueueState records, for each database source, whether its queue
// was empty right after DrainPast — i.e. at query advancement — which is
// the trigger condition for offering that source a skip hint in
// fillOverlaps.
func (e *Engine) snapshotQueueState() {
	for s := 1; s <= e.nSources; s++ {
		e.queueEmptyAtStart[s] = e.queues[s].empty()
		e.seenThisRound[s] = false
	}
}

// belowEndMarker reports whether m sorts before the conceptual marker
// (q.ChromID, q.Stop, +inf): m is on an earlier chromosome, or on the same
// chromosome with m.Start < q.Stop.
func belowEndMarker(m, q biopb.Position) bool {
	if m.ChromID != q.ChromID {
		return m.ChromID < q.ChromID
	}
	return m.Start < q.Stop
}

// fillOverlaps implements phase 3: keep pulling from the heap while its
// minimum could still belong to the current query's live window. Database
// intervals are queued; at most one query-source interval is stashed in
// nextQuery, and finding a second one stops the phase early (we have read
// one past the current query).
func (e *Engine) fillOverlaps(q biopb.Position) error {
	for {
		pos, src, ok := e.heap.PeekMin()
		if !ok || !belowEndMarker(pos, q) {
			return nil
		}
		if src == source.QueryID {
			if e.nextQuery != nil {
				return nil
			}
			_, iv, err := e.heap.PopMin(nil)
			if err != nil {
				return err
			}
			e.nextQuery = iv
			continue
		}

		var hint *biopb.Position
		if !e.seenThisRound[src] && e.queueEmptyAtStart[src] {
			hint = &q
		}
		e.seenThisRound[src] = true

		_, iv, err := e.heap.PopMin(hint)
		if err != nil {
			return err
		}
		e.queues[src].push(iv)
	}
}

// emit implements phase 4: collect every live queue entry overlapping q,
// in (ChromID, Start, Stop, Source) order. Each per-source queue is
// already sorted; this merges across sources by stable-sorting the small
// set of matches a query actually has, which is simpler than a manual
// k-way merge and no worse asymptotically since it scales with per-query
// overlap count rather than input size.
func (e *Engine) emit(q *source.Interval) *Intersections {
	var overlapping []OverlapEntry
	for s := 1; s <= e.nSources; s++ {
		for _, iv := range e.queues[s].live() {
			if iv.Position.Overlaps(q.Position) {
				overlapping = append(overlapping, OverlapEntry{Interval: iv, Source: source.SourceID(s)})
			}
		}
	}
	sort.SliceStable(overlapping, func(i, j int) bool {
		c := overlapping[i].Interval.Position.Compare(overlapping[j].Interval.Position)
		if c != 0 {
			return c < 0
		}
		return overlapping[i].Source < overlapping[j].Source
	})
	return &Intersections{Base: q, Overlapping: overlapping}
}
