// Package merge implements the min-heap that turns N independently-sorted
// PositionedIterators into a single globally-ordered stream, keyed by
// (chrom_id, start, stop, source_id) with source_id as a deterministic
// tiebreak. Since source 0 is always the query by convention, the
// ascending source_id tiebreak is exactly the "query-first" policy
// spec.md asks for: at an identical position, the query sorts before
// every database source.
package merge

import (
	"container/heap"

	"github.com/quinlan-lab/bedder-rs/biopb"
	"github.com/quinlan-lab/bedder-rs/source"
)

// entry is one occupied heap slot: the pre-pulled head of one source, plus
// enough identity to route a refill back to it.
type entry struct {
	src      source.SourceID
	interval *source.Interval
}

// entryHeap implements container/heap.Interface over entries, ordered by
// (ChromID, Start, Stop, src).
type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	c := h[i].interval.Position.Compare(h[j].interval.Position)
	if c != 0 {
		return c < 0
	}
	return h[i].src < h[j].src
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// MergeHeap merges the output of N PositionedIterators into one
// total-order-sorted stream. It owns the sources exclusively and calls
// into them serially; it is not safe for concurrent use.
type MergeHeap struct {
	sources []source.PositionedIterator
	h       entryHeap
	// last records the previous position returned for each source, to
	// detect ordering violations on refill.
	last []*biopb.Position
	// eof marks sources that have already reported EOF, so Seed (called at
	// most once) and refills never call them again.
	eof []bool
}

// New constructs a MergeHeap over sources, numbered as SourceID(i) for
// sources[i]. By convention sources[0] is the query source.
func New(sources []source.PositionedIterator) *MergeHeap {
	return &MergeHeap{
		sources: sources,
		h:       make(entryHeap, 0, len(sources)),
		last:    make([]*biopb.Position, len(sources)),
		eof:     make([]bool, len(sources)),
	}
}

// pull reads the next interval from sources[src], validating that it sorts
// strictly after the last interval that source returned.
func (m *MergeHeap) pull(src source.SourceID, hint *biopb.Position) (*source.Interval, error) {
	iv, err := m.sources[src].NextPosition(hint)
	if err != nil {
		if _, ok := err.(*source.Error); ok {
			return nil, err
		}
		return nil, source.IOError(m.sources[src].Name(), err)
	}
	if iv == nil {
		m.eof[src] = true
		return nil, nil
	}
	if prev := m.last[src]; prev != nil && !prev.LT(iv.Position) {
		return nil, source.OutOfOrderError(m.sources[src].Name(), *prev, iv.Position)
	}
	pos := iv.Position
	m.last[src] = &pos
	return iv, nil
}

// Seed pulls one interval from every source and pushes it onto the heap.
// It must be called exactly once, before the first PopMin.
func (m *MergeHeap) Seed() error {
	for i := range m.sources {
		src := source.SourceID(i)
		iv, err := m.pull(src, nil)
		if err != nil {
			return err
		}
		if iv != nil {
			heap.Push(&m.h, entry{src: src, interval: iv})
		}
	}
	return nil
}

// Len returns the number of sources with a live (not-yet-EOF) head
// currently sitting in the heap.
func (m *MergeHeap) Len() int { return m.h.Len() }

// PopMin removes and returns the globally-smallest heap entry, then
// refills that source's slot by pulling its next interval (passing hint)
// and pushing it back if the source is not yet at EOF. When the heap is
// empty, PopMin returns (0, nil, nil).
//
// hint is forwarded to the refilling source's NextPosition call; it has no
// effect on which slot is popped. Per spec.md's skip-hint policy, the
// caller (intersect.Engine) only supplies a non-nil hint when it has
// decided the upcoming pull is eligible for a seek.
func (m *MergeHeap) PopMin(hint *biopb.Position) (source.SourceID, *source.Interval, error) {
	if m.h.Len() == 0 {
		return 0, nil, nil
	}
	min := heap.Pop(&m.h).(entry)
	next, err := m.pull(min.src, hint)
	if err != nil {
		return 0, nil, err
	}
	if next != nil {
		heap.Push(&m.h, entry{src: min.src, interval: next})
	}
	return min.src, min.interval, nil
}

// PeekMin returns the current minimum entry's position and source without
// removing it, and false if the heap is empty. Useful for deciding whether
// the upcoming PopMin is eligible for a skip hint, and for FillOverlaps'
// "is the heap minimum still below the query's end marker" check, without
// forcing a pop-then-somehow-undo.
func (m *MergeHeap) PeekMin() (biopb.Position, source.SourceID, bool) {
	if m.h.Len() == 0 {
		return biopb.Position{}, 0, false
	}
	return m.h[0].interval.Position, m.h[0].src, true
}
