// Package source defines the minimal contract any input to the
// intersection engine must satisfy (PositionedIterator), the dense
// SourceID numbering convention, and a small in-memory reference
// implementation (SliceSource) used by tests and simple scripts.
//
// Concrete file-format adapters (BED, BAM, an indexed variant, ...) live
// under adapter/ and each implement PositionedIterator; this package never
// inspects their payloads.
package source

import "github.com/quinlan-lab/bedder-rs/biopb"

// SourceID is a dense identifier assigned to each input iterator at engine
// construction. By convention 0 is the query source and 1..N are database
// sources.
type SourceID uint32

// QueryID is the conventional SourceID of the query source.
const QueryID SourceID = 0

// Interval is one record read from a source: the genomic position it
// occupies, plus an opaque domain payload (a BED line, a VCF record, ...)
// that the engine and merge heap never look inside.
type Interval struct {
	Position biopb.Position
	Payload  any
}

// PositionedIterator is the capability-set every source must implement.
// Implementations are expected to be dispatched dynamically: MergeHeap
// holds a heterogeneous slice of PositionedIterators and never needs to
// know their concrete type.
type PositionedIterator interface {
	// Name returns a diagnostic label (typically a filename) used in
	// Error messages.
	Name() string

	// NextPosition returns the next Interval in the source's declared
	// total order, or (nil, nil) at EOF.
	//
	// hint, when non-nil, is the position of the query the engine is
	// about to process. It is only ever passed on a source's first call
	// relative to a new query; every subsequent call for that query
	// passes nil. An indexed source MAY seek forward to the first
	// interval with Stop > hint.Start on hint.ChromID; a streaming
	// source MUST ignore it. hint is owned by the caller and must not be
	// retained past the call.
	//
	// Implementations must never skip past an interval they have not yet
	// returned, must never return the same interval twice, and must
	// return intervals in the declared total order. Violating any of
	// these is reported by returning a *source.Error (or by the caller,
	// e.g. merge.MergeHeap, detecting the violation itself).
	NextPosition(hint *biopb.Position) (*Interval, error)
}

// SliceSource is a PositionedIterator over an in-memory, already-sorted
// slice of Intervals. It always ignores hint, exactly like a streaming
// file-backed source would. It is useful for tests, small scripts, and as
// a reference PositionedIterator implementation.
type SliceSource struct {
	name      string
	intervals []Interval
	pos       int
}

// NewSliceSource returns a SliceSource named name over intervals, which
// must already be in strictly increasing Position.Compare order (equal
// consecutive positions are rejected as OutOfOrder by merge.MergeHeap);
// NextPosition does not sort or validate its input itself.
func NewSliceSource(name string, intervals []Interval) *SliceSource {
	return &SliceSource{name: name, intervals: intervals}
}

// Name implements PositionedIterator.
func (s *SliceSource) Name() string { return s.name }

// NextPosition implements PositionedIterator. hint is ignored.
func (s *SliceSource) NextPosition(_ *biopb.Position) (*Interval, error) {
	if s.pos >= len(s.intervals) {
		return nil, nil
	}
	iv := s.intervals[s.pos]
	s.pos++
	return &iv, nil
}
