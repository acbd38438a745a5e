package source

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/quinlan-lab/bedder-rs/biopb"
)

// Kind classifies why a source (or the merge/intersect machinery reading
// from it) failed. Every Kind is fatal to the engine: correctness of every
// subsequent Intersections depends on every source staying monotone, so
// there is no partial-recovery strategy.
type Kind int

const (
	// Unknown is the zero value; it should never appear on a returned Error.
	Unknown Kind = iota
	// OutOfOrder means a source returned a position that does not sort
	// strictly after the position it returned last.
	OutOfOrder
	// UnknownChromosome means a source returned a chromosome name absent
	// from the chromorder.ChromosomeOrder all sources were built against.
	UnknownChromosome
	// SourceIO means an underlying read failed (file I/O, network, etc).
	SourceIO
	// SourceParse means a record could not be decoded into an Interval.
	SourceParse
)

func (k Kind) String() string {
	switch k {
	case OutOfOrder:
		return "OutOfOrder"
	case UnknownChromosome:
		return "UnknownChromosome"
	case SourceIO:
		return "SourceIO"
	case SourceParse:
		return "SourceParse"
	default:
		return "Unknown"
	}
}

// Error is the typed, fatal error surfaced by any PositionedIterator, or by
// merge.MergeHeap while validating one. It always names the offending
// source so a caller reading a multi-source error doesn't have to guess
// which input broke.
type Error struct {
	Kind       Kind
	SourceName string
	// Prev and Curr are the previous and current positions involved in an
	// OutOfOrder violation. Both are nil for other Kinds.
	Prev, Curr *biopb.Position
	// Chrom is the offending chromosome name for an UnknownChromosome error.
	Chrom string
	// Err is the underlying cause, if any (I/O error, parse error, ...).
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case OutOfOrder:
		return fmt.Sprintf("bedder: source %q returned out-of-order position %v after %v",
			e.SourceName, e.Curr, e.Prev)
	case UnknownChromosome:
		return fmt.Sprintf("bedder: source %q referenced unknown chromosome %q",
			e.SourceName, e.Chrom)
	case SourceIO:
		return errors.E(e.Err, fmt.Sprintf("bedder: source %q: I/O error", e.SourceName)).Error()
	case SourceParse:
		return errors.E(e.Err, fmt.Sprintf("bedder: source %q: parse error", e.SourceName)).Error()
	default:
		return errors.E(e.Err, fmt.Sprintf("bedder: source %q: error", e.SourceName)).Error()
	}
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// OutOfOrderError constructs an OutOfOrder Error.
func OutOfOrderError(sourceName string, prev, curr biopb.Position) *Error {
	return &Error{Kind: OutOfOrder, SourceName: sourceName, Prev: &prev, Curr: &curr}
}

// UnknownChromosomeError constructs an UnknownChromosome Error.
func UnknownChromosomeError(sourceName, chrom string) *Error {
	return &Error{Kind: UnknownChromosome, SourceName: sourceName, Chrom: chrom}
}

// IOError wraps an I/O failure from sourceName.
func IOError(sourceName string, err error) *Error {
	return &Error{Kind: SourceIO, SourceName: sourceName, Err: err}
}

// ParseError wraps a decoding failure from sourceName.
func ParseError(sourceName string, err error) *Error {
	return &Error{Kind: SourceParse, SourceName: sourceName, Err: err}
}
