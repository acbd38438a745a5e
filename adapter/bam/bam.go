// Package bam adapts a coordinate-sorted BAM file's primary alignments into
// a source.PositionedIterator. Unmapped, secondary, and supplementary
// records are skipped, matching the filtering pair_iterator.go applies
// before treating a record as a placeable genomic interval.
package bam

import (
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"

	"github.com/quinlan-lab/bedder-rs/biopb"
	"github.com/quinlan-lab/bedder-rs/chromorder"
	"github.com/quinlan-lab/bedder-rs/source"
)

// Source streams primary, mapped alignments from a BAM file in file order
// (which for a coordinate-sorted BAM is also position order). hint is
// ignored: NextPosition always reads the next qualifying record, since a
// plain bam.Reader has no index-based seek without a companion .bai and an
// explicit region, which this adapter does not attempt (see adapter/tabixkv
// for the seekable case).
type Source struct {
	name   string
	order  *chromorder.ChromosomeOrder
	reader *bam.Reader
	closer io.Closer
}

// Open opens a BAM file at path and returns a Source over its primary
// alignments. order must assign an id to every reference name the BAM
// header declares.
func Open(path string, order *chromorder.ChromosomeOrder) (*Source, error) {
	ctx := vcontext.Background()
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, source.IOError(path, err)
	}
	r, err := bam.NewReader(f.Reader(ctx), 1)
	if err != nil {
		f.Close(ctx) // nolint:errcheck
		return nil, source.ParseError(path, err)
	}
	return &Source{name: path, order: order, reader: r, closer: fileCloser{f: f}}, nil
}

// NewFromReader wraps an already-open BAM stream, for callers (including
// tests) that already have an io.Reader rather than a path.
func NewFromReader(name string, r io.Reader, order *chromorder.ChromosomeOrder) (*Source, error) {
	br, err := bam.NewReader(r, 1)
	if err != nil {
		return nil, source.ParseError(name, err)
	}
	return &Source{name: name, order: order, reader: br}, nil
}

func (s *Source) Name() string { return s.name }

// Close releases the underlying BAM reader and file.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// NextPosition reads forward until the next primary, mapped alignment and
// returns it as an Interval spanning its reference span [Pos, End()).
func (s *Source) NextPosition(_ *biopb.Position) (*source.Interval, error) {
	for {
		rec, err := s.reader.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, source.IOError(s.name, err)
		}
		if rec.Flags&sam.Unmapped != 0 || rec.Flags&sam.Secondary != 0 || rec.Flags&sam.Supplementary != 0 {
			continue
		}
		if rec.Ref == nil {
			continue
		}
		id, ok := s.order.ID(rec.Ref.Name())
		if !ok {
			return nil, source.UnknownChromosomeError(s.name, rec.Ref.Name())
		}
		return &source.Interval{
			Position: biopb.Position{ChromID: id, Start: uint64(rec.Pos), Stop: uint64(rec.End())},
			Payload:  rec,
		}, nil
	}
}

type fileCloser struct {
	f file.File
}

func (c fileCloser) Close() error {
	return c.f.Close(vcontext.Background())
}
