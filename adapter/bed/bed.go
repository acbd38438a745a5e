// Package bed adapts a 3+-column BED file (plain or gzip-compressed) into a
// source.PositionedIterator. It never seeks: NextPosition's hint is always
// ignored, since a line-oriented scanner has no way to skip ahead without
// reading every intervening line anyway. Package tabixkv is the adapter to
// reach for when skip hints should translate into a real seek.
package bed

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"

	"github.com/quinlan-lab/bedder-rs/biopb"
	"github.com/quinlan-lab/bedder-rs/chromorder"
	"github.com/quinlan-lab/bedder-rs/source"
)

// Source streams BED records in file order as source.Intervals. The chrom
// column is resolved to a dense ChromID through a chromorder.ChromosomeOrder
// shared with every other source in the merge, so database records,
// queries, and the engine's Position comparisons all agree on chromosome
// order regardless of each file's own header order.
type Source struct {
	name    string
	order   *chromorder.ChromosomeOrder
	scanner *bufio.Scanner
	closer  io.Closer
	lineNo  int
}

// Open opens path (optionally gzip-compressed, detected from its extension)
// and returns a Source reading BED records from it, resolving chrom names
// against order.
func Open(path string, order *chromorder.ChromosomeOrder) (*Source, error) {
	ctx := vcontext.Background()
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, source.IOError(path, err)
	}
	var r io.Reader = f.Reader(ctx)
	var closer io.Closer = fileCloser{f: f}
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			closer.Close()
			return nil, source.ParseError(path, err)
		}
		r = gz
	}
	return New(path, r, closer, order), nil
}

// New wraps an already-open reader. closer may be nil if the caller owns
// the reader's lifetime itself.
func New(name string, r io.Reader, closer io.Closer, order *chromorder.ChromosomeOrder) *Source {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	return &Source{name: name, order: order, scanner: sc, closer: closer}
}

func (s *Source) Name() string { return s.name }

// Close releases the underlying file, if Open opened one.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// NextPosition reads and parses the next non-blank, non-header BED line.
// hint is ignored: see the package doc.
func (s *Source) NextPosition(_ *biopb.Position) (*source.Interval, error) {
	for s.scanner.Scan() {
		s.lineNo++
		line := s.scanner.Text()
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, source.ParseError(s.name, errLineTooShort(s.lineNo))
		}
		id, ok := s.order.ID(fields[0])
		if !ok {
			return nil, source.UnknownChromosomeError(s.name, fields[0])
		}
		start, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, source.ParseError(s.name, err)
		}
		stop, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return nil, source.ParseError(s.name, err)
		}
		payload := ""
		if len(fields) > 3 {
			payload = fields[3]
		}
		return &source.Interval{
			Position: biopb.Position{ChromID: id, Start: start, Stop: stop},
			Payload:  payload,
		}, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, source.IOError(s.name, err)
	}
	return nil, nil
}

type fileCloser struct {
	f file.File
}

func (c fileCloser) Close() error {
	return c.f.Close(vcontext.Background())
}

type errLineTooShort int

func (e errLineTooShort) Error() string {
	return "line " + strconv.Itoa(int(e)) + " has fewer than 3 BED columns"
}
