// Package chromorder builds the total order over chromosome names that the
// rest of this module assumes: a dense, zero-based ChromID per contig,
// shared by every PositionedIterator feeding a single intersect.Engine.
//
// This package never guesses at ordering or resolves aliases (e.g. "chr1"
// vs "1"); it only records whatever order its caller, or a .fai index,
// declares.
package chromorder

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
)

// ChromosomeOrder is a read-only name -> ChromID mapping, constructed once
// before an intersect.Engine runs. All PositionedIterators feeding the same
// engine must agree on one ChromosomeOrder.
type ChromosomeOrder struct {
	names []string
	ids   map[string]uint32
}

// New builds a ChromosomeOrder that assigns ids in the order names appear.
// A duplicate name is an error: the order must be a bijection.
func New(names []string) (*ChromosomeOrder, error) {
	co := &ChromosomeOrder{
		names: make([]string, 0, len(names)),
		ids:   make(map[string]uint32, len(names)),
	}
	for _, name := range names {
		if _, ok := co.ids[name]; ok {
			return nil, errors.E("chromorder: duplicate chromosome name", name)
		}
		co.ids[name] = uint32(len(co.names))
		co.names = append(co.names, name)
	}
	return co, nil
}

// FromFAI builds a ChromosomeOrder from a samtools-style .fai index: one
// line per contig, tab-separated, contig name in the first column. Lines
// are consumed in file order, which is exactly the order IDs are assigned
// in, mirroring how samtools faidx itself numbers references.
func FromFAI(r io.Reader) (*ChromosomeOrder, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab <= 0 {
			return nil, errors.E("chromorder: malformed .fai line", strconv.Itoa(lineNo))
		}
		names = append(names, line[:tab])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "chromorder: reading .fai")
	}
	return New(names)
}

// FromFAIPath opens path (local or any github.com/grailbio/base/file
// scheme, e.g. s3://) and builds a ChromosomeOrder from its .fai contents.
func FromFAIPath(path string) (*ChromosomeOrder, error) {
	ctx := vcontext.Background()
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "chromorder: opening .fai", path)
	}
	defer f.Close(ctx) // nolint:errcheck
	return FromFAI(f.Reader(ctx))
}

// ID returns the ChromID assigned to name, and whether name is known.
func (co *ChromosomeOrder) ID(name string) (uint32, bool) {
	id, ok := co.ids[name]
	return id, ok
}

// Name returns the chromosome name assigned to id. It panics if id is out
// of range, since a valid id can only have come from this same
// ChromosomeOrder.
func (co *ChromosomeOrder) Name(id uint32) string {
	return co.names[id]
}

// Len returns the number of distinct chromosomes in the order.
func (co *ChromosomeOrder) Len() int {
	return len(co.names)
}

// Names returns the chromosome names in ID order. The returned slice must
// not be modified.
func (co *ChromosomeOrder) Names() []string {
	return co.names
}
