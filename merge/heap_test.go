package merge

import (
	"testing"

	"github.com/quinlan-lab/bedder-rs/biopb"
	"github.com/quinlan-lab/bedder-rs/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iv(chrom uint32, start, stop uint64, payload string) source.Interval {
	return source.Interval{Position: biopb.Position{ChromID: chrom, Start: start, Stop: stop}, Payload: payload}
}

func TestMergeHeapOrdering(t *testing.T) {
	a := source.NewSliceSource("query", []source.Interval{iv(0, 2, 23, "q1")})
	b1 := source.NewSliceSource("db1", []source.Interval{
		iv(0, 8, 12, "b1-1"), iv(0, 14, 15, "b1-2"),
	})
	b2 := source.NewSliceSource("db2", []source.Interval{iv(0, 8, 12, "b2-1")})

	mh := New([]source.PositionedIterator{a, b1, b2})
	require.NoError(t, mh.Seed())

	var order []string
	for {
		src, got, err := mh.PopMin(nil)
		require.NoError(t, err)
		if got == nil {
			break
		}
		order = append(order, got.Payload.(string))
		_ = src
	}
	// q1 at (0,2,23) sorts first; then the two intervals tied at (0,8,12) —
	// db1 (source 1) before db2 (source 2); then db1's (0,14,15).
	assert.Equal(t, []string{"q1", "b1-1", "b2-1", "b1-2"}, order)
}

func TestMergeHeapQueryFirstTiebreak(t *testing.T) {
	q := source.NewSliceSource("query", []source.Interval{iv(0, 5, 10, "q")})
	db := source.NewSliceSource("db", []source.Interval{iv(0, 5, 10, "d")})
	mh := New([]source.PositionedIterator{q, db})
	require.NoError(t, mh.Seed())

	src, got, err := mh.PopMin(nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, source.SourceID(0), src)
	assert.Equal(t, "q", got.Payload)
}

func TestMergeHeapOutOfOrder(t *testing.T) {
	q := source.NewSliceSource("query", nil)
	db := source.NewSliceSource("db", []source.Interval{
		iv(0, 10, 20, "first"),
		iv(0, 5, 8, "second"),
	})
	mh := New([]source.PositionedIterator{q, db})
	require.NoError(t, mh.Seed())

	// Seed only pulled "first". Popping it immediately refills from the
	// same source, which is where "second" is discovered to violate
	// ordering — so the very first PopMin call surfaces the error, even
	// though the popped entry itself ("first") was valid.
	_, _, err := mh.PopMin(nil)
	require.Error(t, err)
	serr, ok := err.(*source.Error)
	require.True(t, ok)
	assert.Equal(t, source.OutOfOrder, serr.Kind)
	assert.Equal(t, "db", serr.SourceName)
}

func TestMergeHeapEOFShrinksHeap(t *testing.T) {
	q := source.NewSliceSource("query", []source.Interval{iv(0, 0, 1, "q")})
	db := source.NewSliceSource("db", nil)
	mh := New([]source.PositionedIterator{q, db})
	require.NoError(t, mh.Seed())
	assert.Equal(t, 1, mh.Len())

	_, got, err := mh.PopMin(nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0, mh.Len())

	_, got, err = mh.PopMin(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMergeHeapPeekMin(t *testing.T) {
	q := source.NewSliceSource("query", []source.Interval{iv(0, 2, 23, "q")})
	db := source.NewSliceSource("db", []source.Interval{iv(0, 8, 12, "d")})
	mh := New([]source.PositionedIterator{q, db})
	require.NoError(t, mh.Seed())

	pos, src, ok := mh.PeekMin()
	require.True(t, ok)
	assert.Equal(t, source.SourceID(0), src)
	assert.Equal(t, uint64(2), pos.Start)
}
