package tabixkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quinlan-lab/bedder-rs/biopb"
)

func TestKeyRoundTrip(t *testing.T) {
	pos := biopb.Position{ChromID: 3, Start: 1000, Stop: 2000}
	key := MarshalKey(pos, 7)
	assert.Equal(t, pos, UnmarshalKey(key))
}

func TestKeyOrderingMatchesPositionCompare(t *testing.T) {
	a := MarshalKey(biopb.Position{ChromID: 0, Start: 10, Stop: 20}, 0)
	b := MarshalKey(biopb.Position{ChromID: 0, Start: 10, Stop: 30}, 0)
	c := MarshalKey(biopb.Position{ChromID: 1, Start: 0, Stop: 1}, 0)
	assert.Negative(t, Compare(a, b))
	assert.Negative(t, Compare(b, c))
	assert.Positive(t, Compare(c, a))
}

func TestSourceIteratesInOrder(t *testing.T) {
	positions := []biopb.Position{
		{ChromID: 0, Start: 10, Stop: 20},
		{ChromID: 0, Start: 30, Stop: 40},
		{ChromID: 1, Start: 0, Stop: 5},
	}
	payloads := []any{"a", "b", "c"}
	s, err := Build("db", positions, payloads)
	require.NoError(t, err)
	defer s.Close()

	var got []biopb.Position
	var names []any
	for {
		iv, err := s.NextPosition(nil)
		require.NoError(t, err)
		if iv == nil {
			break
		}
		got = append(got, iv.Position)
		names = append(names, iv.Payload)
	}
	assert.Equal(t, positions, got)
	assert.Equal(t, payloads, names)
}

func TestSourceHintSeeksAhead(t *testing.T) {
	positions := []biopb.Position{
		{ChromID: 0, Start: 10, Stop: 20},
		{ChromID: 0, Start: 30, Stop: 40},
		{ChromID: 0, Start: 50, Stop: 60},
	}
	s, err := Build("db", positions, nil)
	require.NoError(t, err)
	defer s.Close()

	// hint sits between key0's end (20) and key1's start (30), so no stored
	// interval straddles it: the Start-only seek approximation is exact here.
	hint := biopb.Position{ChromID: 0, Start: 25, Stop: 25}
	iv, err := s.NextPosition(&hint)
	require.NoError(t, err)
	require.NotNil(t, iv)
	assert.Equal(t, positions[1], iv.Position)

	iv, err = s.NextPosition(nil)
	require.NoError(t, err)
	require.NotNil(t, iv)
	assert.Equal(t, positions[2], iv.Position)
}

func TestSourceEmptyStoreReturnsEOF(t *testing.T) {
	s, err := Build("db", nil, nil)
	require.NoError(t, err)
	defer s.Close()

	iv, err := s.NextPosition(nil)
	require.NoError(t, err)
	assert.Nil(t, iv)
}
