package bed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quinlan-lab/bedder-rs/chromorder"
)

func order(t *testing.T) *chromorder.ChromosomeOrder {
	t.Helper()
	co, err := chromorder.New([]string{"chr1", "chr2"})
	require.NoError(t, err)
	return co
}

func TestSourceParsesRecords(t *testing.T) {
	r := strings.NewReader("chr1\t10\t20\tfoo\nchr1\t30\t40\nchr2\t0\t5\n")
	s := New("test.bed", r, nil, order(t))

	var got []string
	for {
		iv, err := s.NextPosition(nil)
		require.NoError(t, err)
		if iv == nil {
			break
		}
		got = append(got, iv.Position.String())
	}
	assert.Equal(t, []string{"0:10-20", "0:30-40", "1:0-5"}, got)
}

func TestSourceSkipsHeaderAndBlankLines(t *testing.T) {
	r := strings.NewReader("track name=x\n# comment\n\nchr1\t1\t2\n")
	s := New("test.bed", r, nil, order(t))

	iv, err := s.NextPosition(nil)
	require.NoError(t, err)
	require.NotNil(t, iv)
	assert.Equal(t, uint64(1), iv.Position.Start)

	iv, err = s.NextPosition(nil)
	require.NoError(t, err)
	assert.Nil(t, iv)
}

func TestSourceUnknownChromosome(t *testing.T) {
	r := strings.NewReader("chrX\t1\t2\n")
	s := New("test.bed", r, nil, order(t))
	_, err := s.NextPosition(nil)
	require.Error(t, err)
}

func TestSourceTooFewColumns(t *testing.T) {
	r := strings.NewReader("chr1\t1\n")
	s := New("test.bed", r, nil, order(t))
	_, err := s.NextPosition(nil)
	require.Error(t, err)
}
