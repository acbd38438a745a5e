package chromorder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	co, err := New([]string{"chr1", "chr2", "chrX"})
	require.NoError(t, err)
	assert.Equal(t, 3, co.Len())

	id, ok := co.ID("chr2")
	require.True(t, ok)
	assert.Equal(t, uint32(1), id)
	assert.Equal(t, "chr2", co.Name(1))

	_, ok = co.ID("chrY")
	assert.False(t, ok)
}

func TestNewDuplicate(t *testing.T) {
	_, err := New([]string{"chr1", "chr1"})
	assert.Error(t, err)
}

func TestFromFAI(t *testing.T) {
	const fai = "chr1\t248956422\t0\t60\t61\n" +
		"chr2\t242193529\t249250622\t60\t61\n" +
		"chrM\t16569\t1000000\t60\t61\n"
	co, err := FromFAI(strings.NewReader(fai))
	require.NoError(t, err)
	require.Equal(t, 3, co.Len())
	id, ok := co.ID("chrM")
	require.True(t, ok)
	assert.Equal(t, uint32(2), id)
}

func TestFromFAIMalformed(t *testing.T) {
	_, err := FromFAI(strings.NewReader("not-a-fai-line\n"))
	assert.Error(t, err)
}
