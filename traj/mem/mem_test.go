package mem

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corr "github.com/rmera/gocorr"
)

func TestTrajReadsAndRewinds(t *testing.T) {
	tr := RandomWalk(rand.New(rand.NewSource(1)), Labels(10, 4), 5, 0.1, 0.01, 3, false)
	assert.Equal(t, 3, tr.Frames())
	assert.Equal(t, 10, tr.Len())
	c := new(corr.Configuration)
	for f := 0; f < 3; f++ {
		require.NoError(t, tr.Next(c))
		assert.Equal(t, f, c.Step)
		require.NoError(t, c.Check())
		assert.Nil(t, c.Unwrapped)
		for i := 0; i < c.Len(); i++ {
			p := c.Coords.Vec(i)
			for _, x := range p {
				assert.GreaterOrEqual(t, x, 0.0)
				assert.Less(t, x, 5.0)
			}
		}
	}
	err := tr.Next(c)
	_, ok := err.(corr.LastFrameError)
	assert.True(t, ok)
	require.NoError(t, tr.Rewind())
	require.NoError(t, tr.Next(nil))
}

func TestCorruptFrame(t *testing.T) {
	tr := IdealGas(rand.New(rand.NewSource(2)), Labels(4, 2), 3, 3)
	tr.Corrupt = map[int]bool{1: true}
	c := new(corr.Configuration)
	require.NoError(t, tr.Next(c))
	err := tr.Next(c)
	var e corr.Error
	require.ErrorAs(t, err, &e)
	assert.False(t, e.Critical())
	require.NoError(t, tr.Next(c))
	assert.Equal(t, 2, c.Step)
}

func TestUnwrappedWalk(t *testing.T) {
	tr := RandomWalk(rand.New(rand.NewSource(3)), Labels(5, 5), 2, 10, 1, 4, true)
	assert.True(t, tr.Unwrapped())
	c := new(corr.Configuration)
	require.NoError(t, tr.Next(c))
	require.NotNil(t, c.Unwrapped)
	assert.Equal(t, c.Coords.Vec(2), c.Unwrapped.Vec(2))
}

func TestLattice(t *testing.T) {
	tr := Lattice(rand.New(rand.NewSource(4)), 3, 1.5, 0, 1, func(i int) string { return "A" })
	assert.Equal(t, 27, tr.Len())
	assert.Equal(t, [3]float64{4.5, 4.5, 4.5}, tr.Confs[0].Box.Sides)
	assert.Equal(t, [3]float64{0, 0, 1.5}, tr.Confs[0].Coords.Vec(1))
}
