package corr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKey(t *testing.T) {
	assert.Equal(t, Pair("B", "A"), Pair("A", "B"))
	assert.Equal(t, "A-B", Pair("B", "A").String())
	assert.Equal(t, "total", TotalKey.String())
	assert.True(t, Self("A").Like())
	assert.False(t, Pair("A", "B").Like())
	assert.True(t, TotalKey.Less(Pair("A", "A")))
	assert.Equal(t, []PairKey{Pair("A", "A"), Pair("A", "B"), Pair("B", "B")}, AllPairs([]string{"A", "B"}))
}

func TestConfigurationCloneAndCounts(t *testing.T) {
	c := NewConfiguration(3)
	c.Species[2] = "B"
	c.Box = Box{Sides: [3]float64{1, 1, 1}}
	c.Coords.SetVec(1, [3]float64{0.1, 0.2, 0.3})
	require.NoError(t, c.Check())

	assert.Equal(t, map[string]int{"A": 2, "B": 1}, c.SpeciesCounts())
	assert.Equal(t, []string{"A", "B"}, c.SpeciesList())

	d := c.Clone()
	c.Coords.SetVec(1, [3]float64{9, 9, 9})
	c.Species[0] = "C"
	assert.Equal(t, [3]float64{0.1, 0.2, 0.3}, d.Coords.Vec(1))
	assert.Equal(t, "A", d.Species[0])
	assert.Nil(t, d.Positions(true))
}

func TestConfigurationCheck(t *testing.T) {
	c := NewConfiguration(2)
	c.Box = Box{Sides: [3]float64{1, 1, 1}}
	c.Species = c.Species[:1]
	assert.Error(t, c.Check())
	c.Species = []string{"A", "A"}
	c.Box = Box{}
	assert.Error(t, c.Check())
}
