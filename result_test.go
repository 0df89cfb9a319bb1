package corr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultFileName(t *testing.T) {
	R := NewResult("gr", "radial distribution function", "r", "g(r)")
	assert.Equal(t, "gr", R.FileName())
	R.Pair = Pair("B", "A")
	assert.Equal(t, "gr.A-B", R.FileName())
	R.Label = "A"
	assert.Equal(t, "gr.A", R.FileName())
	assert.Equal(t, 1.0, NewResult("x", "x").Weight)
}

func TestResultSplit(t *testing.T) {
	R := NewResult("fkt", "F", "k", "t", "F")
	for _, k := range []float64{2, 1} {
		for i := 0; i < 3; i++ {
			R.Rows = append(R.Rows, Row{Vars: []float64{k, float64(i)}, Value: k * float64(i), Err: math.NaN(), Count: 1})
		}
	}
	assert.False(t, R.HasErrors())
	g := R.Split()
	require.Len(t, g, 2)
	assert.Equal(t, 1.0, g[0].Info["k"])
	assert.Equal(t, 2.0, g[1].Info["k"])
	assert.Equal(t, []string{"t", "F"}, g[1].Columns)
	assert.Equal(t, []float64{0, 1, 2}, g[1].Var(0))
	assert.Equal(t, []float64{0, 2, 4}, g[1].Values())

	flat := NewResult("msd", "msd", "t", "msd")
	assert.Equal(t, []*Result{flat}, flat.Split())
}
