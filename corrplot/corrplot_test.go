package corrplot

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corr "github.com/rmera/gocorr"
)

func msd(pair corr.PairKey, D float64) *corr.Result {
	R := corr.NewResult("msd", "mean squared displacement", "t", "msd")
	R.Pair = pair
	for i := 0; i < 20; i++ {
		t := 0.1 * float64(i)
		R.Rows = append(R.Rows, corr.Row{Vars: []float64{t}, Value: 6 * D * t, Err: 0.01 * t, Count: 20 - i})
	}
	return R
}

func fkt() *corr.Result {
	R := corr.NewResult("fkt", "intermediate scattering function", "k", "t", "F")
	for _, k := range []float64{1, 2, 4} {
		for i := 0; i < 10; i++ {
			t := 0.1 * float64(i)
			R.Rows = append(R.Rows, corr.Row{Vars: []float64{k, t}, Value: math.Exp(-k * k * t), Err: math.NaN(), Count: 5})
		}
	}
	return R
}

func isPNG(t *testing.T, name string) {
	raw, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Greater(t, len(raw), 8)
	assert.Equal(t, []byte("\x89PNG"), raw[:4])
}

func TestSave(t *testing.T) {
	name := filepath.Join(t.TempDir(), "msd.png")
	require.NoError(t, Save(name, DefaultOptions(), msd(corr.TotalKey, 1), msd(corr.Self("A"), 0.5)))
	isPNG(t, name)
}

func TestCurves(t *testing.T) {
	c := curves(fkt(), false)
	require.Len(t, c, 3)
	assert.Equal(t, "total k=2", c[1].label)
	assert.Len(t, c[1].xys, 10)
	assert.False(t, hasErrors(c[1].errs))

	//lag 0 can't go in a log axis
	c = curves(msd(corr.TotalKey, 1), true)
	require.Len(t, c, 1)
	assert.Len(t, c[0].xys, 19)
	assert.True(t, hasErrors(c[0].errs))
}

func TestSaveAll(t *testing.T) {
	dir := t.TempDir()
	res := []*corr.Result{msd(corr.TotalKey, 1), fkt(), msd(corr.Self("A"), 0.5), corr.NewResult("pq", "overlap distribution", "q", "P(q)")}
	names, err := SaveAll(dir, DefaultOptions(), res, true)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "msd.png"), filepath.Join(dir, "fkt.png")}, names)
	for _, n := range names {
		isPNG(t, n)
	}
}

func TestNothingToDraw(t *testing.T) {
	R := corr.NewResult("alpha2", "non-Gaussian parameter", "t", "alpha2")
	R.Rows = []corr.Row{{Vars: []float64{0}, Value: math.NaN(), Err: math.NaN()}}
	_, err := Plot(DefaultOptions(), R)
	assert.Error(t, err)
	_, err = Plot(DefaultOptions())
	assert.Error(t, err)
}

func TestColors(t *testing.T) {
	r, g, b := colors(0, 4)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})
	r, g, b = hsv2rgb(240, 1, 1)
	assert.Equal(t, [3]uint8{0, 0, 255}, [3]uint8{r, g, b})
}
