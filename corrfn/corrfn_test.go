package corrfn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/accum"
	"github.com/rmera/gocorr/partial"
)

func conf(box float64, species []string, pos ...[3]float64) *corr.Configuration {
	c := corr.NewConfiguration(len(pos))
	copy(c.Species, species)
	c.Box = corr.Box{Sides: [3]float64{box, box, box}}
	for i, p := range pos {
		c.Coords.SetVec(i, p)
	}
	return c
}

func setup(t *testing.T, tag Tag, o corr.Options, c *corr.Configuration) Correlator {
	t.Helper()
	cf, err := New(tag, o)
	require.NoError(t, err)
	S, err := partial.NewSpecies(c.Species)
	require.NoError(t, err)
	require.NoError(t, cf.Setup(c, S))
	return cf
}

func TestParseTag(t *testing.T) {
	for _, tag := range Tags() {
		got, err := ParseTag(string(tag))
		require.NoError(t, err)
		assert.Equal(t, tag, got)
	}
	got, err := ParseTag("GR")
	require.NoError(t, err)
	assert.Equal(t, GR, got)
	_, err = ParseTag("rdf2")
	assert.Error(t, err)
	assert.Panics(t, func() { MustNew("nope", corr.DefaultOptions()) })
}

func TestCapabilities(t *testing.T) {
	o := corr.DefaultOptions()
	for _, tag := range Tags() {
		c := MustNew(tag, o)
		if c.Order() == Static {
			assert.Equal(t, 1, c.WindowLen(), tag)
		} else {
			assert.Equal(t, 2, c.WindowLen(), tag)
		}
	}
	assert.Equal(t, Reciprocal, MustNew(SK, o).Space())
	assert.Equal(t, RealSpace, MustNew(GR, o).Space())
	assert.True(t, MustNew(MSD, o).NeedsUnwrapped())
	assert.False(t, MustNew(FSKT, o).NeedsUnwrapped())
	assert.True(t, MustNew(VACF, o).NeedsVelocities())
}

func TestGRTwoParticles(t *testing.T) {
	o := corr.DefaultOptions()
	o.RBinWidth = 0.5
	c := conf(4, []string{"A", "A"}, [3]float64{0.2, 0.2, 0.2}, [3]float64{3.2, 0.2, 0.2}) //1 apart through the boundary
	g := setup(t, GR, o, c)
	acc := accum.New()
	require.NoError(t, g.Compute(Window{Origin: c, Lagged: c}, acc))
	res, err := g.Finalize(acc, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	r := res[0]
	require.Len(t, r.Rows, 4)
	shell := 4 * math.Pi / 3 * (1.5*1.5*1.5 - 1)
	for i, row := range r.Rows {
		want := 0.0
		if i == 2 {
			want = 64 / shell
		}
		assert.InDelta(t, want, row.Value, 1e-12, "bin %d", i)
		assert.Equal(t, 1, row.Count)
	}
	assert.Equal(t, []float64{0.25, 0.75, 1.25, 1.75}, r.Var(0))
}

func TestGRFirstShell(t *testing.T) {
	o := corr.DefaultOptions()
	o.RBinWidth = 0.5
	c := conf(10, []string{"A", "A", "A"}, [3]float64{0, 0, 0}, [3]float64{1.2, 0, 0}, [3]float64{2.4, 0, 0})
	g := setup(t, GR, o, c)
	acc := accum.New()
	require.NoError(t, g.Compute(Window{Origin: c, Lagged: c}, acc))
	res, err := g.Finalize(acc, nil)
	require.NoError(t, err)
	r := res[0]
	assert.Equal(t, 1.75, r.Info["r_shell"])
	shell := 4 * math.Pi / 3 * (1.5*1.5*1.5 - 1)
	g2 := 2 * 1000 / (3 * shell)
	assert.InDelta(t, 2.0/1000*g2*4*math.Pi*1.25*1.25*0.5, r.Info["coordination"], 1e-12)
}

func TestGRRejectsLargeRMax(t *testing.T) {
	o := corr.DefaultOptions()
	o.RMax = 3
	c := conf(4, []string{"A", "A"}, [3]float64{}, [3]float64{1, 1, 1})
	g := MustNew(GR, o)
	S, _ := partial.NewSpecies(c.Species)
	var cerr *corr.ConfigurationError
	assert.ErrorAs(t, g.Setup(c, S), &cerr)
}

func TestSKSingleParticle(t *testing.T) {
	o := corr.DefaultOptions()
	o.KMax = 3
	o.KBins = 3
	c := conf(5, []string{"A"}, [3]float64{1.3, 2.1, 0.4})
	s := setup(t, SK, o, c)
	acc := accum.New()
	require.NoError(t, s.Compute(Window{Origin: c, Lagged: c}, acc))
	res, err := s.Finalize(acc, nil)
	require.NoError(t, err)
	for _, row := range res[0].Rows {
		assert.InDelta(t, 1, row.Value, 1e-12)
	}
	o.SubtractSelf = true
	s = setup(t, SK, o, c)
	acc = accum.New()
	require.NoError(t, s.Compute(Window{Origin: c, Lagged: c}, acc))
	res, err = s.Finalize(acc, nil)
	require.NoError(t, err)
	for _, row := range res[0].Rows {
		assert.InDelta(t, 0, row.Value, 1e-12)
	}
}

func TestSKRejectsChangedCell(t *testing.T) {
	o := corr.DefaultOptions()
	o.KMax = 3
	c := conf(5, []string{"A"}, [3]float64{1, 1, 1})
	s := setup(t, SK, o, c)
	c2 := conf(5.5, []string{"A"}, [3]float64{1, 1, 1})
	var gerr *corr.GeometryError
	assert.ErrorAs(t, s.Compute(Window{Origin: c2, Lagged: c2, Frame: 7}, accum.New()), &gerr)
}

func TestDisplacementFamily(t *testing.T) {
	o := corr.DefaultOptions()
	o.SpeciesPartials = true
	sp := []string{"A", "B"}
	c0 := conf(10, sp, [3]float64{0, 0, 0}, [3]float64{5, 5, 5})
	c1 := conf(10, sp, [3]float64{1, 0, 0}, [3]float64{5, 5, 5.2})
	c0.Unwrapped, c1.Unwrapped = c0.Coords, c1.Coords
	lags := []Lag{{0, 0}, {1, 0.5}}
	w := Window{Origin: c0, Lagged: c1, Lag: 1, LagIndex: 1}
	w0 := Window{Origin: c0, Lagged: c0}

	m := setup(t, MSD, o, c0)
	acc := accum.New()
	require.NoError(t, m.Compute(w0, acc))
	require.NoError(t, m.Compute(w, acc))
	res, err := m.Finalize(acc, lags)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.InDelta(t, (1+0.04)/2, res[0].Rows[1].Value, 1e-12)
	assert.Equal(t, 0.5, res[0].Rows[1].Vars[0])
	assert.Equal(t, "A", res[1].Label)
	assert.InDelta(t, 1, res[1].Rows[1].Value, 1e-12)
	assert.InDelta(t, 0.5, res[1].Weight, 1e-15)

	q := setup(t, QS, o, c0)
	acc = accum.New()
	require.NoError(t, q.Compute(w, acc))
	res, err = q.Finalize(acc, lags)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res[0].Rows[0].Value, 1e-12) //only B stays within 0.3

	a := setup(t, Alpha2, o, c0)
	acc = accum.New()
	require.NoError(t, a.Compute(w, acc))
	res, err = a.Finalize(acc, lags)
	require.NoError(t, err)
	r2, r4 := (1+0.04)/2, (1+0.0016)/2
	assert.InDelta(t, 3*r4/(5*r2*r2)-1, res[0].Rows[0].Value, 1e-12)
	assert.True(t, math.IsNaN(res[1].Weight))
}

func TestCollectiveOverlap(t *testing.T) {
	o := corr.DefaultOptions()
	o.SpeciesPartials = true
	sp := []string{"A", "B"}
	c0 := conf(10, sp, [3]float64{0, 0, 0}, [3]float64{0.2, 0, 0})
	c1 := conf(10, sp, [3]float64{9.95, 0, 0}, [3]float64{5, 5, 5}) //A moved 0.05 through the boundary
	lags := []Lag{{0, 0}, {1, 2}}
	q := setup(t, QT, o, c0)
	acc := accum.New()
	require.NoError(t, q.Compute(Window{Origin: c0, Lagged: c1, Lag: 1, LagIndex: 1}, acc))
	res, err := q.Finalize(acc, lags)
	require.NoError(t, err)
	require.Len(t, res, 4)
	want := map[corr.PairKey]float64{corr.TotalKey: 1, corr.Pair("A", "A"): 1, corr.Pair("A", "B"): 0.5, corr.Pair("B", "B"): 0}
	var sum float64
	for _, r := range res {
		require.Len(t, r.Rows, 1)
		assert.Equal(t, 2.0, r.Rows[0].Vars[0])
		assert.InDelta(t, want[r.Pair], r.Rows[0].Value, 1e-12, "%v", r.Pair)
		if !r.Pair.IsTotal() {
			sum += r.Weight * r.Rows[0].Value
		}
	}
	assert.InDelta(t, 1, sum, 1e-12)
}

func TestOverlapDistribution(t *testing.T) {
	o := corr.DefaultOptions()
	o.OverlapBins = 4
	sp := []string{"A", "B"}
	c0 := conf(10, sp, [3]float64{0, 0, 0}, [3]float64{0.2, 0, 0})
	c1 := conf(10, sp, [3]float64{0.1, 0, 0}, [3]float64{5, 5, 5})
	p := setup(t, PQ, o, c0)
	acc := accum.New()
	//at lag 0 every particle overlaps itself, so the window is left out
	require.NoError(t, p.Compute(Window{Origin: c0, Lagged: c0}, acc))
	require.NoError(t, p.Compute(Window{Origin: c0, Lagged: c1, Lag: 1, LagIndex: 1}, acc))
	res, err := p.Finalize(acc, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	r := res[0]
	assert.Equal(t, []float64{0.25, 0.75, 1.25, 1.75}, r.Var(0))
	assert.Equal(t, []float64{0, 0, 2, 0}, r.Values())
	assert.Equal(t, 1, r.Rows[2].Count)
	assert.Equal(t, 0.5, r.Info["accepted"])
	assert.Equal(t, 2.0, r.Info["windows"])

	//nothing accepted: an empty distribution
	p = setup(t, PQ, o, c0)
	acc = accum.New()
	require.NoError(t, p.Compute(Window{Origin: c0, Lagged: c0}, acc))
	res, err = p.Finalize(acc, nil)
	require.NoError(t, err)
	assert.Empty(t, res[0].Rows)
	assert.Equal(t, 0.0, res[0].Info["accepted"])
}

func TestOverlapRejectsLargeCutoff(t *testing.T) {
	o := corr.DefaultOptions()
	o.OverlapCutoff = 2
	c := conf(3, []string{"A"}, [3]float64{1, 1, 1})
	S, _ := partial.NewSpecies(c.Species)
	var cerr *corr.ConfigurationError
	assert.ErrorAs(t, MustNew(QT, o).Setup(c, S), &cerr)
}
