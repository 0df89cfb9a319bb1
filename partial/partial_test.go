package partial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/accum"
)

func randomLabels(r *rand.Rand, n int, names []string) []string {
	ret := make([]string, n)
	for i := range ret {
		ret[i] = names[r.Intn(len(names))]
	}
	return ret
}

func TestKeyIndex(t *testing.T) {
	S, err := NewSpecies([]string{"C", "A", "B", "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, S.Names)
	assert.Equal(t, []int{2, 1, 1}, S.Counts)
	keys := S.Keys(Pair)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			k := S.KeyIndex(Pair, i, j)
			assert.Equal(t, corr.Pair(S.Names[i], S.Names[j]), keys[k])
			a, b := S.keySpecies(Pair, k)
			assert.Equal(t, corr.Pair(S.Names[a], S.Names[b]), keys[k])
		}
	}
	assert.True(t, S.Same([]string{"C", "A", "B", "A"}))
	assert.False(t, S.Same([]string{"A", "C", "B", "A"}))
	_, err = NewSpecies([]string{"A", ""})
	assert.Error(t, err)
}

// The weighted sum of the partials must give back the total, for every kind
// and for random labelings.
func TestReconstruction(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for _, kind := range []Kind{Single, Pair, Collective} {
		for trial := 0; trial < 5; trial++ {
			labels := randomLabels(r, 20+r.Intn(30), []string{"A", "B", "C"})
			S, err := NewSpecies(labels)
			require.NoError(t, err)
			C := NewCollector(S, kind, 6, 2)
			for i := 0; i < 200; i++ {
				si, sj := S.Of(r.Intn(S.N)), S.Of(r.Intn(S.N))
				k := S.KeyIndex(kind, si, sj)
				if S.Norm(kind, k) == 0 {
					continue
				}
				C.Add(r.Intn(6), r.Intn(2), k, r.Float64())
			}
			acc := accum.New()
			scale := func(bin, ch int) float64 { return 1 / float64(bin+1) }
			C.Emit(acc, 0, true, scale)
			keys := S.Keys(kind)
			for ch := 0; ch < 2; ch++ {
				for bin := 0; bin < 6; bin++ {
					tot, ok := acc.Get(accum.Key{Bin: bin, Channel: ch})
					require.True(t, ok)
					var sum float64
					for k, key := range keys {
						p, ok := acc.Get(accum.Key{Bin: bin, Channel: ch, Pair: key})
						if !ok {
							continue
						}
						sum += S.Weight(kind, k) * p.Mean()
					}
					want := tot.Mean()
					assert.LessOrEqual(t, math.Abs(sum-want), 1e-10*math.Max(1, math.Abs(want)), "kind %v bin %d ch %d", kind, bin, ch)
				}
			}
		}
	}
}

func TestEmitSkipsZeroScale(t *testing.T) {
	S, err := NewSpecies([]string{"A", "A", "B"})
	require.NoError(t, err)
	C := NewCollector(S, Pair, 2, 1)
	C.Add(0, 0, S.KeyIndex(Pair, 0, 1), 2)
	acc := accum.New()
	C.Emit(acc, 3, true, func(bin, ch int) float64 {
		if bin == 1 {
			return 0
		}
		return 1
	})
	_, ok := acc.Get(accum.Key{Bin: 1, Lag: 3})
	assert.False(t, ok)
	tot, ok := acc.Get(accum.Key{Bin: 0, Lag: 3})
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, tot.Mean(), 1e-15)
	ab, _ := acc.Get(accum.Key{Bin: 0, Lag: 3, Pair: corr.Pair("A", "B")})
	assert.InDelta(t, 1.0, ab.Mean(), 1e-15)
	//B-B has no pairs
	_, ok = acc.Get(accum.Key{Bin: 0, Lag: 3, Pair: corr.Pair("B", "B")})
	assert.False(t, ok)
}
