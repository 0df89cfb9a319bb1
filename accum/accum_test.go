package accum

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corr "github.com/rmera/gocorr"
)

func randomAcc(r *rand.Rand, n int) *Accumulator {
	A := New()
	pairs := []corr.PairKey{corr.TotalKey, corr.Pair("A", "B"), corr.Self("A")}
	for i := 0; i < n; i++ {
		k := Key{Bin: r.Intn(5), Lag: r.Intn(3), Pair: pairs[r.Intn(len(pairs))]}
		A.Add(k, r.NormFloat64())
	}
	return A
}

func clone(A *Accumulator) *Accumulator {
	B := New()
	B.Merge(A)
	return B
}

func TestMergeAssociative(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	a, b, c := randomAcc(r, 200), randomAcc(r, 150), randomAcc(r, 50)

	left := clone(a)
	left.Merge(b)
	left.Merge(c)

	bc := clone(b)
	bc.Merge(c)
	right := clone(a)
	right.Merge(bc)

	l, rr := left.Finalize(true), right.Finalize(true)
	require.Equal(t, len(l), len(rr))
	for i := range l {
		assert.Equal(t, l[i].Key, rr[i].Key)
		assert.Equal(t, l[i].N, rr[i].N)
		assert.InDelta(t, l[i].Mean, rr[i].Mean, 1e-12)
		if !math.IsNaN(l[i].Err) {
			assert.InDelta(t, l[i].Err, rr[i].Err, 1e-12)
		}
	}
}

func TestMergeCommutes(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	a, b := randomAcc(r, 100), randomAcc(r, 100)
	ab := clone(a)
	ab.Merge(b)
	ba := clone(b)
	ba.Merge(a)
	for _, k := range ab.Keys() {
		x, _ := ab.Get(k)
		y, ok := ba.Get(k)
		require.True(t, ok)
		assert.Equal(t, x.N, y.N)
		assert.InDelta(t, x.Sum, y.Sum, 1e-12)
	}
}

func TestUnevenCounts(t *testing.T) {
	A := New()
	for i := 0; i < 10; i++ {
		A.Add(Key{Lag: 0}, 1)
	}
	A.Add(Key{Lag: 1}, 3)
	A.Add(Key{Lag: 1}, 5)
	e := A.Finalize(true)
	require.Len(t, e, 2)
	assert.Equal(t, 1.0, e[0].Mean)
	assert.Equal(t, 10, e[0].N)
	assert.Equal(t, 0.0, e[0].Err)
	assert.Equal(t, 4.0, e[1].Mean)
	assert.Equal(t, 2, e[1].N)
	assert.InDelta(t, 1.0, e[1].Err, 1e-12) //sd sqrt(2), over sqrt(2)
}

func TestStat(t *testing.T) {
	var s Stat
	assert.True(t, math.IsNaN(s.Mean()))
	s = Stat{Sum: 6, Sum2: 14, N: 3} //1,2,3
	assert.Equal(t, 2.0, s.Mean())
	assert.InDelta(t, 1.0, s.Variance(), 1e-12)
	assert.InDelta(t, 2.0/3.0, s.PopVariance(), 1e-12)
}

func TestKeysSorted(t *testing.T) {
	A := New()
	A.Add(Key{Bin: 2, Pair: corr.Pair("B", "A")}, 1)
	A.Add(Key{Bin: 1, Pair: corr.TotalKey}, 1)
	A.Add(Key{Bin: 0, Lag: 1, Pair: corr.TotalKey}, 1)
	k := A.Keys()
	assert.Equal(t, Key{Bin: 1}, k[0])
	assert.Equal(t, Key{Bin: 0, Lag: 1}, k[1])
	assert.Equal(t, corr.Pair("A", "B"), k[2].Pair)
	assert.Equal(t, []corr.PairKey{corr.TotalKey, corr.Pair("A", "B")}, A.Pairs())
}
