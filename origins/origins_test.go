package origins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corr "github.com/rmera/gocorr"
)

func checkIncreasing(t *testing.T, o []int, spacing, total int) {
	t.Helper()
	for i := range o {
		assert.GreaterOrEqual(t, o[i], 0)
		assert.Less(t, o[i], total)
		if i > 0 {
			assert.GreaterOrEqual(t, o[i]-o[i-1], spacing)
		}
	}
}

func TestSelectLongTrajectory(t *testing.T) {
	p := Policy{MaxOrigins: 100, MinSpacing: 1}
	o, err := Select(1000, p)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(o), 100)
	assert.Len(t, o, 100)
	checkIncreasing(t, o, 1, 1000)
	assert.Equal(t, 990, o[len(o)-1])

	p.MinSpacing = 25
	o, err = Select(1000, p)
	require.NoError(t, err)
	assert.Len(t, o, 40)
	checkIncreasing(t, o, 25, 1000)
}

func TestSelectShortTrajectory(t *testing.T) {
	o, err := Select(5, Policy{MaxOrigins: 100, MinSpacing: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, o)
}

func TestSelectExplicit(t *testing.T) {
	o, err := Select(1000, Policy{MaxOrigins: 100, MinSpacing: 1, Count: 8})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 125, 250, 375, 500, 625, 750, 875}, o)

	o, err = Select(100, Policy{MaxOrigins: 100, MinSpacing: 1, Fraction: 0.1})
	require.NoError(t, err)
	assert.Len(t, o, 10)
	checkIncreasing(t, o, 1, 100)

	//clamped
	o, err = Select(10, Policy{MaxOrigins: 100, MinSpacing: 3, Count: 9})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, o)
	checkIncreasing(t, o, 3, 10)

	_, err = Select(10, Policy{MaxOrigins: 100, MinSpacing: 3, Count: 9, Strict: true})
	var cerr *corr.ConfigurationError
	assert.ErrorAs(t, err, &cerr)
}

func TestSelectErrors(t *testing.T) {
	var cerr *corr.ConfigurationError
	_, err := Select(0, Policy{MaxOrigins: 10})
	assert.ErrorAs(t, err, &cerr)
	_, err = Select(10, Policy{MaxOrigins: 0})
	assert.ErrorAs(t, err, &cerr)
	_, err = Select(10, Policy{MaxOrigins: 100, Strict: true})
	assert.ErrorAs(t, err, &cerr)
}

func TestSelectCustomHeuristic(t *testing.T) {
	every7 := func(total, maxOrigins, minSpacing int) int { return 7 }
	o, err := Select(30, Policy{MaxOrigins: 100, MinSpacing: 1, Heuristic: every7})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 7, 14, 21, 28}, o)
}

func TestMaxLag(t *testing.T) {
	l, w := MaxLag(corr.NoMaxLag, 101)
	assert.Nil(t, w)
	assert.Equal(t, 75, l)
	l, w = MaxLag(20, 101)
	assert.Nil(t, w)
	assert.Equal(t, 20, l)
	l, w = MaxLag(500, 101)
	require.NotNil(t, w)
	assert.Equal(t, 100, l)
	assert.Equal(t, 500, w.Requested)
	assert.Equal(t, 100, w.Available)
}

func TestLags(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3}, Lags(3, 0))
	l := Lags(1000, 20)
	assert.Equal(t, 0, l[0])
	assert.Equal(t, 1, l[1])
	assert.Equal(t, 1000, l[len(l)-1])
	assert.LessOrEqual(t, len(l), 20)
	for i := 1; i < len(l); i++ {
		assert.Greater(t, l[i], l[i-1])
	}
}
