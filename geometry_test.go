package corr

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinImageDistance(t *testing.T) {
	b := Box{Sides: [3]float64{10, 10, 10}}
	cases := []struct {
		p1, p2 [3]float64
		want   float64
	}{
		{[3]float64{0, 0, 0}, [3]float64{1, 0, 0}, 1},
		{[3]float64{0.5, 0, 0}, [3]float64{9.5, 0, 0}, 1},
		{[3]float64{9.5, 9.5, 9.5}, [3]float64{0.5, 0.5, 0.5}, math.Sqrt(3)},
		{[3]float64{0, 0, 0}, [3]float64{5, 0, 0}, 5},
		{[3]float64{0, 0, 0}, [3]float64{-5, 0, 0}, 5},
		{[3]float64{0, 0, 0}, [3]float64{23, 0, 0}, 3},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, MinImageDistance(b, c.p1, c.p2), 1e-12, "%v %v", c.p1, c.p2)
		assert.InDelta(t, c.want, MinImageDistance(b, c.p2, c.p1), 1e-12, "symmetry %v %v", c.p1, c.p2)
	}
}

func TestMinImageHalfBoxTie(t *testing.T) {
	b := Box{Sides: [3]float64{4, 6, 8}}
	d := MinImage(b, [3]float64{2, -3, 4})
	assert.Equal(t, [3]float64{2, 3, 4}, d, "half-box separations go to the positive image")
	d = MinImage(b, [3]float64{-2, 3, -4})
	assert.Equal(t, [3]float64{2, 3, 4}, d)
}

func TestMinImageRange(t *testing.T) {
	b := Box{Sides: [3]float64{3, 3, 3}}
	for x := -10.0; x <= 10; x += 0.37 {
		d := MinImage(b, [3]float64{x, 0, 0})[0]
		assert.True(t, d > -1.5 && d <= 1.5, "wrapped %g to %g", x, d)
		n := (x - d) / 3
		assert.InDelta(t, math.Round(n), n, 1e-9, "wrapping must shift by whole sides")
	}
}

func TestNewBox(t *testing.T) {
	b, err := NewBox([]float64{2, 0, 0, 0, 3, 0, 0, 0, 4})
	require.NoError(t, err)
	assert.Equal(t, [3]float64{2, 3, 4}, b.Sides)
	assert.InDelta(t, 24, b.Volume(), 1e-12)
	assert.Equal(t, 2.0, b.MinSide())

	_, err = NewBox([]float64{2, 0.5, 0, 0, 3, 0, 0, 0, 4})
	var cerr *ConfigurationError
	assert.True(t, errors.As(err, &cerr), "triclinic cell should be a configuration error, got %v", err)

	_, err = NewBox([]float64{2, 0, 3})
	var gerr *GeometryError
	assert.True(t, errors.As(err, &gerr), "zero side should be a geometry error, got %v", err)

	_, err = NewBox([]float64{1, 2})
	assert.Error(t, err)
}

func TestBoxIsCubic(t *testing.T) {
	assert.True(t, Box{Sides: [3]float64{5, 5, 5}}.IsCubic(1e-9))
	assert.False(t, Box{Sides: [3]float64{5, 5, 6}}.IsCubic(1e-9))
}
