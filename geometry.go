/*
 * geometry.go, part of gocorr.
 *
 * Copyright 2026 The gocorr Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package corr

import (
	"math"
)

// relative size under which off-diagonal box components are taken as zero.
const offDiagonalTolerance = 1e-8

// Box is an orthorhombic periodic simulation cell, given by its side lengths.
type Box struct {
	Sides [3]float64
}

// NewBox builds a Box either from 3 side lengths or from the 9 components of the
// 3 box vectors (a, b, c, one after the other), as they come in trajectory frames.
// Box vectors with non-zero off-diagonal components give a ConfigurationError,
// a zero or negative side gives a GeometryError.
func NewBox(vectors []float64) (Box, error) {
	var b Box
	switch len(vectors) {
	case 3:
		copy(b.Sides[:], vectors)
	case 9:
		maxd := math.Max(math.Abs(vectors[0]), math.Max(math.Abs(vectors[4]), math.Abs(vectors[8])))
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				if i == j {
					continue
				}
				if math.Abs(vectors[3*i+j]) > offDiagonalTolerance*maxd {
					return b, NewConfigurationError("NewBox", "non-orthorhombic cell: component %d of box vector %d is %g", j, i, vectors[3*i+j])
				}
			}
			b.Sides[i] = vectors[3*i+i]
		}
	default:
		return b, NewConfigurationError("NewBox", "a box needs 3 sides or 9 vector components, got %d numbers", len(vectors))
	}
	if err := b.Check(); err != nil {
		return b, err
	}
	return b, nil
}

// Check returns a GeometryError if the box is degenerate.
func (b Box) Check() error {
	for i, v := range b.Sides {
		if !(v > 0) || math.IsInf(v, 0) {
			return NewGeometryError("Box.Check", -1, "degenerate cell: side %d is %g", i, v)
		}
	}
	return nil
}

// Volume returns the volume of the box
func (b Box) Volume() float64 {
	return b.Sides[0] * b.Sides[1] * b.Sides[2]
}

// MinSide returns the length of the shortest side
func (b Box) MinSide() float64 {
	return math.Min(b.Sides[0], math.Min(b.Sides[1], b.Sides[2]))
}

// IsCubic returns true if all sides are equal within tol (relative).
func (b Box) IsCubic(tol float64) bool {
	s := b.Sides
	return math.Abs(s[0]-s[1]) <= tol*s[0] && math.Abs(s[0]-s[2]) <= tol*s[0]
}

// wrap brings d to the interval (-L/2, L/2]. A separation of exactly
// half a side is sent to the positive image.
func wrap(d, L float64) float64 {
	return d - L*math.Ceil(d/L-0.5)
}

// MinImage applies the minimum-image convention to the separation vector d,
// per axis.
func MinImage(b Box, d [3]float64) [3]float64 {
	for i := range d {
		d[i] = wrap(d[i], b.Sides[i])
	}
	return d
}

// MinImageDistance2 returns the squared minimum-image distance between p1 and p2.
func MinImageDistance2(b Box, p1, p2 [3]float64) float64 {
	var r2 float64
	for i := 0; i < 3; i++ {
		d := wrap(p2[i]-p1[i], b.Sides[i])
		r2 += d * d
	}
	return r2
}

// MinImageDistance returns the shortest distance between p1 and p2 among all
// their periodic images.
func MinImageDistance(b Box, p1, p2 [3]float64) float64 {
	return math.Sqrt(MinImageDistance2(b, p1, p2))
}
