/*
 * kgrid.go, part of gocorr.
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

// Package kgrid builds the reciprocal-lattice wavevectors allowed by an
// orthorhombic cell, k = 2π(nx/Lx, ny/Ly, nz/Lz), and groups them in shells
// of similar magnitude.
package kgrid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	corr "github.com/rmera/gocorr"
)

// Vector is the integer triple n of a reciprocal-lattice vector.
type Vector [3]int

// Bin is a shell of wavevectors whose magnitudes are within the tolerance of
// the shell center. K is the mean magnitude of the vectors in the shell, and
// is the value reported for the shell.
type Bin struct {
	Center  float64
	K       float64
	Vectors []Vector
}

// Params are the parameters of a grid. Build fills the zero values of KMin and
// Tolerance from the cell.
type Params struct {
	KMin, KMax   float64
	NBins        int
	Tolerance    float64
	MaxPerBin    int
	Isotropic    bool
	Permutations bool
}

// ParamsFromOptions takes the grid parameters from the options of a computation.
func ParamsFromOptions(o corr.Options) Params {
	return Params{
		KMin:         o.KMin,
		KMax:         o.KMax,
		NBins:        o.KBins,
		Tolerance:    o.KTolerance,
		MaxPerBin:    o.MaxVectorsPerBin,
		Isotropic:    o.Isotropic,
		Permutations: o.Permutations,
	}
}

// Grid is a set of non-empty shells, sorted by increasing magnitude. No
// vector belongs to more than one shell.
type Grid struct {
	Box    corr.Box
	Bins   []Bin
	NMax   [3]int //largest |n| per axis among the vectors of the grid
	Params Params
}

// K returns the cartesian wavevector for n.
func (G *Grid) K(n Vector) [3]float64 {
	return Cartesian(G.Box, n)
}

// Cartesian returns the cartesian wavevector for n in the given box.
func Cartesian(box corr.Box, n Vector) [3]float64 {
	var k [3]float64
	for i := range k {
		k[i] = 2 * math.Pi * float64(n[i]) / box.Sides[i]
	}
	return k
}

// Magnitude returns |k| for n in the given box.
func Magnitude(box corr.Box, n Vector) float64 {
	k := Cartesian(box, n)
	return math.Sqrt(k[0]*k[0] + k[1]*k[1] + k[2]*k[2])
}

// KValues returns the representative magnitudes of the shells.
func (G *Grid) KValues() []float64 {
	ret := make([]float64, len(G.Bins))
	for i, b := range G.Bins {
		ret[i] = b.K
	}
	return ret
}

// NVectors returns the total number of vectors in the grid.
func (G *Grid) NVectors() int {
	n := 0
	for _, b := range G.Bins {
		n += len(b.Vectors)
	}
	return n
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// canonicalSign is true for the one vector of each {n, -n} pair that is kept:
// the one whose first non-zero component is positive.
func canonicalSign(n Vector) bool {
	for _, v := range n {
		if v != 0 {
			return v > 0
		}
	}
	return false
}

// canonicalCubic is true for the one vector kept of each set related by
// reflections and axis permutations: non-negative, non-increasing components.
func canonicalCubic(n Vector) bool {
	return n[0] >= n[1] && n[1] >= n[2] && n[2] >= 0
}

// Build enumerates the reciprocal lattice of box up to KMax (plus the tolerance)
// and bins the vectors into NBins shells with evenly spaced centers from KMin to
// KMax. Each vector goes to the shell with the nearest center, if it is within
// the tolerance of it. Empty shells are dropped. With Isotropic, only one of n and
// -n is kept; with Permutations as well (and a cubic box), only one vector of each
// set related by reflections and axis permutations is kept.
func Build(box corr.Box, p Params) (*Grid, error) {
	c := "kgrid.Build"
	if err := box.Check(); err != nil {
		return nil, err
	}
	if p.NBins <= 0 {
		return nil, corr.NewConfigurationError(c, "the number of k bins must be positive, got %d", p.NBins)
	}
	var kunit [3]float64
	for i := range kunit {
		kunit[i] = 2 * math.Pi / box.Sides[i]
	}
	if p.KMin <= 0 {
		p.KMin = math.Min(kunit[0], math.Min(kunit[1], kunit[2]))
	}
	if p.KMax <= p.KMin {
		return nil, corr.NewConfigurationError(c, "k_max (%g) must be larger than k_min (%g); the smallest wavevector of the cell is %g", p.KMax, p.KMin, p.KMin)
	}
	spacing := p.KMax - p.KMin
	if p.NBins > 1 {
		spacing /= float64(p.NBins - 1)
	}
	if p.Tolerance <= 0 {
		p.Tolerance = spacing / 2
	}
	cubic := p.Isotropic && p.Permutations && box.IsCubic(1e-9)
	if p.Isotropic && p.Permutations && !cubic {
		return nil, corr.NewConfigurationError(c, "permutation symmetry of wavevectors requires a cubic cell, got sides %v", box.Sides)
	}
	kcut := p.KMax + p.Tolerance
	var nmax [3]int
	for i := range nmax {
		nmax[i] = int(math.Floor(kcut / kunit[i]))
	}
	bins := make([]Bin, p.NBins)
	bins[0].Center = p.KMin
	if p.NBins > 1 {
		for b, c := range floats.Span(make([]float64, p.NBins), p.KMin, p.KMax) {
			bins[b].Center = c
		}
	}
	var n Vector
	for n[0] = -nmax[0]; n[0] <= nmax[0]; n[0]++ {
		for n[1] = -nmax[1]; n[1] <= nmax[1]; n[1]++ {
			for n[2] = -nmax[2]; n[2] <= nmax[2]; n[2]++ {
				if n == (Vector{}) {
					continue
				}
				if cubic && !canonicalCubic(n) {
					continue
				}
				if p.Isotropic && !canonicalSign(n) {
					continue
				}
				k := Magnitude(box, n)
				b := 0
				if p.NBins > 1 {
					b = int(math.Round((k - p.KMin) / spacing))
				}
				if b < 0 || b >= p.NBins {
					continue
				}
				if math.Abs(k-bins[b].Center) > p.Tolerance {
					continue
				}
				bins[b].Vectors = append(bins[b].Vectors, n)
			}
		}
	}
	G := &Grid{Box: box, Params: p}
	for _, b := range bins {
		if len(b.Vectors) == 0 {
			continue
		}
		sortVectors(box, b.Vectors)
		b.Vectors = decimate(b.Vectors, p.MaxPerBin)
		var sum float64
		for _, v := range b.Vectors {
			sum += Magnitude(box, v)
			for i := range v {
				if abs(v[i]) > G.NMax[i] {
					G.NMax[i] = abs(v[i])
				}
			}
		}
		b.K = sum / float64(len(b.Vectors))
		G.Bins = append(G.Bins, b)
	}
	if len(G.Bins) == 0 {
		return nil, corr.NewConfigurationError(c, "no wavevector of the cell %v falls in [%g, %g] with tolerance %g", box.Sides, p.KMin, p.KMax, p.Tolerance)
	}
	return G, nil
}

// sortVectors orders vectors by magnitude, then lexicographically, so the
// grid does not depend on the enumeration order.
func sortVectors(box corr.Box, v []Vector) {
	sort.Slice(v, func(i, j int) bool {
		ki, kj := Magnitude(box, v[i]), Magnitude(box, v[j])
		if ki != kj {
			return ki < kj
		}
		for a := 0; a < 3; a++ {
			if v[i][a] != v[j][a] {
				return v[i][a] < v[j][a]
			}
		}
		return false
	})
}

// decimate keeps max evenly spaced vectors of v, if max>0.
func decimate(v []Vector, max int) []Vector {
	if max <= 0 || len(v) <= max {
		return v
	}
	ret := make([]Vector, max)
	for i := range ret {
		ret[i] = v[i*len(v)/max]
	}
	return ret
}
