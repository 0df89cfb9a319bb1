/*
 * corrstat.go, part of gocorr.
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

// Package corrstat extracts derived quantities from correlation functions:
// relaxation times, diffusion coefficients and peaks.
package corrstat

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	corr "github.com/rmera/gocorr"
)

// Tau returns the time at which the relaxation function f first drops below
// 1/e, interpolating linearly between the points around the crossing.
func Tau(t, f []float64) (float64, error) {
	return Crossing(t, f, 1/math.E)
}

// Crossing returns the first time at which f drops below level, interpolating
// linearly. It returns an *corr.InsufficientDataError if f never gets below
// level.
func Crossing(t, f []float64, level float64) (float64, error) {
	if len(t) != len(f) || len(t) == 0 {
		return math.NaN(), corr.NewInsufficientDataError("corrstat.Crossing", "points", 1, len(f))
	}
	if f[0] < level {
		return t[0], nil
	}
	for i := 1; i < len(f); i++ {
		if math.IsNaN(f[i]) || f[i] >= level {
			continue
		}
		//f[i-1] could be NaN too
		j := i - 1
		for j > 0 && math.IsNaN(f[j]) {
			j--
		}
		if math.IsNaN(f[j]) || f[j] == f[i] {
			return t[i], nil
		}
		return t[j] + (level-f[j])*(t[i]-t[j])/(f[i]-f[j]), nil
	}
	return math.NaN(), corr.NewInsufficientDataError("corrstat.Crossing", "points below the crossing level", 1, 0)
}

// Diffusion returns the diffusion coefficient D from a mean square displacement
// result, fitting msd = 2·ndim·D·t + c to the points where the msd is larger
// than sigma², where the motion is expected to be diffusive. The points are
// weighted by their number of samples.
func Diffusion(msd *corr.Result, ndim, sigma float64) (float64, error) {
	var t, y, w []float64
	for _, r := range msd.Rows {
		if r.Value <= sigma*sigma || math.IsNaN(r.Value) {
			continue
		}
		t = append(t, r.Vars[0])
		y = append(y, r.Value)
		w = append(w, float64(r.Count))
	}
	if len(t) < 2 {
		return math.NaN(), corr.NewInsufficientDataError("corrstat.Diffusion", "points in the diffusive regime", 2, len(t))
	}
	_, slope := stat.LinearRegression(t, y, w, false)
	return slope / (2 * ndim), nil
}

// Peak returns the position and height of the maximum of y, ignoring NaNs.
func Peak(x, y []float64) (float64, float64, error) {
	clean := make([]float64, 0, len(y))
	pos := make([]int, 0, len(y))
	for i, v := range y {
		if !math.IsNaN(v) {
			clean = append(clean, v)
			pos = append(pos, i)
		}
	}
	if len(clean) == 0 {
		return math.NaN(), math.NaN(), corr.NewInsufficientDataError("corrstat.Peak", "points", 1, 0)
	}
	i := floats.MaxIdx(clean)
	return x[pos[i]], clean[i], nil
}

// Coordination returns the running coordination number of a radial
// distribution function: n(r_i) = ρ Σ_{j<=i} g(r_j)·4π r_j² Δr, with ρ the
// number density of the partner species.
func Coordination(r, g []float64, rho float64) []float64 {
	ret := make([]float64, len(g))
	if len(r) < 2 {
		return ret
	}
	dr := r[1] - r[0]
	var sum float64
	for i := range g {
		sum += rho * g[i] * 4 * math.Pi * r[i] * r[i] * dr
		ret[i] = sum
	}
	return ret
}

// FirstShell returns the radius of the first minimum of g after its main
// peak, and the running coordination number there. rho is as in Coordination.
func FirstShell(r, g []float64, rho float64) (float64, float64, error) {
	c := "corrstat.FirstShell"
	if len(r) != len(g) || len(g) < 3 {
		return math.NaN(), math.NaN(), corr.NewInsufficientDataError(c, "points", 3, len(g))
	}
	peak := floats.MaxIdx(g)
	for i := peak + 1; i < len(g)-1; i++ {
		if g[i] <= g[i-1] && g[i+1] > g[i] {
			return r[i], Coordination(r, g, rho)[i], nil
		}
	}
	return math.NaN(), math.NaN(), corr.NewInsufficientDataError(c, "minima after the main peak", 1, 0)
}
