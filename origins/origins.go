/*
 * origins.go, part of gocorr.
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

// Package origins selects the trajectory frames used as time origins and the
// lags at which two-time quantities are evaluated.
package origins

import (
	"math"

	"gonum.org/v1/gonum/floats"

	corr "github.com/rmera/gocorr"
)

// Heuristic returns the spacing, in frames, between consecutive origins
// when no explicit count or fraction is given.
type Heuristic func(total, maxOrigins, minSpacing int) int

// DefaultHeuristic spaces origins evenly so that at most maxOrigins of them
// cover the whole trajectory, but never closer than minSpacing. A short
// trajectory gets an origin at every frame.
func DefaultHeuristic(total, maxOrigins, minSpacing int) int {
	s := (total + maxOrigins - 1) / maxOrigins
	if s < minSpacing {
		s = minSpacing
	}
	if s < 1 {
		s = 1
	}
	return s
}

// Policy holds the parameters of the origin selection.
type Policy struct {
	MaxOrigins int
	MinSpacing int
	Count      int     //explicit number of origins, 0 for none
	Fraction   float64 //explicit fraction of the frames, 0 for none
	Strict     bool    //fail instead of clamping
	Heuristic  Heuristic
}

// PolicyFromOptions takes the origin policy from the options of a computation,
// with the default heuristic.
func PolicyFromOptions(o corr.Options) Policy {
	return Policy{
		MaxOrigins: o.MaxOrigins,
		MinSpacing: o.MinOriginSpacing,
		Count:      o.OriginCount,
		Fraction:   o.OriginFraction,
		Strict:     o.StrictOrigins,
		Heuristic:  DefaultHeuristic,
	}
}

// Select returns a strictly increasing set of frame indices in [0,total), with
// at most p.MaxOrigins elements, consecutive ones at least p.MinSpacing apart.
// An explicit Count or Fraction is honored by uniformly subsampling the frames,
// clamped to what the spacing and the maximum allow (unless p.Strict is set,
// in which case it is an error to ask for too many).
func Select(total int, p Policy) ([]int, error) {
	c := "origins.Select"
	if total <= 0 {
		return nil, corr.NewConfigurationError(c, "the trajectory has no frames")
	}
	if p.MaxOrigins <= 0 {
		return nil, corr.NewConfigurationError(c, "max_origins must be positive, got %d", p.MaxOrigins)
	}
	if p.MinSpacing < 1 {
		p.MinSpacing = 1
	}
	if p.Strict && p.MaxOrigins > total {
		return nil, corr.NewConfigurationError(c, "max_origins (%d) exceeds the number of frames (%d)", p.MaxOrigins, total)
	}
	count := p.Count
	if p.Fraction > 0 {
		count = int(math.Round(p.Fraction * float64(total)))
		if count < 1 {
			count = 1
		}
	}
	if count > 0 {
		//most origins that fit with the required spacing, as
		//floor(i*total/count) is spaced by at least floor(total/count)
		fit := max(total/p.MinSpacing, 1)
		limit := min(fit, p.MaxOrigins)
		if count > limit {
			if p.Strict {
				return nil, corr.NewConfigurationError(c, "%d origins requested but only %d fit in %d frames with spacing %d and max_origins %d", count, limit, total, p.MinSpacing, p.MaxOrigins)
			}
			count = limit
		}
		ret := make([]int, count)
		for i := range ret {
			ret[i] = i * total / count
		}
		return ret, nil
	}
	h := p.Heuristic
	if h == nil {
		h = DefaultHeuristic
	}
	s := h(total, p.MaxOrigins, p.MinSpacing)
	if s < p.MinSpacing {
		s = p.MinSpacing
	}
	ret := make([]int, 0, min(p.MaxOrigins, total/s+1))
	for i := 0; i < total && len(ret) < p.MaxOrigins; i += s {
		ret = append(ret, i)
	}
	return ret, nil
}

// DefaultMaxLag returns the largest lag used when none is given: 3/4 of the
// trajectory, as longer lags have too few origins to be meaningful.
func DefaultMaxLag(total int) int {
	return (3 * (total - 1)) / 4
}

// MaxLag resolves the requested maximum lag against a trajectory of total frames.
// If the request can't be honored, the lag is truncated and an
// *corr.InsufficientDataError describing the truncation is returned along with it.
func MaxLag(requested, total int) (int, *corr.InsufficientDataError) {
	if requested == corr.NoMaxLag {
		return DefaultMaxLag(total), nil
	}
	if requested > total-1 {
		return total - 1, corr.NewInsufficientDataError("origins.MaxLag", "maximum lag (frames)", requested, total-1)
	}
	return requested, nil
}

// Lags returns the lags, in frames, from 0 to maxLag. With samples<=0 every lag
// is returned, otherwise about samples lags, evenly spaced in logarithm, after
// rounding to whole frames and removing duplicates. 0 and maxLag are always
// included.
func Lags(maxLag, samples int) []int {
	if maxLag < 0 {
		return nil
	}
	if samples <= 0 || samples >= maxLag+1 {
		ret := make([]int, maxLag+1)
		for i := range ret {
			ret[i] = i
		}
		return ret
	}
	ret := []int{0}
	if maxLag == 0 {
		return ret
	}
	n := max(samples-1, 2)
	grid := floats.LogSpan(make([]float64, n), 1, float64(maxLag))
	for _, v := range grid {
		l := int(math.Round(v))
		if l > ret[len(ret)-1] {
			ret = append(ret, l)
		}
	}
	if ret[len(ret)-1] != maxLag {
		ret = append(ret, maxLag)
	}
	return ret
}
