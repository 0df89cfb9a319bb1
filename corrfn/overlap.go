/*
 * overlap.go, part of gocorr.
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

package corrfn

import (
	"gonum.org/v1/gonum/floats"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/accum"
	"github.com/rmera/gocorr/histo"
	"github.com/rmera/gocorr/partial"
)

// overlap holds the collective overlap functions. A particle i at the origin
// and a particle j at the later time overlap if the minimum-image distance
// between them is below the overlap cutoff; i==j counts too.
//
// qt averages the number of overlapping pairs per particle over origins, as a
// function of the lag. pq is the distribution of that number over all the
// origin-lag windows whose self overlap is below OverlapSelfMax, that is,
// whose configurations have decorrelated from each other.
type overlap struct {
	base
	dividers []float64
	width    float64
}

func (ov *overlap) Space() Space { return RealSpace }
func (ov *overlap) Order() Order { return TwoTime }
func (ov *overlap) WindowLen() int { return 2 }

func (ov *overlap) Setup(first *corr.Configuration, species *partial.Species) error {
	ov.setup(species)
	if a := ov.opts.OverlapCutoff; a >= first.Box.MinSide()/2 {
		return corr.NewConfigurationError("corrfn.overlap.Setup", "overlap_cutoff (%g) must be smaller than half the shortest side of the cell (%g)", a, first.Box.MinSide()/2)
	}
	if ov.tag == PQ {
		n := ov.opts.OverlapBins
		ov.dividers = floats.Span(make([]float64, n+1), 0, ov.opts.OverlapQMax)
		ov.width = ov.opts.OverlapQMax / float64(n)
	}
	return nil
}

// counts returns the number of overlapping pairs, added by species pair to
// col if it is not nil, and the number of particles overlapping themselves.
func (ov *overlap) counts(w Window, col *partial.Collector) (float64, float64) {
	S := ov.species
	box := w.Lagged.Box
	a := ov.opts.OverlapCutoff
	p0, pt := w.Origin.Coords, w.Lagged.Coords
	var all, self float64
	for i := 0; i < S.N; i++ {
		r0 := p0.Vec(i)
		si := S.Of(i)
		for j := 0; j < S.N; j++ {
			if corr.MinImageDistance(box, r0, pt.Vec(j)) >= a {
				continue
			}
			all++
			if i == j {
				self++
			}
			if col != nil {
				col.Add(0, 0, S.KeyIndex(partial.Collective, si, S.Of(j)), 1)
			}
		}
	}
	return all, self
}

func (ov *overlap) Compute(w Window, acc *accum.Accumulator) error {
	if w.Origin.Len() != ov.species.N || w.Lagged.Len() != ov.species.N {
		return corr.NewGeometryError("corrfn.overlap.Compute", w.Frame, "expected %d particles", ov.species.N)
	}
	if ov.tag == QT {
		col := ov.collector(1, 1)
		ov.counts(w, col)
		col.Emit(acc, w.LagIndex, ov.partials(), nil)
		return nil
	}
	n := float64(ov.species.N)
	all, self := ov.counts(w, nil)
	accepted := self/n < ov.opts.OverlapSelfMax
	frac := 0.0
	if accepted {
		frac = 1
	}
	acc.Add(accum.Key{Channel: 1, Pair: corr.TotalKey}, frac)
	if !accepted {
		return nil
	}
	h := histo.NewData(ov.dividers, nil)
	h.AddData(all / n)
	for bin, c := range h.View() {
		acc.Add(accum.Key{Bin: bin, Pair: corr.TotalKey}, c/ov.width)
	}
	return nil
}

func (ov *overlap) Finalize(acc *accum.Accumulator, lags []Lag) ([]*corr.Result, error) {
	if ov.tag == QT {
		return ov.table(acc, 0, []string{"t", "Q"}, timeVar(lags), nil), nil
	}
	ret := ov.table(acc, 0, []string{"q", "P(q)"}, func(e accum.Entry) []float64 {
		return []float64{(ov.dividers[e.Bin] + ov.dividers[e.Bin+1]) / 2}
	}, nil)
	if len(ret) == 0 {
		ret = []*corr.Result{ov.newResult(corr.TotalKey, "q", "P(q)")}
	}
	if st, ok := acc.Get(accum.Key{Channel: 1, Pair: corr.TotalKey}); ok {
		ret[0].Info["accepted"] = st.Mean()
		ret[0].Info["windows"] = float64(st.N)
	}
	return ret, nil
}
