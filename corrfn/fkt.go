/*
 * fkt.go, part of gocorr.
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
	"fmt"
	"math"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/accum"
	"github.com/rmera/gocorr/corrstat"
	"github.com/rmera/gocorr/kgrid"
	"github.com/rmera/gocorr/partial"
	v3 "github.com/rmera/gocorr/v3"
)

// fkt is the self (F_s) or collective (F) intermediate scattering function.
// F_s(k,t) is the average over particles and shell vectors of
// Re exp(i k·Δr_j(t)). F(k,t) is Re(ρ(k,t)ρ(k,0)*)/N averaged over the shell
// vectors, and is divided by its value at t=0, that is S(k), when
// NormalizeCollective is set.
//
// The grid vectors are commensurate with the cell, so wrapped coordinates
// give the same result as unwrapped ones.
type fkt struct {
	base
	reciprocal
	collective bool
}

func (f *fkt) Order() Order { return TwoTime }

func (f *fkt) WindowLen() int { return 2 }

func (f *fkt) Setup(first *corr.Configuration, species *partial.Species) error {
	f.setup(species)
	return f.setupGrid(first, f.opts)
}

func (f *fkt) Compute(w Window, acc *accum.Accumulator) error {
	for _, c := range []*corr.Configuration{w.Origin, w.Lagged} {
		if err := sameBox(f.grid.Box, c, w.Frame, f.tag); err != nil {
			return err
		}
	}
	col := f.collector(len(f.grid.Bins), 1)
	if f.collective {
		t0 := kgrid.Tabulate(w.Origin.Coords, f.grid.Box, f.grid.NMax)
		tt := kgrid.Tabulate(w.Lagged.Coords, f.grid.Box, f.grid.NMax)
		r0, rt := f.rhos(t0, f.species), f.rhos(tt, f.species)
		for b := range r0 {
			for v := range r0[b] {
				addModes(col, b, rt[b][v], r0[b][v])
			}
		}
		col.Emit(acc, w.LagIndex, f.partials(), f.scale)
		return nil
	}
	disp := v3.Zeros(f.species.N)
	disp.Sub(w.Lagged.Coords, w.Origin.Coords)
	tab := kgrid.Tabulate(disp, f.grid.Box, f.grid.NMax)
	for b, bin := range f.grid.Bins {
		for _, n := range bin.Vectors {
			for j := 0; j < f.species.N; j++ {
				col.Add(b, 0, f.species.Of(j), real(tab.Term(j, n)))
			}
		}
	}
	col.Emit(acc, w.LagIndex, f.partials(), f.scale)
	return nil
}

func (f *fkt) Finalize(acc *accum.Accumulator, lags []Lag) ([]*corr.Result, error) {
	name := "F_s(k,t)"
	if f.collective {
		name = "F(k,t)"
	}
	var value func(e accum.Entry) (float64, float64, bool)
	if f.collective && f.opts.NormalizeCollective {
		value = func(e accum.Entry) (float64, float64, bool) {
			k0 := e.Key
			k0.Lag = 0
			s0, ok := acc.Get(k0)
			if !ok || s0.Mean() == 0 {
				return 0, 0, false
			}
			return e.Mean / s0.Mean(), e.Err / math.Abs(s0.Mean()), true
		}
	}
	ret := f.table(acc, 0, []string{"k", "t", name}, func(e accum.Entry) []float64 {
		return []float64{f.grid.Bins[e.Bin].K, lagTime(lags, e.Lag)}
	}, value)
	for _, r := range ret {
		for _, g := range r.Split() {
			tau, err := corrstat.Tau(g.Var(0), g.Values())
			if err != nil {
				continue
			}
			r.Info[fmt.Sprintf("tau(k=%.4g)", g.Info["k"])] = tau
		}
	}
	return ret, nil
}
