/*
 * sk.go, part of gocorr.
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
	"math/cmplx"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/accum"
	"github.com/rmera/gocorr/kgrid"
	"github.com/rmera/gocorr/partial"
)

// reciprocal holds the wavevector grid shared by the functions computed in
// reciprocal space.
type reciprocal struct {
	grid *kgrid.Grid
}

func (r *reciprocal) Space() Space { return Reciprocal }

func (r *reciprocal) setupGrid(first *corr.Configuration, o corr.Options) error {
	g, err := kgrid.Build(first.Box, kgrid.ParamsFromOptions(o))
	if err != nil {
		return err
	}
	r.grid = g
	return nil
}

func (r *reciprocal) scale(bin, ch int) float64 {
	return 1 / float64(len(r.grid.Bins[bin].Vectors))
}

// rhos returns the density modes of each species for every vector of the
// grid, as [bin][vector][species].
func (r *reciprocal) rhos(tab *kgrid.Table, S *partial.Species) [][][]complex128 {
	ret := make([][][]complex128, len(r.grid.Bins))
	for b, bin := range r.grid.Bins {
		ret[b] = make([][]complex128, len(bin.Vectors))
		for v, n := range bin.Vectors {
			ret[b][v] = make([]complex128, len(S.Names))
			for s, members := range S.Members {
				ret[b][v][s] = tab.Rho(n, members)
			}
		}
	}
	return ret
}

// addModes adds Re(ρ_a(t)ρ_a(0)*) to the like keys and
// Re(ρ_a(t)ρ_b(0)*)+Re(ρ_b(t)ρ_a(0)*) to the unlike ones.
func addModes(col *partial.Collector, bin int, rt, r0 []complex128) {
	S := col.S
	for a := range rt {
		col.Add(bin, 0, S.KeyIndex(partial.Collective, a, a), real(rt[a]*cmplx.Conj(r0[a])))
		for b := a + 1; b < len(rt); b++ {
			v := real(rt[a]*cmplx.Conj(r0[b])) + real(rt[b]*cmplx.Conj(r0[a]))
			col.Add(bin, 0, S.KeyIndex(partial.Collective, a, b), v)
		}
	}
}

// sk is the static structure factor, |ρ(k)|²/N averaged over the vectors
// of each shell.
type sk struct {
	base
	reciprocal
}

func (s *sk) Order() Order { return Static }
func (s *sk) WindowLen() int { return 1 }

func (s *sk) Setup(first *corr.Configuration, species *partial.Species) error {
	s.setup(species)
	return s.setupGrid(first, s.opts)
}

func (s *sk) Compute(w Window, acc *accum.Accumulator) error {
	conf := w.Origin
	if err := sameBox(s.grid.Box, conf, w.Frame, s.tag); err != nil {
		return err
	}
	tab := kgrid.Tabulate(conf.Coords, s.grid.Box, s.grid.NMax)
	col := s.collector(len(s.grid.Bins), 1)
	for b, modes := range s.rhos(tab, s.species) {
		for _, m := range modes {
			addModes(col, b, m, m)
		}
	}
	col.Emit(acc, w.LagIndex, s.partials(), s.scale)
	return nil
}

func (s *sk) Finalize(acc *accum.Accumulator, lags []Lag) ([]*corr.Result, error) {
	like := func(p corr.PairKey) bool { return p.IsTotal() || p.Like() }
	ret := s.table(acc, 0, []string{"k", "S(k)"}, func(e accum.Entry) []float64 {
		return []float64{s.grid.Bins[e.Bin].K}
	}, func(e accum.Entry) (float64, float64, bool) {
		if s.opts.SubtractSelf && like(e.Pair) {
			return e.Mean - 1, e.Err, true
		}
		return e.Mean, e.Err, true
	})
	return ret, nil
}
