/*
 * gr.go, part of gocorr.
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
	"math"

	"gonum.org/v1/gonum/floats"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/accum"
	"github.com/rmera/gocorr/corrstat"
	"github.com/rmera/gocorr/histo"
	"github.com/rmera/gocorr/partial"
)

// gr is the radial distribution function. Each unordered pair of particles
// is counted once, and the histogram of each species pair is normalized by
// the number of pairs of that species pair expected in the shell for an ideal
// gas at the same density.
type gr struct {
	base
	rmax     float64
	dividers []float64
	shells   []float64 //volume of each shell
	volume   float64   //of the first cell
}

func (g *gr) Space() Space { return RealSpace }
func (g *gr) Order() Order { return Static }
func (g *gr) WindowLen() int { return 1 }

func (g *gr) Setup(first *corr.Configuration, species *partial.Species) error {
	c := "corrfn.gr.Setup"
	g.setup(species)
	g.volume = first.Box.Volume()
	half := first.Box.MinSide() / 2
	g.rmax = g.opts.RMax
	if g.rmax == 0 {
		g.rmax = half
	}
	if g.rmax > half*(1+1e-12) {
		return corr.NewConfigurationError(c, "r_max (%g) is larger than half the shortest side of the cell (%g)", g.rmax, half)
	}
	nbins := int(math.Floor(g.rmax/g.opts.RBinWidth + 1e-9))
	if nbins < 1 {
		return corr.NewConfigurationError(c, "r_bin_width (%g) is larger than r_max (%g)", g.opts.RBinWidth, g.rmax)
	}
	g.rmax = float64(nbins) * g.opts.RBinWidth
	g.dividers = floats.Span(make([]float64, nbins+1), 0, g.rmax)
	g.shells = make([]float64, nbins)
	for i := range g.shells {
		r0, r1 := g.dividers[i], g.dividers[i+1]
		g.shells[i] = 4 * math.Pi / 3 * (r1*r1*r1 - r0*r0*r0)
	}
	return nil
}

func (g *gr) Compute(w Window, acc *accum.Accumulator) error {
	conf := w.Origin
	box := conf.Box
	if g.rmax > box.MinSide()/2*(1+1e-12) {
		return corr.NewGeometryError("corrfn.gr.Compute", w.Frame, "the cell %v is too small for r_max %g", box.Sides, g.rmax)
	}
	S := g.species
	nkeys := S.NKeys(partial.Pair)
	H := histo.NewMatrix(nkeys, 1, g.dividers)
	n := conf.Len()
	for i := 0; i < n; i++ {
		pi := conf.Coords.Vec(i)
		si := S.Of(i)
		for j := i + 1; j < n; j++ {
			d := corr.MinImageDistance(box, pi, conf.Coords.Vec(j))
			if d >= g.rmax {
				continue
			}
			H.AddData(S.KeyIndex(partial.Pair, si, S.Of(j)), 0, d)
		}
	}
	col := g.collector(len(g.shells), 1)
	for k := 0; k < nkeys; k++ {
		for bin, count := range H.View(k, 0).View() {
			col.Add(bin, 0, k, count)
		}
	}
	V := box.Volume()
	col.Emit(acc, w.LagIndex, g.partials(), func(bin, ch int) float64 {
		return V / g.shells[bin]
	})
	return nil
}

func (g *gr) Finalize(acc *accum.Accumulator, lags []Lag) ([]*corr.Result, error) {
	ret := g.table(acc, 0, []string{"r", "g(r)"}, func(e accum.Entry) []float64 {
		return []float64{(g.dividers[e.Bin] + g.dividers[e.Bin+1]) / 2}
	}, nil)
	for _, r := range ret {
		rmin, n, err := corrstat.FirstShell(r.Var(0), r.Values(), g.partnerDensity(r.Pair))
		if err != nil {
			continue
		}
		r.Info["r_shell"] = rmin
		r.Info["coordination"] = n
	}
	return ret, nil
}

// partnerDensity is the number density of the neighbours counted around a
// particle of the first species of p, other than itself.
func (g *gr) partnerDensity(p corr.PairKey) float64 {
	S := g.species
	if p.IsTotal() {
		return float64(S.N-1) / g.volume
	}
	var na, nb float64
	for i, name := range S.Names {
		if name == p.A {
			na = float64(S.Counts[i])
		}
		if name == p.B {
			nb = float64(S.Counts[i])
		}
	}
	if p.A == p.B {
		return (na - 1) / g.volume
	}
	return nb / g.volume
}
