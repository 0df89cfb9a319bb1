/*
 * displacement.go, part of gocorr.
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

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/accum"
	"github.com/rmera/gocorr/corrstat"
	"github.com/rmera/gocorr/partial"
)

// displacement gathers the single-particle functions of the displacement
// (or velocity) between an origin and a later configuration: msd, alpha2,
// qs, chi4 and vacf.
type displacement struct {
	base
	channels   int
	unwrapped  bool
	velocities bool
	ndim       float64
}

func (d *displacement) Space() Space { return RealSpace }
func (d *displacement) Order() Order { return TwoTime }
func (d *displacement) WindowLen() int { return 2 }
func (d *displacement) NeedsUnwrapped() bool { return d.unwrapped }
func (d *displacement) NeedsVelocities() bool { return d.velocities }

func (d *displacement) Setup(first *corr.Configuration, species *partial.Species) error {
	d.setup(species)
	d.ndim = 3
	if d.velocities && first.Vels == nil {
		return corr.NewConfigurationError("corrfn.Setup", "%s needs velocities, the trajectory has none", d.tag)
	}
	return nil
}

func (d *displacement) Compute(w Window, acc *accum.Accumulator) error {
	S := d.species
	col := d.collector(1, d.channels)
	if d.velocities {
		v0, vt := w.Origin.Vels, w.Lagged.Vels
		if v0 == nil || vt == nil {
			return corr.NewGeometryError("corrfn.vacf.Compute", w.Frame, "missing velocities at lag %d", w.Lag)
		}
		for j := 0; j < S.N; j++ {
			a, b := v0.Vec(j), vt.Vec(j)
			col.Add(0, 0, S.Of(j), a[0]*b[0]+a[1]*b[1]+a[2]*b[2])
		}
		col.Emit(acc, w.LagIndex, d.partials(), nil)
		return nil
	}
	p0, pt := w.Origin.Positions(d.unwrapped), w.Lagged.Positions(d.unwrapped)
	if p0 == nil || pt == nil {
		return corr.NewGeometryError("corrfn.Compute", w.Frame, "%s needs unwrapped coordinates", d.tag)
	}
	a2 := d.opts.OverlapCutoff * d.opts.OverlapCutoff
	for j := 0; j < S.N; j++ {
		r0, rt := p0.Vec(j), pt.Vec(j)
		dx, dy, dz := rt[0]-r0[0], rt[1]-r0[1], rt[2]-r0[2]
		dr2 := dx*dx + dy*dy + dz*dz
		s := S.Of(j)
		switch d.tag {
		case MSD:
			col.Add(0, 0, s, dr2)
		case Alpha2:
			col.Add(0, 0, s, dr2)
			col.Add(0, 1, s, dr2*dr2)
		case QS, CHI4:
			if dr2 < a2 {
				col.Add(0, 0, s, 1)
			}
		}
	}
	col.Emit(acc, w.LagIndex, d.partials(), nil)
	return nil
}

func timeVar(lags []Lag) func(e accum.Entry) []float64 {
	return func(e accum.Entry) []float64 {
		return []float64{lagTime(lags, e.Lag)}
	}
}

func (d *displacement) Finalize(acc *accum.Accumulator, lags []Lag) ([]*corr.Result, error) {
	switch d.tag {
	case MSD:
		ret := d.table(acc, 0, []string{"t", "msd"}, timeVar(lags), nil)
		for _, r := range ret {
			dc, err := corrstat.Diffusion(r, d.ndim, d.opts.DiffusionSigma)
			if err == nil {
				r.Info["D"] = dc
			}
		}
		return ret, nil
	case QS:
		ret := d.table(acc, 0, []string{"t", "Q_s"}, timeVar(lags), nil)
		for _, r := range ret {
			if tau, err := corrstat.Tau(r.Var(0), r.Values()); err == nil {
				r.Info["tau"] = tau
			}
		}
		return ret, nil
	case VACF:
		return d.table(acc, 0, []string{"t", "Z"}, timeVar(lags), nil), nil
	case Alpha2:
		ret := d.table(acc, 0, []string{"t", "alpha2"}, timeVar(lags), func(e accum.Entry) (float64, float64, bool) {
			r4, ok := acc.Get(accum.Key{Bin: e.Bin, Lag: e.Lag, Channel: 1, Pair: e.Pair})
			if !ok || e.Mean == 0 {
				return 0, 0, false
			}
			return 3*r4.Mean()/(5*e.Mean*e.Mean) - 1, math.NaN(), true
		})
		peaks(ret)
		return ret, nil
	case CHI4:
		ret := d.table(acc, 0, []string{"t", "chi4"}, timeVar(lags), func(e accum.Entry) (float64, float64, bool) {
			st, _ := acc.Get(e.Key)
			return d.particles(e.Pair) * st.PopVariance(), math.NaN(), true
		})
		peaks(ret)
		return ret, nil
	}
	return nil, nil
}

// particles returns the number of particles behind the key.
func (d *displacement) particles(p corr.PairKey) float64 {
	if p.IsTotal() {
		return float64(d.species.N)
	}
	return d.species.Norm(partial.Single, d.keys[p])
}

func peaks(rs []*corr.Result) {
	for _, r := range rs {
		if t, h, err := corrstat.Peak(r.Var(0), r.Values()); err == nil {
			r.Info["t_peak"] = t
			r.Info["peak"] = h
		}
	}
}
