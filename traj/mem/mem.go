/*
 * mem.go, part of gocorr.
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

// Package mem implements trajectories held in memory, and generators of
// synthetic trajectories with known properties, for testing.
package mem

import (
	"fmt"
	"math"
	"math/rand"

	corr "github.com/rmera/gocorr"
	v3 "github.com/rmera/gocorr/v3"
)

// Traj is a trajectory held in memory. It implements corr.Traj,
// corr.Rewinder and corr.Unwrapper.
type Traj struct {
	Confs     []*corr.Configuration
	unwrapped bool
	//Frames whose reading fails with a non-critical error, to test
	//the handling of corrupt frames.
	Corrupt map[int]bool
	next    int
}

// New returns a trajectory with the given configurations. If unwrapped is true,
// the coordinates are reported as unwrapped.
func New(confs []*corr.Configuration, unwrapped bool) *Traj {
	return &Traj{Confs: confs, unwrapped: unwrapped}
}

func (T *Traj) Readable() bool { return T.next < len(T.Confs) }
func (T *Traj) Unwrapped() bool { return T.unwrapped }
func (T *Traj) Frames() int { return len(T.Confs) }
func (T *Traj) Rewind() error {
	T.next = 0
	return nil
}

// Len returns the number of particles per frame.
func (T *Traj) Len() int {
	if len(T.Confs) == 0 {
		return 0
	}
	return T.Confs[0].Len()
}

// Next copies the next configuration into out, which may be nil.
func (T *Traj) Next(out *corr.Configuration) error {
	if T.next >= len(T.Confs) {
		return &lastFrameError{}
	}
	f := T.next
	T.next++
	if T.Corrupt[f] {
		return &Error{fmt.Sprintf("frame %d is corrupt", f), []string{"Next"}, false}
	}
	if out == nil {
		return nil
	}
	c := T.Confs[f]
	if out.Coords == nil || out.Coords.NVecs() != c.Len() {
		out.Coords = v3.Zeros(c.Len())
	}
	out.Coords.CopyFrom(c.Coords)
	out.Vels = cloneOrNil(c.Vels, out.Vels)
	if T.unwrapped {
		out.Unwrapped = cloneOrNil(c.Coords, out.Unwrapped)
	} else {
		out.Unwrapped = nil
	}
	out.Species = append(out.Species[:0], c.Species...)
	out.Box = c.Box
	out.Step = c.Step
	out.Time = c.Time
	return nil
}

func cloneOrNil(src, dst *v3.Matrix) *v3.Matrix {
	if src == nil {
		return nil
	}
	if dst == nil || dst.NVecs() != src.NVecs() {
		return src.Clone()
	}
	dst.CopyFrom(src)
	return dst
}

// Error is the error of an in-memory trajectory. It implements corr.TrajError.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err *Error) Error() string { return "mem trajectory: " + err.message }

func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err *Error) Critical() bool { return err.critical }
func (err *Error) FileName() string { return "" }
func (err *Error) Format() string { return "mem" }

// lastFrameError implements corr.LastFrameError
type lastFrameError struct {
	deco []string
}

func (E *lastFrameError) Error() string { return "EOF" }
func (E *lastFrameError) Critical() bool { return false }
func (E *lastFrameError) FileName() string { return "" }
func (E *lastFrameError) Format() string { return "mem" }
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// Generators

// Labels returns n species labels, the first nA "A" and the rest "B".
func Labels(n, nA int) []string {
	ret := make([]string, n)
	for i := range ret {
		ret[i] = "B"
		if i < nA {
			ret[i] = "A"
		}
	}
	return ret
}

func newConf(species []string, box corr.Box, frame int, dt float64) *corr.Configuration {
	c := corr.NewConfiguration(len(species))
	copy(c.Species, species)
	c.Box = box
	c.Step = frame
	c.Time = float64(frame) * dt
	return c
}

// wrapInto folds x into [0,L).
func wrapInto(x, L float64) float64 {
	x -= L * math.Floor(x/L)
	if x >= L {
		x = 0
	}
	return x
}

// RandomWalk returns a Brownian trajectory: every particle starts at a random
// position in a cubic box of side L and, in each frame, moves by a gaussian
// displacement of variance 2·D·dt per axis, so the mean square displacement is
// 6·D·t. The coordinates are folded into the box unless unwrapped is true.
// Velocities are the displacement of the next step divided by dt.
func RandomWalk(r *rand.Rand, species []string, L, D, dt float64, frames int, unwrapped bool) *Traj {
	n := len(species)
	box := corr.Box{Sides: [3]float64{L, L, L}}
	sd := math.Sqrt(2 * D * dt)
	pos := make([][3]float64, n)
	for i := range pos {
		for j := range pos[i] {
			pos[i][j] = r.Float64() * L
		}
	}
	confs := make([]*corr.Configuration, frames)
	for f := range confs {
		c := newConf(species, box, f, dt)
		c.Vels = v3.Zeros(n)
		for i := range pos {
			var step [3]float64
			for j := range step {
				step[j] = r.NormFloat64() * sd
			}
			p := pos[i]
			if !unwrapped {
				for j := range p {
					p[j] = wrapInto(p[j], L)
				}
			}
			c.Coords.SetVec(i, p)
			c.Vels.SetVec(i, [3]float64{step[0] / dt, step[1] / dt, step[2] / dt})
			for j := range step {
				pos[i][j] += step[j]
			}
		}
		confs[f] = c
	}
	return New(confs, unwrapped)
}

// Lattice returns a trajectory of frames copies of a simple cubic lattice with
// cells per side sites of spacing a. Each particle gets a random displacement
// of at most jitter per axis, different in each frame. Species are assigned by
// the labels function, given the site index.
func Lattice(r *rand.Rand, cells int, a, jitter float64, frames int, label func(i int) string) *Traj {
	n := cells * cells * cells
	L := float64(cells) * a
	box := corr.Box{Sides: [3]float64{L, L, L}}
	species := make([]string, n)
	for i := range species {
		species[i] = label(i)
	}
	confs := make([]*corr.Configuration, frames)
	for f := range confs {
		c := newConf(species, box, f, 1)
		i := 0
		for x := 0; x < cells; x++ {
			for y := 0; y < cells; y++ {
				for z := 0; z < cells; z++ {
					p := [3]float64{float64(x) * a, float64(y) * a, float64(z) * a}
					for j := range p {
						p[j] = wrapInto(p[j]+(2*r.Float64()-1)*jitter, L)
					}
					c.Coords.SetVec(i, p)
					i++
				}
			}
		}
		confs[f] = c
	}
	return New(confs, false)
}

// IdealGas returns frames independent configurations of n particles placed
// uniformly at random in a cubic box of side L.
func IdealGas(r *rand.Rand, species []string, L float64, frames int) *Traj {
	box := corr.Box{Sides: [3]float64{L, L, L}}
	confs := make([]*corr.Configuration, frames)
	for f := range confs {
		c := newConf(species, box, f, 1)
		for i := range species {
			c.Coords.SetVec(i, [3]float64{r.Float64() * L, r.Float64() * L, r.Float64() * L})
		}
		confs[f] = c
	}
	return New(confs, false)
}
