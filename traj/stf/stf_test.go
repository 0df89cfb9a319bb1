/*
 * stf_test.go, part of gocorr.
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

package stf

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/corrfn"
	"github.com/rmera/gocorr/engine"
	"github.com/rmera/gocorr/traj/mem"
	v3 "github.com/rmera/gocorr/v3"
)

func testConfs(n, frames int) []*corr.Configuration {
	ret := make([]*corr.Configuration, frames)
	for f := range ret {
		c := corr.NewConfiguration(n)
		c.Vels = v3.Zeros(n)
		for i := 0; i < n; i++ {
			c.Coords.SetVec(i, [3]float64{float64(i) + 0.125*float64(f), -1.5 * float64(i), 0.001 * float64(f)})
			c.Vels.SetVec(i, [3]float64{0.5, -0.25, float64(f)})
			if i%2 == 1 {
				c.Species[i] = "B"
			}
		}
		c.Box = corr.Box{Sides: [3]float64{10, 11, 12 + float64(f)}}
		c.Step = 100 * f
		c.Time = 0.5 * float64(f)
		ret[f] = c
	}
	return ret
}

// Writes a trajectory and reads it back.
func TestSTFRoundTrip(Te *testing.T) {
	for _, name := range []string{"test.stf", "test.stz"} {
		path := filepath.Join(Te.TempDir(), name)
		confs := testConfs(5, 4)
		w, err := NewWriter(path, 5, Header(confs[0].Species, true, true, 4))
		if err != nil {
			Te.Fatal(err)
		}
		for _, c := range confs {
			if err := w.WNext(c); err != nil {
				Te.Fatal(err)
			}
		}
		if err := w.Close(); err != nil {
			Te.Fatal(err)
		}
		r, h, err := New(path)
		if err != nil {
			Te.Fatal(err)
		}
		if h[KeyPrec] != "4" || !r.Unwrapped() {
			Te.Errorf("wrong header %v", h)
		}
		if f := r.Frames(); f != 4 {
			Te.Errorf("expected 4 frames, got %d", f)
		}
		c := corr.NewConfiguration(5)
		for f := 0; ; f++ {
			err := r.Next(c)
			if err != nil {
				if _, ok := err.(corr.LastFrameError); ok {
					if f != 4 {
						Te.Errorf("read %d frames, expected 4", f)
					}
					break
				}
				Te.Fatal(err)
			}
			want := confs[f]
			if c.Step != want.Step || c.Time != want.Time || c.Box != want.Box {
				Te.Errorf("frame %d: stamp or box %d %g %v, expected %d %g %v", f, c.Step, c.Time, c.Box, want.Step, want.Time, want.Box)
			}
			for i := 0; i < 5; i++ {
				a, b := c.Coords.Vec(i), want.Coords.Vec(i)
				va, vb := c.Vels.Vec(i), want.Vels.Vec(i)
				for j := range a {
					if math.Abs(a[j]-b[j]) > 1e-4 || math.Abs(va[j]-vb[j]) > 1e-4 {
						Te.Errorf("frame %d particle %d: %v %v, expected %v %v", f, i, a, va, b, vb)
					}
				}
				if c.Species[i] != want.Species[i] {
					Te.Errorf("particle %d has species %s, expected %s", i, c.Species[i], want.Species[i])
				}
			}
			if c.Unwrapped == nil || c.Unwrapped.At(3, 0) != c.Coords.At(3, 0) {
				Te.Errorf("unwrapped coordinates not set")
			}
		}
		if err := r.Rewind(); err != nil {
			Te.Fatal(err)
		}
		if err := r.Next(c); err != nil || c.Step != 0 {
			Te.Errorf("after rewind: %v, step %d", err, c.Step)
		}
		r.Close()
	}
}

// A malformed frame is skipped with a non-critical error.
func TestSTFCorruptFrame(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "bad.stf")
	w, err := NewWriter(path, 2, map[string]string{KeyPrec: "2", KeyBox: "5 5 5"})
	if err != nil {
		Te.Fatal(err)
	}
	//write the frames by hand, the second one broken.
	text := "# 0 0\n1 2 3\n4 5 6\n*\n# 1 1\n1 2 x\n4 5 6\n*\n# 2 2\n7 8 9\n1 1 1\n* 6 6 6\n"
	if _, err := w.h.Write([]byte(text)); err != nil {
		Te.Fatal(err)
	}
	w.Close()
	r, _, err := New(path)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	c := corr.NewConfiguration(2)
	if err := r.Next(c); err != nil {
		Te.Fatal(err)
	}
	if c.Box.Sides != [3]float64{5, 5, 5} || c.Coords.At(1, 2) != 0.06 {
		Te.Errorf("first frame read wrong: %v %v", c.Box, c.Coords)
	}
	err = r.Next(c)
	e, ok := err.(corr.Error)
	if !ok || e.Critical() {
		Te.Fatalf("expected a non-critical error, got %v", err)
	}
	if err := r.Next(c); err != nil {
		Te.Fatal(err)
	}
	if c.Step != 2 || c.Box.Sides != [3]float64{6, 6, 6} {
		Te.Errorf("third frame read wrong: step %d box %v", c.Step, c.Box)
	}
}

func TestSTFMissingFile(Te *testing.T) {
	_, _, err := New(filepath.Join(os.TempDir(), "surely-not-here.stf"))
	if _, ok := err.(corr.TrajError); !ok {
		Te.Errorf("expected a TrajError, got %v", err)
	}
}

func engineMSD(Te *testing.T, o corr.Options, tr corr.Traj) []float64 {
	e, err := engine.New(o, corrfn.MustNew(corrfn.MSD, o), corrfn.MustNew(corrfn.GR, o))
	if err != nil {
		Te.Fatal(err)
	}
	rep, err := e.Run(context.Background(), tr)
	if err != nil {
		Te.Fatal(err)
	}
	for _, r := range rep.Results {
		if r.Name == "msd" && r.Pair.IsTotal() {
			return r.Values()
		}
	}
	Te.Fatal("no msd in the report")
	return nil
}

// The engine reads STF files into configurations it does not allocate, and
// gets the same MSD as from the trajectory that was written, in both
// unwrapping modes.
func TestSTFThroughEngine(Te *testing.T) {
	walk := mem.RandomWalk(rand.New(rand.NewSource(3)), mem.Labels(40, 20), 5, 0.1, 0.05, 12, true)
	path := filepath.Join(Te.TempDir(), "walk.stf")
	w, err := NewWriter(path, 40, Header(mem.Labels(40, 20), true, true, 5))
	if err != nil {
		Te.Fatal(err)
	}
	for _, c := range walk.Confs {
		if err := w.WNext(c); err != nil {
			Te.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
	o := corr.DefaultOptions()
	o.RBinWidth = 0.25
	o.Workers = 2
	want := engineMSD(Te, o, walk)
	for _, mode := range []corr.UnwrapMode{corr.TrustSource, corr.Reconstruct} {
		o.Unwrap = mode
		r, _, err := New(path)
		if err != nil {
			Te.Fatal(err)
		}
		got := engineMSD(Te, o, r)
		r.Close()
		if len(got) != len(want) {
			Te.Fatalf("%s: %d msd values, expected %d", mode, len(got), len(want))
		}
		for i := range got {
			if math.Abs(got[i]-want[i]) > 1e-3 {
				Te.Errorf("%s: msd[%d] is %g, expected %g", mode, i, got[i], want[i])
			}
		}
	}
}
