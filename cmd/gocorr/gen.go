/*
 * gen.go, part of gocorr.
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

package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/traj/dcd"
	"github.com/rmera/gocorr/traj/mem"
	"github.com/rmera/gocorr/traj/stf"
)

type genFlags struct {
	particles  int
	fractionA  float64
	frames     int
	box        float64
	diffusion  float64
	dt         float64
	seed       int64
	prec       int
	unwrapped  bool
	velocities bool
}

func newGenCmd() *cobra.Command {
	var f genFlags
	cmd := &cobra.Command{
		Use:   "gen out.stf",
		Short: "Write a Brownian trajectory of a two-species mixture",
		Long: `Writes a random walk of particles of species A and B in a cubic box, with
known diffusion coefficient, to an STF file. Useful to try the correlation
functions: the MSD of the trajectory is 6*D*t.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return gen(args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.IntVarP(&f.particles, "particles", "n", 1000, "number of particles")
	fl.Float64Var(&f.fractionA, "fraction-a", 0.8, "fraction of particles of species A")
	fl.IntVarP(&f.frames, "frames", "f", 100, "number of frames")
	fl.Float64VarP(&f.box, "box", "L", 10, "side of the cubic box")
	fl.Float64VarP(&f.diffusion, "diffusion", "D", 0.5, "diffusion coefficient")
	fl.Float64Var(&f.dt, "dt", 0.01, "time between frames")
	fl.Int64Var(&f.seed, "seed", 1, "random seed")
	fl.IntVar(&f.prec, "prec", 4, "decimal places stored")
	fl.BoolVar(&f.unwrapped, "unwrapped", false, "don't fold the particles into the box")
	fl.BoolVar(&f.velocities, "velocities", false, "store velocities")
	return cmd
}

type frameWriter interface {
	WNext(c *corr.Configuration) error
	Close() error
}

// newWriter returns a DCD writer if the name ends in ".dcd", an STF one
// otherwise. DCD files keep neither species nor velocities.
func newWriter(name string, species []string, f genFlags) (frameWriter, error) {
	if strings.HasSuffix(strings.ToLower(name), ".dcd") {
		if f.velocities || f.unwrapped {
			slog.Warn("DCD files don't store velocities or the unwrapped flag", "file", name)
		}
		return dcd.NewWriter(name, len(species), f.dt)
	}
	return stf.NewWriter(name, len(species), stf.Header(species, f.unwrapped, f.velocities, f.prec))
}

func gen(name string, f genFlags) error {
	if f.particles < 1 || f.frames < 1 || f.box <= 0 || f.dt <= 0 || f.diffusion < 0 {
		return corr.NewConfigurationError("gen", "particles, frames, box and dt must be positive, and the diffusion coefficient not negative")
	}
	if f.fractionA < 0 || f.fractionA > 1 {
		return corr.NewConfigurationError("gen", "fraction of A %g is not in [0,1]", f.fractionA)
	}
	species := mem.Labels(f.particles, int(f.fractionA*float64(f.particles)+0.5))
	traj := mem.RandomWalk(rand.New(rand.NewSource(f.seed)), species, f.box, f.diffusion, f.dt, f.frames, f.unwrapped)
	w, err := newWriter(name, species, f)
	if err != nil {
		return err
	}
	c := &corr.Configuration{}
	for frame := 0; ; frame++ {
		err := traj.Next(c)
		if err != nil {
			if _, ok := err.(corr.LastFrameError); ok {
				break
			}
			w.Close()
			return err
		}
		if !f.velocities {
			c.Vels = nil
		}
		if err := w.WNext(c); err != nil {
			w.Close()
			return fmt.Errorf("writing frame %d: %w", frame, err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	slog.Info("trajectory written", "file", name, "particles", f.particles, "frames", f.frames)
	return nil
}
