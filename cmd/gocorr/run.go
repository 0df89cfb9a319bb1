/*
 * run.go, part of gocorr.
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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/corrfn"
	"github.com/rmera/gocorr/corrplot"
	"github.com/rmera/gocorr/engine"
	"github.com/rmera/gocorr/output"
	"github.com/rmera/gocorr/traj/dcd"
	"github.com/rmera/gocorr/traj/stf"
)

type runFlags struct {
	config   string
	corrs    []string
	out      string
	ext      string
	plot     bool
	workers  int
	partials bool
	maxLag   int
	species  string    //for DCD files
	box      []float64 //for DCD files without a unit cell
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run trajectory.stf",
		Short: "Compute correlation functions of a trajectory",
		Long: `Computes the requested correlation functions in one pass over the
trajectory and writes one table per function (and species pair, with
--partials) to the output directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorr(cmd, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", "", "YAML options file")
	fl.StringSliceVar(&f.corrs, "corr", []string{"gr"}, "correlation functions, see gocorr list")
	fl.StringVarP(&f.out, "out", "o", "gocorr_out", "output directory")
	fl.StringVar(&f.ext, "ext", output.Ext, "extension of the tables, end it in .zst to compress them")
	fl.BoolVar(&f.plot, "plot", false, "also plot each function to a PNG file")
	fl.IntVarP(&f.workers, "workers", "w", 0, "goroutines evaluating origins, overrides the options file")
	fl.BoolVar(&f.partials, "partials", false, "also compute the species partials")
	fl.IntVar(&f.maxLag, "max-lag", corr.NoMaxLag, "maximum lag in frames, overrides the options file")
	fl.StringVar(&f.species, "species", "", "species of the particles of a DCD file, in order, as label:count pairs (A:800,B:200)")
	fl.Float64SliceVar(&f.box, "box", nil, "box sides for DCD files without a unit cell")
	return cmd
}

// options builds the options from the file, if any, and the flags that were
// set explicitly.
func (f runFlags) options(cmd *cobra.Command) (corr.Options, error) {
	opts := corr.DefaultOptions()
	if f.config != "" {
		var err error
		if opts, err = corr.LoadOptions(f.config); err != nil {
			return opts, err
		}
	}
	fl := cmd.Flags()
	if fl.Changed("workers") {
		opts.Workers = f.workers
	}
	if fl.Changed("partials") {
		opts.SpeciesPartials = f.partials
	}
	if fl.Changed("max-lag") {
		opts.MaxLag = f.maxLag
	}
	return opts, opts.Validate()
}

func correlators(names []string, opts corr.Options) ([]corrfn.Correlator, error) {
	var ret []corrfn.Correlator
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		t, err := corrfn.ParseTag(n)
		if err != nil {
			return nil, err
		}
		c, err := corrfn.New(t, opts)
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}

func runCorr(cmd *cobra.Command, name string, f runFlags) error {
	log := slog.Default()
	opts, err := f.options(cmd)
	if err != nil {
		return err
	}
	opts.Logger = log
	corrs, err := correlators(f.corrs, opts)
	if err != nil {
		return err
	}
	e, err := engine.New(opts, corrs...)
	if err != nil {
		return err
	}
	traj, err := openTraj(name, f, log)
	if err != nil {
		return err
	}
	defer traj.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rep, err := e.Run(ctx, traj)
	if err != nil {
		var te corr.TrajError
		if errors.As(err, &te) {
			return fmt.Errorf("%s: %w", te.FileName(), err)
		}
		return err
	}
	for _, w := range rep.Warnings {
		log.Warn(w.Error())
	}
	names, err := output.WriteAll(f.out, rep.Results, f.ext)
	if err != nil {
		return err
	}
	if f.plot {
		plots, err := corrplot.SaveAll(f.out, corrplot.DefaultOptions(), rep.Results, opts.LagSamples > 0)
		if err != nil {
			return err
		}
		names = append(names, plots...)
	}
	log.Info("done", "frames", rep.Frames, "origins", len(rep.Origins), "skipped", len(rep.Skipped), "files", len(names))
	printInfo(cmd, rep.Results)
	return nil
}

type trajCloser interface {
	corr.Traj
	Close()
}

// openTraj opens an STF or, if the name ends in ".dcd", a DCD trajectory.
func openTraj(name string, f runFlags, log *slog.Logger) (trajCloser, error) {
	if !strings.HasSuffix(strings.ToLower(name), ".dcd") {
		traj, header, err := stf.New(name, log)
		if err != nil {
			return nil, err
		}
		log.Info("trajectory opened", "file", name, "particles", traj.Len(), "species", header[stf.KeySpecies])
		return traj, nil
	}
	var meta dcd.Meta
	var err error
	if f.species != "" {
		if meta.Species, err = parseSpecies(f.species); err != nil {
			return nil, err
		}
	}
	if f.box != nil {
		if meta.Box, err = corr.NewBox(f.box); err != nil {
			return nil, err
		}
	}
	traj, err := dcd.New(name, meta, log)
	if err != nil {
		return nil, err
	}
	log.Info("trajectory opened", "file", name, "particles", traj.Len(), "frames", traj.Frames())
	return traj, nil
}

// parseSpecies expands label:count pairs, such as "A:800,B:200", into one
// label per particle.
func parseSpecies(s string) ([]string, error) {
	var ret []string
	for _, p := range strings.Split(s, ",") {
		label, count, ok := strings.Cut(strings.TrimSpace(p), ":")
		n, err := strconv.Atoi(count)
		if !ok || label == "" || err != nil || n < 0 {
			return nil, corr.NewConfigurationError("parseSpecies", "malformed species %q, expected label:count", p)
		}
		for i := 0; i < n; i++ {
			ret = append(ret, label)
		}
	}
	return ret, nil
}

// printInfo prints the quantities derived from each result, such as
// relaxation times.
func printInfo(cmd *cobra.Command, results []*corr.Result) {
	w := cmd.OutOrStdout()
	for _, R := range results {
		keys := make([]string, 0, len(R.Info))
		for k := range R.Info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\t%g\n", R.FileName(), k, R.Info[k])
		}
	}
}
