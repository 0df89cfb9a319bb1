/*
 * engine.go, part of gocorr.
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

// Package engine computes correlation functions over a trajectory in one
// streaming pass. Only the origin frames that can still be paired with a
// later frame are kept in memory. Every origin has its own accumulator per
// correlation function; origins are evaluated concurrently and merged into
// the global accumulators in origin order, so the results do not depend on
// the number of workers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/accum"
	"github.com/rmera/gocorr/corrfn"
	"github.com/rmera/gocorr/origins"
	"github.com/rmera/gocorr/partial"
)

// Engine runs a set of correlation functions over trajectories.
type Engine struct {
	opts  corr.Options
	corrs []corrfn.Correlator
	//Heuristic for the origin spacing. Nil means origins.DefaultHeuristic.
	Heuristic origins.Heuristic
	log       *slog.Logger
}

// Report is the outcome of a run.
type Report struct {
	Results  []*corr.Result
	Warnings []error //non-fatal problems, such as a truncated lag range
	Origins  []int   //the selected origins
	Skipped  []int   //origins that contributed no samples
	Lags     []corrfn.Lag
	Frames   int //frames read
}

// New returns an engine for the given correlators. The options are
// validated here, so a bad configuration fails before any computation.
func New(opts corr.Options, corrs ...corrfn.Correlator) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(corrs) == 0 {
		return nil, corr.NewConfigurationError("engine.New", "no correlation functions requested")
	}
	seen := make(map[corrfn.Tag]bool)
	for _, c := range corrs {
		if seen[c.Tag()] {
			return nil, corr.NewConfigurationError("engine.New", "correlation function %s requested twice", c.Tag())
		}
		seen[c.Tag()] = true
	}
	return &Engine{opts: opts, corrs: corrs, log: opts.Log()}, nil
}

func (E *Engine) dynamic() bool {
	for _, c := range E.corrs {
		if c.Order() == corrfn.TwoTime {
			return true
		}
	}
	return false
}

func (E *Engine) needsUnwrapped() bool {
	for _, c := range E.corrs {
		if c.NeedsUnwrapped() {
			return true
		}
	}
	return false
}

// origin is a cached origin frame with its private accumulators.
type origin struct {
	frame  int
	conf   *corr.Configuration
	accs   []*accum.Accumulator //one per correlator
	failed error
}

// run holds the state of one call to Run.
type run struct {
	*Engine
	rep      *Report
	lags     []int
	lagIndex map[int]int
	lagSeen  []bool
	maxLag   int
	isOrigin map[int]bool
	lastUse  int //last frame any origin needs
	species  *partial.Species
	unwrap   *unwrapper
	cache    []*origin //in increasing frame order
	global   []*accum.Accumulator
}

// Run computes the correlation functions over traj and returns the results.
// It checks ctx between frames; on cancellation it returns ctx.Err().
func (E *Engine) Run(ctx context.Context, traj corr.Traj) (*Report, error) {
	c := "engine.Run"
	if !traj.Readable() {
		return nil, corr.NewConfigurationError(c, "the trajectory is not readable")
	}
	total := traj.Frames()
	pol := origins.PolicyFromOptions(E.opts)
	if E.Heuristic != nil {
		pol.Heuristic = E.Heuristic
	}
	ori, err := origins.Select(total, pol)
	if err != nil {
		return nil, err
	}
	R := &run{Engine: E, rep: &Report{Origins: ori}, isOrigin: make(map[int]bool, len(ori))}
	for _, o := range ori {
		R.isOrigin[o] = true
	}
	if E.dynamic() {
		maxLag, warn := origins.MaxLag(E.opts.MaxLag, total)
		if warn != nil {
			E.log.Warn("maximum lag truncated", "requested", warn.Requested, "available", warn.Available)
			R.rep.Warnings = append(R.rep.Warnings, warn)
		}
		R.maxLag = maxLag
		R.lags = origins.Lags(maxLag, E.opts.LagSamples)
	} else {
		R.lags = []int{0}
	}
	R.lagIndex = make(map[int]int, len(R.lags))
	for i, l := range R.lags {
		R.lagIndex[l] = i
	}
	R.lagSeen = make([]bool, len(R.lags))
	R.rep.Lags = make([]corrfn.Lag, len(R.lags))
	for i, l := range R.lags {
		R.rep.Lags[i] = corrfn.Lag{Frames: l, Time: float64(l)}
	}
	R.lastUse = ori[len(ori)-1] + R.maxLag
	E.log.Info("starting correlation run", "frames", total, "origins", len(ori), "max_lag", R.maxLag, "lags", len(R.lags), "workers", E.opts.Workers)
	err = R.stream(ctx, traj)
	R.cache = nil
	if err != nil {
		return nil, err
	}
	for i, cf := range E.corrs {
		res, err := cf.Finalize(R.global[i], R.rep.Lags)
		if err != nil {
			return nil, fmt.Errorf("finalizing %s: %w", cf.Tag(), err)
		}
		R.rep.Results = append(R.rep.Results, res...)
	}
	E.log.Info("correlation run done", "frames", R.rep.Frames, "skipped_origins", len(R.rep.Skipped), "results", len(R.rep.Results))
	return R.rep, nil
}

// stream reads the trajectory once, evaluating every origin-frame pair as soon
// as the later frame is read.
func (R *run) stream(ctx context.Context, traj corr.Traj) error {
	c := "engine.Run"
	cur := new(corr.Configuration)
	for t := 0; t <= R.lastUse; t++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := traj.Next(cur)
		if err != nil {
			if _, ok := err.(corr.LastFrameError); ok {
				break
			}
			var cerr corr.Error
			if !errors.As(err, &cerr) || cerr.Critical() {
				return fmt.Errorf("reading frame %d: %w", t, err)
			}
			R.corrupt(t, err)
			continue
		}
		R.rep.Frames++
		if err := cur.Check(); err != nil {
			R.corrupt(t, err)
			continue
		}
		if R.species == nil {
			if err := R.setup(cur, traj); err != nil {
				return err
			}
		} else if !R.species.Same(cur.Species) {
			return corr.NewConfigurationError(c, "frame %d has different particles or species than the first frame", t)
		}
		if R.unwrap != nil {
			if err := R.unwrap.next(t, cur); err != nil {
				return err
			}
		}
		if err := R.frame(ctx, t, cur); err != nil {
			return err
		}
	}
	if R.species == nil {
		return corr.NewConfigurationError(c, "no frame of the trajectory could be read")
	}
	for _, o := range R.cache {
		R.merge(o)
	}
	return nil
}

// corrupt logs an unreadable frame. An origin at that frame is skipped; pairs
// with it are never evaluated.
func (R *run) corrupt(t int, err error) {
	R.log.Warn("skipping corrupt frame", "frame", t, "error", err)
	if R.isOrigin[t] {
		R.rep.Skipped = append(R.rep.Skipped, t)
		R.rep.Warnings = append(R.rep.Warnings, fmt.Errorf("origin %d skipped: %w", t, err))
	}
}

func (R *run) setup(first *corr.Configuration, traj corr.Traj) error {
	var err error
	R.species, err = partial.NewSpecies(first.Species)
	if err != nil {
		return err
	}
	for _, cf := range R.corrs {
		if err := cf.Setup(first, R.species); err != nil {
			return fmt.Errorf("setting up %s: %w", cf.Tag(), err)
		}
		R.global = append(R.global, accum.New())
	}
	if R.needsUnwrapped() {
		trust := false
		if R.opts.Unwrap == corr.TrustSource {
			if u, ok := traj.(corr.Unwrapper); ok && u.Unwrapped() {
				trust = true
			} else {
				R.log.Warn("the trajectory does not provide unwrapped coordinates, reconstructing them")
			}
		}
		R.unwrap = newUnwrapper(trust)
	}
	return nil
}

// frame evaluates all the pairs whose later frame is t.
func (R *run) frame(ctx context.Context, t int, cur *corr.Configuration) error {
	if R.isOrigin[t] {
		o := &origin{frame: t, conf: cur.Clone(), accs: make([]*accum.Accumulator, len(R.corrs))}
		for i := range o.accs {
			o.accs[i] = accum.New()
		}
		R.cache = append(R.cache, o)
	}
	g, gctx := errgroup.WithContext(ctx)
	if R.opts.Workers > 0 {
		g.SetLimit(R.opts.Workers)
	}
	for _, o := range R.cache {
		lag := t - o.frame
		li, ok := R.lagIndex[lag]
		if !ok || o.failed != nil {
			continue
		}
		if !R.lagSeen[li] {
			R.lagSeen[li] = true
			R.rep.Lags[li].Time = lagTime(o.conf, cur, lag)
		}
		o, lag, li := o, lag, li
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			R.evaluate(o, cur, lag, li)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	//origins leave the window once their largest lag has been evaluated
	n := 0
	for _, o := range R.cache {
		if t-o.frame >= R.maxLag || t == R.lastUse {
			R.merge(o)
			continue
		}
		R.cache[n] = o
		n++
	}
	for i := n; i < len(R.cache); i++ {
		R.cache[i] = nil
	}
	R.cache = R.cache[:n]
	return nil
}

// evaluate computes every correlator for one origin and lag. Only one goroutine
// at a time touches the accumulators of an origin.
func (R *run) evaluate(o *origin, cur *corr.Configuration, lag, li int) {
	for i, cf := range R.corrs {
		if cf.Order() == corrfn.Static && lag != 0 {
			continue
		}
		w := corrfn.Window{Origin: o.conf, Lagged: cur, Frame: o.frame, Lag: lag, LagIndex: li}
		if cf.Order() == corrfn.Static {
			w.Lagged = o.conf
		}
		if err := cf.Compute(w, o.accs[i]); err != nil {
			o.failed = fmt.Errorf("origin %d, lag %d, %s: %w", o.frame, lag, cf.Tag(), err)
			return
		}
	}
}

// merge adds the accumulators of o to the global ones, unless o failed.
func (R *run) merge(o *origin) {
	if o.failed != nil {
		R.log.Warn("origin skipped", "origin", o.frame, "error", o.failed)
		R.rep.Skipped = append(R.rep.Skipped, o.frame)
		R.rep.Warnings = append(R.rep.Warnings, o.failed)
		return
	}
	for i, a := range o.accs {
		R.global[i].Merge(a)
	}
}

// lagTime returns the time between two configurations, from their time
// stamps, or from their steps if the times are equal, or the lag in frames
// if both are.
func lagTime(c0, ct *corr.Configuration, lag int) float64 {
	if lag == 0 {
		return 0
	}
	if dt := ct.Time - c0.Time; dt != 0 {
		return dt
	}
	if ds := ct.Step - c0.Step; ds != 0 {
		return float64(ds)
	}
	return float64(lag)
}
