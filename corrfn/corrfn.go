/*
 * corrfn.go, part of gocorr.
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

// Package corrfn implements the correlation functions. The set is closed:
// each function has a Tag and New builds it with a switch over the tags.
//
// A Correlator is set up once with the first configuration of a
// trajectory. After that, Compute is a pure function of its window and can
// be called concurrently for different windows, as long as each call writes
// to its own accumulator.
package corrfn

import (
	"fmt"
	"math"
	"strings"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/accum"
	"github.com/rmera/gocorr/partial"
)

// Tag identifies a correlation function.
type Tag string

const (
	GR     Tag = "gr"     //radial distribution function
	SK     Tag = "sk"     //static structure factor
	MSD    Tag = "msd"    //mean square displacement
	Alpha2 Tag = "alpha2" //non-Gaussian parameter
	FSKT   Tag = "fskt"   //self intermediate scattering function
	FKT    Tag = "fkt"    //collective intermediate scattering function
	QS     Tag = "qs"     //self overlap
	CHI4   Tag = "chi4"   //four-point susceptibility of the self overlap
	VACF   Tag = "vacf"   //velocity autocorrelation function
	QT     Tag = "qt"     //collective overlap
	PQ     Tag = "pq"     //distribution of the collective overlap
)

// Tags returns all the tags, in a fixed order.
func Tags() []Tag {
	return []Tag{GR, SK, MSD, Alpha2, FSKT, FKT, QS, CHI4, VACF, QT, PQ}
}

// ParseTag returns the tag named s.
func ParseTag(s string) (Tag, error) {
	for _, t := range Tags() {
		if string(t) == strings.ToLower(s) {
			return t, nil
		}
	}
	return "", corr.NewConfigurationError("corrfn.ParseTag", "unknown correlation function %q", s)
}

// Space is the space in which a correlation function is computed.
type Space int

const (
	RealSpace Space = iota
	Reciprocal
)

// Order tells whether a function needs one configuration or two.
type Order int

const (
	Static Order = iota
	TwoTime
)

// Lag is one point of the lag grid.
type Lag struct {
	Frames int
	Time   float64
}

// Window is the input of one evaluation: one configuration for static
// functions, an origin and a later configuration for two-time ones.
type Window struct {
	Origin   *corr.Configuration
	Lagged   *corr.Configuration //equal to Origin for static functions
	Frame    int                 //frame of the origin
	Lag      int                 //lag in frames
	LagIndex int                 //index of the lag in the lag grid
}

// Correlator is a correlation function.
type Correlator interface {
	Tag() Tag
	Title() string
	Space() Space
	Order() Order
	//WindowLen is the number of configurations per evaluation.
	WindowLen() int
	NeedsUnwrapped() bool
	NeedsVelocities() bool
	//Setup prepares the function for a trajectory whose first configuration
	//is first. It must be called once, before any call to Compute.
	Setup(first *corr.Configuration, species *partial.Species) error
	//Compute adds the samples of the window to acc.
	Compute(w Window, acc *accum.Accumulator) error
	//Finalize turns the accumulated samples into results, the total first,
	//then one per species pair if partials were collected.
	Finalize(acc *accum.Accumulator, lags []Lag) ([]*corr.Result, error)
}

// New returns the correlator for tag, with the given options.
func New(tag Tag, o corr.Options) (Correlator, error) {
	b := base{tag: tag, opts: o, linear: true}
	switch tag {
	case GR:
		b.title, b.kind = "radial distribution function", partial.Pair
		return &gr{base: b}, nil
	case SK:
		b.title, b.kind = "structure factor", partial.Collective
		return &sk{base: b}, nil
	case MSD:
		b.title = "mean square displacement"
		return &displacement{base: b, channels: 1, unwrapped: true}, nil
	case Alpha2:
		b.title, b.linear = "non-Gaussian parameter", false
		return &displacement{base: b, channels: 2, unwrapped: true}, nil
	case QS:
		b.title = "self overlap"
		return &displacement{base: b, channels: 1, unwrapped: true}, nil
	case CHI4:
		b.title, b.linear = "four-point dynamic susceptibility", false
		return &displacement{base: b, channels: 1, unwrapped: true}, nil
	case VACF:
		b.title = "velocity autocorrelation function"
		return &displacement{base: b, channels: 1, velocities: true}, nil
	case QT:
		b.title, b.kind = "collective overlap", partial.Collective
		return &overlap{base: b}, nil
	case PQ:
		b.title, b.linear = "overlap distribution", false
		return &overlap{base: b}, nil
	case FSKT:
		b.title = "self intermediate scattering function"
		return &fkt{base: b}, nil
	case FKT:
		b.title, b.kind = "collective intermediate scattering function", partial.Collective
		b.linear = !o.NormalizeCollective
		return &fkt{base: b, collective: true}, nil
	}
	return nil, corr.NewConfigurationError("corrfn.New", "unknown correlation function %q", tag)
}

// MustNew is like New but panics on error. Meant for tags known at compile time.
func MustNew(tag Tag, o corr.Options) Correlator {
	c, err := New(tag, o)
	if err != nil {
		panic(err.Error())
	}
	return c
}

// base holds what all correlators share.
type base struct {
	tag     Tag
	title   string
	opts    corr.Options
	kind    partial.Kind
	species *partial.Species
	keys    map[corr.PairKey]int
	//false for functions of averages (alpha2, chi4...), whose partials do not
	//add up to the total.
	linear bool
}

func (b *base) Tag() Tag { return b.tag }
func (b *base) Title() string { return b.title }
func (b *base) NeedsVelocities() bool { return false }
func (b *base) NeedsUnwrapped() bool { return false }
func (b *base) partials() bool { return b.opts.SpeciesPartials }
func (b *base) stderr() bool { return b.opts.StandardErrors }
func (b *base) collector(bins, channels int) *partial.Collector {
	return partial.NewCollector(b.species, b.kind, bins, channels)
}

func (b *base) setup(species *partial.Species) {
	b.species = species
	b.keys = make(map[corr.PairKey]int)
	for i, k := range species.Keys(b.kind) {
		b.keys[k] = i
	}
}

// newResult returns an empty result for the pair.
func (b *base) newResult(pair corr.PairKey, columns ...string) *corr.Result {
	r := corr.NewResult(string(b.tag), b.title, columns...)
	r.Pair = pair
	if pair.IsTotal() {
		return r
	}
	r.Label = pair.String()
	if b.kind == partial.Single {
		r.Label = pair.A
	}
	r.Weight = math.NaN()
	if k, ok := b.keys[pair]; ok && b.linear {
		r.Weight = b.species.Weight(b.kind, k)
	}
	return r
}

// table builds one result per pair from the entries of the given channel.
// vars returns the independent variables of an entry, value may transform its
// value and error, and can return false to leave the entry out.
func (b *base) table(acc *accum.Accumulator, channel int, columns []string, vars func(e accum.Entry) []float64, value func(e accum.Entry) (float64, float64, bool)) []*corr.Result {
	entries := acc.Finalize(b.stderr())
	var ret []*corr.Result
	var cur *corr.Result
	for _, e := range entries {
		if e.Channel != channel {
			continue
		}
		if cur == nil || cur.Pair != e.Pair {
			cur = b.newResult(e.Pair, columns...)
			ret = append(ret, cur)
		}
		v, err := e.Mean, e.Err
		if value != nil {
			var ok bool
			if v, err, ok = value(e); !ok {
				continue
			}
		}
		cur.Rows = append(cur.Rows, corr.Row{Vars: vars(e), Value: v, Err: err, Count: e.N})
	}
	return ret
}

// lagTime returns the time of the lag with index i.
func lagTime(lags []Lag, i int) float64 {
	if i < len(lags) {
		return lags[i].Time
	}
	return math.NaN()
}

// sameBox fails if the box of c differs from the one a reciprocal grid was
// built for.
func sameBox(ref corr.Box, c *corr.Configuration, frame int, tag Tag) error {
	for i := range ref.Sides {
		if math.Abs(c.Box.Sides[i]-ref.Sides[i]) > 1e-6*ref.Sides[i] {
			return corr.NewGeometryError(fmt.Sprintf("corrfn.%s", tag), frame, "the cell changed from %v to %v; the wavevector grid needs a fixed cell", ref.Sides, c.Box.Sides)
		}
	}
	return nil
}
