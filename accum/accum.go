/*
 * accum.go, part of gocorr.
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

// Package accum implements the online averaging of correlation samples.
// An Accumulator maps (bin, lag, channel, species pair) to a running sum,
// sum of squares and count. Accumulators merge by addition, so the order in
// which partial accumulators are merged does not change the result beyond
// floating point rounding.
package accum

import (
	"math"
	"sort"

	corr "github.com/rmera/gocorr"
)

// Key identifies one accumulated quantity.
type Key struct {
	Bin     int //distance or wavevector bin, 0 for quantities without one
	Lag     int //index in the lag grid, 0 for static quantities
	Channel int //for correlators producing more than one quantity per bin
	Pair    corr.PairKey
}

// Less orders keys by pair (total first), channel, lag and bin.
func (k Key) Less(o Key) bool {
	if k.Pair != o.Pair {
		return k.Pair.Less(o.Pair)
	}
	if k.Channel != o.Channel {
		return k.Channel < o.Channel
	}
	if k.Lag != o.Lag {
		return k.Lag < o.Lag
	}
	return k.Bin < o.Bin
}

// Stat is the running state of one quantity.
type Stat struct {
	Sum  float64
	Sum2 float64
	N    int
}

// Mean returns the sample mean, or NaN if there are no samples.
func (s Stat) Mean() float64 {
	if s.N == 0 {
		return math.NaN()
	}
	return s.Sum / float64(s.N)
}

// Variance returns the unbiased sample variance, or NaN with fewer than 2 samples.
func (s Stat) Variance() float64 {
	if s.N < 2 {
		return math.NaN()
	}
	n := float64(s.N)
	m := s.Sum / n
	v := (s.Sum2 - n*m*m) / (n - 1)
	if v < 0 {
		//rounding, when all samples are equal
		v = 0
	}
	return v
}

// PopVariance returns the population variance <x²>-<x>², or NaN with no samples.
func (s Stat) PopVariance() float64 {
	if s.N == 0 {
		return math.NaN()
	}
	n := float64(s.N)
	m := s.Sum / n
	v := s.Sum2/n - m*m
	if v < 0 {
		v = 0
	}
	return v
}

// StdErr returns the standard error of the mean, or NaN with fewer than 2 samples.
func (s Stat) StdErr() float64 {
	return math.Sqrt(s.Variance() / float64(s.N))
}

func (s *Stat) add(o Stat) {
	s.Sum += o.Sum
	s.Sum2 += o.Sum2
	s.N += o.N
}

// Accumulator is not safe for concurrent use. The engine gives each origin
// its own accumulator and merges them from a single goroutine.
type Accumulator struct {
	data map[Key]*Stat
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{data: make(map[Key]*Stat)}
}

// Add adds one sample to the quantity identified by k.
func (A *Accumulator) Add(k Key, v float64) {
	s, ok := A.data[k]
	if !ok {
		s = new(Stat)
		A.data[k] = s
	}
	s.Sum += v
	s.Sum2 += v * v
	s.N++
}

// Merge adds the state of B to A. B is not modified.
func (A *Accumulator) Merge(B *Accumulator) {
	for k, v := range B.data {
		s, ok := A.data[k]
		if !ok {
			s = new(Stat)
			A.data[k] = s
		}
		s.add(*v)
	}
}

// Get returns the state of the quantity k, and false if it has no samples.
func (A *Accumulator) Get(k Key) (Stat, bool) {
	s, ok := A.data[k]
	if !ok {
		return Stat{}, false
	}
	return *s, true
}

// Len returns the number of quantities in the accumulator.
func (A *Accumulator) Len() int {
	return len(A.data)
}

// Keys returns the keys of the accumulator, sorted.
func (A *Accumulator) Keys() []Key {
	ret := make([]Key, 0, len(A.data))
	for k := range A.data {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Less(ret[j]) })
	return ret
}

// Pairs returns the species pairs present in the accumulator, sorted, the total first.
func (A *Accumulator) Pairs() []corr.PairKey {
	set := make(map[corr.PairKey]bool)
	for k := range A.data {
		set[k.Pair] = true
	}
	ret := make([]corr.PairKey, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Less(ret[j]) })
	return ret
}

// Entry is a finalized quantity.
type Entry struct {
	Key
	Mean float64
	Err  float64 //standard error of the mean, NaN if not computed or not available
	N    int
}

// Finalize returns the mean of every quantity, using the count of that
// quantity, sorted by key. Standard errors are computed only if stderr is true.
func (A *Accumulator) Finalize(stderr bool) []Entry {
	keys := A.Keys()
	ret := make([]Entry, len(keys))
	for i, k := range keys {
		s := A.data[k]
		ret[i] = Entry{Key: k, Mean: s.Mean(), Err: math.NaN(), N: s.N}
		if stderr {
			ret[i].Err = s.StdErr()
		}
	}
	return ret
}
