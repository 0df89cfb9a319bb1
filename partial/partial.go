/*
 * partial.go, part of gocorr.
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

// Package partial splits correlation samples into contributions of each
// species (or pair of species) of a mixture. Correlators add raw, unnormalized
// contributions tagged by species to a Collector; the Collector derives both
// the total and the partial samples from the same raw data.
//
// Every partial is normalized by the number of particles, pairs or modes of its
// own species combination, and the total by that of the whole system, so
//
//	total = Σ_key Weight(key)·partial(key)
//
// with Weight(key) = Norm(key)/NormTotal.
package partial

import (
	"fmt"
	"math"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/accum"
)

// Kind says how contributions are counted.
type Kind int

const (
	//Per-particle quantities. One key per species, normalized by N_a.
	Single Kind = iota
	//Per pair of distinct particles. One key per unordered species pair, normalized by
	//N_a(N_a-1)/2 or N_a·N_b.
	Pair
	//Products of density modes. One key per unordered species pair, normalized
	//by N_a, or by 2·sqrt(N_a·N_b) for unlike pairs, whose raw value must be
	//2·Re(ρ_a ρ_b*).
	Collective
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Pair:
		return "pair"
	case Collective:
		return "collective"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Species holds the species composition of a system.
type Species struct {
	Names   []string //sorted
	Counts  []int
	Members [][]int //indexes of the particles of each species
	N       int
	index   []int //species of each particle
}

// NewSpecies builds the composition from one label per particle.
func NewSpecies(labels []string) (*Species, error) {
	if len(labels) == 0 {
		return nil, corr.NewConfigurationError("partial.NewSpecies", "no particles")
	}
	S := &Species{N: len(labels), index: make([]int, len(labels))}
	counts := make(map[string]int)
	for j, l := range labels {
		if l == "" {
			return nil, corr.NewConfigurationError("partial.NewSpecies", "particle %d has an empty species label", j)
		}
		counts[l]++
	}
	S.Names = corr.SortedSpecies(counts)
	pos := make(map[string]int, len(S.Names))
	S.Counts = make([]int, len(S.Names))
	S.Members = make([][]int, len(S.Names))
	for i, n := range S.Names {
		pos[n] = i
		S.Counts[i] = counts[n]
		S.Members[i] = make([]int, 0, counts[n])
	}
	for j, l := range labels {
		s := pos[l]
		S.index[j] = s
		S.Members[s] = append(S.Members[s], j)
	}
	return S, nil
}

// Same returns true if labels describe the same particles, in the same order.
func (S *Species) Same(labels []string) bool {
	if len(labels) != S.N {
		return false
	}
	for j, l := range labels {
		if S.Names[S.index[j]] != l {
			return false
		}
	}
	return true
}

// Of returns the species index of particle j.
func (S *Species) Of(j int) int {
	return S.index[j]
}

// X returns the concentration of species s.
func (S *Species) X(s int) float64 {
	return float64(S.Counts[s]) / float64(S.N)
}

// NKeys returns the number of keys for the kind.
func (S *Species) NKeys(kind Kind) int {
	n := len(S.Names)
	if kind == Single {
		return n
	}
	return n * (n + 1) / 2
}

// Keys returns the keys for the kind, in the order of their indexes.
func (S *Species) Keys(kind Kind) []corr.PairKey {
	if kind == Single {
		ret := make([]corr.PairKey, len(S.Names))
		for i, n := range S.Names {
			ret[i] = corr.Self(n)
		}
		return ret
	}
	return corr.AllPairs(S.Names)
}

// KeyIndex returns the index of the key of species si and sj. For Single,
// sj is ignored.
func (S *Species) KeyIndex(kind Kind, si, sj int) int {
	if kind == Single {
		return si
	}
	if sj < si {
		si, sj = sj, si
	}
	n := len(S.Names)
	return si*n - si*(si-1)/2 + (sj - si)
}

// keySpecies is the inverse of KeyIndex.
func (S *Species) keySpecies(kind Kind, k int) (int, int) {
	if kind == Single {
		return k, k
	}
	n := len(S.Names)
	for i := 0; i < n; i++ {
		w := n - i
		if k < w {
			return i, i + k
		}
		k -= w
	}
	panic("partial: key index out of range")
}

// Norm returns the normalization of key k.
func (S *Species) Norm(kind Kind, k int) float64 {
	a, b := S.keySpecies(kind, k)
	na, nb := float64(S.Counts[a]), float64(S.Counts[b])
	switch kind {
	case Single:
		return na
	case Pair:
		if a == b {
			return na * (na - 1) / 2
		}
		return na * nb
	default:
		if a == b {
			return na
		}
		return 2 * math.Sqrt(na*nb)
	}
}

// NormTotal returns the normalization of the total.
func (S *Species) NormTotal(kind Kind) float64 {
	n := float64(S.N)
	if kind == Pair {
		return n * (n - 1) / 2
	}
	return n
}

// Weight returns the weight of key k in the reconstruction of the total.
func (S *Species) Weight(kind Kind, k int) float64 {
	return S.Norm(kind, k) / S.NormTotal(kind)
}

// Collector holds the raw contributions of one window. It is not safe for
// concurrent use.
type Collector struct {
	S        *Species
	Kind     Kind
	bins     int
	channels int
	vals     []float64 //[key][channel][bin]
}

// NewCollector returns an empty collector for the given number of bins and
// channels.
func NewCollector(S *Species, kind Kind, bins, channels int) *Collector {
	return &Collector{
		S:        S,
		Kind:     kind,
		bins:     bins,
		channels: channels,
		vals:     make([]float64, S.NKeys(kind)*bins*channels),
	}
}

func (C *Collector) pos(bin, ch, key int) int {
	return (key*C.channels+ch)*C.bins + bin
}

// Add adds v to the raw value of (bin, ch, key).
func (C *Collector) Add(bin, ch, key int, v float64) {
	C.vals[C.pos(bin, ch, key)] += v
}

// Value returns the raw value of (bin, ch, key).
func (C *Collector) Value(bin, ch, key int) float64 {
	return C.vals[C.pos(bin, ch, key)]
}

// Total returns the raw value of (bin, ch) summed over all keys.
func (C *Collector) Total(bin, ch int) float64 {
	var t float64
	for k := 0; k < C.S.NKeys(C.Kind); k++ {
		t += C.vals[C.pos(bin, ch, k)]
	}
	return t
}

// Reset zeroes the collector.
func (C *Collector) Reset() {
	for i := range C.vals {
		C.vals[i] = 0
	}
}

// Scale is a normalization factor common to every key of (bin, ch), such as
// the ideal-gas shell count of g(r) or the number of vectors in a k shell.
// Samples with a zero scale are not emitted.
type Scale func(bin, ch int) float64

// Emit adds one normalized sample per (bin, channel) to acc at the given lag,
// for the total and, if partials is true, for every key. Keys with no
// particles or pairs to normalize by get no sample.
func (C *Collector) Emit(acc *accum.Accumulator, lag int, partials bool, scale Scale) {
	keys := C.S.Keys(C.Kind)
	tot := C.S.NormTotal(C.Kind)
	for ch := 0; ch < C.channels; ch++ {
		for bin := 0; bin < C.bins; bin++ {
			s := 1.0
			if scale != nil {
				s = scale(bin, ch)
			}
			if s == 0 {
				continue
			}
			if tot > 0 {
				acc.Add(accum.Key{Bin: bin, Lag: lag, Channel: ch, Pair: corr.TotalKey}, C.Total(bin, ch)*s/tot)
			}
			if !partials {
				continue
			}
			for k, key := range keys {
				n := C.S.Norm(C.Kind, k)
				if n == 0 {
					continue
				}
				acc.Add(accum.Key{Bin: bin, Lag: lag, Channel: ch, Pair: key}, C.Value(bin, ch, k)*s/n)
			}
		}
	}
}
