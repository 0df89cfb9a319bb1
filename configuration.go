/*
 * configuration.go, part of gocorr.
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

package corr

import (
	"fmt"
	"sort"

	v3 "github.com/rmera/gocorr/v3"
)

// Configuration is one simulation snapshot. Once read, it is not modified;
// the trajectory owns it and the engine borrows it for as long as a
// computation needs it.
type Configuration struct {
	Coords *v3.Matrix //positions, one particle per row
	Vels   *v3.Matrix //velocities, or nil
	//Unwrapped positions. Filled by the engine (or by a trajectory that
	//can supply them). Nil when no correlator needs them.
	Unwrapped *v3.Matrix
	Species   []string //one label per particle
	Box       Box
	Step      int
	Time      float64
}

// NewConfiguration returns a Configuration for n particles with zeroed
// coordinates and all particles of species "A".
func NewConfiguration(n int) *Configuration {
	c := &Configuration{Coords: v3.Zeros(n), Species: make([]string, n)}
	for i := range c.Species {
		c.Species[i] = "A"
	}
	return c
}

// Len returns the number of particles in the configuration.
func (C *Configuration) Len() int {
	if C.Coords == nil {
		return 0
	}
	return C.Coords.NVecs()
}

// Clone returns a deep copy of the configuration.
func (C *Configuration) Clone() *Configuration {
	r := &Configuration{Box: C.Box, Step: C.Step, Time: C.Time}
	if C.Coords != nil {
		r.Coords = C.Coords.Clone()
	}
	if C.Vels != nil {
		r.Vels = C.Vels.Clone()
	}
	if C.Unwrapped != nil {
		r.Unwrapped = C.Unwrapped.Clone()
	}
	r.Species = append([]string(nil), C.Species...)
	return r
}

// Positions returns the unwrapped coordinates if unwrapped is true, the
// coordinates as read otherwise. It returns nil if the unwrapped ones
// are requested but not available.
func (C *Configuration) Positions(unwrapped bool) *v3.Matrix {
	if unwrapped {
		return C.Unwrapped
	}
	return C.Coords
}

// Check verifies that the configuration is internally consistent.
func (C *Configuration) Check() error {
	n := C.Len()
	if n == 0 {
		return fmt.Errorf("gocorr: configuration at step %d has no particles", C.Step)
	}
	if len(C.Species) != n {
		return fmt.Errorf("gocorr: configuration at step %d has %d particles but %d species labels", C.Step, n, len(C.Species))
	}
	if C.Vels != nil && C.Vels.NVecs() != n {
		return fmt.Errorf("gocorr: configuration at step %d has %d particles but %d velocities", C.Step, n, C.Vels.NVecs())
	}
	return C.Box.Check()
}

// SpeciesCounts returns the number of particles of each species.
func (C *Configuration) SpeciesCounts() map[string]int {
	ret := make(map[string]int, 2)
	for _, s := range C.Species {
		ret[s]++
	}
	return ret
}

// SpeciesList returns the sorted, unique species labels of the configuration.
func (C *Configuration) SpeciesList() []string {
	return SortedSpecies(C.SpeciesCounts())
}

// SortedSpecies returns the keys of a species map, sorted.
func SortedSpecies[T any](m map[string]T) []string {
	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// PairKey is an unordered pair of species labels. The zero value is the
// aggregate over all species ("total").
type PairKey struct {
	A, B string
}

// TotalKey is the key of the all-species aggregate.
var TotalKey = PairKey{}

// Pair returns the PairKey for species a and b, in canonical order, so
// Pair(a,b)==Pair(b,a).
func Pair(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Self returns the key used for single-particle quantities of species a.
func Self(a string) PairKey {
	return PairKey{A: a, B: a}
}

// IsTotal returns true for the all-species key.
func (P PairKey) IsTotal() bool {
	return P == TotalKey
}

// Like returns true if both species of the pair are the same.
func (P PairKey) Like() bool {
	return P.A == P.B
}

func (P PairKey) String() string {
	if P.IsTotal() {
		return "total"
	}
	return P.A + "-" + P.B
}

// Less orders pair keys, the total first.
func (P PairKey) Less(o PairKey) bool {
	if P.A != o.A {
		return P.A < o.A
	}
	return P.B < o.B
}

// AllPairs returns all unordered pairs that can be formed with the given
// (sorted) species, in order: A-A, A-B, B-B...
func AllPairs(species []string) []PairKey {
	ret := make([]PairKey, 0, len(species)*(len(species)+1)/2)
	for i, a := range species {
		for _, b := range species[i:] {
			ret = append(ret, Pair(a, b))
		}
	}
	return ret
}
