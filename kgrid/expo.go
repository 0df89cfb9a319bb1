/*
 * expo.go, part of gocorr.
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

package kgrid

import (
	"math"
	"math/cmplx"

	corr "github.com/rmera/gocorr"
	v3 "github.com/rmera/gocorr/v3"
)

// Table holds exp(i 2π m x_a / L_a) for every particle, axis a and 0<=m<=NMax[a],
// so exp(i k·r) for any grid vector is a product of three table entries.
type Table struct {
	nmax [3]int
	n    int
	e    [3][]complex128 //e[a][j*(nmax[a]+1)+m]
}

// Tabulate builds the table for the positions (or displacements) in pos.
// Positions need not be wrapped: the grid vectors are commensurate with the box.
func Tabulate(pos *v3.Matrix, box corr.Box, nmax [3]int) *Table {
	n := pos.NVecs()
	T := &Table{nmax: nmax, n: n}
	for a := 0; a < 3; a++ {
		w := nmax[a] + 1
		T.e[a] = make([]complex128, n*w)
		for j := 0; j < n; j++ {
			x := pos.At(j, a)
			step := cmplx.Exp(complex(0, 2*math.Pi*x/box.Sides[a]))
			row := T.e[a][j*w : (j+1)*w]
			row[0] = 1
			for m := 1; m < w; m++ {
				row[m] = row[m-1] * step
			}
		}
	}
	return T
}

// Len returns the number of particles in the table.
func (T *Table) Len() int {
	return T.n
}

func (T *Table) axis(a, j, m int) complex128 {
	if m < 0 {
		return cmplx.Conj(T.e[a][j*(T.nmax[a]+1)-m])
	}
	return T.e[a][j*(T.nmax[a]+1)+m]
}

// Term returns exp(i k·r_j) for the grid vector n. It panics if a component of
// n exceeds the limits the table was built with.
func (T *Table) Term(j int, n Vector) complex128 {
	return T.axis(0, j, n[0]) * T.axis(1, j, n[1]) * T.axis(2, j, n[2])
}

// Rho returns the Fourier component of the density, Σ_j exp(i k·r_j), over the
// particles in idx, or over all of them if idx is nil.
func (T *Table) Rho(n Vector, idx []int) complex128 {
	var s complex128
	if idx == nil {
		for j := 0; j < T.n; j++ {
			s += T.Term(j, n)
		}
		return s
	}
	for _, j := range idx {
		s += T.Term(j, n)
	}
	return s
}
