/*
 * histo.go, part of gocorr.
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

// Package histo implements histograms with arbitrary dividers, and
// symmetric matrices of histograms sharing the same dividers, such
// as the pair-distance histograms of each species pair of a mixture.
package histo

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

// A matrix of histograms, all with the same dividers.
type Matrix struct {
	rows, cols int     //total
	d          []*Data //row-major
	dividers   []float64
}

// NewMatrix returns a new matrix of *Data with r and c rows and column
// and dividers dividers. The matrix is filled with empty histograms.
func NewMatrix(r, c int, dividers []float64) *Matrix {
	if len(dividers) < 2 {
		panic("gocorr/histo.NewMatrix: at least 2 dividers are needed")
	}
	ret := new(Matrix)
	ret.rows = r
	ret.cols = c
	ret.d = make([]*Data, r*c)
	ret.dividers = dividers
	for i := range ret.d {
		ret.d[i] = NewData(dividers, nil, i)
	}
	return ret
}

func (M *Matrix) Dims() (int, int) {
	return M.rows, M.cols
}

// Copies the dividers of the histograms
func (M *Matrix) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(M.dividers), dest...)
	return floats.ScaleTo(d, 1, M.dividers)
}

func (M *Matrix) String() string {
	ret := fmt.Sprintf("rows:%d cols:%d | Data:\n", M.rows, M.cols)
	t := make([]string, 0, len(M.d))
	for _, v := range M.d {
		t = append(t, v.String())
	}
	return ret + strings.Join(t, "\n\n")
}

// returns the index in the []*Data slice of a matrix given
// the row and column indexes.
func (M *Matrix) rc2i(r, c int) int {
	if r >= M.rows || c >= M.cols || r < 0 || c < 0 {
		panic(fmt.Sprintf("gocorr/histo: index %d,%d out of range for %dx%d matrix", r, c, M.rows, M.cols))
	}
	return M.cols*r + c
}

// View Returns a view of the histogram in the r,c position in the matrix
func (M *Matrix) View(r, c int) *Data {
	return M.d[M.rc2i(r, c)]
}

// Adds one or more data points to the histogram in the r,c position in the matrix
func (M *Matrix) AddData(r, c int, point ...float64) {
	M.d[M.rc2i(r, c)].AddData(point...)
}

// Reset empties all the histograms in the matrix.
func (M *Matrix) Reset() {
	for _, v := range M.d {
		v.Reset()
	}
}

type Data struct {
	id       int
	total    int
	dividers []float64
	histo    []float64
	width    float64 //if >0, the dividers are evenly spaced
}

// ID returns the ID of the histogram
func (D *Data) ID() int {
	return D.id
}

// String prints a -hopefully- pretty string representation of
// the histogram. The representation uses 3 lines of text
func (D *Data) String() string {
	ret := fmt.Sprintf("ID: %d, TotalData: %d\n", D.id, D.total)
	d := make([]string, 0, len(D.dividers)-1)
	h := make([]string, 0, len(D.dividers)-1)
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

// Returns a new histogram from the dividers and rawdata given
// rawdata can be nil. In that case, an empty histogram is created.
// if an ID for the histogram is given, it will be set. If not, the ID will
// be set to -1.
func NewData(dividers []float64, rawdata []float64, ID ...int) *Data {
	d := new(Data)
	//I prefer to copy the slice to avoid somebody changing it from outside
	d.dividers = make([]float64, len(dividers))
	copy(d.dividers, dividers)
	d.histo = make([]float64, len(dividers)-1)
	d.width = evenWidth(d.dividers)
	if rawdata != nil {
		d.ReHisto(rawdata)
	}
	d.id = -1
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

// evenWidth returns the spacing of the dividers if they are evenly spaced,
// and 0 otherwise.
func evenWidth(dividers []float64) float64 {
	if len(dividers) < 2 {
		return 0
	}
	w := dividers[1] - dividers[0]
	for i := 1; i < len(dividers)-1; i++ {
		if !scalar.EqualWithinRel(dividers[i+1]-dividers[i], w, 1e-9) {
			return 0
		}
	}
	return w
}

// bin returns the bin of v, or -1 if v is out of the histogram.
// Bins are closed on the left and open on the right.
func (D *Data) bin(v float64) int {
	last := len(D.dividers) - 1
	if v < D.dividers[0] || v >= D.dividers[last] {
		return -1
	}
	if D.width > 0 {
		j := int((v - D.dividers[0]) / D.width)
		//rounding can put us one off near a divider.
		if j >= last {
			j = last - 1
		}
		if v < D.dividers[j] {
			j--
		} else if v >= D.dividers[j+1] {
			j++
		}
		return j
	}
	return sort.Search(last, func(i int) bool { return D.dividers[i+1] > v })
}

// Adds the given data point(s) to the histogram.
// Values out of the dividers are counted in the total, but not binned.
func (D *Data) AddData(point ...float64) {
	for _, v := range point {
		if j := D.bin(v); j >= 0 {
			D.histo[j]++
		}
	}
	D.total += len(point)
}

// Total returns the number of points added, including those out of range.
func (D *Data) Total() int {
	return D.total
}

// Copies the dividers of the histogram
func (D *Data) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	return floats.ScaleTo(d, 1, D.dividers)
}

// Copy returns a copy of the counts, in dest if given and large enough.
func (D *Data) Copy(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.histo), dest...)
	return floats.ScaleTo(d, 1, D.histo)
}

// View returns the counts without copying.
func (D *Data) View() []float64 {
	return D.histo
}

// Reset sets all counts to zero.
func (D *Data) Reset() {
	for i := range D.histo {
		D.histo[i] = 0
	}
	D.total = 0
}

// Add adds the histograms a and b putting the result in the receiver.
func (D *Data) Add(a, b *Data) {
	if !floats.Equal(a.dividers, b.dividers) {
		panic("gocorr/histo.Data.Add: Dividers must match in added histograms")
	}
	if len(D.histo) != len(a.histo) {
		D.histo = make([]float64, len(a.histo))
	}
	D.dividers = a.CopyDividers(D.dividers)
	D.width = a.width
	floats.AddTo(D.histo, a.histo, b.histo)
	D.total = a.total + b.total
}

func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

// ReHisto replaces the histogram content with the histogram of rawdata.
// The values out of the dividers are omitted.
func (D *Data) ReHisto(rawdata []float64) {
	total := len(rawdata)
	sorted := make([]float64, len(rawdata))
	copy(sorted, rawdata)
	sort.Float64s(sorted)
	//stat.Histogram just panics instead of omitting the values that are off limits
	//so we remove them here before the call.
	maxi := sort.SearchFloat64s(sorted, D.dividers[len(D.dividers)-1])
	mini := sort.SearchFloat64s(sorted, D.dividers[0])
	sorted = sorted[mini:maxi]
	D.total = total
	D.histo = stat.Histogram(nil, D.dividers, sorted, nil)
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	var d []float64
	if len(dest) > 0 && len(dest[0]) >= N {
		d = dest[0][:N] //floats.ScaleTo wants both slices to _match_
	} else {
		d = make([]float64, N)
	}
	return d
}
