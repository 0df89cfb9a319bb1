/*
 * histo_test.go, part of gocorr.
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

package histo

import (
	"testing"

	"gonum.org/v1/gonum/floats"
)

var rawdata = []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1}

func TestAddDataMatchesReHisto(Te *testing.T) {
	dividers := []float64{0, 1, 2, 3, 4, 8}
	a := NewData(dividers, rawdata)
	b := NewData(dividers, nil)
	b.AddData(rawdata...)
	if !floats.Equal(a.View(), b.View()) {
		Te.Errorf("AddData and ReHisto disagree:\n%v\n%v", a, b)
	}
	if a.Total() != len(rawdata) || b.Total() != len(rawdata) {
		Te.Errorf("totals should count every point: %d %d", a.Total(), b.Total())
	}
	// 8, 44 and 32 are out of range
	if a.Sum() != float64(len(rawdata)-3) {
		Te.Errorf("expected %d binned points, got %v", len(rawdata)-3, a.Sum())
	}
}

func TestUnevenDividers(Te *testing.T) {
	dividers := []float64{0, 0.5, 2, 2.1, 10}
	d := NewData(dividers, nil)
	d.AddData(0, 0.49, 0.5, 1.99, 2.05, 2.1, 9.99, 10, -1)
	want := []float64{2, 2, 1, 2}
	if !floats.Equal(d.View(), want) {
		Te.Errorf("got %v, want %v", d.View(), want)
	}
}

func TestEvenDividersEdges(Te *testing.T) {
	dividers := make([]float64, 11)
	floats.Span(dividers, 0, 1)
	d := NewData(dividers, nil)
	for _, v := range dividers[:10] {
		d.AddData(v)
	}
	for i, v := range d.View() {
		if v != 1 {
			Te.Errorf("bin %d should hold exactly its left divider, has %v", i, v)
		}
	}
}

func TestMatrixAndAdd(Te *testing.T) {
	M := NewMatrix(2, 2, []float64{0, 1, 2, 3, 4, 8})
	M.AddData(0, 1, rawdata...)
	M.AddData(1, 1, 1, 1, 1)
	r, c := M.Dims()
	if r != 2 || c != 2 {
		Te.Errorf("wrong dims %d %d", r, c)
	}
	s := NewData(M.CopyDividers(), nil)
	s.Add(M.View(0, 1), M.View(1, 1))
	if s.View()[1] != M.View(0, 1).View()[1]+3 {
		Te.Errorf("Add failed: %v", s)
	}
	M.Reset()
	if M.View(0, 1).Sum() != 0 || M.View(0, 1).Total() != 0 {
		Te.Error("Reset should empty the histograms")
	}
}
