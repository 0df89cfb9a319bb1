/*
 * result.go, part of gocorr.
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
	"math"
	"sort"
)

// Row is one line of a Result: the independent variables (r, k, t, or k and t),
// the value, its standard error (NaN if not available) and the number of
// samples averaged.
type Row struct {
	Vars  []float64
	Value float64
	Err   float64
	Count int
}

// Result is the finalized table of one correlation function for one species
// pair (or the total). It belongs to the caller once returned.
type Result struct {
	Name   string //short name, such as "gr" or "msd"
	Title  string //long name, such as "radial distribution function"
	Pair   PairKey
	Label  string  //species label of the partial, "" for the total
	Weight float64 //weight of the partial in the total, NaN if it does not reconstruct linearly
	//Names of the independent variables followed by the name of the value.
	Columns []string
	Rows    []Row
	//Derived quantities, such as a relaxation time or a diffusion coefficient.
	Info map[string]float64
}

// NewResult returns an empty result for the total.
func NewResult(name, title string, columns ...string) *Result {
	return &Result{Name: name, Title: title, Columns: columns, Weight: 1, Info: make(map[string]float64)}
}

// FileName returns a name for the result that is unique among the results of
// one run, such as "gr" or "gr.A-B".
func (R *Result) FileName() string {
	if R.Pair.IsTotal() {
		return R.Name
	}
	if R.Label != "" {
		return R.Name + "." + R.Label
	}
	return R.Name + "." + R.Pair.String()
}

// Len returns the number of rows.
func (R *Result) Len() int {
	return len(R.Rows)
}

// Var returns the i-th independent variable of every row.
func (R *Result) Var(i int) []float64 {
	ret := make([]float64, len(R.Rows))
	for j, r := range R.Rows {
		ret[j] = r.Vars[i]
	}
	return ret
}

// Values returns the value of every row.
func (R *Result) Values() []float64 {
	ret := make([]float64, len(R.Rows))
	for j, r := range R.Rows {
		ret[j] = r.Value
	}
	return ret
}

// Errs returns the error of every row.
func (R *Result) Errs() []float64 {
	ret := make([]float64, len(R.Rows))
	for j, r := range R.Rows {
		ret[j] = r.Err
	}
	return ret
}

// HasErrors returns true if at least one row has an error estimate.
func (R *Result) HasErrors() bool {
	for _, r := range R.Rows {
		if !math.IsNaN(r.Err) {
			return true
		}
	}
	return false
}

// Split groups the rows by the value of their first variable, for results
// with two variables such as F(k,t). The groups are returned sorted by that
// value, each as a Result with only the remaining variables. The value of
// the first variable is kept in the Info of each group, under its column name.
func (R *Result) Split() []*Result {
	if len(R.Columns) < 3 {
		return []*Result{R}
	}
	groups := make(map[float64]*Result)
	for _, r := range R.Rows {
		g, ok := groups[r.Vars[0]]
		if !ok {
			g = &Result{
				Name:    fmt.Sprintf("%s.%s%.4g", R.Name, R.Columns[0], r.Vars[0]),
				Title:   fmt.Sprintf("%s, %s=%.4g", R.Title, R.Columns[0], r.Vars[0]),
				Pair:    R.Pair,
				Label:   R.Label,
				Weight:  R.Weight,
				Columns: R.Columns[1:],
				Info:    map[string]float64{R.Columns[0]: r.Vars[0]},
			}
			groups[r.Vars[0]] = g
		}
		g.Rows = append(g.Rows, Row{Vars: r.Vars[1:], Value: r.Value, Err: r.Err, Count: r.Count})
	}
	keys := make([]float64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	ret := make([]*Result, len(keys))
	for i, k := range keys {
		ret[i] = groups[k]
	}
	return ret
}

// String returns the result as a text table.
func (R *Result) String() string {
	s := fmt.Sprintf("# %s (%s)\n# columns:", R.Title, R.FileName())
	for _, c := range R.Columns {
		s += " " + c
	}
	s += " err count\n"
	for _, r := range R.Rows {
		for _, v := range r.Vars {
			s += fmt.Sprintf("%.6g ", v)
		}
		s += fmt.Sprintf("%.8g %.4g %d\n", r.Value, r.Err, r.Count)
	}
	return s
}
