/*
 * corrplot.go, part of gocorr.
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

// Package corrplot draws Results as PNG (or SVG, PDF, EPS, by extension)
// line plots. Results with two variables, such as F(k,t), are drawn as one
// curve per value of the first variable.
package corrplot

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	corr "github.com/rmera/gocorr"
)

// Options sets the size of the plots and the scale of the X axis.
type Options struct {
	Width, Height vg.Length
	//Logarithmic X axis. Points with X<=0 are not drawn.
	LogX bool
}

// DefaultOptions returns 5x4 inch plots with a linear X axis.
func DefaultOptions() Options {
	return Options{Width: 5 * vg.Inch, Height: 4 * vg.Inch}
}

func basicPlot(title, xlabel, ylabel string, logx bool) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	if logx {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

type curve struct {
	label string
	xys   plotter.XYs
	errs  plotter.YErrors
}

// curves turns R into one or more curves, leaving out the points that can't
// be drawn.
func curves(R *corr.Result, logx bool) []curve {
	label := R.Pair.String()
	if R.Label != "" {
		label = R.Label
	}
	if len(R.Columns) < 3 {
		return []curve{points(R, label, logx)}
	}
	col := R.Columns[0]
	var ret []curve
	for _, g := range R.Split() {
		ret = append(ret, points(g, fmt.Sprintf("%s %s=%.3g", label, col, g.Info[col]), logx))
	}
	return ret
}

func points(R *corr.Result, label string, logx bool) curve {
	c := curve{label: label}
	for _, r := range R.Rows {
		x := r.Vars[0]
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		if logx && x <= 0 {
			continue
		}
		e := r.Err
		if math.IsNaN(e) || math.IsInf(e, 0) {
			e = 0
		}
		c.xys = append(c.xys, plotter.XY{X: x, Y: r.Value})
		c.errs = append(c.errs, struct{ Low, High float64 }{e, e})
	}
	return c
}

type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

// Plot draws the given results in one plot, which takes its title and axis
// labels from the first one. The results are expected to be the same function
// for different species pairs.
func Plot(o Options, results ...*corr.Result) (*plot.Plot, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("corrplot: no results to plot")
	}
	first := results[0]
	xcol := first.Columns[len(first.Columns)-2]
	ycol := first.Columns[len(first.Columns)-1]
	p := basicPlot(first.Title, xcol, ycol, o.LogX)
	var all []curve
	for _, R := range results {
		all = append(all, curves(R, o.LogX)...)
	}
	drawn := 0
	for i, c := range all {
		if len(c.xys) == 0 {
			continue
		}
		l, err := plotter.NewLine(c.xys)
		if err != nil {
			return nil, fmt.Errorf("corrplot: %s: %w", c.label, err)
		}
		r, g, b := colors(i, len(all))
		l.LineStyle.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		l.LineStyle.Width = vg.Points(1)
		p.Add(l)
		if len(all) > 1 {
			p.Legend.Add(c.label, l)
		}
		if hasErrors(c.errs) {
			bars, err := plotter.NewYErrorBars(errPoints{XYs: c.xys, YErrors: c.errs})
			if err != nil {
				return nil, fmt.Errorf("corrplot: %s: %w", c.label, err)
			}
			bars.LineStyle.Color = l.LineStyle.Color
			p.Add(bars)
		}
		drawn++
	}
	if drawn == 0 {
		return nil, fmt.Errorf("corrplot: nothing to draw for %s", first.Name)
	}
	return p, nil
}

func hasErrors(e plotter.YErrors) bool {
	for _, v := range e {
		if v.Low != 0 {
			return true
		}
	}
	return false
}

// Save plots the results to the file name. The format is taken from the
// extension.
func Save(name string, o Options, results ...*corr.Result) error {
	p, err := Plot(o, results...)
	if err != nil {
		return err
	}
	return p.Save(o.Width, o.Height, name)
}

// SaveAll writes one PNG per correlation function to dir, drawing the total
// and all the partials of a function together. Functions of time get a
// logarithmic X axis if logTime is true. Functions without rows are left out.
// It returns the names of the files written.
func SaveAll(dir string, o Options, results []*corr.Result, logTime bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("corrplot: %w", err)
	}
	var order []string
	groups := make(map[string][]*corr.Result)
	for _, R := range results {
		if _, ok := groups[R.Name]; !ok {
			order = append(order, R.Name)
		}
		groups[R.Name] = append(groups[R.Name], R)
	}
	var names []string
	for _, n := range order {
		g := groups[n]
		if empty(g) {
			continue
		}
		po := o
		po.LogX = logTime && g[0].Columns[len(g[0].Columns)-2] == "t"
		name := filepath.Join(dir, n+".png")
		if err := Save(name, po, g...); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}

func empty(results []*corr.Result) bool {
	for _, R := range results {
		if len(R.Rows) > 0 {
			return false
		}
	}
	return true
}

// colors returns evenly spaced, fully saturated colors, from red to violet,
// skipping the yellows, which are hard to see on white.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	var h float64
	if hp < 55 {
		h = hp - 20.0
	} else {
		h = hp + 20.0
	}
	return hsv2rgb(h, 1, 1)
}

// hsv2rgb takes hue (0-360), s and v (0-1), returns r,g,b (0-255)
func hsv2rgb(h, s, v float64) (uint8, uint8, uint8) {
	if s == 0.0 {
		c := uint8(255 * v)
		return c, c, c
	}
	h = math.Mod(h, 360) / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return uint8(255 * r), uint8(255 * g), uint8(255 * b)
}
