/*
 * output.go, part of gocorr.
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

// Package output writes Results as plain text tables, one file per Result,
// and reads them back. Files whose name ends in ".zst" are zstd-compressed.
//
// The format is a header of "# key: value" lines followed by one row per
// line, with the independent variables, the value, its error and the
// number of samples:
//
//	# msd: mean squared displacement
//	# pair: A B
//	# weight: 0.4
//	# D: 0.49
//	# columns: t msd err count
//	0.01 0.0301 0.0002 100
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	corr "github.com/rmera/gocorr"
)

// Ext is the default extension of the files written by WriteAll.
const Ext = ".dat"

// Write writes R to w as a text table.
func Write(w io.Writer, R *corr.Result) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "# %s: %s\n", R.Name, R.Title)
	if !R.Pair.IsTotal() {
		fmt.Fprintf(b, "# pair: %s %s\n", R.Pair.A, R.Pair.B)
	}
	if R.Label != "" {
		fmt.Fprintf(b, "# label: %s\n", R.Label)
	}
	fmt.Fprintf(b, "# weight: %s\n", ftoa(R.Weight))
	info := make([]string, 0, len(R.Info))
	for k := range R.Info {
		info = append(info, k)
	}
	sort.Strings(info)
	for _, k := range info {
		fmt.Fprintf(b, "# %s: %s\n", k, ftoa(R.Info[k]))
	}
	fmt.Fprintf(b, "# columns: %s err count\n", strings.Join(R.Columns, " "))
	for _, r := range R.Rows {
		for _, v := range r.Vars {
			b.WriteString(ftoa(v))
			b.WriteByte(' ')
		}
		fmt.Fprintf(b, "%s %s %d\n", ftoa(r.Value), ftoa(r.Err), r.Count)
	}
	return b.Flush()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFile writes R to the file name, compressing it with zstd if the
// name ends in ".zst".
func WriteFile(name string, R *corr.Result) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("output: %w", cerr)
		}
	}()
	if !compressed(name) {
		return Write(f, R)
	}
	z, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err = Write(z, R); err != nil {
		z.Close()
		return err
	}
	return z.Close()
}

func compressed(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".zst")
}

// WriteAll writes each result to dir, in a file named after
// Result.FileName plus ext (Ext if ext is empty; add ".zst" for compression).
// It returns the names of the files written.
func WriteAll(dir string, results []*corr.Result, ext string) ([]string, error) {
	if ext == "" {
		ext = Ext
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	names := make([]string, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, R := range results {
		name := filepath.Join(dir, R.FileName()+ext)
		if seen[name] {
			return names, fmt.Errorf("output: two results would be written to %s", name)
		}
		seen[name] = true
		if err := WriteFile(name, R); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Read parses a table written by Write.
func Read(r io.Reader) (*corr.Result, error) {
	R := &corr.Result{Weight: 1, Info: make(map[string]float64)}
	s := bufio.NewScanner(r)
	first := true
	line := 0
	for s.Scan() {
		line++
		l := strings.TrimSpace(s.Text())
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, "#") {
			key, val, ok := strings.Cut(strings.TrimSpace(l[1:]), ": ")
			if !ok {
				continue
			}
			if first {
				R.Name, R.Title = key, val
				first = false
				continue
			}
			if err := setHeader(R, key, val); err != nil {
				return nil, fmt.Errorf("output: line %d: %w", line, err)
			}
			continue
		}
		row, err := parseRow(l, len(R.Columns)-1)
		if err != nil {
			return nil, fmt.Errorf("output: line %d: %w", line, err)
		}
		R.Rows = append(R.Rows, row)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if first || len(R.Columns) == 0 {
		return nil, fmt.Errorf("output: missing header")
	}
	return R, nil
}

func setHeader(R *corr.Result, key, val string) error {
	switch key {
	case "pair":
		f := strings.Fields(val)
		if len(f) != 2 {
			return fmt.Errorf("malformed pair %q", val)
		}
		R.Pair = corr.Pair(f[0], f[1])
	case "label":
		R.Label = val
	case "columns":
		f := strings.Fields(val)
		if len(f) < 4 || f[len(f)-2] != "err" || f[len(f)-1] != "count" {
			return fmt.Errorf("malformed columns %q", val)
		}
		R.Columns = f[:len(f)-2]
	default:
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("value of %s: %w", key, err)
		}
		if key == "weight" {
			R.Weight = v
		} else {
			R.Info[key] = v
		}
	}
	return nil
}

func parseRow(l string, nvars int) (corr.Row, error) {
	f := strings.Fields(l)
	if nvars < 1 {
		return corr.Row{}, fmt.Errorf("row before the columns header")
	}
	if len(f) != nvars+3 {
		return corr.Row{}, fmt.Errorf("expected %d fields, got %d", nvars+3, len(f))
	}
	row := corr.Row{Vars: make([]float64, nvars)}
	var err error
	for i := range row.Vars {
		if row.Vars[i], err = strconv.ParseFloat(f[i], 64); err != nil {
			return row, err
		}
	}
	if row.Value, err = strconv.ParseFloat(f[nvars], 64); err != nil {
		return row, err
	}
	if row.Err, err = strconv.ParseFloat(f[nvars+1], 64); err != nil {
		return row, err
	}
	row.Count, err = strconv.Atoi(f[nvars+2])
	return row, err
}

// ReadFile reads a table written by WriteFile, decompressing it if the name
// ends in ".zst".
func ReadFile(name string) (*corr.Result, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	defer f.Close()
	if !compressed(name) {
		return Read(f)
	}
	z, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	defer z.Close()
	return Read(z)
}
