/*
 * dcd_write.go, part of gocorr.
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

package dcd

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	corr "github.com/rmera/gocorr"
)

// DCDWObj is a CHARMM/NAMD binary trajectory file opened for writing.
// Every frame carries its unit cell.
type DCDWObj struct {
	natoms   int32
	frames   int32
	writable bool
	filename string
	dcd      *os.File
	w        *bufio.Writer
	endian   binary.ByteOrder
	fields   [3][]float32
}

// NewWriter creates a DCD trajectory for natoms particles. delta is the time
// between frames, stored in the header.
func NewWriter(filename string, natoms int, delta float64) (*DCDWObj, error) {
	if natoms <= 0 {
		return nil, &Error{"the number of particles must be positive", filename, []string{"NewWriter"}, true}
	}
	D := &DCDWObj{natoms: int32(natoms), filename: filename, endian: binary.LittleEndian}
	if err := D.initWrite(float32(delta)); err != nil {
		return nil, errDecorate(err, "NewWriter")
	}
	for i := range D.fields {
		D.fields[i] = make([]float32, natoms)
	}
	return D, nil
}

// Close flushes and closes the file, after writing the final frame count
// to the header.
func (D *DCDWObj) Close() error {
	if !D.writable {
		return nil
	}
	D.writable = false
	err := D.updateFrames()
	if cerr := D.dcd.Close(); err == nil && cerr != nil {
		err = &Error{cerr.Error(), D.filename, []string{"Close"}, true}
	}
	return err
}

func (D *DCDWObj) initWrite(delta float32) error {
	var err error
	D.dcd, err = os.Create(D.filename)
	if err != nil {
		return &Error{UnableToOpen + ": " + err.Error(), D.filename, []string{"os.Create", "initWrite"}, true}
	}
	D.w = bufio.NewWriter(D.dcd)
	var ctl [20]int32
	ctl[0] = 0  //frames, updated on Close
	ctl[1] = 0  //first step
	ctl[2] = 1  //steps between frames
	ctl[10] = 1 //unit cell present
	ctl[19] = 24
	ctl[9] = int32(math.Float32bits(delta))
	title := make([]byte, maxTitle)
	copy(title, "gocorr DCD trajectory")
	for i := len("gocorr DCD trajectory"); i < len(title); i++ {
		title[i] = ' '
	}
	data := []any{
		int32(84), []byte("CORD"), ctl, int32(84),
		4 + maxTitle, int32(1), title, 4 + maxTitle,
		int32(4), D.natoms, int32(4),
	}
	for _, d := range data {
		if err := binary.Write(D.w, D.endian, d); err != nil {
			D.dcd.Close()
			return &Error{err.Error(), D.filename, []string{"binary.Write", "initWrite"}, true}
		}
	}
	D.writable = true
	return nil
}

// WNext writes the next frame to the trajectory, in single precision.
func (D *DCDWObj) WNext(c *corr.Configuration) error {
	if !D.writable {
		return &Error{TrajUnIniWrite, D.filename, []string{"WNext"}, true}
	}
	if c == nil || c.Coords == nil {
		return &Error{NilCoordinates, D.filename, []string{"WNext"}, true}
	}
	if int32(c.Len()) != D.natoms {
		return &Error{"Coordinates don't match the trajectory size", D.filename, []string{"WNext"}, true}
	}
	for i := 0; i < int(D.natoms); i++ {
		v := c.Coords.Vec(i)
		for j := range D.fields {
			D.fields[j][i] = float32(v[j])
		}
	}
	l := c.Box.Sides
	cell := [6]float64{l[0], 90, l[1], 90, 90, l[2]}
	if err := D.record(cell, 48); err != nil {
		return err
	}
	for _, f := range D.fields {
		if err := D.record(f, D.natoms*4); err != nil {
			return err
		}
	}
	D.frames++
	return nil
}

// record writes data as a Fortran record of the given size.
func (D *DCDWObj) record(data any, size int32) error {
	for _, d := range []any{size, data, size} {
		if err := binary.Write(D.w, D.endian, d); err != nil {
			return &Error{err.Error(), D.filename, []string{"binary.Write", "record"}, true}
		}
	}
	return nil
}

// DCD requires the number of frames at the begining.
func (D *DCDWObj) updateFrames() error {
	if err := D.w.Flush(); err != nil {
		return &Error{err.Error(), D.filename, []string{"Flush", "updateFrames"}, true}
	}
	//the count goes after the first record marker and the magic number
	if _, err := D.dcd.Seek(8, io.SeekStart); err != nil {
		return &Error{err.Error(), D.filename, []string{"dcd.Seek", "updateFrames"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, D.frames); err != nil {
		return &Error{err.Error(), D.filename, []string{"binary.Write", "updateFrames"}, true}
	}
	return nil
}
