/*
 * dcd.go, part of gocorr.
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

// Package dcd reads and writes CHARMM/NAMD binary (DCD) trajectories.
//
// DCD files store positions only, in single precision. The unit cell, if
// present, comes in an extra block before each frame; only orthorhombic
// cells are supported. The species of the particles are not in the file
// and must be given when opening it.
package dcd

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	corr "github.com/rmera/gocorr"
	v3 "github.com/rmera/gocorr/v3"
)

const maxTitle int32 = 80

// Meta holds what the DCD format can't carry.
type Meta struct {
	Species []string //one label per particle, nil means all "A"
	Box     corr.Box //used by files without a unit cell
}

// DCDObj is a CHARMM/NAMD binary trajectory file opened for reading. It
// implements corr.Traj and corr.Rewinder.
type DCDObj struct {
	natoms    int32
	nset      int32 //frames, as declared in the header
	istart    int32
	nsavc     int32
	delta     float32
	readLast  bool //Have we read the last frame?
	readable  bool //Is it ready to be read?
	filename  string
	unitCell  bool //the extra block holds the cell
	fourdim   bool
	dcd       *os.File
	r         *bufio.Reader
	dataStart int64 //offset of the first frame
	endian    binary.ByteOrder
	fields    [3][]float32
	species   []string
	box       corr.Box
	warned    bool
	read      int
	log       *slog.Logger
}

// New opens a DCD trajectory for reading. It supports big and little
// endianness and CHARMM or NAMD>=2.1 files, without fixed atoms.
// A nil logger means slog's default.
func New(filename string, meta Meta, logger ...*slog.Logger) (*DCDObj, error) {
	D := &DCDObj{filename: filename, box: meta.Box, log: slog.Default()}
	if len(logger) > 0 && logger[0] != nil {
		D.log = logger[0]
	}
	if err := D.initRead(); err != nil {
		if D.dcd != nil {
			D.dcd.Close()
		}
		return nil, errDecorate(err, "New")
	}
	n := int(D.natoms)
	if meta.Species != nil && len(meta.Species) != n {
		D.Close()
		return nil, &Error{fmt.Sprintf("%d species labels for %d particles", len(meta.Species), n), filename, []string{"New"}, true}
	}
	if !D.unitCell {
		if err := D.box.Check(); err != nil {
			D.Close()
			return nil, &Error{"the file has no unit cell and no valid box was given: " + err.Error(), filename, []string{"New"}, true}
		}
	}
	D.species = meta.Species
	if D.species == nil {
		D.species = make([]string, n)
		for i := range D.species {
			D.species[i] = "A"
		}
	}
	for i := range D.fields {
		D.fields[i] = make([]float32, n)
	}
	D.r = bufio.NewReader(D.dcd)
	D.readable = true
	return D, nil
}

// Readable returns true if the object is ready to be read from.
// It doesn't guarantee that there is something to read.
func (D *DCDObj) Readable() bool {
	return D.readable
}

// Len returns the number of particles per frame.
func (D *DCDObj) Len() int {
	return int(D.natoms)
}

// Frames returns the number of complete frames in the file. Some programs
// leave the count in the header at zero, so it is computed from the size of
// the file when possible.
func (D *DCDObj) Frames() int {
	if D.fourdim || D.dcd == nil {
		return int(D.nset)
	}
	st, err := D.dcd.Stat()
	if err != nil {
		return int(D.nset)
	}
	frame := 3 * (8 + 4*int64(D.natoms))
	if D.unitCell {
		frame += 8 + 48
	}
	return int((st.Size() - D.dataStart) / frame)
}

// Unwrapped returns false: DCD files don't say whether their coordinates are
// folded into the cell.
func (D *DCDObj) Unwrapped() bool {
	return false
}

// Species returns the species labels, one per particle.
func (D *DCDObj) Species() []string {
	return D.species
}

// Close closes the file. The object can't be read after this call.
func (D *DCDObj) Close() {
	if D.dcd != nil {
		D.dcd.Close()
	}
	D.readable = false
}

// Rewind goes back to the first frame.
func (D *DCDObj) Rewind() error {
	if D.dcd == nil {
		return &Error{TrajUnIniRead, D.filename, []string{"Rewind"}, true}
	}
	if _, err := D.dcd.Seek(D.dataStart, io.SeekStart); err != nil {
		return &Error{err.Error(), D.filename, []string{"dcd.Seek", "Rewind"}, true}
	}
	D.r.Reset(D.dcd)
	D.readLast = false
	D.readable = true
	D.read = 0
	return nil
}

func (D *DCDObj) initRead() error {
	wrong := func(msg string) error {
		return &Error{WrongFormat + ": " + msg, D.filename, []string{"initRead"}, true}
	}
	wrapbinerr := func(err error) error {
		return &Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	var err error
	D.dcd, err = os.Open(D.filename)
	if err != nil {
		return &Error{UnableToOpen + ": " + err.Error(), D.filename, []string{"os.Open", "initRead"}, true}
	}
	D.endian = binary.LittleEndian
	var check int32
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	//The first record is 84 bytes long. If we don't read an 84, the file is
	//big endian.
	if check != 84 {
		D.endian = binary.BigEndian
	}
	var head struct {
		Magic [4]byte
		Ctl   [80]byte
		End   int32
	}
	if err := binary.Read(D.dcd, D.endian, &head); err != nil {
		return wrapbinerr(err)
	}
	if string(head.Magic[:]) != "CORD" {
		return wrong("wrong magic number")
	}
	if head.End != 84 {
		return wrong("wrong header length")
	}
	ctl := func(i int) int32 {
		return int32(D.endian.Uint32(head.Ctl[4*i:]))
	}
	//X-plor sets this last int to zero, charmm sets it to its version number.
	if ctl(19) == 0 {
		return wrong("X-plor DCD not supported")
	}
	D.nset, D.istart, D.nsavc = ctl(0), ctl(1), ctl(2)
	if fixed := ctl(8); fixed != 0 {
		return wrong("fixed atoms not supported")
	}
	if err := binary.Read(bytes.NewReader(head.Ctl[36:40]), D.endian, &D.delta); err != nil {
		return wrapbinerr(err)
	}
	D.unitCell = ctl(10) != 0
	D.fourdim = ctl(11) == 1
	//title record
	var size, ntitle int32
	if err := binary.Read(D.dcd, D.endian, &size); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(D.dcd, D.endian, &ntitle); err != nil {
		return wrapbinerr(err)
	}
	if ntitle < 0 || size != 4+ntitle*maxTitle {
		return wrong("bad title record")
	}
	if _, err := D.dcd.Seek(int64(ntitle*maxTitle), io.SeekCurrent); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check != size {
		return wrong("bad title record")
	}
	var natoms [3]int32
	if err := binary.Read(D.dcd, D.endian, &natoms); err != nil {
		return wrapbinerr(err)
	}
	if natoms[0] != 4 || natoms[2] != 4 || natoms[1] <= 0 {
		return wrong("bad particle number record")
	}
	D.natoms = natoms[1]
	D.dataStart, err = D.dcd.Seek(0, io.SeekCurrent)
	if err != nil {
		return wrapbinerr(err)
	}
	return nil
}

// Next reads the next frame into c, which may be nil to skip the frame.
// The step of the frame is computed from the header, and its time is the
// step times the time step stored in the header.
// A frame cut short at the end of the file gives a non-critical error, and
// ends the trajectory.
func (D *DCDObj) Next(c *corr.Configuration) error {
	if !D.readable {
		return &Error{TrajUnIniRead, D.filename, []string{"Next"}, true}
	}
	if D.readLast {
		D.readable = false
		return newlastFrameError(D.filename, "Next")
	}
	box, err := D.nextRaw()
	if err != nil {
		return errDecorate(err, "Next")
	}
	frame := D.read
	D.read++
	if c == nil {
		return nil
	}
	n := int(D.natoms)
	if c.Coords == nil || c.Coords.NVecs() != n {
		c.Coords = v3.Zeros(n)
	}
	for i := 0; i < n; i++ {
		c.Coords.SetVec(i, [3]float64{float64(D.fields[0][i]), float64(D.fields[1][i]), float64(D.fields[2][i])})
	}
	c.Vels = nil
	c.Unwrapped = nil
	c.Species = append(c.Species[:0], D.species...)
	c.Box = box
	nsavc := D.nsavc
	if nsavc <= 0 {
		nsavc = 1
	}
	c.Step = int(D.istart) + frame*int(nsavc)
	c.Time = float64(c.Step) * float64(D.delta)
	if D.delta == 0 {
		c.Time = float64(frame)
	}
	return nil
}

// nextRaw reads one frame into D.fields and returns its box.
func (D *DCDObj) nextRaw() (corr.Box, error) {
	box := D.box
	first := true
	truncated := func(err error) error {
		if errors.Is(err, io.EOF) && first {
			D.readable = false
			return newlastFrameError(D.filename, "nextRaw")
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			D.readLast = true
			return &Error{"frame cut short at the end of the file", D.filename, []string{"nextRaw"}, false}
		}
		return &Error{err.Error(), D.filename, []string{"binary.Read", "nextRaw"}, true}
	}
	if D.unitCell {
		var cell [6]float64
		if err := D.record(&cell, 48); err != nil {
			return box, truncated(err)
		}
		first = false
		b, err := D.cellBox(cell)
		if err != nil {
			return box, err
		}
		box = b
	}
	for i := range D.fields {
		if err := D.record(D.fields[i], D.natoms*4); err != nil {
			return box, truncated(err)
		}
		first = false
	}
	//The 4th dimension is skipped.
	if D.fourdim {
		var size int32
		if err := binary.Read(D.r, D.endian, &size); err != nil {
			return box, truncated(err)
		}
		if _, err := D.r.Discard(int(size) + 4); err != nil {
			return box, truncated(err)
		}
	}
	return box, nil
}

var errRecordSize = errors.New("wrong record size")

// record reads a Fortran record of the given size into data, checking the
// size markers at both ends.
func (D *DCDObj) record(data any, size int32) error {
	var check int32
	if err := binary.Read(D.r, D.endian, &check); err != nil {
		return err
	}
	if check != size {
		return fmt.Errorf("%w: expected %d bytes, found %d", errRecordSize, size, check)
	}
	if err := binary.Read(D.r, D.endian, data); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if err := binary.Read(D.r, D.endian, &check); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if check != size {
		return fmt.Errorf("%w: expected %d bytes, found %d", errRecordSize, size, check)
	}
	return nil
}

// cellBox turns a CHARMM unit cell (A, gamma, B, beta, alpha, C) into a box.
// The angles may come in degrees or as cosines, as NAMD writes them.
func (D *DCDObj) cellBox(cell [6]float64) (corr.Box, error) {
	right := func(a float64) bool {
		return math.Abs(a-90) < 1e-3 || math.Abs(a) < 1e-6
	}
	if !(right(cell[1]) && right(cell[3]) && right(cell[4])) && !D.warned {
		D.warned = true
		D.log.Warn("non orthorhombic cell, the angles will be ignored", "file", D.filename, "gamma", cell[1], "beta", cell[3], "alpha", cell[4])
	}
	b, err := corr.NewBox([]float64{cell[0], cell[2], cell[5]})
	if err != nil {
		return b, &Error{"invalid unit cell: " + err.Error(), D.filename, []string{"cellBox"}, true}
	}
	return b, nil
}

// errDecorate is a helper function that asserts that the error is
// implements corr.Error and decorates the error with the caller's name before returning it.
// if used with a non-corr.Error error, it will cause a panic.
func errDecorate(err error, caller string) error {
	err2 := err.(corr.Error)
	err2.Decorate(caller)
	return err2
}

// Error is the general structure for DCD trajectory errors. It fullfills corr.Error and corr.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err *Error) Error() string {
	return fmt.Sprintf("dcd file %s error: %s", err.filename, err.message)
}

// Decorate Adds new information to the error
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the file to which the failing trajectory was associated
func (err *Error) FileName() string { return err.filename }

// Format returns the format of the file (always "dcd") associated to the error
func (err *Error) Format() string { return "dcd" }

// Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the DCD file or frame"
)

// lastFrameError implements corr.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "dcd" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
