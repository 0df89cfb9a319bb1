/*
 * stf.go, part of gocorr.
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

package stf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	corr "github.com/rmera/gocorr"
	v3 "github.com/rmera/gocorr/v3"
)

const (
	lzwLitwidth int = 8
	defaultPrec int = 3
)

// Header keys understood by this package.
const (
	KeyPrec       = "prec"
	KeySpecies    = "species"
	KeyUnwrapped  = "unwrapped"
	KeyVelocities = "velocities"
	KeyBox        = "box"
)

// Header returns a header for a trajectory of particles with the given species
// labels. Labels can't contain whitespace.
func Header(species []string, unwrapped, velocities bool, prec int) map[string]string {
	h := map[string]string{
		KeyPrec:    strconv.Itoa(prec),
		KeySpecies: strings.Join(species, " "),
	}
	if unwrapped {
		h[KeyUnwrapped] = "true"
	}
	if velocities {
		h[KeyVelocities] = "true"
	}
	return h
}

// Write!

// StfW writes STF trajectories.
type StfW struct {
	f          *os.File
	h          io.WriteCloser
	natoms     int
	filename   string
	writeable  bool
	velocities bool
	prec       int
}

// Close flushes and closes the file. It is safe to call it more than once.
func (S *StfW) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.h.Close()
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	return err
}

// Len returns the number of particles per frame.
func (S *StfW) Len() int {
	return S.natoms
}

func compressorFor(name string, level int) func(io.Writer) (io.WriteCloser, error) {
	zstdwriter := func(a io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		return func(a io.Writer) (io.WriteCloser, error) { return lzw.NewWriter(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		return func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, min(level, gzip.BestCompression)) }
	case 'r':
		return func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, min(level, flate.BestCompression)) }
	}
	return zstdwriter
}

// NewWriter creates the file name and writes the header to it. The compression
// is chosen from the last letter of the name, as the reader does: zstd for
// .stf (and by default), gzip for .stz, flate for .str and lzw for .stl.
func NewWriter(name string, natoms int, header map[string]string, compressionLevel ...int) (*StfW, error) {
	level := 11
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	S := &StfW{natoms: natoms, filename: name, prec: defaultPrec}
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, &Error{UnableToOpen + ": " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.h, err = compressorFor(name, level)(S.f)
	if err != nil {
		S.f.Close()
		return nil, &Error{"can't set up the compressor: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	if header == nil {
		header = make(map[string]string)
	}
	if p, ok := header[KeyPrec]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			S.prec = prec
		} else {
			slog.Warn("invalid precision for trajectory, using the default", "file", name, "prec", p)
		}
	}
	header[KeyPrec] = strconv.Itoa(S.prec)
	S.velocities = header[KeyVelocities] == "true"
	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, header[k])
	}
	fmt.Fprintf(&b, "** %d\n", S.natoms)
	if _, err := S.h.Write([]byte(b.String())); err != nil {
		return nil, &Error{err.Error(), name, []string{"NewWriter"}, true}
	}
	S.writeable = true
	return S, nil
}

// WNext writes one configuration: a stamp line with step and time, one line
// per particle, and the frame termination line with the box sides.
func (S *StfW) WNext(c *corr.Configuration) error {
	if !S.writeable {
		return &Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if c == nil || c.Coords == nil {
		return &Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	if v := c.Len(); v != S.natoms {
		return &Error{fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, []string{"WNext"}, true}
	}
	if S.velocities && c.Vels == nil {
		return &Error{"the trajectory stores velocities, but the configuration has none", S.filename, []string{"WNext"}, true}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %d %s\n", c.Step, strconv.FormatFloat(c.Time, 'g', -1, 64))
	var temp [6]int
	for i := 0; i < S.natoms; i++ {
		r := c.Coords.Vec(i)
		if S.velocities {
			v := c.Vels.Vec(i)
			b.WriteString(coordsEncode(append(r[:], v[:]...), temp[:], S.prec))
			continue
		}
		b.WriteString(coordsEncode(r[:], temp[:3], S.prec))
	}
	l := c.Box.Sides
	fmt.Fprintf(&b, "* %g %g %g\n", l[0], l[1], l[2])
	if _, err := S.h.Write([]byte(b.String())); err != nil {
		return &Error{err.Error(), S.filename, []string{"WNext"}, true}
	}
	return nil
}

// Read!

// StfR reads STF trajectories. It implements corr.Traj, corr.Rewinder and
// corr.Unwrapper.
type StfR struct {
	f            *os.File
	dec          io.ReadCloser
	h            *bufio.Reader
	intermediate *bufio.Reader
	natoms       int
	filename     string
	prec         int
	readable     bool
	header       map[string]string
	species      []string
	unwrapped    bool
	velocities   bool
	box          corr.Box //the header box, used by frames without one
	hasBox       bool
	frames       int //-1 until counted
	read         int //frames read so far
	log          *slog.Logger
}

// Also, why couldn't *zstd.Decoder implement io.ReadCloser? :-(
type stdql struct {
	*zstd.Decoder
}

// Close Closes the object. It can not be used after this call
func (s stdql) Close() error {
	s.Decoder.Close()
	return nil
}

func decompressorFor(name string) func(io.Reader) (io.ReadCloser, error) {
	zstdreader := func(a io.Reader) (io.ReadCloser, error) {
		r, err := zstd.NewReader(a)
		if err != nil {
			return nil, err
		}
		return stdql{r}, nil
	}
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		return func(a io.Reader) (io.ReadCloser, error) { return lzw.NewReader(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		return func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	case 'r':
		return func(a io.Reader) (io.ReadCloser, error) { return flate.NewReader(a), nil }
	}
	return zstdreader
}

// New opens a STF trajectory for reading, and returns a pointer
// to the handle, a map with the metadata, and error or nil.
// A nil logger means slog's default.
func New(name string, logger ...*slog.Logger) (*StfR, map[string]string, error) {
	S := &StfR{filename: name, natoms: -1, frames: -1, log: slog.Default()}
	if len(logger) > 0 && logger[0] != nil {
		S.log = logger[0]
	}
	if err := S.open(); err != nil {
		return nil, nil, err
	}
	return S, S.header, nil
}

func (S *StfR) open() error {
	var err error
	S.f, err = os.Open(S.filename)
	if err != nil {
		return &Error{UnableToOpen + ": " + err.Error(), S.filename, []string{"New"}, true}
	}
	S.intermediate = bufio.NewReader(S.f)
	S.dec, err = decompressorFor(S.filename)(S.intermediate)
	if err != nil {
		S.f.Close()
		return &Error{"can't read header: " + err.Error(), S.filename, []string{"New"}, true}
	}
	S.h = bufio.NewReader(S.dec)
	S.header = make(map[string]string)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.closeFiles()
			return &Error{"can't read header: " + err.Error(), S.filename, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.closeFiles()
				return &Error{fmt.Sprintf("can't read the number of particles from '%s'", str), S.filename, []string{"New"}, true}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil {
				S.closeFiles()
				return &Error{fmt.Sprintf("can't read the number of particles from '%s': %s", nat[1], err.Error()), S.filename, []string{"New"}, true}
			}
			break
		}
		k, v, ok := strings.Cut(str, "=")
		if !ok {
			S.closeFiles()
			return &Error{WrongFormat + ": malformed header line " + str, S.filename, []string{"New"}, true}
		}
		S.header[k] = v
	}
	return S.parseHeader()
}

func (S *StfR) parseHeader() error {
	m := S.header
	S.prec = 2 //files written before the precision was mandatory
	if p, ok := m[KeyPrec]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			S.prec = prec
		} else {
			S.log.Warn("invalid precision for trajectory, assuming the default", "file", S.filename, "prec", p)
		}
	}
	S.unwrapped = m[KeyUnwrapped] == "true"
	S.velocities = m[KeyVelocities] == "true"
	if sp, ok := m[KeySpecies]; ok {
		S.species = strings.Fields(sp)
		if len(S.species) != S.natoms {
			S.closeFiles()
			return &Error{fmt.Sprintf("%d species labels for %d particles", len(S.species), S.natoms), S.filename, []string{"New"}, true}
		}
	} else {
		S.species = make([]string, S.natoms)
		for i := range S.species {
			S.species[i] = "A"
		}
	}
	if b, ok := m[KeyBox]; ok {
		box, err := parseBox(strings.Fields(b))
		if err != nil {
			S.closeFiles()
			return &Error{"invalid box in header: " + err.Error(), S.filename, []string{"New"}, true}
		}
		S.box, S.hasBox = box, true
	}
	S.readable = true
	return nil
}

func parseBox(fields []string) (corr.Box, error) {
	vals := make([]float64, len(fields))
	for i, v := range fields {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return corr.Box{}, err
		}
		vals[i] = f
	}
	return corr.NewBox(vals)
}

// Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *StfR) Readable() bool {
	return S.readable
}

// Unwrapped returns true if the file says its coordinates are unwrapped.
func (S *StfR) Unwrapped() bool {
	return S.unwrapped
}

// Species returns the species labels of the particles.
func (S *StfR) Species() []string {
	return append([]string(nil), S.species...)
}

// Len returns the number of particles in each frame of the trajectory.
func (S *StfR) Len() int {
	return S.natoms
}

// Frames returns the number of frames in the file. The first call reads the whole
// file once, through a separate handle.
func (S *StfR) Frames() int {
	if S.frames >= 0 {
		return S.frames
	}
	f, err := os.Open(S.filename)
	if err != nil {
		S.log.Error("can't count frames", "file", S.filename, "error", err)
		return 0
	}
	defer f.Close()
	dec, err := decompressorFor(S.filename)(bufio.NewReader(f))
	if err != nil {
		S.log.Error("can't count frames", "file", S.filename, "error", err)
		return 0
	}
	defer dec.Close()
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 1<<30) //the species header line can be long
	n := 0
	for sc.Scan() {
		l := sc.Bytes()
		if len(l) > 0 && l[0] == '*' && !(len(l) > 1 && l[1] == '*') {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		S.log.Warn("error counting frames", "file", S.filename, "error", err)
	}
	S.frames = n
	return n
}

// Rewind goes back to the first frame.
func (S *StfR) Rewind() error {
	S.Close()
	S.read = 0
	if err := S.open(); err != nil {
		return errDecorate(err, "Rewind")
	}
	return nil
}

func coordsEncode(f []float64, temp []int, prec int) string {
	p := math.Pow(10.0, float64(prec))
	for i, v := range f {
		temp[i] = int(math.RoundToEven(v * p))
	}
	var b strings.Builder
	for i, v := range temp {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte('\n')
	return b.String()
}

func coordsDecode(str string, temp []float64, prec int) error {
	p := math.Pow(10.0, float64(prec))
	s := strings.Fields(str)
	if len(s) != len(temp) {
		return fmt.Errorf("ill formated line in stf: %d fields, %d expected: %s", len(s), len(temp), str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("can't parse field %d (%s): %w", i, v, err)
		}
		temp[i] = float64(f) / p
	}
	return nil
}

// Next reads the next frame into c, which needs room for Len() particles.
// If c is nil, the frame is read and discarded. At the end of the file it
// returns an error implementing corr.LastFrameError. A malformed frame is
// skipped and reported with a non-critical error, so reading can go on.
func (S *StfR) Next(c *corr.Configuration) error {
	if !S.readable {
		return &Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	frame := S.read
	line, err := S.h.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			S.Close()
			return newlastFrameError(S.filename, "Next")
		}
		return &Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
	}
	S.read++
	step, t := frame, float64(frame)
	if strings.HasPrefix(line, "#") {
		fields := strings.Fields(line[1:])
		if len(fields) >= 2 {
			step, err = strconv.Atoi(fields[0])
			if err == nil {
				t, err = strconv.ParseFloat(fields[1], 64)
			}
			if err != nil {
				return S.skip(frame, "malformed stamp line: "+line)
			}
		}
		line, err = S.h.ReadString('\n')
		if err != nil {
			return &Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
		}
	}
	fields := 3
	if S.velocities {
		fields = 6
	}
	temp := make([]float64, fields)
	if c != nil {
		if c.Coords == nil || c.Coords.NVecs() != S.natoms {
			c.Coords = v3.Zeros(S.natoms)
		}
		if !S.velocities {
			c.Vels = nil
		} else if c.Vels == nil || c.Vels.NVecs() != S.natoms {
			c.Vels = v3.Zeros(S.natoms)
		}
	}
	for i := 0; i < S.natoms; i++ {
		if i > 0 {
			line, err = S.h.ReadString('\n')
			if err != nil {
				return &Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
			}
		}
		if strings.HasPrefix(line, "*") {
			return &Error{fmt.Sprintf("frame %d has %d particles, %d expected", frame, i, S.natoms), S.filename, []string{"Next"}, false}
		}
		if err := coordsDecode(strings.TrimSuffix(line, "\n"), temp, S.prec); err != nil {
			return S.skip(frame, err.Error())
		}
		if c == nil {
			continue //we still check the frame for correctness.
		}
		c.Coords.SetVec(i, [3]float64{temp[0], temp[1], temp[2]})
		if S.velocities {
			c.Vels.SetVec(i, [3]float64{temp[3], temp[4], temp[5]})
		}
	}
	s, err := S.h.ReadString('\n')
	if err != nil {
		return &Error{"can't read the frame termination mark: " + err.Error(), S.filename, []string{"Next"}, true}
	}
	if len(s) == 0 || s[0] != '*' {
		return S.skip(frame, "wrong number of particles in frame")
	}
	box := S.box
	if bf := strings.Fields(s[1:]); len(bf) > 0 {
		box, err = parseBox(bf)
		if err != nil {
			return &Error{fmt.Sprintf("invalid box in frame %d: %s", frame, err.Error()), S.filename, []string{"Next"}, false}
		}
	} else if !S.hasBox {
		return &Error{fmt.Sprintf("frame %d has no box, and the header gives none", frame), S.filename, []string{"Next"}, true}
	}
	if c == nil {
		return nil
	}
	c.Box = box
	c.Step = step
	c.Time = t
	if len(c.Species) != S.natoms {
		c.Species = make([]string, S.natoms)
	}
	copy(c.Species, S.species)
	if S.unwrapped {
		if c.Unwrapped == nil || c.Unwrapped == c.Coords || c.Unwrapped.NVecs() != S.natoms {
			c.Unwrapped = v3.Zeros(S.natoms)
		}
		c.Unwrapped.CopyFrom(c.Coords)
	}
	return nil
}

// skip discards the rest of a malformed frame and returns a non-critical error.
func (S *StfR) skip(frame int, msg string) error {
	for {
		l, err := S.h.ReadString('\n')
		if err != nil {
			return &Error{fmt.Sprintf("frame %d: %s; can't resynchronize: %s", frame, msg, err.Error()), S.filename, []string{"Next"}, true}
		}
		if strings.HasPrefix(l, "*") {
			break
		}
	}
	S.log.Warn("skipped malformed frame", "file", S.filename, "frame", frame, "reason", msg)
	return &Error{fmt.Sprintf("frame %d: %s", frame, msg), S.filename, []string{"Next"}, false}
}

func (S *StfR) closeFiles() {
	if S.dec != nil {
		S.dec.Close()
	}
	if S.f != nil {
		S.f.Close()
	}
}

// Close closes the object, and marks it as unreadable
func (S *StfR) Close() {
	if !S.readable {
		return
	}
	S.closeFiles()
	S.readable = false
}

// Errors

// errDecorate is a helper function that asserts that the error is
// implements corr.Error and decorates the error with the caller's name before returning it.
// if used with a non-corr.Error error, it will cause a panic.
func errDecorate(err error, caller string) error {
	err2 := err.(corr.Error)
	err2.Decorate(caller)
	return err2
}

// Error is the general structure for STF trajectory errors. It fullfills corr.Error and corr.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err *Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

// Decorate Adds new information to the error
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Filename returns the file to which the failing trajectory was associated
func (err *Error) FileName() string { return err.filename }

// Format returns the format of the file (always "stf") associated to the error
func (err *Error) Format() string { return "stf" }

// Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
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

func (E *lastFrameError) Format() string { return "stf" }

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
