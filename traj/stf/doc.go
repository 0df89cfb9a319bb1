/*
 * doc.go, part of gocorr.
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

// Package stf implements the simple trajectory format, a small text format
// compressed with zstd, easy to read and write from other languages.
/******************** Format Specification   ***************************************************

An STF file has the extension stf, and it is compressed with z-standard (zstd). Files whose
name ends in 'z', 'r' or 'l' are compressed with gzip, flate or lzw instead.

A STF file may only contain ASCII symbols.

A STF file has a "header" starting in the first line, and ending with a line that starts with the
characters "**" followed by one or more spaces, and the number of particles per frame.

Each line of the header must be a pair key=value. The keys used by this package are:

prec=3              the precision (see below). Mandatory.
species=A A B ...   one label per particle, separated by spaces. Labels default to "A".
unwrapped=true      the coordinates are never folded back into the cell.
velocities=true     each particle line also carries the 3 components of the velocity.
box=Lx Ly Lz        a default cell, for frames that don't give one. 9 numbers (the box
                    vectors) are also accepted, as long as the cell is orthorhombic.

Other keys are kept and returned to the caller.

Each frame may start with a stamp line: the character "#", a space, the step (an integer) and
the time (a floating point number).

After the stamp, the frame has one line per particle. Each line contains 3 integers (6 if the
file carries velocities), corresponding to the x y and z cartesian coordinates (and velocities),
multiplied by 10 to the power of the precision and rounded, and nothing more.

Each frame ends with a line starting with the character "*" (no whitespaces before), optionally
followed by whitespace and 3 (sides) or 9 (box vectors) floating-point numbers separated by spaces,
giving the simulation cell.

The "**" sequence may only be used as a header termination, as described above and can not appear
anywhere else in the file.

***************************************************************************************************/
package stf
