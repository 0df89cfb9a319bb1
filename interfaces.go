/*
 * interfaces.go, part of gocorr.
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

// Traj is an interface for any trajectory object the engine can consume.
// It is a pull-based iterator: the engine never assumes random access
// or rewinding unless the object also implements Rewinder.
type Traj interface {

	//Is the trajectory ready to be read?
	Readable() bool

	//Next reads the next frame into output. If output is nil, the frame is
	//read and discarded. At the end of the trajectory it returns an
	//error implementing LastFrameError.
	Next(output *Configuration) error

	//Returns the number of particles per frame
	Len() int

	//Returns the total number of frames in the trajectory
	Frames() int
}

// Rewinder is a trajectory that can be read again from the first frame.
type Rewinder interface {
	Rewind() error
}

// Unwrapper is implemented by trajectories that can tell whether the
// coordinates they deliver are already unwrapped (i.e. particles are
// never folded back into the box).
type Unwrapper interface {
	Unwrapped() bool
}

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Each call also returns the "decoration" slice of strings resulting from the current call. If passed an empty string, it should just return the current value, not add the empty string to the slice.
	Critical() bool
}

// TrajError is the interface for errors in trajectories
type TrajError interface {
	Error
	FileName() string
	Format() string
}

// LastFrameError has a useless function to distinguish the harmless errors (i.e. last frame) so  they can be
// filtered in a typeswitch that looks for this interface.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination() //does nothing, just to separate this interface from other TrajError's
}
