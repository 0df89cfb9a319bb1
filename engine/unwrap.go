/*
 * unwrap.go, part of gocorr.
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

package engine

import (
	"math"

	corr "github.com/rmera/gocorr"
	v3 "github.com/rmera/gocorr/v3"
)

// unwrapper keeps the unwrapped coordinates of the last frame read. It is
// created at the start of each run, so no state survives between runs.
type unwrapper struct {
	trust     bool
	prev      *v3.Matrix //wrapped coordinates of the last good frame
	unwrapped *v3.Matrix
	prevFrame int
}

func newUnwrapper(trust bool) *unwrapper {
	return &unwrapper{trust: trust}
}

// next sets the unwrapped coordinates of c, read at frame t. When
// reconstructing, each particle moves from its previous unwrapped position by
// the minimum image of its displacement. A displacement larger than half the
// shortest side of the cell can't be told apart from one to another image of
// the particle, so it is an error.
func (u *unwrapper) next(t int, c *corr.Configuration) error {
	if u.trust {
		if c.Unwrapped == nil {
			c.Unwrapped = c.Coords
		}
		return nil
	}
	n := c.Len()
	if u.prev == nil {
		u.prev = c.Coords.Clone()
		u.unwrapped = c.Coords.Clone()
		u.prevFrame = t
		u.publish(c)
		return nil
	}
	half := c.Box.MinSide() / 2
	for i := 0; i < n; i++ {
		a, b := u.prev.Vec(i), c.Coords.Vec(i)
		d := corr.MinImage(c.Box, [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]})
		if norm := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2]); norm > half {
			return corr.NewGeometryError("engine.unwrap", t, "particle %d moved %g between frames %d and %d, more than half the cell (%g); the unwrapping is ambiguous", i, norm, u.prevFrame, t, half)
		}
		w := u.unwrapped.Vec(i)
		u.unwrapped.SetVec(i, [3]float64{w[0] + d[0], w[1] + d[1], w[2] + d[2]})
	}
	u.prev.CopyFrom(c.Coords)
	u.prevFrame = t
	u.publish(c)
	return nil
}

// publish copies the reconstructed coordinates into a buffer owned by c.
// The reader fills c again on the next frame, so it must never get hold of
// u.unwrapped.
func (u *unwrapper) publish(c *corr.Configuration) {
	n := u.unwrapped.NVecs()
	if c.Unwrapped == nil || c.Unwrapped == u.unwrapped || c.Unwrapped == c.Coords || c.Unwrapped.NVecs() != n {
		c.Unwrapped = v3.Zeros(n)
	}
	c.Unwrapped.CopyFrom(u.unwrapped)
}
