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

/*
Package corr is the main package of the goCorr library. It provides the types shared by
the correlation-function engine: the particle Configuration, the orthorhombic simulation
Box with its minimum-image geometry, the species pair keys used for partial correlations,
the trajectory interfaces, the error types and the Options of a computation.

	**goCorr Capabilities**

	Computes, from molecular-dynamics or Monte-Carlo trajectories:

	Radial distribution function g(r), total and partial.

	Structure factor S(k) on the reciprocal lattice of the cell.

	Mean-square displacement and non-Gaussian parameter, with the
	diffusion coefficient fitted from the MSD.

	Self and collective intermediate scattering functions F_s(k,t), F(k,t),
	with relaxation times.

	Self overlap Q_s(t) and the four-point dynamic susceptibility chi4(t).

	Velocity autocorrelation function.

The engine (package engine) streams the trajectory once, evaluating the selected time
origins concurrently, and never holds more configurations than the longest lag needs.
*/
package corr
