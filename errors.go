/*
 * errors.go, part of gocorr.
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
	"strings"
)

// ConfigurationError is returned for invalid or inconsistent options: origin
// counts, bin counts, a non-orthorhombic cell where the wavevector grid needs one.
// It is always critical, and is returned before any computation starts.
type ConfigurationError struct {
	message string
	deco    []string
}

// NewConfigurationError returns a ConfigurationError with a formatted message,
// decorated with the caller's name.
func NewConfigurationError(caller, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{message: fmt.Sprintf(format, args...), deco: []string{caller}}
}

func (err *ConfigurationError) Error() string {
	return "configuration error: " + err.message + decoString(err.deco)
}

// Decorate adds new information to the error
func (err *ConfigurationError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Critical always returns true
func (err *ConfigurationError) Critical() bool { return true }

// GeometryError is returned for an ambiguous unwrap or a degenerate cell.
type GeometryError struct {
	message string
	deco    []string
	// Frame is the frame where the problem was found, or -1.
	Frame int
}

// NewGeometryError returns a GeometryError for the given frame (-1 if
// no frame applies).
func NewGeometryError(caller string, frame int, format string, args ...any) *GeometryError {
	return &GeometryError{message: fmt.Sprintf(format, args...), deco: []string{caller}, Frame: frame}
}

func (err *GeometryError) Error() string {
	if err.Frame >= 0 {
		return fmt.Sprintf("geometry error at frame %d: %s%s", err.Frame, err.message, decoString(err.deco))
	}
	return "geometry error: " + err.message + decoString(err.deco)
}

// Decorate adds new information to the error
func (err *GeometryError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Critical always returns true
func (err *GeometryError) Critical() bool { return true }

// InsufficientDataError reports a trajectory too short for what was
// requested. It is not critical: the engine truncates and goes on,
// reporting the error as a warning.
type InsufficientDataError struct {
	What      string
	Requested int
	Available int
	deco      []string
}

func NewInsufficientDataError(caller, what string, requested, available int) *InsufficientDataError {
	return &InsufficientDataError{What: what, Requested: requested, Available: available, deco: []string{caller}}
}

func (err *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s %d requested, only %d available%s", err.What, err.Requested, err.Available, decoString(err.deco))
}

// Decorate adds new information to the error
func (err *InsufficientDataError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Critical always returns false
func (err *InsufficientDataError) Critical() bool { return false }

func decoString(deco []string) string {
	if len(deco) == 0 {
		return ""
	}
	return " (" + strings.Join(deco, " <- ") + ")"
}
