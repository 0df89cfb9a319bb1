/*
 * options.go, part of gocorr.
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
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// UnwrapMode tells the engine where unwrapped coordinates come from.
type UnwrapMode string

const (
	//Use the coordinates of the trajectory as they come, if the trajectory says
	//they are unwrapped. Otherwise the engine falls back to reconstruct.
	TrustSource UnwrapMode = "trust-source"
	//Always rebuild unwrapped coordinates from minimum-image increments.
	Reconstruct UnwrapMode = "reconstruct"
)

// NoMaxLag is the MaxLag value meaning "none given".
const NoMaxLag = -1

// Options contains the options of one computation. The zero value is not
// useful, start from DefaultOptions. The engine takes Options by value and
// never changes them.
type Options struct {
	//Origins
	MaxOrigins       int     `yaml:"max_origins"`
	MinOriginSpacing int     `yaml:"min_origin_spacing"`
	OriginCount      int     `yaml:"origin_count"`    //0: use the heuristic
	OriginFraction   float64 `yaml:"origin_fraction"` //0: use the heuristic
	StrictOrigins    bool    `yaml:"strict_origins"`  //fail instead of clamping

	//Lags, in frames
	MaxLag     int `yaml:"max_lag"`     //NoMaxLag: 3/4 of the trajectory
	LagSamples int `yaml:"lag_samples"` //0: every lag, otherwise log-spaced

	//Reciprocal space
	KBins            int     `yaml:"k_bins"`
	KMin             float64 `yaml:"k_min"` //0: smallest wavevector of the cell
	KMax             float64 `yaml:"k_max"`
	KTolerance       float64 `yaml:"k_tolerance"` //0: half the shell spacing
	MaxVectorsPerBin int     `yaml:"max_vectors_per_bin"`
	Isotropic        bool    `yaml:"isotropic"`
	Permutations     bool    `yaml:"permutations"`

	//Real space
	RBinWidth float64 `yaml:"r_bin_width"`
	RMax      float64 `yaml:"r_max"` //0: half the shortest side

	SpeciesPartials     bool       `yaml:"species_partials"`
	Unwrap              UnwrapMode `yaml:"periodic_unwrap"`
	OverlapCutoff       float64    `yaml:"overlap_cutoff"`
	OverlapBins         int        `yaml:"overlap_bins"`     //bins of P(q)
	OverlapQMax         float64    `yaml:"overlap_q_max"`    //upper edge of P(q)
	OverlapSelfMax      float64    `yaml:"overlap_self_max"` //P(q) takes windows with a smaller self overlap
	SubtractSelf        bool       `yaml:"subtract_self"`
	NormalizeCollective bool       `yaml:"normalize_collective"`
	StandardErrors      bool       `yaml:"standard_errors"`

	//MSD values below DiffusionSigma^2 are left out of the diffusion fit.
	DiffusionSigma float64 `yaml:"diffusion_sigma"`

	Workers int `yaml:"workers"`

	Logger *slog.Logger `yaml:"-"`
}

// DefaultOptions returns reasonable options for an atomistic trajectory in
// reduced units.
func DefaultOptions() Options {
	return Options{
		MaxOrigins:          100,
		MinOriginSpacing:    1,
		MaxLag:              NoMaxLag,
		KBins:               20,
		KMax:                15,
		Isotropic:           true,
		RBinWidth:           0.04,
		Unwrap:              TrustSource,
		OverlapCutoff:       0.3,
		OverlapBins:         50,
		OverlapQMax:         2,
		OverlapSelfMax:      1,
		NormalizeCollective: true,
		StandardErrors:      true,
		DiffusionSigma:      1.0,
		Workers:             runtime.NumCPU(),
	}
}

// LoadOptions reads a YAML file on top of the default options.
func LoadOptions(path string) (Options, error) {
	o := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("reading options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("parsing options file: %w", err)
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

// Log returns the logger to use, slog's default if none was set.
func (o Options) Log() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Validate checks the options for consistency. It returns a *ConfigurationError
// describing the first problem found, or nil.
func (o Options) Validate() error {
	c := "Options.Validate"
	switch {
	case o.MaxOrigins <= 0:
		return NewConfigurationError(c, "max_origins must be positive, got %d", o.MaxOrigins)
	case o.MinOriginSpacing < 1:
		return NewConfigurationError(c, "min_origin_spacing must be at least 1, got %d", o.MinOriginSpacing)
	case o.OriginCount < 0:
		return NewConfigurationError(c, "origin_count can't be negative, got %d", o.OriginCount)
	case o.OriginFraction < 0 || o.OriginFraction > 1:
		return NewConfigurationError(c, "origin_fraction must be in [0,1], got %g", o.OriginFraction)
	case o.OriginCount > 0 && o.OriginFraction > 0:
		return NewConfigurationError(c, "origin_count and origin_fraction are mutually exclusive")
	case o.MaxLag < NoMaxLag:
		return NewConfigurationError(c, "max_lag must be non-negative (or %d for none), got %d", NoMaxLag, o.MaxLag)
	case o.LagSamples < 0:
		return NewConfigurationError(c, "lag_samples can't be negative, got %d", o.LagSamples)
	case o.KBins <= 0:
		return NewConfigurationError(c, "k_bins must be positive, got %d", o.KBins)
	case o.KMin < 0 || o.KMax <= 0:
		return NewConfigurationError(c, "k_min must be non-negative and k_max positive, got %g, %g", o.KMin, o.KMax)
	case o.KMin >= o.KMax:
		return NewConfigurationError(c, "k_min (%g) must be smaller than k_max (%g)", o.KMin, o.KMax)
	case o.KTolerance < 0:
		return NewConfigurationError(c, "k_tolerance can't be negative, got %g", o.KTolerance)
	case o.MaxVectorsPerBin < 0:
		return NewConfigurationError(c, "max_vectors_per_bin can't be negative, got %d", o.MaxVectorsPerBin)
	case o.RBinWidth <= 0:
		return NewConfigurationError(c, "r_bin_width must be positive, got %g", o.RBinWidth)
	case o.RMax < 0:
		return NewConfigurationError(c, "r_max can't be negative, got %g", o.RMax)
	case o.Unwrap != TrustSource && o.Unwrap != Reconstruct:
		return NewConfigurationError(c, "periodic_unwrap must be %q or %q, got %q", TrustSource, Reconstruct, o.Unwrap)
	case o.OverlapCutoff <= 0:
		return NewConfigurationError(c, "overlap_cutoff must be positive, got %g", o.OverlapCutoff)
	case o.OverlapBins <= 0:
		return NewConfigurationError(c, "overlap_bins must be positive, got %d", o.OverlapBins)
	case o.OverlapQMax <= 0:
		return NewConfigurationError(c, "overlap_q_max must be positive, got %g", o.OverlapQMax)
	case o.OverlapSelfMax <= 0 || o.OverlapSelfMax > 1:
		return NewConfigurationError(c, "overlap_self_max must be in (0,1], got %g", o.OverlapSelfMax)
	case o.Workers < 0:
		return NewConfigurationError(c, "workers can't be negative, got %d", o.Workers)
	}
	return nil
}
