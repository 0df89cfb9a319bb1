package corr

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsValid(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())
}

func TestValidateFailsFast(t *testing.T) {
	mods := map[string]func(*Options){
		"zero origins":     func(o *Options) { o.MaxOrigins = 0 },
		"zero k bins":      func(o *Options) { o.KBins = 0 },
		"bad unwrap":       func(o *Options) { o.Unwrap = "guess" },
		"count+fraction":   func(o *Options) { o.OriginCount = 3; o.OriginFraction = 0.5 },
		"negative lag":     func(o *Options) { o.MaxLag = -7 },
		"kmin above kmax":  func(o *Options) { o.KMin = 20 },
		"zero r bin width": func(o *Options) { o.RBinWidth = 0 },
		"zero P(q) bins":   func(o *Options) { o.OverlapBins = 0 },
		"self max above 1": func(o *Options) { o.OverlapSelfMax = 1.5 },
	}
	for name, mod := range mods {
		o := DefaultOptions()
		mod(&o)
		err := o.Validate()
		var cerr *ConfigurationError
		assert.True(t, errors.As(err, &cerr), "%s: expected a configuration error, got %v", name, err)
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "opts.yaml")
	yml := "max_origins: 10\nk_bins: 5\nperiodic_unwrap: reconstruct\nspecies_partials: true\n"
	require.NoError(t, os.WriteFile(name, []byte(yml), 0o644))
	o, err := LoadOptions(name)
	require.NoError(t, err)
	assert.Equal(t, 10, o.MaxOrigins)
	assert.Equal(t, 5, o.KBins)
	assert.Equal(t, Reconstruct, o.Unwrap)
	assert.True(t, o.SpeciesPartials)
	//untouched fields keep their defaults
	assert.Equal(t, 0.04, o.RBinWidth)
	assert.Equal(t, NoMaxLag, o.MaxLag)

	require.NoError(t, os.WriteFile(name, []byte("max_origins: 0\n"), 0o644))
	_, err = LoadOptions(name)
	var cerr *ConfigurationError
	assert.True(t, errors.As(err, &cerr))

	_, err = LoadOptions(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
