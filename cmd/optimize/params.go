package main

import (
	"fmt"

	"github.com/pthm-cable/sigil/config"
	"github.com/pthm-cable/sigil/params"
	"github.com/pthm-cable/sigil/patterns"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Parameter key
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the parameters that drive one pattern's cost.
type ParamVector struct {
	Specs []ParamSpec
}

// tunable lists the cost-driving parameters per pattern.
var tunable = map[patterns.Variant][]string{
	patterns.Interference:        {params.KeyWavelength, params.KeySources, params.KeyResolution},
	patterns.ContourInterference: {params.KeyWavelength, params.KeySources},
	patterns.Gentle:              {params.KeyLineDensity},
	patterns.Mandala:             {params.KeyMandalaComplexity},
	patterns.VectorField:         {params.KeyTileSize, params.KeyTileShift},
	patterns.ShellRidge:          {params.KeyRingCount, params.KeyRingDistortion},
}

// NewParamVector builds the search space for v from the configured ranges
// and defaults.
func NewParamVector(v patterns.Variant, cfg *config.Config) (*ParamVector, error) {
	keys, ok := tunable[v]
	if !ok {
		return nil, fmt.Errorf("no tunable parameters for %s", v)
	}
	store := params.NewStore(cfg)

	pv := &ParamVector{}
	for _, key := range keys {
		r, ok := cfg.RangeFor(key)
		if !ok {
			return nil, fmt.Errorf("no range configured for %q", key)
		}
		def, err := store.Get(key)
		if err != nil {
			return nil, err
		}
		pv.Specs = append(pv.Specs, ParamSpec{Name: key, Min: r.Min, Max: r.Max, Default: number(def)})
	}
	return pv, nil
}

func number(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes values into the config's pattern defaults. Integer
// parameters are rounded by the store.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	store := params.NewStore(cfg)
	for i, spec := range pv.Specs {
		if err := store.Update(spec.Name, values[i]); err != nil {
			return err
		}
	}
	cfg.Pattern.Defaults = store.Snapshot().Defaults()
	return nil
}
