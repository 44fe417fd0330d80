// Package params holds the flat pattern parameter set and sanitizes every
// update against configured clamp ranges.
package params

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/pthm-cable/sigil/config"
)

var (
	// ErrUnknownKey is returned for keys outside the parameter set.
	ErrUnknownKey = errors.New("params: unknown key")
	// ErrInvalidValue is returned when a value cannot be interpreted; the
	// previous value is kept.
	ErrInvalidValue = errors.New("params: invalid value")
)

// Parameter keys accepted by Update and Get.
const (
	KeyWavelength        = "wavelength"
	KeySpeed             = "speed"
	KeyThreshold         = "threshold"
	KeySources           = "sources"
	KeyGradient          = "gradient"
	KeyLineDensity       = "line_density"
	KeyMandalaComplexity = "mandala_complexity"
	KeyMandalaSpeed      = "mandala_speed"
	KeyTileSize          = "tile_size"
	KeyTileShift         = "tile_shift"
	KeyRingCount         = "ring_count"
	KeyRingDistortion    = "ring_distortion"
	KeyStrokeWidth       = "stroke_width"
	KeyStrokeEnabled     = "stroke_enabled"
	KeyResolution        = "resolution"
)

// Parameters is the flat configuration consumed by generators.
// Values are always clamped when they come out of a Store.
type Parameters struct {
	Wavelength        float64
	Speed             float64
	Threshold         float64
	Sources           int
	Gradient          bool
	LineDensity       int
	MandalaComplexity int
	MandalaSpeed      float64
	TileSize          float64
	TileShift         float64
	RingCount         int
	RingDistortion    float64
	StrokeWidth       float64
	StrokeEnabled     bool
	Resolution        int
}

// FromDefaults converts configured defaults into a parameter set.
func FromDefaults(d config.ParameterDefaults) Parameters {
	return Parameters{
		Wavelength:        d.Wavelength,
		Speed:             d.Speed,
		Threshold:         d.Threshold,
		Sources:           d.Sources,
		Gradient:          d.Gradient,
		LineDensity:       d.LineDensity,
		MandalaComplexity: d.MandalaComplexity,
		MandalaSpeed:      d.MandalaSpeed,
		TileSize:          d.TileSize,
		TileShift:         d.TileShift,
		RingCount:         d.RingCount,
		RingDistortion:    d.RingDistortion,
		StrokeWidth:       d.StrokeWidth,
		StrokeEnabled:     d.StrokeEnabled,
		Resolution:        d.Resolution,
	}
}

// Defaults converts the parameter set back into its config form.
func (p Parameters) Defaults() config.ParameterDefaults {
	return config.ParameterDefaults{
		Wavelength:        p.Wavelength,
		Speed:             p.Speed,
		Threshold:         p.Threshold,
		Sources:           p.Sources,
		Gradient:          p.Gradient,
		LineDensity:       p.LineDensity,
		MandalaComplexity: p.MandalaComplexity,
		MandalaSpeed:      p.MandalaSpeed,
		TileSize:          p.TileSize,
		TileShift:         p.TileShift,
		RingCount:         p.RingCount,
		RingDistortion:    p.RingDistortion,
		StrokeWidth:       p.StrokeWidth,
		StrokeEnabled:     p.StrokeEnabled,
		Resolution:        p.Resolution,
	}
}

// field binds a key to its storage in Parameters.
type field struct {
	numeric bool
	integer bool
	get     func(p *Parameters) any
	setF    func(p *Parameters, v float64)
	setB    func(p *Parameters, v bool)
}

var fields = map[string]field{
	KeyWavelength: floatField(func(p *Parameters) *float64 { return &p.Wavelength }),
	KeySpeed:      floatField(func(p *Parameters) *float64 { return &p.Speed }),
	KeyThreshold:  floatField(func(p *Parameters) *float64 { return &p.Threshold }),
	KeySources:    intField(func(p *Parameters) *int { return &p.Sources }),
	KeyGradient:   boolField(func(p *Parameters) *bool { return &p.Gradient }),
	KeyLineDensity: intField(func(p *Parameters) *int {
		return &p.LineDensity
	}),
	KeyMandalaComplexity: intField(func(p *Parameters) *int { return &p.MandalaComplexity }),
	KeyMandalaSpeed:      floatField(func(p *Parameters) *float64 { return &p.MandalaSpeed }),
	KeyTileSize:          floatField(func(p *Parameters) *float64 { return &p.TileSize }),
	KeyTileShift:         floatField(func(p *Parameters) *float64 { return &p.TileShift }),
	KeyRingCount:         intField(func(p *Parameters) *int { return &p.RingCount }),
	KeyRingDistortion:    floatField(func(p *Parameters) *float64 { return &p.RingDistortion }),
	KeyStrokeWidth:       floatField(func(p *Parameters) *float64 { return &p.StrokeWidth }),
	KeyStrokeEnabled:     boolField(func(p *Parameters) *bool { return &p.StrokeEnabled }),
	KeyResolution:        intField(func(p *Parameters) *int { return &p.Resolution }),
}

func floatField(ptr func(p *Parameters) *float64) field {
	return field{
		numeric: true,
		get:     func(p *Parameters) any { return *ptr(p) },
		setF:    func(p *Parameters, v float64) { *ptr(p) = v },
	}
}

func intField(ptr func(p *Parameters) *int) field {
	return field{
		numeric: true,
		integer: true,
		get:     func(p *Parameters) any { return *ptr(p) },
		setF:    func(p *Parameters, v float64) { *ptr(p) = int(math.Round(v)) },
	}
}

func boolField(ptr func(p *Parameters) *bool) field {
	return field{
		get:  func(p *Parameters) any { return *ptr(p) },
		setB: func(p *Parameters, v bool) { *ptr(p) = v },
	}
}

// Keys returns all parameter keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clamp returns a copy with every numeric field restricted to its range.
// Keys without a range are left untouched.
func (p Parameters) Clamp(ranges map[string]config.Range) Parameters {
	out := p
	for key, f := range fields {
		if !f.numeric {
			continue
		}
		r, ok := ranges[key]
		if !ok {
			continue
		}
		v := toFloatUnchecked(f.get(&out))
		f.setF(&out, r.Clamp(v))
	}
	return out
}

func toFloatUnchecked(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	}
	return 0
}

// Store is the mutable parameter set shared between the UI collaborator and
// the animation driver. It is not safe for concurrent use; callers run on
// the frame thread.
type Store struct {
	params   Parameters
	ranges   map[string]config.Range
	revision uint64
}

// NewStore creates a store seeded from the configured defaults.
func NewStore(cfg *config.Config) *Store {
	return NewStoreWith(FromDefaults(cfg.Pattern.Defaults), cfg.Ranges)
}

// NewStoreWith creates a store from an explicit parameter set.
func NewStoreWith(p Parameters, ranges map[string]config.Range) *Store {
	return &Store{
		params: p.Clamp(ranges),
		ranges: ranges,
	}
}

// Update sets key to value after sanitizing it. Numeric values are clamped
// to the configured range; values that cannot be interpreted are ignored
// and reported with ErrInvalidValue.
func (s *Store) Update(key string, value any) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	if !f.numeric {
		b, err := toBool(value)
		if err != nil {
			return fmt.Errorf("%w for %q: %v", ErrInvalidValue, key, err)
		}
		if f.get(&s.params).(bool) != b {
			f.setB(&s.params, b)
			s.revision++
		}
		return nil
	}

	v, err := toFloat(value)
	if err != nil {
		return fmt.Errorf("%w for %q: %v", ErrInvalidValue, key, err)
	}
	if r, ok := s.ranges[key]; ok {
		v = r.Clamp(v)
	}
	before := f.get(&s.params)
	f.setF(&s.params, v)
	if f.get(&s.params) != before {
		s.revision++
	}
	return nil
}

// Get returns the current value for key.
func (s *Store) Get(key string) (any, error) {
	f, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return f.get(&s.params), nil
}

// Snapshot returns a copy of the current parameters.
func (s *Store) Snapshot() Parameters {
	return s.params
}

// Revision increments on every effective change.
func (s *Store) Revision() uint64 {
	return s.revision
}

func toFloat(value any) (float64, error) {
	var v float64
	switch x := value.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case bool:
		if x {
			v = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, err
		}
		v = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
	if math.IsNaN(v) {
		return 0, errors.New("NaN")
	}
	return v, nil
}

func toBool(value any) (bool, error) {
	switch x := value.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(x)
	}
	v, err := toFloat(value)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}
