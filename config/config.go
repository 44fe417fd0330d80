// Package config provides configuration loading and access for the animator.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all animator configuration parameters.
type Config struct {
	Screen    ScreenConfig     `yaml:"screen"`
	Pattern   PatternConfig    `yaml:"pattern"`
	Ranges    map[string]Range `yaml:"ranges"`
	Stencil   StencilConfig    `yaml:"stencil"`
	Flow      FlowConfig       `yaml:"flow"`
	Contour   ContourConfig    `yaml:"contour"`
	Theme     ThemeConfig      `yaml:"theme"`
	Driver    DriverConfig     `yaml:"driver"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PatternConfig selects the initial variant and its parameter values.
type PatternConfig struct {
	Active   string            `yaml:"active"`
	Defaults ParameterDefaults `yaml:"defaults"`
}

// ParameterDefaults mirrors the flat parameter set exposed to the UI.
type ParameterDefaults struct {
	Wavelength        float64 `yaml:"wavelength"`
	Speed             float64 `yaml:"speed"`
	Threshold         float64 `yaml:"threshold"`
	Sources           int     `yaml:"sources"`
	Gradient          bool    `yaml:"gradient"`
	LineDensity       int     `yaml:"line_density"`
	MandalaComplexity int     `yaml:"mandala_complexity"`
	MandalaSpeed      float64 `yaml:"mandala_speed"`
	TileSize          float64 `yaml:"tile_size"`
	TileShift         float64 `yaml:"tile_shift"`
	RingCount         int     `yaml:"ring_count"`
	RingDistortion    float64 `yaml:"ring_distortion"`
	StrokeWidth       float64 `yaml:"stroke_width"`
	StrokeEnabled     bool    `yaml:"stroke_enabled"`
	Resolution        int     `yaml:"resolution"`
}

// Range is an inclusive clamp interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Clamp restricts v to the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// StencilConfig holds logo mask parameters.
type StencilConfig struct {
	Fit         float64 `yaml:"fit"`          // Fraction of the shorter output dimension
	Threshold   uint8   `yaml:"threshold"`    // Fill channel must exceed this to count as inside
	StrokeColor string  `yaml:"stroke_color"` // Outline band color
}

// FlowConfig holds ribbon pool parameters.
type FlowConfig struct {
	Ribbons     int     `yaml:"ribbons"`
	TrailLength int     `yaml:"trail_length"`
	InnerRadius float64 `yaml:"inner_radius"` // Spawn annulus, fraction of half the shorter side
	OuterRadius float64 `yaml:"outer_radius"`
	NoiseScale  float64 `yaml:"noise_scale"`
	TimeScale   float64 `yaml:"time_scale"`
	Strength    float64 `yaml:"strength"`
	MinVelocity float64 `yaml:"min_velocity"`
	LifespanMin int     `yaml:"lifespan_min"` // Frames
	LifespanMax int     `yaml:"lifespan_max"`
	WidthMin    float64 `yaml:"width_min"`
	WidthMax    float64 `yaml:"width_max"`
	Seed        int64   `yaml:"seed"`
}

// ContourConfig holds marching-squares parameters.
type ContourConfig struct {
	GridDivisor int       `yaml:"grid_divisor"`
	Levels      int       `yaml:"levels"`
	LineWeights []float64 `yaml:"line_weights"`
}

// ThemeConfig holds palettes and transition timing.
type ThemeConfig struct {
	Default    string                   `yaml:"default"`
	Transition float64                  `yaml:"transition"` // Seconds
	Palettes   map[string]PaletteConfig `yaml:"palettes"`
}

// PaletteConfig is a named color set in hex notation.
type PaletteConfig struct {
	Primary    string `yaml:"primary"`
	Secondary  string `yaml:"secondary"`
	Accent     string `yaml:"accent"`
	Background string `yaml:"background"`
	Stroke     string `yaml:"stroke,omitempty"`
}

// DriverConfig holds animation loop parameters.
type DriverConfig struct {
	RetryDelay     float64            `yaml:"retry_delay"` // Seconds
	StallThreshold int                `yaml:"stall_threshold"`
	Speeds         map[string]float64 `yaml:"speeds"` // Time advance per frame, by variant
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	Window      int `yaml:"window"`
	LogInterval int `yaml:"log_interval"` // Frames between perf log lines (0 = never)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	RetryDelay   time.Duration
	Transition   time.Duration
	PaletteNames []string // Sorted palette names
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations no clamp can repair.
func (c *Config) validate() error {
	if len(c.Theme.Palettes) == 0 {
		return fmt.Errorf("config: no palettes defined")
	}
	if _, ok := c.Theme.Palettes[c.Theme.Default]; !ok {
		return fmt.Errorf("config: default theme %q not in palettes", c.Theme.Default)
	}
	for key, r := range c.Ranges {
		if r.Min > r.Max {
			return fmt.Errorf("config: range %q has min %v > max %v", key, r.Min, r.Max)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Driver.StallThreshold < 1 {
		c.Driver.StallThreshold = 3
	}
	if c.Contour.GridDivisor < 1 {
		c.Contour.GridDivisor = 1
	}
	if len(c.Contour.LineWeights) == 0 {
		c.Contour.LineWeights = []float64{2, 1}
	}
	if c.Flow.TrailLength < 2 {
		c.Flow.TrailLength = 2
	}
	if c.Flow.LifespanMax <= c.Flow.LifespanMin {
		c.Flow.LifespanMax = c.Flow.LifespanMin + 1
	}
	if c.Stencil.Fit <= 0 || c.Stencil.Fit > 1 {
		c.Stencil.Fit = 0.7
	}

	c.Derived.RetryDelay = time.Duration(c.Driver.RetryDelay * float64(time.Second))
	c.Derived.Transition = time.Duration(c.Theme.Transition * float64(time.Second))

	c.Derived.PaletteNames = make([]string, 0, len(c.Theme.Palettes))
	for name := range c.Theme.Palettes {
		c.Derived.PaletteNames = append(c.Derived.PaletteNames, name)
	}
	sort.Strings(c.Derived.PaletteNames)
}

// RangeFor returns the clamp range for a parameter key.
func (c *Config) RangeFor(key string) (Range, bool) {
	r, ok := c.Ranges[key]
	return r, ok
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
