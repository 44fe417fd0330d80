// Package patterns implements the pattern generators behind a single
// strategy interface, selected by Variant.
package patterns

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/pthm-cable/sigil/colorspace"
	"github.com/pthm-cable/sigil/params"
	"github.com/pthm-cable/sigil/renderer"
	"github.com/pthm-cable/sigil/theme"
)

// ErrUnknownVariant is returned for pattern ids that are not registered.
var ErrUnknownVariant = errors.New("patterns: unknown variant")

// Variant selects a generator.
type Variant uint8

const (
	Interference Variant = iota
	ContourInterference
	Gentle
	Mandala
	VectorField
	ShellRidge
)

var variantNames = [...]string{
	Interference:        "interference",
	ContourInterference: "contour_interference",
	Gentle:              "gentle",
	Mandala:             "mandala",
	VectorField:         "vector_field",
	ShellRidge:          "shell_ridge",
}

// Variants lists every variant in declaration order.
func Variants() []Variant {
	return []Variant{Interference, ContourInterference, Gentle, Mandala, VectorField, ShellRidge}
}

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("variant(%d)", v)
}

// ParseVariant resolves a variant from its string id.
func ParseVariant(s string) (Variant, error) {
	for i, name := range variantNames {
		if name == s {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Frame is everything a generator needs to draw one frame.
type Frame struct {
	Surface renderer.Surface
	Time    float64
	Palette theme.Palette
	Params  params.Parameters
	Inside  func(x, y int) bool // Optional stencil hint; nil means everywhere
	Width   int
	Height  int
}

// Degenerate reports whether there is nothing to draw.
func (f *Frame) Degenerate() bool {
	return f.Width <= 0 || f.Height <= 0
}

// Generator renders one pattern variant.
type Generator interface {
	// Render draws a full frame onto f.Surface. It must not rely on the
	// previous frame's contents.
	Render(f *Frame) error
	// Complexity scores p in [1, 100] for descriptive metadata.
	Complexity(p params.Parameters) int
}

// clampScore rounds and clamps a complexity score to [1, 100].
func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 1
	}
	return int(math.Max(1, math.Min(100, math.Round(v))))
}

// clearBackground fills the surface with the palette background.
func clearBackground(f *Frame) {
	f.Surface.Clear(f.Palette.Background.NRGBA(1))
}

// rgba is shorthand for a palette color with alpha.
func rgba(c colorspace.RGB, alpha float64) color.NRGBA {
	return c.NRGBA(alpha)
}

// blendStops picks a color across primary, secondary and accent for v in [0, 1].
func blendStops(p theme.Palette, v float64) colorspace.RGB {
	v = math.Max(0, math.Min(1, v))
	if v < 0.5 {
		return colorspace.Lerp(p.Primary, p.Secondary, v*2)
	}
	return colorspace.Lerp(p.Secondary, p.Accent, (v-0.5)*2)
}
