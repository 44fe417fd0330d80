// Package colorspace provides hex/RGB conversion, blending and alpha
// compositing helpers shared by every pattern generator.
package colorspace

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidHex is returned when a string is not a 6-digit hex color.
var ErrInvalidHex = errors.New("colorspace: invalid hex color")

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

// ParseHex parses "#rrggbb" or "rrggbb" (case-insensitive).
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 7 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// MustHex is like ParseHex but panics on error. Intended for constants.
func MustHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the color as lowercase "#rrggbb".
func (c RGB) Hex() string {
	return c.colorful().Hex()
}

// NRGBA returns the color with the given alpha in [0,1].
func (c RGB) NRGBA(alpha float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: Clamp255(alpha * 255)}
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Clamp255 rounds and clamps v to [0, 255].
func Clamp255(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Lerp linearly interpolates each channel from a to b. t is clamped to [0,1].
func Lerp(a, b RGB, t float64) RGB {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return RGB{
		R: Clamp255(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: Clamp255(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: Clamp255(float64(a.B) + (float64(b.B)-float64(a.B))*t),
	}
}

// LerpChannels is Lerp without the final rounding, for callers that add
// noise before quantizing.
func LerpChannels(a, b RGB, t float64) (r, g, bl float64) {
	t = math.Max(0, math.Min(1, t))
	r = float64(a.R) + (float64(b.R)-float64(a.R))*t
	g = float64(a.G) + (float64(b.G)-float64(a.G))*t
	bl = float64(a.B) + (float64(b.B)-float64(a.B))*t
	return r, g, bl
}

// Blend3 maps v in [0,1] across four stops in three equal segments:
// stops[0]→stops[1] over [0,1/3], stops[1]→stops[2] over [1/3,2/3],
// stops[2]→stops[3] over [2/3,1].
func Blend3(stops [4]RGB, v float64) (r, g, b float64) {
	v = math.Max(0, math.Min(1, v))
	const third = 1.0 / 3.0
	switch {
	case v < third:
		return LerpChannels(stops[0], stops[1], v/third)
	case v < 2*third:
		return LerpChannels(stops[1], stops[2], (v-third)/third)
	default:
		return LerpChannels(stops[2], stops[3], (v-2*third)/third)
	}
}

// BlendRGB interpolates in linear RGB space, which keeps mid-tones from
// darkening the way sRGB interpolation does.
func BlendRGB(a, b RGB, t float64) RGB {
	t = math.Max(0, math.Min(1, t))
	r, g, bl := a.colorful().BlendLinearRgb(b.colorful(), t).Clamped().RGB255()
	return RGB{R: r, G: g, B: bl}
}

// Over composites src with the given alpha over dst.
func Over(dst, src RGB, alpha float64) RGB {
	return Lerp(dst, src, alpha)
}

// Scale multiplies every channel by f, clamping the result.
func Scale(c RGB, f float64) RGB {
	return RGB{
		R: Clamp255(float64(c.R) * f),
		G: Clamp255(float64(c.G) * f),
		B: Clamp255(float64(c.B) * f),
	}
}
