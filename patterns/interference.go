package patterns

import (
	"image/color"
	"math"

	"github.com/pthm-cable/sigil/params"
	"github.com/pthm-cable/sigil/renderer"
	"github.com/pthm-cable/sigil/systems"
)

// InterferenceGen renders the wave field per pixel. With resolution > 1 the
// field is sampled on a reduced grid and upscaled onto the surface.
type InterferenceGen struct {
	field *systems.WaveField
	buf   *renderer.Buffer
	seed  uint32

	// Source layout is regenerated only when one of these changes
	count, w, h int
}

// NewInterference creates an interference generator.
func NewInterference(env Env) *InterferenceGen {
	return &InterferenceGen{
		field: systems.NewWaveField(nil, 1, env.Pool),
		buf:   renderer.NewBuffer(0, 0),
		seed:  1,
		count: -1,
	}
}

// Render draws one frame.
func (g *InterferenceGen) Render(f *Frame) error {
	if f.Degenerate() {
		return nil
	}
	res := max(f.Params.Resolution, 1)
	w := (f.Width + res - 1) / res
	h := (f.Height + res - 1) / res

	g.prepare(f.Params.Sources, w, h)
	g.field.Wavelength = f.Params.Wavelength / float64(res)
	g.buf.Resize(w, h)

	var inside func(x, y int) bool
	if f.Inside != nil {
		inside = f.Inside
		if res > 1 {
			inside = func(x, y int) bool { return f.Inside(min(x*res, f.Width-1), min(y*res, f.Height-1)) }
		}
	}

	g.field.Render(g.buf.Image(), f.Time, f.Palette.Stops(), systems.WaveOptions{
		Gradient:  f.Params.Gradient,
		Threshold: f.Params.Threshold,
		Seed:      g.seed,
	}, inside)
	f.Surface.DrawBuffer(g.buf)
	return nil
}

// prepare regenerates sources when the count or sampled size changes.
func (g *InterferenceGen) prepare(count, w, h int) {
	if count == g.count && w == g.w && h == g.h {
		return
	}
	g.count, g.w, g.h = count, w, h
	g.field.Sources = systems.PlaceSources(count, w, h)
}

// Complexity grows with source count and shorter wavelengths.
func (g *InterferenceGen) Complexity(p params.Parameters) int {
	return interferenceComplexity(p)
}

func interferenceComplexity(p params.Parameters) int {
	score := 5 + float64(p.Sources)*10 + 200/math.Max(p.Wavelength, 1)
	if !p.Gradient {
		score -= 5
	}
	return clampScore(score)
}

// ContourInterferenceGen draws iso-lines of the wave field.
type ContourInterferenceGen struct {
	extractor *systems.ContourExtractor
	segments  *renderer.SegmentRenderer
	field     *systems.WaveField
	levels    []float64
	divisor   int

	count, w, h int
}

// NewContourInterference creates a contour generator from the contour config.
func NewContourInterference(env Env) *ContourInterferenceGen {
	cc := env.Config.Contour
	return &ContourInterferenceGen{
		extractor: systems.NewContourExtractor(0, 0, cc.GridDivisor, env.Pool),
		segments:  renderer.NewSegmentRenderer(cc.LineWeights),
		field:     systems.NewWaveField(nil, 1, nil),
		levels:    systems.ContourLevels(cc.Levels),
		divisor:   cc.GridDivisor,
		count:     -1,
	}
}

// Render draws one frame.
func (g *ContourInterferenceGen) Render(f *Frame) error {
	clearBackground(f)
	if f.Degenerate() {
		return nil
	}
	if f.Params.Sources != g.count || f.Width != g.w || f.Height != g.h {
		g.count, g.w, g.h = f.Params.Sources, f.Width, f.Height
		g.field.Sources = systems.PlaceSources(g.count, f.Width, f.Height)
		g.extractor.Resize(f.Width, f.Height)
	}
	g.field.Wavelength = f.Params.Wavelength

	g.extractor.UpdateField(f.Time, g.field)
	segs := g.extractor.ExtractContours(g.levels)

	n := len(g.levels)
	return g.segments.Draw(f.Surface, segs, n, func(level int) color.NRGBA {
		v := 0.5
		if n > 1 {
			v = float64(level) / float64(n-1)
		}
		return rgba(blendStops(f.Palette, v), 0.9)
	})
}

// Complexity grows with sources and contour density.
func (g *ContourInterferenceGen) Complexity(p params.Parameters) int {
	return clampScore(float64(interferenceComplexity(p)) + float64(len(g.levels))*2)
}
