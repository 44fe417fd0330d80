package patterns

import (
	"math"

	"github.com/pthm-cable/sigil/params"
	"github.com/pthm-cable/sigil/renderer"
)

// Sampling step along each stroke in pixels.
const gentleStep = 6.0

// GentleFlowGen draws three families of slow sinusoidal strokes.
type GentleFlowGen struct {
	points []renderer.Point
}

// NewGentleFlow creates a gentle flow generator.
func NewGentleFlow() *GentleFlowGen {
	return &GentleFlowGen{}
}

// LineCount bounds the number of strokes in a family by density and the
// dimension the family is spread across.
func LineCount(density, extent int) int {
	return max(0, min(density, extent/4))
}

// wave returns the amplitude, frequency and phase of line i, offset by
// index so neighbouring lines never repeat.
func wave(i int, base float64) (amp, freq, phase float64) {
	fi := float64(i)
	amp = base * (0.6 + 0.4*math.Sin(fi*1.7))
	freq = 0.008 + 0.004*(1+math.Sin(fi*0.9))
	phase = fi * 0.61
	return amp, freq, phase
}

// Render draws one frame.
func (g *GentleFlowGen) Render(f *Frame) error {
	clearBackground(f)
	if f.Degenerate() {
		return nil
	}
	w, h := float64(f.Width), float64(f.Height)
	t := f.Time
	p := f.Palette

	// Horizontal
	n := LineCount(f.Params.LineDensity, f.Height)
	for i := 0; i < n; i++ {
		amp, freq, phase := wave(i, h/float64(n+1)*0.8)
		y0 := h * float64(i+1) / float64(n+1)
		g.points = g.points[:0]
		for x := 0.0; x <= w+gentleStep; x += gentleStep {
			y := y0 + amp*math.Sin(x*freq+t+phase)
			g.points = append(g.points, renderer.Point{X: x, Y: y})
		}
		c := rgba(blendStops(p, float64(i)/float64(max(n-1, 1))*0.5), 0.55)
		if err := f.Surface.Stroke(g.points, 1.5, c); err != nil {
			return err
		}
	}

	// Vertical
	n = LineCount(f.Params.LineDensity, f.Width)
	for i := 0; i < n; i++ {
		amp, freq, phase := wave(i+n, w/float64(n+1)*0.6)
		x0 := w * float64(i+1) / float64(n+1)
		g.points = g.points[:0]
		for y := 0.0; y <= h+gentleStep; y += gentleStep {
			x := x0 + amp*math.Sin(y*freq-t*0.8+phase)
			g.points = append(g.points, renderer.Point{X: x, Y: y})
		}
		c := rgba(blendStops(p, 0.5+float64(i)/float64(max(n-1, 1))*0.5), 0.35)
		if err := f.Surface.Stroke(g.points, 1, c); err != nil {
			return err
		}
	}

	// Diagonal, spread across the sum of both sides
	diag := f.Width + f.Height
	n = LineCount(f.Params.LineDensity/2, diag)
	for i := 0; i < n; i++ {
		amp, freq, phase := wave(i+2*n, 18)
		// Offset along the anti-diagonal; strokes run top-left to bottom-right
		off := float64(diag)*float64(i+1)/float64(n+1) - h
		g.points = g.points[:0]
		for s := 0.0; s <= w+h; s += gentleStep {
			d := amp * math.Sin(s*freq+t*0.6+phase)
			g.points = append(g.points, renderer.Point{
				X: off + s/math.Sqrt2 + d/math.Sqrt2,
				Y: s/math.Sqrt2 - d/math.Sqrt2,
			})
		}
		if err := f.Surface.Stroke(g.points, 1, rgba(p.Accent, 0.25)); err != nil {
			return err
		}
	}
	return nil
}

// Complexity grows with line density.
func (g *GentleFlowGen) Complexity(p params.Parameters) int {
	return clampScore(float64(p.LineDensity) * 2.5 / 3)
}
