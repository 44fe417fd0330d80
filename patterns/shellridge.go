package patterns

import (
	"math"

	"github.com/pthm-cable/sigil/params"
	"github.com/pthm-cable/sigil/renderer"
	"github.com/pthm-cable/sigil/systems"
)

// Ring harmonics: radius += distortion * (a1 sin(k1θ + t) + a2 sin(k2θ - 0.7t + i)).
const (
	ridgeK1 = 3
	ridgeK2 = 7
	ridgeA1 = 0.6
	ridgeA2 = 0.4
)

// harmonicTable caches sin/cos of both harmonics at every sample angle.
type harmonicTable struct {
	samples    int
	cos, sin   []float64 // θ
	sin1, cos1 []float64 // k1θ
	sin2, cos2 []float64 // k2θ
}

func newHarmonicTable(samples int) *harmonicTable {
	tb := &harmonicTable{
		samples: samples,
		cos:     make([]float64, samples),
		sin:     make([]float64, samples),
		sin1:    make([]float64, samples),
		cos1:    make([]float64, samples),
		sin2:    make([]float64, samples),
		cos2:    make([]float64, samples),
	}
	for j := 0; j < samples; j++ {
		a := 2 * math.Pi * float64(j) / float64(samples)
		tb.sin[j], tb.cos[j] = math.Sincos(a)
		tb.sin1[j], tb.cos1[j] = math.Sincos(ridgeK1 * a)
		tb.sin2[j], tb.cos2[j] = math.Sincos(ridgeK2 * a)
	}
	return tb
}

// RidgeSamples returns the angular sample count for a w x h output.
func RidgeSamples(w, h int) int {
	return max(64, min(720, min(w, h)/2))
}

// ShellRidgeGen draws distorted concentric rings with texture dots.
type ShellRidgeGen struct {
	table   *harmonicTable
	noise   *systems.Noise
	points  []renderer.Point
	rebuilt int
}

// NewShellRidge creates a shell ridge generator.
func NewShellRidge() *ShellRidgeGen {
	return &ShellRidgeGen{noise: systems.NewNoise(7)}
}

// tableFor returns the harmonic table, rebuilding it only when the sample
// count changes.
func (g *ShellRidgeGen) tableFor(samples int) *harmonicTable {
	if g.table == nil || g.table.samples != samples {
		g.table = newHarmonicTable(samples)
		g.rebuilt++
	}
	return g.table
}

// Render draws one frame.
func (g *ShellRidgeGen) Render(f *Frame) error {
	clearBackground(f)
	if f.Degenerate() || f.Params.RingCount <= 0 {
		return nil
	}
	tb := g.tableFor(RidgeSamples(f.Width, f.Height))
	n := f.Params.RingCount
	t := f.Time
	cx, cy := float64(f.Width)/2, float64(f.Height)/2
	maxR := math.Min(float64(f.Width), float64(f.Height)) * 0.46
	step := maxR / float64(n+1)
	amp := f.Params.RingDistortion * step
	sinT, cosT := math.Sincos(t)

	for i := 0; i < n; i++ {
		base := step * float64(i+1)
		sinP, cosP := math.Sincos(-0.7*t + float64(i))
		decay := 1 - float64(i)/float64(n+1)

		g.points = g.points[:0]
		for j := 0; j <= tb.samples; j++ {
			k := j % tb.samples
			h1 := tb.sin1[k]*cosT + tb.cos1[k]*sinT
			h2 := tb.sin2[k]*cosP + tb.cos2[k]*sinP
			r := base + amp*(ridgeA1*h1+ridgeA2*h2)
			g.points = append(g.points, renderer.Point{X: cx + r*tb.cos[k], Y: cy + r*tb.sin[k]})
		}
		col := blendStops(f.Palette, float64(i)/float64(max(n-1, 1)))
		if err := f.Surface.Stroke(g.points, 0.5+2.5*decay, rgba(col, 0.25+0.65*decay)); err != nil {
			return err
		}

		// Texture dots on a sparser, offset angular sampling
		stride := 5 + i%3
		for j := stride / 2; j < tb.samples; j += stride {
			jitter := g.noise.Fractal(float64(i)*0.37+float64(j)*0.05, t*0.2, 2)
			if jitter < 0.1 {
				continue
			}
			pt := g.points[j]
			off := jitter * step * 0.4
			x := pt.X + off*tb.cos[j]
			y := pt.Y + off*tb.sin[j]
			if err := f.Surface.FillCircle(x, y, 0.6+jitter, rgba(f.Palette.Accent, 0.5*decay)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Complexity grows with ring count and distortion.
func (g *ShellRidgeGen) Complexity(p params.Parameters) int {
	return clampScore(float64(p.RingCount)*1.5 + p.RingDistortion*20)
}
