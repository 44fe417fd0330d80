package patterns

import (
	"image/color"
	"math"

	"github.com/pthm-cable/sigil/params"
	"github.com/pthm-cable/sigil/renderer"
)

// goldenAngle decorrelates per-layer phases.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// Shape is the point glyph of a mandala layer.
type Shape uint8

const (
	ShapeCircle Shape = iota
	ShapeSquare
	ShapeDiamond
)

// Petal is one placed point of a layer.
type Petal struct {
	X, Y    float64
	Angle   float64
	Size    float64
	Opacity float64
}

// Layer is one concentric ring of petals.
type Layer struct {
	Index  int
	Radius float64
	Shape  Shape
	Points []Petal
}

// Layout places complexity concentric layers around the center of a w x h
// area at time t. Layer l has 6+2l points on a breathing circle.
func Layout(t float64, w, h, complexity int) []Layer {
	if complexity <= 0 || w <= 0 || h <= 0 {
		return nil
	}
	cx, cy := float64(w)/2, float64(h)/2
	maxR := math.Min(float64(w), float64(h)) * 0.45
	step := maxR / float64(complexity)

	layers := make([]Layer, complexity)
	for l := range layers {
		phase := float64(l) * goldenAngle
		breath := 1 + 0.08*math.Sin(t*0.8+phase)
		radius := step * (float64(l) + 0.75) * breath
		n := 6 + 2*l
		rot := t * 0.1 * float64(1-2*(l%2)) // Alternate layers counter-rotate

		layer := Layer{Index: l, Radius: radius, Shape: Shape(l % 3), Points: make([]Petal, n)}
		for k := range layer.Points {
			a := rot + 2*math.Pi*float64(k)/float64(n)
			sin, cos := math.Sincos(a)
			layer.Points[k] = Petal{
				X:       cx + radius*cos,
				Y:       cy + radius*sin,
				Angle:   a,
				Size:    step * 0.18 * (1 + 0.3*math.Sin(t*1.3+phase*1.7)),
				Opacity: 0.55 + 0.35*math.Sin(t+phase),
			}
		}
		layers[l] = layer
	}
	return layers
}

// MandalaGen draws breathing concentric layers with connectors.
type MandalaGen struct {
	poly  []renderer.Point
	lines []renderer.Point
}

// NewMandala creates a mandala generator.
func NewMandala() *MandalaGen {
	return &MandalaGen{}
}

// Render draws one frame.
func (g *MandalaGen) Render(f *Frame) error {
	clearBackground(f)
	if f.Degenerate() {
		return nil
	}
	t := f.Time * f.Params.MandalaSpeed
	layers := Layout(t, f.Width, f.Height, f.Params.MandalaComplexity)
	cx, cy := float64(f.Width)/2, float64(f.Height)/2
	p := f.Palette

	// Radial connectors from each point toward the previous layer
	for i := 1; i < len(layers); i++ {
		g.lines = g.lines[:0]
		inner := layers[i-1].Radius
		for _, pt := range layers[i].Points {
			sin, cos := math.Sincos(pt.Angle)
			g.lines = append(g.lines, renderer.Point{X: pt.X, Y: pt.Y},
				renderer.Point{X: cx + inner*cos, Y: cy + inner*sin})
		}
		if err := f.Surface.StrokeLines(g.lines, 0.75, rgba(p.Secondary, 0.25)); err != nil {
			return err
		}
	}

	for _, layer := range layers {
		v := float64(layer.Index) / float64(max(len(layers)-1, 1))
		col := blendStops(p, v)
		for _, pt := range layer.Points {
			if err := g.drawPetal(f.Surface, layer.Shape, pt, rgba(col, pt.Opacity)); err != nil {
				return err
			}
			// Secondary dot just outside, smaller and dimmer
			dx, dy := pt.X-cx, pt.Y-cy
			if err := f.Surface.FillCircle(cx+dx*1.08, cy+dy*1.08, pt.Size*0.35, rgba(p.Accent, pt.Opacity*0.6)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *MandalaGen) drawPetal(s renderer.Surface, shape Shape, pt Petal, c color.NRGBA) error {
	switch shape {
	case ShapeSquare:
		return s.FillRect(pt.X-pt.Size, pt.Y-pt.Size, 2*pt.Size, 2*pt.Size, c)
	case ShapeDiamond:
		g.poly = append(g.poly[:0],
			renderer.Point{X: pt.X, Y: pt.Y - pt.Size},
			renderer.Point{X: pt.X + pt.Size, Y: pt.Y},
			renderer.Point{X: pt.X, Y: pt.Y + pt.Size},
			renderer.Point{X: pt.X - pt.Size, Y: pt.Y},
		)
		return s.FillPolygon(g.poly, c)
	default:
		return s.FillCircle(pt.X, pt.Y, pt.Size, c)
	}
}

// Complexity counts drawn petals.
func (g *MandalaGen) Complexity(p params.Parameters) int {
	n := p.MandalaComplexity
	// Sum of 6+2l over n layers
	petals := 6*n + n*(n-1)
	return clampScore(float64(petals) / 4)
}
