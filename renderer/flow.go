package renderer

import (
	"image/color"

	"github.com/pthm-cable/sigil/systems"
)

// trailBands splits each trail into segments of decreasing alpha toward
// the tail. Fewer bands means fewer stroke calls per ribbon.
const trailBands = 3

// RibbonRenderer strokes flow ribbons with their fading trails.
type RibbonRenderer struct {
	BaseAlpha float64
	points    []Point
}

// NewRibbonRenderer creates a ribbon renderer.
func NewRibbonRenderer(baseAlpha float64) *RibbonRenderer {
	return &RibbonRenderer{BaseAlpha: baseAlpha}
}

// Draw strokes every visible ribbon. Width scales with the ribbon's width
// factor and current opacity.
func (r *RibbonRenderer) Draw(s Surface, ribbons []systems.Ribbon) error {
	for i := range ribbons {
		rb := &ribbons[i]

		// Need at least 2 trail points to draw
		if len(rb.Trail) < 2 {
			continue
		}
		alpha := rb.Opacity * r.BaseAlpha
		if alpha*255 < 2 {
			continue
		}

		n := len(rb.Trail)
		bandLen := (n + trailBands - 1) / trailBands
		for band := 0; band < trailBands; band++ {
			// Band 0 is the head (newest points)
			hi := n - band*bandLen
			lo := max(hi-bandLen-1, 0)
			if hi-lo < 2 {
				break
			}

			fade := 1 - float64(band)/trailBands
			fade *= fade // Quadratic falloff

			r.points = r.points[:0]
			for _, p := range rb.Trail[lo:hi] {
				r.points = append(r.points, Point{X: p.X, Y: p.Y})
			}
			width := rb.Width * (0.5 + 0.5*rb.Opacity) * fade
			if err := s.Stroke(r.points, width, rb.Color.NRGBA(alpha*fade)); err != nil {
				return err
			}
		}
	}
	return nil
}

// SegmentRenderer strokes contour segments, alternating line weight per
// level.
type SegmentRenderer struct {
	Weights []float64
	pairs   [][]Point
}

// NewSegmentRenderer creates a renderer. Weights cycle by level index.
func NewSegmentRenderer(weights []float64) *SegmentRenderer {
	if len(weights) == 0 {
		weights = []float64{2, 1}
	}
	return &SegmentRenderer{Weights: weights}
}

// Draw strokes segs one path per level, colored by colorFor.
func (r *SegmentRenderer) Draw(s Surface, segs []systems.Segment, levels int, colorFor func(level int) color.NRGBA) error {
	if levels <= 0 {
		return nil
	}
	if cap(r.pairs) < levels {
		r.pairs = make([][]Point, levels)
	}
	r.pairs = r.pairs[:levels]
	for i := range r.pairs {
		r.pairs[i] = r.pairs[i][:0]
	}
	for _, seg := range segs {
		if seg.Level < 0 || seg.Level >= levels {
			continue
		}
		r.pairs[seg.Level] = append(r.pairs[seg.Level],
			Point{X: seg.X1, Y: seg.Y1}, Point{X: seg.X2, Y: seg.Y2})
	}
	for level, pairs := range r.pairs {
		if err := s.StrokeLines(pairs, r.Weight(level), colorFor(level)); err != nil {
			return err
		}
	}
	return nil
}

// Weight returns the stroke width for a level.
func (r *SegmentRenderer) Weight(level int) float64 {
	return r.Weights[level%len(r.Weights)]
}
