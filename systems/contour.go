package systems

import (
	"gonum.org/v1/gonum/floats"
)

// ScalarField is a row-major grid of samples spaced Cell pixels apart.
// Sample (c, r) sits at pixel (c*Cell, r*Cell).
type ScalarField struct {
	Cols, Rows int
	Cell       float64
	Values     []float64
}

// At returns the sample at column c, row r.
func (f *ScalarField) At(c, r int) float64 {
	return f.Values[r*f.Cols+c]
}

// Range returns the minimum and maximum sample.
func (f *ScalarField) Range() (lo, hi float64) {
	if len(f.Values) == 0 {
		return 0, 0
	}
	return floats.Min(f.Values), floats.Max(f.Values)
}

// Segment is one iso-line piece inside a grid cell, in pixel coordinates.
type Segment struct {
	X1, Y1, X2, Y2 float64
	Level          int // Index into the levels slice
}

// Cell edges.
const (
	edgeTop = iota
	edgeRight
	edgeBottom
	edgeLeft
)

// caseEdges lists the edge pairs crossed for each corner code
// (TL=8, TR=4, BR=2, BL=1). Saddles 5 and 10 keep the "above" corners
// connected and always emit two segments.
var caseEdges = [16][][2]int{
	0:  nil,
	1:  {{edgeLeft, edgeBottom}},
	2:  {{edgeBottom, edgeRight}},
	3:  {{edgeLeft, edgeRight}},
	4:  {{edgeTop, edgeRight}},
	5:  {{edgeLeft, edgeTop}, {edgeBottom, edgeRight}},
	6:  {{edgeTop, edgeBottom}},
	7:  {{edgeLeft, edgeTop}},
	8:  {{edgeLeft, edgeTop}},
	9:  {{edgeTop, edgeBottom}},
	10: {{edgeTop, edgeRight}, {edgeLeft, edgeBottom}},
	11: {{edgeTop, edgeRight}},
	12: {{edgeLeft, edgeRight}},
	13: {{edgeBottom, edgeRight}},
	14: {{edgeLeft, edgeBottom}},
	15: nil,
}

// ContourLevels returns n levels evenly spaced strictly inside (-1, 1).
func ContourLevels(n int) []float64 {
	if n <= 0 {
		return nil
	}
	levels := make([]float64, n)
	for i := range levels {
		levels[i] = -1 + 2*float64(i+1)/float64(n+1)
	}
	return levels
}

// ContourExtractor samples a wave field on a coarse grid and extracts
// iso-contours by marching squares.
type ContourExtractor struct {
	field    ScalarField
	width    int
	height   int
	divisor  int
	segments []Segment
	pool     *RowPool
}

// NewContourExtractor creates an extractor for a width x height output,
// sampling every divisor pixels.
func NewContourExtractor(width, height, divisor int, pool *RowPool) *ContourExtractor {
	e := &ContourExtractor{divisor: max(divisor, 1), pool: pool}
	e.Resize(width, height)
	return e
}

// Resize rebuilds the grid for new output dimensions.
func (e *ContourExtractor) Resize(width, height int) {
	e.width, e.height = width, height
	if width <= 0 || height <= 0 {
		e.field = ScalarField{Cell: float64(e.divisor)}
		return
	}
	cols := (width+e.divisor-1)/e.divisor + 1
	rows := (height+e.divisor-1)/e.divisor + 1
	e.field = ScalarField{
		Cols:   cols,
		Rows:   rows,
		Cell:   float64(e.divisor),
		Values: make([]float64, cols*rows),
	}
}

// Size returns the output dimensions the grid was built for.
func (e *ContourExtractor) Size() (int, int) {
	return e.width, e.height
}

// Field returns the current samples.
func (e *ContourExtractor) Field() *ScalarField {
	return &e.field
}

// UpdateField samples the wave amplitude at time t on every grid point.
func (e *ContourExtractor) UpdateField(t float64, wave *WaveField) *ScalarField {
	f := &e.field
	e.pool.Run(f.Rows, func(r0, r1 int) {
		for r := r0; r < r1; r++ {
			y := float64(r) * f.Cell
			for c := 0; c < f.Cols; c++ {
				f.Values[r*f.Cols+c] = wave.Amplitude(float64(c)*f.Cell, y, t)
			}
		}
	})
	return f
}

// ExtractContours runs marching squares for every level. The returned
// slice is reused by the next call.
func (e *ContourExtractor) ExtractContours(levels []float64) []Segment {
	e.segments = MarchingSquares(&e.field, levels, e.segments[:0])
	return e.segments
}

// MarchingSquares appends the iso-line segments of f at each level to dst.
func MarchingSquares(f *ScalarField, levels []float64, dst []Segment) []Segment {
	if f.Cols < 2 || f.Rows < 2 {
		return dst
	}
	for li, level := range levels {
		for r := 0; r < f.Rows-1; r++ {
			for c := 0; c < f.Cols-1; c++ {
				tl := f.At(c, r)
				tr := f.At(c+1, r)
				br := f.At(c+1, r+1)
				bl := f.At(c, r+1)

				code := 0
				if tl > level {
					code |= 8
				}
				if tr > level {
					code |= 4
				}
				if br > level {
					code |= 2
				}
				if bl > level {
					code |= 1
				}
				if code == 0 || code == 15 {
					continue
				}

				box := cellBox{
					x0: float64(c) * f.Cell, x1: float64(c+1) * f.Cell,
					y0: float64(r) * f.Cell, y1: float64(r+1) * f.Cell,
				}
				for _, pair := range caseEdges[code] {
					ax, ay := box.edgePoint(pair[0], tl, tr, br, bl, level)
					bx, by := box.edgePoint(pair[1], tl, tr, br, bl, level)
					dst = append(dst, Segment{X1: ax, Y1: ay, X2: bx, Y2: by, Level: li})
				}
			}
		}
	}
	return dst
}

type cellBox struct {
	x0, x1, y0, y1 float64
}

// edgePoint interpolates the crossing on one cell edge. Horizontal edges run
// left to right and vertical edges top to bottom, so neighbouring cells
// compute bit-identical points on a shared edge.
func (b cellBox) edgePoint(edge int, tl, tr, br, bl, level float64) (float64, float64) {
	switch edge {
	case edgeTop:
		return b.x0 + interp(tl, tr, level)*(b.x1-b.x0), b.y0
	case edgeRight:
		return b.x1, b.y0 + interp(tr, br, level)*(b.y1-b.y0)
	case edgeBottom:
		return b.x0 + interp(bl, br, level)*(b.x1-b.x0), b.y1
	default:
		return b.x0, b.y0 + interp(tl, bl, level)*(b.y1-b.y0)
	}
}

// interp returns where level falls between v0 and v1, or 0 when they are equal.
func interp(v0, v1, level float64) float64 {
	d := v1 - v0
	if d == 0 {
		return 0
	}
	return (level - v0) / d
}
