package systems

import (
	"math"
	"math/rand"
	"testing"
)

// fieldFrom samples fn on a cols x rows grid with the given cell size.
func fieldFrom(cols, rows int, cell float64, fn func(x, y float64) float64) *ScalarField {
	f := &ScalarField{Cols: cols, Rows: rows, Cell: cell, Values: make([]float64, cols*rows)}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			f.Values[r*cols+c] = fn(float64(c)*cell, float64(r)*cell)
		}
	}
	return f
}

// vertexDegrees counts how many segment endpoints land on each point.
func vertexDegrees(segs []Segment) map[Vec]int {
	deg := make(map[Vec]int)
	for _, s := range segs {
		deg[Vec{X: s.X1, Y: s.Y1}]++
		deg[Vec{X: s.X2, Y: s.Y2}]++
	}
	return deg
}

func onBoundary(p Vec, f *ScalarField) bool {
	maxX := float64(f.Cols-1) * f.Cell
	maxY := float64(f.Rows-1) * f.Cell
	return p.X == 0 || p.Y == 0 || p.X == maxX || p.Y == maxY
}

func TestContourSinglePeakClosedLoop(t *testing.T) {
	peak := func(x, y float64) float64 {
		dx, dy := x-51.3, y-48.7
		return math.Exp(-(dx*dx + dy*dy) / 600)
	}
	f := fieldFrom(26, 26, 4, peak)
	lo, hi := f.Range()

	for _, level := range []float64{lo + (hi-lo)*0.25, (lo + hi) / 2, lo + (hi-lo)*0.8} {
		segs := MarchingSquares(f, []float64{level}, nil)
		if len(segs) < 4 {
			t.Fatalf("level %.3f: expected a loop, got %d segments", level, len(segs))
		}
		for p, d := range vertexDegrees(segs) {
			if d != 2 {
				t.Errorf("level %.3f: vertex %+v has degree %d, want 2", level, p, d)
			}
		}
		if !singleLoop(segs) {
			t.Errorf("level %.3f: segments do not form one connected loop", level)
		}
	}
}

// singleLoop walks the segment graph and checks it is one connected cycle.
func singleLoop(segs []Segment) bool {
	adj := make(map[Vec][]Vec)
	for _, s := range segs {
		a, b := Vec{X: s.X1, Y: s.Y1}, Vec{X: s.X2, Y: s.Y2}
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	start := Vec{X: segs[0].X1, Y: segs[0].Y1}
	seen := map[Vec]bool{start: true}
	stack := []Vec{start}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, q := range adj[p] {
			if !seen[q] {
				seen[q] = true
				stack = append(stack, q)
			}
		}
	}
	return len(seen) == len(adj)
}

func TestContourRandomFieldContinuous(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 20; trial++ {
		type bump struct{ x, y, s, a float64 }
		bumps := make([]bump, 4)
		for i := range bumps {
			bumps[i] = bump{rng.Float64() * 60, rng.Float64() * 60, 50 + rng.Float64()*200, rng.Float64()*2 - 1}
		}
		field := func(x, y float64) float64 {
			var v float64
			for _, b := range bumps {
				dx, dy := x-b.x, y-b.y
				v += b.a * math.Exp(-(dx*dx+dy*dy)/b.s)
			}
			return v
		}
		f := fieldFrom(31, 31, 2, field)
		lo, hi := f.Range()
		level := lo + (hi-lo)*(0.2+rng.Float64()*0.6)

		segs := MarchingSquares(f, []float64{level}, nil)
		for p, d := range vertexDegrees(segs) {
			if onBoundary(p, f) {
				continue
			}
			if d%2 != 0 {
				t.Fatalf("trial %d: interior vertex %+v has odd degree %d", trial, p, d)
			}
		}
	}
}

func TestSaddleEmitsTwoSegments(t *testing.T) {
	// TL=0 TR=1 BR=0 BL=1 -> code 5
	f := &ScalarField{Cols: 2, Rows: 2, Cell: 10, Values: []float64{0, 1, 1, 0}}
	segs := MarchingSquares(f, []float64{0.5}, nil)
	if len(segs) != 2 {
		t.Fatalf("code 5: expected 2 segments, got %d", len(segs))
	}

	// TL=1 TR=0 BR=1 BL=0 -> code 10
	f.Values = []float64{1, 0, 0, 1}
	segs = MarchingSquares(f, []float64{0.5}, nil)
	if len(segs) != 2 {
		t.Fatalf("code 10: expected 2 segments, got %d", len(segs))
	}
	for _, s := range segs {
		if s.X1 == s.X2 && s.Y1 == s.Y2 {
			t.Errorf("degenerate saddle segment %+v", s)
		}
	}
}

func TestEdgeInterpolation(t *testing.T) {
	// Only TL above the level: crossing at 1/4 along top and left edges
	f := &ScalarField{Cols: 2, Rows: 2, Cell: 8, Values: []float64{1, 0.2, 0.2, 0.2}}
	segs := MarchingSquares(f, []float64{0.8}, nil)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	s := segs[0]
	// left edge first, then top
	if s.X1 != 0 || math.Abs(s.Y1-2) > 1e-12 || math.Abs(s.X2-2) > 1e-12 || s.Y2 != 0 {
		t.Errorf("unexpected segment %+v", s)
	}
}

func TestInterpZeroDenominator(t *testing.T) {
	if got := interp(0.5, 0.5, 0.5); got != 0 {
		t.Errorf("expected 0 for equal endpoints, got %v", got)
	}
}

func TestContourLevels(t *testing.T) {
	levels := ContourLevels(8)
	if len(levels) != 8 {
		t.Fatalf("expected 8 levels, got %d", len(levels))
	}
	for i, l := range levels {
		if l <= -1 || l >= 1 {
			t.Errorf("level %d = %v not strictly inside (-1,1)", i, l)
		}
		if i > 0 && l <= levels[i-1] {
			t.Errorf("levels not increasing at %d", i)
		}
	}
	if ContourLevels(0) != nil {
		t.Error("expected nil for zero levels")
	}
}

func TestExtractorFromWave(t *testing.T) {
	e := NewContourExtractor(100, 80, 4, nil)
	if f := e.Field(); f.Cols != 26 || f.Rows != 21 {
		t.Fatalf("expected 26x21 grid, got %dx%d", f.Cols, f.Rows)
	}
	wave := NewWaveField(PlaceSources(3, 100, 80), 30, nil)
	f := e.UpdateField(0.4, wave)
	if got, want := f.At(5, 7), wave.Amplitude(20, 28, 0.4); got != want {
		t.Errorf("grid sample = %v, want %v", got, want)
	}
	segs := e.ExtractContours(ContourLevels(4))
	if len(segs) == 0 {
		t.Error("expected contour segments from an interference field")
	}
	for _, s := range segs {
		if s.Level < 0 || s.Level >= 4 {
			t.Fatalf("segment level %d out of range", s.Level)
		}
	}

	e.Resize(0, 0)
	if len(e.ExtractContours(ContourLevels(4))) != 0 {
		t.Error("empty grid should yield no segments")
	}
}

func BenchmarkExtractContours(b *testing.B) {
	e := NewContourExtractor(800, 600, 4, NewRowPool())
	wave := NewWaveField(PlaceSources(3, 800, 600), 50, nil)
	levels := ContourLevels(8)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		e.UpdateField(float64(n)*0.015, wave)
		e.ExtractContours(levels)
	}
}
