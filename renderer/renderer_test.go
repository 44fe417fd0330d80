package renderer

import (
	"errors"
	"image/color"
	"testing"

	"github.com/pthm-cable/sigil/colorspace"
	"github.com/pthm-cable/sigil/systems"
)

// recordingSurface counts drawing calls without rasterizing.
type recordingSurface struct {
	*Canvas
	strokes     int
	strokeLines int
	widths      []float64
}

func (r *recordingSurface) Stroke(points []Point, width float64, c color.NRGBA) error {
	r.strokes++
	r.widths = append(r.widths, width)
	return nil
}

func (r *recordingSurface) StrokeLines(pairs []Point, width float64, c color.NRGBA) error {
	if len(pairs) > 0 {
		r.strokeLines++
		r.widths = append(r.widths, width)
	}
	return nil
}

func newRecording(t *testing.T) *recordingSurface {
	t.Helper()
	c, err := NewCanvas(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	return &recordingSurface{Canvas: c}
}

func TestBufferSetAt(t *testing.T) {
	b := NewBuffer(4, 3)
	c := colorspace.RGB{R: 1, G: 2, B: 3}
	b.Set(2, 1, c)
	if got := b.At(2, 1); got != c {
		t.Errorf("At = %+v, want %+v", got, c)
	}
	if b.Pix[b.Offset(2, 1)+3] != 255 {
		t.Error("Set should write opaque alpha")
	}
	// Out of range is ignored
	b.Set(-1, 0, c)
	b.Set(4, 0, c)
	if got := b.At(9, 9); got != (colorspace.RGB{}) {
		t.Errorf("out-of-range At should be zero, got %+v", got)
	}
}

func TestBufferCloneIndependent(t *testing.T) {
	b := NewBuffer(2, 2)
	b.Fill(colorspace.RGB{R: 10})
	c := b.Clone()
	c.Set(0, 0, colorspace.RGB{R: 99})
	if b.At(0, 0).R != 10 {
		t.Error("clone shares pixel storage")
	}
}

func TestBufferResize(t *testing.T) {
	b := NewBuffer(10, 10)
	b.Resize(5, 4)
	if b.Width != 5 || b.Height != 4 || len(b.Pix) != 80 {
		t.Errorf("unexpected buffer after shrink: %dx%d len %d", b.Width, b.Height, len(b.Pix))
	}
	b.Resize(20, 20)
	if len(b.Pix) != 1600 {
		t.Errorf("expected 1600 bytes after grow, got %d", len(b.Pix))
	}
	if !NewBuffer(0, 5).Empty() {
		t.Error("zero-width buffer should be empty")
	}
}

func TestCanvasRejectsInvalidSize(t *testing.T) {
	if _, err := NewCanvas(0, 10); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
	c, err := NewCanvas(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Resize(-1, 4); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize from Resize, got %v", err)
	}
}

func TestCanvasClearAndPixels(t *testing.T) {
	c, err := NewCanvas(8, 6)
	if err != nil {
		t.Fatal(err)
	}
	c.Clear(color.NRGBA{R: 20, G: 40, B: 60, A: 255})

	px := c.GetPixels()
	if px.Width != 8 || px.Height != 6 {
		t.Fatalf("unexpected pixel buffer size %dx%d", px.Width, px.Height)
	}
	if got := px.At(7, 5); got != (colorspace.RGB{R: 20, G: 40, B: 60}) {
		t.Errorf("cleared pixel = %+v", got)
	}

	// GetPixels is a copy
	px.Set(0, 0, colorspace.RGB{R: 255})
	if c.GetPixels().At(0, 0).R != 20 {
		t.Error("GetPixels returned shared storage")
	}
}

func TestCanvasFillRect(t *testing.T) {
	c, err := NewCanvas(20, 20)
	if err != nil {
		t.Fatal(err)
	}
	c.Clear(color.NRGBA{A: 255})
	if err := c.FillRect(5, 5, 10, 10, color.NRGBA{R: 255, A: 255}); err != nil {
		t.Fatal(err)
	}
	px := c.GetPixels()
	if px.At(10, 10).R < 250 {
		t.Errorf("expected filled center, got %+v", px.At(10, 10))
	}
	if px.At(1, 1).R != 0 {
		t.Errorf("expected untouched corner, got %+v", px.At(1, 1))
	}
}

func TestCanvasPutPixelsAndResize(t *testing.T) {
	c, err := NewCanvas(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuffer(4, 4)
	b.Fill(colorspace.RGB{G: 200})
	c.PutPixels(b)
	if c.GetPixels().At(3, 3).G != 200 {
		t.Error("PutPixels did not copy")
	}

	if err := c.Resize(8, 2); err != nil {
		t.Fatal(err)
	}
	if c.Width() != 8 || c.Height() != 2 || len(c.GetPixels().Pix) != 64 {
		t.Errorf("resize did not reallocate: %dx%d", c.Width(), c.Height())
	}

	// A smaller buffer is scaled up to cover the canvas
	small := NewBuffer(2, 1)
	small.Fill(colorspace.RGB{B: 100})
	c.DrawBuffer(small)
	if got := c.GetPixels().At(7, 1); got.B < 99 || got.B > 101 {
		t.Errorf("scaled pixel = %+v, want blue 100", got)
	}
}

func TestRibbonRendererSkipsInvisible(t *testing.T) {
	s := newRecording(t)
	r := NewRibbonRenderer(0.6)
	trail := []systems.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}

	ribbons := []systems.Ribbon{
		{Trail: trail, Opacity: 0, Width: 1},     // faded out
		{Trail: trail[:1], Opacity: 1, Width: 1}, // too short
		{Trail: trail, Opacity: 1, Width: 2},     // visible
	}
	if err := r.Draw(s, ribbons); err != nil {
		t.Fatal(err)
	}
	if s.strokes == 0 {
		t.Fatal("expected the visible ribbon to be stroked")
	}
	if s.widths[0] != 2 {
		t.Errorf("head band width = %v, want 2", s.widths[0])
	}
}

func TestSegmentRendererAlternatesWeights(t *testing.T) {
	s := newRecording(t)
	r := NewSegmentRenderer([]float64{2, 1})
	segs := []systems.Segment{
		{X1: 0, Y1: 0, X2: 1, Y2: 1, Level: 0},
		{X1: 1, Y1: 1, X2: 2, Y2: 2, Level: 1},
		{X1: 2, Y1: 2, X2: 3, Y2: 3, Level: 2},
		{X1: 0, Y1: 0, X2: 1, Y2: 1, Level: 9}, // ignored
	}
	red := func(int) color.NRGBA { return color.NRGBA{R: 255, A: 255} }
	if err := r.Draw(s, segs, 3, red); err != nil {
		t.Fatal(err)
	}
	if s.strokeLines != 3 {
		t.Fatalf("expected one path per level, got %d", s.strokeLines)
	}
	want := []float64{2, 1, 2}
	for i, w := range want {
		if s.widths[i] != w {
			t.Errorf("level %d width = %v, want %v", i, s.widths[i], w)
		}
	}
}
