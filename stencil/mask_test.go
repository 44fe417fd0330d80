package stencil

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/sigil/colorspace"
	"github.com/pthm-cable/sigil/config"
	"github.com/pthm-cable/sigil/renderer"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

func newTestCache() *Cache {
	return NewCache(config.Cfg().Stencil)
}

func TestBuildCacheHit(t *testing.T) {
	c := newTestCache()

	m1, err := c.Build(200, 150, true, 6)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	m2, err := c.Build(200, 150, true, 6)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}

	if c.Builds() != 1 {
		t.Errorf("expected 1 rasterization, got %d", c.Builds())
	}
	if m1 != m2 {
		t.Error("expected identical arguments to return the cached mask")
	}
}

func TestBuildDeterministic(t *testing.T) {
	a, err := newTestCache().Build(160, 120, true, 4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newTestCache().Build(160, 120, true, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Fill, b.Fill) {
		t.Error("fill masks differ between identical builds")
	}
	if !bytes.Equal(a.Stroke, b.Stroke) {
		t.Error("stroke masks differ between identical builds")
	}
}

func TestBuildRebuildsOnKeyChange(t *testing.T) {
	c := newTestCache()
	if _, err := c.Build(100, 100, true, 4); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		w, h    int
		enabled bool
		width   float64
	}{
		{100, 100, true, 8},  // stroke width
		{100, 100, false, 8}, // stroke disabled
		{80, 100, false, 8},  // size
	}
	for i, s := range steps {
		m, err := c.Build(s.w, s.h, s.enabled, s.width)
		if err != nil {
			t.Fatal(err)
		}
		if c.Builds() != i+2 {
			t.Errorf("step %d: expected %d builds, got %d", i, i+2, c.Builds())
		}
		if m.Generation != c.Generation() {
			t.Errorf("step %d: mask generation %d, cache %d", i, m.Generation, c.Generation())
		}
	}

	// Width is irrelevant while stroke is disabled
	if _, err := c.Build(80, 100, false, 20); err != nil {
		t.Fatal(err)
	}
	if c.Builds() != 4 {
		t.Errorf("changing width of a disabled stroke should not rebuild, got %d builds", c.Builds())
	}
}

func TestResizeRebuildsExactlyOnce(t *testing.T) {
	c := newTestCache()
	if _, err := c.Build(800, 600, true, 6); err != nil {
		t.Fatal(err)
	}
	before := c.Builds()

	for i := 0; i < 3; i++ {
		m, err := c.Build(400, 300, true, 6)
		if err != nil {
			t.Fatal(err)
		}
		if m.Width != 400 || m.Height != 300 {
			t.Fatalf("mask is %dx%d after resize", m.Width, m.Height)
		}
	}
	if got := c.Builds() - before; got != 1 {
		t.Errorf("expected exactly 1 rebuild after resize, got %d", got)
	}
}

func TestMaskGeometry(t *testing.T) {
	m, err := newTestCache().Build(200, 100, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if m.Stroke != nil {
		t.Error("stroke mask should be nil when disabled")
	}

	// Logo spans 70px centered: x in [65,135], y in [15,85]
	if !m.Inside(100, 70) {
		t.Error("expected lower shield body to be inside")
	}
	if m.Inside(100, 50) {
		t.Error("expected diamond cut-out to be outside")
	}
	if m.Inside(10, 50) || m.Inside(190, 50) {
		t.Error("expected margins to be outside")
	}
	if m.Inside(-1, 0) || m.Inside(0, 200) {
		t.Error("out-of-range coordinates must be outside")
	}
}

func TestStrokeBandFollowsOutline(t *testing.T) {
	m, err := newTestCache().Build(200, 200, true, 6)
	if err != nil {
		t.Fatal(err)
	}
	// Outline left edge sits at x=30 (70% of 200 centered), y=0.3 of side
	y := 30 + int(0.3*140)
	if !m.OnStroke(30, y) {
		t.Error("expected stroke band on the left outline edge")
	}
	if m.OnStroke(100, 150) {
		t.Error("interior pixel should not be on the stroke band")
	}
}

func TestBuildDegenerateSize(t *testing.T) {
	c := newTestCache()
	if _, err := c.Build(0, 100, true, 4); !errors.Is(err, ErrMaskNotReady) {
		t.Errorf("expected ErrMaskNotReady for zero width, got %v", err)
	}
	if _, err := c.Current(); !errors.Is(err, ErrMaskNotReady) {
		t.Errorf("expected no current mask, got %v", err)
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	c := newTestCache()
	if _, err := c.Build(50, 50, true, 2); err != nil {
		t.Fatal(err)
	}
	c.Invalidate()
	if _, err := c.Current(); !errors.Is(err, ErrMaskNotReady) {
		t.Error("expected invalidated cache to report not ready")
	}
	if _, err := c.Build(50, 50, true, 2); err != nil {
		t.Fatal(err)
	}
	if c.Builds() != 2 {
		t.Errorf("expected rebuild after invalidate, got %d builds", c.Builds())
	}
}

func TestApply(t *testing.T) {
	m := &Mask{
		Width:     3,
		Height:    1,
		Fill:      []uint8{255, 255, 0},
		Stroke:    []uint8{0, 200, 0},
		Threshold: 128,
	}
	src := renderer.NewBuffer(3, 1)
	src.Fill(colorspace.RGB{R: 10, G: 20, B: 30})
	dst := renderer.NewBuffer(0, 0)

	bg := colorspace.RGB{B: 99}
	stroke := colorspace.RGB{R: 255, G: 255, B: 255}
	if err := Apply(dst, src, m, bg, stroke); err != nil {
		t.Fatal(err)
	}

	if got := dst.At(0, 0); got != (colorspace.RGB{R: 10, G: 20, B: 30}) {
		t.Errorf("inside pixel = %+v, want source", got)
	}
	if got := dst.At(1, 0); got != stroke {
		t.Errorf("stroke pixel = %+v, want stroke color", got)
	}
	if got := dst.At(2, 0); got != bg {
		t.Errorf("outside pixel = %+v, want background", got)
	}
}

func TestApplyThresholdIsStrict(t *testing.T) {
	m := &Mask{Width: 2, Height: 1, Fill: []uint8{128, 129}, Threshold: 128}
	src := renderer.NewBuffer(2, 1)
	src.Fill(colorspace.RGB{R: 1})
	dst := renderer.NewBuffer(2, 1)
	if err := Apply(dst, src, m, colorspace.RGB{G: 1}, colorspace.RGB{}); err != nil {
		t.Fatal(err)
	}
	if dst.At(0, 0).G != 1 {
		t.Error("coverage 128 should count as outside")
	}
	if dst.At(1, 0).R != 1 {
		t.Error("coverage 129 should count as inside")
	}
}

func TestApplyRejectsMismatchedMask(t *testing.T) {
	m := &Mask{Width: 2, Height: 2, Fill: make([]uint8, 4)}
	src := renderer.NewBuffer(3, 3)
	if err := Apply(renderer.NewBuffer(0, 0), src, m, colorspace.RGB{}, colorspace.RGB{}); !errors.Is(err, ErrMaskNotReady) {
		t.Errorf("expected ErrMaskNotReady for stale mask, got %v", err)
	}
	if err := Apply(renderer.NewBuffer(0, 0), src, nil, colorspace.RGB{}, colorspace.RGB{}); !errors.Is(err, ErrMaskNotReady) {
		t.Errorf("expected ErrMaskNotReady for nil mask, got %v", err)
	}
}

func TestFitCentersLogo(t *testing.T) {
	p := Fit(800, 600, 0.7)
	if math.Abs(p.Scale-420) > 1e-9 {
		t.Errorf("expected scale 420, got %v", p.Scale)
	}
	if math.Abs(p.OffsetX-190) > 1e-9 || math.Abs(p.OffsetY-90) > 1e-9 {
		t.Errorf("expected offset (190,90), got (%v,%v)", p.OffsetX, p.OffsetY)
	}
}
