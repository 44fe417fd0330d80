package stencil

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gg"

	"github.com/pthm-cable/sigil/colorspace"
	"github.com/pthm-cable/sigil/config"
	"github.com/pthm-cable/sigil/renderer"
)

// ErrMaskNotReady is returned when no mask is available for compositing.
// The caller should skip compositing for the frame and retry next tick.
var ErrMaskNotReady = errors.New("stencil: mask not ready")

// Mask holds per-pixel coverage for the logo interior and outline band.
type Mask struct {
	Width      int
	Height     int
	Fill       []uint8
	Stroke     []uint8 // nil when the stroke band is disabled
	Threshold  uint8
	Generation uint64
}

// Inside reports whether (x, y) is covered by the fill mask.
func (m *Mask) Inside(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Fill[y*m.Width+x] > m.Threshold
}

// OnStroke reports whether (x, y) is claimed by the stroke band.
func (m *Mask) OnStroke(x, y int) bool {
	if m.Stroke == nil || x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Stroke[y*m.Width+x] > m.Threshold
}

// Key identifies the inputs a mask depends on.
type Key struct {
	Width         int
	Height        int
	StrokeEnabled bool
	StrokeWidth   float64
}

// Cache builds masks on demand and reuses them until the key changes.
// It is owned by a single writer (the animation driver).
type Cache struct {
	outline    []Command
	fit        float64
	threshold  uint8
	mask       *Mask
	key        Key
	generation uint64
	builds     int
}

// NewCache creates an empty cache for the logo outline.
func NewCache(cfg config.StencilConfig) *Cache {
	return NewCacheFor(Logo, cfg)
}

// NewCacheFor creates an empty cache for an arbitrary outline.
func NewCacheFor(outline []Command, cfg config.StencilConfig) *Cache {
	return &Cache{outline: outline, fit: cfg.Fit, threshold: cfg.Threshold}
}

// Build returns the mask for the given size and stroke settings. Identical
// arguments return the cached mask without rasterizing again.
func (c *Cache) Build(width, height int, strokeEnabled bool, strokeWidth float64) (*Mask, error) {
	if !strokeEnabled {
		strokeWidth = 0
	}
	key := Key{Width: width, Height: height, StrokeEnabled: strokeEnabled, StrokeWidth: strokeWidth}
	if c.mask != nil && c.key == key {
		return c.mask, nil
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: surface %dx%d", ErrMaskNotReady, width, height)
	}

	mask, err := c.rasterize(key)
	if err != nil {
		c.mask = nil
		return nil, fmt.Errorf("%w: %v", ErrMaskNotReady, err)
	}
	c.generation++
	c.builds++
	mask.Generation = c.generation
	c.mask = mask
	c.key = key

	slog.Debug("stencil mask built",
		"width", width,
		"height", height,
		"stroke", strokeEnabled,
		"generation", c.generation,
	)
	return mask, nil
}

// Current returns the cached mask or ErrMaskNotReady.
func (c *Cache) Current() (*Mask, error) {
	if c.mask == nil {
		return nil, ErrMaskNotReady
	}
	return c.mask, nil
}

// Invalidate drops the cached mask so the next Build rasterizes again.
func (c *Cache) Invalidate() {
	c.mask = nil
}

// Builds returns how many times a mask has been rasterized.
func (c *Cache) Builds() int {
	return c.builds
}

// Generation returns the generation of the most recent build.
func (c *Cache) Generation() uint64 {
	return c.generation
}

func (c *Cache) rasterize(key Key) (*Mask, error) {
	pm := gg.NewPixmap(key.Width, key.Height)
	ctx := gg.NewContext(key.Width, key.Height, gg.WithPixmap(pm))
	defer ctx.Close()

	placement := Fit(key.Width, key.Height, c.fit)

	ctx.ClearWithColor(gg.Black)
	ctx.SetFillRule(gg.FillRuleEvenOdd)
	ctx.SetRGBA(1, 1, 1, 1)
	Trace(ctx, c.outline, placement)
	if err := ctx.Fill(); err != nil {
		return nil, fmt.Errorf("filling outline: %w", err)
	}
	mask := &Mask{
		Width:     key.Width,
		Height:    key.Height,
		Fill:      redChannel(pm),
		Threshold: c.threshold,
	}

	if key.StrokeEnabled && key.StrokeWidth > 0 {
		ctx.ClearWithColor(gg.Black)
		ctx.SetLineWidth(key.StrokeWidth)
		ctx.SetLineJoin(gg.LineJoinRound)
		Trace(ctx, c.outline, placement)
		if err := ctx.Stroke(); err != nil {
			return nil, fmt.Errorf("stroking outline: %w", err)
		}
		mask.Stroke = redChannel(pm)
	}
	return mask, nil
}

// redChannel extracts one coverage byte per pixel from a white-on-black
// rendering.
func redChannel(pm *gg.Pixmap) []uint8 {
	data := pm.Data()
	out := make([]uint8, len(data)/4)
	for i := range out {
		out[i] = data[i*4]
	}
	return out
}

// Apply composites src through mask into dst: stroke band pixels take the
// stroke color, interior pixels keep the generator output and everything
// else becomes background. dst is resized to match src.
func Apply(dst, src *renderer.Buffer, mask *Mask, background, stroke colorspace.RGB) error {
	if mask == nil {
		return ErrMaskNotReady
	}
	if mask.Width != src.Width || mask.Height != src.Height {
		return fmt.Errorf("%w: mask %dx%d for frame %dx%d",
			ErrMaskNotReady, mask.Width, mask.Height, src.Width, src.Height)
	}
	dst.Resize(src.Width, src.Height)

	for p := range mask.Fill {
		i := p * 4
		switch {
		case mask.Stroke != nil && mask.Stroke[p] > mask.Threshold:
			dst.Pix[i] = stroke.R
			dst.Pix[i+1] = stroke.G
			dst.Pix[i+2] = stroke.B
		case mask.Fill[p] > mask.Threshold:
			dst.Pix[i] = src.Pix[i]
			dst.Pix[i+1] = src.Pix[i+1]
			dst.Pix[i+2] = src.Pix[i+2]
		default:
			dst.Pix[i] = background.R
			dst.Pix[i+1] = background.G
			dst.Pix[i+2] = background.B
		}
		dst.Pix[i+3] = 255
	}
	return nil
}
