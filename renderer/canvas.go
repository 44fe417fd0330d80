// Package renderer provides the drawing surface abstraction and the stroke
// helpers used by pattern generators.
package renderer

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

// ErrInvalidSize is returned for non-positive surface dimensions.
var ErrInvalidSize = errors.New("renderer: invalid surface size")

// Point is a 2D position in pixels.
type Point struct {
	X, Y float64
}

// Surface is the minimal drawing capability generators need. Implementations
// must not be assumed to keep the previous frame's contents.
type Surface interface {
	Width() int
	Height() int
	Clear(c color.NRGBA)
	FillRect(x, y, w, h float64, c color.NRGBA) error
	FillCircle(x, y, r float64, c color.NRGBA) error
	FillPolygon(points []Point, c color.NRGBA) error
	Stroke(points []Point, width float64, c color.NRGBA) error
	StrokeLines(pairs []Point, width float64, c color.NRGBA) error
	DrawBuffer(b *Buffer)
	GetPixels() *Buffer
	PutPixels(b *Buffer)
	Resize(width, height int) error
}

// Canvas is a software Surface backed by a gg context and pixmap.
type Canvas struct {
	ctx    *gg.Context
	pixmap *gg.Pixmap
	width  int
	height int
}

var _ Surface = (*Canvas)(nil)

// NewCanvas creates a canvas of the given size.
func NewCanvas(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	pm := gg.NewPixmap(width, height)
	ctx := gg.NewContext(width, height, gg.WithPixmap(pm))
	ctx.SetLineCap(gg.LineCapRound)
	ctx.SetLineJoin(gg.LineJoinRound)
	return &Canvas{ctx: ctx, pixmap: pm, width: width, height: height}, nil
}

// Context exposes the underlying gg context for path-heavy callers.
func (c *Canvas) Context() *gg.Context { return c.ctx }

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// Clear fills the whole canvas, replacing previous contents.
func (c *Canvas) Clear(col color.NRGBA) {
	c.pixmap.Clear(toRGBA(col))
}

func (c *Canvas) setColor(col color.NRGBA) {
	rgba := toRGBA(col)
	c.ctx.SetRGBA(rgba.R, rgba.G, rgba.B, rgba.A)
}

// toRGBA keeps straight alpha; gg.FromColor would premultiply via RGBA().
func toRGBA(col color.NRGBA) gg.RGBA {
	return gg.RGBA{
		R: float64(col.R) / 255,
		G: float64(col.G) / 255,
		B: float64(col.B) / 255,
		A: float64(col.A) / 255,
	}
}

func (c *Canvas) FillRect(x, y, w, h float64, col color.NRGBA) error {
	c.setColor(col)
	c.ctx.DrawRectangle(x, y, w, h)
	return c.ctx.Fill()
}

func (c *Canvas) FillCircle(x, y, r float64, col color.NRGBA) error {
	if r <= 0 {
		return nil
	}
	c.setColor(col)
	c.ctx.DrawCircle(x, y, r)
	return c.ctx.Fill()
}

func (c *Canvas) FillPolygon(points []Point, col color.NRGBA) error {
	if len(points) < 3 {
		return nil
	}
	c.setColor(col)
	c.tracePath(points)
	c.ctx.ClosePath()
	return c.ctx.Fill()
}

// Stroke draws an open polyline through points.
func (c *Canvas) Stroke(points []Point, width float64, col color.NRGBA) error {
	if len(points) < 2 || width <= 0 || col.A == 0 {
		return nil
	}
	c.setColor(col)
	c.ctx.SetLineWidth(width)
	c.tracePath(points)
	return c.ctx.Stroke()
}

// StrokeLines strokes disjoint segments given as consecutive point pairs in
// a single path.
func (c *Canvas) StrokeLines(pairs []Point, width float64, col color.NRGBA) error {
	if len(pairs) < 2 || width <= 0 || col.A == 0 {
		return nil
	}
	c.setColor(col)
	c.ctx.SetLineWidth(width)
	for i := 0; i+1 < len(pairs); i += 2 {
		c.ctx.MoveTo(pairs[i].X, pairs[i].Y)
		c.ctx.LineTo(pairs[i+1].X, pairs[i+1].Y)
	}
	return c.ctx.Stroke()
}

func (c *Canvas) tracePath(points []Point) {
	c.ctx.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.ctx.LineTo(p.X, p.Y)
	}
}

// DrawBuffer copies b onto the canvas, scaling bilinearly when sizes differ.
func (c *Canvas) DrawBuffer(b *Buffer) {
	if b.Empty() {
		return
	}
	if b.Width == c.width && b.Height == c.height {
		copy(c.pixmap.Data(), b.Pix)
		return
	}
	dst := c.pixels()
	draw.ApproxBiLinear.Scale(dst.Image(), dst.Image().Bounds(), b.Image(), b.Image().Bounds(), draw.Src, nil)
}

// View returns the pixels as a Buffer sharing the pixmap memory. The view
// is invalidated by Resize.
func (c *Canvas) View() *Buffer {
	return c.pixels()
}

// GetPixels returns a copy of the current pixels.
func (c *Canvas) GetPixels() *Buffer {
	return c.pixels().Clone()
}

// PutPixels replaces the canvas contents. b must match the canvas size;
// mismatched buffers are scaled.
func (c *Canvas) PutPixels(b *Buffer) {
	c.DrawBuffer(b)
}

// Resize reallocates the backing pixmap when the size changes.
func (c *Canvas) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if err := c.ctx.Resize(width, height); err != nil {
		return fmt.Errorf("resizing canvas: %w", err)
	}
	c.pixmap = c.ctx.ResizeTarget()
	c.width = width
	c.height = height
	return nil
}

// SavePNG writes the current pixels to path.
func (c *Canvas) SavePNG(path string) error {
	return c.pixmap.SavePNG(path)
}

// Close releases the gg context.
func (c *Canvas) Close() error {
	return c.ctx.Close()
}

// pixels views the pixmap data as a Buffer without copying.
func (c *Canvas) pixels() *Buffer {
	return &Buffer{Width: c.width, Height: c.height, Pix: c.pixmap.Data()}
}
