package renderer

import (
	"image"

	"github.com/pthm-cable/sigil/colorspace"
)

// Buffer is a full-frame RGBA pixel buffer, 4 bytes per pixel, row-major.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBuffer allocates a zeroed buffer. Negative dimensions are treated as 0.
func NewBuffer(width, height int) *Buffer {
	width = max(width, 0)
	height = max(height, 0)
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// Empty reports whether the buffer has no pixels.
func (b *Buffer) Empty() bool {
	return b == nil || b.Width == 0 || b.Height == 0
}

// Offset returns the byte offset of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// Set writes an opaque color. Out-of-range coordinates are ignored.
func (b *Buffer) Set(x, y int, c colorspace.RGB) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := b.Offset(x, y)
	b.Pix[i] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = 255
}

// SetChannels writes float channels, clamped and rounded.
func (b *Buffer) SetChannels(i int, r, g, bl float64) {
	b.Pix[i] = colorspace.Clamp255(r)
	b.Pix[i+1] = colorspace.Clamp255(g)
	b.Pix[i+2] = colorspace.Clamp255(bl)
	b.Pix[i+3] = 255
}

// At returns the color at (x, y), ignoring alpha.
func (b *Buffer) At(x, y int) colorspace.RGB {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return colorspace.RGB{}
	}
	i := b.Offset(x, y)
	return colorspace.RGB{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2]}
}

// Fill sets every pixel to an opaque color.
func (b *Buffer) Fill(c colorspace.RGB) {
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = c.R
		b.Pix[i+1] = c.G
		b.Pix[i+2] = c.B
		b.Pix[i+3] = 255
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

// Resize reallocates the buffer if the dimensions changed. Contents are
// undefined afterwards.
func (b *Buffer) Resize(width, height int) {
	width = max(width, 0)
	height = max(height, 0)
	if width == b.Width && height == b.Height {
		return
	}
	b.Width = width
	b.Height = height
	if cap(b.Pix) >= width*height*4 {
		b.Pix = b.Pix[:width*height*4]
	} else {
		b.Pix = make([]uint8, width*height*4)
	}
}

// Image wraps the pixel data without copying.
func (b *Buffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}
