// Package stencil rasterizes the fixed logo outline into fill and stroke
// coverage masks and composites pattern frames through them.
package stencil

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/pthm-cable/sigil/renderer"
)

// Op is a path command.
type Op uint8

const (
	OpMove Op = iota
	OpLine
	OpCubic
	OpClose
)

// Command is one path step in unit coordinates. OpCubic uses all three
// points (two controls, then the end point); OpMove and OpLine use Pts[0].
type Command struct {
	Op  Op
	Pts [3]renderer.Point
}

func move(x, y float64) Command {
	return Command{Op: OpMove, Pts: [3]renderer.Point{{X: x, Y: y}}}
}

func line(x, y float64) Command {
	return Command{Op: OpLine, Pts: [3]renderer.Point{{X: x, Y: y}}}
}

func cubic(c1x, c1y, c2x, c2y, x, y float64) Command {
	return Command{Op: OpCubic, Pts: [3]renderer.Point{{X: c1x, Y: c1y}, {X: c2x, Y: c2y}, {X: x, Y: y}}}
}

func closePath() Command {
	return Command{Op: OpClose}
}

// Logo is the sigil outline inside the unit square: a shield with a
// diamond cut-out, filled with the even-odd rule.
var Logo = []Command{
	move(0.5, 0),
	cubic(0.7, 0.08, 0.9, 0.1, 1, 0.1),
	line(1, 0.45),
	cubic(1, 0.75, 0.75, 0.92, 0.5, 1),
	cubic(0.25, 0.92, 0, 0.75, 0, 0.45),
	line(0, 0.1),
	cubic(0.1, 0.1, 0.3, 0.08, 0.5, 0),
	closePath(),

	move(0.5, 0.3),
	line(0.68, 0.5),
	line(0.5, 0.72),
	line(0.32, 0.5),
	closePath(),
}

// Placement maps unit outline coordinates to pixels.
type Placement struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Fit centers the unit square scaled to fraction of the shorter side.
func Fit(width, height int, fraction float64) Placement {
	side := math.Min(float64(width), float64(height)) * fraction
	return Placement{
		Scale:   side,
		OffsetX: (float64(width) - side) / 2,
		OffsetY: (float64(height) - side) / 2,
	}
}

// Apply maps a unit point to pixels.
func (p Placement) Apply(pt renderer.Point) (float64, float64) {
	return p.OffsetX + pt.X*p.Scale, p.OffsetY + pt.Y*p.Scale
}

// Trace replays cmds onto ctx under placement p.
func Trace(ctx *gg.Context, cmds []Command, p Placement) {
	for _, c := range cmds {
		switch c.Op {
		case OpMove:
			x, y := p.Apply(c.Pts[0])
			ctx.MoveTo(x, y)
		case OpLine:
			x, y := p.Apply(c.Pts[0])
			ctx.LineTo(x, y)
		case OpCubic:
			c1x, c1y := p.Apply(c.Pts[0])
			c2x, c2y := p.Apply(c.Pts[1])
			x, y := p.Apply(c.Pts[2])
			ctx.CubicTo(c1x, c1y, c2x, c2y, x, y)
		case OpClose:
			ctx.ClosePath()
		}
	}
}
