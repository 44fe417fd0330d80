package patterns

import (
	"github.com/pthm-cable/sigil/params"
	"github.com/pthm-cable/sigil/renderer"
	"github.com/pthm-cable/sigil/systems"
)

// VectorFieldGen advects the ribbon pool once per frame and strokes it.
type VectorFieldGen struct {
	flow    *systems.FlowSystem
	ribbons *renderer.RibbonRenderer
	size    int
}

// NewVectorField creates a vector field generator from the flow config.
func NewVectorField(env Env) *VectorFieldGen {
	return &VectorFieldGen{
		flow:    systems.NewFlowSystem(env.Config.Flow),
		ribbons: renderer.NewRibbonRenderer(0.8),
		size:    env.Config.Flow.Ribbons,
	}
}

// Flow exposes the ribbon pool.
func (g *VectorFieldGen) Flow() *systems.FlowSystem {
	return g.flow
}

// Render advances the pool and draws one frame.
func (g *VectorFieldGen) Render(f *Frame) error {
	clearBackground(f)
	if f.Degenerate() {
		return nil
	}
	style := systems.FlowStyle{
		TileSize:  f.Params.TileSize,
		TileShift: f.Params.TileShift,
		Primary:   f.Palette.Primary,
		Secondary: f.Palette.Secondary,
	}
	g.flow.Advect(f.Time, systems.Bounds{Width: float64(f.Width), Height: float64(f.Height)}, style)
	return g.ribbons.Draw(f.Surface, g.flow.Ribbons)
}

// Complexity grows with pool size and falls with tile size.
func (g *VectorFieldGen) Complexity(p params.Parameters) int {
	score := float64(g.size)/20 + 400/max(p.TileSize, 4) + p.TileShift/4
	return clampScore(score)
}
