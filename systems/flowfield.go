package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/sigil/colorspace"
	"github.com/pthm-cable/sigil/config"
)

// Opacity envelope: fade in over the first tenth of life, out over the last.
const (
	fadeInEnd    = 0.1
	fadeOutStart = 0.9
)

// Vec is a 2D position.
type Vec struct {
	X, Y float64
}

// Bounds is the advection area in pixels.
type Bounds struct {
	Width, Height float64
}

// Contains reports whether (x, y) lies inside the bounds.
func (b Bounds) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// Ribbon is a fading polyline advected through the vector field.
// Invariant after every Advect: 0 <= Age < Lifespan.
type Ribbon struct {
	X, Y     float64
	Trail    []Vec // Oldest first, len <= trail cap
	Age      int
	Lifespan int
	Opacity  float64 // Envelope value in [0, 1]
	Width    float64
	Color    colorspace.RGB // Fixed at spawn
	TileX    int
	TileY    int
}

// FlowStyle carries per-frame inputs that come from parameters and theme.
type FlowStyle struct {
	TileSize  float64
	TileShift float64
	Primary   colorspace.RGB
	Secondary colorspace.RGB
}

// FlowSystem owns a fixed pool of ribbons.
type FlowSystem struct {
	Ribbons []Ribbon

	cfg    config.FlowConfig
	noise  *Noise
	rng    *rand.Rand
	bounds Bounds
}

// NewFlowSystem creates an empty pool. The first Advect fills it.
func NewFlowSystem(cfg config.FlowConfig) *FlowSystem {
	return &FlowSystem{
		cfg:   cfg,
		noise: NewNoise(cfg.Seed),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
}

// TrailCap returns the maximum trail length.
func (s *FlowSystem) TrailCap() int {
	return max(s.cfg.TrailLength, 2)
}

// Reset respawns every ribbon for new bounds.
func (s *FlowSystem) Reset(bounds Bounds, style FlowStyle) {
	s.bounds = bounds
	n := max(s.cfg.Ribbons, 0)
	if cap(s.Ribbons) < n {
		s.Ribbons = make([]Ribbon, n)
	}
	s.Ribbons = s.Ribbons[:n]
	for i := range s.Ribbons {
		s.spawn(&s.Ribbons[i], style)
		// Stagger ages so the pool does not pulse in unison
		s.Ribbons[i].Age = s.rng.Intn(s.Ribbons[i].Lifespan)
	}
}

// Advect moves every ribbon one step through the field at time t.
func (s *FlowSystem) Advect(t float64, bounds Bounds, style FlowStyle) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return
	}
	if bounds != s.bounds || len(s.Ribbons) != max(s.cfg.Ribbons, 0) {
		s.Reset(bounds, style)
	}

	for i := range s.Ribbons {
		r := &s.Ribbons[i]

		r.Age++
		if r.Age >= r.Lifespan {
			s.spawn(r, style)
			continue
		}

		r.Opacity = envelope(float64(r.Age) / float64(r.Lifespan))

		vx, vy := s.Velocity(r.X, r.Y, t, style)
		r.X += vx * 0.5
		r.Y += vy * 0.5
		s.pushTrail(r)

		if !bounds.Contains(r.X, r.Y) || math.Hypot(vx, vy) < s.cfg.MinVelocity {
			s.spawn(r, style)
		}
	}
}

// Velocity samples the vector field: a radially decaying outward direction,
// sampled at a tile-jittered position and rotated by noise.
func (s *FlowSystem) Velocity(x, y, t float64, style FlowStyle) (float64, float64) {
	tx, ty := tileOf(x, y, style.TileSize)
	sx := x + math.Sin(float64(tx)+float64(ty)*0.5)*style.TileShift
	sy := y + math.Cos(float64(ty)+float64(tx)*0.5)*style.TileShift

	cx, cy := s.bounds.Width/2, s.bounds.Height/2
	dx, dy := sx-cx, sy-cy
	dist := math.Hypot(dx, dy)
	dirX, dirY := 1.0, 0.0
	if dist > 0 {
		dirX, dirY = dx/dist, dy/dist
	}

	radius := math.Min(s.bounds.Width, s.bounds.Height) / 2
	decay := math.Exp(-dist / math.Max(radius, 1))

	angle := s.noise.Noise3D(sx*s.cfg.NoiseScale, sy*s.cfg.NoiseScale, t*s.cfg.TimeScale) * math.Pi
	sin, cos := math.Sincos(angle)
	mag := s.cfg.Strength * decay
	return (dirX*cos - dirY*sin) * mag, (dirX*sin + dirY*cos) * mag
}

func (s *FlowSystem) pushTrail(r *Ribbon) {
	limit := s.TrailCap()
	if len(r.Trail) >= limit {
		copy(r.Trail, r.Trail[len(r.Trail)-limit+1:])
		r.Trail = r.Trail[:limit-1]
	}
	r.Trail = append(r.Trail, Vec{X: r.X, Y: r.Y})
}

// spawn places r at a random point of the annulus around the center.
func (s *FlowSystem) spawn(r *Ribbon, style FlowStyle) {
	half := math.Min(s.bounds.Width, s.bounds.Height) / 2
	inner := s.cfg.InnerRadius * half
	outer := math.Max(s.cfg.OuterRadius*half, inner)
	// Uniform over the annulus area
	rad := math.Sqrt(inner*inner + s.rng.Float64()*(outer*outer-inner*inner))
	angle := s.rng.Float64() * 2 * math.Pi

	r.X = s.bounds.Width/2 + rad*math.Cos(angle)
	r.Y = s.bounds.Height/2 + rad*math.Sin(angle)
	r.Age = 0
	r.Lifespan = s.cfg.LifespanMin + s.rng.Intn(max(s.cfg.LifespanMax-s.cfg.LifespanMin, 1))
	if r.Lifespan < 1 {
		r.Lifespan = 1
	}
	r.Opacity = 0
	r.Width = s.cfg.WidthMin + s.rng.Float64()*(s.cfg.WidthMax-s.cfg.WidthMin)
	r.TileX, r.TileY = tileOf(r.X, r.Y, style.TileSize)
	r.Color = colorspace.Lerp(style.Primary, style.Secondary, tileBlend(r.TileX, r.TileY))

	if cap(r.Trail) < s.TrailCap() {
		r.Trail = make([]Vec, 0, s.TrailCap())
	}
	r.Trail = append(r.Trail[:0], Vec{X: r.X, Y: r.Y})
}

func tileOf(x, y, size float64) (int, int) {
	if size <= 0 {
		size = 1
	}
	return int(math.Floor(x / size)), int(math.Floor(y / size))
}

// tileBlend maps tile coordinates to a stable value in [0, 1].
func tileBlend(tx, ty int) float64 {
	return (math.Sin(float64(tx)*0.5) + math.Cos(float64(ty)*0.5) + 2) / 4
}

// envelope maps life fraction to opacity: ramp up, hold, ramp down.
func envelope(life float64) float64 {
	switch {
	case life < fadeInEnd:
		return life / fadeInEnd
	case life > fadeOutStart:
		return math.Max(0, (1-life)/(1-fadeOutStart))
	default:
		return 1
	}
}
