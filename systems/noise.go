package systems

import (
	"github.com/ojrac/opensimplex-go"
)

// Noise generates coherent noise values in roughly [-1, 1].
type Noise struct {
	simplex opensimplex.Noise
}

// NewNoise creates a seeded noise generator.
func NewNoise(seed int64) *Noise {
	return &Noise{simplex: opensimplex.New(seed)}
}

// Noise3D returns a noise value for 3D coordinates.
func (n *Noise) Noise3D(x, y, z float64) float64 {
	return n.simplex.Eval3(x, y, z)
}

// Noise2D returns a noise value for 2D coordinates.
func (n *Noise) Noise2D(x, y float64) float64 {
	return n.simplex.Eval2(x, y)
}

// Fractal sums octaves of 2D noise, normalized back to [-1, 1].
func (n *Noise) Fractal(x, y float64, octaves int) float64 {
	var sum, amp, norm float64 = 0, 1, 0
	freq := 1.0
	for i := 0; i < octaves; i++ {
		sum += n.simplex.Eval2(x*freq, y*freq) * amp
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
