package systems

import (
	"image"
	"math"

	"github.com/pthm-cable/sigil/colorspace"
)

// noiseAmplitude is the symmetric per-channel texture noise in gradient mode.
const noiseAmplitude = 4.0

// WaveSource is a point emitter. Its phase is derived from its index.
type WaveSource struct {
	X, Y float64
}

// PlaceSources lays count sources evenly on a circle around the center of a
// width x height surface, radius a quarter of the shorter side.
func PlaceSources(count, width, height int) []WaveSource {
	if count <= 0 {
		return nil
	}
	cx, cy := float64(width)/2, float64(height)/2
	if count == 1 {
		return []WaveSource{{X: cx, Y: cy}}
	}
	r := math.Min(float64(width), float64(height)) / 4
	sources := make([]WaveSource, count)
	for i := range sources {
		a := -math.Pi/2 + 2*math.Pi*float64(i)/float64(count)
		sources[i] = WaveSource{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return sources
}

// SourcePhase returns the phase offset for source i.
func SourcePhase(i int) float64 {
	return float64(i) * math.Pi / 4
}

// WaveOptions selects the render mode.
type WaveOptions struct {
	Gradient  bool
	Threshold float64 // Line mode: |v| below this is drawn as a line
	Seed      uint32  // Texture noise seed
}

// WaveField superimposes sinusoidal point sources into a scalar field.
type WaveField struct {
	Sources    []WaveSource
	Wavelength float64

	pool *RowPool
}

// NewWaveField creates a field. pool may be nil for single-threaded rendering.
func NewWaveField(sources []WaveSource, wavelength float64, pool *RowPool) *WaveField {
	return &WaveField{Sources: sources, Wavelength: wavelength, pool: pool}
}

// Amplitude returns the normalized amplitude in [-1, 1] at (x, y) and time t.
// With no sources the field is flat zero.
func (w *WaveField) Amplitude(x, y, t float64) float64 {
	k := len(w.Sources)
	if k == 0 {
		return 0
	}
	wavelength := w.Wavelength
	if wavelength <= 0 {
		wavelength = 1
	}
	var sum float64
	for i, s := range w.Sources {
		dx, dy := x-s.X, y-s.Y
		d := math.Sqrt(dx*dx + dy*dy)
		sum += math.Sin((d/wavelength-t)*2*math.Pi + SourcePhase(i))
	}
	return sum / float64(k)
}

// Render fills dst with the field at time t. Pixels for which inside
// returns false are set to the background without evaluating the field.
// stops are primary, secondary, accent and background.
func (w *WaveField) Render(dst *image.RGBA, t float64, stops [4]colorspace.RGB, opts WaveOptions, inside func(x, y int) bool) {
	width, height := dst.Rect.Dx(), dst.Rect.Dy()
	if width == 0 || height == 0 {
		return
	}
	background := stops[3]
	line := stops[2]

	w.pool.Run(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := dst.Pix[y*dst.Stride:]
			for x := 0; x < width; x++ {
				i := x * 4
				if inside != nil && !inside(x, y) {
					setPixel(row, i, background)
					continue
				}

				v := w.Amplitude(float64(x)+0.5, float64(y)+0.5, t)
				if opts.Gradient {
					r, g, b := colorspace.Blend3(stops, (v+1)/2)
					n1, n2, n3 := pixelNoise(x, y, opts.Seed)
					row[i] = colorspace.Clamp255(r + n1)
					row[i+1] = colorspace.Clamp255(g + n2)
					row[i+2] = colorspace.Clamp255(b + n3)
					row[i+3] = 255
				} else if math.Abs(v) < opts.Threshold {
					setPixel(row, i, line)
				} else {
					setPixel(row, i, background)
				}
			}
		}
	})
}

func setPixel(row []uint8, i int, c colorspace.RGB) {
	row[i] = c.R
	row[i+1] = c.G
	row[i+2] = c.B
	row[i+3] = 255
}

// pixelNoise returns three values in [-noiseAmplitude, noiseAmplitude]
// from a position hash, so output does not depend on worker scheduling.
func pixelNoise(x, y int, seed uint32) (float64, float64, float64) {
	h := uint32(x)*374761393 + uint32(y)*668265263 + seed*2246822519
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	scale := 2 * noiseAmplitude / 255
	return float64(h&0xff)*scale - noiseAmplitude,
		float64((h>>8)&0xff)*scale - noiseAmplitude,
		float64((h>>16)&0xff)*scale - noiseAmplitude
}
