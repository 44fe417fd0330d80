package systems

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/sigil/colorspace"
	"github.com/pthm-cable/sigil/config"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

var testStops = [4]colorspace.RGB{
	colorspace.MustHex("#1b2a49"),
	colorspace.MustHex("#465881"),
	colorspace.MustHex("#00a8cc"),
	colorspace.MustHex("#0c0f1a"),
}

func TestAmplitudeBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for k := 1; k <= 8; k++ {
		wave := NewWaveField(PlaceSources(k, 200, 150), 5+rng.Float64()*100, nil)
		for i := 0; i < 2000; i++ {
			x := rng.Float64() * 200
			y := rng.Float64() * 150
			tm := rng.Float64() * 50
			v := wave.Amplitude(x, y, tm)
			if v < -1 || v > 1 || math.IsNaN(v) {
				t.Fatalf("k=%d: amplitude %v out of [-1,1] at (%.1f,%.1f,t=%.2f)", k, v, x, y, tm)
			}
		}
	}
}

func TestAmplitudeNoSources(t *testing.T) {
	wave := NewWaveField(nil, 50, nil)
	if v := wave.Amplitude(10, 10, 1); v != 0 {
		t.Errorf("expected flat zero field without sources, got %v", v)
	}

	// Zero wavelength must not divide by zero
	wave = NewWaveField(PlaceSources(2, 100, 100), 0, nil)
	if v := wave.Amplitude(3, 4, 0); math.IsNaN(v) || math.IsInf(v, 0) {
		t.Errorf("expected finite amplitude with zero wavelength, got %v", v)
	}
}

func TestAmplitudeCenterMatchesSourceAverage(t *testing.T) {
	sources := PlaceSources(3, 100, 100)
	wave := NewWaveField(sources, 50, nil)

	cx, cy := 50.0, 50.0
	var want float64
	for i, s := range sources {
		d := math.Hypot(cx-s.X, cy-s.Y)
		want += math.Sin((d/50-0)*2*math.Pi + float64(i)*math.Pi/4)
	}
	want /= 3

	got := wave.Amplitude(cx, cy, 0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("center amplitude = %v, want %v", got, want)
	}

	// Sources sit on a circle of radius 25, so the per-source distance is 25.
	expect := (math.Sin(math.Pi) + math.Sin(math.Pi+math.Pi/4) + math.Sin(math.Pi+math.Pi/2)) / 3
	if math.Abs(got-expect) > 1e-9 {
		t.Errorf("center amplitude = %v, want closed form %v", got, expect)
	}
}

func TestPlaceSources(t *testing.T) {
	if PlaceSources(0, 100, 100) != nil {
		t.Error("expected no sources for count 0")
	}
	one := PlaceSources(1, 100, 80)
	if len(one) != 1 || one[0].X != 50 || one[0].Y != 40 {
		t.Errorf("single source should be centered, got %+v", one)
	}
	for _, s := range PlaceSources(5, 100, 100) {
		if d := math.Hypot(s.X-50, s.Y-50); math.Abs(d-25) > 1e-9 {
			t.Errorf("source %+v not on radius 25 circle (d=%v)", s, d)
		}
	}
}

func TestRenderLineMode(t *testing.T) {
	wave := NewWaveField(PlaceSources(3, 64, 64), 20, nil)
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	wave.Render(img, 0.3, testStops, WaveOptions{Threshold: 0.1}, nil)

	line, bg := testStops[2], testStops[3]
	var lines int
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			i := img.PixOffset(x, y)
			c := colorspace.RGB{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]}
			v := wave.Amplitude(float64(x)+0.5, float64(y)+0.5, 0.3)
			want := bg
			if math.Abs(v) < 0.1 {
				want = line
				lines++
			}
			if c != want {
				t.Fatalf("pixel (%d,%d): got %+v, want %+v (v=%v)", x, y, c, want, v)
			}
		}
	}
	if lines == 0 {
		t.Error("expected some fringe pixels")
	}
}

func TestRenderGradientNoiseBounded(t *testing.T) {
	wave := NewWaveField(PlaceSources(3, 100, 100), 50, NewRowPool())
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	wave.Render(img, 0, testStops, WaveOptions{Gradient: true, Seed: 9}, nil)

	for y := 0; y < 100; y += 7 {
		for x := 0; x < 100; x += 7 {
			v := wave.Amplitude(float64(x)+0.5, float64(y)+0.5, 0)
			r, g, b := colorspace.Blend3(testStops, (v+1)/2)
			i := img.PixOffset(x, y)
			for ch, want := range []float64{r, g, b} {
				got := float64(img.Pix[i+ch])
				if got < math.Max(0, want-noiseAmplitude-1) || got > math.Min(255, want+noiseAmplitude+1) {
					t.Fatalf("pixel (%d,%d) channel %d = %v, want %v±%v", x, y, ch, got, want, noiseAmplitude)
				}
			}
			if img.Pix[i+3] != 255 {
				t.Fatalf("pixel (%d,%d) not opaque", x, y)
			}
		}
	}
}

func TestRenderSkipsOutside(t *testing.T) {
	wave := NewWaveField(PlaceSources(2, 40, 40), 10, nil)
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	inside := func(x, y int) bool { return x < 20 }
	wave.Render(img, 0, testStops, WaveOptions{Gradient: true}, inside)

	bg := testStops[3]
	for y := 0; y < 40; y++ {
		for x := 20; x < 40; x++ {
			i := img.PixOffset(x, y)
			if img.Pix[i] != bg.R || img.Pix[i+1] != bg.G || img.Pix[i+2] != bg.B {
				t.Fatalf("outside pixel (%d,%d) not background", x, y)
			}
		}
	}
}

func TestPixelNoiseDeterministic(t *testing.T) {
	a1, b1, c1 := pixelNoise(12, 34, 5)
	a2, b2, c2 := pixelNoise(12, 34, 5)
	if a1 != a2 || b1 != b2 || c1 != c2 {
		t.Error("pixel noise should be deterministic")
	}
	for x := 0; x < 500; x++ {
		for _, n := range []float64{a1, b1, c1} {
			if n < -noiseAmplitude || n > noiseAmplitude {
				t.Fatalf("noise %v out of range", n)
			}
		}
		a1, b1, c1 = pixelNoise(x, x*3, 1)
	}
}

func BenchmarkWaveFieldRender(b *testing.B) {
	wave := NewWaveField(PlaceSources(3, 800, 600), 50, NewRowPool())
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		wave.Render(img, float64(n)*0.02, testStops, WaveOptions{Gradient: true}, nil)
	}
}
