// Pattern preview tool - interactive parameter tuning with sliders.
//
// Usage: go run ./cmd/patternpreview
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sigil/animation"
	"github.com/pthm-cable/sigil/config"
	"github.com/pthm-cable/sigil/params"
	"github.com/pthm-cable/sigil/patterns"
	"github.com/pthm-cable/sigil/renderer"
)

const (
	windowWidth  = 1100
	windowHeight = 760
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	host, err := renderer.NewCanvas(previewSize, previewSize)
	if err != nil {
		slog.Error("failed to create canvas", "error", err)
		os.Exit(1)
	}
	defer host.Close()

	sched := animation.NewManualScheduler()
	d, err := animation.New(animation.Options{Config: cfg, Scheduler: sched, Surface: host})
	if err != nil {
		slog.Error("failed to create driver", "error", err)
		os.Exit(1)
	}

	rl.InitWindow(windowWidth, windowHeight, "Pattern Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	img := rl.GenImageColor(previewSize, previewSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)
	pixels := make([]color.RGBA, previewSize*previewSize)

	_ = d.Start()

	for !rl.WindowShouldClose() {
		sched.Step(time.Now())
		updateTexture(texture, host.View(), pixels)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		rl.DrawTexture(texture, 10, 10, rl.White)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		desc := d.Describe()
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("%s  complexity: %d", desc.Name, desc.Complexity), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Theme: %s  State: %s  Frame: %d", d.Theme().Name(), d.State(), d.Frame()), 15, statsY+20, 16, rl.DarkGray)
		if err := d.Err(); err != nil {
			rl.DrawText(err.Error(), 15, statsY+40, 14, rl.Red)
		}

		// Pattern buttons
		buttonY := float32(statsY + 70)
		for i, v := range patterns.Variants() {
			x := float32(10 + (i%3)*170)
			y := buttonY + float32(i/3)*36
			if gui.Button(rl.Rectangle{X: x, Y: y, Width: 160, Height: 30}, v.String()) {
				_ = d.SetPattern(v)
			}
		}
		if gui.Button(rl.Rectangle{X: 10, Y: buttonY + 80, Width: 160, Height: 30}, "Next Theme") {
			_ = d.SetTheme(d.Theme().Next(), true)
		}
		if gui.Button(rl.Rectangle{X: 180, Y: buttonY + 80, Width: 160, Height: 30}, toggleText(d.State() == animation.Running, "Pause", "Resume")) {
			if d.State() == animation.Running {
				_ = d.Stop()
			} else {
				_ = d.Start()
			}
		}

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)
		rl.DrawText("Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		snapshot := d.Parameters()
		for _, key := range params.Keys() {
			v, _ := d.GetParameter(key)
			switch val := v.(type) {
			case bool:
				if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 200, Height: 22}, fmt.Sprintf("%s: %v", key, val)) {
					_ = d.UpdateParameter(key, !val)
				}
				panelY += 30
			default:
				panelY = parameterSlider(d, cfg, key, toFloat32(val), panelX, panelY)
			}
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY + 5, Width: 120, Height: 30}, "Reset All") {
			resetParameters(d, cfg)
		}
		panelY += 50

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(defaultsYAML(snapshot))
		}

		rl.EndDrawing()
	}
}

// parameterSlider draws a labelled slider over the configured range and
// applies changes. It returns the next free y position.
func parameterSlider(d *animation.Driver, cfg *config.Config, key string, value float32, x, y float32) float32 {
	r, ok := cfg.RangeFor(key)
	if !ok {
		return y
	}
	rl.DrawText(key, int32(x), int32(y), 14, rl.Gray)
	y += 16
	next := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: float32(panelWidth - 80), Height: 16},
		trimFloat(r.Min), trimFloat(r.Max),
		value, float32(r.Min), float32(r.Max),
	)
	rl.DrawText(trimFloat(float64(value)), int32(x+float32(panelWidth-70)), int32(y), 14, rl.DarkGray)
	if next != value {
		_ = d.UpdateParameter(key, float64(next))
	}
	return y + 24
}

func resetParameters(d *animation.Driver, cfg *config.Config) {
	defaults := params.FromDefaults(cfg.Pattern.Defaults)
	store := params.NewStoreWith(defaults, cfg.Ranges)
	for _, key := range params.Keys() {
		v, _ := store.Get(key)
		_ = d.UpdateParameter(key, v)
	}
}

// defaultsYAML renders the parameters as a pattern.defaults config block.
func defaultsYAML(p params.Parameters) string {
	store := params.NewStoreWith(p, nil)
	var sb strings.Builder
	sb.WriteString("pattern:\n  defaults:\n")
	for _, key := range params.Keys() {
		v, _ := store.Get(key)
		switch val := v.(type) {
		case float64:
			fmt.Fprintf(&sb, "    %s: %s\n", key, trimFloat(val))
		default:
			fmt.Fprintf(&sb, "    %s: %v\n", key, val)
		}
	}
	return sb.String()
}

func toFloat32(v any) float32 {
	switch n := v.(type) {
	case int:
		return float32(n)
	case float64:
		return float32(n)
	}
	return 0
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// updateTexture uploads the composited frame.
func updateTexture(texture rl.Texture2D, b *renderer.Buffer, pixels []color.RGBA) {
	if b.Width != previewSize || b.Height != previewSize {
		return
	}
	for i := range pixels {
		p := b.Pix[i*4 : i*4+3]
		pixels[i] = color.RGBA{R: p[0], G: p[1], B: p[2], A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}
