package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/gogpu/gg"

	"github.com/pthm-cable/sigil/animation"
	"github.com/pthm-cable/sigil/config"
	"github.com/pthm-cable/sigil/patterns"
	"github.com/pthm-cable/sigil/renderer"
	"github.com/pthm-cable/sigil/systems"
	"github.com/pthm-cable/sigil/telemetry"
	"github.com/pthm-cable/sigil/theme"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Render offscreen without a window")
	frames := flag.Int("frames", 0, "Stop after N frames (0 = unlimited, headless defaults to 120)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	savePNG := flag.Bool("png", false, "Save every headless frame as PNG in output-dir")
	pattern := flag.String("pattern", "", "Pattern id (empty = use config)")
	themeName := flag.String("theme", "", "Theme name (empty = use config)")
	seed := flag.Int64("seed", 0, "Ribbon RNG seed (0 = use config)")
	parallel := flag.Bool("parallel", true, "Split per-pixel patterns across row workers")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *pattern != "" {
		cfg.Pattern.Active = *pattern
	}
	if *themeName != "" {
		cfg.Theme.Default = *themeName
	}
	if *seed != 0 {
		cfg.Flow.Seed = *seed
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	gg.SetLogger(logger.With("component", "gg"))

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	var pool *systems.RowPool
	if *parallel {
		pool = systems.NewRowPool()
		defer pool.Stop()
	}

	host, err := renderer.NewCanvas(cfg.Screen.Width, cfg.Screen.Height)
	if err != nil {
		slog.Error("failed to create canvas", "error", err)
		os.Exit(1)
	}
	defer host.Close()

	sched := animation.NewManualScheduler()
	d, err := animation.New(animation.Options{
		Config:    cfg,
		Scheduler: sched,
		Surface:   host,
		Pool:      pool,
		Logger:    logger,
		Output:    output,
	})
	if err != nil {
		slog.Error("failed to create driver", "error", err)
		os.Exit(1)
	}

	if *headless {
		n := *frames
		if n <= 0 {
			n = 120
		}
		if *savePNG && output == nil {
			slog.Warn("png output requires -output-dir; frames will not be saved")
		}
		if err := runHeadless(d, sched, host, output, n, *savePNG); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	runWindow(cfg, d, sched, host, *frames)
}

// runHeadless steps the scheduler on a synthetic clock at the target rate.
func runHeadless(d *animation.Driver, sched *animation.ManualScheduler, host *renderer.Canvas,
	output *telemetry.OutputManager, frames int, savePNG bool) error {
	cfg := config.Cfg()
	step := time.Second / time.Duration(max(cfg.Screen.TargetFPS, 1))
	now := time.Now()

	slog.Info("starting headless run",
		"pattern", cfg.Pattern.Active,
		"theme", cfg.Theme.Default,
		"frames", frames,
		"width", host.Width(),
		"height", host.Height(),
	)

	if err := d.Start(); err != nil {
		return err
	}
	defer d.Stop()

	for i := 0; i < frames; i++ {
		now = now.Add(step)
		before := d.Frame()
		if !sched.Step(now) {
			break
		}
		if d.State() == animation.Stalled {
			return fmt.Errorf("driver stalled: %w", d.Err())
		}
		if savePNG && output != nil && d.Frame() > before {
			if err := host.SavePNG(output.FramePath(before)); err != nil {
				return err
			}
		}
	}

	d.Perf().Stats().LogStats()
	slog.Info("headless run finished", "frames", d.Frame())
	return nil
}

// runWindow drives the animation from the raylib frame loop.
func runWindow(cfg *config.Config, d *animation.Driver, sched *animation.ManualScheduler, host *renderer.Canvas, frames int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Sigil")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	tex := newScreenTexture(host.Width(), host.Height())
	defer func() { rl.UnloadTexture(tex.texture) }()

	if err := d.Start(); err != nil {
		slog.Error("failed to start", "error", err)
		return
	}

	for !rl.WindowShouldClose() {
		if rl.IsWindowResized() {
			d.HandleResize(rl.GetScreenWidth(), rl.GetScreenHeight())
		}
		handleInput(d)

		sched.Step(time.Now())

		if tex.width != host.Width() || tex.height != host.Height() {
			rl.UnloadTexture(tex.texture)
			tex = newScreenTexture(host.Width(), host.Height())
		}
		tex.upload(host.View())

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		rl.DrawTexture(tex.texture, 0, 0, rl.White)
		drawOverlay(d)
		rl.EndDrawing()

		if frames > 0 && d.Frame() >= int64(frames) {
			break
		}
	}
	if d.State() != animation.Idle {
		_ = d.Stop()
	}
}

// handleInput maps keys to driver controls.
func handleInput(d *animation.Driver) {
	for i, v := range patterns.Variants() {
		if rl.IsKeyPressed(int32(rl.KeyOne) + int32(i)) {
			if err := d.SetPattern(v); err != nil {
				slog.Warn("pattern switch failed", "pattern", v.String(), "error", err)
			}
		}
	}

	if rl.IsKeyPressed(rl.KeyT) {
		next := d.Theme().Next()
		if err := d.SetTheme(next, true); err != nil && !errors.Is(err, theme.ErrTransitionInFlight) {
			slog.Warn("theme switch failed", "theme", next, "error", err)
		}
	}

	if rl.IsKeyPressed(rl.KeyS) {
		_ = d.UpdateParameter("stroke_enabled", !d.Parameters().StrokeEnabled)
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		if d.State() == animation.Running {
			_ = d.Stop()
		} else {
			_ = d.Start()
		}
	}
}

func drawOverlay(d *animation.Driver) {
	desc := d.Describe()
	rl.DrawText(fmt.Sprintf("%s  complexity %d  theme %s", desc.Name, desc.Complexity, d.Theme().Name()), 10, 10, 16, rl.RayWhite)
	rl.DrawText(fmt.Sprintf("FPS %d  frame %d", rl.GetFPS(), d.Frame()), 10, 30, 14, rl.LightGray)
	switch d.State() {
	case animation.Stalled:
		rl.DrawText("stalled: retrying, press space to restart now", 10, 50, 14, rl.Red)
	case animation.Idle:
		rl.DrawText("paused", 10, 50, 14, rl.Gray)
	}
}

// screenTexture is a GPU texture sized to the host canvas.
type screenTexture struct {
	texture rl.Texture2D
	width   int
	height  int
	pixels  []color.RGBA
}

func newScreenTexture(w, h int) screenTexture {
	w, h = max(w, 1), max(h, 1)
	img := rl.GenImageColor(w, h, rl.Black)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	return screenTexture{texture: tex, width: w, height: h, pixels: make([]color.RGBA, w*h)}
}

// upload copies an opaque buffer into the texture. Mismatched sizes are
// skipped until the texture is recreated.
func (s *screenTexture) upload(b *renderer.Buffer) {
	if b.Width != s.width || b.Height != s.height {
		return
	}
	for i := range s.pixels {
		p := b.Pix[i*4 : i*4+3]
		s.pixels[i] = color.RGBA{R: p[0], G: p[1], B: p[2], A: 255}
	}
	rl.UpdateTexture(s.texture, s.pixels)
}
