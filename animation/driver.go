// Package animation owns the per-frame sequence: advance time, render the
// active pattern, composite it through the stencil and hand the result to
// the host surface.
package animation

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/sigil/colorspace"
	"github.com/pthm-cable/sigil/config"
	"github.com/pthm-cable/sigil/params"
	"github.com/pthm-cable/sigil/patterns"
	"github.com/pthm-cable/sigil/renderer"
	"github.com/pthm-cable/sigil/stencil"
	"github.com/pthm-cable/sigil/systems"
	"github.com/pthm-cable/sigil/telemetry"
	"github.com/pthm-cable/sigil/theme"
)

// ErrNotRunning is returned by Stop when the driver is not running.
var ErrNotRunning = errors.New("animation: driver not running")

// State is the driver lifecycle state.
type State uint8

const (
	Idle State = iota
	Running
	Stalled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stalled:
		return "stalled"
	default:
		return fmt.Sprintf("state(%d)", s)
	}
}

// MaskSource builds stencil masks. *stencil.Cache implements it.
type MaskSource interface {
	Build(width, height int, strokeEnabled bool, strokeWidth float64) (*stencil.Mask, error)
	Invalidate()
}

// Options configures a Driver. Config, Scheduler and Surface are required.
type Options struct {
	Config    *config.Config
	Scheduler Scheduler
	Surface   renderer.Surface // Host surface receiving composited frames

	Masks    MaskSource         // Defaults to a stencil cache for the logo
	Registry *patterns.Registry // Defaults to the built-in patterns
	Pool     *systems.RowPool   // Optional parallel row workers
	Logger   *slog.Logger       // Defaults to slog.Default()
	Output   *telemetry.OutputManager
	Now      func() time.Time // Theme clock before the first tick; defaults to time.Now
	OnStall  func(err error)  // Called each time the driver enters Stalled
	OnWindow func(telemetry.WindowStats)
}

// Driver runs the animation. Frames are driven by the scheduler on a single
// thread; only HandleResize may be called from elsewhere.
type Driver struct {
	cfg      *config.Config
	sched    Scheduler
	host     renderer.Surface
	masks    MaskSource
	registry *patterns.Registry
	env      patterns.Env
	log      *slog.Logger
	now      func() time.Time
	onStall  func(err error)
	onWindow func(telemetry.WindowStats)

	params *params.Store
	theme  *theme.Interpolator
	stroke colorspace.RGB

	variant patterns.Variant
	gen     patterns.Generator

	state    State
	cancel   func()
	animTime float64
	frame    int64
	failures int
	retryAt  time.Time
	lastErr  error
	lastTick time.Time

	// Size changes are requested by HandleResize and applied at tick start
	resizeMu sync.Mutex
	sizeGen  uint64
	reqW     int
	reqH     int

	builtGen uint64
	width    int
	height   int
	off      *renderer.Canvas
	composed *renderer.Buffer

	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	bookmarks *telemetry.BookmarkDetector
	output    *telemetry.OutputManager
}

// New creates an idle driver showing the configured pattern and theme.
func New(opts Options) (*Driver, error) {
	if opts.Config == nil || opts.Scheduler == nil || opts.Surface == nil {
		return nil, errors.New("animation: config, scheduler and surface are required")
	}
	cfg := opts.Config

	d := &Driver{
		cfg:      cfg,
		sched:    opts.Scheduler,
		host:     opts.Surface,
		masks:    opts.Masks,
		registry: opts.Registry,
		env:      patterns.Env{Config: cfg, Pool: opts.Pool},
		log:      opts.Logger,
		now:      opts.Now,
		onStall:  opts.OnStall,
		onWindow: opts.OnWindow,
		params:   params.NewStore(cfg),
		output:   opts.Output,

		perf:      telemetry.NewPerfCollector(cfg.Telemetry.Window),
		collector: telemetry.NewCollector(cfg.Telemetry.Window, frameBudget(cfg.Screen.TargetFPS)),
		bookmarks: telemetry.NewBookmarkDetector(10),
	}
	if d.masks == nil {
		d.masks = stencil.NewCache(cfg.Stencil)
	}
	if d.registry == nil {
		d.registry = patterns.NewRegistry()
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}

	stroke, err := colorspace.ParseHex(cfg.Stencil.StrokeColor)
	if err != nil {
		return nil, fmt.Errorf("stencil stroke color: %w", err)
	}
	d.stroke = stroke

	if d.theme, err = theme.NewFromConfig(cfg); err != nil {
		return nil, err
	}

	variant, err := patterns.ParseVariant(cfg.Pattern.Active)
	if err != nil {
		return nil, err
	}
	if err := d.SetPattern(variant); err != nil {
		return nil, err
	}

	d.reqW, d.reqH = opts.Surface.Width(), opts.Surface.Height()
	d.sizeGen = 1
	return d, nil
}

// frameBudget returns the frame time budget for a target rate.
func frameBudget(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}

// Start begins registering for frames. Starting a stalled driver clears
// its failure count and retries at once.
func (d *Driver) Start() error {
	if d.state == Running {
		return nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.state = Running
	d.failures = 0
	d.retryAt = time.Time{}
	d.lastErr = nil
	d.log.Info("animation started", "pattern", d.variant.String(), "theme", d.theme.Name())
	d.schedule()
	return nil
}

// Stop deregisters from the scheduler and releases masks and buffers.
func (d *Driver) Stop() error {
	if d.state == Idle {
		return ErrNotRunning
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.state = Idle
	d.release()
	d.log.Info("animation stopped", "frames", d.frame)
	return nil
}

// release drops size-dependent resources. They are rebuilt on the next tick.
func (d *Driver) release() {
	d.masks.Invalidate()
	if d.off != nil {
		if err := d.off.Close(); err != nil {
			d.log.Warn("closing offscreen canvas", "error", err)
		}
		d.off = nil
	}
	d.composed = nil
	d.builtGen = 0
}

func (d *Driver) schedule() {
	d.cancel = d.sched.RequestFrame(d.Tick)
}

// Tick runs one frame at now and re-registers for the next. It is the
// scheduler callback and must not be called concurrently. A stalled driver
// keeps retrying and returns to Running on its first good frame.
func (d *Driver) Tick(now time.Time) {
	d.cancel = nil
	if d.state == Idle {
		return
	}
	d.lastTick = now
	if !d.retryAt.IsZero() && now.Before(d.retryAt) {
		// Backing off after a failure
		d.schedule()
		return
	}

	if err := d.safeFrame(now); err != nil {
		d.fail(now, err)
	} else {
		d.clearFailures()
	}
	d.schedule()
}

// clearFailures resets failure state after a good frame.
func (d *Driver) clearFailures() {
	if d.state == Stalled {
		d.state = Running
		d.log.Info("animation recovered",
			"failures", d.failures,
			"pattern", d.variant.String(),
		)
		d.lastErr = nil
	}
	d.failures = 0
	d.retryAt = time.Time{}
}

// safeFrame runs a frame, converting panics into errors.
func (d *Driver) safeFrame(now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("animation: frame panic: %v", r)
		}
	}()
	return d.renderFrame(now)
}

func (d *Driver) fail(now time.Time, err error) {
	d.failures++
	d.lastErr = err
	d.collector.Record(telemetry.NewFailureEvent(d.frame, err))
	d.retryAt = now.Add(d.cfg.Derived.RetryDelay)

	if d.state == Stalled {
		d.log.Debug("retry failed", "failures", d.failures, "error", err)
		return
	}
	if d.failures >= d.cfg.Driver.StallThreshold {
		d.state = Stalled
		d.collector.Record(telemetry.NewStallEvent(d.frame, d.failures))
		d.log.Error("animation stalled",
			"failures", d.failures,
			"pattern", d.variant.String(),
			"error", err,
		)
		if d.onStall != nil {
			d.onStall(err)
		}
		return
	}
	d.log.Warn("frame failed",
		"failures", d.failures,
		"retry_in", d.cfg.Derived.RetryDelay,
		"error", err,
	)
}

// renderFrame is the per-frame sequence.
func (d *Driver) renderFrame(now time.Time) error {
	d.perf.StartFrame()

	d.perf.StartPhase(telemetry.PhaseAdvance)
	if err := d.applyResize(); err != nil {
		return err
	}
	p := d.params.Snapshot()
	d.theme.Update(now)
	palette := d.theme.Colors()
	step := d.speed() * p.Speed

	if d.off == nil {
		// Zero-area output: nothing to draw
		d.animTime += step
		d.perf.EndFrame()
		return nil
	}

	d.perf.StartPhase(telemetry.PhaseStencil)
	mask, err := d.masks.Build(d.width, d.height, p.StrokeEnabled, p.StrokeWidth)
	if err != nil && !errors.Is(err, stencil.ErrMaskNotReady) {
		return fmt.Errorf("building mask: %w", err)
	}

	d.perf.StartPhase(telemetry.PhaseGenerate)
	f := patterns.Frame{
		Surface: d.off,
		Time:    d.animTime + step,
		Palette: palette,
		Params:  p,
		Width:   d.width,
		Height:  d.height,
	}
	if mask != nil {
		f.Inside = mask.Inside
	}
	if err := d.gen.Render(&f); err != nil {
		return fmt.Errorf("rendering %s: %w", d.variant, err)
	}
	d.animTime += step

	if mask == nil {
		// Keep the previous frame on the host; the mask is retried next tick
		d.log.Debug("compositing skipped", "frame", d.frame, "error", err)
		d.collector.Record(telemetry.NewSkipEvent(d.frame, "mask not ready"))
		d.perf.EndFrame()
		d.frame++
		d.flushTelemetry()
		return nil
	}

	d.perf.StartPhase(telemetry.PhaseComposite)
	if err := stencil.Apply(d.composed, d.off.View(), mask, palette.Background, palette.StrokeOr(d.stroke)); err != nil {
		return fmt.Errorf("compositing: %w", err)
	}

	d.perf.StartPhase(telemetry.PhaseBlit)
	d.host.PutPixels(d.composed)

	dur := d.perf.EndFrame()
	d.collector.Record(telemetry.NewFrameEvent(d.frame, dur))
	d.frame++
	d.flushTelemetry()
	return nil
}

// applyResize rebuilds size-dependent state when the size generation moved.
func (d *Driver) applyResize() error {
	d.resizeMu.Lock()
	gen, w, h := d.sizeGen, d.reqW, d.reqH
	d.resizeMu.Unlock()
	if gen == d.builtGen {
		return nil
	}

	d.masks.Invalidate()
	d.builtGen = gen
	d.width, d.height = w, h
	d.collector.Record(telemetry.NewResizeEvent(d.frame, w, h))
	if w <= 0 || h <= 0 {
		d.release()
		d.builtGen = gen
		return nil
	}

	if d.host.Width() != w || d.host.Height() != h {
		if err := d.host.Resize(w, h); err != nil {
			return fmt.Errorf("resizing host surface: %w", err)
		}
	}
	if d.off == nil {
		off, err := renderer.NewCanvas(w, h)
		if err != nil {
			return err
		}
		d.off = off
	} else if err := d.off.Resize(w, h); err != nil {
		return err
	}
	if d.composed == nil {
		d.composed = renderer.NewBuffer(w, h)
	}
	d.composed.Resize(w, h)

	d.log.Debug("surface resized", "width", w, "height", h, "generation", gen)
	return nil
}

// HandleResize records a new output size. Masks and size-dependent caches
// are rebuilt before the next frame renders. Safe to call from any goroutine.
func (d *Driver) HandleResize(width, height int) {
	d.resizeMu.Lock()
	defer d.resizeMu.Unlock()
	if width == d.reqW && height == d.reqH {
		return
	}
	d.reqW, d.reqH = width, height
	d.sizeGen++
}

// speed returns the per-frame time advance of the active variant.
func (d *Driver) speed() float64 {
	if s, ok := d.cfg.Driver.Speeds[d.variant.String()]; ok {
		return s
	}
	return 0.01
}

// UpdateParameter sets a parameter. Values are clamped; stroke changes
// rebuild the mask on the next frame.
func (d *Driver) UpdateParameter(key string, value any) error {
	return d.params.Update(key, value)
}

// GetParameter returns the current value of a parameter.
func (d *Driver) GetParameter(key string) (any, error) {
	return d.params.Get(key)
}

// Parameters returns a snapshot of every parameter.
func (d *Driver) Parameters() params.Parameters {
	return d.params.Snapshot()
}

// SetPattern switches the active generator. Time is kept so the switch
// does not jump.
func (d *Driver) SetPattern(v patterns.Variant) error {
	gen, err := d.registry.New(v, d.env)
	if err != nil {
		return err
	}
	d.variant = v
	d.gen = gen
	d.collector.Record(telemetry.NewPatternChangeEvent(d.frame, v.String()))
	d.log.Debug("pattern selected", "pattern", v.String())
	return nil
}

// SetPatternByName switches the active generator by variant id.
func (d *Driver) SetPatternByName(name string) error {
	v, err := patterns.ParseVariant(name)
	if err != nil {
		return err
	}
	return d.SetPattern(v)
}

// SetTheme switches palettes, animated or at once. Requests made while a
// transition is in flight return theme.ErrTransitionInFlight and are ignored.
func (d *Driver) SetTheme(name string, animated bool) error {
	// Transitions are timed on the scheduler's clock once it has ticked
	start := d.lastTick
	if start.IsZero() {
		start = d.now()
	}
	if err := d.theme.SetTheme(name, animated, start); err != nil {
		return err
	}
	d.collector.Record(telemetry.NewThemeChangeEvent(d.frame, name))
	return nil
}

// Theme returns the theme interpolator.
func (d *Driver) Theme() *theme.Interpolator {
	return d.theme
}

// Describe returns metadata for the current pattern and parameters.
func (d *Driver) Describe() patterns.Descriptor {
	return d.registry.Describe(d.variant, d.gen, d.params.Snapshot())
}

// State returns the lifecycle state.
func (d *Driver) State() State {
	return d.state
}

// Err returns the most recent frame error, if any.
func (d *Driver) Err() error {
	return d.lastErr
}

// Variant returns the active pattern.
func (d *Driver) Variant() patterns.Variant {
	return d.variant
}

// Time returns the animation time.
func (d *Driver) Time() float64 {
	return d.animTime
}

// Frame returns the number of frames rendered.
func (d *Driver) Frame() int64 {
	return d.frame
}

// SizeGeneration returns the resize generation counter.
func (d *Driver) SizeGeneration() uint64 {
	d.resizeMu.Lock()
	defer d.resizeMu.Unlock()
	return d.sizeGen
}

// Perf returns the frame timing collector.
func (d *Driver) Perf() *telemetry.PerfCollector {
	return d.perf
}
