// Package theme holds named palettes and eases between them over time.
package theme

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pthm-cable/sigil/colorspace"
	"github.com/pthm-cable/sigil/config"
)

var (
	// ErrUnknownTheme is returned for palette names that are not registered.
	ErrUnknownTheme = errors.New("theme: unknown theme")
	// ErrTransitionInFlight is returned when a transition is requested
	// before the previous one completed. The request is ignored.
	ErrTransitionInFlight = errors.New("theme: transition in flight")
)

// Palette is a named color set. Stroke is optional.
type Palette struct {
	Primary    colorspace.RGB
	Secondary  colorspace.RGB
	Accent     colorspace.RGB
	Background colorspace.RGB
	Stroke     *colorspace.RGB
}

// Stops returns the four gradient stops in blend order.
func (p Palette) Stops() [4]colorspace.RGB {
	return [4]colorspace.RGB{p.Primary, p.Secondary, p.Accent, p.Background}
}

// StrokeOr returns the palette stroke color, or fallback when unset.
func (p Palette) StrokeOr(fallback colorspace.RGB) colorspace.RGB {
	if p.Stroke != nil {
		return *p.Stroke
	}
	return fallback
}

// Lerp interpolates every color channel-wise. The stroke color follows
// whichever side defines it; when both do it is interpolated too.
func Lerp(a, b Palette, t float64) Palette {
	out := Palette{
		Primary:    colorspace.Lerp(a.Primary, b.Primary, t),
		Secondary:  colorspace.Lerp(a.Secondary, b.Secondary, t),
		Accent:     colorspace.Lerp(a.Accent, b.Accent, t),
		Background: colorspace.Lerp(a.Background, b.Background, t),
	}
	switch {
	case a.Stroke != nil && b.Stroke != nil:
		s := colorspace.Lerp(*a.Stroke, *b.Stroke, t)
		out.Stroke = &s
	case t >= 1:
		out.Stroke = b.Stroke
	case a.Stroke != nil && t < 0.5:
		out.Stroke = a.Stroke
	case b.Stroke != nil && t >= 0.5:
		out.Stroke = b.Stroke
	}
	return out
}

// ParsePalette converts a configured hex palette.
func ParsePalette(pc config.PaletteConfig) (Palette, error) {
	var p Palette
	var err error
	fields := []struct {
		dst *colorspace.RGB
		hex string
		key string
	}{
		{&p.Primary, pc.Primary, "primary"},
		{&p.Secondary, pc.Secondary, "secondary"},
		{&p.Accent, pc.Accent, "accent"},
		{&p.Background, pc.Background, "background"},
	}
	for _, f := range fields {
		if *f.dst, err = colorspace.ParseHex(f.hex); err != nil {
			return Palette{}, fmt.Errorf("%s: %w", f.key, err)
		}
	}
	if pc.Stroke != "" {
		s, err := colorspace.ParseHex(pc.Stroke)
		if err != nil {
			return Palette{}, fmt.Errorf("stroke: %w", err)
		}
		p.Stroke = &s
	}
	return p, nil
}

// LoadPalettes parses every configured palette.
func LoadPalettes(cfg config.ThemeConfig) (map[string]Palette, error) {
	out := make(map[string]Palette, len(cfg.Palettes))
	for name, pc := range cfg.Palettes {
		p, err := ParsePalette(pc)
		if err != nil {
			return nil, fmt.Errorf("palette %q: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}

// EaseInOutCubic is the transition curve.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// transition captures an in-flight animated switch.
type transition struct {
	from   Palette
	to     Palette
	target string
	start  time.Time
}

// Interpolator owns the current palette. It is driven from the frame
// thread and is not safe for concurrent use.
type Interpolator struct {
	palettes map[string]Palette
	duration time.Duration

	name    string
	current Palette
	active  *transition
}

// New creates an interpolator showing initial.
func New(palettes map[string]Palette, initial string, duration time.Duration) (*Interpolator, error) {
	p, ok := palettes[initial]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, initial)
	}
	return &Interpolator{
		palettes: palettes,
		duration: duration,
		name:     initial,
		current:  p,
	}, nil
}

// NewFromConfig loads palettes from cfg and starts on the default theme.
func NewFromConfig(cfg *config.Config) (*Interpolator, error) {
	palettes, err := LoadPalettes(cfg.Theme)
	if err != nil {
		return nil, err
	}
	return New(palettes, cfg.Theme.Default, cfg.Derived.Transition)
}

// SetTheme switches to name. Animated switches start at now and complete
// after the configured duration; requests during a transition are ignored.
func (in *Interpolator) SetTheme(name string, animated bool, now time.Time) error {
	target, ok := in.palettes[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	if in.active != nil {
		return ErrTransitionInFlight
	}
	if !animated || in.duration <= 0 {
		in.name = name
		in.current = target
		return nil
	}
	in.active = &transition{from: in.current, to: target, target: name, start: now}
	return nil
}

// Update advances an in-flight transition to now.
func (in *Interpolator) Update(now time.Time) {
	tr := in.active
	if tr == nil {
		return
	}
	elapsed := now.Sub(tr.start)
	if elapsed <= 0 {
		// Not started yet
		in.current = tr.from
		return
	}
	progress := math.Min(float64(elapsed)/float64(in.duration), 1)
	if progress >= 1 {
		in.current = tr.to
		in.name = tr.target
		in.active = nil
		return
	}
	in.current = Lerp(tr.from, tr.to, EaseInOutCubic(progress))
}

// Colors returns the current palette.
func (in *Interpolator) Colors() Palette {
	return in.current
}

// Name returns the active theme name. During a transition it is the theme
// being left.
func (in *Interpolator) Name() string {
	return in.name
}

// Transitioning reports whether a transition is in flight.
func (in *Interpolator) Transitioning() bool {
	return in.active != nil
}

// Reset abandons any transition and snaps to its target.
func (in *Interpolator) Reset() {
	if in.active == nil {
		return
	}
	in.current = in.active.to
	in.name = in.active.target
	in.active = nil
}

// Names returns the registered theme names in sorted order.
func (in *Interpolator) Names() []string {
	names := make([]string, 0, len(in.palettes))
	for n := range in.palettes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Next returns the theme after the current one in sorted order.
func (in *Interpolator) Next() string {
	names := in.Names()
	for i, n := range names {
		if n == in.name {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
