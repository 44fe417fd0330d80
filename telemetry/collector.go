package telemetry

import "time"

// Collector accumulates events within frame windows and produces WindowStats.
type Collector struct {
	windowFrames int64
	budget       time.Duration

	// Current window tracking
	windowStartFrame int64
	frameTimesMS     []float64

	// Event counters for current window
	failures     int
	skipped      int
	stalls       int
	resizes      int
	patternSwaps int
	themeSwaps   int
	overBudget   int
}

// NewCollector creates a new stats collector.
// windowFrames: how many frames each stats window lasts
// budget: frame time above which a frame counts as over budget (0 disables)
func NewCollector(windowFrames int, budget time.Duration) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{
		windowFrames: int64(windowFrames),
		budget:       budget,
		frameTimesMS: make([]float64, 0, windowFrames),
	}
}

// Record counts an event in the current window.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventFrame:
		c.frameTimesMS = append(c.frameTimesMS, float64(ev.Duration)/float64(time.Millisecond))
		if c.budget > 0 && ev.Duration > c.budget {
			c.overBudget++
		}
	case EventFailure:
		c.failures++
	case EventSkip:
		c.skipped++
	case EventStall:
		c.stalls++
	case EventResize:
		c.resizes++
	case EventPatternChange:
		c.patternSwaps++
	case EventThemeChange:
		c.themeSwaps++
	}
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame int64) bool {
	return currentFrame-c.windowStartFrame >= c.windowFrames
}

// Flush produces a WindowStats and resets counters for the next window.
// pattern, theme and complexity describe the selection at window end.
func (c *Collector) Flush(currentFrame int64, pattern, theme string, complexity int) WindowStats {
	ft := ComputeFrameStats(c.frameTimesMS)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,

		Pattern:    pattern,
		Theme:      theme,
		Complexity: complexity,

		Frames:       len(c.frameTimesMS),
		Failures:     c.failures,
		Skipped:      c.skipped,
		Stalls:       c.stalls,
		Resizes:      c.resizes,
		PatternSwaps: c.patternSwaps,
		ThemeSwaps:   c.themeSwaps,
		OverBudget:   c.overBudget,

		FrameMeanMS: ft.Mean,
		FrameStdMS:  ft.Std,
		FrameP50MS:  ft.P50,
		FrameP95MS:  ft.P95,
		FrameMaxMS:  ft.Max,
	}

	// Reset for next window
	c.windowStartFrame = currentFrame
	c.frameTimesMS = c.frameTimesMS[:0]
	c.failures = 0
	c.skipped = 0
	c.stalls = 0
	c.resizes = 0
	c.patternSwaps = 0
	c.themeSwaps = 0
	c.overBudget = 0

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int64 {
	return c.windowFrames
}
