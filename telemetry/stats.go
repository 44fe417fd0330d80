package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of frames.
type WindowStats struct {
	WindowStartFrame int64 `csv:"-"`
	WindowEndFrame   int64 `csv:"window_end"`

	// Active selection at window end
	Pattern    string `csv:"pattern"`
	Theme      string `csv:"theme"`
	Complexity int    `csv:"complexity"`

	// Events during window
	Frames       int `csv:"frames"`
	Failures     int `csv:"failures"`
	Skipped      int `csv:"skipped"`
	Stalls       int `csv:"stalls"`
	Resizes      int `csv:"resizes"`
	PatternSwaps int `csv:"pattern_swaps"`
	ThemeSwaps   int `csv:"theme_swaps"`
	OverBudget   int `csv:"over_budget"`

	// Frame time distribution in milliseconds
	FrameMeanMS float64 `csv:"frame_mean_ms"`
	FrameStdMS  float64 `csv:"frame_std_ms"`
	FrameP50MS  float64 `csv:"frame_p50_ms"`
	FrameP95MS  float64 `csv:"frame_p95_ms"`
	FrameMaxMS  float64 `csv:"frame_max_ms"`
}

// FrameTimeStats holds the distribution of a set of frame times.
type FrameTimeStats struct {
	Mean, Std, P50, P95, Max float64
}

// ComputeFrameStats calculates mean, standard deviation and quantiles of
// frame times. Returns zeros for an empty slice.
func ComputeFrameStats(values []float64) FrameTimeStats {
	if len(values) == 0 {
		return FrameTimeStats{}
	}

	// Sort a copy for quantiles
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return FrameTimeStats{
		Mean: mean,
		Std:  std,
		P50:  stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:  sorted[len(sorted)-1],
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartFrame),
		slog.Int64("window_end", s.WindowEndFrame),
		slog.String("pattern", s.Pattern),
		slog.String("theme", s.Theme),
		slog.Int("complexity", s.Complexity),
		slog.Int("frames", s.Frames),
		slog.Int("failures", s.Failures),
		slog.Int("skipped", s.Skipped),
		slog.Int("stalls", s.Stalls),
		slog.Int("resizes", s.Resizes),
		slog.Int("over_budget", s.OverBudget),
		slog.Float64("frame_mean_ms", s.FrameMeanMS),
		slog.Float64("frame_std_ms", s.FrameStdMS),
		slog.Float64("frame_p50_ms", s.FrameP50MS),
		slog.Float64("frame_p95_ms", s.FrameP95MS),
		slog.Float64("frame_max_ms", s.FrameMaxMS),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
