package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSlowdown   BookmarkType = "slowdown"
	BookmarkStall      BookmarkType = "stall"
	BookmarkRecovered  BookmarkType = "recovered"
	BookmarkSteadyRate BookmarkType = "steady_rate"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Frame       int64        `csv:"frame"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in the frame stream.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	troubled           bool // last window had failures or a stall
	steadyWindowsCount int  // consecutive windows with steady frame time
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady rate detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// Slowdown: p95 frame time > 2x rolling average
	if b := bd.checkSlowdown(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Stall entered during the window
	if stats.Stalls > 0 {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkStall,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Driver stalled after %d failures in window", stats.Failures),
		})
	}

	// Recovered: clean window after a troubled one
	troubled := stats.Failures > 0 || stats.Stalls > 0
	if bd.troubled && !troubled && stats.Frames > 0 {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkRecovered,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Rendered %d clean frames after failures", stats.Frames),
		})
	}
	bd.troubled = troubled

	// Steady rate: low variance of mean frame time over 5 windows
	bd.addToHistory(stats)
	if b := bd.checkSteadyRate(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkSlowdown(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.Frames == 0 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.FrameP95MS
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.FrameP95MS > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkSlowdown,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("p95 frame time %.2fms is %.1fx average (%.2fms) on %s", stats.FrameP95MS, stats.FrameP95MS/avg, avg, stats.Pattern),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSteadyRate(stats WindowStats) *Bookmark {
	if stats.Frames == 0 || stats.Failures > 0 {
		bd.steadyWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Order within the ring does not matter for mean and variance
	recent := history
	if !bd.historyFull {
		recent = history[len(history)-4:]
	}
	var sum float64
	for _, h := range recent {
		sum += h.FrameMeanMS
	}
	mean := sum / float64(len(recent))

	var variance float64
	for _, h := range recent {
		d := h.FrameMeanMS - mean
		variance += d * d
	}
	variance /= float64(len(recent))

	// CV^2 < 0.01 means CV < 0.1
	if mean > 0 && variance/(mean*mean) < 0.01 {
		bd.steadyWindowsCount++
	} else {
		bd.steadyWindowsCount = 0
	}

	if bd.steadyWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSteadyRate,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Steady %.2fms frames on %s over 5+ windows", mean, stats.Pattern),
		}
	}
	return nil
}
