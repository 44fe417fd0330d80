package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/sigil/config"
)

func init() {
	config.MustInit("")
}

func TestComputeFrameStats(t *testing.T) {
	values := []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}
	s := ComputeFrameStats(values)

	if math.Abs(s.Mean-5.5) > 1e-9 {
		t.Errorf("mean = %v, want 5.5", s.Mean)
	}
	// Population std of 1..10
	if want := math.Sqrt(8.25); math.Abs(s.Std-want) > 1e-9 {
		t.Errorf("std = %v, want %v", s.Std, want)
	}
	if s.P50 != 5 {
		t.Errorf("p50 = %v, want 5", s.P50)
	}
	if s.P95 != 10 {
		t.Errorf("p95 = %v, want 10", s.P95)
	}
	if s.Max != 10 {
		t.Errorf("max = %v, want 10", s.Max)
	}
	if values[0] != 10 {
		t.Error("input slice should not be reordered")
	}
}

func TestComputeFrameStatsEmpty(t *testing.T) {
	if s := ComputeFrameStats(nil); s != (FrameTimeStats{}) {
		t.Errorf("empty slice should return zeros, got %+v", s)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(4, 10*time.Millisecond)

	c.Record(NewFrameEvent(1, 5*time.Millisecond))
	c.Record(NewFrameEvent(2, 15*time.Millisecond))
	c.Record(NewFailureEvent(3, nil))
	c.Record(NewSkipEvent(3, "mask"))
	c.Record(NewResizeEvent(3, 10, 10))
	c.Record(NewPatternChangeEvent(3, "mandala"))

	if c.ShouldFlush(3) {
		t.Error("window of 4 should not flush at frame 3")
	}
	if !c.ShouldFlush(4) {
		t.Fatal("window of 4 should flush at frame 4")
	}

	s := c.Flush(4, "mandala", "midnight", 12)
	if s.Frames != 2 || s.Failures != 1 || s.Skipped != 1 || s.Resizes != 1 || s.PatternSwaps != 1 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.OverBudget != 1 {
		t.Errorf("expected 1 frame over budget, got %d", s.OverBudget)
	}
	if math.Abs(s.FrameMeanMS-10) > 1e-9 {
		t.Errorf("frame mean = %v, want 10", s.FrameMeanMS)
	}
	if s.Pattern != "mandala" || s.Theme != "midnight" || s.Complexity != 12 {
		t.Errorf("selection not recorded: %+v", s)
	}

	// Counters reset
	next := c.Flush(8, "mandala", "midnight", 12)
	if next.Frames != 0 || next.Failures != 0 || next.WindowStartFrame != 4 {
		t.Errorf("expected reset window, got %+v", next)
	}
}

func TestBookmarkStallAndRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bms := bd.Check(WindowStats{WindowEndFrame: 100, Frames: 10, Failures: 3, Stalls: 1})
	if !hasBookmark(bms, BookmarkStall) {
		t.Error("expected stall bookmark")
	}

	bms = bd.Check(WindowStats{WindowEndFrame: 200, Frames: 50})
	if !hasBookmark(bms, BookmarkRecovered) {
		t.Error("expected recovered bookmark after clean window")
	}

	bms = bd.Check(WindowStats{WindowEndFrame: 300, Frames: 50})
	if hasBookmark(bms, BookmarkRecovered) {
		t.Error("recovered should fire once")
	}
}

func TestBookmarkSlowdown(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndFrame: int64(i * 100), Frames: 100, FrameMeanMS: 4, FrameP95MS: 5})
	}
	bms := bd.Check(WindowStats{WindowEndFrame: 600, Frames: 100, FrameMeanMS: 9, FrameP95MS: 14, Pattern: "gentle"})
	if !hasBookmark(bms, BookmarkSlowdown) {
		t.Error("expected slowdown bookmark")
	}
}

func TestBookmarkSteadyRateOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)
	count := 0
	for i := 0; i < 20; i++ {
		bms := bd.Check(WindowStats{WindowEndFrame: int64(i * 100), Frames: 100, FrameMeanMS: 4, FrameP95MS: 5})
		if hasBookmark(bms, BookmarkSteadyRate) {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected steady_rate exactly once, got %d", count)
	}
}

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestOutputManager(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 2; i++ {
		if err := om.WriteWindow(WindowStats{WindowEndFrame: int64(i * 10), Pattern: "gentle", Frames: 10}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WritePerf(PerfStats{PhasePct: map[string]float64{}}, 20); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkStall, Frame: 20}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(config.Cfg()); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,pattern") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
	if got := om.FramePath(7); got != filepath.Join(dir, "frame_00007.png") {
		t.Errorf("FramePath = %q", got)
	}
}

func TestNilOutputManager(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected disabled manager, got %v %v", om, err)
	}
	if err := om.WriteWindow(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}
