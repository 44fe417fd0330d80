package animation

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (d *Driver) flushTelemetry() {
	if every := int64(d.cfg.Telemetry.LogInterval); every > 0 && d.frame%every == 0 {
		d.perf.Stats().LogStats()
	}

	if !d.collector.ShouldFlush(d.frame) {
		return
	}

	stats := d.collector.Flush(d.frame, d.variant.String(), d.theme.Name(), d.gen.Complexity(d.params.Snapshot()))
	perfStats := d.perf.Stats()

	// Call stats callback if provided
	if d.onWindow != nil {
		d.onWindow(stats)
	}

	// Write to CSV if output manager is enabled
	if d.output != nil {
		if err := d.output.WriteWindow(stats); err != nil {
			d.log.Error("failed to write frames", "error", err)
		}
		if err := d.output.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
			d.log.Error("failed to write perf", "error", err)
		}
	}

	// Check for bookmarks
	for _, bm := range d.bookmarks.Check(stats) {
		bm.LogBookmark()
		if d.output != nil {
			if err := d.output.WriteBookmark(bm); err != nil {
				d.log.Error("failed to write bookmark", "error", err)
			}
		}
	}
}
