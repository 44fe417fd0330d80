// Package telemetry provides frame timing, rolling frame statistics,
// bookmarks for notable moments and CSV output.
package telemetry

import "time"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventFrame EventType = iota
	EventFailure
	EventSkip
	EventStall
	EventResize
	EventPatternChange
	EventThemeChange
)

func (t EventType) String() string {
	switch t {
	case EventFrame:
		return "frame"
	case EventFailure:
		return "failure"
	case EventSkip:
		return "skip"
	case EventStall:
		return "stall"
	case EventResize:
		return "resize"
	case EventPatternChange:
		return "pattern_change"
	case EventThemeChange:
		return "theme_change"
	default:
		return "unknown"
	}
}

// Event represents a single telemetry event emitted by the driver.
type Event struct {
	Type  EventType
	Frame int64

	// Optional fields depending on event type
	Duration time.Duration // frame events
	Detail   string        // pattern or theme name, error text
	Width    int           // resize events
	Height   int
}

// NewFrameEvent creates a completed frame event.
func NewFrameEvent(frame int64, d time.Duration) Event {
	return Event{Type: EventFrame, Frame: frame, Duration: d}
}

// NewFailureEvent creates a failed tick event.
func NewFailureEvent(frame int64, err error) Event {
	ev := Event{Type: EventFailure, Frame: frame}
	if err != nil {
		ev.Detail = err.Error()
	}
	return ev
}

// NewSkipEvent creates an event for a frame whose compositing was skipped
// because a resource was not ready.
func NewSkipEvent(frame int64, reason string) Event {
	return Event{Type: EventSkip, Frame: frame, Detail: reason}
}

// NewStallEvent creates a stall event.
func NewStallEvent(frame int64, failures int) Event {
	return Event{Type: EventStall, Frame: frame, Width: failures}
}

// NewResizeEvent creates a resize event.
func NewResizeEvent(frame int64, w, h int) Event {
	return Event{Type: EventResize, Frame: frame, Width: w, Height: h}
}

// NewPatternChangeEvent creates a pattern switch event.
func NewPatternChangeEvent(frame int64, pattern string) Event {
	return Event{Type: EventPatternChange, Frame: frame, Detail: pattern}
}

// NewThemeChangeEvent creates a theme switch event.
func NewThemeChangeEvent(frame int64, theme string) Event {
	return Event{Type: EventThemeChange, Frame: frame, Detail: theme}
}
