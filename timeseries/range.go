package timeseries

import "time"

// TimeRange is an inclusive span of instants with Start never after End.
type TimeRange struct {
	Start, End time.Time
}

// NewTimeRange returns the range between a and b in either order.
func NewTimeRange(a, b time.Time) TimeRange {
	if b.Before(a) {
		a, b = b, a
	}
	return TimeRange{Start: a, End: b}
}

// Contains reports whether t lies within the range, endpoints included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Clamp restricts r to bounds. A range lying entirely outside bounds
// collapses onto the nearest bound.
func (r TimeRange) Clamp(bounds TimeRange) TimeRange {
	start, end := r.Start, r.End
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	if start.After(bounds.End) {
		start = bounds.End
	}
	if end.After(bounds.End) {
		end = bounds.End
	}
	if end.Before(bounds.Start) {
		end = bounds.Start
	}
	return NewTimeRange(start, end)
}
