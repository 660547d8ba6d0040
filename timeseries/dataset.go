package timeseries

import (
	"fmt"
	"math"
	"sort"
)

// Status is the user-maintained progress marker of a dataset. It has no
// effect on charting.
type Status uint8

const (
	StatusReady Status = iota
	StatusInProgress
	StatusComplete
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusReady, StatusInProgress, StatusComplete}

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusInProgress:
		return "in-progress"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if st.String() == s {
			return st, nil
		}
	}
	return StatusReady, fmt.Errorf("unknown dataset status %q", s)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Dataset is one loaded time series. Points are sorted by timestamp and
// carry their identities (see Index).
type Dataset struct {
	ID     string
	Name   string
	Status Status
	Points []DataPoint
}

func (d Dataset) Empty() bool {
	return len(d.Points) == 0
}

// Bounds returns the span from the earliest to the latest point. ok is false
// for an empty dataset.
func (d Dataset) Bounds() (bounds TimeRange, ok bool) {
	if len(d.Points) == 0 {
		return TimeRange{}, false
	}
	return TimeRange{Start: d.Points[0].Timestamp, End: d.Points[len(d.Points)-1].Timestamp}, true
}

// Filter returns the points inside r, or every point when r is nil. The
// result shares storage with the dataset.
func (d Dataset) Filter(r *TimeRange) []DataPoint {
	if r == nil {
		return d.Points
	}
	return Window(d.Points, *r)
}

// Lookup finds a point by identity.
func (d Dataset) Lookup(id PointID) (DataPoint, bool) {
	for _, p := range d.Points {
		if p.ID == id {
			return p, true
		}
	}
	return DataPoint{}, false
}

// Window returns the sub-slice of the sorted points whose timestamps lie in
// r, endpoints included.
func Window(points []DataPoint, r TimeRange) []DataPoint {
	lo := sort.Search(len(points), func(i int) bool {
		return !points[i].Timestamp.Before(r.Start)
	})
	hi := sort.Search(len(points), func(i int) bool {
		return points[i].Timestamp.After(r.End)
	})
	if hi < lo {
		return points[lo:lo]
	}
	return points[lo:hi]
}

// ValueExtent returns the smallest and largest finite values among points.
// ok is false when there are none.
func ValueExtent(points []DataPoint) (lo, hi float64, ok bool) {
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		if !ok {
			lo, hi, ok = p.Value, p.Value, true
			continue
		}
		lo = min(lo, p.Value)
		hi = max(hi, p.Value)
	}
	return lo, hi, ok
}
