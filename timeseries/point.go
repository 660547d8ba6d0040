// Package timeseries holds the data model shared by the chart and the backend:
// data points with stable identities, time ranges, labels and datasets.
package timeseries

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// PointID identifies one data point within a dataset. It is derived from the
// point's timestamp plus its position among points sharing that timestamp,
// so duplicate timestamps never collide.
type PointID string

// MakeID returns the identity of the seq-th point (counting from zero) at
// timestamp ts.
func MakeID(ts time.Time, seq int) PointID {
	return PointID(ts.UTC().Format(time.RFC3339Nano) + "#" + strconv.Itoa(seq))
}

// DataPoint is a single loaded observation. Points are immutable once loaded.
type DataPoint struct {
	ID        PointID
	Timestamp time.Time
	Value     float64
}

// RawPoint is an unparsed observation as it arrives from a file.
type RawPoint struct {
	Timestamp string
	Value     string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 style timestamp or an integer Unix
// epoch. Epoch values are interpreted as seconds, milliseconds, microseconds
// or nanoseconds depending on their magnitude. Timestamps without a zone are
// taken to be UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		abs := epoch
		if abs < 0 {
			abs = -abs
		}
		switch {
		case abs < 1e11:
			return time.Unix(epoch, 0).UTC(), true
		case abs < 1e14:
			return time.UnixMilli(epoch).UTC(), true
		case abs < 1e17:
			return time.UnixMicro(epoch).UTC(), true
		default:
			return time.Unix(0, epoch).UTC(), true
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseValue parses a finite floating point value.
func ParseValue(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Load parses raw observations into points ready for charting. Rows with an
// unparseable timestamp or a missing, non-numeric or non-finite value are
// dropped, and the number dropped is returned alongside the points.
func Load(raw []RawPoint) (points []DataPoint, dropped int) {
	points = make([]DataPoint, 0, len(raw))
	for _, r := range raw {
		ts, ok := ParseTimestamp(r.Timestamp)
		if !ok {
			dropped++
			continue
		}
		v, ok := ParseValue(r.Value)
		if !ok {
			dropped++
			continue
		}
		points = append(points, DataPoint{Timestamp: ts, Value: v})
	}
	before := len(points)
	points = Index(points)
	return points, dropped + before - len(points)
}

// Index prepares already-parsed points for charting: non-finite values are
// removed, the rest are stably sorted by timestamp and every point is given
// its identity. The input slice is not modified.
func Index(points []DataPoint) []DataPoint {
	out := make([]DataPoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b DataPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	seq := 0
	for i := range out {
		if i > 0 && out[i].Timestamp.Equal(out[i-1].Timestamp) {
			seq++
		} else {
			seq = 0
		}
		out[i].ID = MakeID(out[i].Timestamp, seq)
	}
	return out
}
