// Package scale maps chart data values onto pixels and plans axis ticks.
package scale

import (
	"math"
	"time"
)

// Linear is an affine map between a one-dimensional domain [D0,D1] and a
// pixel range [P0,P1]. The pixel range may be inverted (P0 > P1), which is
// how value axes grow upward on screen.
type Linear struct {
	D0, D1 float64
	P0, P1 float64
}

// NewLinear returns the map from [d0,d1] onto [p0,p1].
func NewLinear(d0, d1, p0, p1 float64) Linear {
	return Linear{D0: d0, D1: d1, P0: p0, P1: p1}
}

// ToPixel maps a domain value to a pixel position. A degenerate domain maps
// every value to the middle of the pixel range.
func (l Linear) ToPixel(v float64) float64 {
	if l.D0 == l.D1 {
		return (l.P0 + l.P1) / 2
	}
	return l.P0 + (v-l.D0)/(l.D1-l.D0)*(l.P1-l.P0)
}

// ToDomain is the inverse of ToPixel. A degenerate domain always yields D0,
// and a degenerate pixel range yields the middle of the domain.
func (l Linear) ToDomain(p float64) float64 {
	if l.D0 == l.D1 {
		return l.D0
	}
	if l.P0 == l.P1 {
		return (l.D0 + l.D1) / 2
	}
	return l.D0 + (p-l.P0)/(l.P1-l.P0)*(l.D1-l.D0)
}

// Time is a Linear map whose domain is a span of instants. Instants are
// measured in nanoseconds from the start of the domain, which keeps the
// float64 arithmetic exact for any span shorter than about a hundred days.
type Time struct {
	origin time.Time
	end    time.Time
	lin    Linear
}

// NewTime returns the map from [start,end] onto [p0,p1].
func NewTime(start, end time.Time, p0, p1 float64) Time {
	return Time{
		origin: start,
		end:    end,
		lin:    NewLinear(0, float64(end.Sub(start)), p0, p1),
	}
}

// Domain returns the instants at either end of the domain.
func (t Time) Domain() (start, end time.Time) {
	return t.origin, t.end
}

// Pixels returns the pixel range of the map.
func (t Time) Pixels() (p0, p1 float64) {
	return t.lin.P0, t.lin.P1
}

func (t Time) ToPixel(ts time.Time) float64 {
	return t.lin.ToPixel(float64(ts.Sub(t.origin)))
}

// ToDomain returns the instant at pixel p, rounded to the nearest nanosecond.
func (t Time) ToDomain(p float64) time.Time {
	ns := t.lin.ToDomain(p)
	if math.IsNaN(ns) || math.IsInf(ns, 0) {
		return t.origin
	}
	return t.origin.Add(time.Duration(math.Round(ns)))
}
