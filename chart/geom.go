// Package chart is the interaction core of the time-series chart. Everything
// here is a pure function of its inputs: the brush, the marquee and the label
// popover are small state machines, and drawing produces display lists that
// the UI layer paints. Nothing in this package touches a window or the disk.
package chart

import (
	"math"

	"golang.org/x/exp/constraints"

	"git.sr.ht/~whereswaldon/labelscope/scale"
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

// Point is a position in pixels, with y growing downward.
type Point struct {
	X, Y float64
}

func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Rect is an axis-aligned rectangle. Min may lie to the right of or below Max
// until the rectangle is canonicalized.
type Rect struct {
	Min, Max Point
}

// Canon returns the rectangle with Min as its top-left corner.
func (r Rect) Canon() Rect {
	if r.Max.X < r.Min.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Max.Y < r.Min.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}

// Contains reports whether p lies inside the canonical form of r, edges
// included.
func (r Rect) Contains(p Point) bool {
	r = r.Canon()
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

func (r Rect) Dx() float64 {
	return r.Max.X - r.Min.X
}

func (r Rect) Dy() float64 {
	return r.Max.Y - r.Min.Y
}

// Margins reserve space around the plot area for axes and labels.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins leave room for tick labels on the left and bottom axes.
var DefaultMargins = Margins{Top: 20, Right: 20, Bottom: 30, Left: 40}

// Frame is the pixel geometry of a drawing surface.
type Frame struct {
	Width, Height int
	Margins       Margins
}

// Plot returns the area inside the margins.
func (f Frame) Plot() Rect {
	return Rect{
		Min: Pt(f.Margins.Left, f.Margins.Top),
		Max: Pt(float64(f.Width)-f.Margins.Right, float64(f.Height)-f.Margins.Bottom),
	}
}

// Empty reports whether nothing can be drawn in the frame, either because the
// surface has no area or because the margins consume all of it.
func (f Frame) Empty() bool {
	if f.Width <= 0 || f.Height <= 0 {
		return true
	}
	plot := f.Plot()
	return plot.Dx() <= 0 || plot.Dy() <= 0
}

// scales builds the axis maps for the plot area of f.
func (f Frame) scales(bounds timeseries.TimeRange, lo, hi float64) (scale.Time, scale.Linear) {
	plot := f.Plot()
	x := scale.NewTime(bounds.Start, bounds.End, plot.Min.X, plot.Max.X)
	y := scale.NewLinear(lo, hi, plot.Max.Y, plot.Min.Y)
	return x, y
}

// clampTo restricts v to [lo,hi].
func clampTo[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
