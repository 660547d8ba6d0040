package chart

import (
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

type OpKind uint8

const (
	MoveTo OpKind = iota
	LineTo
	Close
)

// PathOp is one drawing command. Pt is unused by Close.
type PathOp struct {
	Kind OpKind
	Pt   Point
}

// Path is a sequence of drawing commands in pixel space.
type Path []PathOp

func (p Path) Empty() bool {
	return len(p) == 0
}

func (p *Path) moveTo(pt Point) {
	*p = append(*p, PathOp{Kind: MoveTo, Pt: pt})
}

func (p *Path) lineTo(pt Point) {
	*p = append(*p, PathOp{Kind: LineTo, Pt: pt})
}

func (p *Path) close() {
	*p = append(*p, PathOp{Kind: Close})
}

// Sparkline returns the closed area under the series, mapped into the plot
// area of frame. The area starts on the baseline below the first point, runs
// through every point in order and returns to the baseline below the last
// one. Points whose mapped position is not finite are skipped and the area
// continues with the next drawable point.
func Sparkline(points []timeseries.DataPoint, frame Frame) Path {
	if len(points) == 0 || frame.Empty() {
		return nil
	}
	bounds := timeseries.NewTimeRange(points[0].Timestamp, points[len(points)-1].Timestamp)
	lo, hi, _ := timeseries.ValueExtent(points)
	x, y := frame.scales(bounds, lo, hi)
	baseline := frame.Plot().Max.Y

	var path Path
	var last Point
	for _, p := range points {
		pt := Pt(x.ToPixel(p.Timestamp), y.ToPixel(p.Value))
		if !pt.finite() {
			continue
		}
		if path.Empty() {
			path.moveTo(Pt(pt.X, baseline))
		}
		path.lineTo(pt)
		last = pt
	}
	if path.Empty() {
		return nil
	}
	path.lineTo(Pt(last.X, baseline))
	path.close()
	return path
}

// Polyline returns an open path through pts, skipping non-finite positions.
func Polyline(pts []Point) Path {
	var path Path
	for _, pt := range pts {
		if !pt.finite() {
			continue
		}
		if path.Empty() {
			path.moveTo(pt)
			continue
		}
		path.lineTo(pt)
	}
	return path
}

// DashedRect returns the outline of r as separate dash segments, each a
// MoveTo followed by a LineTo. dash is both the dash and the gap length.
func DashedRect(r Rect, dash float64) Path {
	r = r.Canon()
	if dash <= 0 {
		dash = 4
	}
	corners := []Point{r.Min, Pt(r.Max.X, r.Min.Y), r.Max, Pt(r.Min.X, r.Max.Y), r.Min}
	var path Path
	for i := 0; i+1 < len(corners); i++ {
		from, to := corners[i], corners[i+1]
		dx, dy := to.X-from.X, to.Y-from.Y
		length := max(abs(dx), abs(dy))
		if length == 0 {
			continue
		}
		for s := 0.0; s < length; s += 2 * dash {
			e := min(s+dash, length)
			path.moveTo(Pt(from.X+dx*s/length, from.Y+dy*s/length))
			path.lineTo(Pt(from.X+dx*e/length, from.Y+dy*e/length))
		}
	}
	return path
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
