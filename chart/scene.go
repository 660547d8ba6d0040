package chart

import (
	"image/color"
	"slices"
	"time"

	"git.sr.ht/~whereswaldon/labelscope/scale"
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

const (
	NoDatasetText = "No dataset selected"
	NoDataText    = "No data points in this dataset"
)

var (
	HighlightColor = color.NRGBA{R: 0xa4, G: 0x63, B: 0x3a, A: 0xff}
	BaseColor      = color.NRGBA{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff}
)

const (
	markerRadius         = 3
	selectedMarkerRadius = 5
	unselectedAlpha      = 0x99
	valueTickTarget      = 5
	marqueeDash          = 4
)

// Line is a straight segment.
type Line struct {
	From, To Point
}

// Tick is an axis tick at pixel position Pos along its axis.
type Tick struct {
	Pos   float64
	Label string
}

// Marker is the dot drawn for one data point.
type Marker struct {
	ID       timeseries.PointID
	Center   Point
	Radius   float64
	Color    color.NRGBA
	Selected bool
}

// Scene is the display list of the main chart. When Placeholder is set the
// chart has nothing to plot and the placeholder text is shown instead.
type Scene struct {
	Placeholder string
	Plot        Rect
	Grid        []Line
	Axes        []Line
	XTicks      []Tick
	YTicks      []Tick
	Series      Path
	Markers     []Marker
	Marquee     Path
}

// Empty reports whether the scene draws nothing at all.
func (s Scene) Empty() bool {
	return s.Placeholder == "" && len(s.Axes) == 0
}

// Overview is the display list of the overview strip.
type Overview struct {
	Plot Rect
	Area Path
	// Window is the brushed part of the overview, if any.
	Window *Rect
}

// visible returns the time range and points the main chart shows: the
// brushed window, narrowed to the filtered labels.
func (v View) visible() (timeseries.TimeRange, []timeseries.DataPoint, bool) {
	if v.Dataset == nil {
		return timeseries.TimeRange{}, nil, false
	}
	bounds, ok := v.Dataset.Bounds()
	if !ok {
		return timeseries.TimeRange{}, nil, false
	}
	if v.Brush.Active != nil {
		bounds = *v.Brush.Active
	}
	points := v.Dataset.Filter(v.Brush.Active)
	if len(v.Filter) > 0 {
		points = slices.DeleteFunc(slices.Clone(points), func(p timeseries.DataPoint) bool {
			return !slices.ContainsFunc(v.Annotations[p.ID], v.Filtering)
		})
	}
	return bounds, points, true
}

// mainScales returns the axis maps of the main chart. The value domain
// follows the points currently visible.
func (v View) mainScales(frame Frame) (scale.Time, scale.Linear, bool) {
	span, points, ok := v.visible()
	if !ok {
		return scale.Time{}, scale.Linear{}, false
	}
	lo, hi, ok := timeseries.ValueExtent(points)
	if !ok {
		lo, hi, _ = timeseries.ValueExtent(v.Dataset.Points)
	}
	x, y := frame.scales(span, lo, hi)
	return x, y, true
}

// BuildScene lays out the main chart for v in frame. It is a pure function:
// equal inputs yield equal scenes.
func BuildScene(v View, frame Frame) Scene {
	if frame.Empty() {
		return Scene{}
	}
	plot := frame.Plot()
	switch {
	case v.Dataset == nil:
		return Scene{Placeholder: NoDatasetText, Plot: plot}
	case v.Dataset.Empty():
		return Scene{Placeholder: NoDataText, Plot: plot}
	}
	span, points, _ := v.visible()
	xs, ys, _ := v.mainScales(frame)
	s := Scene{
		Plot: plot,
		Axes: []Line{
			{From: Pt(plot.Min.X, plot.Max.Y), To: plot.Max},
			{From: plot.Min, To: Pt(plot.Min.X, plot.Max.Y)},
		},
	}

	layout := scale.TimeLayout(span.Start, span.End)
	for _, t := range scale.TimeTicks(span.Start, span.End, scale.TickCount(span.Start, span.End)) {
		x := xs.ToPixel(t)
		s.XTicks = append(s.XTicks, Tick{Pos: x, Label: t.Format(layout)})
		s.Grid = append(s.Grid, Line{From: Pt(x, plot.Min.Y), To: Pt(x, plot.Max.Y)})
	}
	values := scale.ValueTicks(ys.D0, ys.D1, valueTickTarget)
	step := 1.0
	if len(values) > 1 {
		step = values[1] - values[0]
	}
	for _, val := range values {
		y := ys.ToPixel(val)
		s.YTicks = append(s.YTicks, Tick{Pos: y, Label: scale.FormatValue(val, step)})
		s.Grid = append(s.Grid, Line{From: Pt(plot.Min.X, y), To: Pt(plot.Max.X, y)})
	}

	colors := v.labelColors()
	pts := make([]Point, len(points))
	s.Markers = make([]Marker, 0, len(points))
	for i, p := range points {
		pts[i] = Pt(xs.ToPixel(p.Timestamp), ys.ToPixel(p.Value))
		m := Marker{ID: p.ID, Center: pts[i], Radius: markerRadius, Color: BaseColor}
		if labels := v.Annotations[p.ID]; len(labels) > 0 {
			if c, ok := colors[labels[0]]; ok {
				m.Color = c
			}
		}
		if v.Selection.Has(p.ID) {
			m.Selected = true
			m.Radius = selectedMarkerRadius
			m.Color = HighlightColor
		} else {
			m.Color.A = unselectedAlpha
		}
		s.Markers = append(s.Markers, m)
	}
	s.Series = Polyline(pts)

	if r, ok := v.Marquee.Rect(); ok {
		s.Marquee = DashedRect(r, marqueeDash)
	}
	return s
}

// BuildOverview lays out the overview strip: the sparkline of the whole
// dataset and the brushed window over it.
func BuildOverview(v View, frame Frame) Overview {
	if frame.Empty() || v.Dataset == nil || v.Dataset.Empty() {
		return Overview{}
	}
	o := Overview{
		Plot: frame.Plot(),
		Area: Sparkline(v.Dataset.Points, frame),
	}
	if v.Brush.Active != nil {
		x := v.overviewScale(frame)
		o.Window = &Rect{
			Min: Pt(x.ToPixel(v.Brush.Active.Start), o.Plot.Min.Y),
			Max: Pt(x.ToPixel(v.Brush.Active.End), o.Plot.Max.Y),
		}
	}
	return o
}

func (v View) overviewScale(frame Frame) scale.Time {
	bounds, _ := v.Dataset.Bounds()
	plot := frame.Plot()
	return scale.NewTime(bounds.Start, bounds.End, plot.Min.X, plot.Max.X)
}

func (v View) labelColors() map[string]color.NRGBA {
	colors := make(map[string]color.NRGBA, len(v.Labels))
	for _, l := range v.Labels {
		colors[l.ID] = l.Color
	}
	return colors
}

// FormatInstant renders a timestamp the way the hover card shows it.
func FormatInstant(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}
