package chart

import (
	"git.sr.ht/~whereswaldon/labelscope/scale"
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

type MarqueeState uint8

const (
	Idle MarqueeState = iota
	Dragging
)

func (s MarqueeState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Marquee is the rectangular selection gesture over the main chart. The
// rectangle exists only while Dragging.
type Marquee struct {
	State   MarqueeState
	Anchor  Point
	Current Point
}

// Rect returns the rectangle being dragged.
func (m Marquee) Rect() (Rect, bool) {
	if m.State != Dragging {
		return Rect{}, false
	}
	return Rect{Min: m.Anchor, Max: m.Current}.Canon(), true
}

type PointerKind uint8

const (
	Press PointerKind = iota
	Move
	Release
	// Leave is the pointer exiting the chart or the gesture being
	// cancelled.
	Leave
)

type PointerEvent struct {
	Kind PointerKind
	Pos  Point
}

// SelectContext is what a marquee transition needs to know about the chart.
type SelectContext struct {
	Plot Rect
	// Scale maps the visible time range onto the plot area.
	Scale scale.Time
	// Points are the points currently displayed, sorted by timestamp.
	Points  []timeseries.DataPoint
	Enabled bool
}

// SelectOutcome reports what a marquee transition means for the selection.
type SelectOutcome struct {
	// Changed is set when Selection replaces the current selection.
	Changed   bool
	Selection Selection
	// OpenPopover asks for the label popover at Anchor.
	OpenPopover bool
	Anchor      Point
}

// Handle returns the marquee after ev along with its effect on the selection.
// Only the horizontal extent of the rectangle selects points: a point whose
// timestamp maps inside the rectangle's left and right edges is selected
// whatever its value.
func (m Marquee) Handle(ev PointerEvent, ctx SelectContext) (Marquee, SelectOutcome) {
	if !ctx.Enabled {
		return Marquee{}, SelectOutcome{}
	}
	switch m.State {
	case Idle:
		if ev.Kind != Press || !ctx.Plot.Contains(ev.Pos) {
			return m, SelectOutcome{}
		}
		return Marquee{State: Dragging, Anchor: ev.Pos, Current: ev.Pos}, SelectOutcome{Changed: true}
	case Dragging:
		pos := clampPoint(ev.Pos, ctx.Plot)
		switch ev.Kind {
		case Press, Move:
			m.Current = pos
			return m, SelectOutcome{}
		case Release, Leave:
			r := Rect{Min: m.Anchor, Max: pos}.Canon()
			span := timeseries.NewTimeRange(ctx.Scale.ToDomain(r.Min.X), ctx.Scale.ToDomain(r.Max.X))
			sel := NewSelection(timeseries.Window(ctx.Points, span))
			return Marquee{}, SelectOutcome{
				Changed:     true,
				Selection:   sel,
				OpenPopover: !sel.Empty(),
				Anchor:      pos,
			}
		}
	}
	return m, SelectOutcome{}
}

func clampPoint(p Point, r Rect) Point {
	r = r.Canon()
	return Pt(clampTo(p.X, r.Min.X, r.Max.X), clampTo(p.Y, r.Min.Y, r.Max.Y))
}
