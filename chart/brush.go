package chart

import (
	"git.sr.ht/~whereswaldon/labelscope/scale"
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

// minBrushWidth is the narrowest extent, in pixels, that a pointer gesture
// turns into a window. Anything narrower is a click and clears the brush.
const minBrushWidth = 2

type BrushMode uint8

const (
	BrushIdle BrushMode = iota
	// BrushCreating is a drag that draws a new window from Anchor.
	BrushCreating
	// BrushMoving is a drag that slides the existing window.
	BrushMoving
)

// Brush is the state of the overview window that restricts the time range of
// the main chart. A nil Active range means the whole dataset is visible.
type Brush struct {
	Mode BrushMode
	// Anchor is the pixel where the current gesture started.
	Anchor float64
	// Handles are the pixel positions of the window edges as last
	// published.
	Handles [2]float64
	Active  *timeseries.TimeRange
	// grab is the distance from the left window edge to the pointer while
	// moving.
	grab float64
}

// BrushContext is what a brush transition needs to know about the overview.
type BrushContext struct {
	// Bounds of the full dataset. Published ranges never leave them.
	Bounds timeseries.TimeRange
	// Scale maps the full dataset onto the overview plot area.
	Scale   scale.Time
	Enabled bool
}

// BrushEvent is one of BrushChange, BrushClear, BrushPress, BrushDrag or
// BrushRelease.
type BrushEvent interface {
	isBrushEvent()
}

// BrushChange sets the window to a pixel extent. The edges may be given in
// either order.
type BrushChange struct {
	X0, X1 float64
}

// BrushClear removes the window, showing the full range.
type BrushClear struct{}

type BrushPress struct {
	X float64
}

type BrushDrag struct {
	X float64
}

type BrushRelease struct {
	X float64
}

func (BrushChange) isBrushEvent()  {}
func (BrushClear) isBrushEvent()   {}
func (BrushPress) isBrushEvent()   {}
func (BrushDrag) isBrushEvent()    {}
func (BrushRelease) isBrushEvent() {}

// Apply returns the brush after ev. A disabled context leaves the brush
// untouched. Every published range is clamped to the dataset bounds.
func (b Brush) Apply(ev BrushEvent, ctx BrushContext) Brush {
	if !ctx.Enabled {
		return b
	}
	switch ev := ev.(type) {
	case BrushChange:
		return b.publish(ev.X0, ev.X1, ctx)
	case BrushClear:
		return Brush{}
	case BrushPress:
		if b.Active != nil {
			x0, x1 := ctx.Scale.ToPixel(b.Active.Start), ctx.Scale.ToPixel(b.Active.End)
			if ev.X >= x0 && ev.X <= x1 && x1-x0 >= minBrushWidth {
				b.Mode = BrushMoving
				b.Anchor = ev.X
				b.grab = ev.X - x0
				return b
			}
		}
		p0, p1 := ctx.Scale.Pixels()
		b.Mode = BrushCreating
		b.Anchor = clampTo(ev.X, min(p0, p1), max(p0, p1))
		return b
	case BrushDrag:
		return b.drag(ev.X, ctx)
	case BrushRelease:
		mode := b.Mode
		b = b.drag(ev.X, ctx)
		b.Mode = BrushIdle
		if mode == BrushCreating && abs(b.Handles[1]-b.Handles[0]) < minBrushWidth {
			return Brush{}
		}
		return b
	}
	return b
}

func (b Brush) drag(x float64, ctx BrushContext) Brush {
	switch b.Mode {
	case BrushCreating:
		return b.publish(b.Anchor, x, ctx)
	case BrushMoving:
		if b.Active == nil {
			return b
		}
		width := b.Active.Duration()
		start := ctx.Scale.ToDomain(x - b.grab)
		if latest := ctx.Bounds.End.Add(-width); start.After(latest) {
			start = latest
		}
		if start.Before(ctx.Bounds.Start) {
			start = ctx.Bounds.Start
		}
		r := timeseries.NewTimeRange(start, start.Add(width)).Clamp(ctx.Bounds)
		return b.set(r, ctx)
	}
	return b
}

// publish converts a pixel extent to a time range, clamps it and makes it the
// active range.
func (b Brush) publish(x0, x1 float64, ctx BrushContext) Brush {
	r := timeseries.NewTimeRange(ctx.Scale.ToDomain(x0), ctx.Scale.ToDomain(x1)).Clamp(ctx.Bounds)
	return b.set(r, ctx)
}

func (b Brush) set(r timeseries.TimeRange, ctx BrushContext) Brush {
	b.Active = &r
	b.Handles = [2]float64{ctx.Scale.ToPixel(r.Start), ctx.Scale.ToPixel(r.End)}
	return b
}
