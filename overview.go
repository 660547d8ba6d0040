package main

import (
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/labelscope/chart"
)

// overviewMargins line the strip's plot up with the main chart's.
var overviewMargins = chart.Margins{
	Top:    4,
	Right:  chart.DefaultMargins.Right,
	Bottom: 4,
	Left:   chart.DefaultMargins.Left,
}

var clearIcon = func() *widget.Icon {
	ic, _ := widget.NewIcon(icons.ContentClear)
	return ic
}()

// OverviewView is the strip under the main chart showing the whole dataset.
// Dragging over it brushes the window the main chart zooms to.
type OverviewView struct {
	ctrl     *chart.Controller
	frame    chart.Frame
	clearBtn widget.Clickable
}

func (o *OverviewView) Update(gtx C) {
	if o.clearBtn.Clicked(gtx) {
		o.ctrl.ClearBrush()
	}
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: o,
			Kinds:  pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel,
		})
		if !ok {
			break
		}
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		x := float64(e.Position.X)
		switch e.Kind {
		case pointer.Press:
			if e.Buttons.Contain(pointer.ButtonPrimary) {
				o.ctrl.BrushEvent(chart.BrushPress{X: x}, o.frame)
			}
		case pointer.Drag:
			o.ctrl.BrushEvent(chart.BrushDrag{X: x}, o.frame)
		case pointer.Release, pointer.Cancel:
			o.ctrl.BrushEvent(chart.BrushRelease{X: x}, o.frame)
		}
	}
}

func (o *OverviewView) Layout(gtx C, th *material.Theme) D {
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Flexed(1, func(gtx C) D {
			return o.layoutStrip(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			if o.ctrl.View().Brush.Active == nil {
				gtx = gtx.Disabled()
			}
			btn := material.IconButton(th, &o.clearBtn, clearIcon, "Show the full range")
			btn.Size = unit.Dp(18)
			btn.Inset = layout.UniformInset(6)
			return btn.Layout(gtx)
		}),
	)
}

func (o *OverviewView) layoutStrip(gtx C) D {
	size := gtx.Constraints.Max
	o.frame = frameFor(gtx.Metric, size, overviewMargins)
	o.Update(gtx)
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, o)

	ov := o.ctrl.Overview(o.frame)
	if ov.Area.Empty() {
		return D{Size: size}
	}
	paint.FillShape(gtx.Ops, withAlpha(gridColor, 12), clip.Rect(irect(ov.Plot)).Op())
	fillPath(gtx.Ops, ov.Area, withAlpha(seriesColor, 0x60))
	if ov.Window != nil {
		w := irect(*ov.Window)
		if w.Dx() == 0 {
			w.Max.X++
		}
		paint.FillShape(gtx.Ops, withAlpha(chart.HighlightColor, 0x40), clip.Rect(w).Op())
		paint.FillShape(gtx.Ops, chart.HighlightColor, clip.Stroke{
			Path:  clip.Rect(w).Path(),
			Width: gtx.Metric.PxPerDp,
		}.Op())
	}
	return D{Size: size}
}
