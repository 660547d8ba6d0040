package main

import (
	"image"
	"strconv"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget/material"

	"git.sr.ht/~whereswaldon/labelscope/chart"
)

// ChartView draws the main chart of a controller's view and turns pointer
// input over it into selection gestures.
type ChartView struct {
	ctrl *chart.Controller

	isHovered bool
	pos       f32.Point
	frame     chart.Frame
	popover   PopoverView
}

func NewChartView(ctrl *chart.Controller) *ChartView {
	return &ChartView{
		ctrl:    ctrl,
		popover: PopoverView{ctrl: ctrl},
	}
}

func rec(gtx C, w layout.Widget) (D, op.CallOp) {
	macro := op.Record(gtx.Ops)
	dims := w(gtx)
	call := macro.Stop()
	return dims, call
}

func pointerEvent(kind chart.PointerKind, pos f32.Point) chart.PointerEvent {
	return chart.PointerEvent{Kind: kind, Pos: chart.Pt(float64(pos.X), float64(pos.Y))}
}

func (c *ChartView) Update(gtx C) {
	c.frame = frameFor(gtx.Metric, gtx.Constraints.Max, chart.DefaultMargins)
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: c,
			Kinds:  pointer.Press | pointer.Drag | pointer.Release | pointer.Enter | pointer.Leave | pointer.Move | pointer.Cancel,
		})
		if !ok {
			break
		}
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch e.Kind {
		case pointer.Press:
			if e.Buttons.Contain(pointer.ButtonPrimary) {
				c.ctrl.MainPointer(pointerEvent(chart.Press, e.Position), c.frame)
			}
		case pointer.Drag:
			c.pos = e.Position
			c.ctrl.MainPointer(pointerEvent(chart.Move, e.Position), c.frame)
		case pointer.Release:
			c.ctrl.MainPointer(pointerEvent(chart.Release, e.Position), c.frame)
		case pointer.Enter, pointer.Move:
			c.isHovered = true
			c.pos = e.Position
		case pointer.Leave, pointer.Cancel:
			c.isHovered = false
			c.ctrl.MainPointer(pointerEvent(chart.Leave, e.Position), c.frame)
		}
	}
}

func (c *ChartView) Layout(gtx C, th *material.Theme) D {
	c.Update(gtx)
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx C) D {
			return c.layoutPlot(gtx, th)
		}),
		layout.Stacked(func(gtx C) D {
			return c.popover.Layout(gtx, th)
		}),
	)
}

func (c *ChartView) layoutPlot(gtx C, th *material.Theme) D {
	size := gtx.Constraints.Max
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, c)

	scene := c.ctrl.Scene(c.frame)
	if scene.Empty() {
		return D{Size: size}
	}
	if scene.Placeholder != "" {
		gtx.Constraints.Min = size
		return layout.Center.Layout(gtx, material.Body1(th, scene.Placeholder).Layout)
	}
	dp := gtx.Metric.PxPerDp

	strokeLines(gtx.Ops, scene.Grid, 1, gridColor)
	strokeLines(gtx.Ops, scene.Axes, dp, axisColor)
	c.layoutTicks(gtx, th, scene)
	strokePath(gtx.Ops, scene.Series, 1.5*dp, withAlpha(seriesColor, 0xa0))
	for _, m := range scene.Markers {
		fillCircle(gtx.Ops, m.Center, m.Radius*float64(dp), m.Color)
	}
	strokePath(gtx.Ops, scene.Marquee, dp, marqueeColor)

	if c.isHovered {
		if detail, ok := c.ctrl.Hover(chart.Pt(float64(c.pos.X), float64(c.pos.Y)), c.frame); ok {
			c.layoutHover(gtx, th, scene.Plot, detail)
		}
	}
	return D{Size: size}
}

func (c *ChartView) layoutTicks(gtx C, th *material.Theme, scene chart.Scene) {
	gap := gtx.Dp(4)
	gtx.Constraints.Min = image.Point{}
	for _, t := range scene.XTicks {
		label := material.Caption(th, t.Label)
		label.MaxLines = 1
		dims, call := rec(gtx, label.Layout)
		stack := op.Offset(image.Point{
			X: int(t.Pos) - dims.Size.X/2,
			Y: int(scene.Plot.Max.Y) + gap,
		}).Push(gtx.Ops)
		call.Add(gtx.Ops)
		stack.Pop()
	}
	for _, t := range scene.YTicks {
		label := material.Caption(th, t.Label)
		label.MaxLines = 1
		label.Alignment = text.End
		dims, call := rec(gtx, label.Layout)
		stack := op.Offset(image.Point{
			X: int(scene.Plot.Min.X) - gap - dims.Size.X,
			Y: int(t.Pos) - dims.Size.Y/2,
		}).Push(gtx.Ops)
		call.Add(gtx.Ops)
		stack.Pop()
	}
}

// layoutHover rings the point under the pointer and shows its details in a
// card beside it, kept inside the plot.
func (c *ChartView) layoutHover(gtx C, th *material.Theme, plot chart.Rect, detail chart.HoverDetail) {
	dp := float64(gtx.Metric.PxPerDp)
	fillCircle(gtx.Ops, detail.Center, 7*dp, withAlpha(axisColor, 60))

	children := []layout.FlexChild{
		layout.Rigid(material.Body2(th, chart.FormatInstant(detail.Point.Timestamp)).Layout),
		layout.Rigid(material.Body2(th, strconv.FormatFloat(detail.Point.Value, 'g', -1, 64)).Layout),
	}
	for _, l := range detail.Labels {
		l := l
		children = append(children, layout.Rigid(func(gtx C) D {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					size := image.Pt(gtx.Dp(8), gtx.Dp(8))
					paint.FillShape(gtx.Ops, l.Color, clip.Ellipse{Max: size}.Op(gtx.Ops))
					return D{Size: size}
				}),
				layout.Rigid(layout.Spacer{Width: 6}.Layout),
				layout.Rigid(material.Body2(th, l.Name).Layout),
			)
		}))
	}

	gtx.Constraints.Min = image.Point{}
	dims, call := rec(gtx, func(gtx C) D {
		return layout.Background{}.Layout(gtx,
			func(gtx C) D {
				paint.FillShape(gtx.Ops, cardColor, clip.Rect{Max: gtx.Constraints.Min}.Op())
				return D{Size: gtx.Constraints.Min}
			},
			func(gtx C) D {
				return layout.UniformInset(8).Layout(gtx, func(gtx C) D {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
				})
			},
		)
	})
	offset := gtx.Dp(12)
	pos := ipt(detail.Center).Add(image.Pt(offset, offset))
	if pos.X+dims.Size.X > int(plot.Max.X) {
		pos.X = int(detail.Center.X) - offset - dims.Size.X
	}
	if pos.Y+dims.Size.Y > int(plot.Max.Y) {
		pos.Y = int(detail.Center.Y) - offset - dims.Size.Y
	}
	pos.X = max(pos.X, 0)
	pos.Y = max(pos.Y, 0)
	defer op.Offset(pos).Push(gtx.Ops).Pop()
	call.Add(gtx.Ops)
}
