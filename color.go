package main

import (
	"image"
	"image/color"

	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"

	"git.sr.ht/~whereswaldon/labelscope/chart"
)

var (
	gridColor    = color.NRGBA{A: 30}
	axisColor    = color.NRGBA{A: 180}
	seriesColor  = chart.BaseColor
	marqueeColor = color.NRGBA{A: 200}
	cardColor    = color.NRGBA{R: 255, G: 255, B: 255, A: 220}
	noticeColor  = color.NRGBA{R: 0xf4, G: 0xe8, B: 0xc1, A: 0xff}
	errorColor   = color.NRGBA{R: 0xb0, G: 0x20, B: 0x20, A: 0xff}
)

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}

func fpt(p chart.Point) f32.Point {
	return f32.Pt(float32(p.X), float32(p.Y))
}

func ipt(p chart.Point) image.Point {
	return image.Pt(int(p.X+.5), int(p.Y+.5))
}

func irect(r chart.Rect) image.Rectangle {
	return image.Rectangle{Min: ipt(r.Min), Max: ipt(r.Max)}
}

// pathSpec converts a chart path into a Gio path.
func pathSpec(ops *op.Ops, p chart.Path) clip.PathSpec {
	var path clip.Path
	path.Begin(ops)
	for _, o := range p {
		switch o.Kind {
		case chart.MoveTo:
			path.MoveTo(fpt(o.Pt))
		case chart.LineTo:
			path.LineTo(fpt(o.Pt))
		case chart.Close:
			path.Close()
		}
	}
	return path.End()
}

func strokePath(ops *op.Ops, p chart.Path, width float32, col color.NRGBA) {
	if p.Empty() {
		return
	}
	paint.FillShape(ops, col, clip.Stroke{Path: pathSpec(ops, p), Width: width}.Op())
}

func fillPath(ops *op.Ops, p chart.Path, col color.NRGBA) {
	if p.Empty() {
		return
	}
	paint.FillShape(ops, col, clip.Outline{Path: pathSpec(ops, p)}.Op())
}

func strokeLines(ops *op.Ops, lines []chart.Line, width float32, col color.NRGBA) {
	if len(lines) == 0 {
		return
	}
	var p chart.Path
	for _, l := range lines {
		p = append(p, chart.PathOp{Kind: chart.MoveTo, Pt: l.From}, chart.PathOp{Kind: chart.LineTo, Pt: l.To})
	}
	strokePath(ops, p, width, col)
}

func fillCircle(ops *op.Ops, center chart.Point, radius float64, col color.NRGBA) {
	r := chart.Pt(radius, radius)
	paint.FillShape(ops, col, clip.Ellipse{
		Min: ipt(chart.Pt(center.X-r.X, center.Y-r.Y)),
		Max: ipt(chart.Pt(center.X+r.X, center.Y+r.Y)),
	}.Op(ops))
}

// frameFor describes an area of size px with margins given in Dp.
func frameFor(m unit.Metric, size image.Point, margins chart.Margins) chart.Frame {
	dp := func(v float64) float64 {
		return float64(m.Dp(unit.Dp(v)))
	}
	return chart.Frame{
		Width:  size.X,
		Height: size.Y,
		Margins: chart.Margins{
			Top:    dp(margins.Top),
			Right:  dp(margins.Right),
			Bottom: dp(margins.Bottom),
			Left:   dp(margins.Left),
		},
	}
}
