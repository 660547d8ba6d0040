package main

import (
	"fmt"
	"image"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"

	"git.sr.ht/~whereswaldon/labelscope/chart"
)

// PopoverView is the label picker opened by a finished selection.
type PopoverView struct {
	ctrl      *chart.Controller
	checks    map[string]*widget.Bool
	applyBtn  widget.Clickable
	removeBtn widget.Clickable
	clearBtn  widget.Clickable
	cancelBtn widget.Clickable
}

func (p *PopoverView) check(id string) *widget.Bool {
	if p.checks == nil {
		p.checks = make(map[string]*widget.Bool)
	}
	b, ok := p.checks[id]
	if !ok {
		b = new(widget.Bool)
		p.checks[id] = b
	}
	return b
}

func (p *PopoverView) Update(gtx C) {
	view := p.ctrl.View()
	if !view.Popover.Open {
		return
	}
	for _, l := range view.Labels {
		b := p.check(l.ID)
		b.Value = view.Popover.Has(l.ID)
		if b.Update(gtx) {
			p.ctrl.ToggleLabel(l.ID)
		}
	}
	if p.cancelBtn.Clicked(gtx) {
		p.ctrl.CancelPopover()
	}
	if p.applyBtn.Clicked(gtx) && p.ctrl.View().Popover.CanApply() {
		p.ctrl.Apply()
	}
	if p.removeBtn.Clicked(gtx) && p.ctrl.View().Popover.CanSubmit(chart.OpRemove) {
		p.ctrl.RemoveLabels()
	}
	if p.clearBtn.Clicked(gtx) && p.ctrl.View().Popover.CanSubmit(chart.OpClear) {
		p.ctrl.ClearLabels()
	}
}

// Layout draws the picker at its anchor, shifted to stay inside the
// constraints. It takes no space of its own.
func (p *PopoverView) Layout(gtx C, th *material.Theme) D {
	p.Update(gtx)
	view := p.ctrl.View()
	if !view.Popover.Open {
		return D{}
	}
	bounds := gtx.Constraints.Max
	gtx.Constraints.Min = image.Point{}
	gtx.Constraints.Max.X = min(bounds.X, gtx.Dp(280))
	dims, call := rec(gtx, func(gtx C) D {
		return component.Surface(th).Layout(gtx, func(gtx C) D {
			return layout.UniformInset(12).Layout(gtx, func(gtx C) D {
				return p.layoutBody(gtx, th, view)
			})
		})
	})
	pos := ipt(view.Popover.Anchor)
	pos.X = max(0, min(pos.X, bounds.X-dims.Size.X))
	pos.Y = max(0, min(pos.Y, bounds.Y-dims.Size.Y))
	defer op.Offset(pos).Push(gtx.Ops).Pop()
	call.Add(gtx.Ops)
	return D{}
}

func (p *PopoverView) layoutBody(gtx C, th *material.Theme, view chart.View) D {
	children := []layout.FlexChild{
		layout.Rigid(material.Subtitle2(th, fmt.Sprintf("Label %d points", view.Selection.Len())).Layout),
		layout.Rigid(layout.Spacer{Height: 4}.Layout),
	}
	for _, l := range view.Labels {
		l := l
		children = append(children, layout.Rigid(func(gtx C) D {
			cb := material.CheckBox(th, p.check(l.ID), l.Name)
			cb.IconColor = l.Color
			return cb.Layout(gtx)
		}))
	}
	children = append(children,
		layout.Rigid(layout.Spacer{Height: 8}.Layout),
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Spacing: layout.SpaceStart}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					return material.Button(th, &p.clearBtn, "No labels").Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx C) D {
					if !view.Popover.CanSubmit(chart.OpRemove) {
						gtx = gtx.Disabled()
					}
					return material.Button(th, &p.removeBtn, "Remove").Layout(gtx)
				}),
			)
		}),
		layout.Rigid(layout.Spacer{Height: 8}.Layout),
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Spacing: layout.SpaceStart}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					return material.Button(th, &p.cancelBtn, "Cancel").Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx C) D {
					if !view.Popover.CanApply() {
						gtx = gtx.Disabled()
					}
					return material.Button(th, &p.applyBtn, "Apply").Layout(gtx)
				}),
			)
		}),
	)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
}
