package main

import (
	"image"
	"image/color"
	"slices"
	"strings"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"github.com/charmbracelet/log"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/labelscope/backend"
	"git.sr.ht/~whereswaldon/labelscope/chart"
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

var (
	editIcon   = mustIcon(icons.EditorModeEdit)
	deleteIcon = mustIcon(icons.ActionDelete)
)

type labelRow struct {
	filter    widget.Bool
	editBtn   widget.Clickable
	deleteBtn widget.Clickable
}

// LabelPanel manages the label catalog from the sidebar. Checking a label
// filters the chart to points carrying it.
type LabelPanel struct {
	ws   backend.WindowState
	ctrl *chart.Controller

	rows           map[string]*labelRow
	clearFilterBtn widget.Clickable

	// editing is the id of the label in the form, empty for a new label.
	editing   string
	name      component.TextField
	color     int
	colorBtn  widget.Clickable
	saveBtn   widget.Clickable
	cancelBtn widget.Clickable
}

func NewLabelPanel(ws backend.WindowState, ctrl *chart.Controller) *LabelPanel {
	p := &LabelPanel{
		ws:   ws,
		ctrl: ctrl,
		rows: make(map[string]*labelRow),
	}
	p.name.SingleLine = true
	p.name.Submit = true
	p.reset()
	return p
}

func (p *LabelPanel) row(id string) *labelRow {
	r, ok := p.rows[id]
	if !ok {
		r = new(labelRow)
		p.rows[id] = r
	}
	return r
}

// reset empties the form for a new label.
func (p *LabelPanel) reset() {
	p.editing = ""
	p.name.Clear()
	p.color = len(p.ctrl.View().Labels) % len(timeseries.Palette)
}

func (p *LabelPanel) edit(l timeseries.Label) {
	p.editing = l.ID
	p.name.SetText(l.Name)
	p.color = slices.Index(timeseries.Palette, l.Color)
}

// swatch is the color chosen in the form. A label whose color is not in
// the palette keeps it until another is picked.
func (p *LabelPanel) swatch() color.NRGBA {
	if p.color >= 0 {
		return timeseries.Palette[p.color]
	}
	if l, ok := p.ctrl.View().Label(p.editing); ok {
		return l.Color
	}
	return timeseries.Palette[0]
}

func (p *LabelPanel) Update(gtx C) {
	view := p.ctrl.View()
	for _, l := range view.Labels {
		l := l
		r := p.row(l.ID)
		r.filter.Value = view.Filtering(l.ID)
		if r.filter.Update(gtx) {
			p.ctrl.ToggleFilter(l.ID)
		}
		if r.editBtn.Clicked(gtx) {
			p.edit(l)
		}
		if r.deleteBtn.Clicked(gtx) {
			if p.editing == l.ID {
				p.reset()
			}
			p.ws.Jobs.Do("delete label "+l.Name, func() error {
				return p.ws.Catalog.Delete(l.ID)
			})
		}
	}
	if p.clearFilterBtn.Clicked(gtx) {
		p.ctrl.ClearFilter()
	}
	if p.colorBtn.Clicked(gtx) {
		p.color = (p.color + 1) % len(timeseries.Palette)
	}
	if p.cancelBtn.Clicked(gtx) {
		p.reset()
	}
	submitted := false
	for {
		ev, ok := p.name.Editor.Update(gtx)
		if !ok {
			break
		}
		if _, ok := ev.(widget.SubmitEvent); ok {
			submitted = true
		}
	}
	if p.saveBtn.Clicked(gtx) || submitted {
		p.save()
	}
}

func (p *LabelPanel) save() {
	name := strings.TrimSpace(p.name.Text())
	if name == "" {
		return
	}
	id, col := p.editing, p.swatch()
	if id == "" {
		p.ws.Jobs.Do("create label "+name, func() error {
			_, err := p.ws.Catalog.Create(name, col)
			return err
		})
	} else {
		p.ws.Jobs.Do("update label "+name, func() error {
			return p.ws.Catalog.Update(id, name, col)
		})
	}
	log.Debug("saving label", "id", id, "name", name)
	p.reset()
}

func (p *LabelPanel) Layout(gtx C, th *material.Theme) D {
	p.Update(gtx)
	view := p.ctrl.View()
	children := []layout.FlexChild{
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Flexed(1, material.H6(th, "Labels").Layout),
				layout.Rigid(func(gtx C) D {
					if len(view.Filter) == 0 {
						gtx = gtx.Disabled()
					}
					return material.Button(th, &p.clearFilterBtn, "Clear filters").Layout(gtx)
				}),
			)
		}),
	}
	for _, l := range view.Labels {
		l := l
		children = append(children, layout.Rigid(func(gtx C) D {
			return p.layoutRow(gtx, th, l)
		}))
	}
	children = append(children,
		layout.Rigid(layout.Spacer{Height: 4}.Layout),
		layout.Rigid(func(gtx C) D {
			return p.layoutForm(gtx, th)
		}),
	)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
}

func (p *LabelPanel) layoutRow(gtx C, th *material.Theme, l timeseries.Label) D {
	r := p.row(l.ID)
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Flexed(1, func(gtx C) D {
			cb := material.CheckBox(th, &r.filter, l.Name)
			cb.IconColor = l.Color
			return cb.Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			btn := material.IconButton(th, &r.editBtn, editIcon, "Edit "+l.Name)
			btn.Size = unit.Dp(16)
			btn.Inset = layout.UniformInset(4)
			return btn.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: 4}.Layout),
		layout.Rigid(func(gtx C) D {
			btn := material.IconButton(th, &r.deleteBtn, deleteIcon, "Delete "+l.Name)
			btn.Size = unit.Dp(16)
			btn.Inset = layout.UniformInset(4)
			btn.Background = errorColor
			return btn.Layout(gtx)
		}),
	)
}

func (p *LabelPanel) layoutForm(gtx C, th *material.Theme) D {
	hint, action := "New label", "Add"
	if p.editing != "" {
		hint, action = "Rename label", "Save"
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return p.name.Layout(gtx, th, hint)
		}),
		layout.Rigid(layout.Spacer{Height: 4}.Layout),
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					return p.colorBtn.Layout(gtx, func(gtx C) D {
						size := image.Pt(gtx.Dp(24), gtx.Dp(24))
						paint.FillShape(gtx.Ops, p.swatch(), clip.UniformRRect(image.Rectangle{Max: size}, gtx.Dp(4)).Op(gtx.Ops))
						return D{Size: size}
					})
				}),
				layout.Flexed(1, layout.Spacer{Width: 8}.Layout),
				layout.Rigid(func(gtx C) D {
					if p.editing == "" {
						return D{}
					}
					return material.Button(th, &p.cancelBtn, "Cancel").Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: 8}.Layout),
				layout.Rigid(func(gtx C) D {
					if strings.TrimSpace(p.name.Text()) == "" {
						gtx = gtx.Disabled()
					}
					return material.Button(th, &p.saveBtn, action).Layout(gtx)
				}),
			)
		}),
	)
}
