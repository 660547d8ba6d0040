package main

import (
	"fmt"
	"image"
	"image/color"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/charmbracelet/log"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/labelscope/backend"
	"git.sr.ht/~whereswaldon/labelscope/chart"
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

func mustIcon(data []byte) *widget.Icon {
	ic, err := widget.NewIcon(data)
	if err != nil {
		panic(err)
	}
	return ic
}

var statusIcons = map[timeseries.Status]*widget.Icon{
	timeseries.StatusReady:      mustIcon(icons.ToggleRadioButtonUnchecked),
	timeseries.StatusInProgress: mustIcon(icons.ActionAutorenew),
	timeseries.StatusComplete:   mustIcon(icons.ActionCheckCircle),
}

var statusNames = map[timeseries.Status]string{
	timeseries.StatusReady:      "Ready",
	timeseries.StatusInProgress: "In progress",
	timeseries.StatusComplete:   "Complete",
}

// backgroundResult reports the outcome of work the UI started off the
// window goroutine.
type backgroundResult struct {
	opened string
	err    error
}

// shownSession identifies the session revision the chart is showing.
type shownSession struct {
	id       string
	revision int
	loaded   bool
}

// UI is responsible for holding the state of and drawing the top-level UI.
type UI struct {
	ws         backend.WindowState
	expl       *explorer.Explorer
	invalidate func()
	th         *material.Theme

	ctrl     *chart.Controller
	chart    *ChartView
	overview *OverviewView
	labels   *LabelPanel
	tracker  *assignmentTracker

	sessionStream *stream.Stream[[]backend.Session]
	labelStream   *stream.Stream[[]timeseries.Label]
	failureStream *stream.Stream[backend.JobFailure]
	sessions      []backend.Session
	selected      string
	shown         shownSession
	background    chan backgroundResult

	sessionBtns map[string]*widget.Clickable
	sessionList widget.List
	explorerBtn widget.Clickable
	opening     bool
	status      widget.Enum
	dismissBtn  widget.Clickable
	bgErr       string
}

func NewUI(ws backend.WindowState, expl *explorer.Explorer, invalidate func()) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	tracker := newAssignmentTracker(ws)
	ctrl := chart.NewController(tracker)
	ctrl.SwitchDataset(nil, ws.Catalog.Labels(), nil)
	ui := &UI{
		ws:            ws,
		expl:          expl,
		invalidate:    invalidate,
		th:            th,
		ctrl:          ctrl,
		chart:         NewChartView(ctrl),
		overview:      &OverviewView{ctrl: ctrl},
		labels:        NewLabelPanel(ws, ctrl),
		tracker:       tracker,
		sessionStream: stream.New(ws.Controller, ws.Datasource.Sessions),
		labelStream:   stream.New(ws.Controller, ws.Catalog.Stream),
		failureStream: stream.New(ws.Controller, ws.Jobs.Failures),
		background:    make(chan backgroundResult, 4),
		sessionBtns:   make(map[string]*widget.Clickable),
	}
	ui.sessionList.Axis = layout.Vertical
	return ui
}

// Update the state of the UI from input and from background work.
func (ui *UI) Update(gtx C) {
	ui.sessionStream.ReadInto(gtx, &ui.sessions, nil)
	if labels, ok := ui.labelStream.ReadNew(gtx); ok {
		ui.ctrl.SetLabels(labels)
	}
	if f, ok := ui.failureStream.ReadNew(gtx); ok {
		ui.bgErr = fmt.Sprintf("Failed to %s: %v", f.Name, f.Err)
	}
	ui.tracker.Update(gtx, ui.ctrl)
	for done := false; !done; {
		select {
		case res := <-ui.background:
			ui.opening = false
			if res.err != nil {
				ui.bgErr = res.err.Error()
			} else if res.opened != "" {
				ui.selected = res.opened
			}
		default:
			done = true
		}
	}
	if ui.selected == "" {
		for _, s := range ui.sessions {
			if s.Loaded && s.Err == nil {
				ui.selected = s.ID
				break
			}
		}
	}
	for _, s := range ui.sessions {
		if ui.sessionButton(s.ID).Clicked(gtx) {
			ui.selected = s.ID
		}
	}
	ui.syncDataset()

	if !ui.opening && ui.explorerBtn.Clicked(gtx) {
		ui.opening = true
		go func() {
			id, err := ui.ws.Datasource.LoadFromFile(ui.expl)
			if err != nil {
				log.Warn("no dataset opened", "err", err)
			}
			ui.background <- backgroundResult{opened: id, err: err}
			ui.invalidate()
		}()
	}
	if ui.status.Update(gtx) {
		ui.setStatus(ui.status.Value)
	}
	if ui.dismissBtn.Clicked(gtx) {
		ui.ctrl.DismissNotice()
		ui.bgErr = ""
	}
}

func (ui *UI) sessionButton(id string) *widget.Clickable {
	btn, ok := ui.sessionBtns[id]
	if !ok {
		btn = new(widget.Clickable)
		ui.sessionBtns[id] = btn
	}
	return btn
}

func (ui *UI) session(id string) (backend.Session, bool) {
	for _, s := range ui.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return backend.Session{}, false
}

// syncDataset switches the chart to the selected session whenever the
// selection or the session's contents change.
func (ui *UI) syncDataset() {
	s, ok := ui.session(ui.selected)
	if !ok {
		return
	}
	next := shownSession{id: s.ID, revision: s.Revision, loaded: s.Loaded}
	if next == ui.shown {
		return
	}
	ui.shown = next
	if !s.Loaded || s.Err != nil {
		ui.ctrl.SwitchDataset(nil, ui.ctrl.View().Labels, nil)
		return
	}
	ds := s.Dataset
	ui.ctrl.SwitchDataset(&ds, ui.ctrl.View().Labels, ui.ws.Store.Annotations(ds.ID))
	ui.status.Value = ui.ws.Store.Status(ds.ID).String()
	log.Debug("showing dataset", "dataset", ds.Name, "points", len(ds.Points), "revision", s.Revision)
}

func (ui *UI) setStatus(value string) {
	status, err := timeseries.ParseStatus(value)
	if err != nil {
		log.Error("invalid dataset status", "status", value, "err", err)
		return
	}
	view := ui.ctrl.View()
	if view.Dataset == nil {
		return
	}
	id := view.Dataset.ID
	ui.ws.Jobs.Do("save status", func() error {
		return ui.ws.Store.SetStatus(id, status)
	})
}

// assignmentTracker submits assignments to the backend and hands their
// outcomes back to the chart controller as they arrive.
type assignmentTracker struct {
	ws      backend.WindowState
	pending map[string]*stream.Stream[chart.AssignmentResult]
}

func newAssignmentTracker(ws backend.WindowState) *assignmentTracker {
	return &assignmentTracker{
		ws:      ws,
		pending: make(map[string]*stream.Stream[chart.AssignmentResult]),
	}
}

func (t *assignmentTracker) SubmitLabelAssignment(req chart.LabelAssignment) error {
	mutation, err := t.ws.Assigner.Submit(req)
	if err != nil {
		return err
	}
	t.pending[req.RequestID] = stream.New(t.ws.Controller, mutation.Stream)
	return nil
}

func (t *assignmentTracker) Update(gtx C, ctrl *chart.Controller) {
	for id, s := range t.pending {
		if res, ok := s.ReadNew(gtx); ok {
			ctrl.HandleResult(res)
			delete(t.pending, id)
		}
	}
}

type TabStyle struct {
	state  *widget.Enum
	label  material.LabelStyle
	icon   *widget.Icon
	border widget.Border
	inset  layout.Inset
	value  string
	fill   color.NRGBA
}

func Tab(th *material.Theme, state *widget.Enum, value, display string, icon *widget.Icon) TabStyle {
	selected := state.Value == value
	ts := TabStyle{
		state: state,
		label: material.Body1(th, display),
		icon:  icon,
		inset: layout.UniformInset(2),
		border: widget.Border{
			Width: 2,
			Color: th.ContrastBg,
		},
		value: value,
	}
	ts.label.Alignment = text.Middle
	if selected {
		ts.label.Color = th.ContrastFg
		ts.fill = th.ContrastBg
	}
	return ts
}

func (t TabStyle) Layout(gtx C) D {
	return t.inset.Layout(gtx, func(gtx C) D {
		return t.border.Layout(gtx, func(gtx C) D {
			return t.state.Layout(gtx, t.value, func(gtx C) D {
				return layout.Background{}.Layout(gtx, func(gtx C) D {
					paint.FillShape(gtx.Ops, t.fill, clip.Rect{Max: gtx.Constraints.Min}.Op())
					return D{Size: gtx.Constraints.Min}
				}, func(gtx C) D {
					return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
						return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
							layout.Rigid(func(gtx C) D {
								gtx.Constraints.Min.X = gtx.Dp(18)
								return t.icon.Layout(gtx, t.label.Color)
							}),
							layout.Rigid(layout.Spacer{Width: 4}.Layout),
							layout.Rigid(t.label.Layout),
						)
					})
				})
			})
		})
	})
}

func (ui *UI) layoutSidebar(gtx C) D {
	gtx.Constraints.Min.X = gtx.Dp(240)
	gtx.Constraints.Max.X = gtx.Constraints.Min.X
	return layout.UniformInset(8).Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(material.H6(ui.th, "Datasets").Layout),
			layout.Rigid(layout.Spacer{Height: 8}.Layout),
			layout.Rigid(func(gtx C) D {
				if ui.opening {
					gtx = gtx.Disabled()
				}
				return material.Button(ui.th, &ui.explorerBtn, "Open CSV").Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: 8}.Layout),
			layout.Flexed(1, func(gtx C) D {
				if len(ui.sessions) == 0 {
					return material.Body2(ui.th, "No datasets open.").Layout(gtx)
				}
				return material.List(ui.th, &ui.sessionList).Layout(gtx, len(ui.sessions), func(gtx C, i int) D {
					return ui.layoutSessionEntry(gtx, ui.sessions[i])
				})
			}),
			layout.Rigid(layout.Spacer{Height: 8}.Layout),
			layout.Rigid(func(gtx C) D {
				return ui.labels.Layout(gtx, ui.th)
			}),
		)
	})
}

func (ui *UI) layoutSessionEntry(gtx C, s backend.Session) D {
	var detail string
	switch {
	case !s.Loaded:
		detail = "Loading..."
	case s.Err != nil:
		detail = s.Err.Error()
	case s.Dropped > 0:
		detail = fmt.Sprintf("%d points, %d rows skipped", len(s.Dataset.Points), s.Dropped)
	default:
		detail = fmt.Sprintf("%d points", len(s.Dataset.Points))
	}
	status := ui.ws.Store.Status(s.Dataset.ID)
	return material.Clickable(gtx, ui.sessionButton(s.ID), func(gtx C) D {
		gtx.Constraints.Min.X = gtx.Constraints.Max.X
		return layout.Background{}.Layout(gtx, func(gtx C) D {
			if s.ID == ui.selected {
				paint.FillShape(gtx.Ops, withAlpha(ui.th.ContrastBg, 40), clip.Rect{Max: gtx.Constraints.Min}.Op())
			}
			return D{Size: gtx.Constraints.Min}
		}, func(gtx C) D {
			return layout.UniformInset(6).Layout(gtx, func(gtx C) D {
				return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(func(gtx C) D {
						gtx.Constraints.Min.X = gtx.Dp(18)
						return statusIcons[status].Layout(gtx, ui.th.Fg)
					}),
					layout.Rigid(layout.Spacer{Width: 6}.Layout),
					layout.Flexed(1, func(gtx C) D {
						return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
							layout.Rigid(func(gtx C) D {
								l := material.Body1(ui.th, s.Dataset.Name)
								l.MaxLines = 1
								return l.Layout(gtx)
							}),
							layout.Rigid(func(gtx C) D {
								l := material.Caption(ui.th, detail)
								l.MaxLines = 2
								if s.Err != nil {
									l.Color = errorColor
								}
								return l.Layout(gtx)
							}),
						)
					}),
				)
			})
		})
	})
}

func (ui *UI) layoutHeader(gtx C) D {
	view := ui.ctrl.View()
	if view.Dataset == nil {
		return D{}
	}
	children := []layout.FlexChild{
		layout.Flexed(1, func(gtx C) D {
			l := material.H6(ui.th, view.Dataset.Name)
			l.MaxLines = 1
			return l.Layout(gtx)
		}),
	}
	for _, st := range timeseries.Statuses {
		children = append(children, layout.Rigid(
			Tab(ui.th, &ui.status, st.String(), statusNames[st], statusIcons[st]).Layout,
		))
	}
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx, children...)
}

func (ui *UI) layoutNotice(gtx C) D {
	msg := ui.ctrl.View().Notice
	if ui.bgErr != "" {
		msg = ui.bgErr
	}
	if msg == "" {
		return D{}
	}
	return layout.Background{}.Layout(gtx, func(gtx C) D {
		paint.FillShape(gtx.Ops, noticeColor, clip.Rect{Max: gtx.Constraints.Min}.Op())
		return D{Size: gtx.Constraints.Min}
	}, func(gtx C) D {
		return layout.UniformInset(6).Layout(gtx, func(gtx C) D {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Flexed(1, material.Body2(ui.th, msg).Layout),
				layout.Rigid(func(gtx C) D {
					gtx.Constraints.Min = image.Point{}
					return material.Button(ui.th, &ui.dismissBtn, "Dismiss").Layout(gtx)
				}),
			)
		})
	})
}

func (ui *UI) layoutMainArea(gtx C) D {
	return layout.UniformInset(8).Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(ui.layoutHeader),
			layout.Rigid(ui.layoutNotice),
			layout.Rigid(func(gtx C) D {
				s, ok := ui.session(ui.selected)
				if !ok || s.Err == nil {
					return D{}
				}
				l := material.Body1(ui.th, s.Err.Error())
				l.Color = errorColor
				return l.Layout(gtx)
			}),
			layout.Flexed(1, func(gtx C) D {
				return ui.chart.Layout(gtx, ui.th)
			}),
			layout.Rigid(func(gtx C) D {
				height := gtx.Dp(unit.Dp(72))
				gtx.Constraints.Min.Y = height
				gtx.Constraints.Max.Y = height
				return ui.overview.Layout(gtx, ui.th)
			}),
		)
	})
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	return layout.Flex{}.Layout(gtx,
		layout.Rigid(ui.layoutSidebar),
		layout.Flexed(1, ui.layoutMainArea),
	)
}
