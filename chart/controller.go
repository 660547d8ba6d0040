package chart

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

// View is everything the chart shows for one dataset. A dataset switch
// replaces the whole View, so no selection, window, drag or popover can
// outlive the dataset it was made on.
type View struct {
	// Dataset is nil until one is chosen.
	Dataset     *timeseries.Dataset
	Labels      []timeseries.Label
	Annotations map[timeseries.PointID][]string
	Brush       Brush
	Marquee     Marquee
	Popover     Popover
	Selection   Selection
	// Filter holds label ids. When set, the main chart only shows points
	// carrying at least one of them.
	Filter []string
	// Notice is a message for the user, such as a failed assignment.
	Notice string
}

// NewView returns a fresh view of ds. The annotations are copied.
func NewView(ds *timeseries.Dataset, labels []timeseries.Label, annotations map[timeseries.PointID][]string) View {
	copied := make(map[timeseries.PointID][]string, len(annotations))
	for id, l := range annotations {
		copied[id] = slices.Clone(l)
	}
	return View{
		Dataset:     ds,
		Labels:      slices.Clone(labels),
		Annotations: copied,
	}
}

func (v View) enabled() bool {
	return v.Dataset != nil && !v.Dataset.Empty()
}

func (v View) datasetID() string {
	if v.Dataset == nil {
		return ""
	}
	return v.Dataset.ID
}

// Label returns the catalog entry for id.
func (v View) Label(id string) (timeseries.Label, bool) {
	for _, l := range v.Labels {
		if l.ID == id {
			return l, true
		}
	}
	return timeseries.Label{}, false
}

// Filtering reports whether points labeled id are being filtered for.
func (v View) Filtering(id string) bool {
	return slices.Contains(v.Filter, id)
}

// ErrNoAssigner is the failure reported for assignments made by a controller
// without an Assigner.
var ErrNoAssigner = errors.New("chart: no assigner configured")

type pending struct {
	generation uint64
	anchor     Point
	working    []string
	selection  Selection
	filter     []string
	req        LabelAssignment
}

// Controller routes input events through the chart state machines and keeps
// the current View. It is not safe for concurrent use; the UI goroutine owns
// it.
type Controller struct {
	view     View
	assigner Assigner
	// generation counts dataset switches so that late assignment results
	// can be matched to the view they were made in.
	generation uint64
	pending    map[string]pending
}

func NewController(assigner Assigner) *Controller {
	return &Controller{
		assigner: assigner,
		pending:  make(map[string]pending),
	}
}

// View returns the current view.
func (c *Controller) View() View {
	return c.view
}

// SwitchDataset replaces the view with a fresh one for ds. A nil ds shows the
// "no dataset" state.
func (c *Controller) SwitchDataset(ds *timeseries.Dataset, labels []timeseries.Label, annotations map[timeseries.PointID][]string) {
	c.view = NewView(ds, labels, annotations)
	c.generation++
}

// MainPointer feeds a pointer event over the main chart in frame.
func (c *Controller) MainPointer(ev PointerEvent, frame Frame) {
	ctx := SelectContext{Plot: frame.Plot(), Enabled: c.view.enabled() && !frame.Empty()}
	if ctx.Enabled {
		xs, _, _ := c.view.mainScales(frame)
		_, points, _ := c.view.visible()
		ctx.Scale = xs
		ctx.Points = points
	}
	m, out := c.view.Marquee.Handle(ev, ctx)
	c.view.Marquee = m
	if !out.Changed {
		return
	}
	c.view.Selection = out.Selection
	c.view.Popover = Popover{}
	if out.OpenPopover {
		c.view.Popover = c.view.Popover.Opened(out.Anchor)
	}
}

// BrushEvent feeds an event from the overview strip laid out in frame.
func (c *Controller) BrushEvent(ev BrushEvent, frame Frame) {
	ctx := BrushContext{Enabled: c.view.enabled() && !frame.Empty()}
	if ctx.Enabled {
		ctx.Bounds, _ = c.view.Dataset.Bounds()
		ctx.Scale = c.view.overviewScale(frame)
	}
	c.view.Brush = c.view.Brush.Apply(ev, ctx)
}

// ClearBrush shows the full range again.
func (c *Controller) ClearBrush() {
	c.view.Brush = c.view.Brush.Apply(BrushClear{}, BrushContext{Enabled: c.view.enabled()})
}

// SetLabels replaces the label catalog. Labels that no longer exist are
// dropped from the annotations, the popover and the filter.
func (c *Controller) SetLabels(labels []timeseries.Label) {
	c.view.Labels = slices.Clone(labels)
	known := func(id string) bool {
		_, ok := c.view.Label(id)
		return ok
	}
	annotations := make(map[timeseries.PointID][]string, len(c.view.Annotations))
	for id, ls := range c.view.Annotations {
		kept := slices.DeleteFunc(slices.Clone(ls), func(l string) bool { return !known(l) })
		if len(kept) > 0 {
			annotations[id] = kept
		}
	}
	c.view.Annotations = annotations
	for _, id := range c.view.Popover.Working() {
		if !known(id) {
			c.view.Popover = c.view.Popover.Toggle(id)
		}
	}
	filter := slices.DeleteFunc(slices.Clone(c.view.Filter), func(l string) bool { return !known(l) })
	if len(filter) != len(c.view.Filter) {
		c.setFilter(filter)
	}
}

// ToggleFilter adds id to the label filter, or removes it if present.
func (c *Controller) ToggleFilter(id string) {
	if i := slices.Index(c.view.Filter, id); i >= 0 {
		c.setFilter(slices.Delete(slices.Clone(c.view.Filter), i, i+1))
		return
	}
	if _, ok := c.view.Label(id); !ok {
		return
	}
	c.setFilter(append(slices.Clone(c.view.Filter), id))
}

// ClearFilter shows every point again.
func (c *Controller) ClearFilter() {
	if len(c.view.Filter) > 0 {
		c.setFilter(nil)
	}
}

// setFilter changes which points are shown. A selection made among the
// previously shown points is dropped with its popover and any drag.
func (c *Controller) setFilter(filter []string) {
	if len(filter) == 0 {
		filter = nil
	}
	c.view.Filter = filter
	c.view.Selection = Selection{}
	c.view.Popover = Popover{}
	c.view.Marquee = Marquee{}
}

func (c *Controller) ToggleLabel(id string) {
	c.view.Popover = c.view.Popover.Toggle(id)
}

func (c *Controller) CancelPopover() {
	c.view.Popover = c.view.Popover.Cancel()
}

func (c *Controller) DismissNotice() {
	c.view.Notice = ""
}

// Apply hands the popover's working set to the assigner for the current
// selection and closes the popover. It reports the submitted request, or
// false if the popover had nothing to apply.
func (c *Controller) Apply() (LabelAssignment, bool) {
	return c.submit(OpAdd)
}

// RemoveLabels detaches the popover's working set from the selected points.
func (c *Controller) RemoveLabels() (LabelAssignment, bool) {
	return c.submit(OpRemove)
}

// ClearLabels detaches every label from the selected points.
func (c *Controller) ClearLabels() (LabelAssignment, bool) {
	return c.submit(OpClear)
}

func (c *Controller) submit(op AssignOp) (LabelAssignment, bool) {
	popover := c.view.Popover
	next, req, ok := popover.Submit(op, c.view.Selection, c.view.datasetID())
	if !ok {
		return LabelAssignment{}, false
	}
	req.RequestID = uuid.NewString()
	c.view.Popover = next
	c.pending[req.RequestID] = pending{
		generation: c.generation,
		anchor:     popover.Anchor,
		working:    popover.Working(),
		selection:  c.view.Selection,
		filter:     c.view.Filter,
		req:        req,
	}
	if c.assigner == nil {
		c.HandleResult(AssignmentResult{RequestID: req.RequestID, Err: ErrNoAssigner})
		return req, true
	}
	if err := c.assigner.SubmitLabelAssignment(req); err != nil {
		c.HandleResult(AssignmentResult{RequestID: req.RequestID, Err: err})
	}
	return req, true
}

// Pending reports how many submitted assignments have no result yet.
func (c *Controller) Pending() int {
	return len(c.pending)
}

var (
	doneFormat = map[AssignOp]string{
		OpAdd:    "Labeled %d points",
		OpRemove: "Removed labels from %d points",
		OpClear:  "Cleared labels from %d points",
	}
	failedFormat = map[AssignOp]string{
		OpAdd:    "Labeling %d points failed: %v",
		OpRemove: "Removing labels from %d points failed: %v",
		OpClear:  "Clearing labels from %d points failed: %v",
	}
)

// HandleResult records the outcome of an earlier submission. Success merges
// the change into the view's annotations. Failure shows a notice and, if
// the user is still looking at the same dataset and has not moved on to
// another selection, restores the selection and the popover with its
// working set so the assignment can be retried. Results for unknown
// requests are ignored.
func (c *Controller) HandleResult(res AssignmentResult) {
	p, ok := c.pending[res.RequestID]
	if !ok {
		return
	}
	delete(c.pending, res.RequestID)
	if p.generation != c.generation {
		return
	}
	if res.Err != nil {
		c.view.Notice = fmt.Sprintf(failedFormat[p.req.Op], len(p.req.PointIDs), res.Err)
		if c.canRestore(p) {
			c.view.Selection = p.selection
			working := slices.DeleteFunc(slices.Clone(p.working), func(id string) bool {
				_, ok := c.view.Label(id)
				return !ok
			})
			c.view.Popover = c.view.Popover.reopen(p.anchor, working)
		}
		return
	}
	annotations := make(map[timeseries.PointID][]string, len(c.view.Annotations))
	for id, labels := range c.view.Annotations {
		annotations[id] = labels
	}
	for _, id := range p.req.PointIDs {
		pid := timeseries.PointID(id)
		if labels := p.req.Merge(annotations[pid]); len(labels) > 0 {
			annotations[pid] = labels
		} else {
			delete(annotations, pid)
		}
	}
	c.view.Annotations = annotations
	c.view.Notice = fmt.Sprintf(doneFormat[p.req.Op], len(p.req.PointIDs))
}

// canRestore reports whether the user is still where the failed request
// left them: same filter, no drag or popover in progress, and either nothing
// selected or the same points selected.
func (c *Controller) canRestore(p pending) bool {
	if c.view.Marquee.State != Idle || c.view.Popover.Open || !slices.Equal(c.view.Filter, p.filter) {
		return false
	}
	return c.view.Selection.Empty() || c.view.Selection.Equal(p.selection)
}

// Scene lays out the main chart for the current view.
func (c *Controller) Scene(frame Frame) Scene {
	return BuildScene(c.view, frame)
}

// Overview lays out the overview strip for the current view.
func (c *Controller) Overview(frame Frame) Overview {
	return BuildOverview(c.view, frame)
}

// HoverRadius is how close, in pixels, the pointer must be to a marker to
// show its details.
const HoverRadius = 8

// HoverDetail describes the point under the pointer.
type HoverDetail struct {
	Point  timeseries.DataPoint
	Center Point
	Labels []timeseries.Label
}

// Hover finds the displayed point nearest to pos, if one lies within
// HoverRadius.
func (c *Controller) Hover(pos Point, frame Frame) (HoverDetail, bool) {
	if !c.view.enabled() || frame.Empty() || c.view.Marquee.State == Dragging {
		return HoverDetail{}, false
	}
	xs, ys, _ := c.view.mainScales(frame)
	_, points, _ := c.view.visible()
	best, bestDist := -1, math.Inf(1)
	var center Point
	for i, p := range points {
		pt := Pt(xs.ToPixel(p.Timestamp), ys.ToPixel(p.Value))
		if d := math.Hypot(pt.X-pos.X, pt.Y-pos.Y); d <= HoverRadius && d < bestDist {
			best, bestDist, center = i, d, pt
		}
	}
	if best < 0 {
		return HoverDetail{}, false
	}
	detail := HoverDetail{Point: points[best], Center: center}
	for _, id := range c.view.Annotations[points[best].ID] {
		if l, ok := c.view.Label(id); ok {
			detail.Labels = append(detail.Labels, l)
		}
	}
	return detail, true
}
