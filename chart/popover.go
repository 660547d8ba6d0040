package chart

import "slices"

// AssignOp is what an assignment does to the labels of its points.
type AssignOp uint8

const (
	// OpAdd attaches the labels.
	OpAdd AssignOp = iota
	// OpRemove detaches the labels.
	OpRemove
	// OpClear detaches every label, whatever LabelIDs holds.
	OpClear
)

func (o AssignOp) String() string {
	switch o {
	case OpRemove:
		return "remove"
	case OpClear:
		return "clear"
	default:
		return "add"
	}
}

// LabelAssignment asks for labels to be attached to, or detached from,
// points of a dataset.
type LabelAssignment struct {
	RequestID string   `json:"request_id"`
	DatasetID string   `json:"dataset_id"`
	Op        AssignOp `json:"op"`
	PointIDs  []string `json:"point_ids"`
	LabelIDs  []string `json:"label_ids"`
}

// Merge returns the labels a point carrying labels has once the assignment
// is applied. labels is not modified.
func (a LabelAssignment) Merge(labels []string) []string {
	switch a.Op {
	case OpClear:
		return nil
	case OpRemove:
		return slices.DeleteFunc(slices.Clone(labels), func(l string) bool {
			return slices.Contains(a.LabelIDs, l)
		})
	}
	out := slices.Clone(labels)
	for _, l := range a.LabelIDs {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

// AssignmentResult is the outcome of a LabelAssignment. Err is nil on
// success.
type AssignmentResult struct {
	RequestID string
	Err       error
}

// Assigner persists label assignments. Submission must not block on the
// persistence itself; outcomes are reported separately as AssignmentResults.
type Assigner interface {
	SubmitLabelAssignment(req LabelAssignment) error
}

// Popover is the label picker shown after a selection. The working set of
// label ids starts empty every time the popover opens.
type Popover struct {
	Open    bool
	Anchor  Point
	working []string
}

// Opened returns an open popover at anchor with an empty working set.
func (p Popover) Opened(anchor Point) Popover {
	return Popover{Open: true, Anchor: anchor}
}

// Toggle adds id to the working set, or removes it if present.
func (p Popover) Toggle(id string) Popover {
	if !p.Open {
		return p
	}
	if i := slices.Index(p.working, id); i >= 0 {
		p.working = slices.Delete(slices.Clone(p.working), i, i+1)
		return p
	}
	p.working = append(slices.Clone(p.working), id)
	return p
}

func (p Popover) Has(id string) bool {
	return slices.Contains(p.working, id)
}

// Working returns a copy of the chosen label ids in the order they were
// chosen.
func (p Popover) Working() []string {
	return slices.Clone(p.working)
}

func (p Popover) CanApply() bool {
	return p.CanSubmit(OpAdd)
}

// CanSubmit reports whether op can be submitted from the popover. Adding and
// removing need a label chosen; clearing does not.
func (p Popover) CanSubmit(op AssignOp) bool {
	if op == OpClear {
		return p.Open
	}
	return p.Open && len(p.working) > 0
}

// Cancel closes the popover and discards the working set. The selection it
// was opened for is not its to clear.
func (p Popover) Cancel() Popover {
	return Popover{}
}

// Apply turns the working set into an assignment for the selected points and
// closes the popover. It does nothing while the working set is empty.
func (p Popover) Apply(sel Selection, datasetID string) (Popover, LabelAssignment, bool) {
	return p.Submit(OpAdd, sel, datasetID)
}

// Submit is Apply for any operation.
func (p Popover) Submit(op AssignOp, sel Selection, datasetID string) (Popover, LabelAssignment, bool) {
	if !p.CanSubmit(op) || sel.Empty() {
		return p, LabelAssignment{}, false
	}
	ids := sel.IDs()
	points := make([]string, len(ids))
	for i, id := range ids {
		points[i] = string(id)
	}
	req := LabelAssignment{
		DatasetID: datasetID,
		Op:        op,
		PointIDs:  points,
	}
	if op != OpClear {
		req.LabelIDs = p.Working()
	}
	return Popover{}, req, true
}

// reopen restores a popover with a previous working set.
func (p Popover) reopen(anchor Point, working []string) Popover {
	return Popover{Open: true, Anchor: anchor, working: slices.Clone(working)}
}
