package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopoverToggle(t *testing.T) {
	p := Popover{}.Opened(Pt(10, 10))
	assert.False(t, p.CanApply())

	p = p.Toggle("label-A")
	p = p.Toggle("label-B")
	assert.True(t, p.Has("label-A"))
	assert.Equal(t, []string{"label-A", "label-B"}, p.Working())

	before := p
	p = p.Toggle("label-A")
	assert.False(t, p.Has("label-A"))
	assert.True(t, before.Has("label-A"), "toggling must not change earlier values")
}

func TestPopoverReopensEmpty(t *testing.T) {
	p := Popover{}.Opened(Pt(1, 1)).Toggle("label-A")
	p = p.Cancel()
	assert.False(t, p.Open)
	p = p.Opened(Pt(2, 2))
	assert.Empty(t, p.Working())
}

func TestPopoverApply(t *testing.T) {
	sel := NewSelection(minutesDataset(10).Points[2:6])

	p := Popover{}.Opened(Pt(1, 1))
	same, _, ok := p.Apply(sel, "minutes")
	assert.False(t, ok, "apply is a no-op while nothing is chosen")
	assert.True(t, same.Open)

	p = p.Toggle("label-A")
	closed, req, ok := p.Apply(sel, "minutes")
	require.True(t, ok)
	assert.False(t, closed.Open)
	assert.Empty(t, closed.Working())
	assert.Equal(t, LabelAssignment{
		DatasetID: "minutes",
		PointIDs:  strIDs(2, 3, 4, 5),
		LabelIDs:  []string{"label-A"},
	}, req)
}

func TestPopoverClosedIgnoresToggle(t *testing.T) {
	p := Popover{}.Toggle("label-A")
	assert.False(t, p.Has("label-A"))
}

func TestPopoverSubmit(t *testing.T) {
	sel := NewSelection(minutesDataset(10).Points[2:4])
	p := Popover{}.Opened(Pt(1, 1))
	assert.False(t, p.CanSubmit(OpRemove))
	assert.True(t, p.CanSubmit(OpClear))

	_, req, ok := p.Toggle("label-A").Submit(OpClear, sel, "minutes")
	require.True(t, ok)
	assert.Equal(t, LabelAssignment{DatasetID: "minutes", Op: OpClear, PointIDs: strIDs(2, 3)}, req)

	_, _, ok = p.Submit(OpClear, Selection{}, "minutes")
	assert.False(t, ok, "nothing selected")
}

func TestAssignmentMerge(t *testing.T) {
	labels := []string{"label-A", "label-B"}
	add := LabelAssignment{Op: OpAdd, LabelIDs: []string{"label-B", "label-C"}}
	assert.Equal(t, []string{"label-A", "label-B", "label-C"}, add.Merge(labels))
	remove := LabelAssignment{Op: OpRemove, LabelIDs: []string{"label-A"}}
	assert.Equal(t, []string{"label-B"}, remove.Merge(labels))
	assert.Empty(t, LabelAssignment{Op: OpClear}.Merge(labels))
	assert.Equal(t, []string{"label-A", "label-B"}, labels)
}
