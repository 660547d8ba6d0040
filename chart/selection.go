package chart

import (
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

// Selection is an immutable set of selected points. IDs keep the order of the
// points they were built from.
type Selection struct {
	ids []timeseries.PointID
	set map[timeseries.PointID]struct{}
}

// NewSelection selects exactly the given points.
func NewSelection(points []timeseries.DataPoint) Selection {
	if len(points) == 0 {
		return Selection{}
	}
	s := Selection{
		ids: make([]timeseries.PointID, 0, len(points)),
		set: make(map[timeseries.PointID]struct{}, len(points)),
	}
	for _, p := range points {
		if _, ok := s.set[p.ID]; ok {
			continue
		}
		s.set[p.ID] = struct{}{}
		s.ids = append(s.ids, p.ID)
	}
	return s
}

func (s Selection) Has(id timeseries.PointID) bool {
	_, ok := s.set[id]
	return ok
}

func (s Selection) Len() int {
	return len(s.ids)
}

func (s Selection) Empty() bool {
	return len(s.ids) == 0
}

// IDs returns a copy of the selected identities.
func (s Selection) IDs() []timeseries.PointID {
	if len(s.ids) == 0 {
		return nil
	}
	return append([]timeseries.PointID(nil), s.ids...)
}

// Equal reports whether both selections hold the same points.
func (s Selection) Equal(o Selection) bool {
	if len(s.ids) != len(o.ids) {
		return false
	}
	for _, id := range s.ids {
		if !o.Has(id) {
			return false
		}
	}
	return true
}
