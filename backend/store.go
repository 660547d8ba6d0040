package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/exp/maps"

	"git.sr.ht/~whereswaldon/labelscope/chart"
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

var (
	// ErrEmptyAssignment rejects assignments without a dataset, points or
	// labels.
	ErrEmptyAssignment = errors.New("assignment is empty")
	// ErrUnknownLabel rejects assignments naming a label missing from the
	// catalog.
	ErrUnknownLabel = errors.New("unknown label")
)

const storeVersion = 1

type storeDocument struct {
	Version  int                       `json:"version"`
	Datasets map[string]*datasetRecord `json:"datasets"`
}

type datasetRecord struct {
	Status      timeseries.Status   `json:"status"`
	Annotations map[string][]string `json:"annotations,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (r *datasetRecord) clone() *datasetRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Annotations = make(map[string][]string, len(r.Annotations))
	for id, labels := range r.Annotations {
		c.Annotations[id] = slices.Clone(labels)
	}
	return &c
}

// Store persists point annotations and dataset status as a single JSON
// document. Every change is written through before it is acknowledged, and
// a change that cannot be written is discarded. Readers are never held up
// by a write in progress.
type Store struct {
	fs   afero.Fs
	path string

	attempts uint
	delay    time.Duration

	// writeMu serializes changes so each one is written on top of the last.
	writeMu sync.Mutex

	mu     sync.Mutex
	doc    storeDocument
	labels map[string]bool
}

// OpenStore loads the document at path, which need not exist yet.
func OpenStore(fsys afero.Fs, path string) (*Store, error) {
	s := &Store{
		fs:       fsys,
		path:     path,
		attempts: 3,
		delay:    100 * time.Millisecond,
		doc:      storeDocument{Version: storeVersion, Datasets: map[string]*datasetRecord{}},
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed reading annotation store: %w", err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("failed decoding annotation store %q: %w", path, err)
	}
	if s.doc.Datasets == nil {
		s.doc.Datasets = map[string]*datasetRecord{}
	}
	return s, nil
}

// RestrictLabels makes Assign reject label ids outside labels. Until it is
// called any id is accepted.
func (s *Store) RestrictLabels(labels []timeseries.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = make(map[string]bool, len(labels))
	for _, l := range labels {
		s.labels[l.ID] = true
	}
}

// Assign applies req to its points: labels are attached, detached or
// cleared according to req.Op. Labels already present on a point are not
// repeated, and a point left without labels loses its entry.
func (s *Store) Assign(req chart.LabelAssignment) error {
	if req.DatasetID == "" || len(req.PointIDs) == 0 || (req.Op != chart.OpClear && len(req.LabelIDs) == 0) {
		return ErrEmptyAssignment
	}
	if req.Op == chart.OpAdd {
		if err := s.checkLabels(req.LabelIDs); err != nil {
			return err
		}
	}
	return s.update(func(doc map[string]*datasetRecord) {
		r := editRecord(doc, req.DatasetID)
		for _, point := range req.PointIDs {
			if labels := req.Merge(r.Annotations[point]); len(labels) > 0 {
				r.Annotations[point] = labels
			} else {
				delete(r.Annotations, point)
			}
		}
	})
}

// RemoveLabel detaches the label id from every point of every dataset.
func (s *Store) RemoveLabel(id string) error {
	return s.update(func(doc map[string]*datasetRecord) {
		for datasetID, r := range doc {
			var points []string
			for point, labels := range r.Annotations {
				if slices.Contains(labels, id) {
					points = append(points, point)
				}
			}
			if len(points) == 0 {
				continue
			}
			r = editRecord(doc, datasetID)
			remove := chart.LabelAssignment{Op: chart.OpRemove, LabelIDs: []string{id}}
			for _, point := range points {
				if labels := remove.Merge(r.Annotations[point]); len(labels) > 0 {
					r.Annotations[point] = labels
				} else {
					delete(r.Annotations, point)
				}
			}
		}
	})
}

func (s *Store) checkLabels(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labels == nil {
		return nil
	}
	for _, id := range ids {
		if !s.labels[id] {
			return fmt.Errorf("label %q: %w", id, ErrUnknownLabel)
		}
	}
	return nil
}

// Annotations returns a copy of the labels attached to each point of the
// dataset.
func (s *Store) Annotations(datasetID string) map[timeseries.PointID][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[timeseries.PointID][]string{}
	r, ok := s.doc.Datasets[datasetID]
	if !ok {
		return out
	}
	for id, labels := range r.Annotations {
		out[timeseries.PointID(id)] = slices.Clone(labels)
	}
	return out
}

// Status returns the status of the dataset, StatusReady if it was never set.
func (s *Store) Status(datasetID string) timeseries.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.doc.Datasets[datasetID]; ok {
		return r.Status
	}
	return timeseries.StatusReady
}

func (s *Store) SetStatus(datasetID string, status timeseries.Status) error {
	if datasetID == "" {
		return fmt.Errorf("set status: %w", ErrEmptyAssignment)
	}
	return s.update(func(doc map[string]*datasetRecord) {
		editRecord(doc, datasetID).Status = status
	})
}

// Datasets lists the ids of every dataset with a record.
func (s *Store) Datasets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := maps.Keys(s.doc.Datasets)
	slices.Sort(ids)
	return ids
}

// editRecord replaces the record of datasetID in doc with a stamped copy
// and returns the copy for editing.
func editRecord(doc map[string]*datasetRecord, datasetID string) *datasetRecord {
	next := doc[datasetID].clone()
	if next == nil {
		next = &datasetRecord{Annotations: map[string][]string{}}
	}
	next.UpdatedAt = time.Now().UTC()
	doc[datasetID] = next
	return next
}

// update applies f to a copy of the dataset records, writes the result and
// only then makes it visible. f must replace a record through editRecord
// before changing it.
func (s *Store) update(f func(map[string]*datasetRecord)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	next := storeDocument{Version: storeVersion, Datasets: maps.Clone(s.doc.Datasets)}
	s.mu.Unlock()

	f(next.Datasets)
	if err := s.flush(next); err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = next
	s.mu.Unlock()
	return nil
}

// flush writes doc next to its destination and renames it into place,
// retrying transient failures.
func (s *Store) flush(doc storeDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed encoding annotation store: %w", err)
	}
	tmp := s.path + ".tmp"
	err = retry.Do(
		func() error {
			if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
				return err
			}
			return s.fs.Rename(tmp, s.path)
		},
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if n+1 < s.attempts {
				log.Warn("annotation store write failed, retrying", "path", s.path, "attempt", n+1, "of", s.attempts, "err", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed writing annotation store %q after %d attempts: %w", s.path, s.attempts, err)
	}
	return nil
}
