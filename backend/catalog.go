package backend

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"slices"
	"strings"
	"sync"

	"git.sr.ht/~gioverse/skel/stream"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

// labelFile is the on-disk form of the label catalog:
//
//	labels:
//	  - id: anomaly
//	    name: Anomaly
//	    color: "#a4633a"
type labelFile struct {
	Labels []labelEntry `yaml:"labels"`
}

type labelEntry struct {
	ID    string `yaml:"id,omitempty"`
	Name  string `yaml:"name"`
	Color string `yaml:"color,omitempty"`
}

// DefaultLabels is the catalog used when no catalog file exists.
var DefaultLabels = []timeseries.Label{
	{ID: "anomaly", Name: "Anomaly", Color: timeseries.Palette[0]},
	{ID: "normal", Name: "Normal", Color: timeseries.Palette[2]},
	{ID: "noise", Name: "Noise", Color: timeseries.Palette[4]},
}

// LabelID derives the identity of a catalog label that does not declare one.
// The same name always yields the same id, so annotations survive edits to
// the catalog that do not rename the label.
func LabelID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("labelscope/label/"+name)).String()
}

// LoadCatalog reads the label catalog at path. A missing file yields
// DefaultLabels.
func LoadCatalog(fsys afero.Fs, path string) ([]timeseries.Label, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return append([]timeseries.Label(nil), DefaultLabels...), nil
		}
		return nil, fmt.Errorf("failed reading label catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML label catalog.
func ParseCatalog(data []byte) ([]timeseries.Label, error) {
	var file labelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed decoding label catalog: %w", err)
	}
	labels := make([]timeseries.Label, 0, len(file.Labels))
	seen := map[string]bool{}
	for i, entry := range file.Labels {
		if entry.Name == "" {
			return nil, fmt.Errorf("label %d has no name", i)
		}
		label := timeseries.Label{
			ID:    entry.ID,
			Name:  entry.Name,
			Color: timeseries.Palette[i%len(timeseries.Palette)],
		}
		if label.ID == "" {
			label.ID = LabelID(entry.Name)
		}
		if entry.Color != "" {
			c, err := timeseries.ParseHexColor(entry.Color)
			if err != nil {
				return nil, fmt.Errorf("label %q: %w", entry.Name, err)
			}
			label.Color = c
		}
		if seen[label.ID] {
			return nil, fmt.Errorf("duplicate label id %q", label.ID)
		}
		seen[label.ID] = true
		labels = append(labels, label)
	}
	return labels, nil
}

// WriteCatalog stores labels as a YAML catalog at path.
func WriteCatalog(fsys afero.Fs, path string, labels []timeseries.Label) error {
	var file labelFile
	for _, l := range labels {
		file.Labels = append(file.Labels, labelEntry{
			ID:    l.ID,
			Name:  l.Name,
			Color: timeseries.HexColor(l.Color),
		})
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed encoding label catalog: %w", err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("failed writing label catalog: %w", err)
	}
	return nil
}

var (
	ErrNoLabelName    = errors.New("label has no name")
	ErrDuplicateLabel = errors.New("label already exists")
	ErrNoSuchLabel    = errors.New("no such label")
)

// Catalog is the editable label catalog. Every edit is written to the
// catalog file before it takes effect, and deleting a label detaches it
// from every annotated point.
type Catalog struct {
	fs    afero.Fs
	path  string
	store *Store

	// writeMu serializes edits.
	writeMu sync.Mutex
	mu      sync.Mutex
	labels  []timeseries.Label
	source  *stream.Source[[]timeseries.Label, []timeseries.Label]
}

// OpenCatalog loads the catalog at path. When store is not nil it is kept
// restricted to the catalog's labels.
func OpenCatalog(fsys afero.Fs, path string, store *Store) (*Catalog, error) {
	labels, err := LoadCatalog(fsys, path)
	if err != nil {
		return nil, err
	}
	c := &Catalog{fs: fsys, path: path, store: store}
	c.source = stream.NewSource(func(l []timeseries.Label) ([]timeseries.Label, bool) {
		return slices.Clone(l), true
	})
	c.commit(labels)
	return c, nil
}

// Labels returns a copy of the current catalog.
func (c *Catalog) Labels() []timeseries.Label {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.labels)
}

// Stream emits the catalog now and after every edit.
func (c *Catalog) Stream(ctx context.Context) <-chan []timeseries.Label {
	return c.source.Stream(ctx)
}

// Create adds a label. Its id is derived from its name.
func (c *Catalog) Create(name string, col color.NRGBA) (timeseries.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return timeseries.Label{}, ErrNoLabelName
	}
	label := timeseries.Label{ID: LabelID(name), Name: name, Color: col}
	err := c.edit(func(labels []timeseries.Label) ([]timeseries.Label, error) {
		for _, l := range labels {
			if l.ID == label.ID || strings.EqualFold(l.Name, name) {
				return nil, fmt.Errorf("label %q: %w", name, ErrDuplicateLabel)
			}
		}
		return append(labels, label), nil
	})
	if err != nil {
		return timeseries.Label{}, err
	}
	log.Info("created label", "id", label.ID, "name", name)
	return label, nil
}

// Update renames and recolors the label id. Its id, and so its annotations,
// stay the same.
func (c *Catalog) Update(id, name string, col color.NRGBA) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNoLabelName
	}
	return c.edit(func(labels []timeseries.Label) ([]timeseries.Label, error) {
		i := slices.IndexFunc(labels, func(l timeseries.Label) bool { return l.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("label %q: %w", id, ErrNoSuchLabel)
		}
		for j, l := range labels {
			if j != i && strings.EqualFold(l.Name, name) {
				return nil, fmt.Errorf("label %q: %w", name, ErrDuplicateLabel)
			}
		}
		labels[i].Name = name
		labels[i].Color = col
		return labels, nil
	})
}

// Delete removes the label id from the catalog and from every point that
// carries it.
func (c *Catalog) Delete(id string) error {
	err := c.edit(func(labels []timeseries.Label) ([]timeseries.Label, error) {
		i := slices.IndexFunc(labels, func(l timeseries.Label) bool { return l.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("label %q: %w", id, ErrNoSuchLabel)
		}
		return slices.Delete(labels, i, i+1), nil
	})
	if err != nil || c.store == nil {
		return err
	}
	if err := c.store.RemoveLabel(id); err != nil {
		return fmt.Errorf("label %q deleted but its annotations remain: %w", id, err)
	}
	return nil
}

// edit applies f to a copy of the catalog, writes the result and then makes
// it current.
func (c *Catalog) edit(f func([]timeseries.Label) ([]timeseries.Label, error)) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	next, err := f(c.Labels())
	if err != nil {
		return err
	}
	if err := WriteCatalog(c.fs, c.path, next); err != nil {
		return err
	}
	c.commit(next)
	return nil
}

func (c *Catalog) commit(labels []timeseries.Label) {
	c.mu.Lock()
	c.labels = labels
	c.mu.Unlock()
	if c.store != nil {
		c.store.RestrictLabels(labels)
	}
	c.source.Update(func([]timeseries.Label) []timeseries.Label {
		return slices.Clone(labels)
	})
}
