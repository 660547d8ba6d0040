package backend

import (
	"context"
	"image/color"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/labelscope/chart"
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

func TestLoadCatalogMissingUsesDefaults(t *testing.T) {
	labels, err := LoadCatalog(afero.NewMemMapFs(), "labels.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultLabels, labels)
}

func TestParseCatalog(t *testing.T) {
	labels, err := ParseCatalog([]byte(`
labels:
  - id: spike
    name: Spike
    color: "#ff0000"
  - name: Drift
  - name: Gap
    color: "#00Aa00"
`))
	require.NoError(t, err)
	require.Len(t, labels, 3)

	assert.Equal(t, "spike", labels[0].ID)
	assert.Equal(t, uint8(0xff), labels[0].Color.R)

	assert.Equal(t, LabelID("Drift"), labels[1].ID)
	assert.Equal(t, timeseries.Palette[1], labels[1].Color)

	assert.Equal(t, uint8(0xaa), labels[2].Color.G)
	assert.NotEqual(t, labels[1].ID, labels[2].ID)
}

func TestLabelIDStable(t *testing.T) {
	assert.Equal(t, LabelID("Drift"), LabelID("Drift"))
	assert.NotEqual(t, LabelID("Drift"), LabelID("drift"))
}

func TestParseCatalogErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"bad color":    "labels:\n  - name: A\n    color: red\n",
		"no name":      "labels:\n  - id: a\n",
		"duplicate id": "labels:\n  - id: a\n    name: A\n  - id: a\n    name: B\n",
		"not yaml":     "labels: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestWriteCatalogRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, WriteCatalog(fsys, "labels.yaml", DefaultLabels))
	labels, err := LoadCatalog(fsys, "labels.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultLabels, labels)
}

func TestCatalogEdits(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := openTestStore(t, fsys)
	c, err := OpenCatalog(fsys, "labels.yaml", store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := c.Stream(ctx)
	assert.Equal(t, DefaultLabels, <-updates)

	red := color.NRGBA{R: 0xff, A: 0xff}
	spike, err := c.Create("  Spike ", red)
	require.NoError(t, err)
	assert.Equal(t, LabelID("Spike"), spike.ID)
	assert.Equal(t, "Spike", spike.Name)
	assert.Len(t, <-updates, 4)

	_, err = c.Create("spike", red)
	assert.ErrorIs(t, err, ErrDuplicateLabel)
	_, err = c.Create(" ", red)
	assert.ErrorIs(t, err, ErrNoLabelName)

	require.NoError(t, store.Assign(chart.LabelAssignment{DatasetID: "d", PointIDs: []string{"p"}, LabelIDs: []string{spike.ID, "noise"}}),
		"the store accepts created labels")

	require.NoError(t, c.Update(spike.ID, "Peak", red))
	assert.ErrorIs(t, c.Update(spike.ID, "Noise", red), ErrDuplicateLabel)
	assert.ErrorIs(t, c.Update("missing", "X", red), ErrNoSuchLabel)

	reloaded, err := LoadCatalog(fsys, "labels.yaml")
	require.NoError(t, err)
	require.Len(t, reloaded, 4)
	assert.Equal(t, timeseries.Label{ID: spike.ID, Name: "Peak", Color: red}, reloaded[3])

	require.NoError(t, c.Delete("noise"))
	assert.ErrorIs(t, c.Delete("noise"), ErrNoSuchLabel)
	assert.Equal(t, map[timeseries.PointID][]string{"p": {spike.ID}}, store.Annotations("d"))
	assert.ErrorIs(t, store.Assign(chart.LabelAssignment{DatasetID: "d", PointIDs: []string{"p"}, LabelIDs: []string{"noise"}}), ErrUnknownLabel)
	assert.Len(t, c.Labels(), 3)
}

func TestCatalogFailedWriteKeepsLabels(t *testing.T) {
	base := afero.NewMemMapFs()
	c, err := OpenCatalog(afero.NewReadOnlyFs(base), "labels.yaml", nil)
	require.NoError(t, err)
	_, err = c.Create("Spike", timeseries.Palette[0])
	require.Error(t, err)
	assert.Equal(t, DefaultLabels, c.Labels())
}
