package backend

import (
	"context"
	"fmt"

	"gioui.org/app"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

type WindowState struct {
	Bundle
	Controller *stream.Controller
}

func NewWindowState(ctx context.Context, bundle Bundle, win *app.Window) WindowState {
	return WindowState{
		Bundle:     bundle,
		Controller: stream.NewController(ctx, win.Invalidate),
	}
}

// Config locates the files the backend works with.
type Config struct {
	LabelsPath string
	StorePath  string
	Mapping    Mapping
	// Fs holds the label catalog and the annotation store. Nil means the
	// operating system's filesystem.
	Fs afero.Fs
}

type Bundle struct {
	Datasource *Datasource
	Assigner   *Assigner
	Store      *Store
	Catalog    *Catalog
	// Jobs runs the writes made from the UI that have no result to wait
	// for.
	Jobs *Jobs
}

// NewBundle loads the label catalog and the annotation store and wires up
// the services built on them. Background work stops with ctx.
func NewBundle(ctx context.Context, mutator *stream.Mutator, cfg Config) (Bundle, error) {
	fsys := cfg.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	var (
		catalog *Catalog
		store   *Store
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = OpenCatalog(fsys, cfg.LabelsPath, nil)
		return err
	})
	g.Go(func() error {
		var err error
		store, err = OpenStore(fsys, cfg.StorePath)
		return err
	})
	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	catalog.store = store
	store.RestrictLabels(catalog.Labels())
	ds, err := NewDatasource(mutator, cfg.Mapping, store)
	if err != nil {
		return Bundle{}, fmt.Errorf("failed creating datasource: %w", err)
	}
	return Bundle{
		Datasource: ds,
		Assigner:   NewAssigner(mutator, store),
		Store:      store,
		Catalog:    catalog,
		Jobs:       NewJobs(ctx),
	}, nil
}
