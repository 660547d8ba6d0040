package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

// reloadDelay batches bursts of change notifications for a file being
// written to.
const reloadDelay = 150 * time.Millisecond

// Session is one opened dataset. Each time the file behind it changes the
// session is re-emitted with a higher Revision and the dataset reloaded.
type Session struct {
	ID string
	// Path is empty for data that did not come from a named file.
	Path     string
	Revision int
	Dataset  timeseries.Dataset
	// Dropped counts malformed rows left out of the dataset.
	Dropped int
	Err     error
	// Loaded is false until the first read finishes.
	Loaded bool
}

type Datasource struct {
	pool    *stream.MutationPool[string, Session]
	mapping Mapping
	store   *Store
	cache   *datasetCache
}

func NewDatasource(mutator *stream.Mutator, mapping Mapping, store *Store) (*Datasource, error) {
	cache, err := newDatasetCache(defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed creating dataset cache: %w", err)
	}
	ds := &Datasource{
		pool:    stream.NewMutationPool[string, Session](mutator),
		mapping: mapping,
		store:   store,
		cache:   cache,
	}
	return ds, nil
}

func (d *Datasource) SessionStream(ctx context.Context) <-chan map[string]*stream.Mutation[Session] {
	return d.pool.Stream(ctx)
}

// Sessions streams every open session, in the order they were opened, each
// time any of them changes.
func (d *Datasource) Sessions(ctx context.Context) <-chan []Session {
	out := make(chan []Session)
	go func() {
		defer close(out)
		updates := make(chan Session)
		latest := make(map[string]Session)
		following := make(map[string]bool)
		pools := d.SessionStream(ctx)
		var snapshot []Session
		for {
			var send chan<- []Session
			if snapshot != nil {
				send = out
			}
			select {
			case <-ctx.Done():
				return
			case mutations, ok := <-pools:
				if !ok {
					pools = nil
					continue
				}
				for id, m := range mutations {
					if following[id] {
						continue
					}
					following[id] = true
					go forward(ctx, m.Stream(ctx), updates)
				}
			case s := <-updates:
				latest[s.ID] = s
				snapshot = orderSessions(latest)
			case send <- snapshot:
				snapshot = nil
			}
		}
	}()
	return out
}

func forward(ctx context.Context, in <-chan Session, out chan<- Session) {
	for s := range in {
		select {
		case out <- s:
		case <-ctx.Done():
			return
		}
	}
}

// orderSessions lists sessions by ID, which sorts them by opening time.
func orderSessions(sessions map[string]Session) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Session) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func generateSessionID() string {
	return strings.Replace(time.Now().UTC().Format("20060102150405.000000000"), ".", "", 1)
}

// DatasetID is the identity under which annotations for the file at path
// are stored.
func DatasetID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(path)
}

// LoadFromPath opens the CSV file at path and follows changes to it.
func (d *Datasource) LoadFromPath(path string) string {
	id := generateSessionID()
	d.recordFileSession(id, path)
	return id
}

// LoadFromFile lets the user choose a CSV file. It blocks until the chooser
// closes, so call it from its own goroutine.
func (d *Datasource) LoadFromFile(expl *explorer.Explorer) (string, error) {
	file, err := expl.ChooseFile(".csv", ".txt")
	if err != nil {
		return "", err
	}
	if f, ok := file.(interface{ Name() string }); ok && filepath.IsAbs(f.Name()) {
		file.Close()
		return d.LoadFromPath(f.Name()), nil
	}
	return d.LoadFromStream(file), nil
}

// LoadFromStream reads a dataset once from r, which is closed afterward.
func (d *Datasource) LoadFromStream(r io.ReadCloser) string {
	id := generateSessionID()
	stream.Mutate(d.pool, id, func(ctx context.Context) <-chan Session {
		out := make(chan Session, 1)
		go func() {
			defer close(out)
			defer r.Close()
			session := Session{ID: id}
			session.Dataset.ID = "stream:" + id
			session.Dataset.Name = "Dataset " + id
			if raw, err := ReadCSV(r, d.mapping); err != nil {
				d.fail(&session, err)
			} else {
				d.apply(&session, parse(raw))
			}
			select {
			case out <- session:
			case <-ctx.Done():
			}
		}()
		return out
	})
	return id
}

func (d *Datasource) recordFileSession(sessionID, path string) {
	stream.Mutate(d.pool, sessionID, func(ctx context.Context) <-chan Session {
		out := make(chan Session, 1)
		go func() {
			defer close(out)
			session := Session{ID: sessionID, Path: path}
			session.Dataset.ID = DatasetID(path)
			session.Dataset.Name = filepath.Base(path)
			emit := func() bool {
				select {
				case out <- session:
					return true
				case <-ctx.Done():
					return false
				}
			}
			// Watch the directory so replacing the file by rename is seen
			// as well as writes in place. The watch starts before the first
			// read so no change can slip in between.
			watcher, err := fsnotify.NewWatcher()
			if err == nil {
				if err = watcher.Add(filepath.Dir(path)); err != nil {
					watcher.Close()
				}
			}
			if err != nil {
				log.Warn("not following dataset changes", "path", path, "err", err)
				watcher = nil
			} else {
				defer watcher.Close()
			}

			d.loadFile(&session)
			if !emit() || watcher == nil {
				<-ctx.Done()
				return
			}

			var reload <-chan time.Time
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-watcher.Events:
					if !ok {
						return
					}
					if filepath.Clean(ev.Name) != filepath.Clean(path) {
						continue
					}
					if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
						reload = time.After(reloadDelay)
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					log.Warn("file watcher failed", "path", path, "err", err)
				case <-reload:
					reload = nil
					before := session
					d.loadFile(&session)
					if !reloadChanged(before, session) {
						continue
					}
					session.Revision++
					log.Info("reloaded dataset", "path", path, "points", len(session.Dataset.Points), "revision", session.Revision)
					if !emit() {
						return
					}
				}
			}
		}()
		return out
	})
}

// loadFile reads the session's file, reusing an earlier parse of the same
// file contents when there is one.
func (d *Datasource) loadFile(session *Session) {
	info, err := os.Stat(session.Path)
	if err != nil {
		d.fail(session, fmt.Errorf("failed opening dataset: %w", err))
		return
	}
	key := cacheKey(session.Path, info)
	if l, ok := d.cache.lookup(key); ok {
		d.apply(session, l)
		return
	}
	f, err := os.Open(session.Path)
	if err != nil {
		d.fail(session, fmt.Errorf("failed opening dataset: %w", err))
		return
	}
	defer f.Close()
	raw, err := ReadCSV(f, d.mapping)
	if err != nil {
		d.fail(session, err)
		return
	}
	l := parse(raw)
	d.cache.store(key, l)
	d.apply(session, l)
}

func parse(raw []timeseries.RawPoint) loaded {
	points, dropped := timeseries.Load(raw)
	return loaded{points: points, dropped: dropped}
}

func (d *Datasource) fail(session *Session, err error) {
	log.Error("failed loading dataset", "dataset", session.Dataset.Name, "err", err)
	session.Err = err
	session.Loaded = true
}

func (d *Datasource) apply(session *Session, l loaded) {
	session.Err = nil
	session.Loaded = true
	session.Dataset.Points = l.points
	session.Dropped = l.dropped
	if d.store != nil {
		session.Dataset.Status = d.store.Status(session.Dataset.ID)
	}
	if l.dropped > 0 {
		log.Warn("dropped malformed rows", "dataset", session.Dataset.Name, "rows", l.dropped)
	}
}

// reloadChanged reports whether a reload turned prev into something worth
// showing: a failure, a recovery from one, or different points.
func reloadChanged(prev, next Session) bool {
	if prev.Err != nil || next.Err != nil {
		return true
	}
	return !samePoints(prev.Dataset.Points, next.Dataset.Points)
}

func samePoints(a, b []timeseries.DataPoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Value != b[i].Value {
			return false
		}
	}
	return true
}
