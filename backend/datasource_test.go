package backend

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"git.sr.ht/~gioverse/skel/stream"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

func testDatasource(t *testing.T, store *Store) *Datasource {
	t.Helper()
	cache, err := newDatasetCache(4)
	require.NoError(t, err)
	return &Datasource{cache: cache, store: store}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,value\n2024-01-01T00:01:00Z,2\n2024-01-01T00:00:00Z,1\nbad,3\n"), 0o644))

	store := openTestStore(t, afero.NewMemMapFs())
	require.NoError(t, store.SetStatus(DatasetID(path), timeseries.StatusInProgress))
	d := testDatasource(t, store)

	session := Session{Path: path}
	session.Dataset.ID = DatasetID(path)
	d.loadFile(&session)
	require.NoError(t, session.Err)
	assert.True(t, session.Loaded)
	assert.Equal(t, 1, session.Dropped)
	require.Len(t, session.Dataset.Points, 2)
	assert.Equal(t, 1.0, session.Dataset.Points[0].Value)
	assert.Equal(t, timeseries.StatusInProgress, session.Dataset.Status)
	assert.Equal(t, 1, d.cache.Len())

	// Unchanged contents come from the cache.
	again := Session{Path: path}
	d.loadFile(&again)
	assert.Equal(t, session.Dataset.Points, again.Dataset.Points)
	assert.Equal(t, 1, d.cache.Len())

	// New contents are parsed afresh.
	require.NoError(t, os.WriteFile(path, []byte("time,value\n2024-01-01T00:00:00Z,1\n2024-01-01T00:01:00Z,2\n2024-01-01T00:02:00Z,3\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	d.loadFile(&again)
	require.NoError(t, again.Err)
	assert.Len(t, again.Dataset.Points, 3)
	assert.Equal(t, 0, again.Dropped)
	assert.False(t, samePoints(session.Dataset.Points, again.Dataset.Points))
}

func TestLoadFileMissing(t *testing.T) {
	d := testDatasource(t, nil)
	session := Session{Path: filepath.Join(t.TempDir(), "missing.csv")}
	d.loadFile(&session)
	assert.Error(t, session.Err)
	assert.True(t, session.Loaded)
	assert.True(t, session.Dataset.Empty())
}

func TestLoadFileBadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,value\n"), 0o644))
	d := testDatasource(t, nil)
	d.mapping = Mapping{Value: "pressure"}
	session := Session{Path: path}
	d.loadFile(&session)
	assert.ErrorIs(t, session.Err, ErrNoColumn)
}

func TestDatasetIDIsAbsolute(t *testing.T) {
	id := DatasetID("some/relative.csv")
	assert.True(t, filepath.IsAbs(filepath.FromSlash(id)))
	assert.Equal(t, id, DatasetID(id))
}

func TestGenerateSessionID(t *testing.T) {
	id := generateSessionID()
	assert.Len(t, id, len("20060102150405000000000"))
	assert.NotContains(t, id, ".")
}

func TestOrderSessions(t *testing.T) {
	sessions := map[string]Session{
		"20240102000000000000000": {ID: "20240102000000000000000"},
		"20240101000000000000000": {ID: "20240101000000000000000"},
		"20240101000000000000001": {ID: "20240101000000000000001"},
	}
	ordered := orderSessions(sessions)
	require.Len(t, ordered, 3)
	assert.Equal(t, "20240101000000000000000", ordered[0].ID)
	assert.Equal(t, "20240101000000000000001", ordered[1].ID)
	assert.Equal(t, "20240102000000000000000", ordered[2].ID)
	assert.Empty(t, orderSessions(nil))
}

func TestReloadChanged(t *testing.T) {
	points := timeseries.Index([]timeseries.DataPoint{{Timestamp: time.Unix(0, 0), Value: 1}})
	ok := Session{Loaded: true, Dataset: timeseries.Dataset{Points: points}}
	failed := ok
	failed.Err = errors.New("bad header")

	assert.False(t, reloadChanged(ok, ok), "identical contents")
	assert.True(t, reloadChanged(ok, failed))
	assert.True(t, reloadChanged(failed, failed))
	assert.True(t, reloadChanged(failed, ok), "recovering with the same points as before the failure")

	more := ok
	more.Dataset.Points = timeseries.Index(append(slices.Clone(points), timeseries.DataPoint{Timestamp: time.Unix(60, 0), Value: 2}))
	assert.True(t, reloadChanged(ok, more))
}

const (
	twoRows   = "time,value\n2024-01-01T00:00:00Z,1\n2024-01-01T00:01:00Z,2\n"
	threeRows = twoRows + "2024-01-01T00:02:00Z,3\n"
	fourRows  = threeRows + "2024-01-01T00:03:00Z,4\n"
)

// liveDatasource returns a datasource running on its own mutator and the
// stream of its sessions.
func liveDatasource(t *testing.T, mapping Mapping) (*Datasource, <-chan []Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	d, err := NewDatasource(stream.NewMutator(ctx, time.Second), mapping, nil)
	require.NoError(t, err)
	return d, d.Sessions(ctx)
}

// waitSession reads snapshots until one holds a session matching match.
func waitSession(t *testing.T, sessions <-chan []Session, match func(Session) bool) Session {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case list, ok := <-sessions:
			if !ok {
				t.Fatal("session stream closed")
			}
			for _, s := range list {
				if match(s) {
					return s
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for session")
		}
	}
}

func TestFileSessionFollowsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.csv")
	require.NoError(t, os.WriteFile(path, []byte(twoRows), 0o644))
	d, sessions := liveDatasource(t, Mapping{})
	id := d.LoadFromPath(path)

	first := waitSession(t, sessions, func(s Session) bool { return s.ID == id && s.Loaded })
	require.NoError(t, first.Err)
	assert.Equal(t, 0, first.Revision)
	assert.Len(t, first.Dataset.Points, 2)
	assert.Equal(t, DatasetID(path), first.Dataset.ID)

	require.NoError(t, os.WriteFile(path, []byte(threeRows), 0o644))
	grown := waitSession(t, sessions, func(s Session) bool { return s.ID == id && s.Revision > 0 })
	assert.Equal(t, 1, grown.Revision)
	assert.Len(t, grown.Dataset.Points, 3)

	// Rewriting the same rows is not a new revision.
	require.NoError(t, os.WriteFile(path, []byte(threeRows), 0o644))
	time.Sleep(4 * reloadDelay)
	require.NoError(t, os.WriteFile(path, []byte(fourRows), 0o644))
	next := waitSession(t, sessions, func(s Session) bool { return s.ID == id && s.Revision > 1 })
	assert.Equal(t, 2, next.Revision)
	assert.Len(t, next.Dataset.Points, 4)
}

func TestFileSessionRecoversFromFailedReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.csv")
	require.NoError(t, os.WriteFile(path, []byte(twoRows), 0o644))
	d, sessions := liveDatasource(t, Mapping{Timestamp: "time", Value: "value"})
	id := d.LoadFromPath(path)
	waitSession(t, sessions, func(s Session) bool { return s.ID == id && s.Loaded })

	require.NoError(t, os.WriteFile(path, []byte("when,reading\n2024-01-01T00:00:00Z,1\n"), 0o644))
	failed := waitSession(t, sessions, func(s Session) bool { return s.ID == id && s.Err != nil })
	assert.ErrorIs(t, failed.Err, ErrNoColumn)

	require.NoError(t, os.WriteFile(path, []byte(twoRows), 0o644))
	recovered := waitSession(t, sessions, func(s Session) bool { return s.ID == id && s.Revision > failed.Revision })
	require.NoError(t, recovered.Err)
	assert.Len(t, recovered.Dataset.Points, 2)
}

func TestLoadFromStream(t *testing.T) {
	d, sessions := liveDatasource(t, Mapping{})
	id := d.LoadFromStream(io.NopCloser(strings.NewReader(twoRows + "oops,x\n")))

	s := waitSession(t, sessions, func(s Session) bool { return s.ID == id && s.Loaded })
	require.NoError(t, s.Err)
	assert.Empty(t, s.Path)
	assert.Equal(t, "stream:"+id, s.Dataset.ID)
	assert.Len(t, s.Dataset.Points, 2)
	assert.Equal(t, 1, s.Dropped)
}
