package backend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

func TestMappingResolve(t *testing.T) {
	type testcase struct {
		name     string
		mapping  Mapping
		headings []string
		ts, val  int
		err      bool
	}
	for _, tc := range []testcase{
		{name: "detected", headings: []string{"value", "timestamp"}, ts: 1, val: 0},
		{name: "detected case and space", headings: []string{" Time ", "Other", "VALUE"}, ts: 0, val: 2},
		{name: "byte order mark", headings: []string{"\ufefftimestamp", "value"}, ts: 0, val: 1},
		{name: "fallback to positions", headings: []string{"when", "reading_c", "extra"}, ts: 0, val: 1},
		{name: "configured", mapping: Mapping{Timestamp: "recorded_at", Value: "temp"}, headings: []string{"id", "temp", "recorded_at"}, ts: 2, val: 1},
		{name: "configured missing", mapping: Mapping{Value: "pressure"}, headings: []string{"timestamp", "temp"}, err: true},
		{name: "configured timestamp missing", mapping: Mapping{Timestamp: "at"}, headings: []string{"timestamp", "temp"}, err: true},
		{name: "single column", headings: []string{"timestamp"}, err: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ts, val, err := tc.mapping.Resolve(tc.headings)
			if tc.err {
				assert.ErrorIs(t, err, ErrNoColumn)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ts, ts)
			assert.Equal(t, tc.val, val)
		})
	}
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"timestamp, value, note",
		"2024-01-01T00:00:00Z, 1.5, ok",
		"2024-01-01T00:01:00Z",
		"2024-01-01T00:02:00Z, 2.5",
		"",
	}, "\n")
	raw, err := ReadCSV(strings.NewReader(input), Mapping{})
	require.NoError(t, err)
	assert.Equal(t, []timeseries.RawPoint{
		{Timestamp: "2024-01-01T00:00:00Z", Value: "1.5"},
		{Timestamp: "2024-01-01T00:01:00Z"},
		{Timestamp: "2024-01-01T00:02:00Z", Value: "2.5"},
	}, raw)

	points, dropped := timeseries.Load(raw)
	assert.Len(t, points, 2)
	assert.Equal(t, 1, dropped)
}

func TestReadCSVEmpty(t *testing.T) {
	raw, err := ReadCSV(strings.NewReader(""), Mapping{})
	require.NoError(t, err)
	assert.Empty(t, raw)

	raw, err = ReadCSV(strings.NewReader("timestamp,value\n"), Mapping{})
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestReadCSVMalformedQuote(t *testing.T) {
	input := "timestamp,value\n2024-01-01T00:00:00Z,1\n\"2024-01-01T00:01:00Z\"x,2\n2024-01-01T00:02:00Z,3\n"
	raw, err := ReadCSV(strings.NewReader(input), Mapping{})
	require.NoError(t, err)
	require.Len(t, raw, 3)
	points, dropped := timeseries.Load(raw)
	assert.Len(t, points, 2)
	assert.Equal(t, 1, dropped)
}

func TestReadCSVMissingConfiguredColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2\n"), Mapping{Value: "c"})
	assert.ErrorIs(t, err, ErrNoColumn)
}
