package timeseries

import (
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func minutes(n int) Dataset {
	points := make([]DataPoint, n)
	for i := range points {
		points[i] = DataPoint{Timestamp: epoch.Add(time.Duration(i) * time.Minute), Value: float64(i)}
	}
	return Dataset{ID: "minutes", Name: "minutes", Points: Index(points)}
}

func at(m int) time.Time {
	return epoch.Add(time.Duration(m) * time.Minute)
}

func TestNewTimeRangeOrders(t *testing.T) {
	r := NewTimeRange(at(5), at(2))
	assert.Equal(t, at(2), r.Start)
	assert.Equal(t, at(5), r.End)
	assert.Equal(t, 3*time.Minute, r.Duration())
	assert.True(t, r.Contains(at(2)))
	assert.True(t, r.Contains(at(5)))
	assert.False(t, r.Contains(at(6)))
}

func TestClamp(t *testing.T) {
	bounds := NewTimeRange(at(0), at(9))
	type testcase struct {
		name string
		in   TimeRange
		want TimeRange
	}
	for _, tc := range []testcase{
		{name: "inside", in: NewTimeRange(at(2), at(4)), want: NewTimeRange(at(2), at(4))},
		{name: "overhang left", in: NewTimeRange(at(-5), at(4)), want: NewTimeRange(at(0), at(4))},
		{name: "overhang right", in: NewTimeRange(at(3), at(40)), want: NewTimeRange(at(3), at(9))},
		{name: "covering", in: NewTimeRange(at(-5), at(40)), want: bounds},
		{name: "entirely before", in: NewTimeRange(at(-9), at(-5)), want: NewTimeRange(at(0), at(0))},
		{name: "entirely after", in: NewTimeRange(at(12), at(15)), want: NewTimeRange(at(9), at(9))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Clamp(bounds)
			assert.Equal(t, tc.want, got)
			assert.False(t, got.Start.Before(bounds.Start))
			assert.False(t, got.End.After(bounds.End))
		})
	}
}

func TestDatasetBoundsAndFilter(t *testing.T) {
	ds := minutes(10)
	bounds, ok := ds.Bounds()
	require.True(t, ok)
	assert.Equal(t, NewTimeRange(at(0), at(9)), bounds)

	assert.Len(t, ds.Filter(nil), 10)

	r := NewTimeRange(at(2), at(5))
	assert.Equal(t, []float64{2, 3, 4, 5}, values(ds.Filter(&r)))

	between := NewTimeRange(at(2).Add(time.Second), at(2).Add(2*time.Second))
	assert.Empty(t, ds.Filter(&between))

	_, ok = Dataset{}.Bounds()
	assert.False(t, ok)
	assert.True(t, Dataset{}.Empty())
}

func TestDatasetLookup(t *testing.T) {
	ds := minutes(3)
	p, ok := ds.Lookup(MakeID(at(1), 0))
	require.True(t, ok)
	assert.Equal(t, float64(1), p.Value)
	_, ok = ds.Lookup("missing")
	assert.False(t, ok)
}

func TestValueExtent(t *testing.T) {
	lo, hi, ok := ValueExtent([]DataPoint{{Value: 3}, {Value: -1}, {Value: 7}})
	require.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)
	_, _, ok = ValueExtent(nil)
	assert.False(t, ok)

	lo, hi, ok = ValueExtent([]DataPoint{{Value: math.NaN()}, {Value: 2}, {Value: math.Inf(-1)}})
	require.True(t, ok)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 2.0, hi)
}

func TestStatusText(t *testing.T) {
	for _, s := range Statuses {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	var s Status
	assert.Error(t, s.UnmarshalText([]byte("archived")))
	assert.Equal(t, StatusReady, s)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#a4633A")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xa4, G: 0x63, B: 0x3a, A: 0xff}, c)
	assert.Equal(t, "#a4633a", HexColor(c))

	for _, bad := range []string{"a4633a", "#a4633", "#zzzzzz", ""} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}
