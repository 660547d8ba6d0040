package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

func kinds(p Path) []OpKind {
	out := make([]OpKind, len(p))
	for i, op := range p {
		out[i] = op.Kind
	}
	return out
}

func TestSparklineClosesOnBaseline(t *testing.T) {
	ds := minutesDataset(3)
	frame := Frame{Width: 200, Height: 60, Margins: Margins{Left: 10, Right: 10, Top: 5, Bottom: 5}}
	path := Sparkline(ds.Points, frame)
	require.Equal(t, []OpKind{MoveTo, LineTo, LineTo, LineTo, LineTo, Close}, kinds(path))

	baseline := frame.Plot().Max.Y
	assert.Equal(t, Pt(10, baseline), path[0].Pt)
	assert.Equal(t, Pt(10, baseline), path[1].Pt, "lowest value sits on the baseline")
	assert.Equal(t, Pt(100, 30), path[2].Pt)
	assert.Equal(t, Pt(190, 5), path[3].Pt)
	assert.Equal(t, Pt(190, baseline), path[4].Pt)
}

func TestSparklineSkipsNonFinite(t *testing.T) {
	points := []timeseries.DataPoint{
		{Timestamp: minute(0), Value: 0},
		{Timestamp: minute(1), Value: math.NaN()},
		{Timestamp: minute(2), Value: 2},
	}
	path := Sparkline(points, testFrame)
	require.Equal(t, []OpKind{MoveTo, LineTo, LineTo, LineTo, Close}, kinds(path))
	for _, op := range path {
		assert.True(t, op.Pt.finite())
	}
}

func TestSparklineEmpty(t *testing.T) {
	assert.True(t, Sparkline(nil, testFrame).Empty())
	assert.True(t, Sparkline(minutesDataset(3).Points, Frame{Width: 0, Height: 100}).Empty())
	assert.True(t, Sparkline(minutesDataset(3).Points, Frame{Width: 100, Height: 0}).Empty())
}

func TestSparklineSinglePoint(t *testing.T) {
	path := Sparkline(minutesDataset(1).Points, testFrame)
	require.Len(t, path, 4)
	plot := testFrame.Plot()
	mid := (plot.Min.X + plot.Max.X) / 2
	assert.Equal(t, mid, path[1].Pt.X)
	assert.Equal(t, (plot.Min.Y+plot.Max.Y)/2, path[1].Pt.Y)
}

func TestDashedRect(t *testing.T) {
	path := DashedRect(Rect{Min: Pt(16, 8), Max: Pt(0, 0)}, 4)
	require.Len(t, path, 12)
	for i, op := range path {
		if i%2 == 0 {
			assert.Equal(t, MoveTo, op.Kind)
		} else {
			assert.Equal(t, LineTo, op.Kind)
		}
		assert.True(t, Rect{Max: Pt(16, 8)}.Contains(op.Pt))
	}
	assert.Equal(t, Pt(0, 0), path[0].Pt)
	assert.Equal(t, Pt(4, 0), path[1].Pt)
}

func TestPolylineSkipsNonFinite(t *testing.T) {
	path := Polyline([]Point{Pt(math.NaN(), 1), Pt(1, 1), Pt(2, math.Inf(1)), Pt(3, 3)})
	assert.Equal(t, Path{{Kind: MoveTo, Pt: Pt(1, 1)}, {Kind: LineTo, Pt: Pt(3, 3)}}, path)
}

func TestFrame(t *testing.T) {
	assert.True(t, Frame{}.Empty())
	assert.True(t, Frame{Width: 50, Height: 40, Margins: DefaultMargins}.Empty())
	assert.False(t, testFrame.Empty())
	assert.Equal(t, Rect{Min: Pt(40, 20), Max: Pt(980, 470)}, testFrame.Plot())
}
