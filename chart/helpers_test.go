package chart

import (
	"image/color"
	"time"

	"git.sr.ht/~whereswaldon/labelscope/scale"
	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func minute(m int) time.Time {
	return t0.Add(time.Duration(m) * time.Minute)
}

// minutesDataset has one point per minute from 0 through n-1, valued by its
// index.
func minutesDataset(n int) *timeseries.Dataset {
	points := make([]timeseries.DataPoint, n)
	for i := range points {
		points[i] = timeseries.DataPoint{Timestamp: minute(i), Value: float64(i)}
	}
	return &timeseries.Dataset{ID: "minutes", Name: "minutes.csv", Points: timeseries.Index(points)}
}

var testLabels = []timeseries.Label{
	{ID: "label-A", Name: "Anomaly", Color: color.NRGBA{R: 0xff, A: 0xff}},
	{ID: "label-B", Name: "Baseline", Color: color.NRGBA{G: 0xff, A: 0xff}},
}

var testFrame = Frame{Width: 1000, Height: 500, Margins: DefaultMargins}

var overviewFrame = Frame{Width: 1000, Height: 80, Margins: Margins{Top: 4, Right: 20, Bottom: 4, Left: 40}}

// xOf returns the pixel column of instant t when the whole dataset spans the
// plot area of frame.
func xOf(ds *timeseries.Dataset, frame Frame, t time.Time) float64 {
	bounds, _ := ds.Bounds()
	plot := frame.Plot()
	return scale.NewTime(bounds.Start, bounds.End, plot.Min.X, plot.Max.X).ToPixel(t)
}

type recordingAssigner struct {
	requests []LabelAssignment
	err      error
}

func (r *recordingAssigner) SubmitLabelAssignment(req LabelAssignment) error {
	r.requests = append(r.requests, req)
	return r.err
}

func ids(ms ...int) []timeseries.PointID {
	out := make([]timeseries.PointID, len(ms))
	for i, m := range ms {
		out[i] = timeseries.MakeID(minute(m), 0)
	}
	return out
}

func strIDs(ms ...int) []string {
	out := make([]string, len(ms))
	for i, id := range ids(ms...) {
		out[i] = string(id)
	}
	return out
}
