package backend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

// ErrNoColumn is returned when a CSV header lacks a column the mapping asks
// for.
var ErrNoColumn = errors.New("no such column")

var (
	timestampHeadings = []string{"timestamp", "time", "date", "datetime", "ts"}
	valueHeadings     = []string{"value", "val", "y", "reading"}
)

// Mapping names the CSV columns holding timestamps and values. An empty name
// is detected from the header.
type Mapping struct {
	Timestamp string
	Value     string
}

func normalizeHeading(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

// Resolve returns the indices of the timestamp and value columns in
// headings. Without configured names, a well known timestamp heading (or the
// first column) holds timestamps, and a well known value heading (or the
// first other column) holds values.
func (m Mapping) Resolve(headings []string) (ts, val int, err error) {
	normalized := make([]string, len(headings))
	for i, h := range headings {
		normalized[i] = normalizeHeading(h)
	}
	find := func(name string, candidates []string, skip int) int {
		if name != "" {
			return slices.Index(normalized, normalizeHeading(name))
		}
		for i, h := range normalized {
			if i != skip && slices.Contains(candidates, h) {
				return i
			}
		}
		return -1
	}
	ts = find(m.Timestamp, timestampHeadings, -1)
	if ts < 0 {
		if m.Timestamp != "" {
			return 0, 0, fmt.Errorf("timestamp column %q: %w", m.Timestamp, ErrNoColumn)
		}
		ts = 0
	}
	val = find(m.Value, valueHeadings, ts)
	if val < 0 {
		if m.Value != "" {
			return 0, 0, fmt.Errorf("value column %q: %w", m.Value, ErrNoColumn)
		}
		for i := range headings {
			if i != ts {
				val = i
				break
			}
		}
	}
	if val < 0 || val == ts {
		return 0, 0, fmt.Errorf("value column: %w", ErrNoColumn)
	}
	return ts, val, nil
}

// ReadCSV reads every row of r as raw observations. The first row
// is the header.
func ReadCSV(r io.Reader, m Mapping) ([]timeseries.RawPoint, error) {
	csvReader := csv.NewReader(NewLineReader(r))
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	csvReader.ReuseRecord = true
	headings, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed reading CSV header: %w", err)
	}
	ts, val, err := m.Resolve(headings)
	if err != nil {
		return nil, err
	}
	var raw []timeseries.RawPoint
	for {
		rec, err := csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return raw, nil
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// Keep the row count honest; the row is dropped as malformed.
				raw = append(raw, timeseries.RawPoint{})
				continue
			}
			return raw, fmt.Errorf("failed reading CSV data: %w", err)
		}
		var p timeseries.RawPoint
		if ts < len(rec) {
			p.Timestamp = rec[ts]
		}
		if val < len(rec) {
			p.Value = rec[val]
		}
		raw = append(raw, p)
	}
}
