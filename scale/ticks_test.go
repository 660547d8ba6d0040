package scale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var day0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func TestTickCount(t *testing.T) {
	type testcase struct {
		name     string
		end      time.Time
		expected int
	}
	for _, tc := range []testcase{
		{name: "half hour", end: day0.Add(30 * time.Minute), expected: 1},
		{name: "five hours", end: day0.Add(5 * time.Hour), expected: 5},
		{name: "one day", end: day0.Add(day), expected: 24},
		{name: "two days", end: day0.Add(2 * day), expected: 24},
		{name: "ten days", end: day0.Add(10 * day), expected: 10},
		{name: "fourteen days", end: day0.Add(14 * day), expected: 14},
		{name: "thirty days", end: day0.Add(30 * day), expected: 5},
		{name: "ninety days", end: day0.Add(90 * day), expected: 3},
		{name: "four hundred days", end: day0.Add(400 * day), expected: 5},
		{name: "ten years", end: day0.Add(3650 * day), expected: 10},
		{name: "fifty years", end: day0.Add(50 * 365 * day), expected: 12},
		{name: "empty span", end: day0, expected: FallbackTicks},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, TickCount(day0, tc.end))
			assert.Equal(t, tc.expected, TickCount(tc.end, day0), "reversed span")
		})
	}
}

func TestTickCountBounds(t *testing.T) {
	assert.LessOrEqual(t, TickCount(day0, day0.Add(day)), 24)
	n := TickCount(day0, day0.Add(400*day))
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 12)
}

func TestGranularityLayouts(t *testing.T) {
	assert.Equal(t, Hourly, GranularityOf(day0, day0.Add(3*time.Hour)))
	assert.Equal(t, "Jan 2 15:04", TimeLayout(day0, day0.Add(3*time.Hour)))
	assert.Equal(t, Weekly, GranularityOf(day0, day0.Add(40*day)))
	assert.Equal(t, "Jan 2006", TimeLayout(day0, day0.Add(200*day)))
	assert.Equal(t, "2006", TimeLayout(day0, day0.Add(2000*day)))
}

func TestTimeTicks(t *testing.T) {
	ticks := TimeTicks(day0, day0.Add(10*day), 11)
	assert.Len(t, ticks, 11)
	for i, tick := range ticks {
		assert.True(t, tick.Equal(day0.Add(time.Duration(i)*day)), "tick %d is %v", i, tick)
	}
	assert.Nil(t, TimeTicks(day0, day0.Add(day), 0))
	assert.Equal(t, []time.Time{day0}, TimeTicks(day0, day0, 12))
}

func TestValueTicks(t *testing.T) {
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10}, ValueTicks(0, 10, 5))
	assert.Equal(t, []float64{2, 4, 6, 8}, ValueTicks(9.5, 0.5, 5))
	assert.Equal(t, []float64{-1, -0.5, 0, 0.5, 1}, ValueTicks(-1, 1, 4))
	assert.Equal(t, []float64{3}, ValueTicks(3, 3, 5))
	assert.Nil(t, ValueTicks(0, 1, 0))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "4", FormatValue(4, 2))
	assert.Equal(t, "0.5", FormatValue(0.5, 0.5))
	assert.Equal(t, "0.25", FormatValue(0.25, 0.05))
}
