package scale

import (
	"math"
	"strconv"
	"time"

	"golang.org/x/exp/constraints"
)

// FallbackTicks is the tick count used when the visible span is empty, which
// happens for empty and single-point datasets.
const FallbackTicks = 12

const day = 24 * time.Hour

// Granularity is the calendar unit an axis is labeled in.
type Granularity uint8

const (
	Hourly Granularity = iota
	Daily
	Weekly
	Monthly
	Quarterly
	Yearly
)

func (g Granularity) String() string {
	switch g {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		return "unknown"
	}
}

func ceil[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Ceil(float64(a)))
}

func span(start, end time.Time) time.Duration {
	d := end.Sub(start)
	if d < 0 {
		d = -d
	}
	return d
}

// days returns the span in whole days, rounded up.
func days(d time.Duration) int {
	return int(ceil(float64(d) / float64(day)))
}

// GranularityOf picks the labeling unit for the span between two instants.
func GranularityOf(start, end time.Time) Granularity {
	switch d := days(span(start, end)); {
	case d <= 2:
		return Hourly
	case d <= 14:
		return Daily
	case d <= 60:
		return Weekly
	case d <= 365:
		return Monthly
	case d <= 365*4:
		return Quarterly
	default:
		return Yearly
	}
}

// TickCount returns how many ticks the time axis should carry for the visible
// span between start and end.
func TickCount(start, end time.Time) int {
	s := span(start, end)
	if s == 0 {
		return FallbackTicks
	}
	d := days(s)
	switch GranularityOf(start, end) {
	case Hourly:
		return min(24, int(ceil(s.Hours())))
	case Daily:
		return d
	case Weekly:
		return int(ceil(float64(d) / 7))
	case Monthly:
		return int(ceil(float64(d) / 30))
	case Quarterly:
		return int(ceil(float64(d) / 91.25))
	default:
		return min(12, int(ceil(float64(d)/365)))
	}
}

// TimeLayout returns the time.Format layout used for tick labels over the
// span between start and end.
func TimeLayout(start, end time.Time) string {
	switch GranularityOf(start, end) {
	case Hourly:
		return "Jan 2 15:04"
	case Daily, Weekly:
		return "Jan 2"
	case Monthly, Quarterly:
		return "Jan 2006"
	default:
		return "2006"
	}
}

// TimeTicks returns n instants evenly spaced over [start,end], including both
// ends when n > 1.
func TimeTicks(start, end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	if end.Before(start) {
		start, end = end, start
	}
	if n == 1 || start.Equal(end) {
		return []time.Time{start}
	}
	step := float64(end.Sub(start)) / float64(n-1)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(math.Round(step * float64(i))))
	}
	out[n-1] = end
	return out
}

// niceStep rounds raw up to 1, 2 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)
	const eps = 1e-9
	switch frac := raw / base; {
	case frac <= 1+eps:
		return base
	case frac <= 2+eps:
		return 2 * base
	case frac <= 5+eps:
		return 5 * base
	default:
		return 10 * base
	}
}

// ValueTicks returns round tick values inside [lo,hi], aiming for about n of
// them. The step between ticks is 1, 2 or 5 times a power of ten. A
// degenerate range yields the single value lo.
func ValueTicks(lo, hi float64, n int) []float64 {
	if n <= 0 || math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return []float64{lo}
	}
	step := niceStep((hi - lo) / float64(n))
	first := math.Ceil(lo/step) * step
	out := []float64{}
	// The bound guards against runaway loops from float error.
	for i := 0; i <= 3*n+1; i++ {
		v := math.Round((first+float64(i)*step)/step) * step
		if v > hi+step*1e-9 {
			break
		}
		if v == 0 {
			v = 0 // normalize -0
		}
		out = append(out, v)
	}
	return out
}

// FormatValue formats a tick value with just enough decimals for ticks that
// are step apart.
func FormatValue(v, step float64) string {
	decimals := 0
	if step > 0 && !math.IsInf(step, 0) {
		decimals = max(0, int(-math.Floor(math.Log10(step))))
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
