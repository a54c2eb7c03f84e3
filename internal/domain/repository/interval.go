package repository

// Interval is a bar resolution accepted by the chart upstream.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval2m  Interval = "2m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval60m Interval = "60m"
	Interval90m Interval = "90m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
	Interval5d  Interval = "5d"
	Interval1wk Interval = "1wk"
	Interval1mo Interval = "1mo"
	Interval3mo Interval = "3mo"
)

var supportedIntervals = []Interval{
	Interval1m, Interval2m, Interval5m, Interval15m, Interval30m, Interval60m, Interval90m,
	Interval1h, Interval1d, Interval5d, Interval1wk, Interval1mo, Interval3mo,
}

// Intervals lists the supported intervals, shortest first.
func Intervals() []Interval {
	return append([]Interval(nil), supportedIntervals...)
}

// IsValidInterval returns true if iv is a supported interval.
func IsValidInterval(iv Interval) bool {
	for _, s := range supportedIntervals {
		if s == iv {
			return true
		}
	}
	return false
}

// IsLongWindow reports whether the interval uses the caller's year window as-is.
// Other intervals look back at least ten years.
func (iv Interval) IsLongWindow() bool {
	return iv == Interval1d || iv == Interval1wk || iv == Interval1mo
}

// IsDaily reports whether bars of this interval are keyed by calendar date.
func (iv Interval) IsDaily() bool {
	switch iv {
	case Interval1d, Interval5d, Interval1wk, Interval1mo, Interval3mo:
		return true
	default:
		return false
	}
}

// LookbackYears applies the window rule for the interval.
func LookbackYears(iv Interval, years int) int {
	if iv.IsLongWindow() {
		return years
	}
	if years < 10 {
		return 10
	}
	return years
}
