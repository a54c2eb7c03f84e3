package util

import (
	"strconv"
	"time"
	_ "time/tzdata"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// ExchangeLocation resolves the exchange's time zone by name. When the name is empty or
// unknown it falls back to a fixed zone at gmtOffsetSeconds, which ignores daylight saving.
func ExchangeLocation(name string, gmtOffsetSeconds int64) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("", int(gmtOffsetSeconds))
}

// ExchangeWallClock converts a unix timestamp into the exchange's local wall clock,
// labelled UTC so that values from different exchanges compare by local time.
func ExchangeWallClock(unix int64, loc *time.Location) time.Time {
	t := time.Unix(unix, 0).In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// TruncateDay drops the clock part of t, keeping its calendar date.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// YearsRange renders a year window as a chart range parameter.
func YearsRange(years int) string {
	if years <= 0 {
		years = 1
	}
	return strconv.Itoa(years) + "y"
}
