package models

import (
	"math"
	"time"
)

// Bar is one OHLCV session. Missing upstream values are NaN.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// HasOHLC reports whether all four prices are defined.
func (b Bar) HasOHLC() bool {
	return !math.IsNaN(b.Open) && !math.IsNaN(b.High) && !math.IsNaN(b.Low) && !math.IsNaN(b.Close)
}

// SeriesMeta carries descriptive fields returned alongside the bars.
type SeriesMeta struct {
	Currency     string
	ExchangeName string
	Timezone     string
	ShortName    string
	LongName     string
}

// PriceSeries is an ascending, date-unique sequence of bars for one ticker and interval.
// Dates are exchange-local wall clock times labelled UTC.
type PriceSeries struct {
	Ticker    string
	Interval  string
	Bars      []Bar
	HasVolume bool
	Meta      SeriesMeta
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Lookup is the outcome of a market data fetch. Not finding data is a normal outcome,
// so it is carried as a value instead of an error.
type Lookup struct {
	Series *PriceSeries
	Reason error
}

// Found reports whether the lookup holds at least one bar.
func (l Lookup) Found() bool { return l.Series.Len() > 0 }

// Absent builds a not-found lookup with an informational reason.
func Absent(reason error) Lookup { return Lookup{Reason: reason} }

// Present wraps a fetched series.
func Present(s *PriceSeries) Lookup { return Lookup{Series: s} }
