package models

import (
	"math"
	"time"
)

// BarPayload is the JSON form of a Bar. Undefined values travel as null.
type BarPayload struct {
	T time.Time `json:"t"`
	O *float64  `json:"o"`
	H *float64  `json:"h"`
	L *float64  `json:"l"`
	C *float64  `json:"c"`
	V *float64  `json:"v"`
}

// SeriesPayload is the JSON form of a PriceSeries, shared by the cache and the bar topic.
type SeriesPayload struct {
	Ticker    string       `json:"ticker"`
	Interval  string       `json:"interval"`
	HasVolume bool         `json:"has_volume"`
	Meta      SeriesMeta   `json:"meta"`
	FetchedAt time.Time    `json:"fetched_at"`
	Bars      []BarPayload `json:"bars"`
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// NewSeriesPayload encodes s.
func NewSeriesPayload(s *PriceSeries) SeriesPayload {
	p := SeriesPayload{
		Ticker:    s.Ticker,
		Interval:  s.Interval,
		HasVolume: s.HasVolume,
		Meta:      s.Meta,
		FetchedAt: s.FetchedAt,
		Bars:      make([]BarPayload, len(s.Bars)),
	}
	for i, b := range s.Bars {
		p.Bars[i] = BarPayload{T: b.Date, O: optional(b.Open), H: optional(b.High), L: optional(b.Low), C: optional(b.Close), V: optional(b.Volume)}
	}
	return p
}

// Series decodes the payload back into a PriceSeries.
func (p SeriesPayload) Series() *PriceSeries {
	s := &PriceSeries{
		Ticker:    p.Ticker,
		Interval:  p.Interval,
		HasVolume: p.HasVolume,
		Meta:      p.Meta,
		FetchedAt: p.FetchedAt,
		Bars:      make([]Bar, len(p.Bars)),
	}
	for i, b := range p.Bars {
		s.Bars[i] = Bar{Date: b.T, Open: orNaN(b.O), High: orNaN(b.H), Low: orNaN(b.L), Close: orNaN(b.C), Volume: orNaN(b.V)}
	}
	return s
}
