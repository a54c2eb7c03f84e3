package models

// Prediction is the scored outcome for the latest feature row of a ticker.
type Prediction struct {
	Ticker        string
	Name          string
	AsOf          string
	Close         float64
	ExpectedValue float64
	Probability   float64
	Model         string
}

// SeriesRow is one OHLC point rendered for charting.
type SeriesRow struct {
	T string  `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
}

// SeriesResult is the chart-ready projection of a price series.
type SeriesResult struct {
	Ticker string
	Name   string
	Frame  string
	Rows   []SeriesRow
}
