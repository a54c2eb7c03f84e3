package repository

import (
	"context"

	"StockPredictor/internal/domain/models"
)

// Query selects a trailing window of bars for one ticker.
// Unless FixedWindow is set, Years is widened by LookbackYears for the interval.
type Query struct {
	Ticker      string
	Interval    Interval
	Years       int
	FixedWindow bool
}

// Window returns the effective lookback in years.
func (q Query) Window() int {
	if q.FixedWindow {
		return q.Years
	}
	return LookbackYears(q.Interval, q.Years)
}

// MarketData fetches price series. A failed or empty fetch is reported as an absent Lookup.
type MarketData interface {
	Fetch(ctx context.Context, q Query) models.Lookup
}

// NameResolver resolves a display name. Implementations never fail; the ticker is the last resort.
type NameResolver interface {
	ResolveName(ctx context.Context, ticker string) string
}

// BarPublisher ships fetched series to a message broker.
type BarPublisher interface {
	Publish(ctx context.Context, s *models.PriceSeries) error
	Close() error
}

// BarStorage persists fetched bars.
type BarStorage interface {
	StoreBatch(ctx context.Context, ticker, interval string, bars []models.Bar) error
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordFetch(source, result string)
	RecordArchived(backend, ticker string, bars int)
	RecordError(kind string)
	RecordPrediction(model string, probability float64)
	RecordLatency(op string, seconds float64)
}
