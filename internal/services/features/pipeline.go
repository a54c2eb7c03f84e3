package features

import (
	"context"

	"StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	applogger "StockPredictor/pkg/logger"
)

const (
	DefaultIndexSymbol    = "^N225"
	DefaultRateSymbol     = "^TNX"
	DefaultReferenceYears = 2
)

// Pipeline fetches the reference series for a price series and computes its features.
type Pipeline struct {
	data     domrepo.MarketData
	logger   *applogger.Logger
	indexSym string
	rateSym  string
	refYears int
}

type PipelineOption func(*Pipeline)

// WithReferenceSymbols overrides the index and rate instruments.
func WithReferenceSymbols(index, rate string) PipelineOption {
	return func(p *Pipeline) {
		if index != "" {
			p.indexSym = index
		}
		if rate != "" {
			p.rateSym = rate
		}
	}
}

// WithReferenceYears sets the fixed reference window.
func WithReferenceYears(years int) PipelineOption {
	return func(p *Pipeline) {
		if years > 0 {
			p.refYears = years
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *applogger.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a feature pipeline reading references through data.
func NewPipeline(data domrepo.MarketData, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		data:     data,
		indexSym: DefaultIndexSymbol,
		rateSym:  DefaultRateSymbol,
		refYears: DefaultReferenceYears,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Calculate computes the feature table for s. Unavailable references degrade to zero columns.
func (p *Pipeline) Calculate(ctx context.Context, s *models.PriceSeries) *Frame {
	iv := domrepo.Interval(s.Interval)
	refs := References{
		Index: p.reference(ctx, p.indexSym, iv),
		Rate:  p.reference(ctx, p.rateSym, iv),
	}
	return Compute(s, refs)
}

func (p *Pipeline) reference(ctx context.Context, symbol string, iv domrepo.Interval) models.Lookup {
	res := p.data.Fetch(ctx, domrepo.Query{Ticker: symbol, Interval: iv, Years: p.refYears, FixedWindow: true})
	if !res.Found() && p.logger != nil {
		fields := []applogger.Field{applogger.String("symbol", symbol), applogger.String("interval", string(iv))}
		if res.Reason != nil {
			fields = append(fields, applogger.Error(res.Reason))
		}
		p.logger.Warn("reference series unavailable, using zero columns", fields...)
	}
	return res
}
