package yahoo

import (
	"context"

	domrepo "StockPredictor/internal/domain/repository"
	applogger "StockPredictor/pkg/logger"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
)

// QuoteFunc looks up a quote by symbol.
type QuoteFunc func(symbol string) (*finance.Quote, error)

// NameResolver resolves display names: quote short name, then chart short or long name,
// then the ticker itself.
type NameResolver struct {
	chart   *Client
	quoteFn QuoteFunc
	logger  *applogger.Logger
}

// NewNameResolver creates a resolver. A nil quoteFn skips the quote lookup.
func NewNameResolver(chart *Client, quoteFn QuoteFunc, logger *applogger.Logger) *NameResolver {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &NameResolver{chart: chart, quoteFn: quoteFn, logger: logger}
}

// DefaultQuoteFunc uses the finance-go quote endpoint.
func DefaultQuoteFunc() QuoteFunc { return quote.Get }

// ResolveName never fails; on any upstream problem it returns ticker.
func (r *NameResolver) ResolveName(ctx context.Context, ticker string) string {
	if name := r.fromQuote(ctx, ticker); name != "" {
		return name
	}
	if r.chart != nil {
		meta, err := r.chart.Meta(ctx, ticker)
		if err != nil {
			r.logger.Debug("chart meta lookup failed", applogger.String("ticker", ticker), applogger.Error(err))
		} else if meta.ShortName != "" {
			return meta.ShortName
		} else if meta.LongName != "" {
			return meta.LongName
		}
	}
	return ticker
}

func (r *NameResolver) fromQuote(ctx context.Context, ticker string) string {
	if r.quoteFn == nil {
		return ""
	}
	type result struct {
		q   *finance.Quote
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- result{}
			}
		}()
		q, err := r.quoteFn(ticker)
		ch <- result{q: q, err: err}
	}()

	select {
	case <-ctx.Done():
		return ""
	case res := <-ch:
		if res.err != nil {
			r.logger.Debug("quote lookup failed", applogger.String("ticker", ticker), applogger.Error(res.err))
			return ""
		}
		if res.q == nil {
			return ""
		}
		return res.q.ShortName
	}
}

var _ domrepo.NameResolver = (*NameResolver)(nil)
