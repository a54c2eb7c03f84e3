package usecase

import (
	"context"

	"StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	applogger "StockPredictor/pkg/logger"
	xutil "StockPredictor/pkg/util"
)

const (
	// DefaultHistoryYears is the primary series window before the interval rule widens it.
	DefaultHistoryYears = 5
	// MaxSeriesRows caps the chart payload to the most recent rows.
	MaxSeriesRows = 1200
)

// SeriesParams selects a chart series.
type SeriesParams struct {
	Ticker string
	Frame  string
}

// SeriesUseCase projects a fetched series into chart rows.
type SeriesUseCase struct {
	data   domrepo.MarketData
	names  domrepo.NameResolver
	logger *applogger.Logger
}

func NewSeriesUseCase(data domrepo.MarketData, names domrepo.NameResolver, logger *applogger.Logger) *SeriesUseCase {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &SeriesUseCase{data: data, names: names, logger: logger}
}

// GetSeries returns up to MaxSeriesRows OHLC rows, or a *SeriesNotFoundError.
func (u *SeriesUseCase) GetSeries(ctx context.Context, p SeriesParams) (*models.SeriesResult, error) {
	ticker := models.NormalizeTicker(p.Ticker)
	res := u.data.Fetch(ctx, domrepo.Query{
		Ticker:   ticker,
		Interval: domrepo.Interval(p.Frame),
		Years:    DefaultHistoryYears,
	})
	if !res.Found() {
		u.logger.Debug("series not found", applogger.String("ticker", ticker), applogger.String("frame", p.Frame))
		return nil, &SeriesNotFoundError{Ticker: p.Ticker, Err: res.Reason}
	}

	rows := make([]models.SeriesRow, 0, res.Series.Len())
	for _, b := range res.Series.Bars {
		if !b.HasOHLC() {
			continue
		}
		rows = append(rows, models.SeriesRow{
			T: xutil.FormatDate(b.Date),
			O: b.Open,
			H: b.High,
			L: b.Low,
			C: b.Close,
		})
	}
	if len(rows) > MaxSeriesRows {
		rows = rows[len(rows)-MaxSeriesRows:]
	}

	return &models.SeriesResult{
		Ticker: ticker,
		Name:   u.names.ResolveName(ctx, ticker),
		Frame:  p.Frame,
		Rows:   rows,
	}, nil
}
