package usecase

import (
	"context"
	"testing"

	"StockPredictor/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSeries(t *testing.T) {
	s := seriesOf("6501.T", 10, 11, 12)
	s.Bars[1].High = nan
	data := newFakeMarketData(s)
	names := &fakeNames{names: map[string]string{"6501.T": "HITACHI"}}
	uc := NewSeriesUseCase(data, names, nil)

	res, err := uc.GetSeries(context.Background(), SeriesParams{Ticker: " 6501 ", Frame: "1d"})
	require.NoError(t, err)

	assert.Equal(t, "6501.T", res.Ticker)
	assert.Equal(t, "HITACHI", res.Name)
	assert.Equal(t, "1d", res.Frame)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, models.SeriesRow{T: "2024-01-01", O: 9, H: 11, L: 8, C: 10}, res.Rows[0])
	assert.Equal(t, "2024-01-03", res.Rows[1].T)
	assert.Equal(t, DefaultHistoryYears, data.queries[0].Years)
}

func TestGetSeriesKeepsLatestRows(t *testing.T) {
	s := &models.PriceSeries{Ticker: "AAPL", Interval: "1d"}
	for i := 0; i < MaxSeriesRows+50; i++ {
		c := float64(i)
		s.Bars = append(s.Bars, models.Bar{Date: day(1).AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c})
	}
	uc := NewSeriesUseCase(newFakeMarketData(s), &fakeNames{}, nil)

	res, err := uc.GetSeries(context.Background(), SeriesParams{Ticker: "AAPL", Frame: "1d"})
	require.NoError(t, err)
	require.Len(t, res.Rows, MaxSeriesRows)
	assert.Equal(t, 50.0, res.Rows[0].C)
	assert.Equal(t, float64(MaxSeriesRows+49), res.Rows[MaxSeriesRows-1].C)
}

func TestGetSeriesNotFound(t *testing.T) {
	names := &fakeNames{}
	uc := NewSeriesUseCase(newFakeMarketData(), names, nil)

	_, err := uc.GetSeries(context.Background(), SeriesParams{Ticker: "zzzz", Frame: "1d"})

	var nf *SeriesNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "zzzz: no data found", nf.Error())
	assert.Equal(t, 0, names.calls())
}
