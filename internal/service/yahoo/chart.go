package yahoo

import (
	"fmt"
	"math"
	"sort"
	"time"

	"StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	xutil "StockPredictor/pkg/util"
)

// chartResponse mirrors the v8 chart payload.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *chartError) Error() string {
	return fmt.Sprintf("chart error %s: %s", e.Code, e.Description)
}

type chartResult struct {
	Meta       chartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type chartMeta struct {
	Currency             string `json:"currency"`
	Symbol               string `json:"symbol"`
	ExchangeName         string `json:"exchangeName"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	GMTOffset            int64  `json:"gmtoffset"`
	ShortName            string `json:"shortName"`
	LongName             string `json:"longName"`
	DataGranularity      string `json:"dataGranularity"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return math.NaN()
	}
	return *vals[i]
}

// toSeries converts one chart result into adjusted, naive-dated bars.
func toSeries(ticker string, iv domrepo.Interval, r *chartResult) *models.PriceSeries {
	s := &models.PriceSeries{
		Ticker:   ticker,
		Interval: string(iv),
		Meta: models.SeriesMeta{
			Currency:     r.Meta.Currency,
			ExchangeName: r.Meta.ExchangeName,
			Timezone:     r.Meta.ExchangeTimezoneName,
			ShortName:    r.Meta.ShortName,
			LongName:     r.Meta.LongName,
		},
	}
	if len(r.Indicators.Quote) == 0 {
		return s
	}
	q := r.Indicators.Quote[0]
	s.HasVolume = q.Volume != nil

	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	loc := xutil.ExchangeLocation(r.Meta.ExchangeTimezoneName, r.Meta.GMTOffset)
	byDate := make(map[time.Time]models.Bar, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		b := models.Bar{
			Date:   xutil.ExchangeWallClock(ts, loc),
			Open:   at(q.Open, i),
			High:   at(q.High, i),
			Low:    at(q.Low, i),
			Close:  at(q.Close, i),
			Volume: at(q.Volume, i),
		}
		if math.IsNaN(b.Open) && math.IsNaN(b.High) && math.IsNaN(b.Low) && math.IsNaN(b.Close) {
			continue
		}
		if iv.IsDaily() {
			b.Date = xutil.TruncateDay(b.Date)
		}
		if adj != nil {
			if a := at(adj, i); !math.IsNaN(a) && !math.IsNaN(b.Close) && b.Close != 0 {
				ratio := a / b.Close
				b.Open *= ratio
				b.High *= ratio
				b.Low *= ratio
				b.Close = a
			}
		}
		// a later row for the same date wins
		byDate[b.Date] = b
	}

	s.Bars = make([]models.Bar, 0, len(byDate))
	for _, b := range byDate {
		s.Bars = append(s.Bars, b)
	}
	sort.Slice(s.Bars, func(i, j int) bool { return s.Bars[i].Date.Before(s.Bars[j].Date) })
	return s
}
