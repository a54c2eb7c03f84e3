package features

import (
	"math"
	"sort"
	"time"

	"StockPredictor/internal/domain/models"
)

const (
	rsiWindow        = 14
	rocWindow        = 10
	macdFastSpan     = 12
	macdSlowSpan     = 26
	macdSignalSpan   = 9
	stochWindow      = 9
	kdjSpan          = 3
	kdjSmoothWindow  = 3
	volWindow        = 10
	volRatioWindow   = 20
	volumeMeanWindow = 20
	surgeThreshold   = 2.0
	corrWindow       = 30
)

// References are the reference series joined onto the primary series by date.
type References struct {
	Index models.Lookup
	Rate  models.Lookup
}

// Compute derives the feature table for a price series. It is a pure function of its
// inputs. Rows holding any undefined value are dropped, so the result may be empty.
func Compute(s *models.PriceSeries, refs References) *Frame {
	if s.Len() == 0 {
		return NewFrame(nil)
	}
	bars := sortedBars(s.Bars)

	n := len(bars)
	dates := make([]time.Time, n)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, b := range bars {
		dates[i] = b.Date
		open[i], high[i], low[i], closes[i] = b.Open, b.High, b.Low, b.Close
		if s.HasVolume {
			volume[i] = b.Volume
		}
	}

	f := NewFrame(dates)
	f.Set(ColOpen, open)
	f.Set(ColHigh, high)
	f.Set(ColLow, low)
	f.Set(ColClose, closes)
	f.Set(ColVolume, volume)

	f.Set(ColRawClose, append([]float64(nil), closes...))
	ret1 := pctChange(closes, 1)
	f.Set(ColPctChange1D, ret1)
	f.Set(ColPctChange3D, pctChange(closes, 3))
	f.Set(ColVolumeChange, pctChange(volume, 1))

	rsi := relativeStrength(closes, rsiWindow)
	f.Set(ColRSI, rsi)
	f.Set(ColROC10, pctChange(closes, rocWindow))

	macd := sub(ema(closes, macdFastSpan, false), ema(closes, macdSlowSpan, false))
	signal := ema(macd, macdSignalSpan, false)
	hist := sub(macd, signal)
	f.Set(ColMACD, macd)
	f.Set(ColMACDSignal, signal)
	f.Set(ColMACDHist, hist)

	low9 := rollingMin(low, stochWindow)
	high9 := rollingMax(high, stochWindow)
	stoch := div(sub(closes, low9), sub(high9, low9))
	kd := ema(stoch, kdjSpan, true)
	kdMean := rollingMean(kd, kdjSmoothWindow)
	f.Set(ColKDJD, kd)
	f.Set(ColKDJJ, zip(kd, kdMean, func(d, m float64) float64 { return 3*d - 2*m }))

	vol10 := rollingStd(ret1, volWindow)
	f.Set(ColVolatility10, vol10)
	f.Set(ColVolatilityRatio, div(vol10, rollingMean(vol10, volRatioWindow)))

	volRatio := div(volume, rollingMean(volume, volumeMeanWindow))
	f.Set(ColVolRatio, volRatio)
	f.Set(ColVolumeSurge, mapf(volRatio, func(v float64) float64 {
		if v > surgeThreshold {
			return 1
		}
		return 0
	}))

	f.Set(ColReturn5D, pctChange(closes, 5))
	f.Set(ColRSIChange, diff(rsi))

	ad := cumSum(accumulationTerm(closes, high, low))
	f.Set(ColADLine, ad)
	f.Set(ColADLineROC, pctChange(ad, 1))

	if refs.Index.Found() {
		idx := closeByDate(refs.Index.Series)
		idxClose := alignByDate(dates, idx.dates, idx.close)
		f.Set(ColIndexClose, idxClose)
		f.Set(ColMarketTrend1D, alignByDate(dates, idx.dates, pctChange(idx.close, 1)))
		f.Set(ColMarketTrend5D, alignByDate(dates, idx.dates, pctChange(idx.close, 5)))
		f.Set(ColIndexCorr30, outerRollingCorr(dates, closes, idx.dates, idx.close, corrWindow))
	} else {
		for _, c := range IndexColumns {
			f.Set(c, filled(n, 0))
		}
	}

	if refs.Rate.Found() {
		rate := closeByDate(refs.Rate.Series)
		f.Set(ColRateChange1D, alignByDate(dates, rate.dates, pctChange(rate.close, 1)))
		f.Set(ColRateChange5D, alignByDate(dates, rate.dates, pctChange(rate.close, 5)))
	} else {
		for _, c := range RateColumns {
			f.Set(c, filled(n, 0))
		}
	}

	trend5, _ := f.Col(ColMarketTrend5D)
	f.Set(ColRSIxMACDHist, mul(rsi, hist))
	f.Set(ColVolRatioxMarketTrend5D, mul(volRatio, trend5))

	return f.DropUndefined()
}

// relativeStrength uses simple rolling means of gains and losses. A window without
// losses has no defined value.
func relativeStrength(closes []float64, window int) []float64 {
	delta := diff(closes)
	up := rollingMean(clipLower(delta, 0), window)
	down := rollingMean(mapf(clipUpper(delta, 0), func(v float64) float64 { return -v }), window)
	return zip(up, down, func(u, d float64) float64 {
		if d == 0 || math.IsNaN(d) || math.IsNaN(u) {
			return nan
		}
		return 100 - 100/(1+u/d)
	})
}

// accumulationTerm is the per-bar close location value. A flat bar has no defined value.
func accumulationTerm(closes, high, low []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		rng := high[i] - low[i]
		if rng == 0 {
			out[i] = nan
			continue
		}
		out[i] = (closes[i] - low[i] - (high[i] - closes[i])) / rng
	}
	return out
}

func sortedBars(bars []models.Bar) []models.Bar {
	out := append([]models.Bar(nil), bars...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

type dated struct {
	dates []time.Time
	close []float64
}

func closeByDate(s *models.PriceSeries) dated {
	bars := sortedBars(s.Bars)
	d := dated{dates: make([]time.Time, len(bars)), close: make([]float64, len(bars))}
	for i, b := range bars {
		d.dates[i] = b.Date
		d.close[i] = b.Close
	}
	return d
}

// alignByDate left-joins values keyed by src onto dst. Unmatched dates are NaN.
func alignByDate(dst, src []time.Time, values []float64) []float64 {
	idx := make(map[int64]float64, len(src))
	for i, t := range src {
		idx[t.UnixNano()] = values[i]
	}
	out := make([]float64, len(dst))
	for i, t := range dst {
		v, ok := idx[t.UnixNano()]
		if !ok {
			v = nan
		}
		out[i] = v
	}
	return out
}

// outerRollingCorr correlates two series over the union of their dates, then reads
// the result back on the primary dates. Dates present on only one side break the window.
func outerRollingCorr(dates []time.Time, x []float64, refDates []time.Time, y []float64, window int) []float64 {
	seen := make(map[int64]time.Time, len(dates)+len(refDates))
	for _, t := range dates {
		seen[t.UnixNano()] = t
	}
	for _, t := range refDates {
		seen[t.UnixNano()] = t
	}
	union := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		union = append(union, t)
	}
	sort.Slice(union, func(i, j int) bool { return union[i].Before(union[j]) })

	ux := alignByDate(union, dates, x)
	uy := alignByDate(union, refDates, y)
	return alignByDate(dates, union, rollingCorr(ux, uy, window))
}
