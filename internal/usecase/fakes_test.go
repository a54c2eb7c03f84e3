package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	domsvc "StockPredictor/internal/domain/service"
	"StockPredictor/internal/services/features"
)

type fakeMarketData struct {
	mu      sync.Mutex
	series  map[string]*models.PriceSeries
	queries []domrepo.Query
	gate    chan struct{}
	// honorCtx makes Fetch report a cancelled context as absent data
	honorCtx bool
}

func newFakeMarketData(series ...*models.PriceSeries) *fakeMarketData {
	m := &fakeMarketData{series: make(map[string]*models.PriceSeries)}
	for _, s := range series {
		m.series[s.Ticker] = s
	}
	return m
}

func (m *fakeMarketData) Fetch(ctx context.Context, q domrepo.Query) models.Lookup {
	if m.gate != nil {
		<-m.gate
	}
	if m.honorCtx && ctx.Err() != nil {
		return models.Absent(ctx.Err())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if s, ok := m.series[q.Ticker]; ok {
		return models.Present(s)
	}
	return models.Absent(nil)
}

func (m *fakeMarketData) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

type fakeNames struct {
	mu    sync.Mutex
	names map[string]string
	n     int
}

func (f *fakeNames) ResolveName(_ context.Context, ticker string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	if name, ok := f.names[ticker]; ok {
		return name
	}
	return ticker
}

func (f *fakeNames) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

type fakeCalculator struct {
	frame *features.Frame
	got   *models.PriceSeries
}

func (c *fakeCalculator) Calculate(_ context.Context, s *models.PriceSeries) *features.Frame {
	c.got = s
	return c.frame
}

type fakeScorer struct {
	p   float64
	err error
	got domsvc.FeatureVector
}

func (s *fakeScorer) PredictProba(_ context.Context, x domsvc.FeatureVector) ([2]float64, error) {
	s.got = x
	if s.err != nil {
		return [2]float64{}, s.err
	}
	return [2]float64{1 - s.p, s.p}, nil
}

func (s *fakeScorer) FeatureNames() []string { return features.FeatureColumns }

func (s *fakeScorer) Name() string { return "LogisticRegression" }

type fakeProvider struct {
	scorer domsvc.Scorer
	err    error
}

func (p fakeProvider) Get() (domsvc.Scorer, error) { return p.scorer, p.err }

type recordingMetrics struct {
	mu          sync.Mutex
	fetches     map[string]int
	errors      map[string]int
	archived    map[string]int
	predictions []float64
	latencies   map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		fetches:   make(map[string]int),
		errors:    make(map[string]int),
		archived:  make(map[string]int),
		latencies: make(map[string]int),
	}
}

func (r *recordingMetrics) RecordFetch(source, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches[source+":"+result]++
}

func (r *recordingMetrics) RecordArchived(backend, ticker string, bars int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archived[backend+":"+ticker] += bars
}

func (r *recordingMetrics) RecordError(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[kind]++
}

func (r *recordingMetrics) RecordPrediction(_ string, p float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predictions = append(r.predictions, p)
}

func (r *recordingMetrics) RecordLatency(op string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latencies[op]++
}

func (r *recordingMetrics) fetchCount(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches[key]
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func seriesOf(ticker string, closes ...float64) *models.PriceSeries {
	s := &models.PriceSeries{Ticker: ticker, Interval: "1d", HasVolume: true}
	for i, c := range closes {
		s.Bars = append(s.Bars, models.Bar{
			Date:   day(i + 1),
			Open:   c - 1,
			High:   c + 1,
			Low:    c - 2,
			Close:  c,
			Volume: 1000,
		})
	}
	return s
}

func frameOf(closes ...float64) *features.Frame {
	dates := make([]time.Time, len(closes))
	for i := range closes {
		dates[i] = day(i + 1)
	}
	f := features.NewFrame(dates)
	f.Set(features.ColClose, closes)
	f.Set(features.ColRSI, filledWith(len(closes), 55))
	return f
}

func filledWith(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

var nan = math.NaN()
