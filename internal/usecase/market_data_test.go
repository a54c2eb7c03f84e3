package usecase

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	"StockPredictor/internal/service/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesCacheKey(t *testing.T) {
	q := domrepo.Query{Ticker: "6501", Interval: domrepo.Interval1d, Years: 5}
	assert.Equal(t, "series:6501.T:1d:5", SeriesCacheKey(q))

	q.Interval = domrepo.Interval1h
	assert.Equal(t, "series:6501.T:1h:10", SeriesCacheKey(q))

	q = domrepo.Query{Ticker: "^N225", Interval: domrepo.Interval1h, Years: 2, FixedWindow: true}
	assert.Equal(t, "series:^N225:1h:2", SeriesCacheKey(q))
}

func TestCachingMarketDataHitAndMiss(t *testing.T) {
	s := seriesOf("AAPL", 1, 2, 3)
	s.Bars[0].Volume = math.NaN()
	next := newFakeMarketData(s)
	m := newRecordingMetrics()
	c := NewCachingMarketData(next, cache.NewTTLCache(), time.Minute, m, nil)
	q := domrepo.Query{Ticker: "AAPL", Interval: domrepo.Interval1d, Years: 5}

	first := c.Fetch(context.Background(), q)
	require.True(t, first.Found())
	second := c.Fetch(context.Background(), q)
	require.True(t, second.Found())

	assert.Equal(t, 1, next.calls())
	assert.Equal(t, 1, m.fetchCount("cache:miss"))
	assert.Equal(t, 1, m.fetchCount("cache:hit"))
	assert.Equal(t, 1, m.fetchCount("upstream:found"))

	require.Equal(t, 3, second.Series.Len())
	assert.True(t, math.IsNaN(second.Series.Bars[0].Volume))
	assert.True(t, s.Bars[2].Date.Equal(second.Series.Bars[2].Date))
	assert.Equal(t, 3.0, second.Series.Bars[2].Close)
}

func TestCachingMarketDataDoesNotCacheAbsent(t *testing.T) {
	next := newFakeMarketData()
	m := newRecordingMetrics()
	c := NewCachingMarketData(next, cache.NewTTLCache(), time.Minute, m, nil)
	q := domrepo.Query{Ticker: "NONE", Interval: domrepo.Interval1d, Years: 5}

	assert.False(t, c.Fetch(context.Background(), q).Found())
	assert.False(t, c.Fetch(context.Background(), q).Found())
	assert.Equal(t, 2, next.calls())
	assert.Equal(t, 2, m.fetchCount("upstream:absent"))
}

func TestCachingMarketDataCoalescesConcurrentFetches(t *testing.T) {
	next := newFakeMarketData(seriesOf("AAPL", 1, 2))
	next.gate = make(chan struct{})
	c := NewCachingMarketData(next, cache.NewTTLCache(), time.Minute, newRecordingMetrics(), nil)
	q := domrepo.Query{Ticker: "AAPL", Interval: domrepo.Interval1d, Years: 5}

	const n = 8
	var wg sync.WaitGroup
	results := make([]models.Lookup, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Fetch(context.Background(), q)
		}(i)
	}
	// let the callers pile up behind the first upstream call
	time.Sleep(50 * time.Millisecond)
	close(next.gate)
	wg.Wait()

	assert.LessOrEqual(t, next.calls(), 2)
	for _, r := range results {
		assert.True(t, r.Found())
	}
}

func TestCachingMarketDataCancelledCallerDoesNotFailOthers(t *testing.T) {
	next := newFakeMarketData(seriesOf("AAPL", 1, 2))
	next.gate = make(chan struct{})
	next.honorCtx = true
	c := NewCachingMarketData(next, cache.NewTTLCache(), time.Minute, newRecordingMetrics(), nil)
	q := domrepo.Query{Ticker: "AAPL", Interval: domrepo.Interval1d, Years: 5}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan models.Lookup, 1)
	go func() { first <- c.Fetch(ctx, q) }()
	time.Sleep(20 * time.Millisecond)

	second := make(chan models.Lookup, 1)
	go func() { second <- c.Fetch(context.Background(), q) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case res := <-first:
		assert.False(t, res.Found())
		assert.ErrorIs(t, res.Reason, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(next.gate)
	select {
	case res := <-second:
		assert.True(t, res.Found(), "reason: %v", res.Reason)
	case <-time.After(time.Second):
		t.Fatal("waiting caller did not return")
	}
	assert.Equal(t, 1, next.calls())
}

type recordingArchiver struct {
	mu       sync.Mutex
	received []*models.PriceSeries
}

func (a *recordingArchiver) Submit(s *models.PriceSeries) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.received = append(a.received, s)
	return true
}

func TestArchivingMarketData(t *testing.T) {
	s := seriesOf("AAPL", 1)
	arch := &recordingArchiver{}
	m := NewArchivingMarketData(newFakeMarketData(s), arch)

	assert.True(t, m.Fetch(context.Background(), domrepo.Query{Ticker: "AAPL"}).Found())
	assert.False(t, m.Fetch(context.Background(), domrepo.Query{Ticker: "NONE"}).Found())

	require.Len(t, arch.received, 1)
	assert.Same(t, s, arch.received[0])
}

func TestCachingNameResolver(t *testing.T) {
	next := &fakeNames{names: map[string]string{"6501.T": "HITACHI"}}
	r := NewCachingNameResolver(next, cache.NewTTLCache(), time.Hour, nil)
	ctx := context.Background()

	assert.Equal(t, "HITACHI", r.ResolveName(ctx, "6501.T"))
	assert.Equal(t, "HITACHI", r.ResolveName(ctx, "6501.T"))
	assert.Equal(t, 1, next.calls())

	// a fallback to the ticker is retried next time
	assert.Equal(t, "ZZZ", r.ResolveName(ctx, "ZZZ"))
	assert.Equal(t, "ZZZ", r.ResolveName(ctx, "ZZZ"))
	assert.Equal(t, 3, next.calls())
}
