package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	"StockPredictor/internal/service/cache"
	applogger "StockPredictor/pkg/logger"

	"golang.org/x/sync/singleflight"
)

var errEmptyCacheEntry = errors.New("cached series has no bars")

func encodeSeries(s *models.PriceSeries) ([]byte, error) {
	return json.Marshal(models.NewSeriesPayload(s))
}

func decodeSeries(raw []byte) (*models.PriceSeries, error) {
	var p models.SeriesPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p.Series(), nil
}

// SeriesCacheKey identifies a fetch by its normalized ticker, interval and effective window.
func SeriesCacheKey(q domrepo.Query) string {
	return fmt.Sprintf("series:%s:%s:%d", models.NormalizeTicker(q.Ticker), q.Interval, q.Window())
}

// CachingMarketData caches found series and collapses concurrent identical fetches.
type CachingMarketData struct {
	next    domrepo.MarketData
	cache   cache.BytesCache
	ttl     time.Duration
	group   singleflight.Group
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

func NewCachingMarketData(next domrepo.MarketData, c cache.BytesCache, ttl time.Duration, metrics domrepo.Metrics, logger *applogger.Logger) *CachingMarketData {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &CachingMarketData{next: next, cache: c, ttl: ttl, metrics: metrics, logger: logger}
}

func (m *CachingMarketData) Fetch(ctx context.Context, q domrepo.Query) models.Lookup {
	key := SeriesCacheKey(q)

	if raw, ok, err := m.cache.GetBytes(ctx, key); err != nil {
		m.logger.Warn("series cache read failed", applogger.String("key", key), applogger.Error(err))
	} else if ok {
		s, err := decodeSeries(raw)
		if err == nil && s.Len() > 0 {
			m.metrics.RecordFetch("cache", "hit")
			return models.Present(s)
		}
		if err == nil {
			err = errEmptyCacheEntry
		}
		m.logger.Warn("series cache entry unreadable", applogger.String("key", key), applogger.Error(err))
	}
	m.metrics.RecordFetch("cache", "miss")

	// the shared fetch outlives any single caller; each caller waits on its own ctx
	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (interface{}, error) {
		res := m.next.Fetch(shared, q)
		if !res.Found() {
			m.metrics.RecordFetch("upstream", "absent")
			return res, nil
		}
		m.metrics.RecordFetch("upstream", "found")
		raw, err := encodeSeries(res.Series)
		if err == nil {
			err = m.cache.SetBytes(shared, key, raw, m.ttl)
		}
		if err != nil {
			m.logger.Warn("series cache write failed", applogger.String("key", key), applogger.Error(err))
		}
		return res, nil
	})
	select {
	case r := <-ch:
		return r.Val.(models.Lookup)
	case <-ctx.Done():
		return models.Absent(ctx.Err())
	}
}

// Archiver accepts series for background archiving.
type Archiver interface {
	Submit(s *models.PriceSeries) bool
}

// ArchivingMarketData hands every found series to an Archiver without waiting on it.
type ArchivingMarketData struct {
	next     domrepo.MarketData
	archiver Archiver
}

func NewArchivingMarketData(next domrepo.MarketData, archiver Archiver) *ArchivingMarketData {
	return &ArchivingMarketData{next: next, archiver: archiver}
}

func (m *ArchivingMarketData) Fetch(ctx context.Context, q domrepo.Query) models.Lookup {
	res := m.next.Fetch(ctx, q)
	if res.Found() {
		m.archiver.Submit(res.Series)
	}
	return res
}

// CachingNameResolver memoizes display names.
type CachingNameResolver struct {
	next   domrepo.NameResolver
	cache  cache.BytesCache
	ttl    time.Duration
	logger *applogger.Logger
}

func NewCachingNameResolver(next domrepo.NameResolver, c cache.BytesCache, ttl time.Duration, logger *applogger.Logger) *CachingNameResolver {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &CachingNameResolver{next: next, cache: c, ttl: ttl, logger: logger}
}

func (r *CachingNameResolver) ResolveName(ctx context.Context, ticker string) string {
	key := "name:" + ticker
	if raw, ok, err := r.cache.GetBytes(ctx, key); err == nil && ok && len(raw) > 0 {
		return string(raw)
	} else if err != nil {
		r.logger.Warn("name cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	name := r.next.ResolveName(ctx, ticker)
	// the ticker itself is a fallback, not a resolved name
	if name != "" && name != ticker {
		if err := r.cache.SetBytes(ctx, key, []byte(name), r.ttl); err != nil {
			r.logger.Warn("name cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return name
}

var (
	_ domrepo.MarketData   = (*CachingMarketData)(nil)
	_ domrepo.MarketData   = (*ArchivingMarketData)(nil)
	_ domrepo.NameResolver = (*CachingNameResolver)(nil)
)
