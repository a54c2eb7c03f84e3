package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPredictor/internal/domain/models"
	drepo "StockPredictor/internal/domain/repository"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// ArchiveProcessor routes fetched series to the configured archive backend.
type ArchiveProcessor struct {
	pub     drepo.BarPublisher
	store   drepo.BarStorage
	metrics drepo.Metrics
	backend string
}

// NewArchiveProcessor creates a new ArchiveProcessor instance. Only the client
// for the selected backend needs to be non-nil.
func NewArchiveProcessor(
	pub drepo.BarPublisher,
	store drepo.BarStorage,
	metrics drepo.Metrics,
	backend string,
) *ArchiveProcessor {
	return &ArchiveProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process archives a single series.
func (p *ArchiveProcessor) Process(ctx context.Context, s *models.PriceSeries) error {
	if s == nil {
		return fmt.Errorf("series is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka publisher not configured")
			break
		}
		err = p.pub.Publish(ctx, s)
	case BackendClickHouse:
		if p.store == nil {
			err = fmt.Errorf("clickhouse storage not configured")
			break
		}
		err = p.store.StoreBatch(ctx, s.Ticker, s.Interval, s.Bars)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("archive_" + p.backend)
		return fmt.Errorf("archive %s: %w", s.Ticker, err)
	}

	p.metrics.RecordArchived(p.backend, s.Ticker, s.Len())
	p.metrics.RecordLatency("archive_"+p.backend, time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *ArchiveProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
