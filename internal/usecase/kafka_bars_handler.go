package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	pkgkafka "StockPredictor/pkg/kafka"
)

// KafkaBarsHandler consumes archived series from Kafka and writes them to storage.
type KafkaBarsHandler struct {
	topic   string
	storage domrepo.BarStorage
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, storage domrepo.BarStorage, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// Handle decodes one models.SeriesPayload message.
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m models.SeriesPayload
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode bars: %w", err)
	}
	if m.Ticker == "" || len(m.Bars) == 0 {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("bars message without ticker or bars")
	}
	if !m.FetchedAt.IsZero() {
		h.metrics.RecordLatency("archive_e2e", time.Since(m.FetchedAt).Seconds())
	}

	s := m.Series()
	start := time.Now()
	err := h.storage.StoreBatch(ctx, s.Ticker, s.Interval, s.Bars)
	h.metrics.RecordLatency("ch_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		if id := pkgkafka.TraceIDFrom(ctx); id != "" {
			return fmt.Errorf("store %s trace %s: %w", s.Ticker, id, err)
		}
		return fmt.Errorf("store %s: %w", s.Ticker, err)
	}
	h.metrics.RecordArchived(BackendClickHouse, s.Ticker, s.Len())
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
