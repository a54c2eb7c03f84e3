package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/repository"
	pkgkafka "StockPredictor/pkg/kafka"
)

// DefaultBarsTable is the ClickHouse table holding archived bars.
const DefaultBarsTable = "price_bars"

const insertChunkSize = 2000

// BarSchema returns the idempotent statements creating the bars table.
func BarSchema(database, table string) []string {
	if table == "" {
		table = DefaultBarsTable
	}
	full := table
	stmts := make([]string, 0, 2)
	if database != "" {
		stmts = append(stmts, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database))
		full = database + "." + table
	}
	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	ticker     LowCardinality(String),
	interval   LowCardinality(String),
	d          DateTime,
	o          Float64,
	h          Float64,
	l          Float64,
	c          Float64,
	v          Float64,
	fetched_at DateTime
) ENGINE = ReplacingMergeTree(fetched_at)
ORDER BY (ticker, interval, d)`, full))
	return stmts
}

// ClickHouseBarStorage implements BarStorage for ClickHouse.
type ClickHouseBarStorage struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// NewClickHouseBarStorage creates ClickHouse bar storage.
func NewClickHouseBarStorage(db *sql.DB, table string) *ClickHouseBarStorage {
	if table == "" {
		table = DefaultBarsTable
	}
	return &ClickHouseBarStorage{db: db, table: table, now: time.Now}
}

// StoreBatch inserts bars with multi-row VALUES statements, chunked.
func (s *ClickHouseBarStorage) StoreBatch(ctx context.Context, ticker, interval string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	fetchedAt := s.now().UTC()
	for start := 0; start < len(bars); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(bars) {
			end = len(bars)
		}
		q, args := buildBarInsert(s.table, ticker, interval, fetchedAt, bars[start:end])
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert bars %s: %w", ticker, err)
		}
	}
	return nil
}

// buildBarInsert returns an empty query when no bar carries a date.
func buildBarInsert(table, ticker, interval string, fetchedAt time.Time, bars []models.Bar) (string, []interface{}) {
	values := make([]string, 0, len(bars))
	args := make([]interface{}, 0, len(bars)*9)
	for _, b := range bars {
		if b.Date.IsZero() {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			ticker,
			interval,
			b.Date,
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.Volume,
			fetchedAt,
		)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf("INSERT INTO %s (ticker, interval, d, o, h, l, c, v, fetched_at) VALUES %s", table, strings.Join(values, ","))
	return q, args
}

func (s *ClickHouseBarStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseBarStorage) Close() error {
	return nil // pool owned by pkg/clickhouse
}

// KafkaBarPublisher implements BarPublisher for Kafka.
type KafkaBarPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaBarPublisher creates Kafka publisher.
func NewKafkaBarPublisher(producer *pkgkafka.Producer, topic string) *KafkaBarPublisher {
	return &KafkaBarPublisher{producer: producer, topic: topic}
}

// Publish sends the whole series as one message keyed by ticker, tagged with a new trace id.
func (p *KafkaBarPublisher) Publish(ctx context.Context, s *models.PriceSeries) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Ticker), models.NewSeriesPayload(s), pkgkafka.NewTraceHeader())
}

func (p *KafkaBarPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var (
	_ repository.BarStorage   = (*ClickHouseBarStorage)(nil)
	_ repository.BarPublisher = (*KafkaBarPublisher)(nil)
)
