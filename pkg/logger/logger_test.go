package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) all() [][]AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]AggregatedLogEntry(nil), p.batches...)
}

func TestLoggerWritesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel).With(String("component", "test"))

	l.Info("fetched",
		String("ticker", "6501.T"),
		Int("bars", 3),
		Float64("p", 0.25),
		Bool("cached", true),
		Duration("took", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "fetched", got["message"])
	assert.Equal(t, "test", got["component"])
	assert.Equal(t, "6501.T", got["ticker"])
	assert.Equal(t, float64(3), got["bars"])
	assert.Equal(t, 0.25, got["p"])
	assert.Equal(t, true, got["cached"])
	assert.Equal(t, float64(1500), got["took"])
	assert.Equal(t, "boom", got["error"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)
	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestCollectorAggregatesAndFlushesOnRemove(t *testing.T) {
	pub := &capturePublisher{}
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})

	child := l.With(String("ticker", "6501.T"))
	for i := 0; i < 3; i++ {
		child.Error("upstream failed", String("kind", "timeout"))
	}
	child.Warn("slow request")
	child.Info("not collected")

	l.RemoveCollector()

	batches := pub.all()
	require.Len(t, batches, 1)
	assert.Equal(t, "logs", pub.topic)
	require.Len(t, batches[0], 2)

	counts := map[string]int{}
	for _, e := range batches[0] {
		counts[e.Level+":"+e.Message] = e.Count
		assert.Contains(t, e.Caller, "logger_test.go")
	}
	assert.Equal(t, 3, counts["error:upstream failed"])
	assert.Equal(t, 1, counts["warn:slow request"])

	// detached collectors no longer receive entries
	child.Error("after removal")
	assert.Len(t, pub.all(), 1)
}

func TestCollectorThresholdFlush(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "a", nil, "x.go:1")
	assert.Equal(t, 1, c.Pending())

	c.AddLog("error", "b", nil, "x.go:2")
	assert.Eventually(t, func() bool { return len(pub.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, c.Pending())

	batch := pub.all()[0]
	require.Len(t, batch, 2)
}

func TestEntryKeyIgnoresFieldOrder(t *testing.T) {
	a := entryKey("error", "m", map[string]interface{}{"x": 1, "y": "z"}, "c")
	b := entryKey("error", "m", map[string]interface{}{"y": "z", "x": 1}, "c")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, entryKey("warn", "m", nil, "c"))
}
