package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches     *prometheus.CounterVec
	archived    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	probability *prometheus.HistogramVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpred_fetch_total",
				Help: "Market data lookups by source and result",
			},
			[]string{"source", "result"},
		),
		archived: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpred_archived_bars_total",
				Help: "Bars handed to an archive backend",
			},
			[]string{"backend", "ticker"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpred_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		probability: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpred_prediction_probability",
				Help:    "Distribution of predicted up probabilities",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
			},
			[]string{"model"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpred_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch counts a lookup; result is hit, miss, found or absent.
func (r *Recorder) RecordFetch(source, result string) {
	r.fetches.WithLabelValues(source, result).Inc()
}

// RecordArchived counts bars handed to a backend.
func (r *Recorder) RecordArchived(backend, ticker string, bars int) {
	r.archived.WithLabelValues(backend, ticker).Add(float64(bars))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordPrediction observes a predicted probability.
func (r *Recorder) RecordPrediction(model string, probability float64) {
	r.probability.WithLabelValues(model).Observe(probability)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordFetch(string, string)         {}
func (Nop) RecordArchived(string, string, int) {}
func (Nop) RecordError(string)                 {}
func (Nop) RecordPrediction(string, float64)   {}
func (Nop) RecordLatency(string, float64)      {}
