package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordFetch("cache", "hit")
	r.RecordFetch("cache", "hit")
	r.RecordFetch("yahoo", "absent")
	r.RecordArchived("kafka", "6501.T", 250)
	r.RecordError("scoring")
	r.RecordPrediction("Baseline", 0.5)
	r.RecordLatency("predict", 0.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetches.WithLabelValues("cache", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues("yahoo", "absent")))
	assert.Equal(t, 250.0, testutil.ToFloat64(r.archived.WithLabelValues("kafka", "6501.T")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("scoring")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.probability))
}
