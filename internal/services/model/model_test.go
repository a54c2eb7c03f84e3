package model

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	domsvc "StockPredictor/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = []string{"Close", "RSI", "MACD"}

func vector(vals ...float64) domsvc.FeatureVector {
	return domsvc.FeatureVector{Columns: testColumns, Values: vals}
}

func writeArtifact(t *testing.T, art any) string {
	t.Helper()
	raw, err := json.Marshal(art)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func TestBaselineIsConstant(t *testing.T) {
	b := NewBaseline(testColumns)
	p, err := b.PredictProba(context.Background(), vector(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0.5, 0.5}, p)
	assert.Equal(t, "Baseline", b.Name())
	assert.Equal(t, testColumns, b.FeatureNames())
}

func TestArtifactScoring(t *testing.T) {
	path := writeArtifact(t, Artifact{
		ModelType:    "LogisticRegression",
		FeatureNames: []string{"RSI", "MACD"},
		Intercept:    0.5,
		Coefficients: []float64{2, -1},
		Scaler:       &Scaler{Mean: []float64{50, 0}, Scale: []float64{10, 1}},
	})
	s, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, "LogisticRegression", s.Name())

	// logit = 0.5 + 2*(60-50)/10 - 1*0.5 = 2
	p, err := s.PredictProba(context.Background(), vector(100, 60, 0.5))
	require.NoError(t, err)
	want := 1 / (1 + math.Exp(-2))
	assert.InDelta(t, want, p[1], 1e-12)
	assert.InDelta(t, 1-want, p[0], 1e-12)
}

func TestArtifactMissingFeature(t *testing.T) {
	// the legacy logistic fallback names columns the pipeline never produces
	path := writeArtifact(t, Artifact{
		ModelType:    "logistic_fallback",
		FeatureNames: []string{"rsi14", "ma5_20", "ma_slope20", "brk20", "dd_252"},
		Coefficients: []float64{0.1, 0.1, 0.1, 0.1, 0.1},
	})
	s, err := LoadArtifact(path)
	require.NoError(t, err)

	_, err = s.PredictProba(context.Background(), vector(1, 2, 3))
	var missing *domsvc.MissingFeatureError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "rsi14", missing.Feature)
}

func TestLoadArtifactRejectsInvalid(t *testing.T) {
	cases := map[string]any{
		"no type":       Artifact{FeatureNames: []string{"RSI"}, Coefficients: []float64{1}},
		"length":        Artifact{ModelType: "m", FeatureNames: []string{"RSI", "MACD"}, Coefficients: []float64{1}},
		"zero scale":    Artifact{ModelType: "m", FeatureNames: []string{"RSI"}, Coefficients: []float64{1}, Scaler: &Scaler{Mean: []float64{0}, Scale: []float64{0}}},
		"not an object": []int{1, 2},
	}
	for name, art := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadArtifact(writeArtifact(t, art))
			assert.Error(t, err)
		})
	}
}

func TestHolderSelection(t *testing.T) {
	t.Run("artifact first", func(t *testing.T) {
		path := writeArtifact(t, Artifact{ModelType: "lr", FeatureNames: []string{"RSI"}, Coefficients: []float64{0}})
		h := NewHolder(Options{ArtifactPath: path, ServiceURL: "http://unused"}, testColumns, nil)
		s, err := h.Get()
		require.NoError(t, err)
		assert.Equal(t, "lr", s.Name())
	})

	t.Run("remote when no artifact", func(t *testing.T) {
		h := NewHolder(Options{ArtifactPath: filepath.Join(t.TempDir(), "absent.json"), ServiceURL: "http://sidecar"}, testColumns, nil)
		s, err := h.Get()
		require.NoError(t, err)
		assert.IsType(t, &RemoteScorer{}, s)
	})

	t.Run("baseline otherwise", func(t *testing.T) {
		h := NewHolder(Options{ArtifactPath: filepath.Join(t.TempDir(), "absent.json")}, testColumns, nil)
		s, err := h.Get()
		require.NoError(t, err)
		assert.Equal(t, BaselineName, s.Name())
		assert.Equal(t, testColumns, s.FeatureNames())
	})

	t.Run("load error is sticky", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "model.json")
		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
		h := NewHolder(Options{ArtifactPath: path}, testColumns, nil)
		s, err := h.Get()
		assert.Nil(t, s)
		require.Error(t, err)

		// fixing the file does not trigger a reload
		require.NoError(t, os.WriteFile(path, []byte(`{"model_type":"lr","feature_names":["RSI"],"coefficients":[1]}`), 0o600))
		_, err2 := h.Get()
		assert.Equal(t, err, err2)
	})
}

func TestHolderLoadsOnce(t *testing.T) {
	h := NewHolder(Options{}, testColumns, nil)
	var wg sync.WaitGroup
	got := make([]domsvc.Scorer, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = h.Get()
		}(i)
	}
	wg.Wait()
	for _, s := range got {
		assert.Same(t, got[0], s)
	}
}

func TestRemoteScorer(t *testing.T) {
	var seen probaReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict_proba", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"proba":[0.3,0.7],"model":"XGBClassifier"}`))
	}))
	defer srv.Close()

	s := NewRemoteScorer(srv.URL+"/", 0, testColumns)
	assert.Equal(t, RemoteName, s.Name())

	p, err := s.PredictProba(context.Background(), vector(10, 55, -0.2))
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0.3, 0.7}, p)
	assert.Equal(t, "XGBClassifier", s.Name())
	assert.Equal(t, testColumns, seen.Columns)
	assert.Equal(t, 55.0, seen.Features["RSI"])
}

func TestRemoteScorerFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"server error": {http.StatusInternalServerError, `{"detail":"boom"}`},
		"one value":    {http.StatusOK, `{"proba":[0.4]}`},
		"out of range": {http.StatusOK, `{"proba":[-0.5,1.5]}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			_, err := NewRemoteScorer(srv.URL, 0, testColumns).PredictProba(context.Background(), vector(1, 2, 3))
			assert.Error(t, err)
		})
	}

	t.Run("missing column", func(t *testing.T) {
		_, err := NewRemoteScorer("http://unused", 0, []string{"Volume"}).PredictProba(context.Background(), vector(1, 2, 3))
		var missing *domsvc.MissingFeatureError
		assert.True(t, errors.As(err, &missing))
	})
}

func TestRemoteScorerRetriesTransientFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		calls  int32
	}{
		"unavailable is retried": {http.StatusServiceUnavailable, 2},
		"bad request is not":     {http.StatusBadRequest, 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := NewRemoteScorer(srv.URL, 0, testColumns).PredictProba(context.Background(), vector(1, 2, 3))
			assert.Error(t, err)
			assert.Equal(t, tc.calls, atomic.LoadInt32(&calls))
		})
	}
}
