package model

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	domsvc "StockPredictor/internal/domain/service"
)

// RemoteName is reported until the sidecar names its model.
const RemoteName = "Remote"

// RemoteScorer delegates scoring to a model sidecar over HTTP.
type RemoteScorer struct {
	base    *HTTPServiceBase
	columns []string
	name    atomic.Value
}

type probaReq struct {
	Columns  []string           `json:"columns"`
	Features map[string]float64 `json:"features"`
}

type probaResp struct {
	Proba []float64 `json:"proba"`
	Model string    `json:"model"`
}

// remoteAttempts covers one retry of a transient sidecar failure.
const remoteAttempts = 2

func NewRemoteScorer(url string, timeout time.Duration, columns []string) *RemoteScorer {
	s := &RemoteScorer{base: NewHTTPServiceBase(url, timeout), columns: append([]string(nil), columns...)}
	s.name.Store(RemoteName)
	return s
}

func (s *RemoteScorer) PredictProba(ctx context.Context, x domsvc.FeatureVector) ([2]float64, error) {
	features := make(map[string]float64, len(s.columns))
	for _, c := range s.columns {
		v, ok := x.Get(c)
		if !ok {
			return [2]float64{}, &domsvc.MissingFeatureError{Feature: c}
		}
		features[c] = v
	}

	var resp probaResp
	if err := s.base.PostJSONWithRetry(ctx, "/predict_proba", probaReq{Columns: s.columns, Features: features}, &resp, remoteAttempts); err != nil {
		return [2]float64{}, fmt.Errorf("remote scorer: %w", err)
	}
	if len(resp.Proba) != 2 {
		return [2]float64{}, fmt.Errorf("remote scorer: expected 2 probabilities, got %d", len(resp.Proba))
	}
	for _, p := range resp.Proba {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return [2]float64{}, fmt.Errorf("remote scorer: probability %v out of range", p)
		}
	}
	if resp.Model != "" {
		s.name.Store(resp.Model)
	}
	return [2]float64{resp.Proba[0], resp.Proba[1]}, nil
}

func (s *RemoteScorer) FeatureNames() []string { return s.columns }

func (s *RemoteScorer) Name() string { return s.name.Load().(string) }

var _ domsvc.Scorer = (*RemoteScorer)(nil)
