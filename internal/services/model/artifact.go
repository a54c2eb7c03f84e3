package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	domsvc "StockPredictor/internal/domain/service"

	"gonum.org/v1/gonum/floats"
)

// Artifact is the on-disk form of a fitted linear classifier.
type Artifact struct {
	ModelType    string    `json:"model_type"`
	FeatureNames []string  `json:"feature_names"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Scaler       *Scaler   `json:"scaler,omitempty"`
}

// Scaler standardizes inputs as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (a *Artifact) validate() error {
	if a.ModelType == "" {
		return errors.New("model_type is empty")
	}
	if len(a.FeatureNames) == 0 {
		return errors.New("feature_names is empty")
	}
	if len(a.Coefficients) != len(a.FeatureNames) {
		return fmt.Errorf("%d coefficients for %d features", len(a.Coefficients), len(a.FeatureNames))
	}
	if s := a.Scaler; s != nil {
		if len(s.Mean) != len(a.FeatureNames) || len(s.Scale) != len(a.FeatureNames) {
			return errors.New("scaler length does not match feature_names")
		}
		for i, v := range s.Scale {
			if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("scaler scale for %s is %v", a.FeatureNames[i], v)
			}
		}
	}
	return nil
}

// ArtifactScorer scores with p_up = sigmoid(intercept + coef . standardized(x)).
type ArtifactScorer struct {
	art *Artifact
}

// LoadArtifact reads and validates a JSON artifact.
func LoadArtifact(path string) (*ArtifactScorer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var art Artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if err := art.validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact %s: %w", path, err)
	}
	return &ArtifactScorer{art: &art}, nil
}

func (s *ArtifactScorer) PredictProba(ctx context.Context, x domsvc.FeatureVector) ([2]float64, error) {
	if err := ctx.Err(); err != nil {
		return [2]float64{}, err
	}
	z := make([]float64, len(s.art.FeatureNames))
	for i, name := range s.art.FeatureNames {
		v, ok := x.Get(name)
		if !ok {
			return [2]float64{}, &domsvc.MissingFeatureError{Feature: name}
		}
		if sc := s.art.Scaler; sc != nil {
			v = (v - sc.Mean[i]) / sc.Scale[i]
		}
		z[i] = v
	}
	logit := s.art.Intercept + floats.Dot(s.art.Coefficients, z)
	p := 1 / (1 + math.Exp(-logit))
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return [2]float64{}, fmt.Errorf("non-finite probability from logit %v", logit)
	}
	return [2]float64{1 - p, p}, nil
}

func (s *ArtifactScorer) FeatureNames() []string { return s.art.FeatureNames }

func (s *ArtifactScorer) Name() string { return s.art.ModelType }

var _ domsvc.Scorer = (*ArtifactScorer)(nil)
