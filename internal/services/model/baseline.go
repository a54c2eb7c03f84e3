package model

import (
	"context"

	domsvc "StockPredictor/internal/domain/service"
)

// BaselineName is reported by the constant fallback scorer.
const BaselineName = "Baseline"

// Baseline predicts an even chance for every input.
type Baseline struct {
	columns []string
}

func NewBaseline(columns []string) *Baseline {
	return &Baseline{columns: append([]string(nil), columns...)}
}

func (b *Baseline) PredictProba(ctx context.Context, _ domsvc.FeatureVector) ([2]float64, error) {
	if err := ctx.Err(); err != nil {
		return [2]float64{}, err
	}
	return [2]float64{0.5, 0.5}, nil
}

func (b *Baseline) FeatureNames() []string { return b.columns }

func (b *Baseline) Name() string { return BaselineName }

var _ domsvc.Scorer = (*Baseline)(nil)
