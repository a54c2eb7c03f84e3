package usecase

import (
	"context"
	"math"
	"strconv"
	"time"

	"StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	domsvc "StockPredictor/internal/domain/service"
	"StockPredictor/internal/services/features"
	applogger "StockPredictor/pkg/logger"
	xutil "StockPredictor/pkg/util"

	"github.com/shopspring/decimal"
)

// FeatureCalculator builds the feature table for a series.
type FeatureCalculator interface {
	Calculate(ctx context.Context, s *models.PriceSeries) *features.Frame
}

// ScorerProvider hands out the process-wide scorer.
type ScorerProvider interface {
	Get() (domsvc.Scorer, error)
}

// PredictParams selects what to score. Horizon is accepted for logging only.
type PredictParams struct {
	Ticker  string
	Frame   string
	Horizon int
}

// PredictionUseCase runs fetch, features and scoring for one ticker.
type PredictionUseCase struct {
	data     domrepo.MarketData
	pipeline FeatureCalculator
	scorers  ScorerProvider
	names    domrepo.NameResolver
	metrics  domrepo.Metrics
	logger   *applogger.Logger
}

func NewPredictionUseCase(
	data domrepo.MarketData,
	pipeline FeatureCalculator,
	scorers ScorerProvider,
	names domrepo.NameResolver,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
) *PredictionUseCase {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &PredictionUseCase{
		data:     data,
		pipeline: pipeline,
		scorers:  scorers,
		names:    names,
		metrics:  metrics,
		logger:   logger,
	}
}

// Predict scores the latest feature row. Failures are returned as *PredictionError.
func (u *PredictionUseCase) Predict(ctx context.Context, p PredictParams) (*models.Prediction, error) {
	start := time.Now()
	defer func() { u.metrics.RecordLatency("predict", time.Since(start).Seconds()) }()

	ticker := models.NormalizeTicker(p.Ticker)
	log := u.logger.With(
		applogger.String("ticker", ticker),
		applogger.String("frame", p.Frame),
		applogger.Int("horizon", p.Horizon),
	)

	res := u.data.Fetch(ctx, domrepo.Query{
		Ticker:   ticker,
		Interval: domrepo.Interval(p.Frame),
		Years:    DefaultHistoryYears,
	})
	if !res.Found() {
		log.Debug("prediction input not found")
		return nil, u.fail(ctx, KindNotFound, p.Ticker, ticker, res.Reason)
	}

	frame := u.pipeline.Calculate(ctx, res.Series)
	if frame.Empty() {
		log.Warn("feature table is empty", applogger.Int("bars", res.Series.Len()))
		return nil, u.fail(ctx, KindComputeEmpty, p.Ticker, ticker, nil)
	}

	scorer, err := u.scorers.Get()
	if err != nil {
		log.Error("model unavailable", applogger.Error(err))
		return nil, u.fail(ctx, KindScoringFailure, p.Ticker, "", err)
	}
	x := frame.LastVector(features.FeatureColumns)
	proba, err := scorer.PredictProba(ctx, x)
	if err != nil {
		log.Error("scoring failed", applogger.String("model", scorer.Name()), applogger.Error(err))
		return nil, u.fail(ctx, KindScoringFailure, p.Ticker, "", err)
	}
	pUp := proba[1]

	last := frame.Len() - 1
	closePx, _ := frame.Value(features.ColClose, last)
	asOf, _ := frame.LastDate()

	out := &models.Prediction{
		Ticker:        p.Ticker,
		Name:          u.names.ResolveName(ctx, ticker),
		AsOf:          xutil.FormatDate(asOf),
		Close:         closePx,
		ExpectedValue: ExpectedValue(closePx, pUp),
		Probability:   round(pUp, 4),
		Model:         scorer.Name(),
	}
	u.metrics.RecordPrediction(out.Model, pUp)
	log.Info("prediction served",
		applogger.String("model", out.Model),
		applogger.Float64("probability", out.Probability),
		applogger.String("asof", out.AsOf),
	)
	return out, nil
}

func (u *PredictionUseCase) fail(ctx context.Context, kind PredictionErrorKind, input, ticker string, err error) *PredictionError {
	u.metrics.RecordError("predict_" + kind.String())
	pe := &PredictionError{Kind: kind, Ticker: input, Err: err}
	if ticker != "" {
		pe.Name = u.names.ResolveName(ctx, ticker)
	}
	return pe
}

// ExpectedValue is close scaled by the probability's distance from even, rounded to cents.
// The product is taken in float64 and the unrounded probability is used.
func ExpectedValue(closePx, pUp float64) float64 {
	return round(closePx*(1+(pUp-0.5)), 2)
}

// round rounds the exact binary value of v, breaking exact ties to even.
func round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	out, _ := decimal.RequireFromString(strconv.FormatFloat(v, 'f', places, 64)).Float64()
	return out
}
