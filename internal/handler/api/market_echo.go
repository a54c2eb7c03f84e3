package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	models "StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	"StockPredictor/internal/service/metrics"
	"StockPredictor/internal/service/ratelimit"
	"StockPredictor/internal/usecase"
	xhttp "StockPredictor/pkg/http"
	xlogger "StockPredictor/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	modelNoData         = "No data available"
	modelFeatureFailure = "Feature calculation failed"
	rateLimitedMessage  = "rate limit exceeded"
)

var registerRules sync.Once

// registerIntervalRule backs the interval validate tag of the request models.
func registerIntervalRule() {
	registerRules.Do(func() {
		names := make([]string, 0, len(domrepo.Intervals()))
		for _, iv := range domrepo.Intervals() {
			names = append(names, string(iv))
		}
		msg := strings.Join(names, ", ")
		err := xhttp.RegisterStringRule("interval",
			func(s string) bool { return domrepo.IsValidInterval(domrepo.Interval(s)) },
			func(field string) string { return fmt.Sprintf("%s must be one of: %s", field, msg) },
		)
		if err != nil {
			panic(err)
		}
	})
}

type seriesResponse struct {
	Ticker string             `json:"ticker"`
	Name   string             `json:"name"`
	Frame  string             `json:"frame"`
	Rows   []models.SeriesRow `json:"rows"`
}

// predictResponse keeps the same shape for success and data failures; numbers are null on failure.
type predictResponse struct {
	Ticker        string   `json:"ticker"`
	Name          string   `json:"name"`
	AsOf          *string  `json:"asof"`
	Close         *float64 `json:"close"`
	ExpectedValue *float64 `json:"expected_value"`
	Probability   *float64 `json:"probability"`
	Model         string   `json:"model"`
}

// MarketEchoHandler serves the chart series and prediction endpoints.
type MarketEchoHandler struct {
	logger   *xlogger.Logger
	series   *usecase.SeriesUseCase
	predict  *usecase.PredictionUseCase
	limiter  *ratelimit.Limiter
	cacheTTL time.Duration
}

// NewMarketEchoHandler creates the handler. A nil limiter disables rate limiting.
func NewMarketEchoHandler(
	logger *xlogger.Logger,
	series *usecase.SeriesUseCase,
	predict *usecase.PredictionUseCase,
	limiter *ratelimit.Limiter,
	cacheTTL time.Duration,
) *MarketEchoHandler {
	metrics.Register()
	registerIntervalRule()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &MarketEchoHandler{
		logger:   logger,
		series:   series,
		predict:  predict,
		limiter:  limiter,
		cacheTTL: cacheTTL,
	}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	series := h.instrument("series", h.Series)
	predict := h.instrument("predict", h.Predict)

	e.GET("/api/series", series)
	e.GET("/series/", series)
	e.GET("/api/predict", predict)
	e.GET("/predict/", predict)
}

// instrument applies the rate limit and records latency for one endpoint.
func (h *MarketEchoHandler) instrument(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			metrics.RateLimited.Inc()
			metrics.APIErrors.WithLabelValues(endpoint, "rate_limited").Inc()
			h.logger.Warn("rate limited",
				xlogger.String("endpoint", endpoint),
				xlogger.String("remote_ip", c.RealIP()),
			)
			return xhttp.ErrorMessageResponse(c, http.StatusTooManyRequests, rateLimitedMessage)
		}
		return next(c)
	}
}

func (h *MarketEchoHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("series", "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.series.GetSeries(c.Request().Context(), usecase.SeriesParams{
		Ticker: req.Ticker,
		Frame:  req.Frame,
	})
	if err != nil {
		var nf *usecase.SeriesNotFoundError
		if errors.As(err, &nf) {
			metrics.APIErrors.WithLabelValues("series", "not_found").Inc()
			return xhttp.ErrorMessageResponse(c, http.StatusNotFound, nf.Error())
		}
		metrics.APIErrors.WithLabelValues("series", "internal").Inc()
		h.logger.Error("series usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("request failed").WithError(err))
	}

	return xhttp.CachedResponse(c, h.cacheTTL, seriesResponse{
		Ticker: res.Ticker,
		Name:   res.Name,
		Frame:  res.Frame,
		Rows:   res.Rows,
	})
}

func (h *MarketEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("predict", "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	p, err := h.predict.Predict(c.Request().Context(), usecase.PredictParams{
		Ticker:  req.Ticker,
		Frame:   req.Frame,
		Horizon: req.Horizon,
	})
	if err != nil {
		return h.predictFailure(c, err)
	}

	return xhttp.CachedResponse(c, h.cacheTTL, predictResponse{
		Ticker:        p.Ticker,
		Name:          p.Name,
		AsOf:          &p.AsOf,
		Close:         &p.Close,
		ExpectedValue: &p.ExpectedValue,
		Probability:   &p.Probability,
		Model:         p.Model,
	})
}

func (h *MarketEchoHandler) predictFailure(c echo.Context, err error) error {
	var pe *usecase.PredictionError
	if !errors.As(err, &pe) {
		metrics.APIErrors.WithLabelValues("predict", "internal").Inc()
		h.logger.Error("predict usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("request failed").WithError(err))
	}
	metrics.APIErrors.WithLabelValues("predict", pe.Kind.String()).Inc()

	switch pe.Kind {
	case usecase.KindNotFound:
		return xhttp.JSONResponse(c, http.StatusNotFound, predictResponse{
			Ticker: pe.Ticker,
			Name:   pe.Name,
			Model:  modelNoData,
		})
	case usecase.KindComputeEmpty:
		return xhttp.JSONResponse(c, http.StatusInternalServerError, predictResponse{
			Ticker: pe.Ticker,
			Name:   pe.Name,
			Model:  modelFeatureFailure,
		})
	default:
		cause := pe.Error()
		if pe.Err != nil {
			cause = pe.Err.Error()
		}
		return xhttp.ErrorMessageResponse(c, http.StatusInternalServerError, "Prediction error: "+cause)
	}
}
