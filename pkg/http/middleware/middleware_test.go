package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	applogger "StockPredictor/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw...)
	e.GET("/series/:ticker", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("ticker"))
	})
	e.GET("/boom", func(c echo.Context) error {
		panic("kaboom")
	})
	return e
}

func serve(e *echo.Echo, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	e := newEcho(Metrics(applogger.Nop(), 0))
	ok := httpRequestsTotal.WithLabelValues("/series/:ticker", http.MethodGet, "200")
	before := testutil.ToFloat64(ok)

	serve(e, http.MethodGet, "/series/6501.T", nil)
	serve(e, http.MethodGet, "/series/7203.T", nil)

	assert.Equal(t, before+2, testutil.ToFloat64(ok))
	assert.Zero(t, testutil.ToFloat64(httpInFlight))
}

func TestMetricsCountsHandlerErrors(t *testing.T) {
	e := newEcho(Metrics(applogger.Nop(), 0))
	rec := serve(e, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoverWritesEnvelope(t *testing.T) {
	e := newEcho(Recover(applogger.Nop()))
	rec := serve(e, http.MethodGet, "/boom", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":500,"message":"Internal Server Error"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	e := newEcho(CORS(CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	rec := serve(e, http.MethodGet, "/series/6501.T", map[string]string{echo.HeaderOrigin: "http://localhost:3000"})
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get(echo.HeaderAccessControlAllowMethods))

	rec = serve(e, http.MethodOptions, "/series/6501.T", map[string]string{echo.HeaderOrigin: "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(e, http.MethodGet, "/series/6501.T", nil)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(429))
	assert.Equal(t, "5xx", statusClass(0))
}
