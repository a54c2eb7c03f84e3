package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Ticker  string `query:"ticker" default:"6501" validate:"required,max=8"`
	Color   string `query:"color" default:"red" validate:"palette"`
	Horizon int    `query:"horizon" default:"5" validate:"gte=1,lte=365"`
}

func bindQuery(t *testing.T, query string) (*sampleRequest, []ValidationError) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?"+query, nil), httptest.NewRecorder())
	req := &sampleRequest{}
	return req, ReadAndValidateRequest(c, req)
}

func init() {
	if err := RegisterStringRule("palette",
		func(s string) bool { return s == "red" || s == "blue" },
		func(field string) string { return field + " must be red or blue" },
	); err != nil {
		panic(err)
	}
}

func TestReadAndValidateRequest(t *testing.T) {
	req, verr := bindQuery(t, "")
	require.Nil(t, verr)
	assert.Equal(t, "6501", req.Ticker)
	assert.Equal(t, 5, req.Horizon)

	_, verr = bindQuery(t, "ticker=TOOLONGTICKER&color=green&horizon=400")
	require.Len(t, verr, 3)
	byField := map[string]ValidationError{}
	for _, v := range verr {
		byField[v.Field] = v
	}
	assert.Equal(t, "ERR_MAX", byField["ticker"].Code)
	assert.Equal(t, "ticker must be at most 8 characters", byField["ticker"].Message)
	assert.Equal(t, "color must be red or blue", byField["color"].Message)
	assert.Equal(t, "ERR_LTE", byField["horizon"].Code)
	assert.Equal(t, "365", byField["horizon"].Params["max"])
}

func TestReadAndValidateRequestBindError(t *testing.T) {
	_, verr := bindQuery(t, "horizon=soon")
	require.Len(t, verr, 1)
	assert.Equal(t, "ERR_BIND", verr[0].Code)
	assert.NotEmpty(t, verr[0].Message)
}
