package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routes struct{}

func (routes) RegisterRoutes(e *echo.Echo) {
	e.GET("/fail", func(c echo.Context) error {
		return AppErrorResponse(c, InternalError("request failed").WithError(errors.New("db down")))
	})
	e.GET("/missing", func(c echo.Context) error {
		return BadRequestError("ticker is required")
	})
}

func TestAsAppError(t *testing.T) {
	cause := errors.New("timeout")
	wrapped := fmt.Errorf("fetch: %w", NotFoundError("no data").WithError(cause))

	appErr := AsAppError(wrapped)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, "no data: timeout", appErr.Error())

	he := AsAppError(echo.NewHTTPError(http.StatusMethodNotAllowed))
	assert.Equal(t, http.StatusMethodNotAllowed, he.Status)
	assert.Equal(t, "ERR_HTTP_405", he.Code)

	plain := AsAppError(cause)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.Equal(t, "ERR_INTERNAL", plain.Code)
}

func TestServerRendersErrorsInEnvelope(t *testing.T) {
	e := NewServer(routes{}, nil).Echo()

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/fail", http.StatusInternalServerError, "ERR_INTERNAL"},
		{"/missing", http.StatusBadRequest, "ERR_BAD_REQUEST"},
		{"/nowhere", http.StatusNotFound, "ERR_HTTP_404"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.Equal(t, tc.status, rec.Code)

			var body struct {
				Status int        `json:"status"`
				Data   []AppError `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body.Status)
			require.Len(t, body.Data, 1)
			assert.Equal(t, tc.code, body.Data[0].Code)
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}

func TestServerHealthz(t *testing.T) {
	e := NewServer(nil, nil).Echo()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
