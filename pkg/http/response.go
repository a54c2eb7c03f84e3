package http

import (
	"fmt"
	"net/http"
	"time"

	applogger "StockPredictor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the status envelope with data.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// JSONResponse writes body as-is, without the envelope.
func JSONResponse(c echo.Context, statusCode int, body interface{}) error {
	return c.JSON(statusCode, body)
}

// ErrorMessageResponse writes {"error": message}.
func ErrorMessageResponse(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, ErrorBody{Error: message})
}

// CachedResponse writes a 200 body with a private Cache-Control header.
func CachedResponse(c echo.Context, ttl time.Duration, body interface{}) error {
	if ttl > 0 {
		c.Response().Header().Set(echo.HeaderCacheControl, fmt.Sprintf("private, max-age=%d", int(ttl.Seconds())))
	}
	return c.JSON(http.StatusOK, body)
}

// BadRequestResponse writes the validation errors in the envelope.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// AppErrorResponse writes err in the envelope with the status AsAppError picks.
func AppErrorResponse(c echo.Context, err error) error {
	appErr := AsAppError(err)
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}

// ErrorHandler renders errors that reach echo, such as unknown routes, in the envelope.
func ErrorHandler(l *applogger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		appErr := AsAppError(err)
		if appErr.Status >= http.StatusInternalServerError {
			l.Error("unhandled http error", applogger.String("uri", c.Request().RequestURI), applogger.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.Status)
			return
		}
		_ = DataResponse(c, appErr.Status, []*AppError{appErr})
	}
}
