package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resort-storefront/internal/logger"
)

// ErrorHandler renders unhandled errors as {"error": msg}. Internal errors
// are logged and answered with a generic message.
func ErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	if log == nil {
		log = logger.Nop{}
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else {
			log.Error("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, echo.Map{"error": msg})
	}
}
