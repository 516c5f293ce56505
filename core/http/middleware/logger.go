package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mudler/xlog"
)

// RequestLogger logs every request once it has been served.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler set the final status before logging
				c.Error(err)
			}
			req := c.Request()
			xlog.Info("HTTP request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"latency", time.Since(start).String())
			return nil
		}
	}
}
