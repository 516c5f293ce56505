package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mudler/xlog"

	httpMiddleware "github.com/vidgen/vidgen/core/http/middleware"
	"github.com/vidgen/vidgen/core/http/routes"

	"github.com/vidgen/vidgen/core/application"
	"github.com/vidgen/vidgen/core/schema"
	"github.com/vidgen/vidgen/metrics"
)

// @title vidgen API
// @version 1.0.0
// @description Text to video generation over HTTP.
// @BasePath /

func API(application *application.Application) (*echo.Echo, error) {
	appConfig := application.ApplicationConfig()
	if appConfig.GeneratedContentDir == "" {
		return nil, fmt.Errorf("generated content dir is required")
	}

	e := echo.New()

	// Set body limit
	if appConfig.UploadLimitMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", appConfig.UploadLimitMB)))
	}

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		}
		if err := c.JSON(code, schema.ErrorResponse{
			Error: &schema.APIError{Message: msg, Code: code, Type: http.StatusText(code)},
		}); err != nil {
			xlog.Error("failed writing error response", "error", err)
		}
	}

	// Hide banner
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpMiddleware.RequestLogger())

	// Recover middleware
	if !appConfig.Debug {
		e.Use(middleware.Recover())
	}

	// Metrics middleware
	if m := application.Metrics(); m != nil {
		e.Use(metrics.APIMiddleware(m))
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	routes.HealthRoutes(e)

	routes.RegisterVidgenRoutes(e, application)

	e.Server.RegisterOnShutdown(func() {
		xlog.Info("vidgen API server shutting down")
	})

	return e, nil
}
