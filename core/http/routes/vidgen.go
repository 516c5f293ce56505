package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/vidgen/vidgen/core/application"
	"github.com/vidgen/vidgen/core/http/endpoints/vidgen"
)

func RegisterVidgenRoutes(e *echo.Echo, app *application.Application) {
	e.POST("/video", vidgen.VideoEndpoint(app))
	e.POST("/v1/video", vidgen.VideoEndpoint(app))

	e.GET("/presets", vidgen.ListPresetsEndpoint(app))

	e.GET("/generated-videos/*", vidgen.GeneratedVideoEndpoint(app.ApplicationConfig().GeneratedContentDir))
}
