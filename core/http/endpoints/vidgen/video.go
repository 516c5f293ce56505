package vidgen

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mudler/xlog"
	"github.com/vidgen/vidgen/core/application"
	"github.com/vidgen/vidgen/core/backend"
	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/core/http/middleware"
	"github.com/vidgen/vidgen/core/schema"
)

// StatusForKind maps a generation failure to the HTTP status returned to
// the client.
func StatusForKind(kind backend.FailureKind) int {
	switch kind {
	case backend.SetupFailure:
		return http.StatusServiceUnavailable
	case backend.InferenceFailure, backend.DownloadFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func failureResponse(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	errType := "server_error"
	if kind, ok := backend.KindOf(err); ok {
		code = StatusForKind(kind)
		errType = kind.String()
	}
	return c.JSON(code, schema.ErrorResponse{
		Error: &schema.APIError{Code: code, Message: err.Error(), Type: errType},
	})
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := backend.KindOf(err); ok {
		return kind.String()
	}
	return "error"
}

// VideoEndpoint
// @Summary Generates a video from a prompt with the local or the remote backend.
// @Param request body schema.VideoRequest true "query params"
// @Success 200 {object} schema.VideoResponse "Response"
// @Router /video [post]
func VideoEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		input := new(schema.VideoRequest)
		if err := c.Bind(input); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		var preset *config.Preset
		if input.Preset != "" {
			p, ok := app.PresetLoader().GetPreset(input.Preset)
			if !ok {
				return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("preset %q not found", input.Preset))
			}
			preset = &p
			if input.Prompt == "" {
				input.Prompt = p.Prompt
			}
			if input.NumFrames == 0 {
				input.NumFrames = p.NumFrames
			}
			if input.FPS == 0 {
				input.FPS = p.FPS
			}
		}

		if strings.TrimSpace(input.Prompt) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
		}
		if input.NumFrames < 0 || input.FPS < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "num_frames and fps must not be negative")
		}

		backendName := strings.ToLower(input.Backend)
		if backendName == "" {
			backendName = backend.BackendLocal
		}

		xlog.Debug("Video request", "backend", backendName, "preset", input.Preset, "frames", input.NumFrames, "fps", input.FPS)

		ctx := c.Request().Context()
		start := time.Now()

		var res *backend.Result
		var err error
		switch backendName {
		case backend.BackendLocal:
			g, gerr := app.LocalGenerator(preset)
			if gerr != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, gerr.Error())
			}
			res, err = g.Generate(ctx, backend.LocalRequest{
				Prompt:    input.Prompt,
				NumFrames: input.NumFrames,
				FPS:       input.FPS,
			})
		case backend.BackendRemote:
			out := filepath.Join(app.ApplicationConfig().GeneratedContentDir, "remote_"+uuid.New().String()+".mp4")
			res, err = app.RemoteGenerator(preset).Generate(ctx, backend.RemoteRequest{
				Prompt:     input.Prompt,
				OutputPath: out,
				NumFrames:  input.NumFrames,
				FPS:        input.FPS,
			})
		default:
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown backend %q", input.Backend))
		}

		if m := app.Metrics(); m != nil {
			m.ObserveGeneration(backendName, outcome(err), time.Since(start))
		}

		if err != nil {
			xlog.Error("Video generation failed", "backend", backendName, "error", err)
			return failureResponse(c, err)
		}

		item := schema.VideoItem{
			URL:    middleware.BaseURL(c) + "generated-videos/" + filepath.Base(res.Path),
			Frames: res.Frames,
			FPS:    res.FPS,
			Device: string(res.Device),
			SHA256: res.SHA256,
		}

		return c.JSON(http.StatusOK, schema.VideoResponse{
			ID:      uuid.New().String(),
			Object:  "video",
			Created: time.Now().Unix(),
			Backend: backendName,
			Data:    []schema.VideoItem{item},
		})
	}
}

// ListPresetsEndpoint
// @Summary List the generation presets currently loaded.
// @Success 200 {object} schema.PresetList "Response"
// @Router /presets [get]
func ListPresetsEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		list := schema.PresetList{Object: "list", Data: []schema.PresetItem{}}
		for _, p := range app.PresetLoader().ListPresets() {
			list.Data = append(list.Data, schema.PresetItem{
				Name:        p.Name,
				Description: p.Description,
				NumFrames:   p.NumFrames,
				FPS:         p.FPS,
			})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// GeneratedVideoEndpoint serves finished videos from dir. Lock files,
// partial downloads and the empty placeholders of runs still in flight are
// not served.
func GeneratedVideoEndpoint(dir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		name, err := url.PathUnescape(c.Param("*"))
		if err != nil {
			return echo.ErrNotFound
		}
		if name == "" || strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".partial") {
			return echo.ErrNotFound
		}

		p := filepath.Join(dir, name)
		fi, err := os.Stat(p)
		if err != nil || !fi.Mode().IsRegular() || fi.Size() == 0 {
			return echo.ErrNotFound
		}
		return c.File(p)
	}
}
