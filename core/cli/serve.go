package cli

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/mudler/xlog"
	"github.com/vidgen/vidgen/core/application"
	cliContext "github.com/vidgen/vidgen/core/cli/context"
	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/core/http"
	"github.com/vidgen/vidgen/pkg/signals"
)

type ServeCMD struct {
	Address             string        `env:"VIDGEN_ADDRESS,ADDRESS" default:":8080" help:"Bind address for the API server" group:"api"`
	GeneratedContentDir string        `env:"VIDGEN_GENERATED_CONTENT_PATH,GENERATED_CONTENT_PATH" type:"path" default:"${basepath}/generated/videos" help:"Location for generated videos, served under /generated-videos" group:"storage"`
	PresetsDir          string        `env:"VIDGEN_PRESETS_PATH,PRESETS_PATH" type:"path" default:"${basepath}/presets" help:"Directory of YAML presets, reloaded on change" group:"storage"`
	PresetsPollInterval time.Duration `env:"VIDGEN_PRESETS_POLL_INTERVAL" help:"Poll the presets directory at this interval as well as watching it" group:"storage"`
	UploadLimit         int           `env:"VIDGEN_UPLOAD_LIMIT,UPLOAD_LIMIT" default:"1" help:"Request body limit in MB" group:"api"`
	DisableMetrics      bool          `env:"VIDGEN_DISABLE_METRICS_ENDPOINT" default:"false" help:"Disable the /metrics endpoint" group:"api"`

	LocalFlags  `embed:""`
	RemoteFlags `embed:"" prefix:"remote-"`
}

func (s *ServeCMD) Run(ctx *cliContext.Context) error {
	localOpts, err := s.LocalFlags.appOptions()
	if err != nil {
		return err
	}

	opts := append(localOpts, s.RemoteFlags.appOptions()...)
	opts = append(opts,
		config.WithContext(context.Background()),
		config.WithDebug(ctx.Debug),
		config.WithGeneratedContentDir(s.GeneratedContentDir),
		config.WithPresetsDir(s.PresetsDir),
		config.WithPresetsPollInterval(s.PresetsPollInterval),
		config.WithUploadLimitMB(s.UploadLimit),
	)
	if s.DisableMetrics {
		opts = append(opts, config.DisableMetricsEndpoint)
	}

	app, err := application.New(config.NewApplicationConfig(opts...))
	if err != nil {
		return fmt.Errorf("failed basic startup tasks with error %s", err.Error())
	}

	appHTTP, err := http.API(app)
	if err != nil {
		xlog.Error("error during HTTP App construction", "error", err)
		return err
	}

	xlog.Info("vidgen is started and running", "address", s.Address)

	signals.RegisterGracefulTerminationHandler(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := appHTTP.Shutdown(shutdownCtx); err != nil {
			xlog.Error("error while shutting down the API server", "error", err)
		}
		if err := app.Stop(); err != nil {
			xlog.Error("error while stopping the application", "error", err)
		}
	})

	return serveResult(appHTTP.Start(s.Address))
}

// serveResult treats the error returned by a graceful shutdown as a clean
// stop.
func serveResult(err error) error {
	if errors.Is(err, nethttp.ErrServerClosed) {
		xlog.Info("API server stopped")
		return nil
	}
	return err
}
