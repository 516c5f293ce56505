package application

import (
	"fmt"
	"os"

	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/internal"
	"github.com/vidgen/vidgen/metrics"
	"github.com/vidgen/vidgen/pkg/xsysinfo"

	"github.com/mudler/xlog"
)

func New(appConfig *config.ApplicationConfig, opts ...Option) (*Application, error) {
	application := newApplication(appConfig, opts...)

	xlog.Info("Starting vidgen", "outputDir", appConfig.GeneratedContentDir, "presetsDir", appConfig.PresetsDir)
	xlog.Info("vidgen version", "version", internal.PrintableVersion())

	xlog.Debug("CPU capabilities", "capabilities", xsysinfo.CPUCapabilities())
	gpus, err := xsysinfo.GPUs()
	if err == nil {
		xlog.Debug("GPU count", "count", len(gpus))
		for _, gpu := range gpus {
			xlog.Debug("GPU", "gpu", gpu.String())
		}
	}

	if appConfig.GeneratedContentDir == "" {
		return nil, fmt.Errorf("generated content dir cannot be empty")
	}
	if err := os.MkdirAll(appConfig.GeneratedContentDir, 0750); err != nil {
		return nil, fmt.Errorf("unable to create GeneratedContentDir: %q", err)
	}

	if appConfig.PresetsDir != "" {
		if err := application.presetLoader.LoadPresetsFromPath(appConfig.PresetsDir); err != nil {
			xlog.Error("error loading presets", "error", err, "path", appConfig.PresetsDir)
		}
	}

	if !appConfig.DisableMetrics {
		m, err := metrics.SetupMetrics()
		if err != nil {
			return nil, fmt.Errorf("setting up metrics: %w", err)
		}
		application.metrics = m
	}

	application.startWatcher()

	xlog.Info("core/startup process completed!")
	return application, nil
}

func (a *Application) startWatcher() {
	options := a.applicationConfig
	if options.PresetsDir == "" {
		// No need to start the watcher if the directory is not set
		return
	}

	if _, err := os.Stat(options.PresetsDir); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(options.PresetsDir, 0700); err != nil {
				xlog.Error("failed creating PresetsDir", "error", err)
			}
		} else {
			xlog.Error("failed to read PresetsDir, watcher will not be started", "error", err)
			return
		}
	}

	w := newPresetWatcher(options, a.presetLoader)
	if err := w.Watch(); err != nil {
		xlog.Error("failed creating watcher", "error", err)
		return
	}
	a.watcher = w
}

// Stop releases the watcher and flushes metrics.
func (a *Application) Stop() error {
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			return err
		}
	}
	if a.metrics != nil {
		return a.metrics.Shutdown(a.applicationConfig.Context)
	}
	return nil
}
