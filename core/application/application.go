package application

import (
	"github.com/vidgen/vidgen/core/backend"
	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/metrics"
)

// Application ties the configuration, the presets and the generators
// together for long running processes.
type Application struct {
	applicationConfig *config.ApplicationConfig
	presetLoader      *config.PresetLoader
	metrics           *metrics.Metrics
	watcher           *presetWatcher

	localOpts  []backend.LocalOption
	remoteOpts []backend.RemoteOption
}

type Option func(*Application)

// WithLocalOptions is passed to every local generator the application builds.
func WithLocalOptions(opts ...backend.LocalOption) Option {
	return func(a *Application) {
		a.localOpts = append(a.localOpts, opts...)
	}
}

// WithRemoteOptions is passed to every remote generator the application builds.
func WithRemoteOptions(opts ...backend.RemoteOption) Option {
	return func(a *Application) {
		a.remoteOpts = append(a.remoteOpts, opts...)
	}
}

func newApplication(appConfig *config.ApplicationConfig, opts ...Option) *Application {
	a := &Application{
		applicationConfig: appConfig,
		presetLoader:      config.NewPresetLoader(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Application) ApplicationConfig() *config.ApplicationConfig {
	return a.applicationConfig
}

func (a *Application) PresetLoader() *config.PresetLoader {
	return a.presetLoader
}

// Metrics is nil when metrics are disabled.
func (a *Application) Metrics() *metrics.Metrics {
	return a.metrics
}

// configFor returns a copy of the application config with the preset
// applied, so one request cannot leak settings into the next.
func (a *Application) configFor(preset *config.Preset) *config.ApplicationConfig {
	cfg := *a.applicationConfig
	if a.applicationConfig.GeneratedContentDir != "" {
		cfg.OutputDir = a.applicationConfig.GeneratedContentDir
	}
	if preset != nil {
		preset.ApplyTo(&cfg)
	}
	return &cfg
}

// LocalGenerator builds a local generator writing into the generated content
// directory. preset may be nil.
func (a *Application) LocalGenerator(preset *config.Preset) (*backend.LocalGenerator, error) {
	return backend.NewLocalGenerator(a.configFor(preset), a.localOpts...)
}

// RemoteGenerator builds a remote generator. preset may be nil.
func (a *Application) RemoteGenerator(preset *config.Preset) *backend.RemoteGenerator {
	return backend.NewRemoteGenerator(a.configFor(preset), a.remoteOpts...)
}
