package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mudler/xlog"
	"github.com/vidgen/vidgen/core/backend"
	cliContext "github.com/vidgen/vidgen/core/cli/context"
	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/pkg/signals"
)

const DefaultLocalPrompt = "A serene mountain landscape with flowing clouds"

type LocalCMD struct {
	Prompt []string `arg:"" optional:"" help:"Text prompt, defaults to the preset prompt or a mountain landscape"`

	Frames    int    `short:"n" env:"VIDGEN_FRAMES" help:"Number of frames (default 16, or the preset's)"`
	FPS       int    `env:"VIDGEN_FPS" help:"Frames per second (default 8, or the preset's)"`
	OutputDir string `short:"o" env:"VIDGEN_OUTPUT_DIR" type:"path" default:"output_videos" help:"Directory the video is written to"`
	Preset    string `short:"p" env:"VIDGEN_PRESET" type:"existingfile" help:"YAML preset with generation parameters"`

	LocalFlags `embed:""`
}

// request resolves the prompt and frame settings. Explicit flags win over
// the preset, the preset over the built-in defaults.
func (l *LocalCMD) request(preset *config.Preset) backend.LocalRequest {
	req := backend.LocalRequest{
		Prompt:    strings.TrimSpace(strings.Join(l.Prompt, " ")),
		NumFrames: l.Frames,
		FPS:       l.FPS,
	}
	if preset != nil {
		if req.Prompt == "" {
			req.Prompt = preset.Prompt
		}
		if req.NumFrames == 0 {
			req.NumFrames = preset.NumFrames
		}
		if req.FPS == 0 {
			req.FPS = preset.FPS
		}
	}
	if req.Prompt == "" {
		req.Prompt = DefaultLocalPrompt
	}
	if req.NumFrames == 0 {
		req.NumFrames = config.DefaultNumFrames
	}
	if req.FPS == 0 {
		req.FPS = config.DefaultFPS
	}
	return req
}

func (l *LocalCMD) appConfig(ctx context.Context, debug bool) (*config.ApplicationConfig, *config.Preset, error) {
	opts, err := l.LocalFlags.appOptions()
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts,
		config.WithContext(ctx),
		config.WithDebug(debug),
		config.WithOutputDir(l.OutputDir),
	)
	appConfig := config.NewApplicationConfig(opts...)

	if l.Preset == "" {
		return appConfig, nil, nil
	}
	preset, err := config.ReadPresetFile(l.Preset)
	if err != nil {
		return nil, nil, err
	}
	preset.ApplyTo(appConfig)
	xlog.Debug("Preset applied", "preset", preset.Name, "file", preset.File())
	return appConfig, preset, nil
}

func (l *LocalCMD) Run(ctx *cliContext.Context) error {
	// the generator removes its partial output before returning on a signal
	runCtx, stop := signals.NotifyContext(context.Background())
	defer stop()

	appConfig, preset, err := l.appConfig(runCtx, ctx.Debug)
	if err != nil {
		return err
	}

	g, err := backend.NewLocalGenerator(appConfig)
	if err != nil {
		return err
	}

	res, err := g.Generate(runCtx, l.request(preset))
	if err != nil {
		return err
	}

	fmt.Printf("Video saved to %s\n", res.Path)
	return nil
}
