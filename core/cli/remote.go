package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mudler/xlog"
	"github.com/schollz/progressbar/v3"
	"github.com/vidgen/vidgen/core/backend"
	cliContext "github.com/vidgen/vidgen/core/cli/context"
	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/pkg/signals"
)

const DefaultRemoteScript = `A serene lake surrounded by tall pine trees at sunset, with gentle ripples on the water surface and warm golden light filtering through the branches`

type RemoteCMD struct {
	Script []string `arg:"" optional:"" help:"Text script describing the video"`

	Output   string `short:"o" env:"VIDGEN_REMOTE_OUTPUT" type:"path" default:"output_video.mp4" help:"Where the downloaded video is written"`
	Frames   int    `short:"n" env:"VIDGEN_FRAMES" default:"16" help:"Number of frames requested from the model"`
	FPS      int    `env:"VIDGEN_FPS" default:"8" help:"Frames per second requested from the model"`
	Progress bool   `env:"VIDGEN_PROGRESS" default:"true" negatable:"" help:"Show a download progress bar"`

	RemoteFlags `embed:""`
}

func (r *RemoteCMD) script() string {
	s := strings.TrimSpace(strings.Join(r.Script, " "))
	if s == "" {
		return DefaultRemoteScript
	}
	return s
}

func (r *RemoteCMD) Run(ctx *cliContext.Context) error {
	// the generator removes its partial output before returning on a signal
	runCtx, stop := signals.NotifyContext(context.Background())
	defer stop()

	opts := append(r.RemoteFlags.appOptions(),
		config.WithContext(runCtx),
		config.WithDebug(ctx.Debug),
		config.WithRemoteOutput(r.Output),
	)
	appConfig := config.NewApplicationConfig(opts...)
	xlog.Debug("Remote generator configured", "model", appConfig.RemoteModel, "credentials", appConfig.Credentials.String())

	var genOpts []backend.RemoteOption
	if r.Progress {
		progressBar := progressbar.NewOptions(
			1000,
			progressbar.OptionSetDescription(fmt.Sprintf("downloading %s", r.Output)),
			progressbar.OptionShowBytes(false),
			progressbar.OptionClearOnFinish(),
		)
		genOpts = append(genOpts, backend.WithDownloadStatus(func(fileName, current, total string, percentage float64) {
			v := int(percentage * 10)
			if err := progressBar.Set(v); err != nil {
				xlog.Error("error while updating progress bar", "filename", fileName, "value", v, "error", err)
			}
		}))
	}

	g := backend.NewRemoteGenerator(appConfig, genOpts...)
	_, err := g.GenerateWithProgress(runCtx, backend.RemoteRequest{
		Prompt:     r.script(),
		OutputPath: r.Output,
		NumFrames:  r.Frames,
		FPS:        r.FPS,
	})
	return err
}
