package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mudler/xlog"
	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/pkg/downloader"
	"github.com/vidgen/vidgen/pkg/hosted"
)

type RemoteRequest struct {
	Prompt     string
	OutputPath string
	NumFrames  int
	FPS        int
}

// PredictorFactory builds a hosted client from explicit credentials.
type PredictorFactory func(appConfig *config.ApplicationConfig) (hosted.Predictor, error)

// DownloadFunc fetches url into dst.
type DownloadFunc func(ctx context.Context, url, dst string, status downloader.StatusFunc) (*downloader.Artifact, error)

// RemoteGenerator asks a hosted model for a video and downloads it.
type RemoteGenerator struct {
	appConfig  *config.ApplicationConfig
	predictors PredictorFactory
	download   DownloadFunc
	status     downloader.StatusFunc
	out        io.Writer
}

type RemoteOption func(*RemoteGenerator)

func WithPredictorFactory(f PredictorFactory) RemoteOption {
	return func(g *RemoteGenerator) {
		g.predictors = f
	}
}

// WithPredictor always hands out p.
func WithPredictor(p hosted.Predictor) RemoteOption {
	return WithPredictorFactory(func(*config.ApplicationConfig) (hosted.Predictor, error) {
		return p, nil
	})
}

func WithDownloadFunc(f DownloadFunc) RemoteOption {
	return func(g *RemoteGenerator) {
		g.download = f
	}
}

func WithDownloadStatus(f downloader.StatusFunc) RemoteOption {
	return func(g *RemoteGenerator) {
		g.status = f
	}
}

// WithProgressOutput sets where GenerateWithProgress prints.
func WithProgressOutput(w io.Writer) RemoteOption {
	return func(g *RemoteGenerator) {
		g.out = w
	}
}

func ReplicatePredictor(appConfig *config.ApplicationConfig) (hosted.Predictor, error) {
	return hosted.NewReplicate(hosted.ReplicateConfig{
		Token:   appConfig.Credentials.ReplicateToken,
		BaseURL: appConfig.RemoteBaseURL,
	})
}

func NewRemoteGenerator(appConfig *config.ApplicationConfig, opts ...RemoteOption) *RemoteGenerator {
	g := &RemoteGenerator{
		appConfig:  appConfig,
		predictors: ReplicatePredictor,
		download:   downloader.Download,
		out:        os.Stdout,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *RemoteGenerator) model() (hosted.ModelRef, error) {
	if g.appConfig.RemoteModel == "" {
		return hosted.DefaultModel, nil
	}
	return hosted.ParseModelRef(g.appConfig.RemoteModel)
}

// Generate submits the prompt, waits for the hosted model and downloads the
// single URL it returns to req.OutputPath.
func (g *RemoteGenerator) Generate(ctx context.Context, req RemoteRequest) (*Result, error) {
	start := time.Now()

	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fail(SetupFailure, "validate request", fmt.Errorf("empty prompt"))
	}
	if req.OutputPath == "" {
		req.OutputPath = g.appConfig.RemoteOutput
	}
	if req.OutputPath == "" {
		req.OutputPath = config.DefaultRemoteOutput
	}
	if req.NumFrames == 0 {
		req.NumFrames = config.DefaultNumFrames
	}
	if req.FPS == 0 {
		req.FPS = config.DefaultFPS
	}

	ref, err := g.model()
	if err != nil {
		return nil, fail(SetupFailure, "resolve model", err)
	}

	predictor, err := g.predictors(g.appConfig)
	if err != nil {
		return nil, fail(SetupFailure, "create client", err)
	}

	xlog.Info("Requesting video from hosted model", "model", ref.String(), "frames", req.NumFrames, "fps", req.FPS)

	out, err := predictor.Predict(ctx, ref, hosted.Input{
		"prompt":     req.Prompt,
		"num_frames": req.NumFrames,
		"fps":        req.FPS,
	})
	if err != nil {
		if hosted.IsSetupError(err) {
			return nil, fail(SetupFailure, "resolve model", err)
		}
		return nil, fail(InferenceFailure, "predict", err)
	}

	url, err := hosted.OutputURL(out)
	if err != nil {
		return nil, fail(InferenceFailure, "read output", err)
	}

	artifact, err := g.download(ctx, url, req.OutputPath, g.status)
	if err != nil {
		var we *downloader.WriteError
		if errors.As(err, &we) {
			return nil, fail(IOFailure, "write video", err)
		}
		return nil, fail(DownloadFailure, "download video", err)
	}

	xlog.Info("Video successfully generated", "path", artifact.Path, "size", artifact.Size)

	return &Result{
		Path:      artifact.Path,
		Backend:   BackendRemote,
		Frames:    req.NumFrames,
		FPS:       req.FPS,
		Duration:  time.Since(start),
		SourceURL: url,
		Size:      artifact.Size,
		SHA256:    artifact.SHA256,
	}, nil
}

// GenerateWithProgress is Generate with console progress messages.
func (g *RemoteGenerator) GenerateWithProgress(ctx context.Context, req RemoteRequest) (*Result, error) {
	fmt.Fprintln(g.out, "Starting video generation...")
	fmt.Fprintln(g.out, "Processing script:", req.Prompt)

	res, err := g.Generate(ctx, req)
	if err != nil {
		fmt.Fprintln(g.out, "Video generation failed:", err)
		return nil, err
	}
	fmt.Fprintf(g.out, "Video generation completed successfully! Saved to %s\n", res.Path)
	return res, nil
}
