package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mudler/xlog"
	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/pkg/downloader"
	"github.com/vidgen/vidgen/pkg/encoder"
	"github.com/vidgen/vidgen/pkg/motion"
	"github.com/vidgen/vidgen/pkg/naming"
	"github.com/vidgen/vidgen/pkg/pipeline"
	"github.com/vidgen/vidgen/pkg/xsysinfo"
)

type LocalRequest struct {
	Prompt    string
	NumFrames int
	FPS       int
}

// LocalGenerator draws one base image from a diffusion pipeline and turns it
// into a clip with a motion stub. With native motion it asks a text-to-video
// model for the clip instead.
type LocalGenerator struct {
	appConfig    *config.ApplicationConfig
	loader       pipeline.Loader
	motion       motion.Stub
	naming       naming.Scheme
	encoder      encoder.Encoder
	download     DownloadFunc
	selectDevice func(xsysinfo.Device) xsysinfo.Device
}

type LocalOption func(*LocalGenerator)

func WithPipelineLoader(l pipeline.Loader) LocalOption {
	return func(g *LocalGenerator) {
		g.loader = l
	}
}

func WithMotionStub(m motion.Stub) LocalOption {
	return func(g *LocalGenerator) {
		g.motion = m
	}
}

func WithNamingScheme(s naming.Scheme) LocalOption {
	return func(g *LocalGenerator) {
		g.naming = s
	}
}

func WithEncoder(e encoder.Encoder) LocalOption {
	return func(g *LocalGenerator) {
		g.encoder = e
	}
}

// WithClipDownloader replaces how native clips served by URL are fetched.
func WithClipDownloader(f DownloadFunc) LocalOption {
	return func(g *LocalGenerator) {
		g.download = f
	}
}

func WithDeviceSelector(f func(xsysinfo.Device) xsysinfo.Device) LocalOption {
	return func(g *LocalGenerator) {
		g.selectDevice = f
	}
}

// NewLocalGenerator wires the generator from the application config and
// creates the output directory. Options replace individual collaborators.
func NewLocalGenerator(appConfig *config.ApplicationConfig, opts ...LocalOption) (*LocalGenerator, error) {
	g := &LocalGenerator{
		appConfig:    appConfig,
		download:     downloader.Download,
		selectDevice: xsysinfo.SelectDevice,
	}
	for _, o := range opts {
		o(g)
	}

	var err error
	if g.loader == nil {
		g.loader = pipeline.NewOpenAILoader(pipeline.OpenAIConfig{
			BaseURL: appConfig.PipelineURL,
			APIKey:  appConfig.Credentials.PipelineAPIKey,
		})
	}
	if g.motion == nil {
		if g.motion, err = motion.New(appConfig.Motion, appConfig.MaxShift); err != nil {
			return nil, err
		}
	}
	if g.naming == nil {
		if g.naming, err = naming.New(appConfig.Naming, appConfig.NamingPrefix); err != nil {
			return nil, err
		}
	}
	if g.encoder == nil {
		if g.encoder, err = encoder.New(appConfig.Format); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(appConfig.OutputDir, 0750); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", appConfig.OutputDir, err)
	}
	return g, nil
}

func (g *LocalGenerator) OutputDir() string {
	return g.appConfig.OutputDir
}

// Generate runs setup, inference, frame synthesis and encoding in order.
// The first failing step aborts the run; nothing is left on disk.
func (g *LocalGenerator) Generate(ctx context.Context, req LocalRequest) (*Result, error) {
	start := time.Now()

	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fail(SetupFailure, "validate request", fmt.Errorf("empty prompt"))
	}
	if req.NumFrames == 0 {
		req.NumFrames = config.DefaultNumFrames
	}
	if req.FPS == 0 {
		req.FPS = config.DefaultFPS
	}
	if req.NumFrames < 0 || req.FPS < 0 {
		return nil, fail(SetupFailure, "validate request", fmt.Errorf("frame count and fps must be positive"))
	}

	device := g.selectDevice(g.appConfig.Device)
	xlog.Info("Setting up diffusion pipeline", "device", device, "model", g.appConfig.PipelineModel)

	p, err := g.loader(ctx, pipeline.Options{
		Model:  g.appConfig.PipelineModel,
		Device: device,
		F16:    g.appConfig.F16,
	})
	if err != nil {
		return nil, fail(SetupFailure, "load pipeline", err)
	}

	if g.appConfig.Motion == motion.Native {
		vp, ok := p.(pipeline.VideoPipeline)
		if ok {
			res, err := g.generateNative(ctx, vp, req, device, start)
			if !errors.Is(err, pipeline.ErrImageOnly) {
				return res, err
			}
		}
		xlog.Warn("Served model is image-only, falling back to the motion stub", "model", g.appConfig.PipelineModel, "motion", g.motion.Name())
	}

	base, err := p.Generate(ctx, g.inference(req.Prompt))
	if err != nil {
		return nil, fail(InferenceFailure, "generate base image", err)
	}
	if base == nil {
		return nil, fail(InferenceFailure, "generate base image", fmt.Errorf("pipeline returned no image"))
	}

	frames, err := motion.Frames(g.motion, base, req.NumFrames)
	if err != nil {
		return nil, fail(InferenceFailure, "synthesize frames", err)
	}
	xlog.Debug("frames synthesized", "count", len(frames), "motion", g.motion.Name())

	path, err := g.naming.Reserve(g.appConfig.OutputDir, g.encoder.Extension())
	if err != nil {
		return nil, fail(IOFailure, "reserve output path", err)
	}

	if err := g.encoder.Encode(ctx, frames, req.FPS, path); err != nil {
		os.Remove(path)
		return nil, fail(IOFailure, "encode video", err)
	}

	xlog.Info("Video saved", "path", path, "frames", len(frames), "fps", req.FPS)

	return &Result{
		Path:     path,
		Backend:  BackendLocal,
		Frames:   len(frames),
		FPS:      req.FPS,
		Device:   device,
		Duration: time.Since(start),
	}, nil
}

func (g *LocalGenerator) inference(prompt string) pipeline.Request {
	return pipeline.Request{
		Prompt:         prompt,
		NegativePrompt: g.appConfig.NegativePrompt,
		Steps:          g.appConfig.Steps,
		GuidanceScale:  g.appConfig.GuidanceScale,
		Width:          g.appConfig.Width,
		Height:         g.appConfig.Height,
		Seed:           g.appConfig.Seed,
	}
}

// generateNative stores the clip a text-to-video model made on its own. It
// returns pipeline.ErrImageOnly unwrapped, before anything is written, when
// the model cannot do video.
func (g *LocalGenerator) generateNative(ctx context.Context, vp pipeline.VideoPipeline, req LocalRequest, device xsysinfo.Device, start time.Time) (*Result, error) {
	xlog.Info("Generating video natively", "model", g.appConfig.PipelineModel, "frames", req.NumFrames, "fps", req.FPS)

	clip, err := vp.GenerateVideo(ctx, pipeline.VideoRequest{
		Request:   g.inference(req.Prompt),
		NumFrames: req.NumFrames,
		FPS:       req.FPS,
	})
	if errors.Is(err, pipeline.ErrImageOnly) {
		return nil, err
	}
	if err != nil {
		return nil, fail(InferenceFailure, "generate video", err)
	}
	if clip == nil || (clip.URL == "" && len(clip.Data) == 0) {
		return nil, fail(InferenceFailure, "generate video", fmt.Errorf("pipeline returned no video"))
	}

	ext := clip.Extension
	if ext == "" {
		ext = ".mp4"
	}
	path, err := g.naming.Reserve(g.appConfig.OutputDir, ext)
	if err != nil {
		return nil, fail(IOFailure, "reserve output path", err)
	}

	res := &Result{
		Path:    path,
		Backend: BackendLocal,
		Frames:  req.NumFrames,
		FPS:     req.FPS,
		Device:  device,
	}

	if clip.URL != "" {
		artifact, err := g.download(ctx, clip.URL, path, nil)
		if err != nil {
			os.Remove(path)
			var we *downloader.WriteError
			if errors.As(err, &we) {
				return nil, fail(IOFailure, "write video", err)
			}
			return nil, fail(DownloadFailure, "download video", err)
		}
		res.SourceURL = clip.URL
		res.Size = artifact.Size
		res.SHA256 = artifact.SHA256
	} else {
		if err := os.WriteFile(path, clip.Data, 0644); err != nil {
			os.Remove(path)
			return nil, fail(IOFailure, "write video", err)
		}
		res.Size = int64(len(clip.Data))
	}

	res.Duration = time.Since(start)
	xlog.Info("Video saved", "path", path, "frames", req.NumFrames, "fps", req.FPS)
	return res, nil
}
