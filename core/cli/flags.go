package cli

import (
	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/pkg/hosted"
	"github.com/vidgen/vidgen/pkg/xsysinfo"
)

// LocalFlags are shared by every command that runs the local generator.
type LocalFlags struct {
	Device         string  `env:"VIDGEN_DEVICE" default:"auto" enum:"auto,cuda,cpu" help:"Compute device for the diffusion pipeline [${enum}]" group:"pipeline"`
	F16            bool    `name:"f16" env:"VIDGEN_F16" default:"true" negatable:"" help:"Ask the pipeline for half precision weights" group:"pipeline"`
	PipelineURL    string  `env:"VIDGEN_PIPELINE_URL" default:"http://localhost:8080/v1" help:"Base URL of an OpenAI compatible image generation API" group:"pipeline"`
	PipelineAPIKey string  `env:"VIDGEN_PIPELINE_API_KEY" help:"API key for the image generation API" group:"pipeline"`
	Model          string  `env:"VIDGEN_MODEL" default:"stablediffusion" help:"Text-to-image model served by the pipeline" group:"pipeline"`
	Steps          int     `env:"VIDGEN_STEPS" default:"25" help:"Inference steps for the base image" group:"pipeline"`
	GuidanceScale  float32 `env:"VIDGEN_GUIDANCE_SCALE" default:"7.5" help:"Classifier free guidance scale" group:"pipeline"`
	Width          int     `env:"VIDGEN_WIDTH" default:"512" help:"Base image width" group:"pipeline"`
	Height         int     `env:"VIDGEN_HEIGHT" default:"512" help:"Base image height" group:"pipeline"`
	Seed           int     `env:"VIDGEN_SEED" help:"Seed for the base image, 0 lets the pipeline choose" group:"pipeline"`
	NegativePrompt string  `env:"VIDGEN_NEGATIVE_PROMPT" help:"What the base image should not contain" group:"pipeline"`

	Motion       string `env:"VIDGEN_MOTION" default:"shift" enum:"shift,still,native" help:"Motion applied to the base image; native asks the served model for real frames and shifts only if it is image-only [${enum}]" group:"output"`
	MaxShift     int    `env:"VIDGEN_MAX_SHIFT" default:"20" help:"Horizontal travel in pixels over the whole clip" group:"output"`
	Naming       string `env:"VIDGEN_NAMING" default:"sequential" enum:"sequential,uuid,timestamp" help:"How output files are named [${enum}]" group:"output"`
	NamingPrefix string `env:"VIDGEN_NAMING_PREFIX" default:"generated_video_" help:"Prefix of generated file names" group:"output"`
	Format       string `env:"VIDGEN_FORMAT" default:"mp4" enum:"mp4,gif" help:"Container format, mp4 needs ffmpeg on PATH [${enum}]" group:"output"`
}

func (f *LocalFlags) appOptions() ([]config.AppOption, error) {
	device, err := xsysinfo.ParseDevice(f.Device)
	if err != nil {
		return nil, err
	}
	return []config.AppOption{
		config.WithDevice(device),
		config.WithF16(f.F16),
		config.WithPipeline(f.PipelineURL, f.Model),
		config.WithPipelineAPIKey(f.PipelineAPIKey),
		config.WithInference(f.Steps, f.GuidanceScale),
		config.WithSize(f.Width, f.Height),
		config.WithSeed(f.Seed),
		config.WithNegativePrompt(f.NegativePrompt),
		config.WithMotion(f.Motion, f.MaxShift),
		config.WithNaming(f.Naming, f.NamingPrefix),
		config.WithFormat(f.Format),
	}, nil
}

// RemoteFlags configure the hosted model client.
type RemoteFlags struct {
	APIToken string `env:"REPLICATE_API_TOKEN" help:"Replicate API token" group:"remote"`
	Model    string `env:"VIDGEN_REMOTE_MODEL" help:"Hosted model as owner/name, defaults to stability-ai/stable-video-diffusion" group:"remote"`
	Version  string `env:"VIDGEN_REMOTE_VERSION" help:"Hosted model version id" group:"remote"`
	BaseURL  string `env:"VIDGEN_REMOTE_BASE_URL" help:"Override the Replicate API base URL" group:"remote"`
}

// modelRef joins --model and --version into owner/name:version. A version
// alone pins the default model.
func (f *RemoteFlags) modelRef() string {
	model := f.Model
	if model == "" && f.Version == "" {
		return ""
	}
	if model == "" {
		model = hosted.DefaultModel.Owner + "/" + hosted.DefaultModel.Name
	}
	if f.Version != "" {
		model += ":" + f.Version
	}
	return model
}

func (f *RemoteFlags) appOptions() []config.AppOption {
	return []config.AppOption{
		config.WithRemoteModel(f.modelRef(), f.BaseURL),
		config.WithReplicateToken(f.APIToken),
	}
}
