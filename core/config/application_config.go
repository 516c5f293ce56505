package config

import (
	"context"
	"time"

	"github.com/vidgen/vidgen/pkg/xsysinfo"
)

const (
	DefaultNumFrames     = 16
	DefaultFPS           = 8
	DefaultSteps         = 25
	DefaultGuidanceScale = 7.5
	DefaultSize          = 512
	DefaultMaxShift      = 20
	DefaultOutputDir     = "output_videos"
	DefaultRemoteOutput  = "output_video.mp4"
)

// Credentials are passed explicitly to the clients that need them. They are
// never exported to the process environment.
type Credentials struct {
	ReplicateToken string
	PipelineAPIKey string
}

// String keeps tokens out of logs.
func (c Credentials) String() string {
	mask := func(s string) string {
		if s == "" {
			return "<unset>"
		}
		return "<redacted>"
	}
	return "replicate=" + mask(c.ReplicateToken) + " pipeline=" + mask(c.PipelineAPIKey)
}

type ApplicationConfig struct {
	Context context.Context
	Debug   bool

	// local generator
	OutputDir      string
	Device         xsysinfo.Device
	F16            bool
	PipelineURL    string
	PipelineModel  string
	Steps          int
	GuidanceScale  float32
	Width, Height  int
	Seed           int
	NegativePrompt string
	Motion         string
	MaxShift       int
	Naming         string
	NamingPrefix   string
	Format         string

	// remote generator
	RemoteModel   string
	RemoteBaseURL string
	RemoteOutput  string

	Credentials Credentials

	// server
	GeneratedContentDir string
	PresetsDir          string
	PresetsPollInterval time.Duration
	DisableMetrics      bool
	UploadLimitMB       int
}

type AppOption func(*ApplicationConfig)

func NewApplicationConfig(o ...AppOption) *ApplicationConfig {
	opt := &ApplicationConfig{
		Context:       context.Background(),
		OutputDir:     DefaultOutputDir,
		Device:        xsysinfo.DeviceAuto,
		F16:           true,
		Steps:         DefaultSteps,
		GuidanceScale: DefaultGuidanceScale,
		Width:         DefaultSize,
		Height:        DefaultSize,
		MaxShift:      DefaultMaxShift,
		RemoteOutput:  DefaultRemoteOutput,
		UploadLimitMB: 1,
	}
	for _, oo := range o {
		oo(opt)
	}
	return opt
}

func WithContext(ctx context.Context) AppOption {
	return func(o *ApplicationConfig) {
		o.Context = ctx
	}
}

func WithDebug(debug bool) AppOption {
	return func(o *ApplicationConfig) {
		o.Debug = debug
	}
}

func WithOutputDir(dir string) AppOption {
	return func(o *ApplicationConfig) {
		if dir != "" {
			o.OutputDir = dir
		}
	}
}

func WithDevice(d xsysinfo.Device) AppOption {
	return func(o *ApplicationConfig) {
		o.Device = d
	}
}

func WithF16(f16 bool) AppOption {
	return func(o *ApplicationConfig) {
		o.F16 = f16
	}
}

func WithPipeline(url, model string) AppOption {
	return func(o *ApplicationConfig) {
		o.PipelineURL = url
		o.PipelineModel = model
	}
}

// WithInference sets the fixed inference parameters used for the base
// image. Zero values keep the defaults.
func WithInference(steps int, guidanceScale float32) AppOption {
	return func(o *ApplicationConfig) {
		if steps > 0 {
			o.Steps = steps
		}
		if guidanceScale > 0 {
			o.GuidanceScale = guidanceScale
		}
	}
}

func WithSize(width, height int) AppOption {
	return func(o *ApplicationConfig) {
		if width > 0 {
			o.Width = width
		}
		if height > 0 {
			o.Height = height
		}
	}
}

func WithSeed(seed int) AppOption {
	return func(o *ApplicationConfig) {
		o.Seed = seed
	}
}

func WithNegativePrompt(p string) AppOption {
	return func(o *ApplicationConfig) {
		o.NegativePrompt = p
	}
}

func WithMotion(name string, maxShift int) AppOption {
	return func(o *ApplicationConfig) {
		o.Motion = name
		if maxShift > 0 {
			o.MaxShift = maxShift
		}
	}
}

func WithNaming(scheme, prefix string) AppOption {
	return func(o *ApplicationConfig) {
		o.Naming = scheme
		o.NamingPrefix = prefix
	}
}

func WithFormat(format string) AppOption {
	return func(o *ApplicationConfig) {
		o.Format = format
	}
}

func WithRemoteModel(ref, baseURL string) AppOption {
	return func(o *ApplicationConfig) {
		o.RemoteModel = ref
		o.RemoteBaseURL = baseURL
	}
}

func WithRemoteOutput(path string) AppOption {
	return func(o *ApplicationConfig) {
		if path != "" {
			o.RemoteOutput = path
		}
	}
}

func WithReplicateToken(token string) AppOption {
	return func(o *ApplicationConfig) {
		o.Credentials.ReplicateToken = token
	}
}

func WithPipelineAPIKey(key string) AppOption {
	return func(o *ApplicationConfig) {
		o.Credentials.PipelineAPIKey = key
	}
}

func WithGeneratedContentDir(dir string) AppOption {
	return func(o *ApplicationConfig) {
		o.GeneratedContentDir = dir
	}
}

func WithPresetsDir(dir string) AppOption {
	return func(o *ApplicationConfig) {
		o.PresetsDir = dir
	}
}

func WithPresetsPollInterval(d time.Duration) AppOption {
	return func(o *ApplicationConfig) {
		o.PresetsPollInterval = d
	}
}

func WithUploadLimitMB(limit int) AppOption {
	return func(o *ApplicationConfig) {
		o.UploadLimitMB = limit
	}
}

var DisableMetricsEndpoint AppOption = func(o *ApplicationConfig) {
	o.DisableMetrics = true
}
