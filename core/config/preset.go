package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// @Description Preset is a named set of generation parameters loaded from YAML
type Preset struct {
	presetFile string `yaml:"-" json:"-"`

	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description,omitempty" json:"description,omitempty"`
	Prompt         string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	NegativePrompt string `yaml:"negative_prompt,omitempty" json:"negative_prompt,omitempty"`

	NumFrames int `yaml:"num_frames,omitempty" json:"num_frames,omitempty"`
	FPS       int `yaml:"fps,omitempty" json:"fps,omitempty"`

	// Diffusion parameters for the base image
	Steps         int     `yaml:"steps,omitempty" json:"steps,omitempty"`
	GuidanceScale float32 `yaml:"guidance_scale,omitempty" json:"guidance_scale,omitempty"`
	Width         int     `yaml:"width,omitempty" json:"width,omitempty"`
	Height        int     `yaml:"height,omitempty" json:"height,omitempty"`
	Seed          int     `yaml:"seed,omitempty" json:"seed,omitempty"`
	Model         string  `yaml:"model,omitempty" json:"model,omitempty"`

	Motion MotionConfig `yaml:"motion,omitempty" json:"motion,omitempty"`

	Naming string `yaml:"naming,omitempty" json:"naming,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`

	// Hosted model reference, owner/name:version
	RemoteModel string `yaml:"remote_model,omitempty" json:"remote_model,omitempty"`
}

type MotionConfig struct {
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	MaxShift int    `yaml:"max_shift,omitempty" json:"max_shift,omitempty"`
}

func (p *Preset) SetDefaults() {
	if p.NumFrames == 0 {
		p.NumFrames = DefaultNumFrames
	}
	if p.FPS == 0 {
		p.FPS = DefaultFPS
	}
}

func (p *Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset has no name")
	}
	if p.NumFrames < 0 || p.FPS < 0 || p.Steps < 0 {
		return fmt.Errorf("preset %q: frame count, fps and steps must not be negative", p.Name)
	}
	if p.Width%8 != 0 || p.Height%8 != 0 {
		return fmt.Errorf("preset %q: width and height must be multiples of 8", p.Name)
	}
	return nil
}

// File returns the path the preset was read from, if any.
func (p *Preset) File() string {
	return p.presetFile
}

// ApplyTo copies the preset's diffusion and output settings into an
// application config, leaving fields the preset does not set alone.
func (p *Preset) ApplyTo(o *ApplicationConfig) {
	if p.Steps > 0 {
		o.Steps = p.Steps
	}
	if p.GuidanceScale > 0 {
		o.GuidanceScale = p.GuidanceScale
	}
	if p.Width > 0 {
		o.Width = p.Width
	}
	if p.Height > 0 {
		o.Height = p.Height
	}
	if p.Seed != 0 {
		o.Seed = p.Seed
	}
	if p.Model != "" {
		o.PipelineModel = p.Model
	}
	if p.NegativePrompt != "" {
		o.NegativePrompt = p.NegativePrompt
	}
	if p.Motion.Type != "" {
		o.Motion = p.Motion.Type
	}
	if p.Motion.MaxShift > 0 {
		o.MaxShift = p.Motion.MaxShift
	}
	if p.Naming != "" {
		o.Naming = p.Naming
	}
	if p.Format != "" {
		o.Format = p.Format
	}
	if p.RemoteModel != "" {
		o.RemoteModel = p.RemoteModel
	}
}

func ReadPresetFile(file string) (*Preset, error) {
	p := &Preset{}
	f, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("ReadPresetFile cannot read preset file %q: %w", file, err)
	}
	if err := yaml.Unmarshal(f, p); err != nil {
		return nil, fmt.Errorf("ReadPresetFile cannot unmarshal preset file %q: %w", file, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.presetFile = file
	return p, nil
}
