// Package pipeline is the contract with the text-to-image diffusion model
// the local generator draws its base frame from.
package pipeline

import (
	"context"
	"image"

	"github.com/vidgen/vidgen/pkg/xsysinfo"
)

// Options describe how a pipeline is brought up.
type Options struct {
	Model  string
	Device xsysinfo.Device
	F16    bool
}

// Request carries the inference parameters for one image.
type Request struct {
	Prompt         string
	NegativePrompt string
	Steps          int
	GuidanceScale  float32
	Width          int
	Height         int
	Seed           int
}

// Pipeline generates images from text.
type Pipeline interface {
	Generate(ctx context.Context, req Request) (image.Image, error)
}

// Loader acquires a ready pipeline. Any error it returns is a setup
// failure.
type Loader func(ctx context.Context, opts Options) (Pipeline, error)

// Func adapts a plain function to Pipeline.
type Func func(ctx context.Context, req Request) (image.Image, error)

func (f Func) Generate(ctx context.Context, req Request) (image.Image, error) {
	return f(ctx, req)
}
