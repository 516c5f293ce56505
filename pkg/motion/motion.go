// Package motion fakes camera movement across a frame sequence derived from a
// single still image. None of the stubs here model real motion; they exist so
// a one-image pipeline can still produce a playable clip.
package motion

import (
	"fmt"
	"image"
	"image/draw"
)

// Stub derives frame i of n from a base image.
type Stub interface {
	Name() string
	Frame(base image.Image, i, n int) image.Image
}

// Frames builds the whole sequence. The result always has exactly n elements.
func Frames(s Stub, base image.Image, n int) ([]image.Image, error) {
	if n <= 0 {
		return nil, fmt.Errorf("frame count must be positive, got %d", n)
	}
	if base == nil {
		return nil, fmt.Errorf("nil base image")
	}
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = s.Frame(base, i, n)
	}
	return frames, nil
}

// Still repeats the base image unchanged.
type Still struct{}

func (Still) Name() string { return "still" }

func (Still) Frame(base image.Image, _, _ int) image.Image {
	return clone(base)
}

func clone(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Native asks the served model for real frames. Its stub is the horizontal
// shift, used only when the model turns out to be image-only.
const Native = "native"

// New returns the stub registered under name. An empty name selects the
// horizontal shift with the given maximum.
func New(name string, maxShift int) (Stub, error) {
	switch name {
	case "", "shift", "horizontal-shift", Native:
		return HorizontalShift{MaxShift: maxShift}, nil
	case "still", "none":
		return Still{}, nil
	default:
		return nil, fmt.Errorf("unknown motion stub %q", name)
	}
}
