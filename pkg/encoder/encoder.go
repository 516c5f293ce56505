// Package encoder turns an in-memory frame sequence into a video file.
package encoder

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Encoder writes frames to dst at the given frame rate. The frame slice is
// consumed once and not retained.
type Encoder interface {
	Extension() string
	Encode(ctx context.Context, frames []image.Image, fps int, dst string) error
}

const (
	FormatMP4 = "mp4"
	FormatGIF = "gif"
)

// New returns the encoder for a container format.
func New(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", FormatMP4:
		return &FFmpeg{}, nil
	case FormatGIF:
		return &GIF{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

func validate(frames []image.Image, fps int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	if fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", fps)
	}
	return nil
}
