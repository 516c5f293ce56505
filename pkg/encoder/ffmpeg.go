package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/mudler/xlog"
)

// FFmpeg pipes PNG encoded frames into the ffmpeg binary and produces an
// H.264 mp4.
type FFmpeg struct {
	// Binary defaults to "ffmpeg" looked up on PATH.
	Binary string
	// CRF is the x264 constant rate factor, 23 when zero.
	CRF int
}

func (f *FFmpeg) Extension() string { return ".mp4" }

func (f *FFmpeg) binary() string {
	if f.Binary == "" {
		return "ffmpeg"
	}
	return f.Binary
}

func (f *FFmpeg) args(fps int, dst string) []string {
	crf := f.CRF
	if crf == 0 {
		crf = 23
	}
	rate := strconv.Itoa(fps)
	return []string{
		"-y",
		"-f", "image2pipe",
		"-framerate", rate,
		"-c:v", "png",
		"-i", "-",
		// yuv420p needs even dimensions
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", strconv.Itoa(crf),
		"-pix_fmt", "yuv420p",
		"-r", rate,
		dst,
	}
}

func (f *FFmpeg) Encode(ctx context.Context, frames []image.Image, fps int, dst string) error {
	if err := validate(frames, fps); err != nil {
		return err
	}

	bin, err := exec.LookPath(f.binary())
	if err != nil {
		return fmt.Errorf("ffmpeg not found, install it and add it to PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, f.args(fps, dst)...)
	cmd.Env = []string{}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}

	xlog.Debug("running ffmpeg", "command", cmd.String(), "frames", len(frames))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	writeErr := writeFrames(stdin, frames)
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("ffmpeg failed: %w out: %s", err, stderr.String())
	}
	if writeErr != nil {
		os.Remove(dst)
		return writeErr
	}
	return nil
}

func writeFrames(w io.Writer, frames []image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	for i, frame := range frames {
		if err := enc.Encode(w, frame); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
	}
	return nil
}
