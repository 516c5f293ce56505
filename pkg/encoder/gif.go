package encoder

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
)

// GIF writes an animated GIF with the Plan9 palette. It needs no external
// binary, which makes it the format of choice on hosts without ffmpeg.
type GIF struct{}

func (g *GIF) Extension() string { return ".gif" }

// Delay converts a frame rate to the per-frame GIF delay in 1/100s.
func Delay(fps int) int {
	if fps <= 0 {
		return 0
	}
	d := 100 / fps
	if d < 1 {
		d = 1
	}
	return d
}

func (g *GIF) Encode(ctx context.Context, frames []image.Image, fps int, dst string) error {
	if err := validate(frames, fps); err != nil {
		return err
	}

	anim := &gif.GIF{LoopCount: 0}
	delay := Delay(fps)
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := frame.Bounds()
		p := image.NewPaletted(b, palette.Plan9)
		draw.FloydSteinberg.Draw(p, b, frame, b.Min)
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, delay)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if err := gif.EncodeAll(out, anim); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("encoding gif: %w", err)
	}
	return out.Close()
}
