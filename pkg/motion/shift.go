package motion

import (
	"image"
	"image/draw"
)

// DefaultMaxShift is the total horizontal travel, in pixels, across a clip.
const DefaultMaxShift = 20

// HorizontalShift rolls the base image to the right by an amount that grows
// linearly with the frame index. Pixels pushed past the right edge wrap
// around to the left.
type HorizontalShift struct {
	MaxShift int
}

func (HorizontalShift) Name() string { return "horizontal-shift" }

// Offset is floor(i / n * MaxShift): 0 for the first frame and strictly
// below MaxShift for the last.
func (h HorizontalShift) Offset(i, n int) int {
	if n <= 0 || i <= 0 {
		return 0
	}
	return i * h.maxShift() / n
}

func (h HorizontalShift) maxShift() int {
	if h.MaxShift <= 0 {
		return DefaultMaxShift
	}
	return h.MaxShift
}

func (h HorizontalShift) Frame(base image.Image, i, n int) image.Image {
	return Roll(base, h.Offset(i, n))
}

// Roll shifts src right by dx pixels with wrap-around. The result is always
// a fresh RGBA image anchored at the origin.
func Roll(src image.Image, dx int) *image.RGBA {
	b := src.Bounds()
	w := b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, w, b.Dy()))
	if w == 0 {
		return dst
	}
	dx %= w
	if dx < 0 {
		dx += w
	}
	if dx == 0 {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	// left part of src lands at [dx, w)
	draw.Draw(dst, image.Rect(dx, 0, w, b.Dy()), src, b.Min, draw.Src)
	// the last dx columns wrap to [0, dx)
	draw.Draw(dst, image.Rect(0, 0, dx, b.Dy()), src, image.Pt(b.Min.X+w-dx, b.Min.Y), draw.Src)
	return dst
}
