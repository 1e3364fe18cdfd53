// Package compare diffs a live page screenshot against a reference
// image: pixel delta, SSIM, connected-component region extraction, and
// three visualization styles (§4.6).
package compare

import (
	"image"
	"image/color"
)

// changedThreshold is the per-pixel normalized delta above which a pixel
// counts as "changed" (§4.6 "Pixel diff").
const changedThreshold = 0.1

// pixelDelta returns the per-channel absolute delta between a and b,
// summed across channels and normalized to [0,1].
func pixelDelta(a, b color.RGBA) float64 {
	d := func(x, y uint8) float64 {
		if x > y {
			return float64(x - y)
		}
		return float64(y - x)
	}
	sum := d(a.R, b.R) + d(a.G, b.G) + d(a.B, b.B)
	return sum / (255.0 * 3.0)
}

// DiffMask is a binary change mask the same size as the compared images:
// true where the pixel delta exceeds changedThreshold.
type DiffMask struct {
	Width, Height int
	Changed       []bool
}

func (m *DiffMask) at(x, y int) bool { return m.Changed[y*m.Width+x] }
func (m *DiffMask) set(x, y int, v bool) { m.Changed[y*m.Width+x] = v }

// PixelDiff computes the per-pixel delta between ref and cur (already
// same-sized — callers resize before calling this), returning the
// fraction of changed pixels in [0,1] and the binary change mask.
func PixelDiff(ref, cur image.Image) (ratio float64, mask *DiffMask) {
	bounds := ref.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mask = &DiffMask{Width: w, Height: h, Changed: make([]bool, w*h)}

	changed := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rc := toRGBA(ref.At(bounds.Min.X+x, bounds.Min.Y+y))
			cc := toRGBA(cur.At(bounds.Min.X+x, bounds.Min.Y+y))
			if pixelDelta(rc, cc) > changedThreshold {
				mask.set(x, y, true)
				changed++
			}
		}
	}

	return float64(changed) / float64(w*h), mask
}

func toRGBA(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
