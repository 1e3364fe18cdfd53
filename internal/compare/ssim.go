package compare

import (
	"image"
	"math"
)

// ssimWindow is the Gaussian window size from §4.6 ("11x11 Gaussian
// window").
const ssimWindow = 11
const ssimSigma = 1.5

const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

// SSIM computes the mean structural similarity index between ref and
// cur on the luminance channel, in [0,1]. Bit-exact for identical
// byte-for-byte inputs (§8 invariant 8 "Comparator determinism").
func SSIM(ref, cur image.Image) float64 {
	bounds := ref.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	a := luminance(ref, bounds)
	b := luminance(cur, bounds)

	kernel := gaussianKernel(ssimWindow, ssimSigma)
	half := ssimWindow / 2

	var sum float64
	var count int

	for y := half; y < h-half; y++ {
		for x := half; x < w-half; x++ {
			muA, muB := 0.0, 0.0
			for wy := -half; wy <= half; wy++ {
				for wx := -half; wx <= half; wx++ {
					wgt := kernel[wy+half]*kernel[wx+half]
					muA += wgt * a[(y+wy)*w+(x+wx)]
					muB += wgt * b[(y+wy)*w+(x+wx)]
				}
			}

			var varA, varB, covAB float64
			for wy := -half; wy <= half; wy++ {
				for wx := -half; wx <= half; wx++ {
					wgt := kernel[wy+half]*kernel[wx+half]
					da := a[(y+wy)*w+(x+wx)] - muA
					db := b[(y+wy)*w+(x+wx)] - muB
					varA += wgt * da * da
					varB += wgt * db * db
					covAB += wgt * da * db
				}
			}

			numerator := (2*muA*muB + ssimC1) * (2*covAB + ssimC2)
			denominator := (muA*muA + muB*muB + ssimC1) * (varA + varB + ssimC2)

			sum += numerator / denominator
			count++
		}
	}

	if count == 0 {
		return 1
	}
	return sum / float64(count)
}

// luminance returns a flat row-major slice of luminance values in
// [0,255] for img within bounds.
func luminance(img image.Image, bounds image.Rectangle) []float64 {
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := toRGBA(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			out[y*w+x] = 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
		}
	}
	return out
}

// gaussianKernel returns a normalized 1D Gaussian kernel of size n.
func gaussianKernel(n int, sigma float64) []float64 {
	k := make([]float64, n)
	half := n / 2
	var sum float64
	for i := 0; i < n; i++ {
		x := float64(i - half)
		v := math.Exp(-(x * x) / (2 * sigma * sigma))
		k[i] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}
