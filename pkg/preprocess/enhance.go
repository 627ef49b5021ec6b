package preprocess

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Contrast blends img away from a flat image of its mean luminance.
// factor 1 returns a copy, factor 0 returns the flat gray image.
func Contrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := float64(meanLuma(img))
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blend(mean, float64(c.R), factor),
			G: blend(mean, float64(c.G), factor),
			B: blend(mean, float64(c.B), factor),
			A: c.A,
		}
	})
}

// Sharpness blends img away from a smoothed copy of itself.
// Border pixels are left unchanged.
func Sharpness(img *image.NRGBA, factor float64) *image.NRGBA {
	smooth := imaging.Convolve3x3(img, [9]float64{
		1, 1, 1,
		1, 5, 1,
		1, 1, 1,
	}, &imaging.ConvolveOptions{Normalize: true})

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := imaging.Clone(img)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := out.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				out.Pix[i+c] = blend(float64(smooth.Pix[i+c]), float64(out.Pix[i+c]), factor)
			}
		}
	}
	return out
}

// blend returns degenerate + factor*(value-degenerate) clamped to a byte
func blend(degenerate, value, factor float64) uint8 {
	return clamp(degenerate + factor*(value-degenerate))
}

func meanLuma(img *image.NRGBA) uint8 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += int(luma(img.NRGBAAt(x, y)))
		}
	}
	return clamp(float64(sum) / float64(n))
}

// luma is the ITU-R 601-2 transform used for "L" conversion
func luma(c color.NRGBA) uint8 {
	return uint8((uint32(c.R)*299 + uint32(c.G)*587 + uint32(c.B)*114 + 500) / 1000)
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
