package preprocess

import (
	"image"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/nodewee/img-to-doc/pkg/constants"
)

// ImagingToolchain is the pure-Go advanced path: grayscale, Gaussian blur,
// local mean thresholding and a median filter.
type ImagingToolchain struct {
	Sigma     float64
	BlockSize int
	C         int
	Radius    int
}

// NewImagingToolchain returns the toolchain with the default parameters
func NewImagingToolchain() *ImagingToolchain {
	return &ImagingToolchain{
		Sigma:     constants.BlurSigma,
		BlockSize: constants.AdaptiveBlockSize,
		C:         constants.AdaptiveConstant,
		Radius:    constants.MedianFilterRadius,
	}
}

// Name implements Toolchain
func (t *ImagingToolchain) Name() string { return "imaging" }

// Binarize implements Toolchain
func (t *ImagingToolchain) Binarize(img *image.NRGBA) (*image.NRGBA, error) {
	gray := imaging.Grayscale(img)
	if t.Sigma > 0 {
		gray = imaging.Blur(gray, t.Sigma)
	}
	bin := AdaptiveThreshold(toGray(gray), t.BlockSize, t.C)
	if t.Radius > 0 {
		bin = MedianFilter(bin, t.Radius)
	}
	return grayToRGB(bin), nil
}

func toGray(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g.Pix[y*g.Stride+x] = luma(img.NRGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return g
}

// AdaptiveThreshold sets a pixel white when it is brighter than the mean of
// its blockSize×blockSize neighbourhood minus c, black otherwise.
func AdaptiveThreshold(src *image.Gray, blockSize, c int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	if blockSize < 3 {
		blockSize = 3
	}
	half := blockSize / 2

	// integral[y+1][x+1] holds the sum of src over [0,x]×[0,y]
	stride := w + 1
	integral := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + row
		}
	}

	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w-1, x+half)
			sum := integral[(y1+1)*stride+x1+1] - integral[y0*stride+x1+1] - integral[(y1+1)*stride+x0] + integral[y0*stride+x0]
			count := int64((y1 - y0 + 1) * (x1 - x0 + 1))
			v := int64(src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)])
			if v*count > sum-int64(c)*count {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// MedianFilter replaces each pixel with the median of its (2r+1)² neighbourhood
func MedianFilter(src *image.Gray, radius int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	window := make([]uint8, 0, (2*radius+1)*(2*radius+1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				yy := min(max(y+dy, 0), h-1)
				for dx := -radius; dx <= radius; dx++ {
					xx := min(max(x+dx, 0), w-1)
					window = append(window, src.GrayAt(b.Min.X+xx, b.Min.Y+yy).Y)
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			dst.Pix[y*dst.Stride+x] = window[len(window)/2]
		}
	}
	return dst
}
