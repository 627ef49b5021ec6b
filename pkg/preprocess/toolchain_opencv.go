//go:build opencv

package preprocess

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/nodewee/img-to-doc/pkg/constants"
)

// OpenCVToolchain runs the advanced path through OpenCV
type OpenCVToolchain struct{}

// DefaultToolchain returns the advanced toolchain compiled into this build
func DefaultToolchain() Toolchain {
	return OpenCVToolchain{}
}

// Name implements Toolchain
func (OpenCVToolchain) Name() string { return "opencv" }

// Binarize implements Toolchain
func (OpenCVToolchain) Binarize(img *image.NRGBA) (*image.NRGBA, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image to mat: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(blurred, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary,
		constants.AdaptiveBlockSize, constants.AdaptiveConstant)

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.FastNlMeansDenoising(binary, &denoised)

	out, err := denoised.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert mat to image: %w", err)
	}
	return grayToRGB(imaging.Clone(out)), nil
}
