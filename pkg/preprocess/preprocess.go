// Package preprocess normalizes images before recognition.
package preprocess

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/logger"
)

// Toolchain performs the advanced binarization path
type Toolchain interface {
	Name() string
	Binarize(img *image.NRGBA) (*image.NRGBA, error)
}

// Preprocessor implements interfaces.ImagePreprocessor. The advanced
// toolchain is fixed at construction; when it is missing or fails, the
// advanced path silently falls back to the basic path.
type Preprocessor struct {
	toolchain Toolchain
	contrast  float64
	sharpness float64
	logger    *logger.Logger
}

// Option configures a Preprocessor
type Option func(*Preprocessor)

// WithToolchain overrides the advanced toolchain. nil disables the advanced path.
func WithToolchain(tc Toolchain) Option {
	return func(p *Preprocessor) { p.toolchain = tc }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(p *Preprocessor) { p.logger = l }
}

// WithEnhancement sets the contrast and sharpness factors of the basic path
func WithEnhancement(contrast, sharpness float64) Option {
	return func(p *Preprocessor) {
		p.contrast = contrast
		p.sharpness = sharpness
	}
}

// New creates a preprocessor using DefaultToolchain
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{
		toolchain: DefaultToolchain(),
		contrast:  constants.ContrastFactor,
		sharpness: constants.SharpnessFactor,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Discard()
	}
	return p
}

// AdvancedAvailable reports whether the advanced path has a toolchain
func (p *Preprocessor) AdvancedAvailable() bool {
	return p.toolchain != nil
}

// ToolchainName returns the advanced toolchain name, or "none"
func (p *Preprocessor) ToolchainName() string {
	if p.toolchain == nil {
		return "none"
	}
	return p.toolchain.Name()
}

// Preprocess returns an opaque RGB image with the same size as img and its
// origin at (0,0). Both paths produce the same shape and type.
func (p *Preprocessor) Preprocess(img image.Image, advanced bool) *image.NRGBA {
	rgb := toRGB(img)
	if advanced {
		if p.toolchain == nil {
			p.logger.Debug("Advanced preprocessing requested but no toolchain is available, using basic path")
		} else {
			out, err := p.toolchain.Binarize(rgb)
			if err == nil && out != nil && out.Bounds().Size() == rgb.Bounds().Size() {
				return out
			}
			p.logger.Debug("Advanced preprocessing with %s failed, using basic path: %v", p.toolchain.Name(), err)
		}
	}
	return p.enhance(rgb)
}

func (p *Preprocessor) enhance(rgb *image.NRGBA) *image.NRGBA {
	return Sharpness(Contrast(rgb, p.contrast), p.sharpness)
}

// toRGB copies img into an NRGBA with every alpha set to opaque
func toRGB(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.A = 255
		return c
	})
}

// grayToRGB expands single-channel data to three equal channels
func grayToRGB(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		y := luma(c)
		return color.NRGBA{R: y, G: y, B: y, A: 255}
	})
}
