package interfaces

import (
	"context"
	"image"
	"io"

	"github.com/nodewee/img-to-doc/pkg/types"
)

// OCREngine is the adapter contract every recognition backend satisfies.
// Adapters trim text, normalize geometry to a four-point quad, rescale
// confidence to [0,1] and return an empty slice when nothing is detected.
type OCREngine interface {
	ID() types.EngineID

	// Name returns a human readable engine name
	Name() string

	// GetDescription returns a description of the OCR engine
	GetDescription() string

	Capabilities() types.EngineCapabilities

	// Recognize returns the spans found in a preprocessed image
	Recognize(ctx context.Context, img *image.NRGBA) ([]types.Span, error)

	// Confidence returns spans for confidence aggregation. Engines that
	// cannot report confidence return spans with zero confidence.
	Confidence(ctx context.Context, img *image.NRGBA) ([]types.Span, error)

	// Close releases model handles or external resources
	Close() error
}

// OriginalImageEngine is an engine that locates text on the preprocessed
// image but reads pixels from the original one. The processor calls
// RecognizeWithOriginal in place of both Recognize and Confidence.
type OriginalImageEngine interface {
	OCREngine
	RecognizeWithOriginal(ctx context.Context, prepared, original *image.NRGBA) ([]types.Span, error)
}

// EngineLoader creates an initialized engine session
type EngineLoader func(ctx context.Context, opts types.SessionOptions) (OCREngine, error)

// RegionDetector finds text regions without recognizing them
type RegionDetector interface {
	DetectRegions(ctx context.Context, img *image.NRGBA) ([]types.Quad, error)
	Close() error
}

// RegionRecognizer turns one cropped region into text
type RegionRecognizer interface {
	RecognizeRegion(ctx context.Context, region image.Image) (string, error)
	Close() error
}

// ImagePreprocessor normalizes an image before recognition
type ImagePreprocessor interface {
	Preprocess(img image.Image, advanced bool) *image.NRGBA
}

// DocumentGenerator renders extracted text into an output document
type DocumentGenerator interface {
	Name() string
	Extension() string
	Generate(w io.Writer, req types.DocumentRequest) error
}
