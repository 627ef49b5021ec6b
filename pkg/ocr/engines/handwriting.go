package engines

import (
	"context"
	"errors"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/nodewee/img-to-doc/pkg/interfaces"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// HandwritingCapabilities are the capability flags of the handwriting composition
var HandwritingCapabilities = types.EngineCapabilities{
	Kind:        types.KindDetectHandwriting,
	SupportsGPU: true,
}

// HandwritingEngine pairs a region detector with a handwriting recognizer.
// Regions are detected on the preprocessed image and read top to bottom.
// Each is cropped from the original image to its bounding rectangle and
// recognized on its own. The recognizer reports no confidence.
type HandwritingEngine struct {
	detector    interfaces.RegionDetector
	recognizer  interfaces.RegionRecognizer
	concurrency int
	logger      *logger.Logger
}

// NewHandwritingEngine creates the composition. concurrency bounds the
// number of regions recognized at once.
func NewHandwritingEngine(detector interfaces.RegionDetector, recognizer interfaces.RegionRecognizer, concurrency int, log *logger.Logger) *HandwritingEngine {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logger.Discard()
	}
	return &HandwritingEngine{detector: detector, recognizer: recognizer, concurrency: concurrency, logger: log}
}

func (e *HandwritingEngine) ID() types.EngineID { return types.EngineHandwriting }

// Name returns the name of the OCR engine
func (e *HandwritingEngine) Name() string { return "handwriting" }

// GetDescription returns a description of the OCR engine
func (e *HandwritingEngine) GetDescription() string {
	return "Handwriting recognition (region detection + transformer recognizer)"
}

func (e *HandwritingEngine) Capabilities() types.EngineCapabilities { return HandwritingCapabilities }

// Recognize detects and crops regions on img, one span per region
func (e *HandwritingEngine) Recognize(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	return e.RecognizeWithOriginal(ctx, img, img)
}

// RecognizeWithOriginal detects regions on prepared and crops them from original
func (e *HandwritingEngine) RecognizeWithOriginal(ctx context.Context, prepared, original *image.NRGBA) ([]types.Span, error) {
	if original == nil {
		original = prepared
	}
	quads, err := e.detector.DetectRegions(ctx, prepared)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeOCR, "handwriting region detection failed")
	}

	sort.SliceStable(quads, func(i, j int) bool { return quads[i].TopLeft().Y < quads[j].TopLeft().Y })

	type region struct {
		quad types.Quad
		crop *image.NRGBA
	}
	regions := make([]region, 0, len(quads))
	for _, q := range quads {
		if !q.Valid() {
			continue
		}
		rect := q.Bounds().Intersect(original.Bounds())
		if rect.Empty() {
			continue
		}
		regions = append(regions, region{quad: q, crop: imaging.Crop(original, rect)})
	}
	e.logger.Debug("Handwriting detector found %d regions", len(regions))

	texts := make([]string, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, r := range regions {
		g.Go(func() error {
			text, err := e.recognizer.RecognizeRegion(gctx, r.crop)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeOCR, "handwriting recognition failed")
	}

	spans := make([]types.Span, 0, len(regions))
	for i, r := range regions {
		if span, ok := NewSpan(texts[i], r.quad, 0, nil); ok {
			spans = append(spans, span)
		}
	}
	return spans, nil
}

// Confidence returns the recognized spans with zero confidence
func (e *HandwritingEngine) Confidence(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	return e.Recognize(ctx, img)
}

// Close releases the detector and the recognizer
func (e *HandwritingEngine) Close() error {
	return errors.Join(e.detector.Close(), e.recognizer.Close())
}
