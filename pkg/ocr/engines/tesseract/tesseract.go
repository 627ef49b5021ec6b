// Package tesseract adapts the in-process tesseract library through gosseract.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/imageio"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/ocr/engines"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// languageCodes maps the short codes used on the command line to traineddata names
var languageCodes = map[string]string{
	"en":      "eng",
	"ch":      "chi_sim",
	"ch_sim":  "chi_sim",
	"ch_tra":  "chi_tra",
	"ja":      "jpn",
	"japan":   "jpn",
	"ko":      "kor",
	"korean":  "kor",
	"fr":      "fra",
	"french":  "fra",
	"de":      "deu",
	"german":  "deu",
	"es":      "spa",
	"it":      "ita",
	"pt":      "por",
	"ru":      "rus",
	"ar":      "ara",
	"hi":      "hin",
	"latin":   "lat",
	"chinese": "chi_sim",
}

// Capabilities are the capability flags of the tesseract engine
var Capabilities = types.EngineCapabilities{
	Kind:              types.KindDetectRecognize,
	ReportsConfidence: true,
	ReportsLayout:     true,
}

// Options configures a tesseract session
type Options struct {
	Languages      []string
	TessdataPrefix string
	GPU            bool
}

// Engine holds one gosseract client for the lifetime of a session. It serves
// as a word-level OCR engine and as a text-line region detector.
type Engine struct {
	client    *gosseract.Client
	languages []string
	logger    *logger.Logger
}

// MapLanguages converts short language codes to tesseract names, dropping duplicates
func MapLanguages(codes []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if mapped, ok := languageCodes[c]; ok {
			c = mapped
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = []string{constants.DefaultTesseractLang}
	}
	return out
}

// New creates a client and runs a probe recognition so missing language data
// is reported at initialization rather than on the first image.
func New(opts Options, log *logger.Logger) (*Engine, error) {
	if log == nil {
		log = logger.Discard()
	}
	if opts.GPU {
		log.Debug("tesseract runs on CPU, ignoring GPU preference")
	}

	langs := MapLanguages(opts.Languages)
	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		client.SetTessdataPrefix(opts.TessdataPrefix)
	}
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, utils.NewValidationError("failed to set tesseract languages", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, utils.NewSystemError("failed to set tesseract page segmentation mode", err)
	}

	e := &Engine{client: client, languages: langs, logger: log}
	if err := e.probe(); err != nil {
		client.Close()
		return nil, utils.NewUnavailableError(fmt.Sprintf("tesseract could not load languages %v", langs), err)
	}
	log.Debug("tesseract loaded with languages %v", langs)
	return e, nil
}

func (e *Engine) probe() error {
	blank := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	if err := e.setImage(blank); err != nil {
		return err
	}
	_, err := e.client.Text()
	return err
}

func (e *Engine) ID() types.EngineID { return types.EngineTesseract }

// Name returns the name of the OCR engine
func (e *Engine) Name() string { return "tesseract" }

// GetDescription returns a description of the OCR engine
func (e *Engine) GetDescription() string {
	return fmt.Sprintf("Tesseract OCR (languages: %s)", strings.Join(e.languages, "+"))
}

func (e *Engine) Capabilities() types.EngineCapabilities { return Capabilities }

// Recognize returns one span per word with block/paragraph/line layout
func (e *Engine) Recognize(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.setImage(img); err != nil {
		return nil, err
	}
	boxes, err := e.client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, utils.NewOCRError("tesseract recognition failed", err)
	}

	spans := make([]types.Span, 0, len(boxes))
	for _, b := range boxes {
		layout := &types.Layout{Block: b.BlockNum, Paragraph: b.ParNum, Line: b.LineNum}
		conf := engines.NormalizeConfidence(b.Confidence, 100)
		if span, ok := engines.NewSpan(b.Word, types.RectQuad(b.Box), conf, layout); ok {
			spans = append(spans, span)
		}
	}
	e.logger.Debug("tesseract found %d words", len(spans))
	return spans, nil
}

// Confidence returns the same spans as Recognize
func (e *Engine) Confidence(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	return e.Recognize(ctx, img)
}

// DetectRegions returns text-line boxes without their text
func (e *Engine) DetectRegions(ctx context.Context, img *image.NRGBA) ([]types.Quad, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.setImage(img); err != nil {
		return nil, err
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, utils.NewOCRError("tesseract line detection failed", err)
	}
	quads := make([]types.Quad, 0, len(boxes))
	for _, b := range boxes {
		if b.Box.Empty() {
			continue
		}
		quads = append(quads, types.RectQuad(b.Box))
	}
	return quads, nil
}

// Close releases the tesseract client
func (e *Engine) Close() error {
	return e.client.Close()
}

func (e *Engine) setImage(img image.Image) error {
	data, err := imageio.EncodePNG(img)
	if err != nil {
		return err
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return utils.NewOCRError("failed to set tesseract image", err)
	}
	return nil
}
