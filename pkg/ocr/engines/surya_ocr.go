package engines

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/imageio"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// SuryaOCRResult represents the structure of surya_ocr JSON output
type SuryaOCRResult map[string][]SuryaPageResult

type SuryaPageResult struct {
	TextLines []SuryaTextLine `json:"text_lines"`
	ImageBbox []float64       `json:"image_bbox"`
	Page      int             `json:"page"`
}

type SuryaTextLine struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Polygon    [][]float64 `json:"polygon"`
	Bbox       []float64   `json:"bbox"`
}

// SuryaOptions configures the surya_ocr subprocess
type SuryaOptions struct {
	Path string
	// Languages is informational; surya detects the script per line.
	Languages []string
	GPU       bool
	TempDir   string
}

// SuryaOCREngine runs the surya_ocr command on a temporary PNG and reads its
// results.json. Each text line becomes one span.
type SuryaOCREngine struct {
	opts   SuryaOptions
	runner utils.Runner
	logger *logger.Logger
}

// NewSuryaOCREngine creates a new Surya OCR engine
func NewSuryaOCREngine(opts SuryaOptions, runner utils.Runner, log *logger.Logger) *SuryaOCREngine {
	if opts.Path == "" {
		opts.Path = constants.SuryaOCRCommand
	}
	if runner == nil {
		runner = utils.ExecRunner{}
	}
	if log == nil {
		log = logger.Discard()
	}
	if len(opts.Languages) > 0 {
		log.Debug("surya_ocr detects languages automatically, requested %v", opts.Languages)
	}
	return &SuryaOCREngine{opts: opts, runner: runner, logger: log}
}

// SuryaCapabilities are the capability flags of the surya engine
var SuryaCapabilities = types.EngineCapabilities{
	Kind:              types.KindDetectRecognize,
	ReportsConfidence: true,
	SupportsGPU:       true,
}

func (e *SuryaOCREngine) ID() types.EngineID { return types.EngineSuryaOCR }

// Name returns the name of the OCR engine
func (e *SuryaOCREngine) Name() string { return "surya_ocr" }

// GetDescription returns a description of the OCR engine
func (e *SuryaOCREngine) GetDescription() string {
	return "Surya OCR (local detection and recognition models)"
}

func (e *SuryaOCREngine) Capabilities() types.EngineCapabilities { return SuryaCapabilities }

// Recognize runs surya_ocr on img
func (e *SuryaOCREngine) Recognize(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	tm, err := utils.NewTempManager(e.opts.TempDir, e.logger)
	if err != nil {
		return nil, err
	}
	defer tm.Cleanup()

	data, err := imageio.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	inputPath, err := tm.WriteFile(".png", data)
	if err != nil {
		return nil, err
	}
	outputDir := filepath.Join(tm.BaseDir(), "results")

	cmd := utils.Command{
		Name: e.opts.Path,
		Args: []string{"--output_dir", outputDir, inputPath},
		Env:  []string{"TORCH_DEVICE=" + torchDevice(e.opts.GPU)},
	}
	e.logger.Debug("Running Surya OCR command: %s %s", cmd.Name, strings.Join(cmd.Args, " "))

	_, stderr, err := e.runner.Run(ctx, cmd)
	if err != nil {
		e.logger.Debug("Surya OCR command failed: %s", strings.TrimSpace(string(stderr)))
		return nil, utils.WrapError(err, utils.ErrorTypeOCR, "surya OCR recognition failed").
			WithContext("stderr", strings.TrimSpace(string(stderr)))
	}

	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	resultsPath := filepath.Join(outputDir, baseName, constants.SuryaResultsFile)
	content, err := os.ReadFile(resultsPath)
	if err != nil {
		return nil, utils.NewIOError("error reading surya results", err).WithContext("path", resultsPath)
	}

	spans, err := ParseSuryaResults(content)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Surya OCR found %d text lines", len(spans))
	return spans, nil
}

// Confidence returns the same spans as Recognize
func (e *SuryaOCREngine) Confidence(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	return e.Recognize(ctx, img)
}

// Close implements interfaces.OCREngine
func (e *SuryaOCREngine) Close() error { return nil }

// ParseSuryaResults converts results.json content into spans. Pages are read
// in file-name then page order; lines without usable geometry are dropped.
func ParseSuryaResults(content []byte) ([]types.Span, error) {
	var results SuryaOCRResult
	if err := json.Unmarshal(content, &results); err != nil {
		return nil, utils.NewConversionError("error parsing surya results JSON", err)
	}

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	spans := []types.Span{}
	for _, k := range keys {
		pages := results[k]
		sort.SliceStable(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })
		for _, page := range pages {
			for _, line := range page.TextLines {
				q, ok := QuadFromPolygon(line.Polygon)
				if !ok {
					q, ok = QuadFromBBox(line.Bbox)
				}
				if !ok {
					continue
				}
				if span, ok := NewSpan(line.Text, q, NormalizeConfidence(line.Confidence, 1), nil); ok {
					spans = append(spans, span)
				}
			}
		}
	}
	return spans, nil
}

func torchDevice(gpu bool) string {
	if gpu {
		return "cuda"
	}
	return "cpu"
}

// CheckSurya verifies the configured surya_ocr executable can be resolved
func CheckSurya(path string) error {
	if path == "" {
		path = constants.SuryaOCRCommand
	}
	if !utils.IsCommandAvailable(path) {
		return utils.NewUnavailableError(fmt.Sprintf("%s not found", path), nil).WithContext("path", path)
	}
	return nil
}
