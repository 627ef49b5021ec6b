package engines

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/imageio"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// LLMCallerOptions configures the llm-caller subprocess
type LLMCallerOptions struct {
	Path     string
	Template string
	Model    string
	TempDir  string

	// LineTolerance is the reconstruction tolerance the synthetic line
	// geometry must stay clear of.
	LineTolerance float64
}

// LLMCallerEngine sends the image to a vision model through llm-caller.
// The model returns flat text, so every output line becomes a span with
// synthetic geometry and no confidence.
type LLMCallerEngine struct {
	opts   LLMCallerOptions
	runner utils.Runner
	logger *logger.Logger
}

// LLMCallerCapabilities are the capability flags of the llm-caller engine
var LLMCallerCapabilities = types.EngineCapabilities{Kind: types.KindLineText}

// NewLLMCallerEngine creates a new LLM caller engine
func NewLLMCallerEngine(opts LLMCallerOptions, runner utils.Runner, log *logger.Logger) *LLMCallerEngine {
	if opts.Path == "" {
		opts.Path = constants.LLMCallerCommand
	}
	if opts.Template == "" {
		opts.Template = constants.DefaultLLMTemplate
	}
	if runner == nil {
		runner = utils.ExecRunner{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &LLMCallerEngine{opts: opts, runner: runner, logger: log}
}

func (e *LLMCallerEngine) ID() types.EngineID { return types.EngineLLMCaller }

// Name returns the name of the OCR engine
func (e *LLMCallerEngine) Name() string { return "llm-caller" }

// GetDescription returns a description of the OCR engine
func (e *LLMCallerEngine) GetDescription() string {
	return fmt.Sprintf("LLM Caller with template %q", e.opts.Template)
}

func (e *LLMCallerEngine) Capabilities() types.EngineCapabilities { return LLMCallerCapabilities }

// Recognize runs llm-caller on img and splits its answer into lines
func (e *LLMCallerEngine) Recognize(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
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
	outputPath := tm.NewFilePath(".txt")

	var args []string
	if e.opts.Model != "" {
		args = append(args, "--model", e.opts.Model)
	}
	args = append(args, "--template", e.opts.Template, "--file", inputPath, "--output", outputPath)
	cmd := utils.Command{Name: e.opts.Path, Args: args}

	e.logger.Debug("Running LLM Caller command: %s %s", cmd.Name, strings.Join(cmd.Args, " "))
	_, stderr, err := e.runner.Run(ctx, cmd)
	if err != nil {
		e.logger.Debug("LLM Caller failed: %s", strings.TrimSpace(string(stderr)))
		return nil, utils.WrapError(err, utils.ErrorTypeOCR, "llm-caller recognition failed").
			WithContext("stderr", strings.TrimSpace(string(stderr)))
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, utils.NewIOError("failed to read LLM output", err).WithContext("path", outputPath)
	}

	spans := LineSpans(string(content), e.opts.LineTolerance)
	e.logger.Debug("LLM Caller returned %d lines", len(spans))
	if spans == nil {
		spans = []types.Span{}
	}
	return spans, nil
}

// Confidence returns the recognized lines; llm-caller reports no confidence
func (e *LLMCallerEngine) Confidence(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	return e.Recognize(ctx, img)
}

// Close implements interfaces.OCREngine
func (e *LLMCallerEngine) Close() error { return nil }

// CheckLLMCaller verifies the configured llm-caller executable can be resolved
func CheckLLMCaller(path string) error {
	if path == "" {
		path = constants.LLMCallerCommand
	}
	if !utils.IsCommandAvailable(path) {
		return utils.NewUnavailableError(fmt.Sprintf("%s not found", path), nil).WithContext("path", path)
	}
	return nil
}
