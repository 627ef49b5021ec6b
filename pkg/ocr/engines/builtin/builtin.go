// Package builtin registers the engines shipped with img-to-doc.
package builtin

import (
	"context"
	"time"

	"github.com/nodewee/img-to-doc/pkg/config"
	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/interfaces"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/ocr"
	"github.com/nodewee/img-to-doc/pkg/ocr/engines"
	"github.com/nodewee/img-to-doc/pkg/ocr/engines/tesseract"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// NewRegistry returns a registry holding every built-in engine
func NewRegistry(cfg *config.Config, log *logger.Logger) *ocr.Registry {
	reg := ocr.NewRegistry(log)
	RegisterDefaults(reg, cfg, log)
	return reg
}

// RegisterDefaults registers tesseract, surya_ocr, llm-caller and handwriting
func RegisterDefaults(reg *ocr.Registry, cfg *config.Config, log *logger.Logger) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if log == nil {
		log = logger.Discard()
	}

	reg.Register(ocr.Registration{
		ID:           types.EngineTesseract,
		Description:  "Tesseract (in-process, word-level layout and confidence)",
		Capabilities: tesseract.Capabilities,
		Load: func(ctx context.Context, opts types.SessionOptions) (interfaces.OCREngine, error) {
			return tesseract.New(tesseract.Options{
				Languages:      opts.Languages,
				TessdataPrefix: cfg.TessdataPrefix,
				GPU:            opts.GPU,
			}, log)
		},
	})

	suryaPath := cfg.SuryaOCRPath
	if suryaPath == "" {
		suryaPath = constants.SuryaOCRCommand
	}
	reg.Register(ocr.Registration{
		ID:           types.EngineSuryaOCR,
		Description:  "Surya OCR (line detection and recognition, GPU capable)",
		Capabilities: engines.SuryaCapabilities,
		Available:    func() bool { return utils.IsCommandAvailable(suryaPath) },
		Load: func(ctx context.Context, opts types.SessionOptions) (interfaces.OCREngine, error) {
			if err := engines.CheckSurya(suryaPath); err != nil {
				return nil, err
			}
			return engines.NewSuryaOCREngine(engines.SuryaOptions{
				Path:      suryaPath,
				Languages: opts.Languages,
				GPU:       opts.GPU,
			}, nil, log), nil
		},
	})

	llmPath := cfg.LLMCallerPath
	if llmPath == "" {
		llmPath = constants.LLMCallerCommand
	}
	reg.Register(ocr.Registration{
		ID:           types.EngineLLMCaller,
		Description:  "LLM Caller (vision model, plain text lines)",
		Capabilities: engines.LLMCallerCapabilities,
		Available:    func() bool { return utils.IsCommandAvailable(llmPath) },
		Load: func(ctx context.Context, opts types.SessionOptions) (interfaces.OCREngine, error) {
			if err := engines.CheckLLMCaller(llmPath); err != nil {
				return nil, err
			}
			return engines.NewLLMCallerEngine(engines.LLMCallerOptions{
				Path:          llmPath,
				Template:      cfg.LLMTemplate,
				Model:         cfg.LLMModel,
				LineTolerance: cfg.LineTolerance,
			}, nil, log), nil
		},
	})

	handwritingURL := cfg.HandwritingURL
	reg.Register(ocr.Registration{
		ID:           types.EngineHandwriting,
		Description:  "Handwriting (tesseract line detection + recognizer server)",
		Capabilities: engines.HandwritingCapabilities,
		Available:    func() bool { return handwritingURL != "" },
		Load: func(ctx context.Context, opts types.SessionOptions) (interfaces.OCREngine, error) {
			recognizer := engines.NewHTTPRecognizer(engines.HTTPRecognizerOptions{
				BaseURL: handwritingURL,
				GPU:     opts.GPU,
				RPS:     cfg.RecognizerRPS,
				Timeout: time.Duration(cfg.TimeoutMinutes) * time.Minute,
			}, nil, log)
			if err := recognizer.Ping(ctx); err != nil {
				recognizer.Close()
				return nil, err
			}
			detector, err := tesseract.New(tesseract.Options{
				Languages:      opts.Languages,
				TessdataPrefix: cfg.TessdataPrefix,
			}, log)
			if err != nil {
				recognizer.Close()
				return nil, err
			}
			return engines.NewHandwritingEngine(detector, recognizer, cfg.RecognizerConcurrency, log), nil
		},
	})
}

// ProcessorOptions builds the processor options implied by cfg
func ProcessorOptions(cfg *config.Config, log *logger.Logger) []ocr.Option {
	r := ocr.NewReconstructor()
	if cfg.LineTolerance > 0 {
		r.Tolerance = cfg.LineTolerance
	}
	return []ocr.Option{
		ocr.WithLogger(log),
		ocr.WithReconstructor(r),
		ocr.WithDefaults(cfg.SessionOptions()),
	}
}

// FallbackPolicy returns the policy configured by cfg, or nil when fallback is off
func FallbackPolicy(cfg *config.Config) *ocr.FallbackPolicy {
	if !cfg.EnableFallback {
		return nil
	}
	policy := ocr.DefaultFallbackPolicy(cfg.Languages)
	if cfg.FallbackEngine != "" {
		policy.Engine = cfg.FallbackEngine
	}
	policy.GPU = cfg.UseGPU
	if cfg.MaxRetries > 0 {
		policy.MaxAttempts = cfg.MaxRetries
	}
	return policy
}
