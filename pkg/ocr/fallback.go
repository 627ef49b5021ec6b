package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// FallbackPolicy is the caller's explicit opt-in to switching engines
type FallbackPolicy struct {
	Engine    types.EngineID
	Languages []string
	GPU       bool
	// MaxAttempts is how many times a failing primary call is tried before falling back.
	MaxAttempts int
	RetryDelay  time.Duration
}

// DefaultFallbackPolicy falls back to the in-process tesseract engine
func DefaultFallbackPolicy(languages []string) *FallbackPolicy {
	return &FallbackPolicy{
		Engine:      types.EngineTesseract,
		Languages:   languages,
		MaxAttempts: constants.DefaultOCRRetries,
		RetryDelay:  constants.DefaultRetryDelay,
	}
}

// FallbackProcessor wraps a primary Processor with a FallbackPolicy. The
// secondary processor is created on first use and reused afterwards.
type FallbackProcessor struct {
	primary   *Processor
	policy    *FallbackPolicy
	secondary *Processor
	logger    *logger.Logger
}

// NewFallbackProcessor combines primary with policy. A nil policy disables fallback.
func NewFallbackProcessor(primary *Processor, policy *FallbackPolicy, log *logger.Logger) *FallbackProcessor {
	if log == nil {
		log = logger.Discard()
	}
	return &FallbackProcessor{primary: primary, policy: policy, logger: log}
}

// Primary returns the wrapped processor
func (f *FallbackProcessor) Primary() *Processor {
	return f.primary
}

// Process runs the primary engine, retrying recoverable failures, and then
// the fallback engine once. The result records every engine attempted and
// carries a warning whenever the fallback was used.
func (f *FallbackProcessor) Process(ctx context.Context, img image.Image, opts ProcessOptions) (*types.ExtractionResult, error) {
	attempts := 1
	if f.policy != nil && f.policy.MaxAttempts > 1 {
		attempts = f.policy.MaxAttempts
	}
	var delay time.Duration
	if f.policy != nil {
		delay = f.policy.RetryDelay
	}

	var result *types.ExtractionResult
	primaryErr := utils.NewRetrier(attempts, delay).Do(ctx, func() error {
		var err error
		result, err = f.primary.Process(ctx, img, opts)
		return err
	})
	if primaryErr == nil {
		return result, nil
	}

	primaryID := f.primary.EngineID()
	if result == nil {
		result = &types.ExtractionResult{Engine: primaryID, AttemptedEngines: []types.EngineID{primaryID}}
	}
	if f.policy == nil || f.policy.Engine == "" || f.policy.Engine == primaryID || ctx.Err() != nil {
		result.Error = primaryErr.Error()
		return result, primaryErr
	}

	warning := fmt.Sprintf("OCR engine %s failed, falling back to %s: %v", primaryID, f.policy.Engine, primaryErr)
	f.logger.Warn("%s", warning)

	fallback, err := f.runSecondary(ctx, img, opts)
	if fallback == nil {
		fallback = &types.ExtractionResult{}
	}
	fallback.Engine = f.policy.Engine
	fallback.FallbackUsed = true
	fallback.AttemptedEngines = []types.EngineID{primaryID, f.policy.Engine}
	fallback.Warnings = append([]string{warning}, fallback.Warnings...)
	if err != nil {
		fallback.Text = ""
		fallback.Paragraphs = nil
		fallback.Confidence = types.ConfidenceScore{}
		joined := errors.Join(primaryErr, err)
		fallback.Error = joined.Error()
		return fallback, joined
	}
	return fallback, nil
}

func (f *FallbackProcessor) runSecondary(ctx context.Context, img image.Image, opts ProcessOptions) (*types.ExtractionResult, error) {
	if f.secondary == nil {
		f.secondary = NewProcessor(f.primary.registry,
			WithPreprocessor(f.primary.preprocessor),
			WithReconstructor(f.primary.reconstructor),
			WithLogger(f.logger),
			WithDefaults(types.SessionOptions{
				Engine:    f.policy.Engine,
				Languages: f.policy.Languages,
				GPU:       f.policy.GPU,
			}),
		)
	}
	if _, err := f.secondary.Initialize(ctx, f.policy.Engine, f.policy.Languages, f.policy.GPU); err != nil {
		return nil, err
	}
	return f.secondary.Process(ctx, img, opts)
}

// Close releases both processors
func (f *FallbackProcessor) Close() error {
	var errs []error
	if err := f.primary.Close(); err != nil {
		errs = append(errs, err)
	}
	if f.secondary != nil {
		if err := f.secondary.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
