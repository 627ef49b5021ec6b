package ocr

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/interfaces"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/preprocess"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// State is the lifecycle state of a Processor
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is a loaded engine together with the options it was loaded with
type Session struct {
	Options      types.SessionOptions
	Capabilities types.EngineCapabilities
	Engine       interfaces.OCREngine
	LoadedAt     time.Time
}

// ProcessOptions controls one Process call
type ProcessOptions struct {
	AdvancedPreprocess bool
	PreserveStructure  bool
}

// Processor runs preprocess, recognize, reconstruct and aggregate for one
// engine session. A Processor serves a single caller at a time; callers that
// need parallelism use one Processor per goroutine.
type Processor struct {
	registry      *Registry
	preprocessor  interfaces.ImagePreprocessor
	reconstructor *Reconstructor
	logger        *logger.Logger
	defaults      types.SessionOptions

	state   State
	session *Session
}

// Option configures a Processor
type Option func(*Processor)

// WithPreprocessor replaces the default image preprocessor
func WithPreprocessor(p interfaces.ImagePreprocessor) Option {
	return func(proc *Processor) { proc.preprocessor = p }
}

// WithReconstructor replaces the default reconstructor
func WithReconstructor(r *Reconstructor) Option {
	return func(proc *Processor) { proc.reconstructor = r }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(proc *Processor) { proc.logger = l }
}

// WithDefaults sets the session options used for lazy initialization
func WithDefaults(opts types.SessionOptions) Option {
	return func(proc *Processor) { proc.defaults = opts }
}

// NewProcessor creates an uninitialized processor backed by registry
func NewProcessor(registry *Registry, opts ...Option) *Processor {
	p := &Processor{
		registry: registry,
		logger:   logger.Discard(),
		defaults: types.SessionOptions{Engine: types.EngineTesseract, Languages: []string{"en"}},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.reconstructor == nil {
		p.reconstructor = NewReconstructor()
	}
	if p.preprocessor == nil {
		p.preprocessor = preprocess.New(preprocess.WithLogger(p.logger))
	}
	return p
}

// State returns the current lifecycle state
func (p *Processor) State() State {
	return p.state
}

// Session returns the loaded session, or nil before initialization
func (p *Processor) Session() *Session {
	return p.session
}

// Initialize loads the engine. Calling it again with identical parameters
// returns the existing session without reloading. Different parameters load
// a new session and close the previous one once the new one is ready. On
// failure the previous state is left as it was.
func (p *Processor) Initialize(ctx context.Context, engine types.EngineID, languages []string, gpu bool) (*Session, error) {
	opts := types.SessionOptions{
		Engine:    engine,
		Languages: append([]string(nil), languages...),
		GPU:       gpu,
	}

	if p.session != nil && p.session.Options.Equal(opts) {
		p.logger.Debug("OCR engine %s already initialized", engine)
		return p.session, nil
	}

	previous := p.state
	p.state = StateInitializing
	p.logger.Progress("⚙️", "Initializing OCR engine %s (languages: %v, gpu: %v)", engine, opts.Languages, gpu)

	start := time.Now()
	loaded, err := p.registry.Load(ctx, opts)
	if err != nil {
		p.state = previous
		p.logger.Debug("OCR engine %s failed to initialize: %v", engine, err)
		return nil, err
	}

	if p.session != nil {
		if cerr := p.session.Engine.Close(); cerr != nil {
			p.logger.Warn("Failed to close OCR engine %s: %v", p.session.Options.Engine, cerr)
		}
	}

	p.session = &Session{
		Options:      opts,
		Capabilities: loaded.Capabilities(),
		Engine:       loaded,
		LoadedAt:     time.Now(),
	}
	p.state = StateReady
	p.logger.Info("OCR engine %s ready in %v", engine, time.Since(start).Round(time.Millisecond))
	return p.session, nil
}

// Extract returns the reconstructed text of img
func (p *Processor) Extract(ctx context.Context, img image.Image, advanced bool) (string, error) {
	spans, err := p.run(ctx, img, advanced, func(e interfaces.OCREngine, in *image.NRGBA) ([]types.Span, error) {
		return e.Recognize(ctx, in)
	})
	if err != nil {
		return "", err
	}
	return p.reconstructor.Reconstruct(spans), nil
}

// ExtractPlain returns span texts joined by newlines in engine order,
// without structure reconstruction
func (p *Processor) ExtractPlain(ctx context.Context, img image.Image, advanced bool) (string, error) {
	spans, err := p.run(ctx, img, advanced, func(e interfaces.OCREngine, in *image.NRGBA) ([]types.Span, error) {
		return e.Recognize(ctx, in)
	})
	if err != nil {
		return "", err
	}
	return JoinPlain(spans), nil
}

// Confidence returns the mean confidence of the spans found in img
func (p *Processor) Confidence(ctx context.Context, img image.Image, advanced bool) (float64, error) {
	score, err := p.ConfidenceScore(ctx, img, advanced)
	return score.Value, err
}

// ConfidenceScore is Confidence plus whether the engine reports confidence at all
func (p *Processor) ConfidenceScore(ctx context.Context, img image.Image, advanced bool) (types.ConfidenceScore, error) {
	spans, err := p.run(ctx, img, advanced, func(e interfaces.OCREngine, in *image.NRGBA) ([]types.Span, error) {
		return e.Confidence(ctx, in)
	})
	if err != nil {
		return types.ConfidenceScore{}, err
	}
	return Aggregate(spans, p.session.Capabilities.ReportsConfidence), nil
}

// Process recognizes img once and returns text, paragraphs and confidence
func (p *Processor) Process(ctx context.Context, img image.Image, opts ProcessOptions) (*types.ExtractionResult, error) {
	start := time.Now()
	spans, err := p.run(ctx, img, opts.AdvancedPreprocess, func(e interfaces.OCREngine, in *image.NRGBA) ([]types.Span, error) {
		return e.Recognize(ctx, in)
	})

	result := &types.ExtractionResult{Engine: p.defaults.Engine}
	if p.session != nil {
		result.Engine = p.session.Options.Engine
	}
	result.AttemptedEngines = []types.EngineID{result.Engine}
	if err != nil {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result, err
	}

	result.SpanCount = len(spans)
	if opts.PreserveStructure {
		result.Text = p.reconstructor.Reconstruct(spans)
		for _, para := range p.reconstructor.Paragraphs(spans) {
			result.Paragraphs = append(result.Paragraphs, para.Text())
		}
	} else {
		result.Text = JoinPlain(spans)
	}
	result.Confidence = Aggregate(spans, p.session.Capabilities.ReportsConfidence)
	result.Duration = time.Since(start)
	return result, nil
}

// Close releases the engine session
func (p *Processor) Close() error {
	if p.session == nil {
		return nil
	}
	err := p.session.Engine.Close()
	p.session = nil
	p.state = StateUninitialized
	return err
}

type recognizeFunc func(e interfaces.OCREngine, img *image.NRGBA) ([]types.Span, error)

// run lazily initializes, preprocesses and calls the engine. Engine errors and
// panics come back as recoverable OCR errors and leave the processor Ready.
func (p *Processor) run(ctx context.Context, img image.Image, advanced bool, fn recognizeFunc) (spans []types.Span, err error) {
	if img == nil {
		return nil, utils.NewValidationError("image is nil", nil)
	}
	if p.session == nil {
		d := p.defaults
		if _, err := p.Initialize(ctx, d.Engine, d.Languages, d.GPU); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine := p.session.Engine
	p.state = StateProcessing
	defer func() {
		if r := recover(); r != nil {
			spans = nil
			err = utils.NewOCRError(fmt.Sprintf("%s: engine %s panicked: %v", constants.ErrOCRFailed, engine.ID(), r), nil).
				AsRecoverable().WithContext("engine", string(engine.ID()))
		}
		p.state = StateReady
	}()

	prepared := p.preprocessor.Preprocess(img, advanced)
	var target interfaces.OCREngine = engine
	if oe, ok := engine.(interfaces.OriginalImageEngine); ok {
		target = withOriginal{OriginalImageEngine: oe, original: imaging.Clone(img)}
	}
	spans, err = fn(target, prepared)
	if err != nil {
		p.logger.Debug("OCR engine %s failed: %v", engine.ID(), err)
		return nil, utils.WrapError(err, utils.ErrorTypeOCR, fmt.Sprintf("%s with engine %s", constants.ErrOCRFailed, engine.ID())).
			AsRecoverable().WithContext("engine", string(engine.ID()))
	}
	return spans, nil
}

// withOriginal routes recognition of an OriginalImageEngine to
// RecognizeWithOriginal with the unprocessed input
type withOriginal struct {
	interfaces.OriginalImageEngine
	original *image.NRGBA
}

func (w withOriginal) Recognize(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	return w.RecognizeWithOriginal(ctx, img, w.original)
}

func (w withOriginal) Confidence(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	return w.RecognizeWithOriginal(ctx, img, w.original)
}

// EngineID returns the engine of the loaded session, or the lazy-init default
func (p *Processor) EngineID() types.EngineID {
	if p.session != nil {
		return p.session.Options.Engine
	}
	return p.defaults.Engine
}
