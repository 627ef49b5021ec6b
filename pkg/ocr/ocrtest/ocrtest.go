// Package ocrtest provides in-memory engines for testing code built on the
// ocr package.
package ocrtest

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/nodewee/img-to-doc/pkg/interfaces"
	"github.com/nodewee/img-to-doc/pkg/ocr"
	"github.com/nodewee/img-to-doc/pkg/types"
)

// Engine returns fixed spans, or fails, or panics
type Engine struct {
	EngineID types.EngineID
	Caps     types.EngineCapabilities
	Spans    []types.Span
	Err      error
	Panic    any
	// Hook runs at the start of every call when set.
	Hook func()

	Calls  atomic.Int64
	Closed atomic.Bool
}

func (e *Engine) ID() types.EngineID                     { return e.EngineID }
func (e *Engine) Name() string                           { return string(e.EngineID) }
func (e *Engine) GetDescription() string                 { return "test engine " + string(e.EngineID) }
func (e *Engine) Capabilities() types.EngineCapabilities { return e.Caps }

func (e *Engine) Recognize(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	e.Calls.Add(1)
	if e.Hook != nil {
		e.Hook()
	}
	if e.Panic != nil {
		panic(e.Panic)
	}
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([]types.Span, len(e.Spans))
	copy(out, e.Spans)
	return out, nil
}

func (e *Engine) Confidence(ctx context.Context, img *image.NRGBA) ([]types.Span, error) {
	return e.Recognize(ctx, img)
}

func (e *Engine) Close() error {
	e.Closed.Store(true)
	return nil
}

// Loader counts loads and hands out engines built by New
type Loader struct {
	New func(opts types.SessionOptions) *Engine
	// Err fails every load while set.
	Err error

	mu      sync.Mutex
	loads   int
	engines []*Engine
}

// Load implements interfaces.EngineLoader
func (l *Loader) Load(ctx context.Context, opts types.SessionOptions) (interfaces.OCREngine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	if l.Err != nil {
		return nil, l.Err
	}
	e := l.New(opts)
	l.engines = append(l.engines, e)
	return e, nil
}

// Loads returns the number of Load calls so far
func (l *Loader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

// Engines returns every engine handed out so far
func (l *Loader) Engines() []*Engine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Engine(nil), l.engines...)
}

// Register adds an always-available engine backed by l to reg
func Register(reg *ocr.Registry, id types.EngineID, caps types.EngineCapabilities, l *Loader) {
	reg.Register(ocr.Registration{
		ID:           id,
		Description:  "test engine",
		Capabilities: caps,
		Load:         l.Load,
	})
}

// Word builds an axis-aligned span with its top-left corner at (x, y)
func Word(text string, x, y, w, h, conf float64) types.Span {
	return types.Span{
		Text:       text,
		Quad:       types.Quad{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}},
		Confidence: conf,
	}
}
