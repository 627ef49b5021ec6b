package ocr

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nodewee/img-to-doc/pkg/interfaces"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// Registration describes one engine the registry can load
type Registration struct {
	ID           types.EngineID
	Description  string
	Capabilities types.EngineCapabilities
	// Available is a cheap host probe (binary on PATH, server URL configured).
	Available func() bool
	Load      interfaces.EngineLoader
}

// EngineInfo is the listing entry for one registered engine
type EngineInfo struct {
	ID           types.EngineID           `json:"id"`
	Description  string                   `json:"description"`
	Capabilities types.EngineCapabilities `json:"capabilities"`
	Available    bool                     `json:"available"`
}

// Registry holds the engines known to this build. Availability is probed
// once per engine and cached.
type Registry struct {
	mu        sync.Mutex
	logger    *logger.Logger
	engines   map[types.EngineID]Registration
	available map[types.EngineID]bool
	order     []types.EngineID
}

// NewRegistry creates an empty registry
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{
		logger:    log,
		engines:   make(map[types.EngineID]Registration),
		available: make(map[types.EngineID]bool),
	}
}

// Register adds or replaces an engine registration
func (r *Registry) Register(reg Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[reg.ID]; !exists {
		r.order = append(r.order, reg.ID)
	}
	r.engines[reg.ID] = reg
	delete(r.available, reg.ID)
}

// Lookup returns the registration for id
func (r *Registry) Lookup(id types.EngineID) (Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.engines[id]
	return reg, ok
}

// IsAvailable reports whether the engine's host probe succeeded
func (r *Registry) IsAvailable(id types.EngineID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isAvailableLocked(id)
}

func (r *Registry) isAvailableLocked(id types.EngineID) bool {
	if v, ok := r.available[id]; ok {
		return v
	}
	reg, ok := r.engines[id]
	if !ok {
		return false
	}
	v := reg.Available == nil || reg.Available()
	r.available[id] = v
	r.logger.Debug("Engine %s available: %v", id, v)
	return v
}

// GetAvailableEngines returns the available engines in registration order
func (r *Registry) GetAvailableEngines() []types.EngineID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.EngineID
	for _, id := range r.order {
		if r.isAvailableLocked(id) {
			out = append(out, id)
		}
	}
	return out
}

// List describes every registered engine, sorted by id
func (r *Registry) List() []EngineInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	infos := make([]EngineInfo, 0, len(r.engines))
	for id, reg := range r.engines {
		infos = append(infos, EngineInfo{
			ID:           id,
			Description:  reg.Description,
			Capabilities: reg.Capabilities,
			Available:    r.isAvailableLocked(id),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Capabilities returns the registered capability flags for id
func (r *Registry) Capabilities(id types.EngineID) (types.EngineCapabilities, error) {
	reg, ok := r.Lookup(id)
	if !ok {
		return types.EngineCapabilities{}, unknownEngine(id)
	}
	return reg.Capabilities, nil
}

// Load initializes a new engine session. It never substitutes another engine.
func (r *Registry) Load(ctx context.Context, opts types.SessionOptions) (interfaces.OCREngine, error) {
	reg, ok := r.Lookup(opts.Engine)
	if !ok {
		return nil, unknownEngine(opts.Engine)
	}
	if !r.IsAvailable(opts.Engine) {
		return nil, utils.NewUnavailableError(fmt.Sprintf("OCR engine '%s' is not available on this system", opts.Engine), nil).
			WithContext("engine", string(opts.Engine))
	}
	if reg.Load == nil {
		return nil, utils.NewUnsupportedError(fmt.Sprintf("OCR engine '%s' has no loader", opts.Engine), nil)
	}

	engine, err := reg.Load(ctx, opts)
	if err != nil {
		if utils.GetErrorType(err) == utils.ErrorTypeUnavailable {
			return nil, err
		}
		return nil, utils.WrapError(err, utils.ErrorTypeUnavailable, fmt.Sprintf("failed to initialize OCR engine '%s'", opts.Engine)).
			WithContext("engine", string(opts.Engine))
	}
	return engine, nil
}

// SelectEngine resolves "auto" or an empty id to the first available engine
// in the given preference order, then the registration order.
func (r *Registry) SelectEngine(id types.EngineID, preference ...types.EngineID) (types.EngineID, error) {
	if id != "" && id != "auto" {
		if _, ok := r.Lookup(id); !ok {
			return "", unknownEngine(id)
		}
		return id, nil
	}
	for _, p := range preference {
		if r.IsAvailable(p) {
			r.logger.Info("Auto-selected OCR engine: %s", p)
			return p, nil
		}
	}
	available := r.GetAvailableEngines()
	if len(available) == 0 {
		return "", utils.NewUnavailableError("no OCR engines are available on this system", nil)
	}
	r.logger.Info("Auto-selected OCR engine: %s", available[0])
	return available[0], nil
}

func unknownEngine(id types.EngineID) error {
	return utils.NewValidationError(fmt.Sprintf("unknown OCR engine: %s", id), nil).WithContext("engine", string(id))
}
