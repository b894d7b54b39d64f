package manager

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/engine"
	"inferd/pkg/types"
)

// Manager holds at most one loaded model and its execution context. Loading
// a different model first releases the previous pair; the engine's guard
// keeps generation single-flight on top of that.
type Manager struct {
	mu      sync.RWMutex
	backend engine.Backend
	engine  *engine.Engine
	cfg     Config
	log     zerolog.Logger

	cur   *types.Model
	model *engine.Model
	ectx  *engine.Context

	// genMu serializes the clear-cache-then-generate sequence so a cache
	// clear can never race a running session. TryLock only: contenders are
	// rejected, never queued.
	genMu sync.Mutex

	loads       uint64
	generations uint64
	lastErr     string
	startTime   time.Time
}

// ListModels returns a copy of the registry.
func (m *Manager) ListModels() []types.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Model, len(m.cfg.Registry))
	copy(out, m.cfg.Registry)
	return out
}

// getModelByID resolves an id against the registry.
func (m *Manager) getModelByID(id string) (types.Model, bool) {
	for _, mdl := range m.cfg.Registry {
		if mdl.ID == id {
			return mdl, true
		}
	}
	return types.Model{}, false
}

// resolveModelID maps an empty request id to the configured default.
func (m *Manager) resolveModelID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if m.cfg.DefaultModel != "" {
		return m.cfg.DefaultModel, nil
	}
	return "", ErrModelNotFound("(unspecified)")
}

// EnsureModel makes the given model the loaded one, loading it (and
// releasing any previously loaded model) when necessary. Loading happens
// under the manager lock: status reads block for the duration rather than
// observing a half-switched state.
func (m *Manager) EnsureModel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur != nil && m.cur.ID == id && m.model != nil && !m.model.Closed() {
		return nil
	}

	mdl, ok := m.getModelByID(id)
	if !ok || strings.TrimSpace(mdl.Path) == "" {
		return ErrModelNotFound(id)
	}

	m.releaseLocked()

	m.log.Info().Str("model", mdl.ID).Str("path", mdl.Path).Msg("loading model")
	loaded, err := engine.LoadModel(m.backend, mdl.Path, engine.ModelParams{
		Threads:   m.cfg.Threads,
		GPULayers: m.cfg.GPULayers,
		UseMMap:   m.cfg.UseMMap,
		UseMLock:  m.cfg.UseMLock,
	})
	if err != nil {
		m.lastErr = err.Error()
		return err
	}
	ectx, err := loaded.NewContext(engine.ContextParams{
		NCtx:    m.cfg.CtxSize,
		NBatch:  m.cfg.BatchSize,
		Threads: m.cfg.Threads,
	})
	if err != nil {
		_ = loaded.Close()
		m.lastErr = err.Error()
		return err
	}

	m.cur = &mdl
	m.model = loaded
	m.ectx = ectx
	m.loads++
	m.lastErr = ""
	modelLoadsTotal.Inc()
	return nil
}

// releaseLocked closes the loaded context and model. Caller holds m.mu.
func (m *Manager) releaseLocked() {
	if m.ectx != nil {
		_ = m.ectx.Close()
		m.ectx = nil
	}
	if m.model != nil {
		_ = m.model.Close()
		m.model = nil
	}
	m.cur = nil
}

// handles snapshots the loaded pair for use outside the manager lock.
func (m *Manager) handles() (*types.Model, *engine.Model, *engine.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur, m.model, m.ectx
}

// Unload releases the loaded model, rejecting the call while a generation
// is running.
func (m *Manager) Unload() error {
	if !m.genMu.TryLock() {
		return engine.ErrAlreadyGenerating()
	}
	defer m.genMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model == nil {
		return ErrNoModelLoaded()
	}
	m.log.Info().Str("model", m.cur.ID).Msg("unloading model")
	m.releaseLocked()
	return nil
}

// ClearCache drops all cached context state for the loaded model so the
// next prompt starts from an empty window. Rejected while generating.
func (m *Manager) ClearCache() error {
	if !m.genMu.TryLock() {
		return engine.ErrAlreadyGenerating()
	}
	defer m.genMu.Unlock()

	_, _, ectx := m.handles()
	if ectx == nil {
		return ErrNoModelLoaded()
	}
	return ectx.ClearCache()
}

// Cancel requests a cooperative stop of the running generation, if any.
func (m *Manager) Cancel() bool { return m.engine.Cancel() }

// IsGenerating reports whether a generation session is in flight.
func (m *Manager) IsGenerating() bool { return m.engine.IsGenerating() }

// Ready reports whether the manager can serve a generation immediately,
// i.e. a model is loaded and healthy.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model != nil && !m.model.Closed()
}

// Close cancels any running generation and releases all native handles.
func (m *Manager) Close() error {
	m.engine.Cancel()
	// Wait for the session to observe the flag and release the guard.
	m.genMu.Lock()
	defer m.genMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
	return nil
}
