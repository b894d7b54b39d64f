package manager

import (
	"time"

	"inferd/pkg/types"
)

// Manager states reported by Status.
const (
	StateIdle       = "idle"
	StateReady      = "ready"
	StateGenerating = "generating"
	StateError      = "error"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	generating := m.engine.IsGenerating()

	m.mu.RLock()
	defer m.mu.RUnlock()

	state := StateIdle
	switch {
	case generating:
		state = StateGenerating
	case m.model != nil:
		state = StateReady
	case m.lastErr != "":
		state = StateError
	}

	resp := types.StatusResponse{
		State:            state,
		Generating:       generating,
		LoadsTotal:       m.loads,
		GenerationsTotal: m.generations,
		LastError:        m.lastErr,
		UptimeSeconds:    int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
	}
	if m.cur != nil {
		mdl := *m.cur
		resp.Model = &mdl
	}
	if m.ectx != nil {
		resp.ContextWindow = m.ectx.Window()
		resp.ContextUsed = m.ectx.Used()
	}
	return resp
}
