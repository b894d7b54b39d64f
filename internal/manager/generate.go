package manager

import (
	"context"
	"encoding/json"
	"io"

	"github.com/google/uuid"

	"inferd/internal/engine"
	"inferd/pkg/types"
)

// Generate runs one generation session and streams NDJSON to w: one
// {"token":...} line per text fragment, then a single {"done":true,...}
// line. A cancelled session is a normal stream that ends with
// finish_reason "cancel"; transport and engine failures surface as errors
// for the HTTP layer to map.
func (m *Manager) Generate(ctx context.Context, req types.GenerateRequest, w io.Writer, flush func()) error {
	modelID, err := m.resolveModelID(req.Model)
	if err != nil {
		return err
	}

	// Single-flight at the manager: the cache clear below must not race a
	// running session, so admission happens before touching the context.
	if !m.genMu.TryLock() {
		return engine.ErrAlreadyGenerating()
	}
	defer m.genMu.Unlock()

	if err := m.EnsureModel(modelID); err != nil {
		return err
	}
	_, mdl, ectx := m.handles()

	// Each request starts from an empty window unless the caller asks to
	// continue the previous conversation on the cached state.
	if !req.KeepCache {
		if err := ectx.ClearCache(); err != nil {
			return err
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = m.cfg.DefaultMaxTokens
	}

	id := uuid.NewString()
	m.log.Debug().Str("id", id).Str("model", modelID).Int("max_tokens", maxTokens).Msg("generation admitted")

	res, err := m.engine.Generate(ctx, mdl, ectx, engine.Request{
		Prompt:        req.Prompt,
		MaxTokens:     maxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		TopK:          req.TopK,
		RepeatPenalty: req.RepeatPenalty,
		Seed:          req.Seed,
		Stop:          req.Stop,
	}, func(text string) error {
		if _, e := w.Write(tokenLineJSON(text)); e != nil {
			return e
		}
		if flush != nil {
			flush()
		}
		return nil
	})
	m.recordGeneration(err)
	if err != nil {
		return err
	}

	done := types.GenerateDone{
		Done:          true,
		ID:            id,
		Content:       res.Text,
		FinishReason:  res.FinishReason,
		PromptTokens:  res.PromptTokens,
		EmittedTokens: res.EmittedTokens,
		DurationMS:    res.Duration.Milliseconds(),
	}
	b, _ := json.Marshal(done)
	if _, err := w.Write(append(b, '\n')); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}

func (m *Manager) recordGeneration(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations++
	if err != nil {
		m.lastErr = err.Error()
	}
}

// tokenLineJSON formats one streamed token as an NDJSON line.
func tokenLineJSON(tok string) []byte {
	b, _ := json.Marshal(types.TokenChunk{Token: tok})
	return append(b, '\n')
}
