package manager

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"inferd/internal/engine"
	"inferd/pkg/types"
)

// The fake backend mirrors the engine's test vocabulary: one rune per
// token, ids 0..127 mapping to their ASCII piece, end-of-generation once
// the scripted output runs out.
const fakeVocab = 130

type fakeBackend struct {
	loadErr error
	models  []*fakeModel

	// script installed on the next loaded model.
	script []engine.Token
}

func (b *fakeBackend) LoadModel(path string, params engine.ModelParams) (engine.NativeModel, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	m := &fakeModel{path: path, script: b.script}
	b.models = append(b.models, m)
	return m, nil
}

type fakeModel struct {
	mu     sync.Mutex
	path   string
	freed  int
	script []engine.Token
	last   *fakeContext
}

func (m *fakeModel) NewContext(params engine.ContextParams) (engine.NativeContext, error) {
	c := &fakeContext{model: m}
	m.last = c
	return c, nil
}

func (m *fakeModel) Tokenize(text string, addSpecial, parseSpecial bool) ([]engine.Token, error) {
	var out []engine.Token
	for _, r := range text {
		if r < 128 {
			out = append(out, engine.Token(r))
		}
	}
	return out, nil
}

func (m *fakeModel) TokenPiece(t engine.Token) string {
	if t < 0 || t >= 128 {
		return ""
	}
	return string(rune(t))
}

func (m *fakeModel) IsEOG(t engine.Token) bool { return t == engine.Token(128) }

func (m *fakeModel) NVocab() int { return fakeVocab }

func (m *fakeModel) Free() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freed++
}

func (m *fakeModel) nextLogits() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := engine.Token(128)
	if len(m.script) > 0 {
		tok = m.script[0]
		m.script = m.script[1:]
	}
	logits := make([]float32, fakeVocab)
	for i := range logits {
		logits[i] = -100
	}
	logits[tok] = 100
	return logits
}

type fakeContext struct {
	model *fakeModel

	mu     sync.Mutex
	freed  int
	clears int
}

func (c *fakeContext) Decode(b *engine.Batch) error { return nil }

func (c *fakeContext) Logits(i int) []float32 { return c.model.nextLogits() }

func (c *fakeContext) ClearCache(seq int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
}

func (c *fakeContext) Free() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freed++
}

func (c *fakeContext) clearCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

func scriptTokens(s string) []engine.Token {
	var out []engine.Token
	for _, r := range s {
		out = append(out, engine.Token(r))
	}
	return out
}

var testRegistry = []types.Model{
	{ID: "tiny.gguf", Name: "tiny.gguf", Path: "/models/tiny.gguf"},
	{ID: "big.gguf", Name: "big.gguf", Path: "/models/big.gguf"},
}

// newTestManager builds a manager over a fake backend whose next loaded
// model will produce the scripted output.
func newTestManager(t *testing.T, script string, mutate func(*Config)) (*Manager, *fakeBackend) {
	t.Helper()
	b := &fakeBackend{script: scriptTokens(script)}
	cfg := Config{
		Registry:     testRegistry,
		DefaultModel: "tiny.gguf",
		CtxSize:      256,
		BatchSize:    32,
		Logger:       zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewWithConfig(b, cfg), b
}
