package engine

import (
	"sync"
	"time"
)

// The fake backend tokenizes one rune per token (ids 0..127 are their ASCII
// piece), which makes tokenize/detokenize round-trips exact. Id 128 is the
// end-of-generation marker, id 129 decodes to zero bytes.
const (
	fakeVocabSize = 130
	fakeEOG       = Token(128)
	fakeZeroByte  = Token(129)
)

type fakeBackend struct {
	loadErr error
	last    *fakeModel
}

func (b *fakeBackend) LoadModel(path string, params ModelParams) (NativeModel, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	m := &fakeModel{}
	b.last = m
	return m, nil
}

type fakeModel struct {
	mu            sync.Mutex
	freed         int
	tokErr        error
	tokenizeEmpty bool
	ctxErr        error
	last          *fakeContext

	// script is the sequence of tokens the model "produces"; each Logits
	// call pops the next one. An exhausted script yields end-of-generation.
	script []Token
}

func (m *fakeModel) NewContext(params ContextParams) (NativeContext, error) {
	if m.ctxErr != nil {
		return nil, m.ctxErr
	}
	c := &fakeContext{model: m}
	m.last = c
	return c, nil
}

func (m *fakeModel) Tokenize(text string, addSpecial, parseSpecial bool) ([]Token, error) {
	if m.tokErr != nil {
		return nil, m.tokErr
	}
	if m.tokenizeEmpty {
		return []Token{}, nil
	}
	var out []Token
	for _, r := range text {
		if r < 128 {
			out = append(out, Token(r))
		}
	}
	return out, nil
}

func (m *fakeModel) TokenPiece(t Token) string {
	if t < 0 || t >= 128 {
		return ""
	}
	return string(rune(t))
}

func (m *fakeModel) IsEOG(t Token) bool { return t == fakeEOG }

func (m *fakeModel) NVocab() int { return fakeVocabSize }

func (m *fakeModel) Free() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freed++
}

// nextLogits builds a distribution that makes the sampler chain pick the
// next scripted token with overwhelming probability.
func (m *fakeModel) nextLogits() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := fakeEOG
	if len(m.script) > 0 {
		tok = m.script[0]
		m.script = m.script[1:]
	}
	logits := make([]float32, fakeVocabSize)
	for i := range logits {
		logits[i] = -100
	}
	logits[tok] = 100
	return logits
}

type fakeContext struct {
	model *fakeModel

	mu          sync.Mutex
	freed       int
	decodeCalls int
	decodeErr   error
	// failOnCall makes the Nth Decode (1-based) fail; 0 disables.
	failOnCall  int
	decodeDelay time.Duration
	clears      []int
	// batches records a copy of every decoded batch's rows for assertions.
	batches [][]fakeRow
}

type fakeRow struct {
	tok    Token
	pos    int
	seq    int
	logits bool
}

func (c *fakeContext) Decode(b *Batch) error {
	if c.decodeDelay > 0 {
		time.Sleep(c.decodeDelay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decodeCalls++
	if c.decodeErr != nil {
		return c.decodeErr
	}
	if c.failOnCall > 0 && c.decodeCalls >= c.failOnCall {
		return errStr("injected decode failure")
	}
	rows := make([]fakeRow, b.Len())
	for i := range rows {
		rows[i] = fakeRow{tok: b.Token(i), pos: b.Pos(i), seq: b.Seq(i), logits: b.WantLogits(i)}
	}
	c.batches = append(c.batches, rows)
	return nil
}

func (c *fakeContext) Logits(i int) []float32 { return c.model.nextLogits() }

func (c *fakeContext) ClearCache(seq int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears = append(c.clears, seq)
}

func (c *fakeContext) Free() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freed++
}

func (c *fakeContext) totalDecodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decodeCalls
}

// scriptTokens turns a string into the per-rune token script of fakeModel.
func scriptTokens(s string) []Token {
	var out []Token
	for _, r := range s {
		out = append(out, Token(r))
	}
	return out
}

// newTestHandles loads a model and context over a fresh fake backend.
func newTestHandles(nCtx, nBatch int) (*fakeBackend, *Model, *Context, error) {
	b := &fakeBackend{}
	m, err := LoadModel(b, "/fake/model.gguf", ModelParams{})
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := m.NewContext(ContextParams{NCtx: nCtx, NBatch: nBatch})
	if err != nil {
		return nil, nil, nil, err
	}
	return b, m, c, nil
}
