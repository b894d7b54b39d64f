package engine

import (
	"strings"
	"sync"
)

// Model owns loaded weights. The raw native handle is never exposed; Close
// is the single release path and is idempotent. Any method called after
// Close returns ErrHandleClosed instead of touching freed native state.
type Model struct {
	mu     sync.Mutex
	nm     NativeModel
	path   string
	params ModelParams
}

// LoadModel loads weights from path through the backend. Blocks for the
// duration of the load; callers should keep it off latency-sensitive paths.
func LoadModel(b Backend, path string, params ModelParams) (*Model, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrLoad(path, errStr("model path is empty"))
	}
	nm, err := b.LoadModel(path, params)
	if err != nil {
		if IsBackendUnavailable(err) {
			return nil, err
		}
		return nil, ErrLoad(path, err)
	}
	return &Model{nm: nm, path: path, params: params}, nil
}

// Path returns the file the weights were loaded from.
func (m *Model) Path() string { return m.path }

// handle returns the native model or an error after Close.
func (m *Model) handle() (NativeModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nm == nil {
		return nil, ErrHandleClosed("model")
	}
	return m.nm, nil
}

// Tokenize converts text into token ids using the bound vocabulary.
func (m *Model) Tokenize(text string, addSpecial, parseSpecial bool) ([]Token, error) {
	nm, err := m.handle()
	if err != nil {
		return nil, err
	}
	toks, err := nm.Tokenize(text, addSpecial, parseSpecial)
	if err != nil {
		return nil, ErrTokenization(err.Error())
	}
	return toks, nil
}

// TokenPiece converts one token to its UTF-8 fragment. Returns "" both for
// tokens that carry no bytes and after Close (the session checks the handle
// up front, so the closed case never silently drops mid-generation text).
func (m *Model) TokenPiece(t Token) string {
	nm, err := m.handle()
	if err != nil {
		return ""
	}
	return nm.TokenPiece(t)
}

// Detokenize concatenates the UTF-8 fragments of ids. Tokens that decode to
// zero bytes are skipped.
func (m *Model) Detokenize(ids []Token) (string, error) {
	nm, err := m.handle()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, t := range ids {
		sb.WriteString(nm.TokenPiece(t))
	}
	return sb.String(), nil
}

// IsEOG reports whether t is an end-of-generation marker.
func (m *Model) IsEOG(t Token) bool {
	nm, err := m.handle()
	if err != nil {
		return false
	}
	return nm.IsEOG(t)
}

// Closed reports whether the weights have been released.
func (m *Model) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nm == nil
}

// Close releases the weights. Safe to call more than once; the second and
// later calls are no-ops. The model must outlive all contexts bound to it.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nm == nil {
		return nil
	}
	m.nm.Free()
	m.nm = nil
	return nil
}

// errStr is a tiny constant-string error used where no wrapped cause exists.
type errStr string

func (e errStr) Error() string { return string(e) }
