//go:build !llama

package engine

// This stub is compiled when the 'llama' build tag is NOT set, keeping
// default builds and CI CGO-free. It refuses to load anything rather than
// mocking inference; the real binding lives in backend_llama.go.

type stubBackend struct{}

// NewLlamaBackend returns the native llama.cpp backend when built with the
// 'llama' tag, and a fail-fast stub otherwise.
func NewLlamaBackend() Backend { return stubBackend{} }

func (stubBackend) LoadModel(path string, params ModelParams) (NativeModel, error) {
	return nil, ErrBackendUnavailable("llama support not built (missing 'llama' build tag)")
}
