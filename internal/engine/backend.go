package engine

// Token is an integer id in the bound model's vocabulary.
type Token int32

// ModelParams carries the load-time parameters for model weights.
type ModelParams struct {
	// Threads used for generation decode. <=0 lets the backend pick.
	Threads int
	// GPULayers is the number of layers offloaded to an accelerator.
	GPULayers int
	// UseMMap memory-maps the weights instead of reading them.
	UseMMap bool
	// UseMLock pins the weights in RAM.
	UseMLock bool
}

// ContextParams sizes a fresh execution context.
type ContextParams struct {
	// NCtx is the context window: the maximum number of KV cache positions.
	NCtx int
	// NBatch is the maximum number of tokens per decode call.
	NBatch int
	// Threads used by this context's decode calls. <=0 lets the backend pick.
	Threads int
}

// Backend is the opaque native model runtime. The engine treats it as a
// capability: load weights, create contexts, tokenize, decode batches,
// read logits, convert tokens to text, clear cache. Numerics stay inside.
type Backend interface {
	// LoadModel loads weights from path. I/O bound; may block for seconds.
	LoadModel(path string, params ModelParams) (NativeModel, error)
}

// NativeModel is a loaded set of weights owned by the caller until freed.
type NativeModel interface {
	// NewContext allocates a KV cache bound to this model.
	NewContext(params ContextParams) (NativeContext, error)
	// Tokenize converts UTF-8 text to token ids. Implementations retry once
	// with a grown buffer when the first pass reports a larger true count.
	Tokenize(text string, addSpecial, parseSpecial bool) ([]Token, error)
	// TokenPiece converts one token to its UTF-8 fragment. An empty string
	// is a valid result (the token carries no bytes), not an error.
	TokenPiece(t Token) string
	// IsEOG reports whether t is an end-of-generation marker.
	IsEOG(t Token) bool
	// NVocab returns the vocabulary size.
	NVocab() int
	// Free releases the weights. Must be idempotent.
	Free()
}

// NativeContext owns one KV cache and accepts batches of tokens to decode.
type NativeContext interface {
	// Decode pushes a batch through the model, caching KV state for every
	// entry and producing logits for entries that requested them.
	Decode(b *Batch) error
	// Logits returns the next-token distribution for batch row i of the
	// most recent Decode. Valid only for rows that requested logits.
	Logits(i int) []float32
	// ClearCache removes all cached state for the given sequence id.
	ClearCache(seq int)
	// Free releases the context. Must be idempotent.
	Free()
}
