package engine

import "sync"

const (
	defaultNCtx   = 4096
	defaultNBatch = 512
)

// Context wraps one execution context: it exclusively owns a KV cache and
// the position cursor for its sequence. A Context is bound to exactly one
// Model, which must outlive it. Like Model, Close is idempotent and any use
// after Close returns ErrHandleClosed.
type Context struct {
	mu     sync.Mutex
	nc     NativeContext
	model  *Model
	nCtx   int
	nBatch int
	seq    int
	nPast  int // next KV cache position to write
}

// NewContext allocates a KV cache bound to this model.
func (m *Model) NewContext(params ContextParams) (*Context, error) {
	nm, err := m.handle()
	if err != nil {
		return nil, err
	}
	if params.NCtx <= 0 {
		params.NCtx = defaultNCtx
	}
	if params.NBatch <= 0 {
		params.NBatch = defaultNBatch
	}
	if params.NBatch > params.NCtx {
		params.NBatch = params.NCtx
	}
	nc, err := nm.NewContext(params)
	if err != nil {
		return nil, ErrContext(err)
	}
	return &Context{nc: nc, model: m, nCtx: params.NCtx, nBatch: params.NBatch}, nil
}

// Window returns the maximum number of KV cache positions.
func (c *Context) Window() int { return c.nCtx }

// BatchSize returns the maximum tokens per decode call.
func (c *Context) BatchSize() int { return c.nBatch }

// Seq returns the sequence id this context is currently serving.
func (c *Context) Seq() int { return c.seq }

// Used returns the number of KV cache positions already written.
func (c *Context) Used() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nPast
}

// Decode pushes a batch through the model and advances the position cursor.
// A batch that would overflow the context window is rejected here, before
// any native call, so the failure is a clean DecodeError rather than a
// native-level fault.
func (c *Context) Decode(b *Batch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc == nil {
		return ErrHandleClosed("context")
	}
	if b.Len() == 0 {
		return ErrDecode("empty batch")
	}
	if c.nPast+b.Len() > c.nCtx {
		return ErrDecode("batch would exceed context window")
	}
	if err := c.nc.Decode(b); err != nil {
		return ErrDecode(err.Error())
	}
	c.nPast += b.Len()
	decodeCallsTotal.Inc()
	return nil
}

// Logits returns the next-token distribution for batch row i of the most
// recent Decode, or nil after Close.
func (c *Context) Logits(i int) []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc == nil {
		return nil
	}
	return c.nc.Logits(i)
}

// ClearCache removes all cached state for the current sequence and resets
// the position cursor. It does not deallocate the context: the next prompt
// starts fresh on the same handle.
func (c *Context) ClearCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc == nil {
		return ErrHandleClosed("context")
	}
	c.nc.ClearCache(c.seq)
	c.nPast = 0
	return nil
}

// Closed reports whether the context has been released.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nc == nil
}

// Close releases the context and its KV cache. Idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc == nil {
		return nil
	}
	c.nc.Free()
	c.nc = nil
	return nil
}
