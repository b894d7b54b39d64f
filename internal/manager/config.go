package manager

import (
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/engine"
	"inferd/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxTokens = 256
	defaultCtxSize   = 4096
	defaultBatchSize = 512
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	Registry     []types.Model
	DefaultModel string

	// Context allocation parameters applied to every loaded model.
	CtxSize   int
	BatchSize int
	Threads   int

	// Model load parameters.
	GPULayers int
	UseMMap   bool
	UseMLock  bool

	// MaxTokens applied when a request omits the field.
	DefaultMaxTokens int

	// Token channel capacity for streamed generations.
	StreamBuffer int

	Logger zerolog.Logger
}

// NewWithConfig constructs a Manager from Config, applying defaults for
// unset fields. The backend is injected so tests can run without native
// llama support.
func NewWithConfig(backend engine.Backend, cfg Config) *Manager {
	if cfg.DefaultMaxTokens <= 0 {
		cfg.DefaultMaxTokens = defaultMaxTokens
	}
	if cfg.CtxSize <= 0 {
		cfg.CtxSize = defaultCtxSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Manager{
		backend: backend,
		cfg:     cfg,
		log:     cfg.Logger,
		engine: engine.New(engine.Config{
			Logger:       cfg.Logger,
			StreamBuffer: cfg.StreamBuffer,
		}),
		startTime: time.Now(),
	}
}
