package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Config carries the engine's construction parameters.
type Config struct {
	// Logger used for session state transitions and failures.
	Logger zerolog.Logger
	// StreamBuffer is the token channel capacity used by GenerateStream.
	// <=0 uses the default.
	StreamBuffer int
}

const defaultStreamBuffer = 256

// Engine runs generation sessions one at a time. It owns the session guard;
// a second Generate while one is running is rejected synchronously with
// ErrAlreadyGenerating, never queued.
type Engine struct {
	guard     *Guard
	log       zerolog.Logger
	streamBuf int
}

// New constructs an engine with its own guard.
func New(cfg Config) *Engine {
	buf := cfg.StreamBuffer
	if buf <= 0 {
		buf = defaultStreamBuffer
	}
	return &Engine{
		guard:     NewGuard(),
		log:       cfg.Logger,
		streamBuf: buf,
	}
}

// Generate runs one full session against the given model and context,
// streaming text fragments to onToken (which may be nil). The Result is
// meaningful even on error: partial output is preserved. Cancellation is
// not an error; it yields State==StateCancelled and a nil error.
func (e *Engine) Generate(ctx context.Context, m *Model, c *Context, req Request, onToken func(string) error) (Result, error) {
	if err := e.guard.Begin(); err != nil {
		guardRejections.Inc()
		return Result{State: StateIdle}, err
	}
	defer e.guard.End()

	generating.Set(1)
	defer generating.Set(0)

	start := time.Now()
	s := newSession(m, c, e.guard, req, e.log)
	res, err := s.run(ctx, onToken)

	generationsTotal.WithLabelValues(string(res.State)).Inc()
	tokensEmittedTotal.Add(float64(res.EmittedTokens))
	generationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		e.log.Error().Err(err).Str("state", string(res.State)).Msg("generation ended")
	} else {
		e.log.Info().
			Str("state", string(res.State)).
			Str("finish_reason", res.FinishReason).
			Int("prompt_tokens", res.PromptTokens).
			Int("emitted_tokens", res.EmittedTokens).
			Dur("dur", res.Duration).
			Msg("generation ended")
	}
	return res, err
}

// Cancel requests a cooperative stop of the running session, if any.
// Returns whether one was running.
func (e *Engine) Cancel() bool { return e.guard.Cancel() }

// IsGenerating reports whether a session currently holds the guard.
func (e *Engine) IsGenerating() bool { return e.guard.Busy() }
