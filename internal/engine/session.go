package engine

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SessionState is the lifecycle position of one generation session.
type SessionState string

const (
	StateIdle          SessionState = "idle"
	StateTokenizing    SessionState = "tokenizing"
	StatePrimingPrompt SessionState = "priming_prompt"
	StateSampling      SessionState = "sampling"
	StateCompleted     SessionState = "completed"
	StateCancelled     SessionState = "cancelled"
	StateFailed        SessionState = "failed"
)

// Finish reasons reported in Result.FinishReason.
const (
	FinishStop   = "stop"   // end-of-generation token or stop sequence
	FinishLength = "length" // max tokens reached or context window full
	FinishCancel = "cancel" // cooperative cancellation observed
)

// Request is the immutable value object driving one generation session.
type Request struct {
	Prompt        string
	MaxTokens     int
	Temperature   float32
	TopP          float32
	TopK          int
	RepeatPenalty float32
	Seed          int64
	Stop          []string
}

// Result summarizes a session after it reaches a terminal state. Text holds
// everything emitted to the sink, including the partial output of a failed
// or cancelled session.
type Result struct {
	Text          string
	State         SessionState
	FinishReason  string
	PromptTokens  int
	EmittedTokens int
	Duration      time.Duration
}

// session is the transient state machine driving one generation:
// tokenize prompt, prime the KV cache in batch-sized chunks, then loop
// sample/emit/decode until a stop condition or cancellation. It exists only
// between start and a terminal state; it is never reused.
type session struct {
	model *Model
	ectx  *Context
	guard *Guard
	req   Request
	log   zerolog.Logger

	state   SessionState
	batch   *Batch
	sampler *SamplerChain
	nCur    int // next KV cache position to write
	out     strings.Builder
	pending string // text held back while it may still complete a stop sequence
	emitted int
}

func newSession(m *Model, c *Context, g *Guard, req Request, log zerolog.Logger) *session {
	if req.MaxTokens < 0 {
		req.MaxTokens = 0
	}
	return &session{
		model: m,
		ectx:  c,
		guard: g,
		req:   req,
		log:   log,
		state: StateIdle,
	}
}

func (s *session) setState(st SessionState) {
	s.log.Debug().Str("from", string(s.state)).Str("to", string(st)).Msg("session state")
	s.state = st
}

// cancelled merges the guard's cooperative flag with Go context
// cancellation. Polled once per generated token at the loop top.
func (s *session) cancelled(ctx context.Context) bool {
	return s.guard.Cancelled() || ctx.Err() != nil
}

// run drives the session to a terminal state. The returned Result is valid
// even when err != nil: partial output is preserved, never discarded.
func (s *session) run(ctx context.Context, onToken func(string) error) (Result, error) {
	start := time.Now()

	res, err := s.drive(ctx, onToken)

	// Terminal cleanup on every exit path: the sampler chain is released
	// here; the model and context handles outlive the session.
	s.sampler = nil
	res.Text = s.out.String()
	res.EmittedTokens = s.emitted
	res.State = s.state
	res.Duration = time.Since(start)
	return res, err
}

func (s *session) drive(ctx context.Context, onToken func(string) error) (Result, error) {
	var res Result

	// Idle -> Tokenizing. Validate handles and prompt before any native call.
	if s.model == nil || s.model.Closed() {
		s.setState(StateFailed)
		return res, ErrHandleClosed("model")
	}
	if s.ectx == nil || s.ectx.Closed() {
		s.setState(StateFailed)
		return res, ErrHandleClosed("context")
	}
	if strings.TrimSpace(s.req.Prompt) == "" {
		s.setState(StateFailed)
		return res, ErrEmptyPrompt()
	}
	s.setState(StateTokenizing)

	// BOS and friends only at the start of a fresh sequence; a continued
	// conversation already carries them in the cache.
	addSpecial := s.ectx.Used() == 0
	toks, err := s.model.Tokenize(s.req.Prompt, addSpecial, true)
	if err != nil {
		s.setState(StateFailed)
		return res, err
	}
	if len(toks) == 0 {
		s.setState(StateFailed)
		return res, ErrTokenization("prompt produced no tokens")
	}
	res.PromptTokens = len(toks)

	// Reject an oversized prompt before any decode so the KV cache is left
	// untouched and the context remains usable for the next request.
	window := s.ectx.Window()
	if s.ectx.Used()+len(toks) >= window {
		s.setState(StateFailed)
		return res, ErrPromptTooLong(s.ectx.Used()+len(toks), window)
	}

	// Tokenizing -> PrimingPrompt.
	s.setState(StatePrimingPrompt)
	s.batch = NewBatch(s.ectx.BatchSize())
	s.sampler = NewSamplerChain(SamplerConfig{
		TopK:          s.req.TopK,
		TopP:          s.req.TopP,
		Temperature:   s.req.Temperature,
		RepeatPenalty: s.req.RepeatPenalty,
		Seed:          s.req.Seed,
	})
	s.nCur = s.ectx.Used()
	seq := s.ectx.Seq()

	// Push the prompt through in chunks no larger than the batch capacity.
	// Only the very last token of the very last chunk requests logits;
	// interior distributions would be computed and thrown away.
	for off := 0; off < len(toks); off += s.batch.Capacity() {
		end := off + s.batch.Capacity()
		if end > len(toks) {
			end = len(toks)
		}
		s.batch.Clear()
		for i, t := range toks[off:end] {
			wantLogits := off+i == len(toks)-1
			if err := s.batch.Add(t, s.nCur, seq, wantLogits); err != nil {
				s.setState(StateFailed)
				return res, err
			}
			s.nCur++
		}
		if err := s.ectx.Decode(s.batch); err != nil {
			s.setState(StateFailed)
			return res, err
		}
	}
	logitsRow := s.batch.LogitsRow()

	// PrimingPrompt -> Sampling.
	s.setState(StateSampling)
	for {
		// Cancellation is checked before anything else so a stop request
		// never costs more than one decode call and emits nothing further.
		if s.cancelled(ctx) {
			s.setState(StateCancelled)
			res.FinishReason = FinishCancel
			return res, nil
		}
		if s.emitted >= s.req.MaxTokens {
			return s.complete(&res, onToken, FinishLength)
		}

		logits := s.ectx.Logits(logitsRow)
		if len(logits) == 0 {
			s.setState(StateFailed)
			return res, ErrDecode("no logits available for sampled row")
		}
		tok := s.sampler.Sample(logits)
		s.sampler.Accept(tok)

		if s.model.IsEOG(tok) {
			return s.complete(&res, onToken, FinishStop)
		}

		piece := s.model.TokenPiece(tok)
		if piece != "" {
			s.pending += piece
			if stop, ok := findStop(s.pending, s.req.Stop); ok {
				keep := truncateStop(s.pending, stop)
				s.pending = ""
				if keep != "" {
					if err := s.emit(onToken, keep); err != nil {
						return s.abortEmit(&res, ctx, err)
					}
				}
				s.setState(StateCompleted)
				res.FinishReason = FinishStop
				return res, nil
			}
			if !containsStopSuffix(s.pending, s.req.Stop) {
				text := s.pending
				s.pending = ""
				if err := s.emit(onToken, text); err != nil {
					return s.abortEmit(&res, ctx, err)
				}
			}
			s.emitted++
		}

		// The window is full: stop cleanly instead of decoding past it.
		// Truncation, not an error.
		if s.nCur >= window {
			return s.complete(&res, onToken, FinishLength)
		}

		s.batch.Clear()
		if err := s.batch.Add(tok, s.nCur, seq, true); err != nil {
			s.setState(StateFailed)
			return res, err
		}
		s.nCur++
		if err := s.ectx.Decode(s.batch); err != nil {
			s.setState(StateFailed)
			return res, err
		}
		logitsRow = 0
	}
}

// complete flushes any held-back text and lands in Completed. Held-back
// text is only flushed here: a cancelled or failed session emits nothing
// beyond what the sink already saw.
func (s *session) complete(res *Result, onToken func(string) error, reason string) (Result, error) {
	if s.pending != "" {
		text := s.pending
		s.pending = ""
		if err := s.emit(onToken, text); err != nil {
			s.setState(StateFailed)
			return *res, err
		}
	}
	s.setState(StateCompleted)
	res.FinishReason = reason
	return *res, nil
}

// emit appends text to the output buffer and pushes it to the sink. The
// sink call is synchronous from the session's point of view; a sink error
// aborts the session with the output so far preserved.
func (s *session) emit(onToken func(string) error, text string) error {
	s.out.WriteString(text)
	if onToken == nil {
		return nil
	}
	return onToken(text)
}

// abortEmit classifies a sink error: when it was caused by cancellation the
// session lands in Cancelled (not an error), otherwise the session fails
// with the output so far preserved.
func (s *session) abortEmit(res *Result, ctx context.Context, err error) (Result, error) {
	if s.cancelled(ctx) {
		s.setState(StateCancelled)
		res.FinishReason = FinishCancel
		return *res, nil
	}
	s.setState(StateFailed)
	return *res, err
}
