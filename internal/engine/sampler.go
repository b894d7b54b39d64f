package engine

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// Documented sampling defaults. Non-positive caller values fall back to
// these rather than producing degenerate distributions.
const (
	DefaultTopK        = 40
	DefaultTopP        = float32(0.95)
	DefaultTemperature = float32(0.8)

	// repeatWindow is how many recently accepted tokens the repeat penalty
	// looks back over.
	repeatWindow = 64
)

// SamplerConfig parameterizes a sampler chain for one generation request.
type SamplerConfig struct {
	TopK          int
	TopP          float32
	Temperature   float32
	RepeatPenalty float32
	// Seed for the categorical draw; 0 picks a run-specific seed.
	Seed int64
}

// SamplerChain reduces a logits vector to one token id through a fixed
// pipeline: repeat penalty, top-k, top-p, temperature, categorical draw.
// It is stateless across tokens except for the RNG stream it owns and the
// window of recently accepted tokens the repeat penalty consults. Built
// fresh per request; never shared between sessions.
type SamplerChain struct {
	topK    int
	topP    float32
	temp    float32
	penalty float32
	rng     *rand.Rand
	recent  []Token
}

// NewSamplerChain builds a chain, substituting documented defaults for
// non-positive (or, for top-p, out-of-range) values.
func NewSamplerChain(cfg SamplerConfig) *SamplerChain {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		cfg.TopP = DefaultTopP
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &SamplerChain{
		topK:    cfg.TopK,
		topP:    cfg.TopP,
		temp:    cfg.Temperature,
		penalty: cfg.RepeatPenalty,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}
}

// candidate pairs a token id with its (progressively rescaled) logit.
type candidate struct {
	tok   Token
	logit float32
}

// Sample draws the next token from a logits vector.
func (s *SamplerChain) Sample(logits []float32) Token {
	cands := make([]candidate, len(logits))
	for i, l := range logits {
		cands[i] = candidate{tok: Token(i), logit: l}
	}

	if s.penalty > 0 && s.penalty != 1 {
		s.applyRepeatPenalty(cands)
	}

	// Top-k: keep the k highest-logit candidates.
	sort.Slice(cands, func(i, j int) bool { return cands[i].logit > cands[j].logit })
	if s.topK < len(cands) {
		cands = cands[:s.topK]
	}

	// Top-p: keep the smallest prefix whose cumulative probability >= p.
	probs := softmax(cands)
	cum := float32(0)
	cut := len(cands)
	for i, p := range probs {
		cum += p
		if cum >= s.topP {
			cut = i + 1
			break
		}
	}
	cands = cands[:cut]

	// Temperature: rescale surviving logits by 1/temperature.
	for i := range cands {
		cands[i].logit /= s.temp
	}

	// Final categorical draw over the renormalized distribution.
	probs = softmax(cands)
	r := s.rng.Float32()
	cum = 0
	for i, p := range probs {
		cum += p
		if r < cum {
			return cands[i].tok
		}
	}
	return cands[len(cands)-1].tok
}

// Accept records a sampled token so the repeat penalty can see it.
func (s *SamplerChain) Accept(t Token) {
	s.recent = append(s.recent, t)
	if len(s.recent) > repeatWindow {
		s.recent = s.recent[len(s.recent)-repeatWindow:]
	}
}

// applyRepeatPenalty dampens logits of recently accepted tokens: positive
// logits are divided by the penalty, negative ones multiplied, so the push
// is always away from repetition.
func (s *SamplerChain) applyRepeatPenalty(cands []candidate) {
	seen := make(map[Token]struct{}, len(s.recent))
	for _, t := range s.recent {
		seen[t] = struct{}{}
	}
	for i := range cands {
		if _, ok := seen[cands[i].tok]; !ok {
			continue
		}
		if cands[i].logit > 0 {
			cands[i].logit /= s.penalty
		} else {
			cands[i].logit *= s.penalty
		}
	}
}

// softmax converts candidate logits to probabilities, shifted by the max
// logit for numerical stability.
func softmax(cands []candidate) []float32 {
	maxLogit := cands[0].logit
	for _, c := range cands[1:] {
		if c.logit > maxLogit {
			maxLogit = c.logit
		}
	}
	probs := make([]float32, len(cands))
	sum := float32(0)
	for i, c := range cands {
		probs[i] = float32(math.Exp(float64(c.logit - maxLogit)))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
