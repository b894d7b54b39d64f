package engine

import "testing"

func TestSamplerDefaults(t *testing.T) {
	s := NewSamplerChain(SamplerConfig{})
	if s.topK != DefaultTopK {
		t.Fatalf("expected top-k %d got %d", DefaultTopK, s.topK)
	}
	if s.topP != DefaultTopP {
		t.Fatalf("expected top-p %v got %v", DefaultTopP, s.topP)
	}
	if s.temp != DefaultTemperature {
		t.Fatalf("expected temperature %v got %v", DefaultTemperature, s.temp)
	}
}

func TestSamplerNonPositiveFallbacks(t *testing.T) {
	s := NewSamplerChain(SamplerConfig{TopK: -5, TopP: -0.1, Temperature: 0})
	if s.topK != DefaultTopK || s.topP != DefaultTopP || s.temp != DefaultTemperature {
		t.Fatalf("non-positive values must fall back to defaults: k=%d p=%v t=%v", s.topK, s.topP, s.temp)
	}
	// Out-of-range top-p falls back too.
	s = NewSamplerChain(SamplerConfig{TopP: 1.5})
	if s.topP != DefaultTopP {
		t.Fatalf("top-p > 1 must fall back, got %v", s.topP)
	}
}

// sampleSeq draws n tokens from a fixed logits vector with the given config.
func sampleSeq(cfg SamplerConfig, logits []float32, n int) []Token {
	s := NewSamplerChain(cfg)
	out := make([]Token, n)
	for i := range out {
		l := make([]float32, len(logits))
		copy(l, logits)
		out[i] = s.Sample(l)
	}
	return out
}

func TestSamplerSeedDeterminism(t *testing.T) {
	logits := []float32{0.1, 2.5, 1.0, 0.3, 2.4, 0.9}
	a := sampleSeq(SamplerConfig{Seed: 42}, logits, 16)
	b := sampleSeq(SamplerConfig{Seed: 42}, logits, 16)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestSamplerDefaultEqualsExplicitDefault(t *testing.T) {
	logits := []float32{0.1, 2.5, 1.0, 0.3, 2.4, 0.9}
	zero := sampleSeq(SamplerConfig{Temperature: 0, TopK: -5, Seed: 7}, logits, 16)
	dflt := sampleSeq(SamplerConfig{Temperature: DefaultTemperature, TopK: DefaultTopK, Seed: 7}, logits, 16)
	for i := range zero {
		if zero[i] != dflt[i] {
			t.Fatalf("fallback differs from explicit default at %d: %d vs %d", i, zero[i], dflt[i])
		}
	}
}

func TestSamplerTopKOneIsGreedy(t *testing.T) {
	logits := []float32{0.5, 3.0, 1.0, 2.9}
	s := NewSamplerChain(SamplerConfig{TopK: 1, Seed: 1})
	for i := 0; i < 8; i++ {
		l := make([]float32, len(logits))
		copy(l, logits)
		if got := s.Sample(l); got != 1 {
			t.Fatalf("top-k=1 must pick argmax, got %d", got)
		}
	}
}

func TestSamplerTinyTopPIsGreedy(t *testing.T) {
	logits := []float32{0.5, 3.0, 1.0, 2.9}
	s := NewSamplerChain(SamplerConfig{TopP: 0.0001, Seed: 1})
	for i := 0; i < 8; i++ {
		l := make([]float32, len(logits))
		copy(l, logits)
		if got := s.Sample(l); got != 1 {
			t.Fatalf("tiny top-p must pick argmax, got %d", got)
		}
	}
}

func TestSamplerRepeatPenaltyDampens(t *testing.T) {
	// Token 1 is slightly ahead of token 2; once accepted and penalized it
	// must lose to token 2 under greedy settings.
	logits := []float32{-5, 1.0, 0.9, -5}
	s := NewSamplerChain(SamplerConfig{TopK: 1, RepeatPenalty: 2.0, Seed: 1})
	l := make([]float32, len(logits))
	copy(l, logits)
	first := s.Sample(l)
	if first != 1 {
		t.Fatalf("expected token 1 first, got %d", first)
	}
	s.Accept(first)
	copy(l, logits)
	second := s.Sample(l)
	if second != 2 {
		t.Fatalf("expected penalized resample to pick token 2, got %d", second)
	}
}
