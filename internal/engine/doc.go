// Package engine drives token-by-token text generation against a natively
// executed causal language model. It owns the model/context handle wrappers,
// the batch builder, the sampler chain, the generation session state machine
// and the session guard that admits at most one generation at a time.
//
// The native runtime is consumed through the Backend interfaces; the real
// llama.cpp binding is compiled in with the 'llama' build tag, default builds
// get a stub that fails fast.
package engine
