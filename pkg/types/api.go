package types

// GenerateRequest is the payload accepted by POST /generate.
type GenerateRequest struct {
	// Optional model identifier. If empty, the server default is used.
	// example: tinyllama-q4
	Model string `json:"model,omitempty" example:"tinyllama-q4"`
	// Required prompt text to generate a completion for.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Maximum number of new tokens to generate.
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
	// Sampling temperature (higher = more random). Non-positive values fall
	// back to the engine default.
	// example: 0.7
	Temperature float32 `json:"temperature,omitempty" example:"0.7"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float32 `json:"top_p,omitempty" example:"0.9"`
	// Top-K sampling: limit candidates to top K tokens.
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Repeat penalty applied to recently generated tokens.
	// example: 1.1
	RepeatPenalty float32 `json:"repeat_penalty,omitempty" example:"1.1"`
	// Optional stop sequences. Generation stops when any sequence is matched.
	// example: ["\n\n","END"]
	Stop []string `json:"stop,omitempty" example:"[\"\\n\\n\",\"END\"]"`
	// Random seed for reproducibility; 0 or omitted lets the server choose.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
	// Keep the context's KV cache from the previous turn instead of clearing
	// it (multi-turn continuation on the same conversation).
	// example: false
	KeepCache bool `json:"keep_cache,omitempty" example:"false"`
}

// TokenChunk is one streamed NDJSON line carrying a text fragment.
type TokenChunk struct {
	// Text fragment produced by the model.
	Token string `json:"token"`
}

// GenerateDone is the final NDJSON line of a generation stream.
type GenerateDone struct {
	Done bool `json:"done"`
	// Server-assigned id for this generation.
	// example: 4c3f0a48-6a3e-4a0e-9632-0e6f3a1f0b7e
	ID string `json:"id"`
	// Full generated text (everything streamed so far, concatenated).
	Content string `json:"content"`
	// Why generation ended: stop, length or cancel.
	// example: stop
	FinishReason string `json:"finish_reason"`
	// Number of tokens the prompt occupied.
	// example: 12
	PromptTokens int `json:"prompt_tokens"`
	// Number of text fragments emitted.
	// example: 96
	EmittedTokens int `json:"emitted_tokens"`
	// Wall-clock generation time in milliseconds.
	// example: 1843
	DurationMS int64 `json:"duration_ms"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	Models []Model `json:"models"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall service state (e.g., idle, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Currently loaded model, if any.
	Model *Model `json:"model,omitempty"`
	// Whether a generation session is currently running.
	// example: false
	Generating bool `json:"generating" example:"false"`
	// Context window size of the loaded context (tokens).
	// example: 4096
	ContextWindow int `json:"context_window,omitempty" example:"4096"`
	// Number of KV cache positions currently occupied.
	// example: 812
	ContextUsed int `json:"context_used,omitempty" example:"812"`
	// Total model loads since startup.
	// example: 3
	LoadsTotal uint64 `json:"loads_total" example:"3"`
	// Total generation sessions since startup.
	// example: 41
	GenerationsTotal uint64 `json:"generations_total" example:"41"`
	// Last error observed (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
