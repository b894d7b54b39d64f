package engine

import (
	"errors"
	"fmt"
)

// loadError signals that model weights could not be loaded. Fatal to the
// handle; not retried by the engine.
type loadError struct {
	path string
	err  error
}

func (e loadError) Error() string { return fmt.Sprintf("load model %s: %v", e.path, e.err) }
func (e loadError) Unwrap() error { return e.err }

// ErrLoad constructs a loadError for the given model path.
func ErrLoad(path string, err error) error { return loadError{path: path, err: err} }

// IsLoadError reports whether err indicates a failed model load.
func IsLoadError(err error) bool {
	var e loadError
	return errors.As(err, &e)
}

// contextError signals that an execution context could not be created.
type contextError struct{ err error }

func (e contextError) Error() string { return "create context: " + e.err.Error() }
func (e contextError) Unwrap() error { return e.err }

// ErrContext constructs a contextError.
func ErrContext(err error) error { return contextError{err: err} }

// IsContextError reports whether err indicates a failed context creation.
func IsContextError(err error) bool {
	var e contextError
	return errors.As(err, &e)
}

// emptyPromptError is returned before any native call when the prompt is blank.
type emptyPromptError struct{}

func (emptyPromptError) Error() string { return "prompt is empty" }

// ErrEmptyPrompt constructs an emptyPromptError.
func ErrEmptyPrompt() error { return emptyPromptError{} }

// IsEmptyPrompt reports whether err indicates a blank prompt.
func IsEmptyPrompt(err error) bool {
	var e emptyPromptError
	return errors.As(err, &e)
}

// promptTooLongError is returned before any decode call when the tokenized
// prompt cannot fit in the context window.
type promptTooLongError struct {
	tokens int
	window int
}

func (e promptTooLongError) Error() string {
	return fmt.Sprintf("prompt is %d tokens but context window is %d", e.tokens, e.window)
}

// ErrPromptTooLong constructs a promptTooLongError.
func ErrPromptTooLong(tokens, window int) error {
	return promptTooLongError{tokens: tokens, window: window}
}

// IsPromptTooLong reports whether err indicates an oversized prompt.
func IsPromptTooLong(err error) bool {
	var e promptTooLongError
	return errors.As(err, &e)
}

// tokenizationError signals that the vocabulary rejected the input.
type tokenizationError struct{ msg string }

func (e tokenizationError) Error() string { return "tokenize: " + e.msg }

// ErrTokenization constructs a tokenizationError.
func ErrTokenization(msg string) error { return tokenizationError{msg: msg} }

// IsTokenizationError reports whether err came from the tokenizer adapter.
func IsTokenizationError(err error) bool {
	var e tokenizationError
	return errors.As(err, &e)
}

// decodeError signals a non-retryable failure pushing a batch through the
// model. Partial output generated before the failure is preserved.
type decodeError struct{ msg string }

func (e decodeError) Error() string { return "decode: " + e.msg }

// ErrDecode constructs a decodeError.
func ErrDecode(msg string) error { return decodeError{msg: msg} }

// IsDecodeError reports whether err came from a failed decode call.
func IsDecodeError(err error) bool {
	var e decodeError
	return errors.As(err, &e)
}

// alreadyGeneratingError signals that the session guard rejected a second
// concurrent generation. Expected under misuse; callers should back off.
type alreadyGeneratingError struct{}

func (alreadyGeneratingError) Error() string { return "a generation is already running" }

// ErrAlreadyGenerating constructs an alreadyGeneratingError.
func ErrAlreadyGenerating() error { return alreadyGeneratingError{} }

// IsAlreadyGenerating reports whether err is a guard rejection.
func IsAlreadyGenerating(err error) bool {
	var e alreadyGeneratingError
	return errors.As(err, &e)
}

// handleClosedError signals use of a model or context handle after Close.
type handleClosedError struct{ what string }

func (e handleClosedError) Error() string { return e.what + " handle is closed" }

// ErrHandleClosed constructs a handleClosedError for the named handle kind.
func ErrHandleClosed(what string) error { return handleClosedError{what: what} }

// IsHandleClosed reports whether err indicates use-after-free of a handle.
func IsHandleClosed(err error) bool {
	var e handleClosedError
	return errors.As(err, &e)
}

// capacityExceededError signals a Batch.Add beyond the configured maximum.
// This is a programmer error: the caller must flush or Clear first.
type capacityExceededError struct{ capacity int }

func (e capacityExceededError) Error() string {
	return fmt.Sprintf("batch capacity %d exceeded", e.capacity)
}

// ErrCapacityExceeded constructs a capacityExceededError.
func ErrCapacityExceeded(capacity int) error { return capacityExceededError{capacity: capacity} }

// IsCapacityExceeded reports whether err indicates batch overflow.
func IsCapacityExceeded(err error) bool {
	var e capacityExceededError
	return errors.As(err, &e)
}

// backendUnavailableError signals that no native runtime is compiled in or
// that it failed to initialize, so the HTTP layer can return 503.
type backendUnavailableError struct{ msg string }

func (e backendUnavailableError) Error() string { return e.msg }

// ErrBackendUnavailable constructs a backendUnavailableError.
func ErrBackendUnavailable(msg string) error { return backendUnavailableError{msg: msg} }

// IsBackendUnavailable reports whether err indicates a missing native runtime.
func IsBackendUnavailable(err error) bool {
	var e backendUnavailableError
	return errors.As(err, &e)
}
