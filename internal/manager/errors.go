package manager

import "errors"

// modelNotFoundError signals that the requested model id is not present in
// the registry (or that no model was specified and no default is configured).
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound constructs a modelNotFoundError for the given id.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether err indicates an unknown model id.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// noModelLoadedError signals an operation that needs loaded weights while
// the manager is empty.
type noModelLoadedError struct{}

func (noModelLoadedError) Error() string { return "no model loaded" }

// ErrNoModelLoaded constructs a noModelLoadedError.
func ErrNoModelLoaded() error { return noModelLoadedError{} }

// IsNoModelLoaded reports whether err indicates the manager has no model.
func IsNoModelLoaded(err error) bool {
	var e noModelLoadedError
	return errors.As(err, &e)
}
