package httpapi

import (
	"encoding/json"
	"net/http"

	"inferd/internal/engine"
	"inferd/internal/manager"
	"inferd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusForError maps well-known manager and engine errors to HTTP status
// codes. Unrecognized errors are internal server errors.
func statusForError(err error) int {
	switch {
	case manager.IsModelNotFound(err):
		return http.StatusNotFound
	case engine.IsAlreadyGenerating(err), manager.IsNoModelLoaded(err):
		return http.StatusConflict
	case engine.IsEmptyPrompt(err), engine.IsPromptTooLong(err):
		return http.StatusBadRequest
	case engine.IsBackendUnavailable(err):
		return http.StatusServiceUnavailable
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeMappedError translates err into a JSON error response, counting
// busy rejections as backpressure.
func writeMappedError(w http.ResponseWriter, err error) int {
	status := statusForError(err)
	if engine.IsAlreadyGenerating(err) {
		IncrementBackpressure("busy")
	}
	writeJSONError(w, status, err.Error())
	return status
}
