package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventbooking/internal/domain"
)

// errorMapping pairs a domain sentinel with its HTTP status and error code.
type errorMapping struct {
	err    error
	status int
	code   string
}

// Checked in order; the first sentinel matched with errors.Is wins.
var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, ErrCodeBadRequest},
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrNotModified, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrConflict, http.StatusConflict, ErrCodeConflict},
	{domain.ErrInvalidTransition, http.StatusConflict, ErrCodeInvalidTransition},
	{domain.ErrAlreadyRegistered, http.StatusBadRequest, ErrCodeAlreadyRegistered},
	{domain.ErrCapacityExceeded, http.StatusBadRequest, ErrCodeCapacityExceeded},
	{domain.ErrEventNotOpen, http.StatusBadRequest, ErrCodeEventNotOpen},
	{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
}

// StatusForError returns the HTTP status and error code for err.
// Unknown errors map to 500 internal_error.
func StatusForError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteServiceError writes err as a JSON error response. Internal errors are
// logged with the request path and method, and their message is not exposed.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusForError(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, status, code, "internal server error")
		return
	}
	WriteJSONError(w, status, code, err.Error())
}
