package domain

import "errors"

// Sentinel errors shared across repositories, services and controllers.
// Callers wrap them with fmt.Errorf("...: %w", err) and match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotModified       = errors.New("not modified")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrCapacityExceeded  = errors.New("event is fully booked")
	ErrEventNotOpen      = errors.New("event is not open for registration")
	ErrForbidden         = errors.New("forbidden")
)
