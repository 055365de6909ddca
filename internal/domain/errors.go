package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// trip does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing origin, empty join token).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a trip id is already taken.
var ErrConflict = errors.New("conflict")

// ErrRemoteUnavailable is returned when trip creation needed the remote
// service and the remote call failed. Handlers map it to HTTP 502.
var ErrRemoteUnavailable = errors.New("remote service unavailable")

// ErrRemoteDisabled is the failure reason reported when no remote endpoint
// is configured.
var ErrRemoteDisabled = errors.New("remote service disabled")
