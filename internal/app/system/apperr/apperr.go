// Package apperr defines the error kinds the API reports to callers.
//
// Stores and the ledger return errors that wrap one of the sentinel kinds
// below; the HTTP layer classifies them with errors.Is and picks a status.
// Anything that wraps none of the kinds is treated as a storage failure
// and is never shown to the caller verbatim.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
)

// Error pairs a kind with a message that is safe to return to the caller.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Validation reports missing or malformed input.
func Validation(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }

// NotFound reports a referenced entity that does not exist.
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }

// Unauthenticated reports a missing, malformed or expired credential.
func Unauthenticated(msg string) error { return &Error{Kind: ErrUnauthenticated, Msg: msg} }

// Forbidden reports a valid credential that lacks the required role.
func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }

// Conflict reports a uniqueness violation such as a taken username.
func Conflict(msg string) error { return &Error{Kind: ErrConflict, Msg: msg} }

// Status maps err onto an HTTP status code.
// Duplicates are reported as 400 to match the registration contract.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing text for err.
// Storage failures get fallback so internal detail never leaks.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	if Status(err) < http.StatusInternalServerError && err != nil {
		return err.Error()
	}
	return fallback
}

// IsClient reports whether err is one of the caller-facing kinds.
func IsClient(err error) bool {
	return err != nil && Status(err) < http.StatusInternalServerError
}
