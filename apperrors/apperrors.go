// Package apperrors defines the typed error kinds surfaced by the case lifecycle core.
// Errors are marked with one of the sentinel kinds so callers can test them with errors.Is
// no matter how many times they were wrapped on the way up.
package apperrors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel kinds
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("conflict")
	ErrAccessDenied     = errors.New("access denied")
	ErrValidationFailed = errors.New("validation failed")
)

// NotFoundf returns an error marked as ErrNotFound
func NotFoundf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

// InvalidStatef returns an error marked as ErrInvalidState
func InvalidStatef(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidState)
}

// Conflictf returns an error marked as ErrConflict
func Conflictf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrConflict)
}

// AccessDeniedf returns an error marked as ErrAccessDenied
func AccessDeniedf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrAccessDenied)
}

// ValidationError carries per-field messages, keyed by the json field name
type ValidationError struct {
	Fields map[string][]string
}

func (v *ValidationError) Error() string {
	return "validation failed"
}

// Validation returns an error marked as ErrValidationFailed carrying the field messages
func Validation(fields map[string][]string) error {
	return errors.Mark(&ValidationError{Fields: fields}, ErrValidationFailed)
}

// Validationf returns a single-field validation error
func Validationf(field, format string, args ...interface{}) error {
	return Validation(map[string][]string{field: {errors.Newf(format, args...).Error()}})
}

// Fields extracts the per-field messages of a validation error, if any
func Fields(err error) map[string][]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// Kind returns the name of the typed kind of err, or "Internal"
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidState):
		return "InvalidState"
	case errors.Is(err, ErrConflict):
		return "Conflict"
	case errors.Is(err, ErrAccessDenied):
		return "AccessDenied"
	case errors.Is(err, ErrValidationFailed):
		return "ValidationFailed"
	}
	return "Internal"
}

// HTTPStatus maps err onto the status code the http layer responds with
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrValidationFailed):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
