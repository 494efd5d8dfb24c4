package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound marks a referenced pipeline/stage/contact/form type that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation, e.g. a second active pipeline for a form type.
	ErrConflict = errors.New("conflict")
	// ErrValidation marks invalid input: missing required field, out-of-range order value.
	ErrValidation = errors.New("validation failed")
	// ErrStore marks a failed call against the underlying record store.
	ErrStore = errors.New("store error")
)

func NotFound(resource string, id any) error {
	return fmt.Errorf("%s %v: %w", resource, id, ErrNotFound)
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func Store(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrStore)
}

// HTTPStatus maps the taxonomy onto response codes for the handler layer.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the short machine-readable code used in error envelopes.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrStore):
		return "store"
	default:
		return "internal"
	}
}
