// Package apperr defines the error kinds surfaced by the playlist, device and video components.
//
// Every error returned by those components wraps exactly one kind sentinel, so callers
// classify with errors.Is or KindOf and never inspect storage errors directly.
package apperr

import (
	"errors"
	"fmt"

	"github.com/stwalsh4118/playcast/internal/db"
)

// Kind classifies an error for callers
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindConflict
	KindInvalidInput
	KindStorageFailure
)

// Kind sentinels
var (
	// ErrNotFound indicates a referenced entity or membership is absent
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the caller does not own the referenced entity
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict indicates a duplicate membership, assignment or unique value
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates malformed or inconsistent arguments
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageFailure indicates an I/O or constraint error not otherwise classified
	ErrStorageFailure = errors.New("storage failure")
)

// ErrNoDevices indicates the user owns no devices to fan out to.
// It is an InvalidInput.
var ErrNoDevices = fmt.Errorf("no devices registered: %w", ErrInvalidInput)

// String returns the wire name of the kind
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindStorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

// NotFoundf returns a NotFound error with a formatted message
func NotFoundf(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

// Unauthorizedf returns an Unauthorized error with a formatted message
func Unauthorizedf(format string, args ...interface{}) error {
	return wrap(ErrUnauthorized, format, args...)
}

// Conflictf returns a Conflict error with a formatted message
func Conflictf(format string, args ...interface{}) error {
	return wrap(ErrConflict, format, args...)
}

// InvalidInputf returns an InvalidInput error with a formatted message
func InvalidInputf(format string, args ...interface{}) error {
	return wrap(ErrInvalidInput, format, args...)
}

func wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// FromStorage classifies an error coming out of the db layer.
// Errors that already carry a kind pass through unchanged.
func FromStorage(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	switch {
	case db.IsDuplicate(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case db.IsNotFound(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
}

// KindOf returns the kind carried by err, or KindUnknown
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrStorageFailure):
		return KindStorageFailure
	default:
		return KindUnknown
	}
}

// PublicMessage returns the text safe to show a caller.
// Storage failures and unclassified errors never leak driver text.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case KindStorageFailure, KindUnknown:
		return "internal storage error"
	default:
		return err.Error()
	}
}
