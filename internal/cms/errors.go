package cms

import (
	"archsite/internal/content"
	"archsite/internal/storage"
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable marks failures of the relational store that are
	// worth retrying later. Nothing in this package retries on its own.
	ErrStoreUnavailable = errors.New("content store unavailable")
)

// ValidationError carries one message per invalid field. No side effect has
// happened when it is returned.
type ValidationError struct {
	Fields content.FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

// UploadError means a file could not be stored. The record was not written.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ConflictError reports a unique field already used by another record of the
// same kind.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q is already taken", e.Field, e.Value)
}

// FieldErrors renders the conflict like a validation failure so forms can
// show it next to the input.
func (e *ConflictError) FieldErrors() content.FieldErrors {
	return content.FieldErrors{e.Field: "is already taken"}
}

// classify maps store errors to the package taxonomy. slug is reported on
// unique violations.
func classify(err error, slug string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrUniqueViolation):
		return &ConflictError{Field: "slug", Value: slug}
	case errors.Is(err, storage.ErrCheckViolation):
		return &ValidationError{Fields: content.FieldErrors{"record": "was rejected by the store"}}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
