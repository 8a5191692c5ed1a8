package model

import (
	"errors"
	"fmt"
	"time"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ValidationError reports malformed or missing input to a store operation.
type ValidationError struct {
	Op     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: invalid fields: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: invalid field %q: %s", e.Op, e.Field, e.Reason)
}

// NotFoundError reports an operation on an id with no stored record.
type NotFoundError struct {
	Op string
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: record %s not found", e.Op, e.ID)
}

// StorageError reports a failure of the underlying storage engine: unavailable,
// timed out, or a corrupt read. ID is empty for operations not bound to one record.
type StorageError struct {
	Op      string
	ID      string
	Timeout bool
	Err     error
}

func (e *StorageError) Error() string {
	msg := e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	if e.Timeout {
		msg += ": timed out"
	}
	return fmt.Sprintf("%s: storage: %v", msg, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
