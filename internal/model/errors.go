package model

import (
	"errors"
	"fmt"

	"itemapi/internal/model/field"
	"itemapi/internal/model/filter"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("entity not found")
	ErrDuplicate  = errors.New("entity already exists")
	ErrBackend    = errors.New("backend error")

	ErrInvalidFilter = filter.ErrInvalidFilter
	ErrMapping       = field.ErrMapping
)

// ValidationError is returned before any statement runs when the input cannot produce one.
type ValidationError struct {
	Entity  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entity, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError is returned when no row has the requested primary key.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateError wraps a unique constraint violation reported by the backend.
type DuplicateError struct {
	Entity string
	Err    error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists: %v", e.Entity, e.Err)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// BackendError wraps any other storage failure, including context cancellation.
type BackendError struct {
	Entity string
	Op     string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, e.Op, e.Err)
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsDuplicate checks if an error is a duplicate error
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// Error kinds returned by ErrorKind.
const (
	KindOK            = "ok"
	KindValidation    = "validation"
	KindNotFound      = "not_found"
	KindDuplicate     = "duplicate"
	KindInvalidFilter = "invalid_filter"
	KindMapping       = "mapping"
	KindBackend       = "backend"
	KindUnknown       = "unknown"
)

// ErrorKind classifies err for metric labels and transport status mapping.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	case errors.Is(err, ErrInvalidFilter):
		return KindInvalidFilter
	case errors.Is(err, ErrMapping):
		return KindMapping
	case errors.Is(err, ErrBackend):
		return KindBackend
	}
	return KindUnknown
}
