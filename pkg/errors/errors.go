package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock the row was modified by another writer
var ErrOptimisticLock = errors.New("los datos han sido modificados por otra operación, recarga e inténtalo de nuevo")

// Error kinds. Typed errors below unwrap to one of these so callers can match with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

// ValidationError malformed or missing input on a write
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError the write violates a per-day attendance rule
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError a referenced user, unit, station or record does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s no encontrado", e.Resource)
	}
	return fmt.Sprintf("%s no encontrado: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Validation builds a *ValidationError
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Conflict builds a *ConflictError
func Conflict(reason string) error {
	return &ConflictError{Reason: reason}
}

// NotFound builds a *NotFoundError
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}
