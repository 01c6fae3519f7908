package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a malformed or unsupported request value.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientStock indicates a stock shortfall on a path without partial fulfillment.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates a duplicate natural key.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or rejected token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries the offending field alongside ErrValidation.
// Key optionally names a catalog message shown to the caller.
type ValidationError struct {
	Err     error
	Field   string
	Details string
	Key     string
}

func (e *ValidationError) Error() string {
	base := ErrValidation
	if e.Err != nil {
		base = e.Err
	}
	switch {
	case e.Field != "" && e.Details != "":
		return fmt.Sprintf("%s: %s: %s", base.Error(), e.Field, e.Details)
	case e.Details != "":
		return fmt.Sprintf("%s: %s", base.Error(), e.Details)
	default:
		return base.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrValidation
	}
	return e.Err
}

// MessageKey implements Localized.
func (e *ValidationError) MessageKey() string {
	if e.Key != "" {
		return e.Key
	}
	return MsgInvalidRequest
}

// Invalid builds a ValidationError for field.
func Invalid(field, details string) error {
	return &ValidationError{Err: ErrValidation, Field: field, Details: details}
}

// NotFoundError names the entity that could not be found.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// MessageKey implements Localized.
func (e *NotFoundError) MessageKey() string { return e.Entity + " not found" }

// NotFound wraps ErrNotFound with the missing entity name.
func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// Localized is implemented by errors that carry their own catalog key.
type Localized interface {
	MessageKey() string
}
