// Package util provides logging, validation and address helpers shared by
// the ifconf packages.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched with errors.Is. The typed errors below unwrap to them.
var (
	ErrNotConnected       = errors.New("session not connected")
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition not met")
	ErrValidationFailed   = errors.New("validation failed")
	ErrPermissionDenied   = errors.New("permission denied")
)

// PreconditionError is an operation refused locally because the device or
// session is not in the required state.
type PreconditionError struct {
	Operation    string
	Resource     string // usually the device
	Precondition string
	Details      string
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("precondition failed for %s on %s: %s", e.Operation, e.Resource, e.Precondition)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *PreconditionError) Unwrap() error { return ErrPreconditionFailed }

// NewPreconditionError creates a PreconditionError.
func NewPreconditionError(operation, resource, precondition, details string) *PreconditionError {
	return &PreconditionError{
		Operation:    operation,
		Resource:     resource,
		Precondition: precondition,
		Details:      details,
	}
}

// ValidationError carries every problem found in one validation pass.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// NewValidationError creates a ValidationError from messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder accumulates problems so a config file or endpoint
// reports all of them at once.
type ValidationBuilder struct {
	errors []string
}

// Add records message when ok is false.
func (v *ValidationBuilder) Add(ok bool, message string) *ValidationBuilder {
	if !ok {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf records a formatted message unconditionally.
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns a *ValidationError, or nil when nothing was recorded.
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}

// NotFoundError names a device, fragment or scenario that does not exist.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(kind, name string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name}
}
