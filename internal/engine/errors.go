package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/coordsim/internal/primitive"
)

// RuntimeError represents an unrecoverable failure inside an engine
// operation. The actor that receives one stops; capacity rejection is never
// reported this way.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Engine is the engine that failed ("waitroom" or "gate").
	Engine string

	// Actor identifies the failing actor, 0 for the provider.
	Actor int

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodePoisoned indicates a counter whose previous holder panicked.
	ErrCodePoisoned RuntimeErrorCode = "POISONED"

	// ErrCodeUnderflow indicates a counter would have dropped below zero.
	ErrCodeUnderflow RuntimeErrorCode = "UNDERFLOW"

	// ErrCodeCancelled indicates the run was stopped while the actor was
	// suspended.
	ErrCodeCancelled RuntimeErrorCode = "CANCELLED"

	// ErrCodeInvariant indicates engine state that contradicts itself, such
	// as a free chair with no chair token left.
	ErrCodeInvariant RuntimeErrorCode = "INVARIANT"

	// ErrCodeInvalidConfig indicates an engine was constructed with
	// unusable settings.
	ErrCodeInvalidConfig RuntimeErrorCode = "INVALID_CONFIG"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Engine != "" {
		msg = fmt.Sprintf("%s (engine=%s, actor=%d)", msg, e.Engine, e.Actor)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsPoisonedError returns true if err is a poisoned-counter failure.
// Uses errors.As to handle wrapped errors.
func IsPoisonedError(err error) bool {
	return hasCode(err, ErrCodePoisoned)
}

// IsUnderflowError returns true if err is a counter underflow.
func IsUnderflowError(err error) bool {
	return hasCode(err, ErrCodeUnderflow)
}

// IsCancelledError returns true if err reports a cancelled suspension.
func IsCancelledError(err error) bool {
	return hasCode(err, ErrCodeCancelled)
}

// IsInvariantError returns true if err reports inconsistent engine state.
func IsInvariantError(err error) bool {
	return hasCode(err, ErrCodeInvariant)
}

// IsConfigError returns true if err reports invalid engine settings.
func IsConfigError(err error) bool {
	return hasCode(err, ErrCodeInvalidConfig)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// NewConfigError creates a RuntimeError for invalid settings.
func NewConfigError(engine, message string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidConfig,
		Message: message,
		Engine:  engine,
	}
}

// NewUnderflowError creates a RuntimeError for a counter that would go
// negative.
func NewUnderflowError(engine string, actor int, counter string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnderflow,
		Message: fmt.Sprintf("%s would drop below zero", counter),
		Engine:  engine,
		Actor:   actor,
	}
}

// NewInvariantError creates a RuntimeError for engine state that should be
// unreachable.
func NewInvariantError(engine string, actor int, message string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvariant,
		Message: message,
		Engine:  engine,
		Actor:   actor,
	}
}

// classify converts a primitive failure into a RuntimeError. Errors that
// already are RuntimeErrors pass through.
func classify(engine string, actor int, err error) error {
	if err == nil {
		return nil
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	switch {
	case errors.Is(err, primitive.ErrPoisoned):
		return &RuntimeError{Code: ErrCodePoisoned, Message: "synchronization primitive failed", Engine: engine, Actor: actor, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &RuntimeError{Code: ErrCodeCancelled, Message: "suspended operation cancelled", Engine: engine, Actor: actor, Err: err}
	}
	return fmt.Errorf("%s actor %d: %w", engine, actor, err)
}
