package common

import (
	"context"
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy. Every error leaving an external call site wraps exactly one of these.
var (
	ErrTransientService   = errors.New("transient service error")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrContentExtraction  = errors.New("content extraction error")
	ErrFatalConfiguration = errors.New("fatal configuration error")
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state transition")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Transient marks err as a retryable service failure (network, timeout, rate limit).
func Transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransientService, err)
}

// Malformed reports a response with the wrong shape or item count.
func Malformed(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// Extraction reports a geometry or crop failure on a single unit.
func Extraction(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrContentExtraction, err)
}

// Fatal reports missing or rejected credentials and endpoints.
func Fatal(code, message string, cause error) error {
	if cause == nil {
		cause = ErrFatalConfiguration
	} else {
		cause = fmt.Errorf("%w: %w", ErrFatalConfiguration, cause)
	}
	return NewAppError(code, message, cause)
}

// Retryable reports whether err should be retried with backoff.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrTransientService) || errors.Is(err, ErrMalformedResponse)
}

// Outcome is the explicit policy chosen for a failed call site.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeDegradeUnit
	OutcomeFailDocument
	OutcomeAbortRun
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDegradeUnit:
		return "degrade"
	case OutcomeFailDocument:
		return "fail"
	case OutcomeAbortRun:
		return "abort"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Decide maps the final error of a stage onto an outcome.
// required marks stages whose failure cannot be papered over (abstract translation).
func Decide(err error, required bool) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrFatalConfiguration):
		return OutcomeAbortRun
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeFailDocument
	case required:
		return OutcomeFailDocument
	default:
		return OutcomeDegradeUnit
	}
}
