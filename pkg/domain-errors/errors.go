// Package domainerrors provides coded domain errors shared across services.
//
// Services return these so transport layers can translate consistently and
// callers can branch on the code without string matching. Infrastructure
// facts (row missing, conditional update lost) live in pkg/platform/sentinel;
// stores return those and services wrap them into coded errors here.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for programmatic handling.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_failed"
	CodeInvalidInput       Code = "invalid_input"
	CodeInvalidAttributes  Code = "invalid_attributes"
	CodeGuardViolation     Code = "guard_violation"
	CodeStaleState         Code = "stale_state"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeForbidden          Code = "forbidden"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnavailable        Code = "unavailable"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// DomainError carries a code, a human-readable message, and optional
// structured attributes (key/value pairs, slog style).
type DomainError struct {
	Code    Code
	Message string
	Attrs   []any
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.cause }

// New constructs a DomainError with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Wrap constructs a DomainError that wraps an underlying cause.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, cause: err}
}

// Add appends structured attributes to the error and returns it, so call
// sites can chain: dErrors.New(...).Add("report_id", id).
func (e *DomainError) Add(attrs ...any) *DomainError {
	e.Attrs = append(e.Attrs, attrs...)
	return e
}

// HasCode reports whether err (or anything it wraps) is a DomainError with
// the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is reports whether err is a DomainError at all.
func Is(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// Load extracts the DomainError from err, or nil when absent.
func Load(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// ToHTTPStatus maps a domain code to an HTTP status for transport layers.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeInvalidAttributes:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeStaleState, CodeGuardViolation, CodeInvariantViolation:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
