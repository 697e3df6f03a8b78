// Package errors provides the standardized error taxonomy for the onboarding flow.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeRegistrationFailed   ErrorCode = "REGISTRATION_FAILED"
	ErrCodeIdentityUnresolved   ErrorCode = "IDENTITY_UNRESOLVED"
	ErrCodeDocumentUploadFailed ErrorCode = "DOCUMENT_UPLOAD_FAILED"

	ErrCodeTransportFailed ErrorCode = "TRANSPORT_FAILED"

	ErrCodeSubmissionInFlight ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodeStageOrder         ErrorCode = "STAGE_ORDER_VIOLATION"
)

// StandardError represents a structured application error.
//
// Every failure in the onboarding flow is stage-local and recoverable by
// resubmission; Retryable marks the ones where resubmitting the same input
// can succeed without user changes.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Field     string                 `json:"field,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("StandardError[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable, stage-local validation error.
// The stage does not advance; the same stage is re-prompted.
func NewValidationError(field, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   reason,
		Field:     field,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistrationError wraps a backend-reported registration failure.
// The reason is surfaced to the user verbatim.
func NewRegistrationError(reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistrationFailed,
		Message:   reason,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIdentityResolutionError marks an ambiguous backend state: the account
// exists but no identity payload was returned. No automatic retry.
func NewIdentityResolutionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityUnresolved,
		Message:   "account exists but identity missing",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadError creates a per-document upload error carrying the rule label.
// Uploads already completed are kept; resubmitting the whole stage is safe.
func NewUploadError(documentLabel string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeDocumentUploadFailed,
		Message:   fmt.Sprintf("Failed to upload %s", documentLabel),
		Details:   details,
		Field:     documentLabel,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError wraps network or response-parse failures at the backend
// boundary as a generic failure without retry policy.
func NewTransportError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailed,
		Message:   fmt.Sprintf("Backend call '%s' failed", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionInFlightError rejects a submission that arrives while a
// previous submission's backend round trip is still outstanding.
func NewSubmissionInFlightError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInFlight,
		Message:   "A previous submission is still being processed",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStageOrderError reports a submission issued for the wrong stage.
func NewStageOrderError(current, attempted string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStageOrder,
		Message:   fmt.Sprintf("Cannot submit %s while at stage %s", attempted, current),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard normalizes any error to a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsValidation reports whether err is a stage-local validation failure.
func IsValidation(err error) bool {
	return HasCode(err, ErrCodeValidationFailed)
}

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "REGISTRATION") || strings.Contains(codeStr, "IDENTITY"):
		return "RESOLUTION"
	case strings.Contains(codeStr, "UPLOAD"):
		return "UPLOAD"
	case strings.Contains(codeStr, "TRANSPORT"):
		return "TRANSPORT"
	default:
		return "OTHER"
	}
}
