// internal/common/errors/errors.go
// Package errors provides the typed business-error taxonomy for the provider
// application workflow. Every expected rule violation is a distinct,
// inspectable error value; infrastructure faults are wrapped and passed
// through untyped.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeRoleIneligible   ErrorCode = "ROLE_INELIGIBLE"
	ErrCodeDuplicatePending ErrorCode = "DUPLICATE_PENDING_APPLICATION"
	ErrCodeCooldownActive   ErrorCode = "REAPPLY_COOLDOWN_ACTIVE"
	ErrCodeAlreadyProcessed ErrorCode = "APPLICATION_ALREADY_PROCESSED"
	ErrCodeInvalidReason    ErrorCode = "INVALID_REJECTION_REASON"
)

// WorkflowError is a structured business error. FieldErrors is populated only
// for validation failures, RetryAfter only for cooldown violations.
type WorkflowError struct {
	Code        ErrorCode         `json:"code"`
	Message     string            `json:"message"`
	Details     string            `json:"details,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	RetryAfter  *time.Time        `json:"retryAfter,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("WorkflowError[%s]: %s", e.Code, e.Message)
}

// NewValidationError carries the full field-error map: every violated field
// is reported, not just the first.
func NewValidationError(fieldErrors map[string]string) *WorkflowError {
	fields := make([]string, 0, len(fieldErrors))
	for f := range fieldErrors {
		fields = append(fields, f)
	}
	return &WorkflowError{
		Code:        ErrCodeValidationFailed,
		Message:     "Application data validation failed",
		Details:     fmt.Sprintf("invalid fields: %s", strings.Join(fields, ", ")),
		FieldErrors: fieldErrors,
		Timestamp:   time.Now().UTC(),
	}
}

// NewNotFoundError creates an error for a missing user or application.
func NewNotFoundError(resource, id string) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("%s: %s", strings.ToLower(resource), id),
		Timestamp: time.Now().UTC(),
	}
}

// NewRoleIneligibleError creates an error for a non-client submitter.
func NewRoleIneligibleError(role string) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeRoleIneligible,
		Message:   "Only clients can submit provider applications",
		Details:   fmt.Sprintf("current role: %s", role),
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicatePendingError creates an error for a user who already has a
// pending application.
func NewDuplicatePendingError(userID string) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeDuplicatePending,
		Message:   "A pending application already exists for this user",
		Details:   fmt.Sprintf("userId: %s", userID),
		Timestamp: time.Now().UTC(),
	}
}

// NewCooldownError carries the exact date reapplication becomes permitted.
func NewCooldownError(reapplyAt time.Time) *WorkflowError {
	return &WorkflowError{
		Code:       ErrCodeCooldownActive,
		Message:    fmt.Sprintf("You can reapply after %s", reapplyAt.Format("2006-01-02")),
		Details:    fmt.Sprintf("reapplyAt: %s", reapplyAt.Format(time.RFC3339)),
		RetryAfter: &reapplyAt,
		Timestamp:  time.Now().UTC(),
	}
}

// NewAlreadyProcessedError creates an error for a review action on a
// terminal application.
func NewAlreadyProcessedError(applicationID, status string) *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeAlreadyProcessed,
		Message:   "Application has already been processed",
		Details:   fmt.Sprintf("applicationId: %s, status: %s", applicationID, status),
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidReasonError creates an error for a missing or too-short
// rejection reason.
func NewInvalidReasonError() *WorkflowError {
	return &WorkflowError{
		Code:      ErrCodeInvalidReason,
		Message:   "Rejection reason must be at least 10 characters",
		Timestamp: time.Now().UTC(),
	}
}

// AsWorkflowError unwraps err to a *WorkflowError if one is in its chain.
func AsWorkflowError(err error) (*WorkflowError, bool) {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr, true
	}
	return nil, false
}

// IsCode reports whether err is a WorkflowError with the given code.
func IsCode(err error, code ErrorCode) bool {
	if wfErr, ok := AsWorkflowError(err); ok {
		return wfErr.Code == code
	}
	return false
}
