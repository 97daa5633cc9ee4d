// internal/common/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeAlreadyTerminal     ErrorCode = "ALREADY_TERMINAL"
	ErrCodeRemoteWriteFailed   ErrorCode = "REMOTE_WRITE_FAILED"
	ErrCodeOperationInProgress ErrorCode = "OPERATION_IN_PROGRESS"
	ErrCodeLedgerCorrupt       ErrorCode = "LEDGER_CORRUPT"
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeDuplicate           ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeAuditWriteFailed    ErrorCode = "AUDIT_WRITE_FAILED"
)

// Sentinel errors for errors.Is checks across the orchestrators.
var (
	ErrNotFound            = errors.New(string(ErrCodeNotFound))
	ErrAlreadyTerminal     = errors.New(string(ErrCodeAlreadyTerminal))
	ErrRemoteWriteFailed   = errors.New(string(ErrCodeRemoteWriteFailed))
	ErrOperationInProgress = errors.New(string(ErrCodeOperationInProgress))
	ErrLedgerCorrupt       = errors.New(string(ErrCodeLedgerCorrupt))
	ErrValidationFailed    = errors.New(string(ErrCodeValidationFailed))
	ErrDuplicate           = errors.New(string(ErrCodeDuplicate))
	ErrAuditWriteFailed    = errors.New(string(ErrCodeAuditWriteFailed))
)

// DomainError is a structured lifecycle error surfaced to callers.
type DomainError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("DomainError[%s]: %s", e.Code, e.Message)
}

// Unwrap maps the structured error back to its sentinel so callers can use
// errors.Is without caring which layer produced it.
func (e *DomainError) Unwrap() error {
	switch e.Code {
	case ErrCodeNotFound:
		return ErrNotFound
	case ErrCodeAlreadyTerminal:
		return ErrAlreadyTerminal
	case ErrCodeRemoteWriteFailed:
		return ErrRemoteWriteFailed
	case ErrCodeOperationInProgress:
		return ErrOperationInProgress
	case ErrCodeLedgerCorrupt:
		return ErrLedgerCorrupt
	case ErrCodeValidationFailed:
		return ErrValidationFailed
	case ErrCodeDuplicate:
		return ErrDuplicate
	case ErrCodeAuditWriteFailed:
		return ErrAuditWriteFailed
	}
	return nil
}

// NewNotFoundError creates a non-retryable missing-application error.
func NewNotFoundError(applicationID string) *DomainError {
	return &DomainError{
		Code:      ErrCodeNotFound,
		Message:   "Application not found in record store",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadyTerminalError marks an idempotent no-op, not a true failure.
func NewAlreadyTerminalError(applicationID, status string) *DomainError {
	return &DomainError{
		Code:      ErrCodeAlreadyTerminal,
		Message:   "Application already reached a terminal status",
		Details:   fmt.Sprintf("applicationId: %s, status: %s", applicationID, status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteWriteFailedError creates a retryable remote-store error.
func NewRemoteWriteFailedError(operation string, err error) *DomainError {
	return &DomainError{
		Code:      ErrCodeRemoteWriteFailed,
		Message:   "Remote store write failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOperationInProgressError guards against re-entrant orchestrations.
func NewOperationInProgressError(applicationID string) *DomainError {
	return &DomainError{
		Code:      ErrCodeOperationInProgress,
		Message:   "A lifecycle operation is already in flight for this application",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable submit validation error.
func NewValidationFailedError(details string) *DomainError {
	return &DomainError{
		Code:      ErrCodeValidationFailed,
		Message:   "Application payload validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateError rejects a second pending application for the same
// provider, event and category.
func NewDuplicateError(providerID, eventID string) *DomainError {
	return &DomainError{
		Code:      ErrCodeDuplicate,
		Message:   "Application already exists",
		Details:   fmt.Sprintf("providerId: %s, eventId: %s", providerID, eventID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditWriteFailedError aborts a delete whose audit trail could not be
// persisted.
func NewAuditWriteFailedError(err error) *DomainError {
	return &DomainError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "Audit log write failed, delete aborted",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether an error should be retried (by re-running the
// failed step or re-invoking the status verifier).
func IsRetryable(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}
