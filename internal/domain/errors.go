package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnavailable      = "UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrEmptyReport          = NewDomainError(ErrCodeValidation, "report cannot be empty")
	ErrEmptyQuestion        = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrEmptyAnswer          = NewDomainError(ErrCodeValidation, "answer cannot be empty")
	ErrInvalidValidatorMode = NewDomainError(ErrCodeValidation, "invalid validator mode")
)

// Availability errors
var (
	ErrIndexBuilding       = NewDomainError(ErrCodeUnavailable, "knowledge index is still building")
	ErrGenerationFailed    = NewDomainError(ErrCodeUnavailable, "generation backend unavailable")
	ErrNoReportAvailable   = NewDomainError(ErrCodeNotFound, "no patient report is available")
	ErrStorageUnconfigured = NewDomainError(ErrCodeInvalidOperation, "report archive storage is not configured")
)
