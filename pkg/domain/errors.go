package domain

import (
	"errors"
	"fmt"
)

// Repository sentinels
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error

	// Fields carries per-field validation failures for INVALID_REQUEST
	Fields []FieldError
	// Usage carries the snapshot that caused USAGE_LIMIT_EXCEEDED
	Usage *Usage
}

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeUsageLimitExceeded    = "USAGE_LIMIT_EXCEEDED"
	ErrCodeProfileCreationFailed = "PROFILE_CREATION_FAILED"
	ErrCodePersistence           = "PERSISTENCE_ERROR"
	ErrCodeGenerationFailed      = "GENERATION_FAILED"
	ErrCodeInvalidSignature      = "INVALID_SIGNATURE"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeConflict              = "CONFLICT"
)

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError() error {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
	}
}

// NewInvalidRequestError creates a validation error carrying field details
func NewInvalidRequestError(fields []FieldError) error {
	return &DomainError{
		Code:    ErrCodeInvalidRequest,
		Message: "Invalid request data",
		Fields:  fields,
	}
}

// NewUsageLimitError creates a new usage limit exceeded error
func NewUsageLimitError(usage Usage) error {
	limit := 0
	if usage.Limit != nil {
		limit = *usage.Limit
	}
	return &DomainError{
		Code:    ErrCodeUsageLimitExceeded,
		Message: fmt.Sprintf("You've used %d/%d prompts this month. Upgrade to Pro for unlimited prompts.", usage.Used, limit),
		Usage:   &usage,
	}
}

// NewProfileCreationError wraps a failed profile insert
func NewProfileCreationError(err error) error {
	return &DomainError{
		Code:    ErrCodeProfileCreationFailed,
		Message: "Failed to create user profile",
		Err:     err,
	}
}

// NewPersistenceError wraps a storage failure
func NewPersistenceError(msg string, err error) error {
	return &DomainError{
		Code:    ErrCodePersistence,
		Message: msg,
		Err:     err,
	}
}

// NewGenerationError wraps a completion failure
func NewGenerationError(err error) error {
	return &DomainError{
		Code:    ErrCodeGenerationFailed,
		Message: "Failed to process job post with AI",
		Err:     err,
	}
}

// NewInvalidSignatureError wraps a webhook signature failure
func NewInvalidSignatureError(err error) error {
	return &DomainError{
		Code:    ErrCodeInvalidSignature,
		Message: "Invalid signature",
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     ErrNotFound,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
	}
}

// CodeOf returns the DomainError code in err's chain, or "" if none
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsUnauthorized checks if error is an unauthorized error
func IsUnauthorized(err error) bool { return CodeOf(err) == ErrCodeUnauthorized }

// IsInvalidRequest checks if error is a validation error
func IsInvalidRequest(err error) bool { return CodeOf(err) == ErrCodeInvalidRequest }

// IsUsageLimitExceeded checks if error is a usage limit error
func IsUsageLimitExceeded(err error) bool { return CodeOf(err) == ErrCodeUsageLimitExceeded }

// IsGenerationFailed checks if error is a generation error
func IsGenerationFailed(err error) bool { return CodeOf(err) == ErrCodeGenerationFailed }

// IsPersistence checks if error is a persistence error
func IsPersistence(err error) bool { return CodeOf(err) == ErrCodePersistence }

// IsInvalidSignature checks if error is a webhook signature error
func IsInvalidSignature(err error) bool { return CodeOf(err) == ErrCodeInvalidSignature }

// IsNotFound checks if error is a not found error, either the domain error
// or the repository sentinel
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound || errors.Is(err, ErrNotFound)
}
