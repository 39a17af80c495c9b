package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors
var (
	ErrUnsupportedDrug      = errors.New("unsupported drug")
	ErrNoUsableVariants     = errors.New("no usable variants found in VCF content")
	ErrNotFound             = errors.New("not found")
	ErrInvalidKnowledgeBase = errors.New("invalid knowledge base")
)

// Error codes for API and tool responses
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeUnsupportedDrug  = "UNSUPPORTED_DRUG"
	ErrCodeNoUsableVariants = "NO_USABLE_VARIANTS"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeRateLimit        = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
)

// UnsupportedDrugError reports a drug that has no rule in the knowledge base
type UnsupportedDrugError struct {
	Drug      string
	Supported []string
}

// Error implements the error interface
func (e *UnsupportedDrugError) Error() string {
	if len(e.Supported) == 0 {
		return fmt.Sprintf("unsupported drug: %s", e.Drug)
	}
	return fmt.Sprintf("unsupported drug: %s (supported drugs: %s)", e.Drug, strings.Join(e.Supported, ", "))
}

// Unwrap lets errors.Is match ErrUnsupportedDrug
func (e *UnsupportedDrugError) Unwrap() error {
	return ErrUnsupportedDrug
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ErrorCodeFor maps an error returned by the engine or services to an error code
func ErrorCodeFor(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedDrug):
		return ErrCodeUnsupportedDrug
	case errors.Is(err, ErrNoUsableVariants):
		return ErrCodeNoUsableVariants
	case errors.As(err, &validationErr):
		return ErrCodeValidation
	default:
		return ErrCodeInternalServer
	}
}

// IsClientError reports whether the error was caused by the request itself
func IsClientError(err error) bool {
	code := ErrorCodeFor(err)
	return code == ErrCodeUnsupportedDrug || code == ErrCodeNoUsableVariants || code == ErrCodeValidation
}
