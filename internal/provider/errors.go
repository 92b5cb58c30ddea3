package provider

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by calls on a closed session.
var ErrSessionClosed = errors.New("session closed")

// ErrorCode defines Provider error codes
type ErrorCode string

const (
	ErrCodeAuthFailed         ErrorCode = "AUTH_FAILED"         // Invalid or expired credentials
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"        // Too many requests
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE" // Service temporarily unavailable
	ErrCodeModelNotFound      ErrorCode = "MODEL_NOT_FOUND"     // Requested model not found
	ErrCodeNetworkError       ErrorCode = "NETWORK_ERROR"       // Network connectivity issues
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"     // Malformed request or response
	ErrCodeTimeout            ErrorCode = "TIMEOUT"             // Request timeout
	ErrCodeBackendCrashed     ErrorCode = "BACKEND_CRASHED"     // Inference process died mid-request
	ErrCodeUnknown            ErrorCode = "UNKNOWN"             // Unclassified error
)

// ProviderError is a structured error for Provider operations
type ProviderError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Provider  string    `json:"provider"`
	Retryable bool      `json:"retryable"`
	Err       error     `json:"-"`
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError
func NewProviderError(code ErrorCode, message, provider string, retryable bool) *ProviderError {
	return &ProviderError{
		Code:      code,
		Message:   message,
		Provider:  provider,
		Retryable: retryable,
	}
}

// IsRetryable checks if the error is a transient provider error.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// CodeOf returns the ErrorCode carried by err, or ErrCodeUnknown.
func CodeOf(err error) ErrorCode {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeUnknown
}
