// Package domain provides the canonical types shared across the gateway:
// route identities, request schemas, and the error taxonomy every pipeline
// stage reports failures through.
package domain

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of a gateway error.
type ErrorType string

const (
	// ErrorTypeValidation indicates a malformed or invalid request
	// (bad file type, oversize body, bad schema).
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeRateLimit indicates admission control rejected the request.
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeDownstream indicates the processing service failed or was
	// unreachable.
	ErrorTypeDownstream ErrorType = "downstream"

	// ErrorTypeServer indicates an internal gateway failure.
	ErrorTypeServer ErrorType = "server"
)

// ErrorCode provides additional specificity beyond the error type.
type ErrorCode string

const (
	ErrorCodeInvalidType       ErrorCode = "invalid_type"
	ErrorCodeFileTooLarge      ErrorCode = "file_too_large"
	ErrorCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"
)

// GatewayError is the canonical error every pipeline stage reports through.
// The terminal error writer translates it into the client-visible shape.
type GatewayError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Code is an optional specific error code
	Code ErrorCode `json:"code,omitempty"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// StatusCode is the suggested HTTP status code
	StatusCode int `json:"-"`

	// RetryAfter is the suggested wait before retrying, set only for
	// rate limit rejections
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *GatewayError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeDownstream, ErrorTypeServer:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewGatewayError creates a new gateway error.
func NewGatewayError(errType ErrorType, message string) *GatewayError {
	return &GatewayError{
		Type:    errType,
		Message: message,
	}
}

// WithCode adds an error code to the error.
func (e *GatewayError) WithCode(code ErrorCode) *GatewayError {
	e.Code = code
	return e
}

// WithStatusCode sets a specific HTTP status code.
func (e *GatewayError) WithStatusCode(code int) *GatewayError {
	e.StatusCode = code
	return e
}

// WithRetryAfter sets the retry hint for rate limit rejections.
func (e *GatewayError) WithRetryAfter(d time.Duration) *GatewayError {
	e.RetryAfter = d
	return e
}

// Convenience constructors for common errors

// ErrValidation creates a validation error.
func ErrValidation(message string) *GatewayError {
	return NewGatewayError(ErrorTypeValidation, message)
}

// ErrInvalidType creates a file type validation error.
func ErrInvalidType(message string) *GatewayError {
	return NewGatewayError(ErrorTypeValidation, message).
		WithCode(ErrorCodeInvalidType)
}

// ErrFileTooLarge creates an oversize upload error.
func ErrFileTooLarge(message string) *GatewayError {
	return NewGatewayError(ErrorTypeValidation, message).
		WithCode(ErrorCodeFileTooLarge)
}

// ErrRateLimit creates a rate limit error carrying a retry hint.
func ErrRateLimit(message string, retryAfter time.Duration) *GatewayError {
	return NewGatewayError(ErrorTypeRateLimit, message).
		WithCode(ErrorCodeRateLimitExceeded).
		WithRetryAfter(retryAfter)
}

// ErrDownstream creates a downstream failure error.
func ErrDownstream(message string) *GatewayError {
	return NewGatewayError(ErrorTypeDownstream, message)
}

// ErrServer creates an internal gateway error.
func ErrServer(message string) *GatewayError {
	return NewGatewayError(ErrorTypeServer, message)
}
