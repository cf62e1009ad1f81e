// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation   ErrorType = iota // Input validation errors (400 Bad Request)
	ErrorTypeUnauthorized                  // Authentication failures (401 Unauthorized)
	ErrorTypeNotFound                      // Resource not found errors (404 Not Found)
	ErrorTypeConflict                      // Resource conflict errors (409 Conflict)
	ErrorTypeInternal                      // Internal server errors (500 Internal Server Error)
	ErrorTypeUnavailable                   // Service unavailable errors (503 Service Unavailable)
)

// Machine-readable codes returned to webhook senders.
const (
	CodeMissingCredentials = "MISSING_CREDENTIALS"
	CodeInvalidSignature   = "INVALID_SIGNATURE"
	CodeMalformedPayload   = "MALFORMED_PAYLOAD"
	CodeMissingFields      = "MISSING_FIELDS"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL"
	CodeUnavailable        = "UNAVAILABLE"
)

// Sentinel errors returned by repositories and clients.
var (
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrAgentNotFound      = errors.New("agent not found")
	ErrKeyNotFound        = errors.New("key not found")
	ErrKeyExists          = errors.New("key already exists")
	ErrRevisionMismatch   = errors.New("revision mismatch")
	ErrUnmarshal          = errors.New("unmarshal error")
	ErrInternal           = errors.New("internal error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithCode overrides the default machine code of the error.
func (e *DomainError) WithCode(code string) *DomainError {
	e.Code = code
	return e
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// GetErrorCode returns the machine code of an error, INTERNAL when it carries none.
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code
	}
	return CodeInternal
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Code: CodeMalformedPayload, Message: message, Err: errors.Join(err...)}
}

func NewUnauthorizedError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnauthorized, Code: CodeInvalidSignature, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Code: CodeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Code: CodeConflict, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Code: CodeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Code: CodeUnavailable, Message: message, Err: errors.Join(err...)}
}

// NewMissingCredentialsError is returned when a webhook arrives without signature or api key.
func NewMissingCredentialsError(message string) *DomainError {
	return NewValidationError(message).WithCode(CodeMissingCredentials)
}

// NewMissingFieldsError is returned when an event lacks a field its handler requires.
func NewMissingFieldsError(message string) *DomainError {
	return NewValidationError(message).WithCode(CodeMissingFields)
}
