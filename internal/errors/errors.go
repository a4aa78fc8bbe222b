package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for call-contract failures
type ErrorCode string

const (
	// InvalidArgument indicates a missing or malformed argument
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// DuplicateSymbol indicates a name already taken in its namespace
	DuplicateSymbol ErrorCode = "DUPLICATE_SYMBOL"
	// AlreadyBound indicates an attempt to rebind a single-assignment reference
	AlreadyBound ErrorCode = "ALREADY_BOUND"
	// SymbolNotFound indicates a lookup miss where a hit was required
	SymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	// EvaluationFailed indicates a constant expression could not be evaluated
	EvaluationFailed ErrorCode = "EVALUATION_FAILED"
	// StorageFailed indicates the durable symbol store rejected an operation
	StorageFailed ErrorCode = "STORAGE_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// CodedError carries a stable code, a message and an optional cause
type CodedError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// NewCodedError creates a new CodedError
func NewCodedError(code ErrorCode, message string, cause error) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a CodedError with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *CodedError {
	return NewCodedError(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *CodedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *CodedError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *CodedError) WithDetails(details interface{}) *CodedError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first CodedError in err's chain, or "" if none
func CodeOf(err error) ErrorCode {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// Is reports whether err carries the given code anywhere in its chain
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
