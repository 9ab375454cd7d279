// Package errortypes provides error types and handling for the Tempo MCP server.
package errortypes

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// ErrorType represents the type of error that occurred
type ErrorType string

// Error types
const (
	// ErrorTypeConfig is fatal at startup: missing or invalid required configuration.
	ErrorTypeConfig ErrorType = "config"

	// ErrorTypeValidation covers malformed or semantically invalid tool arguments.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeNotFound means the remote entity does not exist (404 upstream).
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeRateLimited means the remote rejected the call with 429.
	ErrorTypeRateLimited ErrorType = "rate_limited"

	// ErrorTypeTransient covers 5xx responses and network-level failures
	// that exhausted the retry budget.
	ErrorTypeTransient ErrorType = "transient"

	// ErrorTypeProtocol means the remote returned a body we could not decode.
	ErrorTypeProtocol ErrorType = "protocol"

	// ErrorTypeAPI covers remote 4xx rejections other than 404 and 429.
	ErrorTypeAPI ErrorType = "api"

	// ErrorTypeInternal indicates an internal system error.
	ErrorTypeInternal ErrorType = "internal"
)

// Well-known field keys attached to remote call errors.
const (
	FieldHTTPStatus = "http_status"
	FieldOperation  = "operation"
)

// AppError represents an application error with context
type AppError struct {
	Err       error
	Type      ErrorType
	Message   string
	StackInfo string
	Fields    map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Err.Error()
}

// Unwrap unwraps the error to support errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithField adds a field to the error for additional context
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// WithFields adds multiple fields to the error for additional context
func (e *AppError) WithFields(fields map[string]interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e
}

// HTTPStatus returns the remote HTTP status attached to the error, or 0.
func (e *AppError) HTTPStatus() int {
	if status, ok := e.Fields[FieldHTTPStatus].(int); ok {
		return status
	}
	return 0
}

// captureStack captures the stack trace at the call site
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		// Skip testing and standard library frames
		if !strings.Contains(frame.File, "testing/") && !strings.Contains(frame.File, "/go/src/") {
			fmt.Fprintf(&builder, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return builder.String()
}

// newAppError creates a new AppError with the given type, underlying error, and message
func newAppError(errType ErrorType, err error, message string) *AppError {
	if err == nil {
		err = errors.New("unknown error")
	}

	return &AppError{
		Err:       err,
		Type:      errType,
		Message:   message,
		StackInfo: captureStack(),
		Fields:    make(map[string]interface{}),
	}
}

// ConfigError creates a new configuration error
func ConfigError(err error, message string) *AppError {
	return newAppError(ErrorTypeConfig, err, message)
}

// ValidationError creates a new validation error
func ValidationError(err error, message string) *AppError {
	return newAppError(ErrorTypeValidation, err, message)
}

// NotFoundError creates a new not-found error
func NotFoundError(err error, message string) *AppError {
	return newAppError(ErrorTypeNotFound, err, message)
}

// RateLimitedError creates a new rate-limited error
func RateLimitedError(err error, message string) *AppError {
	return newAppError(ErrorTypeRateLimited, err, message)
}

// TransientError creates a new transient remote error
func TransientError(err error, message string) *AppError {
	return newAppError(ErrorTypeTransient, err, message)
}

// ProtocolError creates a new remote protocol error
func ProtocolError(err error, message string) *AppError {
	return newAppError(ErrorTypeProtocol, err, message)
}

// APIError creates a new API error
func APIError(err error, message string) *AppError {
	return newAppError(ErrorTypeAPI, err, message)
}

// InternalError creates a new internal error
func InternalError(err error, message string) *AppError {
	return newAppError(ErrorTypeInternal, err, message)
}

// LogError logs an AppError using the provided slog.Logger or the default slog logger.
// It logs the error message, type, stack trace, and any associated fields.
func LogError(logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		// Prepare arguments for structured logging
		args := []any{
			"type", string(appErr.Type),
			"original_error", appErr.Err.Error(),
		}
		if appErr.StackInfo != "" {
			args = append(args, "stack", appErr.StackInfo)
		}
		for k, v := range appErr.Fields {
			args = append(args, k, v)
		}
		logger.Error(appErr.Message, args...)
	} else {
		// For generic errors, log the error message and the error itself
		logger.Error(err.Error(), "error", err)
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for plain errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	return TypeOf(err) == ErrorTypeConfig
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsNotFoundError checks if an error is a not-found error
func IsNotFoundError(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsRateLimitedError checks if an error is a rate-limited error
func IsRateLimitedError(err error) bool {
	return TypeOf(err) == ErrorTypeRateLimited
}

// IsTransientError checks if an error is a transient remote error
func IsTransientError(err error) bool {
	return TypeOf(err) == ErrorTypeTransient
}

// IsProtocolError checks if an error is a remote protocol error
func IsProtocolError(err error) bool {
	return TypeOf(err) == ErrorTypeProtocol
}
