package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines the failure categories of a pipeline run
type ErrorType string

const (
	ErrorTypeConfig ErrorType = "CONFIG"
	ErrorTypeRead   ErrorType = "READ"
	ErrorTypeWrite  ErrorType = "WRITE"
)

// AppError is the error type returned across package boundaries.
// Unmatched join rows are valid output and never produce an AppError.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfig creates a configuration error (missing or malformed settings, credentials).
func NewConfig(message string, err error) error {
	return &AppError{Type: ErrorTypeConfig, Message: message, Err: err}
}

// NewRead creates a read error (input unreadable, document malformed, column not found).
func NewRead(message string, err error) error {
	return &AppError{Type: ErrorTypeRead, Message: message, Err: err}
}

// NewWrite creates a write error (output location unwritable).
func NewWrite(message string, err error) error {
	return &AppError{Type: ErrorTypeWrite, Message: message, Err: err}
}

// Wrap adds context to err, preserving its type when it is already an AppError.
// Untyped errors become read errors when read is true, write errors otherwise.
func Wrap(err error, message string, read bool) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	if read {
		return NewRead(message, err)
	}
	return NewWrite(message, err)
}

// TypeOf returns the category of err, or "" when err is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsConfig checks if an error is a configuration error
func IsConfig(err error) bool {
	return TypeOf(err) == ErrorTypeConfig
}

// IsRead checks if an error is a read error
func IsRead(err error) bool {
	return TypeOf(err) == ErrorTypeRead
}

// IsWrite checks if an error is a write error
func IsWrite(err error) bool {
	return TypeOf(err) == ErrorTypeWrite
}
