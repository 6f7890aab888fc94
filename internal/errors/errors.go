package errors

import (
	"fmt"
)

// AppError is a coded application error for the service and surface layers.
// Domain packages carry their own sentinel errors; this type holds the code
// the CLI exit path and the HTTP handlers translate from.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap adds context to an error, preserving an existing code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{Code: appErr.Code, Message: message, Cause: appErr}
	}
	return &AppError{Code: CodeInternalError, Message: message, Cause: err}
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode stamps a code onto an existing error.
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{Code: code, Message: appErr.Message, Cause: appErr.Cause}
	}
	return &AppError{Code: code, Message: err.Error(), Cause: err}
}

// GetCode returns the code of an AppError, or "UNKNOWN".
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Error codes.
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeDatasetError  = "DATASET_ERROR"
	CodeSearchError   = "SEARCH_ERROR"
	CodeStorageError  = "STORAGE_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInternalError = "INTERNAL_ERROR"
)

// ConfigInvalid flags a bad or missing configuration value.
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// DatasetError flags an unreadable or malformed dataset.
func DatasetError(message string) *AppError {
	return New(CodeDatasetError, message)
}

// StorageError flags a run-store failure.
func StorageError(message string) *AppError {
	return New(CodeStorageError, message)
}

// NotFound flags a missing resource.
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// InvalidInput flags a bad request parameter.
func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
