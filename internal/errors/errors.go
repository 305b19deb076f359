package errors

import (
	stderrors "errors"
	"fmt"

	"guildscore/domain/core"
)

// AppError represents a structured application error
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

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. A plain error takes the code of the domain
// sentinel it wraps.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    domainCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// FromDomain classifies a domain error by its sentinel and wraps it with the matching code.
// AppErrors pass through unchanged.
func FromDomain(err error) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	return &AppError{Code: domainCode(err), Message: err.Error(), Cause: err}
}

func domainCode(err error) string {
	switch {
	case stderrors.Is(err, core.ErrMalformedTree):
		return CodeMalformedTree
	case stderrors.Is(err, core.ErrUncalibratedMetric), stderrors.Is(err, core.ErrInvalidProfile):
		return CodeUncalibratedMetric
	case stderrors.Is(err, core.ErrNotFound):
		return CodeNotFound
	case stderrors.Is(err, core.ErrInvalidRecord), stderrors.Is(err, core.ErrUnknownInteractionKind),
		stderrors.Is(err, core.ErrEmptyPool):
		return CodeInvalidInput
	}
	return CodeInternalError
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeMalformedTree      = "MALFORMED_TREE"
	CodeUncalibratedMetric = "UNCALIBRATED_METRIC"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// DatabaseError marks a storage failure. Not-found errors keep their own code.
func DatabaseError(err error, message string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, core.ErrNotFound) {
		return Wrap(err, message)
	}
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: err}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
