// Package errors provides custom error types and error handling utilities.
package errors

import (
	"fmt"
)

// Error codes.
const (
	// Caller errors.
	CodeValidation      = "VALIDATION_ERROR"
	CodeInputShape      = "INPUT_SHAPE_ERROR"
	CodeDegenerateInput = "DEGENERATE_INPUT"
	CodeUnknownMetric   = "UNKNOWN_METRIC"

	// Infrastructure errors.
	CodeInternal    = "INTERNAL_ERROR"
	CodeUnavailable = "SERVICE_UNAVAILABLE"
	CodeStorage     = "STORAGE_ERROR"
)

// AppError represents an application error with code and details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *AppError with the same code, so that
// package-level sentinels built with New can be matched with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Convenience constructors.

// ValidationError creates a validation error.
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// InputShapeError reports operands whose lengths must match but do not.
func InputShapeError(op string, want, got int) *AppError {
	return New(CodeInputShape, fmt.Sprintf("%s: length mismatch: %d vs %d", op, want, got)).
		WithDetails(map[string]string{
			"op":   op,
			"want": fmt.Sprintf("%d", want),
			"got":  fmt.Sprintf("%d", got),
		})
}

// DegenerateInputError reports input for which the metric is undefined,
// typically a zero denominator.
func DegenerateInputError(op, reason string) *AppError {
	return New(CodeDegenerateInput, fmt.Sprintf("%s: %s", op, reason)).
		WithDetail("op", op)
}

// EmptyInputError reports an empty operand.
func EmptyInputError(op string) *AppError {
	return New(CodeValidation, fmt.Sprintf("%s: empty input", op)).
		WithDetail("op", op)
}

// UnknownMetricError reports a metric name missing from the registry.
func UnknownMetricError(name string) *AppError {
	return New(CodeUnknownMetric, fmt.Sprintf("unknown metric %q", name)).
		WithDetail("metric", name)
}

// InternalError creates an internal error.
func InternalError(message string, err error) *AppError {
	return Wrap(CodeInternal, message, err)
}

// StorageError creates a storage backend error.
func StorageError(message string, err error) *AppError {
	return Wrap(CodeStorage, message, err)
}

// ServiceUnavailableError creates a service unavailable error.
func ServiceUnavailableError(service string) *AppError {
	message := "service unavailable"
	if service != "" {
		message = fmt.Sprintf("%s is unavailable", service)
	}
	return New(CodeUnavailable, message)
}

// HasCode reports whether any error in err's chain is an *AppError with code.
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// IsValidation checks if error is a validation error.
func IsValidation(err error) bool {
	return HasCode(err, CodeValidation)
}

// IsInputShape checks if error is a length mismatch.
func IsInputShape(err error) bool {
	return HasCode(err, CodeInputShape)
}
