// Package apierrors contains the errors returned to API clients and the helpers used to
// write them as JSON responses.
package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by every context of the API.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeSlotUnavailable   = "SLOT_UNAVAILABLE"
	CodeForbidden         = "FORBIDDEN"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConflict          = "CONFLICT"
)

// APIError represents a business rule failure that must be reported to the client.
type APIError struct {
	Code           string `json:"code,omitempty"`
	Detail         string `json:"detail"`
	Reason         string `json:"reason,omitempty"`
	httpStatusCode int
}

// Option determines the Functional Options used to create a new APIError.
type Option func(apiErr *APIError)

// WithCode sets the machine readable code of the error.
func WithCode(code string) Option {
	return func(apiErr *APIError) {
		apiErr.Code = code
	}
}

// WithDetail sets the human readable detail of the error.
func WithDetail(detail string) Option {
	return func(apiErr *APIError) {
		apiErr.Detail = detail
	}
}

// WithReason explains why the operation was refused, e.g. why a slot is not available.
func WithReason(reason string) Option {
	return func(apiErr *APIError) {
		apiErr.Reason = reason
	}
}

// WithHTTPStatusCode sets the HTTP status used when the error is written to a response.
func WithHTTPStatusCode(statusCode int) Option {
	return func(apiErr *APIError) {
		apiErr.httpStatusCode = statusCode
	}
}

// NewAPIError creates a new APIError. Without options it behaves like an internal error.
func NewAPIError(opts ...Option) *APIError {
	apiErr := &APIError{httpStatusCode: http.StatusInternalServerError}
	for _, opt := range opts {
		opt(apiErr)
	}
	return apiErr
}

// HTTPStatusCode returns the HTTP status associated to the error.
func (e *APIError) HTTPStatusCode() int {
	return e.httpStatusCode
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Detail, e.Reason)
	}
	return e.Detail
}

// ValidationError represents a malformed or missing input field.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Code: CodeValidation, Field: field, Message: message}
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// CodeOf returns the code carried by the given error, or an empty string for unexpected errors.
func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Code
	}
	return ""
}

// ReasonOf returns the reason carried by the given error, if any.
func ReasonOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason
	}
	return ""
}

// Write writes the given error into the response. Errors that are not API or validation
// errors are written as a bare 500 so that internals never leak to the client.
func Write(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		w.WriteHeader(apiErr.HTTPStatusCode())
		_ = json.NewEncoder(w).Encode(apiErr)
		return
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(validationErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
}
