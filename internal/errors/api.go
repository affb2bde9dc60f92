package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a non-success response from the page store API.
type APIError struct {
	StatusCode int
	Code       string // machine readable error code from the API, e.g. "object_not_found"
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("page store API error (HTTP %d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("page store API error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("page store API error (HTTP %d)", e.StatusCode)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// IsAPIError checks if error is an APIError
func IsAPIError(err error) bool {
	var apiErr *APIError
	return stdErrors.As(err, &apiErr)
}

// ErrNotFound is returned by stores that address pages locally when a page id is unknown.
var ErrNotFound = stdErrors.New("page not found")

// IsNotFound reports whether err denotes a missing page: ErrNotFound or an APIError
// for a missing object (even when wrapped).
func IsNotFound(err error) bool {
	if stdErrors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if !stdErrors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusNotFound || apiErr.Code == "object_not_found"
}

// IsUnauthorized reports whether err is an APIError caused by a bad or missing token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !stdErrors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.Code == "unauthorized"
}
