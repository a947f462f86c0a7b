package erp

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials indicates the ERP connection settings are incomplete.
	// The API client refuses to construct without base URL, username, password
	// and API key.
	ErrMissingCredentials = errors.New("erp: api credentials not configured")

	// ErrAuthFailed indicates both token refresh and full login failed.
	ErrAuthFailed = errors.New("erp: authentication failed")

	// ErrProductNotFound indicates the ERP returned no product for a lookup.
	ErrProductNotFound = errors.New("erp: product not found")
)

// ErrorCode classifies API client failures. The codes mirror the failure
// taxonomy surfaced to callers: they decide logging and whether a higher
// level retries (it never does beyond the client's single 401 retry).
type ErrorCode string

const (
	// ErrCodeTransport is a network-level failure before any HTTP status
	// was received. Not retried.
	ErrCodeTransport ErrorCode = "transport_error"
	// ErrCodeInvalidJSON is a syntactically invalid response body.
	ErrCodeInvalidJSON ErrorCode = "invalid_json"
	// ErrCodeAuthFailed is a failed refresh-then-login sequence.
	ErrCodeAuthFailed ErrorCode = "auth_failed"
	// ErrCodeHTTP is a non-2xx response.
	ErrCodeHTTP ErrorCode = "api_http_error"
	// ErrCodeFallback is the terminal catch-all when the attempt loop is
	// exhausted without an explicit outcome.
	ErrCodeFallback ErrorCode = "api_error"
)

// APIError carries the failure context of an ERP API call: the
// classification code, the HTTP status (when one was received), the parsed
// response body (when it parsed) and the raw body for diagnostics.
type APIError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Body       any
	RawBody    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("erp: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("erp: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates an APIError with the given code and message.
func NewAPIError(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// IsAPIErrorCode reports whether err is an *APIError with the given code.
func IsAPIErrorCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
