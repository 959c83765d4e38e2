package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("missing refresh token")
	ErrReauthRequired   = fmt.Errorf("reauthorization required")
	ErrInvalidRedirect  = fmt.Errorf("invalid redirect")
	ErrAccessDenied     = fmt.Errorf("authorization denied")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Storage errors
	ErrUnknownBackend = fmt.Errorf("unknown storage backend")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// AuthError reports a failure in the authorization or refresh path.
//
// It matches [ErrAuthFailed] with [errors.Is] as well as whatever cause it wraps.
type AuthError struct {
	Op  string // exchange, refresh, redirect
	Err error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("auth %s: %v", e.Op, ErrAuthFailed)
	}
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAuthFailed}
	}
	return []error{ErrAuthFailed, e.Err}
}

// NewAuthError wraps err as an [AuthError] for op.
func NewAuthError(op string, err error) *AuthError {
	return &AuthError{Op: op, Err: err}
}

// APIError reports a non-2xx response from a catalog or playlist endpoint.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("spotify API error: %s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("spotify API error: %s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return ErrAPIRequest
}

// IsStatus reports whether err is an [APIError] carrying the given HTTP status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
