package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match two *Error values by code and message, so
// sentinel values below work with wrapped copies created by With.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// With returns a copy of e wrapping err, leaving the sentinel untouched.
func (e *Error) With(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Common error types
var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden          = New(http.StatusForbidden, "Request blocked", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrConflict           = New(http.StatusConflict, "Conflict", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
)

// Session error types
var (
	ErrInvalidCredentials = New(http.StatusUnauthorized, "Invalid credentials", nil)
	ErrSessionExpired     = New(http.StatusUnauthorized, "Session expired, please log in again", nil)
	ErrInvalidToken       = New(http.StatusUnauthorized, "Invalid token", nil)
)

// MergeError reports guest-cart lines that failed to transfer into the
// server cart at login. The durable guest cart is left intact whenever a
// MergeError is returned, so the merge can be retried on the next login.
type MergeError struct {
	// Failed maps productId to the error its add call returned.
	Failed map[string]error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("cart merge incomplete: %d item(s) failed to transfer", len(e.Failed))
}
