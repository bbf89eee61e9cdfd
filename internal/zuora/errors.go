package zuora

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when an authenticated operation is
// attempted before a session token has been set. There is no implicit
// re-authentication; callers must call Authenticate first.
var ErrNotAuthenticated = errors.New("zuora: not authenticated (no session token)")

// ConnectionError wraps any transport-level failure during the
// authenticate round trip, preserving the underlying cause.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("zuora: connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ErrorResponse signals a non-200 status on the login call, which the
// platform uses for invalid credentials.
type ErrorResponse struct {
	StatusCode int
	Body       []byte
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("zuora: login rejected with status %d (invalid credentials?)", e.StatusCode)
}

// UnknownObjectError is returned for create calls against a type with no
// registered schema.
type UnknownObjectError struct {
	TypeName string
}

func (e *UnknownObjectError) Error() string {
	return fmt.Sprintf("zuora: unknown object type %q", e.TypeName)
}
