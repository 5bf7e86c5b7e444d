package broker

import (
	"errors"
	"fmt"
)

// ConnectionError marks a transient transport failure. Callers retry these
// within their bounded retry budget.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("broker connection: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError marks a failed authentication. It is terminal for the session:
// cached session artifacts must be discarded and the next Connect performs a
// full re-authentication.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("broker authentication: %s", e.Reason)
}

// IsTransient reports whether err should be retried under the bounded
// connection retry policy.
func IsTransient(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
