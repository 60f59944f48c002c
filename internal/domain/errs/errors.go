// Package errs defines the error taxonomy shared by the application layer
// and the transports that sit on top of it.
//
// Errors are wrapped with fmt.Errorf("%w: ...") and classified with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced transaction, user or society does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for malformed or missing input
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrForbidden is returned when the actor may not perform the operation
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable is returned when the persistence provider cannot be reached
	ErrUnavailable = errors.New("dependency unavailable")

	// ErrConflict is returned for unique key violations and lost compare-and-swap writes
	ErrConflict = errors.New("conflict")

	// ErrUnauthenticated is returned when credentials or tokens are missing or invalid
	ErrUnauthenticated = errors.New("unauthenticated")
)

// NotFound wraps ErrNotFound with a formatted detail
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidArgument wraps ErrInvalidArgument with a formatted detail
func InvalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Forbidden wraps ErrForbidden with a formatted detail
func Forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Unavailable wraps ErrUnavailable around the underlying cause
func Unavailable(op string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, cause)
}

// Conflict wraps ErrConflict with a formatted detail
func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Unauthenticated wraps ErrUnauthenticated with a formatted detail
func Unauthenticated(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnauthenticated, fmt.Sprintf(format, args...))
}

// Message returns the user-facing detail of err: the text after the first
// taxonomy sentinel, without the operation prefixes added while wrapping.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrNotFound, ErrInvalidArgument, ErrForbidden, ErrUnavailable, ErrConflict, ErrUnauthenticated} {
		if !errors.Is(err, sentinel) {
			continue
		}
		marker := sentinel.Error() + ": "
		if i := strings.Index(msg, marker); i >= 0 && len(msg) > i+len(marker) {
			return msg[i+len(marker):]
		}
		return sentinel.Error()
	}
	return msg
}
