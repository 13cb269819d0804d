package errors

import (
	"errors"
	"fmt"
)

// Common error types for the HR console
var (
	// Authentication errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")

	// Backend response errors
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrServer            = errors.New("backend request failed")
	ErrTransport         = errors.New("backend unreachable")
	ErrMalformedResponse = errors.New("malformed backend response")

	// Session errors
	ErrNoSession = errors.New("no active session")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
