package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/shopline/internal/logger"
)

// Error kinds. Every failure surfaced to the user wraps exactly one of these.
var (
	// ErrValidation marks bad input caught before any network call
	ErrValidation = errors.New("validation failed")
	// ErrRemote marks a failed call to the schedule service
	ErrRemote = errors.New("remote operation failed")
	// ErrMalformed marks data from the schedule service that could not be interpreted
	ErrMalformed = errors.New("malformed data")
)

// kindError pairs a user-facing message with its kind and optional cause.
type kindError struct {
	kind  error
	msg   string
	cause error
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *kindError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// Validation returns an input validation error with the given message
func Validation(msg string) error {
	return &kindError{kind: ErrValidation, msg: msg}
}

// Validationf returns an input validation error using a format string
func Validationf(format string, args ...interface{}) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// Remote wraps the cause of a failed remote operation named by op
func Remote(op string, cause error) error {
	return &kindError{kind: ErrRemote, msg: op + " failed", cause: cause}
}

// Malformed wraps a decoding failure of a field returned by the service
func Malformed(field string, cause error) error {
	return &kindError{kind: ErrMalformed, msg: "malformed " + field, cause: cause}
}

// IsValidation reports whether err is an input validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsRemote reports whether err is a remote operation failure
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemote)
}

// IsMalformed reports whether err came from uninterpretable service data
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}

// Is and As re-export the standard library helpers so callers need a single import
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
