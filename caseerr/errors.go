// Package caseerr defines the failure taxonomy for json-casegate.
//
// Every error surfaced by discovery, parsing, validation, or the CLI maps to
// exactly one FailureClass, which determines the exit code and lets tests
// verify the kind of failure rather than only "did it fail".
package caseerr

import (
	"errors"
	"fmt"
)

// FailureClass is a stable failure category.
type FailureClass string

const (
	IOError         FailureClass = "IO_ERROR"
	ParseError      FailureClass = "PARSE_ERROR"
	ValidationError FailureClass = "VALIDATION_ERROR"
	ConfigError     FailureClass = "CONFIG_ERROR"
	CLIUsage        FailureClass = "CLI_USAGE"
	InternalError   FailureClass = "INTERNAL_ERROR"
)

// ExitCode returns the process exit code for this failure class.
func (fc FailureClass) ExitCode() int {
	switch fc {
	case IOError, InternalError:
		return 10
	default:
		return 2
	}
}

// Error is the structured error type for all json-casegate failures.
type Error struct {
	Class   FailureClass
	Path    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Path != "" {
		return fmt.Sprintf("caseerr: %s: %s: %s", e.Class, e.Path, msg)
	}
	return fmt.Sprintf("caseerr: %s: %s", e.Class, msg)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given class and message.
func New(class FailureClass, path, message string) *Error {
	return &Error{Class: class, Path: path, Message: message}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(class FailureClass, path, message string, cause error) *Error {
	return &Error{Class: class, Path: path, Message: message, Cause: cause}
}

// ClassOf reports the class of the first *Error in err's chain.
// Unclassified errors are InternalError.
func ClassOf(err error) FailureClass {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Class
	}
	return InternalError
}

// Is reports whether err carries a failure of the given class.
func Is(err error, class FailureClass) bool {
	return err != nil && ClassOf(err) == class
}
