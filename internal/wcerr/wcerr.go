// Package wcerr defines the four error kinds from the toolkit's error
// handling design (ValueError, IndexError/KeyError, RuntimeError, IOError)
// and a small wrapping helper that attaches component context the way
// the rest of the codebase wraps errors with fmt.Errorf("%w").
package wcerr

import (
	"errors"
	"fmt"
)

// Kind distinguishes the error categories a caller may want to branch on.
type Kind int

const (
	// Value indicates invalid configuration, malformed input, or a violated
	// geometric invariant.
	Value Kind = iota
	// Index indicates a referenced object (plane, wire, layer, port) was not found.
	Index
	// Runtime indicates a pipeline invariant was violated at run time.
	Runtime
	// IO indicates a stream failure during read or write.
	IO
)

func (k Kind) String() string {
	switch k {
	case Value:
		return "ValueError"
	case Index:
		return "IndexError"
	case Runtime:
		return "RuntimeError"
	case IO:
		return "IOError"
	default:
		return "UnknownError"
	}
}

// Error is a component error carrying a Kind, the component name, and a
// human-readable context message. It wraps an optional underlying cause.
type Error struct {
	Kind      Kind
	Component string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Component, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Component, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a component error without an underlying cause.
func New(kind Kind, component, message string) error {
	return &Error{Kind: kind, Component: component, Message: message}
}

// Newf builds a component error with a formatted message.
func Newf(kind Kind, component, format string, args ...interface{}) error {
	return &Error{Kind: kind, Component: component, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches component context to an existing error, preserving it as
// the unwrap chain's cause.
func Wrap(kind Kind, component, message string, cause error) error {
	if cause == nil {
		return New(kind, component, message)
	}
	return &Error{Kind: kind, Component: component, Message: message, Cause: cause}
}

// Is reports whether err is a wcerr.Error (at any depth of wrapping) of
// the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
