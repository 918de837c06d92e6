// Package kerrors provides the error taxonomy shared by every kernel
// component. Every operation in this module returns one of the kinds below,
// wrapped with a context stack, rather than a bare error.
package kerrors

import (
	"errors"
	"fmt"
)

// Kind classifies the failure so callers can branch without string matching.
type Kind int

const (
	// Parse covers bad key sequences, bad MDX headers, bad config.
	Parse Kind = iota
	// NotFound covers missing injector types, scheduler labels, dictionary
	// keywords, and unmatched routes.
	NotFound
	// Conflict covers duplicate stage insertion and key-sequence/prefix
	// collisions.
	Conflict
	// TransportError covers connect, accept, TLS and timeout failures.
	TransportError
	// FormatError covers truncated MDX input, bad compression tags, and
	// decompressed-length mismatches.
	FormatError
	// Bug covers construction reentry and double task execution — conditions
	// that should never occur if callers honor the contracts in this module.
	Bug
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case TransportError:
		return "transport"
	case FormatError:
		return "format"
	case Bug:
		return "bug"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every kernel operation. It
// carries a Kind, an optional wrapped cause, and a human-readable context
// message built up via Wrap as the error propagates.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates a new *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches additional context to an existing error, preserving its Kind
// if it is already a *Error, otherwise defaulting to Bug (an un-kinded error
// escaping from somewhere that should have produced one is itself a bug).
func Wrap(err error, format string, args ...any) *Error {
	kind := Bug
	var ke *Error
	if errors.As(err, &ke) {
		kind = ke.Kind
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind == kind
	}
	return false
}
