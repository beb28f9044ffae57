// Package xerr defines the closed error-kind taxonomy shared by every
// xmlsilo component: the silo loader, the builder/serializer, and the
// query compiler/executor all return *Error rather than bare errors so
// that callers can branch on Kind without string matching.
package xerr

import (
	"errors"
	"fmt"
)

// Kind is a closed set of error categories. New kinds are never added
// without a spec change; callers may safely switch over all of them.
type Kind int

const (
	// InvalidArgument means a caller-supplied parameter violated a
	// precondition: nil, empty, or out of range.
	InvalidArgument Kind = iota
	// NotFound means a query matched nothing when a result was
	// required, or an attribute/text was absent when required.
	NotFound
	// InvalidData means a silo header or record violates the format,
	// or the source XML was malformed.
	InvalidData
	// Unsupported means a version mismatch, or an XPath construct
	// outside the accepted grammar.
	Unsupported
	// IO means a filesystem failure on load or save.
	IO
	// Internal means an invariant was violated at runtime; it should
	// never surface from a release build.
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case InvalidData:
		return "invalid_data"
	case Unsupported:
		return "unsupported"
	case IO:
		return "io"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the common error type for the xmlsilo module. Pos carries
// byte-offset position information for load errors and rune-offset
// position information for query-parse errors; HasPos reports whether
// Pos is meaningful.
type Error struct {
	Kind    Kind
	Message string
	Pos     int
	HasPos  bool
	cause   error
}

func (e *Error) Error() string {
	if e.HasPos {
		return fmt.Sprintf("%s: %s (at %d)", e.Kind, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an *Error with no position information.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At builds an *Error carrying a byte/rune offset.
func At(kind Kind, pos int, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos, HasPos: true}
}

// Wrap builds an *Error that chains to cause via errors.Unwrap.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Is reports whether err carries the given Kind, following wrapped
// errors via errors.As.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinel errors for use with errors.Is when no dynamic message or
// position is needed.
var (
	ErrNotFound    = New(NotFound, "not found")
	ErrInvalidData = New(InvalidData, "invalid data")
)
