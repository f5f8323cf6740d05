package analysis

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by this package wraps exactly one of
// them, so callers can branch with errors.Is.
var (
	ErrNotFound            = errors.New("column not found")
	ErrInvalidType         = errors.New("invalid column type")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnsupportedCategory = errors.New("unsupported category")
)

// Error carries the kind of failure plus the column it concerns.
type Error struct {
	Kind   error
	Column string
	Detail string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Column != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Column)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, column, format string, args ...any) *Error {
	return &Error{Kind: kind, Column: column, Detail: fmt.Sprintf(format, args...)}
}
