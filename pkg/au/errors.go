package au

import (
	"errors"
	"fmt"
)

// ErrorKind classifies discovery failures.
type ErrorKind int

const (
	ErrInternal ErrorKind = iota
	ErrArgument
	ErrIO
	ErrParse
	ErrUnavailable
	ErrNoMatch
)

func (k ErrorKind) String() string {
	switch k {
	case ErrArgument:
		return "invalid argument"
	case ErrIO:
		return "i/o error"
	case ErrParse:
		return "parse error"
	case ErrUnavailable:
		return "backend unavailable"
	case ErrNoMatch:
		return "no match"
	default:
		return "internal error"
	}
}

// Error is the typed failure returned by discovery operations.
type Error struct {
	Kind    ErrorKind
	Path    string
	Backend string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Backend != "" {
		msg = fmt.Sprintf("%s: %s", e.Backend, msg)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
