package types

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindConfig ErrorKind = iota + 1
	KindTransition
	KindDispatch
	KindObserver
	KindUnsupportedAction
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransition:
		return "transition"
	case KindDispatch:
		return "dispatch"
	case KindObserver:
		return "observer"
	case KindUnsupportedAction:
		return "unsupported-action"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrConfig            = &Error{Kind: KindConfig}
	ErrTransition        = &Error{Kind: KindTransition}
	ErrDispatch          = &Error{Kind: KindDispatch}
	ErrObserver          = &Error{Kind: KindObserver}
	ErrUnsupportedAction = &Error{Kind: KindUnsupportedAction}
)

// Error is the structured error returned by every HMI operation
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String() + " error"
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind, so callers can test against the
// package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Op == "" && t.Msg == ""
}

func newError(kind ErrorKind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

func ConfigErrorf(op, format string, args ...any) error {
	return newError(KindConfig, op, nil, format, args...)
}

func TransitionErrorf(op, format string, args ...any) error {
	return newError(KindTransition, op, nil, format, args...)
}

func DispatchError(op string, err error, format string, args ...any) error {
	return newError(KindDispatch, op, err, format, args...)
}

func ObserverError(op string, err error, format string, args ...any) error {
	return newError(KindObserver, op, err, format, args...)
}

func UnsupportedActionErrorf(op, format string, args ...any) error {
	return newError(KindUnsupportedAction, op, nil, format, args...)
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// IsRejected reports whether err means the request was invalid and nothing
// was attempted.
func IsRejected(err error) bool {
	return IsKind(err, KindConfig) || IsKind(err, KindTransition) || IsKind(err, KindUnsupportedAction)
}
