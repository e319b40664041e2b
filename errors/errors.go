// Package errors provides the structured error kinds used across screenkit
// and a process-wide handler for errors that cannot be returned to a caller,
// such as panics inside event listeners.
package errors

import (
	stderrors "errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind identifies the category of an error.
type Kind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown Kind = iota
	// KindInvalidArgument is a rejected argument, such as a negative size.
	KindInvalidArgument
	// KindListenerLifecycle is a misuse of listener handles.
	KindListenerLifecycle
	// KindDispatchCallback is a failure inside a listener callback.
	KindDispatchCallback
	// KindFocusProtocol is a broken focus invariant. It is fatal.
	KindFocusProtocol
	// KindNotImplemented is a missing override on an abstract base.
	KindNotImplemented
	// KindIO is a failure reading external resources (tiles, shapefiles, config).
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindListenerLifecycle:
		return "listener lifecycle"
	case KindDispatchCallback:
		return "dispatch callback"
	case KindFocusProtocol:
		return "focus protocol"
	case KindNotImplemented:
		return "not implemented"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a structured screenkit error.
type Error struct {
	// Op is the operation that failed (e.g. "element.SetWidth").
	Op string
	// Kind categorizes the error.
	Kind Kind
	// Err is the underlying error. It carries a stack trace; format the
	// Error with %+v to print it.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Format prints the underlying stack trace for %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s [%s]: %+v", e.Op, e.Kind, e.Err)
		return
	}
	fmt.Fprint(s, e.Error())
}

// New returns an Error of the given kind with a formatted message.
func New(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Err: pkgerrors.Errorf(format, args...)}
}

// Wrap returns an Error of the given kind wrapping err, or nil if err is nil.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: pkgerrors.WithStack(err)}
}

// InvalidArgument is shorthand for New(op, KindInvalidArgument, ...).
func InvalidArgument(op, format string, args ...any) *Error {
	return New(op, KindInvalidArgument, format, args...)
}

// Is reports whether any error in err's chain is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
