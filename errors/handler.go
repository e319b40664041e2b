package errors

import (
	"fmt"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/OpticalFlyer/screenkit/logging"
)

// Handler receives errors that have no caller to return to.
type Handler interface {
	HandleError(err *Error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(err *Error)

func (f HandlerFunc) HandleError(err *Error) { f(err) }

// LogHandler reports errors through the shared slog logger.
type LogHandler struct {
	// Verbose includes the stack trace in the record.
	Verbose bool
}

func (h *LogHandler) HandleError(err *Error) {
	attrs := []any{"op", err.Op, "kind", err.Kind.String(), "err", err.Err}
	if h.Verbose {
		attrs = append(attrs, "stack", fmt.Sprintf("%+v", err.Err))
	}
	logging.Logger().Error("screenkit error", attrs...)
}

var (
	handlerMu      sync.RWMutex
	defaultHandler Handler = &LogHandler{}
)

// SetHandler configures the global handler. Pass nil to restore LogHandler.
func SetHandler(h Handler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	if h == nil {
		h = &LogHandler{}
	}
	defaultHandler = h
}

func getHandler() Handler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return defaultHandler
}

// Report sends err to the global handler. Errors that are not *Error are
// wrapped with KindUnknown.
func Report(op string, err error) {
	if err == nil {
		return
	}
	e, ok := err.(*Error)
	if !ok {
		e = &Error{Op: op, Kind: KindUnknown, Err: pkgerrors.WithStack(err)}
	}
	getHandler().HandleError(e)
}

// Recover reports a panic as a dispatch callback error.
// Usage: defer errors.Recover("event.dispatch mouseDown")
func Recover(op string) {
	if r := recover(); r != nil {
		getHandler().HandleError(panicError(op, r))
	}
}

// RecoverWithCallback is like Recover but also hands the reported error to fn.
func RecoverWithCallback(op string, fn func(err *Error)) {
	if r := recover(); r != nil {
		e := panicError(op, r)
		getHandler().HandleError(e)
		if fn != nil {
			fn(e)
		}
	}
}

func panicError(op string, r any) *Error {
	var err error
	if re, ok := r.(error); ok {
		err = pkgerrors.WithStack(re)
	} else {
		err = pkgerrors.Errorf("panic: %v", r)
	}
	return &Error{Op: op, Kind: KindDispatchCallback, Err: err}
}
