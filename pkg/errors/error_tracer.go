package errors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// ErrorTracer annotates an error with a message and the stack of the point it was wrapped at.
// Error returns only the annotation; Cause reaches the root.
type ErrorTracer struct {
	Message string
	Err     error
}

// StackTracer is an interface that requires a StackTrace method.
type StackTracer interface {
	StackTrace() errors.StackTrace
}

// NewTracer creates a new ErrorTracer with the provided message.
func NewTracer(message string) *ErrorTracer {
	return &ErrorTracer{
		Message: message,
	}
}

// TracerFromError wraps err in a tracer that reuses err's message.
func TracerFromError(err error) *ErrorTracer {
	return NewTracer(err.Error()).Wrap(err)
}

// Wrap sets err as the traced error, recording a stack unless err already carries one.
func (e *ErrorTracer) Wrap(err error) *ErrorTracer {
	if _, ok := err.(StackTracer); !ok {
		err = errors.WithStack(err)
	}
	e.Err = err
	return e
}

func (e *ErrorTracer) Error() string {
	return e.Message
}

func (e *ErrorTracer) Unwrap() error {
	return e.Err
}

// Cause returns the innermost error of the chain, or nil for a tracer that wraps nothing.
func (e *ErrorTracer) Cause() error {
	var cause error
	for err := e.Err; err != nil; err = stderrors.Unwrap(err) {
		cause = err
	}
	return cause
}

// StackTrace returns the stack recorded by Wrap.
func (e *ErrorTracer) StackTrace() errors.StackTrace {
	if st, ok := e.Err.(StackTracer); ok {
		return st.StackTrace()
	}
	return nil
}
