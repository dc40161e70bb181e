package errors

import (
	stderrors "errors"
	"fmt"
	"runtime/debug"
)

// Error is the coded error type raised by the pipeline machinery itself.
type Error struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// --- Common Error Constructors ---

// InvalidStep creates an Error for a step that cannot be invoked.
func InvalidStep(step, reason string) *Error {
	return &Error{
		Code:    ErrCodeInvalidStep,
		Message: fmt.Sprintf("step %q is not usable: %s", step, reason),
		Details: map[string]any{"step": step},
	}
}

// ArgumentMismatch creates an Error for an argument that does not fit the
// step parameter at position index.
func ArgumentMismatch(step string, index int, want, got string) *Error {
	return &Error{
		Code:    ErrCodeArgumentMismatch,
		Message: fmt.Sprintf("step %q argument %d: cannot use %s as %s", step, index, got, want),
		Details: map[string]any{"step": step, "index": index, "want": want, "got": got},
	}
}

// Arity creates an Error for a call with the wrong number of arguments.
func Arity(step string, want, got int, variadic bool) *Error {
	expect := fmt.Sprintf("%d", want)
	if variadic {
		expect = fmt.Sprintf("at least %d", want)
	}
	return &Error{
		Code:    ErrCodeArgumentMismatch,
		Message: fmt.Sprintf("step %q expects %s arguments, got %d", step, expect, got),
		Details: map[string]any{"step": step, "want": want, "got": got},
	}
}

// StepPanic creates an Error from a value recovered from a panicking step.
// A recovered error value becomes the cause.
func StepPanic(step string, recovered any) *Error {
	e := &Error{
		Code:    ErrCodeStepPanic,
		Message: fmt.Sprintf("step %q panicked: %v", step, recovered),
		Details: map[string]any{"step": step, "stack": string(debug.Stack())},
	}
	if err, ok := recovered.(error); ok {
		e.Cause = err
	}
	return e
}

// ResultType creates an Error for a final value that is not of the requested type.
func ResultType(want, got string) *Error {
	return &Error{
		Code:    ErrCodeResultType,
		Message: fmt.Sprintf("pipeline result is %s, not %s", got, want),
		Details: map[string]any{"want": want, "got": got},
	}
}

// InvalidConfig creates an Error for a configuration that failed validation.
func InvalidConfig(message string) *Error {
	return &Error{Code: ErrCodeInvalidConfig, Message: message}
}

// IsError checks if an error is, or wraps, an *Error.
func IsError(err error) bool {
	var e *Error
	return stderrors.As(err, &e)
}

// AsError converts an error to an *Error if possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err is, or wraps, an *Error carrying code.
func IsCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}
