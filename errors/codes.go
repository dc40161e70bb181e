package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Step errors
const (
	// ErrCodeInvalidStep indicates the step is not a callable of a supported shape.
	ErrCodeInvalidStep ErrorCode = "INVALID_STEP"
	// ErrCodeArgumentMismatch indicates the threaded value or an extra argument
	// does not fit the step's declared parameters.
	ErrCodeArgumentMismatch ErrorCode = "ARGUMENT_MISMATCH"
	// ErrCodeStepPanic indicates the step panicked and the panic was recovered.
	ErrCodeStepPanic ErrorCode = "STEP_PANIC"
	// ErrCodeStepFailed indicates the step returned or rejected with an error.
	ErrCodeStepFailed ErrorCode = "STEP_FAILED"
	// ErrCodeResultType indicates the final value does not have the requested type.
	ErrCodeResultType ErrorCode = "RESULT_TYPE_MISMATCH"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates the pipeline configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

var stepCodes = map[ErrorCode]bool{
	ErrCodeInvalidStep:      true,
	ErrCodeArgumentMismatch: true,
	ErrCodeStepPanic:        true,
	ErrCodeStepFailed:       true,
}

// IsStepCode returns true if the code describes a failure raised while
// executing a single step.
func IsStepCode(code ErrorCode) bool {
	return stepCodes[code]
}

// StepCode returns the step code carried by err, looking through wrappers.
// Errors without one, including coded errors from outside step execution
// that a step merely passed along, count as STEP_FAILED.
func StepCode(err error) ErrorCode {
	if e, ok := AsError(err); ok && IsStepCode(e.Code) {
		return e.Code
	}
	return ErrCodeStepFailed
}
