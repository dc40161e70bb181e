package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// Marker prefixes the headline of every diagnostic error.
const Marker = "❌ ERROR in"

// Anonymous is the display name used for steps without a usable name.
const Anonymous = "anonymous"

// PipeError is the diagnostic error returned by pipelines that enable
// UsePipeError. It records where in the chain the failure happened and keeps
// the original error as Cause.
type PipeError struct {
	// Step is the display name of the failing step.
	Step string `json:"step"`
	// Index is the 1-based position of the failing step in the chain.
	Index int `json:"index"`
	// History lists the steps that completed before the failure, in order.
	History []string `json:"history"`
	// Pipeline is the configured pipeline name, if any.
	Pipeline string `json:"pipeline,omitempty"`
	// PipelineID identifies the pipeline run.
	PipelineID string `json:"pipeline_id"`
	// Mode is "sync" or "async".
	Mode string `json:"mode"`
	// Input is the value the failing step received.
	Input any `json:"-"`
	// Duration is how long the failing step ran.
	Duration time.Duration `json:"duration"`
	// Timestamp is when the failure was recorded.
	Timestamp time.Time `json:"timestamp"`
	// Cause is the original error produced by the step.
	Cause error `json:"-"`
}

// Error renders the multi-line diagnostic text. The first line is always
// `❌ ERROR in "<step>"`.
func (e *PipeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q", Marker, e.displayStep())
	if e.Cause != nil {
		fmt.Fprintf(&b, "\n    cause: %v", e.Cause)
	}
	if len(e.History) > 0 {
		fmt.Fprintf(&b, "\n    history: %s", strings.Join(e.History, " -> "))
	} else {
		b.WriteString("\n    history: (none)")
	}
	fmt.Fprintf(&b, "\n    at: step %d of %s pipeline", e.Index, e.modeOrDefault())
	if e.Pipeline != "" {
		fmt.Fprintf(&b, " %q", e.Pipeline)
	}
	if e.PipelineID != "" {
		fmt.Fprintf(&b, " (id %s)", e.PipelineID)
	}
	return b.String()
}

// Unwrap returns the original step error.
func (e *PipeError) Unwrap() error { return e.Cause }

// Trace returns the executed steps followed by the failing one, marked.
func (e *PipeError) Trace() []string {
	trace := make([]string, 0, len(e.History)+1)
	trace = append(trace, e.History...)
	return append(trace, e.displayStep()+" ✗")
}

// Code returns the code of the underlying *Error, or ErrCodeStepFailed for
// errors produced by user code.
func (e *PipeError) Code() ErrorCode {
	return StepCode(e.Cause)
}

func (e *PipeError) displayStep() string {
	if e.Step == "" {
		return Anonymous
	}
	return e.Step
}

func (e *PipeError) modeOrDefault() string {
	if e.Mode == "" {
		return "sync"
	}
	return e.Mode
}

// AsPipeError extracts a *PipeError from err.
func AsPipeError(err error) (*PipeError, bool) {
	var pe *PipeError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
