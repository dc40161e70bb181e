// Package errors provides the error types produced by gopipe pipelines.
//
// Two types live here:
//
//   - Error: a coded library error raised by the pipeline itself (a malformed
//     step, an argument that does not fit the step signature, a recovered
//     panic, an invalid configuration).
//   - PipeError: the diagnostic wrapper returned by pipelines created with
//     UsePipeError enabled. It records the failing step, the steps that ran
//     before it and keeps the original error as its cause.
//
// Both types implement Unwrap, so errors.Is and errors.As from the standard
// library see through them.
package errors
