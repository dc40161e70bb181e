// Package pipeline provides fluent builders that thread a value through a
// chain of step functions.
//
// A step is any function whose first parameter receives the current value
// and whose remaining parameters receive the extra arguments passed to Next.
// A step returns the new value, a (value, error) pair, or just an error, in
// which case the value passes through unchanged. A leading context.Context
// parameter receives the pipeline context.
//
// # Synchronous pipelines
//
//	func add(x, y int) int      { return x + y }
//	func multiply(x, y int) int { return x * y }
//
//	v, err := pipeline.Sync(5).
//		Next(add, 3).
//		Next(multiply, 2).
//		Log().
//		Result() // 16, nil
//
// # Asynchronous pipelines
//
// Async steps return an Awaiter, usually a *Future built with Go. The async
// pipeline waits for it before the next step runs:
//
//	fetch := func(id string) *pipeline.Future {
//		return pipeline.Go(func() (any, error) { return store.Get(id) })
//	}
//	v, err := pipeline.Async("user-42").Next(fetch).Next(render).Result(ctx)
//
// # Failures
//
// The first failing step stops the chain; later steps never run and Result
// returns the error. By default it is the step's own error. WithPipeError
// wraps it in an *errors.PipeError whose text starts with
//
//	❌ ERROR in "<step>"
//
// followed by the steps that completed before it. Panics become STEP_PANIC
// errors, and steps that cannot be called with the given arguments fail with
// INVALID_STEP or ARGUMENT_MISMATCH.
//
// Step names come from the function symbol. Closures show as "anonymous"
// unless wrapped with Named.
//
// # Observability
//
// Log writes the current value at debug level through the logger package.
// WithTracer (or Config.TraceSteps) records one span per step and
// WithMetrics records step counts, durations and failures.
package pipeline
