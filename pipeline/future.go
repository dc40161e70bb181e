package pipeline

import (
	"context"

	"github.com/kbukum/gopipe/errors"
	"github.com/kbukum/gopipe/util"
)

// Awaiter is a value that settles later. Async steps return one and the
// async pipeline waits for it before running the next step.
type Awaiter interface {
	Await(ctx context.Context) (any, error)
}

// Future is a value computed on its own goroutine.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

// Go runs fn on a new goroutine and returns its Future. A panic in fn
// rejects the future with a STEP_PANIC error.
func Go(fn func() (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.value, f.err = nil, errors.StepPanic("future", r)
			}
		}()
		f.value, f.err = fn()
	}()
	return f
}

// Resolved returns a settled Future holding v.
func Resolved(v any) *Future {
	f := &Future{done: make(chan struct{}), value: v}
	close(f.done)
	return f
}

// Rejected returns a settled Future holding err.
func Rejected(err error) *Future {
	f := &Future{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Await blocks until the future settles or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// settle waits for v when it is an Awaiter or a nested async pipeline. A
// panicking Await is reported as STEP_PANIC.
func settle(ctx context.Context, v any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errors.StepPanic("await", r)
		}
	}()
	switch a := v.(type) {
	case *AsyncPipe:
		if a == nil {
			return nil, nil
		}
		return a.Result(ctx)
	case Awaiter:
		if util.IsNil(a) {
			return nil, nil
		}
		return a.Await(ctx)
	}
	return v, nil
}
