package pipeline

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/kbukum/gopipe/errors"
	"github.com/kbukum/gopipe/util"
)

// SyncPipe is a synchronous pipeline. Every method returns the same
// instance, so calls chain:
//
//	v, err := pipeline.Sync(5).Next(add, 3).Next(multiply, 2).Log().Result()
//
// Once a step fails the pipe is terminal: later steps are skipped and Result
// returns the error. A SyncPipe is not safe for concurrent use.
type SyncPipe struct {
	st       *state
	value    any
	lastStep string
	history  []string
	index    int
	err      error
}

// Sync starts a synchronous pipeline holding initial.
func Sync(initial any, opts ...Option) *SyncPipe {
	return &SyncPipe{st: newState(ModeSync, opts), value: initial}
}

// Next runs fn with the current value as its first argument, followed by
// args, and keeps the result as the new value. fn may be a func or a Step
// built with Named.
func (p *SyncPipe) Next(fn any, args ...any) *SyncPipe {
	step := stepOf(fn)
	if p.err != nil {
		p.st.recordSkipped(step)
		return p
	}

	p.index++
	p.lastStep = step.DisplayName()
	out, err := p.st.run(step, p.index, p.value, args, p.history)
	if err != nil {
		p.err = err
		p.value = nil
		return p
	}
	p.value = out
	p.history = append(p.history, p.lastStep)
	return p
}

// Log writes the current value at debug level. The label defaults to
// "[PipeSync] <last step> ->", or "[PipeSync] INITIAL ->" before the first
// step. A failed pipe logs nothing.
func (p *SyncPipe) Log(label ...string) *SyncPipe {
	if p.err == nil {
		p.st.print(p.lastStep, p.value, label)
	}
	return p
}

// Result returns the final value, or the error of the step that failed.
func (p *SyncPipe) Result() (any, error) {
	p.st.recordPipeline(p.err)
	if p.err != nil {
		return nil, p.err
	}
	return p.value, nil
}

// Err returns the stored failure, if any.
func (p *SyncPipe) Err() error { return p.err }

// History returns the names of the steps that completed, in order.
func (p *SyncPipe) History() []string { return util.Clone(p.history) }

// LastStep returns the display name of the last step that ran.
func (p *SyncPipe) LastStep() string { return p.lastStep }

// ID identifies this pipeline run in logs, spans and diagnostic errors.
func (p *SyncPipe) ID() uuid.UUID { return p.st.id }

// ResultAs returns the final value of p as a T.
func ResultAs[T any](p *SyncPipe) (T, error) {
	v, err := p.Result()
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v)
}

func as[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var zero T
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rv, ok := argValue(v, rt); ok {
		if t, ok := rv.Interface().(T); ok {
			return t, nil
		}
		return zero, nil
	}
	return zero, errors.ResultType(rt.String(), typeName(v))
}
