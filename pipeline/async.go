package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/gopipe/util"
)

// AsyncPipe is an asynchronous pipeline. Next and Log return immediately
// with a new instance; steps run one after another on background goroutines.
// Steps may be plain functions or return an Awaiter such as *Future, which
// is awaited before the next step starts.
//
//	v, err := pipeline.Async(5).
//		Next(fetchRate).
//		Next(multiply, 2).
//		Log().
//		Result(ctx)
//
// Instances are immutable once settled and may be awaited from several
// goroutines.
type AsyncPipe struct {
	st       *state
	done     chan struct{}
	value    any
	lastStep string
	history  []string
	index    int
	err      error
}

// Async starts an asynchronous pipeline. initial may be a plain value or an
// Awaiter, which is awaited first; its rejection becomes the pipeline error
// without a step wrapper.
func Async(initial any, opts ...Option) *AsyncPipe {
	p := &AsyncPipe{st: newState(ModeAsync, opts), done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.value, p.err = settle(p.st.ctx, initial)
	}()
	return p
}

// Next schedules fn to run on the settled value of p, followed by args.
func (p *AsyncPipe) Next(fn any, args ...any) *AsyncPipe {
	step := stepOf(fn)
	next := p.derive()
	go func() {
		defer close(next.done)
		<-p.done
		next.inherit(p)
		if p.err != nil {
			p.st.recordSkipped(step)
			return
		}

		next.index = p.index + 1
		next.lastStep = step.DisplayName()
		out, err := p.st.run(step, next.index, p.value, args, p.history)
		if err != nil {
			next.value, next.err = nil, err
			return
		}
		next.value = out
		next.history = append(util.Clone(p.history), next.lastStep)
	}()
	return next
}

// Log writes the settled value at debug level. The label defaults to
// "[PipeAsync] <last step> ->", or "[PipeAsync] INITIAL ->" before the first
// step. A failed pipe logs nothing.
func (p *AsyncPipe) Log(label ...string) *AsyncPipe {
	next := p.derive()
	go func() {
		defer close(next.done)
		<-p.done
		next.inherit(p)
		if p.err == nil {
			p.st.print(p.lastStep, p.value, label)
		}
	}()
	return next
}

// Await waits until every scheduled step has settled and returns the
// pipeline, ready for further chaining, or the failure. ctx bounds the wait
// only; a running step is not interrupted.
func (p *AsyncPipe) Await(ctx context.Context) (*AsyncPipe, error) {
	select {
	case <-p.done:
		if p.err != nil {
			return nil, p.err
		}
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result waits for the final value, or the error of the step that failed.
func (p *AsyncPipe) Result(ctx context.Context) (any, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	p.st.recordPipeline(p.err)
	if p.err != nil {
		return nil, p.err
	}
	return p.value, nil
}

// Done is closed once every scheduled step has settled.
func (p *AsyncPipe) Done() <-chan struct{} { return p.done }

// History returns the names of the completed steps, or nil while steps are
// still pending.
func (p *AsyncPipe) History() []string {
	if !p.settled() {
		return nil
	}
	return util.Clone(p.history)
}

// ID identifies this pipeline run in logs, spans and diagnostic errors.
func (p *AsyncPipe) ID() uuid.UUID { return p.st.id }

// AsyncResultAs waits for the final value of p as a T.
func AsyncResultAs[T any](ctx context.Context, p *AsyncPipe) (T, error) {
	v, err := p.Result(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v)
}

func (p *AsyncPipe) derive() *AsyncPipe {
	return &AsyncPipe{st: p.st, done: make(chan struct{})}
}

// inherit copies the settled state of prev. History is shared, never
// appended to in place.
func (p *AsyncPipe) inherit(prev *AsyncPipe) {
	p.value = prev.value
	p.lastStep = prev.lastStep
	p.history = prev.history
	p.index = prev.index
	p.err = prev.err
}

func (p *AsyncPipe) settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
