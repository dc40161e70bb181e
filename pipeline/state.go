package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/gopipe/errors"
	"github.com/kbukum/gopipe/logger"
	"github.com/kbukum/gopipe/observability"
	"github.com/kbukum/gopipe/util"
)

// state is shared by every instance of one pipeline run. ctx is the
// configured context carrying the run id; steps receive it or a span child.
type state struct {
	id   uuid.UUID
	mode string
	opts *options
	ctx  context.Context
	log  *logger.Logger

	finished sync.Once
}

func newState(mode string, opts []Option) *state {
	o := newOptions(opts)
	id := uuid.New()
	return &state{
		id:   id,
		mode: mode,
		opts: o,
		ctx:  logger.ContextWithPipelineID(o.ctx, id.String()),
		log: o.log.WithFields(logger.Fields(
			logger.FieldPipeline, util.Coalesce(o.cfg.Name, DefaultName),
			logger.FieldMode, mode,
		)),
	}
}

func (s *state) name() string {
	return util.Coalesce(s.opts.cfg.Name, DefaultName)
}

func (s *state) tag() string {
	if s.mode == ModeAsync {
		return asyncTag
	}
	return syncTag
}

// run executes step at 1-based index on input. Async pipelines also wait for
// an Awaiter result. Failures come back already wrapped.
func (s *state) run(step Step, index int, input any, args []any, history []string) (any, error) {
	name := step.DisplayName()
	ctx := s.ctx

	var span trace.Span
	if s.opts.tracer != nil {
		ctx, span = observability.StartStepSpan(ctx, s.opts.tracer, s.name(), name, index)
		observability.SetSpanAttribute(ctx, observability.AttrPipelineID, s.id.String())
	}

	start := time.Now()
	out, err := step.call(ctx, input, args)
	if err == nil && s.mode == ModeAsync {
		out, err = settle(ctx, out)
	}
	elapsed := time.Since(start)

	if span != nil {
		observability.EndStepSpan(span, err)
	}
	s.recordStep(ctx, name, err, elapsed)

	if err != nil {
		fields := logger.DurationFields(name, elapsed)
		fields[logger.FieldStepIndex] = index
		s.log.WithContext(ctx).Debug("step failed", logger.MergeWithError(fields, err))
		return nil, s.wrap(err, name, index, input, history, elapsed)
	}
	return out, nil
}

// wrap applies the UsePipeError policy. Without it the original error is
// returned as the same instance.
func (s *state) wrap(err error, step string, index int, input any, history []string, elapsed time.Duration) error {
	if !s.opts.cfg.UsePipeError {
		return err
	}
	return &errors.PipeError{
		Step:       step,
		Index:      index,
		History:    util.Clone(history),
		Pipeline:   s.opts.cfg.Name,
		PipelineID: s.id.String(),
		Mode:       s.mode,
		Input:      input,
		Duration:   elapsed,
		Timestamp:  time.Now(),
		Cause:      err,
	}
}

func (s *state) recordStep(ctx context.Context, step string, err error, elapsed time.Duration) {
	m := s.opts.metrics
	if m == nil {
		return
	}
	if err == nil {
		m.RecordStep(ctx, s.name(), step, observability.StatusOK, elapsed)
		return
	}
	m.RecordStep(ctx, s.name(), step, observability.StatusError, elapsed)
	m.RecordFailure(ctx, s.name(), step, string(errors.StepCode(err)))
}

func (s *state) recordSkipped(step Step) {
	if s.opts.metrics != nil {
		s.opts.metrics.RecordStep(s.ctx, s.name(), step.DisplayName(), observability.StatusSkipped, 0)
	}
}

// recordPipeline counts the run once, on the first Result call, however
// many callers or instances of the run ask for it.
func (s *state) recordPipeline(err error) {
	if s.opts.metrics == nil {
		return
	}
	s.finished.Do(func() {
		status := observability.StatusOK
		if err != nil {
			status = observability.StatusError
		}
		s.opts.metrics.RecordPipeline(s.ctx, s.name(), s.mode, status)
	})
}

// print writes the debug line for Log. It never fails and never touches the
// pipeline value.
func (s *state) print(lastStep string, value any, label []string) {
	msg := fmt.Sprintf("%s %s ->", s.tag(), util.Coalesce(lastStep, InitialLabel))
	if len(label) > 0 && label[0] != "" {
		msg = label[0]
	}
	defer func() { _ = recover() }()
	s.log.WithContext(s.ctx).Debug(msg, logger.Fields(
		logger.FieldStep, util.Coalesce(lastStep, InitialLabel),
		logger.FieldValue, value,
	))
}
