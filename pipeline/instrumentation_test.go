package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/gopipe/errors"
	"github.com/kbukum/gopipe/logger"
	"github.com/kbukum/gopipe/observability"
)

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder, tp
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestSync_TracesEachStep(t *testing.T) {
	recorder, tp := newRecorder(t)

	p := Sync(5, WithTracer(tp.Tracer("test")), WithName("pricing")).
		Next(add, 3).
		Next(divide, 0).
		Next(multiply, 2)
	_, err := p.Result()
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2, "skipped steps must not open spans")

	assert.Equal(t, observability.SpanStep+" add", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	first := spanAttrs(spans[0])
	assert.Equal(t, "pricing", first[observability.AttrPipelineName].AsString())
	assert.Equal(t, p.ID().String(), first[observability.AttrPipelineID].AsString())
	assert.Equal(t, int64(1), first[observability.AttrStepIndex].AsInt64())

	assert.Equal(t, observability.SpanStep+" divide", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "division by zero", spans[1].Status().Description)
}

func TestAsync_StepSpanCoversAwait(t *testing.T) {
	recorder, tp := newRecorder(t)

	_, err := Async(5, WithTracer(tp.Tracer("test"))).
		Next(addAsync, 3).
		Next(multiplyAsync, 2).
		Result(context.Background())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, observability.SpanStep+" addAsync", spans[0].Name())
	assert.Equal(t, observability.SpanStep+" multiplyAsync", spans[1].Name())
	assert.Equal(t, DefaultName, spanAttrs(spans[0])[observability.AttrPipelineName].AsString())
}

func TestSync_StepReceivesSpanContext(t *testing.T) {
	_, tp := newRecorder(t)

	var sawSpan bool
	inspect := func(ctx context.Context, x int) int {
		sawSpan = observability.SpanFromContext(ctx).SpanContext().IsValid()
		return x
	}
	_, err := Sync(1, WithTracer(tp.Tracer("test"))).Next(inspect).Result()
	require.NoError(t, err)
	assert.True(t, sawSpan)
}

func TestSync_FailureLogCarriesTraceIDs(t *testing.T) {
	_, tp := newRecorder(t)
	log, buf := captureLogger(t)

	_, err := Sync(4, WithTracer(tp.Tracer("test")), WithLogger(log)).Next(divide, 0).Result()
	require.Error(t, err)

	var failure map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &failure))
	assert.Equal(t, "step failed", failure["message"])
	assert.Equal(t, "divide", failure[logger.FieldStep])
	assert.NotEmpty(t, failure[logger.FieldTraceID])
	assert.NotEmpty(t, failure[logger.FieldSpanID])
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			byStatus := map[string]int64{}
			for _, dp := range sum.DataPoints {
				key := "total"
				if v, ok := dp.Attributes.Value(attribute.Key(observability.AttrStatus)); ok {
					key = v.AsString()
				}
				if v, ok := dp.Attributes.Value(attribute.Key(observability.AttrErrorCode)); ok {
					key = v.AsString()
				}
				byStatus[key] += dp.Value
			}
			out[m.Name] = byStatus
		}
	}
	return out
}

func TestPipeline_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := observability.NewStepMetrics(mp.Meter("test"))
	require.NoError(t, err)

	_, err = Sync(5, WithMetrics(metrics)).Next(add, 3).Next(multiply, 2).Result()
	require.NoError(t, err)
	_, err = Sync(5, WithMetrics(metrics)).Next(add, 3).Next(explode).Next(add, 1).Result()
	require.Error(t, err)
	_, err = Async(5, WithMetrics(metrics)).Next(addAsync, 3).Result(context.Background())
	require.NoError(t, err)

	sums := collectSums(t, reader)
	steps := sums["pipeline.step.total"]
	assert.Equal(t, int64(4), steps[observability.StatusOK])
	assert.Equal(t, int64(1), steps[observability.StatusError])
	assert.Equal(t, int64(1), steps[observability.StatusSkipped])

	assert.Equal(t, int64(1), sums["pipeline.failure.total"]["STEP_PANIC"])

	pipelines := sums["pipeline.total"]
	assert.Equal(t, int64(2), pipelines[observability.StatusOK])
	assert.Equal(t, int64(1), pipelines[observability.StatusError])
}

func newTestMetrics(t *testing.T) (*observability.StepMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := observability.NewStepMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

func TestPipeline_CountsEachRunOnce(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	p := Sync(5, WithMetrics(metrics)).Next(add, 3)
	for i := 0; i < 3; i++ {
		_, err := p.Result()
		require.NoError(t, err)
	}

	ap := Async(5, WithMetrics(metrics)).Next(addAsync, 3)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ap.Result(context.Background())
		}()
	}
	wg.Wait()
	_, err := ap.Next(multiplyAsync, 2).Result(context.Background())
	require.NoError(t, err)

	pipelines := collectSums(t, reader)["pipeline.total"]
	assert.Equal(t, int64(2), pipelines[observability.StatusOK])
}

func TestPipeline_FailureCodeForPassedAlongErrors(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	reject := func(int) error { return errors.InvalidConfig("tenant missing") }
	_, err := Sync(1, WithMetrics(metrics)).Next(reject).Result()
	require.Error(t, err)
	_, err = Sync(1, WithMetrics(metrics)).Next("not a func").Result()
	require.Error(t, err)

	failures := collectSums(t, reader)["pipeline.failure.total"]
	assert.Equal(t, int64(1), failures[string(errors.ErrCodeStepFailed)])
	assert.Equal(t, int64(1), failures[string(errors.ErrCodeInvalidStep)])
	assert.Zero(t, failures[string(errors.ErrCodeInvalidConfig)])
}

func TestConfig_TraceStepsUsesGlobalTracer(t *testing.T) {
	p := Sync(1, WithConfig(Config{TraceSteps: true}))
	assert.NotNil(t, p.st.opts.tracer)

	p = Sync(1)
	assert.Nil(t, p.st.opts.tracer)
}
