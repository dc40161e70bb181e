// Package observability provides OpenTelemetry tracing and metrics for
// pipeline steps.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartStepSpan(ctx, nil, "checkout", "add", 1)
//	defer observability.EndStepSpan(span, err)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewStepMetrics(observability.Meter("my-service"))
//	metrics.RecordStep(ctx, "checkout", "add", observability.StatusOK, duration)
package observability
