package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/gopipe/logger"
	"github.com/kbukum/gopipe/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) *MeterConfig {
	return &MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Get().Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// StepMetrics holds the instruments recorded for pipeline steps.
type StepMetrics struct {
	stepTotal     metric.Int64Counter
	stepDuration  metric.Float64Histogram
	pipelineTotal metric.Int64Counter
	failureTotal  metric.Int64Counter
}

// NewStepMetrics creates metric instruments on the given meter.
func NewStepMetrics(meter metric.Meter) (*StepMetrics, error) {
	stepTotal, err := meter.Int64Counter("pipeline.step.total",
		metric.WithDescription("Total number of executed pipeline steps"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.step.total counter: %w", err)
	}

	stepDuration, err := meter.Float64Histogram("pipeline.step.duration",
		metric.WithDescription("Duration of pipeline steps in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.step.duration histogram: %w", err)
	}

	pipelineTotal, err := meter.Int64Counter("pipeline.total",
		metric.WithDescription("Total number of finalized pipelines"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.total counter: %w", err)
	}

	failureTotal, err := meter.Int64Counter("pipeline.failure.total",
		metric.WithDescription("Total step failures by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.failure.total counter: %w", err)
	}

	return &StepMetrics{
		stepTotal:     stepTotal,
		stepDuration:  stepDuration,
		pipelineTotal: pipelineTotal,
		failureTotal:  failureTotal,
	}, nil
}

// RecordStep records one step execution.
func (m *StepMetrics) RecordStep(ctx context.Context, pipeline, step, status string, duration time.Duration) {
	m.stepTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrPipelineName, pipeline),
		attribute.String(AttrStepName, step),
		attribute.String(AttrStatus, status),
	))
	m.stepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrPipelineName, pipeline),
		attribute.String(AttrStepName, step),
	))
}

// RecordFailure records a step failure by error code.
func (m *StepMetrics) RecordFailure(ctx context.Context, pipeline, step, code string) {
	m.failureTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrPipelineName, pipeline),
		attribute.String(AttrStepName, step),
		attribute.String(AttrErrorCode, code),
	))
}

// RecordPipeline records a finalized pipeline with its outcome.
func (m *StepMetrics) RecordPipeline(ctx context.Context, pipeline, mode, status string) {
	m.pipelineTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrPipelineName, pipeline),
		attribute.String("mode", mode),
		attribute.String(AttrStatus, status),
	))
}
