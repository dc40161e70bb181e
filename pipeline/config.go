package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/gopipe/config"
	"github.com/kbukum/gopipe/logger"
	"github.com/kbukum/gopipe/observability"
	"github.com/kbukum/gopipe/validation"
)

// Execution modes reported in logs, spans and diagnostic errors.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// InitialLabel names the pipeline position before any step has run.
const InitialLabel = "INITIAL"

// DefaultName is used in telemetry when a pipeline has no configured name.
const DefaultName = "pipeline"

const (
	syncTag  = "[PipeSync]"
	asyncTag = "[PipeAsync]"
)

// Config holds pipeline settings. The zero value is a valid configuration:
// the original step error is returned unchanged and nothing is traced.
type Config struct {
	// UsePipeError wraps step failures in a diagnostic *errors.PipeError.
	UsePipeError bool `yaml:"use_pipe_error" mapstructure:"use_pipe_error"`
	// Name identifies the pipeline in logs, spans and metrics.
	Name string `yaml:"name" mapstructure:"name" validate:"omitempty,max=64"`
	// TraceSteps starts a span per step on the global tracer provider when no
	// tracer is supplied with WithTracer.
	TraceSteps bool `yaml:"trace_steps" mapstructure:"trace_steps"`
	// LogLevel gives the pipeline its own console logger at this level.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=trace debug info warn error disabled"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// FileConfig is the document loaded by LoadConfig: the common service
// settings plus a pipeline section.
//
//	name: checkout
//	environment: production
//	pipeline:
//	  name: pricing
//	  use_pipe_error: true
type FileConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pipeline             Config `yaml:"pipeline" mapstructure:"pipeline"`
}

// ApplyDefaults fills unset service settings.
func (c *FileConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
}

// Validate checks the service settings and the pipeline section.
func (c *FileConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return c.Pipeline.Validate()
}

// Options turns the loaded file into pipeline options. Unless the pipeline
// section sets its own log_level, Log lines go to a logger built from the
// logging section.
func (c *FileConfig) Options() []Option {
	opts := []Option{WithConfig(c.Pipeline)}
	if c.Pipeline.LogLevel == "" {
		l := logger.New(&c.Logging, c.Name).WithComponent(DefaultName)
		opts = append(opts, WithLogger(l))
	}
	return opts
}

// LoadConfig loads a FileConfig for serviceName from YAML, .env and the
// environment (PIPELINE_USE_PIPE_ERROR=true maps to pipeline.use_pipe_error).
func LoadConfig(serviceName string, opts ...config.LoaderOption) (*FileConfig, error) {
	cfg := &FileConfig{}
	if err := config.Load(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Option configures a pipeline.
type Option func(*options)

type options struct {
	cfg     Config
	ctx     context.Context
	log     *logger.Logger
	tracer  trace.Tracer
	metrics *observability.StepMetrics
}

// WithPipeError toggles wrapping of step failures in *errors.PipeError.
func WithPipeError(enabled bool) Option {
	return func(o *options) { o.cfg.UsePipeError = enabled }
}

// WithName names the pipeline.
func WithName(name string) Option {
	return func(o *options) { o.cfg.Name = name }
}

// WithConfig replaces the whole configuration. Options applied after it
// still override individual fields. The result is validated when the pipe
// is created; failures are logged as a warning, not returned.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithContext sets the context handed to steps that accept one.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithLogger sets the logger used by Log and step diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithTracer records a span per step on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// WithMetrics records step and pipeline metrics.
func WithMetrics(m *observability.StepMetrics) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(opts []Option) *options {
	o := &options{ctx: context.Background()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.log == nil {
		o.log = defaultLogger(&o.cfg)
	}
	// Options are not rejected; an invalid value falls back to its default.
	if err := o.cfg.Validate(); err != nil {
		o.log.Warn("invalid pipeline config", logger.Fields(logger.FieldError, err.Error()))
	}
	if o.tracer == nil && o.cfg.TraceSteps {
		o.tracer = observability.Tracer(DefaultName)
	}
	return o
}

// defaultLogger prefers a logger registered under the pipeline name, then a
// dedicated console logger when LogLevel is set ("disabled" discards
// everything), then the shared component logger.
func defaultLogger(cfg *Config) *logger.Logger {
	if cfg.Name != "" {
		if l, ok := logger.Lookup(cfg.Name); ok {
			return l
		}
	}
	if cfg.LogLevel == "disabled" {
		return logger.Nop()
	}
	if cfg.LogLevel != "" {
		lc := &logger.Config{Level: cfg.LogLevel, Format: logger.FormatConsole, Output: "stderr", Timestamp: true}
		return logger.New(lc, DefaultName)
	}
	return logger.Get(DefaultName)
}
