package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/gopipe/config"
	"github.com/kbukum/gopipe/errors"
	"github.com/kbukum/gopipe/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
name: checkout
environment: production
pipeline:
  name: pricing
  use_pipe_error: true
  trace_steps: true
`)
	cfg, err := LoadConfig("checkout", config.WithConfigFile(path))
	require.NoError(t, err)

	assert.Equal(t, "checkout", cfg.Name)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, Config{Name: "pricing", UsePipeError: true, TraceSteps: true}, cfg.Pipeline)

	_, err = Sync(1, WithConfig(cfg.Pipeline)).Next(failWithCustomErr).Result()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `❌ ERROR in "failWithCustomErr"`)
	assert.Contains(t, err.Error(), `"pricing"`)
}

func TestFileConfig_Options(t *testing.T) {
	path := writeConfig(t, `
name: checkout
logging:
  level: warn
  format: json
pipeline:
  name: pricing
`)
	cfg, err := LoadConfig("checkout", config.WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)

	o := newOptions(cfg.Options())
	assert.Equal(t, "pricing", o.cfg.Name)
	require.NotNil(t, o.log)
	assert.False(t, o.log.Enabled(zerolog.DebugLevel))

	cfg.Pipeline.LogLevel = "debug"
	o = newOptions(cfg.Options())
	assert.True(t, o.log.Enabled(zerolog.DebugLevel))
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "name: checkout\npipeline:\n  use_pipe_error: false\n")
	t.Setenv("PIPELINE_USE_PIPE_ERROR", "true")

	cfg, err := LoadConfig("checkout", config.WithConfigFile(path))
	require.NoError(t, err)
	assert.True(t, cfg.Pipeline.UsePipeError)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "name: checkout\npipeline:\n  log_level: loud\n")

	_, err := LoadConfig("checkout", config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidConfig))
	assert.Contains(t, err.Error(), "pipeline.log_level")
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.NoError(t, (&Config{Name: "p", LogLevel: "debug"}).Validate())
	assert.Error(t, (&Config{LogLevel: "verbose"}).Validate())
}

func TestOptions_Defaults(t *testing.T) {
	o := newOptions(nil)
	assert.False(t, o.cfg.UsePipeError)
	assert.Equal(t, context.Background(), o.ctx)
	assert.NotNil(t, o.log)
	assert.Nil(t, o.tracer)
	assert.Nil(t, o.metrics)
}

func TestOptions_LaterOptionsWin(t *testing.T) {
	o := newOptions([]Option{
		WithConfig(Config{Name: "from-file", UsePipeError: true}),
		WithPipeError(false),
		WithName("override"),
		nil,
		WithContext(nil),
	})
	assert.False(t, o.cfg.UsePipeError)
	assert.Equal(t, "override", o.cfg.Name)
	assert.NotNil(t, o.ctx)
}

func TestOptions_InvalidConfigIsReported(t *testing.T) {
	l, buf := captureLogger(t)
	o := newOptions([]Option{WithLogger(l), WithConfig(Config{LogLevel: "verbose"})})
	assert.Equal(t, "verbose", o.cfg.LogLevel)

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "invalid pipeline config", lines[0]["message"])
	assert.Contains(t, lines[0][logger.FieldError], "log_level")

	buf.Reset()
	newOptions([]Option{WithLogger(l), WithConfig(Config{LogLevel: "debug"})})
	assert.Empty(t, buf.String())
}

func TestOptions_DisabledLogLevelDiscards(t *testing.T) {
	o := newOptions([]Option{WithConfig(Config{LogLevel: "disabled"})})
	assert.False(t, o.log.Enabled(zerolog.ErrorLevel))

	_, err := Sync(1, WithConfig(Config{LogLevel: "disabled"})).Next(add, 1).Log().Result()
	require.NoError(t, err)
}

func TestOptions_RegisteredLoggerByName(t *testing.T) {
	l, buf := captureLogger(t)
	logger.Register("billing", l)
	t.Cleanup(func() { logger.Unregister("billing") })

	_, err := Sync(2, WithName("billing")).Next(add, 2).Log().Result()
	require.NoError(t, err)

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[PipeSync] add ->", lines[0]["message"])
	assert.Equal(t, "billing", lines[0][logger.FieldPipeline])
}
