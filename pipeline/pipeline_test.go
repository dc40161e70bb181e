package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbukum/gopipe/logger"
)

func add(x, y int) int      { return x + y }
func multiply(x, y int) int { return x * y }

func concat(s string, parts ...string) string {
	return s + strings.Join(parts, "")
}

func divide(x, y int) (int, error) {
	if y == 0 {
		return 0, &CustomErr{msg: "division by zero"}
	}
	return x / y, nil
}

func explode(_ int) int {
	panic("boom")
}

// CustomErr is a step error type used to check that failures pass through
// untouched.
type CustomErr struct{ msg string }

func (e *CustomErr) Error() string { return e.msg }

func failWithCustomErr(_ int) (int, error) {
	return 0, &CustomErr{msg: "msg"}
}

// captureLogger returns a debug JSON logger writing into a buffer.
func captureLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf), &buf
}

// logLines decodes every JSON line in buf, keeping only those whose message
// is not a step diagnostic.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &m), "line %q", raw)
		if m["message"] == "step failed" {
			continue
		}
		lines = append(lines, m)
	}
	return lines
}
