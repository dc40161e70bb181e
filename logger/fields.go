package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldService       = "service"
	FieldComponent     = "component"
	FieldTraceID       = "trace_id"
	FieldSpanID        = "span_id"
	FieldCorrelationID = "correlation_id"
	FieldPipeline      = "pipeline"
	FieldPipelineID    = "pipeline_id"
	FieldMode          = "mode"
	FieldStep          = "step"
	FieldStepIndex     = "step_index"
	FieldValue         = "value"
	FieldHistory       = "history"
	FieldStatus        = "status"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Debug("[PipeSync] add ->", logger.Fields("value", 8))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// DurationFields creates fields for a timed step.
func DurationFields(step string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldStep:     step,
		FieldDuration: d.Milliseconds(),
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldError] = err.Error()
	return fields
}
