package logger

import "time"

// Field keys shared across packages so log queries can rely on them.
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldRequestID = "request_id"
	FieldOperation = "operation"
	FieldStage     = "stage"
	FieldOutcome   = "outcome"
	FieldModel     = "model"
	FieldDevice    = "device"
	FieldLanguage  = "language"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields pairs up alternating keys and values. Pairs with a non-string
// key and a trailing odd value are dropped.
//
//	log.Info("stage done", logger.Fields(logger.FieldStage, "align", "segments", 42))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 1; i < len(kvs); i += 2 {
		if k, ok := kvs[i-1].(string); ok {
			m[k] = kvs[i]
		}
	}
	return m
}

// ErrorFields describes a failed operation.
func ErrorFields(op string, err error) map[string]interface{} {
	return Fields(FieldOperation, op, FieldError, err.Error())
}

// StageFields describes a finished pipeline stage.
func StageFields(stage, outcome string, d time.Duration) map[string]interface{} {
	return Fields(FieldStage, stage, FieldOutcome, outcome, FieldDuration, d.Milliseconds())
}
