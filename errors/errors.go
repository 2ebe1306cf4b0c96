package errors

import (
	"fmt"
	"time"
)

// AppError is an error with a client-facing code, message and status.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// New builds an error with an explicit status. Retryability follows the
// code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Retryable: IsRetryableCode(code)}
}

func newCode(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...), StatusFor(code))
}

func ServiceUnavailable(service string) *AppError {
	return newCode(ErrCodeServiceUnavailable, "The %s is temporarily unavailable. Please try again.", service).
		WithDetail("service", service)
}

func Timeout(operation string) *AppError {
	return newCode(ErrCodeTimeout, "The request took too long. Please try again.").
		WithDetail("operation", operation)
}

// GateTimeout is returned after waiting too long for the accelerator.
func GateTimeout(waited time.Duration) *AppError {
	return newCode(ErrCodeAcceleratorBusy, "The accelerator is busy with other requests. Please retry later.").
		WithDetail("waited_ms", waited.Milliseconds())
}

// InvalidInput rejects a request parameter. field may be empty.
func InvalidInput(field, reason string) *AppError {
	e := newCode(ErrCodeInvalidInput, "Invalid input: %s", reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, StatusFor(ErrCodeInvalidInput))
}

func MissingField(field string) *AppError {
	return newCode(ErrCodeMissingField, "Missing required field: %s", field).WithDetail("field", field)
}

func PayloadTooLarge(limitBytes int64) *AppError {
	return newCode(ErrCodePayloadTooLarge, "File too large").WithDetail("max_bytes", limitBytes)
}

func AudioDecode(cause error) *AppError {
	return newCode(ErrCodeAudioDecode, "The audio could not be decoded.").WithCause(cause)
}

// InitializationFailed reports a mandatory model that did not load.
func InitializationFailed(model string, cause error) *AppError {
	return newCode(ErrCodeInitialization, "The %s model could not be loaded.", model).
		WithDetail("model", model).WithCause(cause)
}

// Pipeline reports a failed mandatory stage. StageOf recovers the stage.
func Pipeline(stage string, cause error) *AppError {
	return newCode(ErrCodePipeline, "The %s stage failed.", stage).
		WithDetail("stage", stage).WithCause(cause)
}

func Internal(cause error) *AppError {
	return newCode(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.").WithCause(cause)
}

// ExternalServiceError wraps a failed call to an inference sidecar.
func ExternalServiceError(service string, cause error) *AppError {
	return newCode(ErrCodeExternalService, "The %s service encountered an error. Please try again.", service).
		WithDetail("service", service).WithCause(cause)
}
