package errors

import "net/http"

// ErrorCode is the machine-readable code clients switch on.
type ErrorCode string

// Availability. The client may retry these.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	// ErrCodeAcceleratorBusy means the request queued too long at the gate.
	ErrCodeAcceleratorBusy ErrorCode = "ACCELERATOR_BUSY"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Request problems.
const (
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField    ErrorCode = "MISSING_FIELD"
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrCodeAudioDecode     ErrorCode = "AUDIO_DECODE_FAILED"
)

// Server-side failures.
const (
	// ErrCodeInitialization means a mandatory model failed to load.
	ErrCodeInitialization ErrorCode = "INITIALIZATION_FAILED"
	// ErrCodePipeline means a mandatory stage failed.
	ErrCodePipeline ErrorCode = "PIPELINE_FAILED"
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type codeInfo struct {
	status    int
	retryable bool
}

var codes = map[ErrorCode]codeInfo{
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, true},
	ErrCodeTimeout:            {http.StatusGatewayTimeout, true},
	ErrCodeAcceleratorBusy:    {http.StatusServiceUnavailable, true},
	ErrCodeExternalService:    {http.StatusBadGateway, true},
	ErrCodeInvalidInput:       {http.StatusBadRequest, false},
	ErrCodeMissingField:       {http.StatusBadRequest, false},
	ErrCodePayloadTooLarge:    {http.StatusRequestEntityTooLarge, false},
	ErrCodeAudioDecode:        {http.StatusUnprocessableEntity, false},
	ErrCodeInitialization:     {http.StatusServiceUnavailable, false},
	ErrCodePipeline:           {http.StatusInternalServerError, false},
	ErrCodeInternal:           {http.StatusInternalServerError, false},
}

// IsRetryableCode reports whether clients may retry errors with code.
func IsRetryableCode(code ErrorCode) bool {
	return codes[code].retryable
}

// StatusFor is the HTTP status of code, 500 for unknown codes.
func StatusFor(code ErrorCode) int {
	if info, ok := codes[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
