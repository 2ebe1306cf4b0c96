package errors

import stderrors "errors"

// ErrorResponse is the JSON body of every error reply:
//
//	{"error": {"code": "ACCELERATOR_BUSY", "message": "...", "retryable": true}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse drops the cause, which is for logs only.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Code: e.Code, Message: e.Message, Retryable: e.Retryable, Details: e.Details}}
}

// AsAppError finds the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var target *AppError
	ok := stderrors.As(err, &target)
	return target, ok
}

// IsCode reports whether err's chain holds an AppError with code.
func IsCode(err error, code ErrorCode) bool {
	e, ok := AsAppError(err)
	return ok && e.Code == code
}

// StageOf returns the stage of a PIPELINE_FAILED error.
func StageOf(err error) (string, bool) {
	if e, ok := AsAppError(err); ok && e.Code == ErrCodePipeline {
		stage, ok := e.Details["stage"].(string)
		return stage, ok
	}
	return "", false
}
