// Package errors provides the structured error type shared by every layer of
// the transcription service. An AppError carries a machine-readable code, an
// HTTP status, a retryable flag and optional details, and renders to an
// RFC 7807 style body through ToResponse.
//
// Pipeline failures carry the failing stage in their details:
//
//	err := errors.Pipeline("transcribe", cause)
//	stage, _ := errors.StageOf(err) // "transcribe"
package errors
