// Package diarization defines the speaker-diarization stage: the provider
// interface and the speaker Interval type the fusion step consumes.
//
// # Backends
//
//   - diarization/pyannote: pyannote.audio pipeline over an HTTP sidecar
//   - diarization/huggingface: Hugging Face token and gated-model access checks
package diarization
