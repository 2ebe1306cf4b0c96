// Package alignment defines the forced-alignment stage: refining
// segment-level timestamps from transcription into word-level timestamps
// against the audio.
//
// # Backends
//
//   - alignment/wav2vec: wav2vec2 CTC alignment over an HTTP sidecar
package alignment

import (
	"context"

	"github.com/jbousquie/whisperx-api/audio"
	"github.com/jbousquie/whisperx-api/provider"
	"github.com/jbousquie/whisperx-api/transcription"
)

// DefaultLanguage is the language the alignment model is loaded for when
// none is configured.
const DefaultLanguage = "en"

// Request holds parameters for an alignment call.
type Request struct {
	Audio    *audio.Sample
	Segments []transcription.Segment
	Language string
}

// Provider is the interface alignment backends implement.
type Provider interface {
	provider.Provider

	// Align returns the segments with word-level timestamps.
	Align(ctx context.Context, req Request) ([]transcription.Segment, error)
	// Language is the language the loaded model aligns.
	Language() string
}

// NewRegistry creates a new provider registry for alignment providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
