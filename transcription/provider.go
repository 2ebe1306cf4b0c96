package transcription

import (
	"context"

	"github.com/jbousquie/whisperx-api/provider"
)

// Provider is a speech-to-text backend. Backends holding a model also
// implement provider.Initializable and provider.Closeable.
type Provider interface {
	provider.Provider

	// Transcribe returns the segments of req.Audio with segment-level
	// timings. Words are left to the alignment stage.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// NewRegistry returns an empty registry of transcription backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
