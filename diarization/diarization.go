package diarization

import (
	"context"

	"github.com/jbousquie/whisperx-api/provider"
)

// Provider is the interface that diarization backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Diarize partitions the audio into speaker-labeled intervals.
	Diarize(ctx context.Context, req Request) (*Response, error)
}

// NewRegistry creates a new provider registry for diarization providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
