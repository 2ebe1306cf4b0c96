package models

import (
	"github.com/jbousquie/whisperx-api/alignment"
	"github.com/jbousquie/whisperx-api/alignment/wav2vec"
	"github.com/jbousquie/whisperx-api/diarization"
	"github.com/jbousquie/whisperx-api/diarization/pyannote"
	"github.com/jbousquie/whisperx-api/provider"
	"github.com/jbousquie/whisperx-api/transcription"
	"github.com/jbousquie/whisperx-api/transcription/whisper"
)

// Registries holds the backend factories of each stage.
type Registries struct {
	Transcription *provider.Registry[transcription.Provider]
	Alignment     *provider.Registry[alignment.Provider]
	Diarization   *provider.Registry[diarization.Provider]
}

// DefaultRegistries registers the sidecar backends shipped with the service.
func DefaultRegistries() Registries {
	regs := Registries{
		Transcription: transcription.NewRegistry(),
		Alignment:     alignment.NewRegistry(),
		Diarization:   diarization.NewRegistry(),
	}
	regs.Transcription.RegisterFactory(whisper.ProviderName, whisper.Factory())
	regs.Alignment.RegisterFactory(wav2vec.ProviderName, wav2vec.Factory())
	regs.Diarization.RegisterFactory(pyannote.ProviderName, pyannote.Factory())
	return regs
}
