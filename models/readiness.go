package models

import (
	"maps"

	"github.com/jbousquie/whisperx-api/accelerator"
)

// Capability names used as keys of Readiness.Reasons.
const (
	CapabilityTranscription = "transcription"
	CapabilityAlignment     = "alignment"
	CapabilityDiarization   = "diarization"
)

// Reasons recorded for a capability that is not ready.
const (
	ReasonNoToken    = "no Hugging Face token configured"
	ReasonNotLoaded  = "not initialized"
	ReasonShutDown   = "models unloaded"
	ReasonLoadFailed = "load failed: "
)

// Readiness is a read-only snapshot of which capabilities are loaded.
type Readiness struct {
	TranscriptionReady bool               `json:"transcription"`
	AlignmentReady     bool               `json:"alignment"`
	DiarizationReady   bool               `json:"diarization"`
	Device             accelerator.Device `json:"device"`
	TranscriptionModel string             `json:"transcription_model,omitempty"`
	AlignmentLanguage  string             `json:"alignment_language,omitempty"`
	// Reasons explains every capability that is not ready.
	Reasons     map[string]string `json:"reasons,omitempty"`
	Initialized bool              `json:"initialized"`
}

func (r Readiness) clone() Readiness {
	r.Reasons = maps.Clone(r.Reasons)
	if r.Device.GPU != nil {
		gpu := *r.Device.GPU
		r.Device.GPU = &gpu
	}
	return r
}
