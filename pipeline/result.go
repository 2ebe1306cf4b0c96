package pipeline

import (
	"time"

	"github.com/jbousquie/whisperx-api/transcription"
)

// Result is the output of one run.
type Result struct {
	Segments []transcription.Segment `json:"segments"`
	Language string                  `json:"language"`
	// DiarizationApplied is true only when speakers were assigned.
	DiarizationApplied bool    `json:"diarization_applied"`
	Alignment          Outcome `json:"alignment"`
	Diarization        Outcome `json:"diarization"`
	// Speakers lists the distinct diarization labels, in order of first appearance.
	Speakers []string `json:"speakers,omitempty"`
	// Waited is the time spent queued for the accelerator.
	Waited   time.Duration `json:"-"`
	Duration time.Duration `json:"-"`
}
