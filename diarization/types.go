package diarization

import "github.com/jbousquie/whisperx-api/audio"

// Request holds parameters for a diarization call.
type Request struct {
	// Audio is the decoded input.
	Audio *audio.Sample
	// NumSpeakers is the exact number of speakers (0 = auto-detect).
	NumSpeakers int
	// MinSpeakers is the minimum expected number of speakers.
	MinSpeakers int
	// MaxSpeakers is the maximum expected number of speakers.
	MaxSpeakers int
}

// Response holds the result of a diarization call.
type Response struct {
	// Intervals are the speaker turns, in the order the model produced them.
	Intervals []Interval `json:"intervals"`
	// NumSpeakers is the number of distinct speakers detected.
	NumSpeakers int `json:"num_speakers"`
}

// Interval is a speaker-labeled time range in seconds. Labels repeat across
// intervals; intervals may overlap or leave gaps.
type Interval struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Speakers returns the distinct labels in first-seen order.
func Speakers(intervals []Interval) []string {
	seen := make(map[string]struct{}, len(intervals))
	var out []string
	for _, iv := range intervals {
		if _, ok := seen[iv.Speaker]; ok {
			continue
		}
		seen[iv.Speaker] = struct{}{}
		out = append(out, iv.Speaker)
	}
	return out
}
