package transcription

import "github.com/jbousquie/whisperx-api/audio"

// Request holds parameters for a transcription call.
type Request struct {
	// Audio is the decoded input.
	Audio *audio.Sample
	// Language is the expected language of the audio (e.g. "en").
	Language string
	// BatchSize is the number of chunks decoded in parallel. 0 uses the
	// backend default.
	BatchSize int
}

// Response holds the result of a transcription call.
type Response struct {
	// Segments contains time-aligned transcript segments.
	Segments []Segment `json:"segments"`
	// Language is the detected or specified language.
	Language string `json:"language"`
}

// Word is one timed token of a transcript. An empty Speaker means the
// speaker is unknown.
type Word struct {
	Text    string  `json:"word"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Score   float64 `json:"score"`
	Speaker string  `json:"speaker,omitempty"`
}

// Segment represents a time-aligned portion of a transcript.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
	// Text is the transcribed text for this segment.
	Text string `json:"text"`
	// Words are the segment's words in order. Empty when alignment did not run.
	Words []Word `json:"words,omitempty"`
	// Speaker is derived from the words after diarization.
	Speaker string `json:"speaker,omitempty"`
}

// Normalize repairs timestamps so that start <= end for the segment and
// every word, and the segment span covers all of its words.
func (s *Segment) Normalize() {
	if s.End < s.Start {
		s.End = s.Start
	}
	for i := range s.Words {
		w := &s.Words[i]
		if w.End < w.Start {
			w.End = w.Start
		}
		if w.Start < s.Start {
			s.Start = w.Start
		}
		if w.End > s.End {
			s.End = w.End
		}
	}
}

// Clone returns a deep copy of s.
func (s Segment) Clone() Segment {
	if s.Words != nil {
		s.Words = append([]Word(nil), s.Words...)
	}
	return s
}

// CloneSegments deep-copies a segment list.
func CloneSegments(in []Segment) []Segment {
	if in == nil {
		return nil
	}
	out := make([]Segment, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// NormalizeSegments returns a normalized deep copy of in.
func NormalizeSegments(in []Segment) []Segment {
	out := CloneSegments(in)
	for i := range out {
		out[i].Normalize()
	}
	return out
}
