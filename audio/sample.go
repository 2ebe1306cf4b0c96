package audio

import (
	"fmt"
	"time"
)

// SampleRate is the rate, in Hz, every Sample is decoded to.
const SampleRate = 16000

// Sample is a decoded mono waveform. The zero value is an empty sample.
type Sample struct {
	pcm  []float32
	rate int
}

// NewSample copies pcm into a new Sample at the given rate.
func NewSample(pcm []float32, rate int) (*Sample, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d", rate)
	}
	cp := make([]float32, len(pcm))
	copy(cp, pcm)
	return &Sample{pcm: cp, rate: rate}, nil
}

// DecodePCM16 builds a Sample from signed 16-bit little-endian PCM.
func DecodePCM16(raw []byte, rate int) (*Sample, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d", rate)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("audio: odd PCM16 length %d", len(raw))
	}
	pcm := make([]float32, len(raw)/2)
	for i := range pcm {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		pcm[i] = float32(v) / 32768.0
	}
	return &Sample{pcm: pcm, rate: rate}, nil
}

// Rate returns the sample rate in Hz.
func (s *Sample) Rate() int { return s.rate }

// Len returns the number of samples.
func (s *Sample) Len() int { return len(s.pcm) }

// At returns the i-th sample value in [-1, 1).
func (s *Sample) At(i int) float32 { return s.pcm[i] }

// Seconds returns the duration in seconds.
func (s *Sample) Seconds() float64 {
	if s == nil || s.rate == 0 {
		return 0
	}
	return float64(len(s.pcm)) / float64(s.rate)
}

// Duration returns the duration as a time.Duration.
func (s *Sample) Duration() time.Duration {
	return time.Duration(s.Seconds() * float64(time.Second))
}

// Empty reports whether the sample holds no audio.
func (s *Sample) Empty() bool { return s == nil || len(s.pcm) == 0 }
