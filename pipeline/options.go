package pipeline

import (
	"time"

	"github.com/jbousquie/whisperx-api/alignment"
	"github.com/jbousquie/whisperx-api/validation"
)

// Default request options.
const (
	DefaultMinSpeakers = 1
	DefaultMaxSpeakers = 10
)

// Options are the per-request knobs.
type Options struct {
	Diarization bool   `json:"diarization"`
	Language    string `json:"language" validate:"omitempty,min=2,max=8"`
	MinSpeakers int    `json:"min_speakers" validate:"gte=1"`
	MaxSpeakers int    `json:"max_speakers" validate:"gtefield=MinSpeakers"`
}

// DefaultOptions returns the options used when a request sets none.
func DefaultOptions() Options {
	return Options{
		Language:    alignment.DefaultLanguage,
		MinSpeakers: DefaultMinSpeakers,
		MaxSpeakers: DefaultMaxSpeakers,
	}
}

// Validate checks the options and returns an INVALID_INPUT error naming
// every offending field.
func (o Options) Validate() error {
	return validation.Validate(o)
}

// Config is the pipeline section of the service config.
type Config struct {
	// Timeout bounds a whole run, gate wait included.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// BatchSize is passed to the transcription backend; 0 keeps its default.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// ApplyDefaults fills in unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Minute
	}
}
