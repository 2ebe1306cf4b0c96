package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jbousquie/whisperx-api/accelerator"
	"github.com/jbousquie/whisperx-api/alignment"
)

// Default backends per stage.
const (
	DefaultTranscriptionBackend = "whisper"
	DefaultAlignmentBackend     = "wav2vec"
	DefaultDiarizationBackend   = "pyannote"
	DefaultTranscriptionModel   = "large-v2"
)

// StageConfig selects a backend and passes the remaining keys to its factory.
type StageConfig struct {
	Backend string         `yaml:"backend" mapstructure:"backend"`
	Options map[string]any `yaml:",inline" mapstructure:",remain"`
}

// DiarizationConfig configures the optional diarization stage.
type DiarizationConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Token is the Hugging Face token; HF_TOKEN / HUGGINGFACE_TOKEN are
	// consulted when it is empty.
	Token   string         `yaml:"token" mapstructure:"token"`
	Options map[string]any `yaml:",inline" mapstructure:",remain"`
}

// Config is the models section of the service config.
type Config struct {
	// Device is auto, cuda or cpu.
	Device      string `yaml:"device" mapstructure:"device"`
	ComputeType string `yaml:"compute_type" mapstructure:"compute_type"`
	// Language is the default transcription language and the language the
	// alignment model is loaded for.
	Language string `yaml:"language" mapstructure:"language"`

	Transcription StageConfig       `yaml:"transcription" mapstructure:"transcription"`
	Alignment     StageConfig       `yaml:"alignment" mapstructure:"alignment"`
	Diarization   DiarizationConfig `yaml:"diarization" mapstructure:"diarization"`
}

// ApplyDefaults fills in unset fields.
func (c *Config) ApplyDefaults() {
	if c.Device == "" {
		c.Device = string(accelerator.KindAuto)
	}
	c.Device = strings.ToLower(c.Device)
	if c.Language == "" {
		c.Language = alignment.DefaultLanguage
	}
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = DefaultTranscriptionBackend
	}
	if c.Alignment.Backend == "" {
		c.Alignment.Backend = DefaultAlignmentBackend
	}
	if c.Diarization.Backend == "" {
		c.Diarization.Backend = DefaultDiarizationBackend
	}
}

// Validate checks the config.
func (c *Config) Validate() error {
	valid := []string{string(accelerator.KindAuto), string(accelerator.KindCUDA), string(accelerator.KindCPU)}
	if !slices.Contains(valid, c.Device) {
		return fmt.Errorf("models.device must be one of %v (got: %s)", valid, c.Device)
	}
	if c.ComputeType != "" && c.ComputeType != accelerator.ComputeFloat16 && c.ComputeType != accelerator.ComputeInt8 {
		return fmt.Errorf("models.compute_type must be %s or %s (got: %s)", accelerator.ComputeFloat16, accelerator.ComputeInt8, c.ComputeType)
	}
	return nil
}

// stageOptions copies base and sets every key of extra that base leaves unset.
func stageOptions(base map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	maps.Copy(out, base)
	for k, v := range extra {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}
