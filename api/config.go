package api

import (
	"fmt"
	"strings"
)

// DefaultExtensions are the upload extensions accepted by /transcribe.
var DefaultExtensions = []string{"wav", "mp3", "mp4", "avi", "mov", "mkv", "flac", "m4a", "ogg"}

// Config configures the transcription endpoints.
type Config struct {
	// Extensions lists accepted upload extensions, lowercase, without dot.
	Extensions []string `mapstructure:"extensions"`
	// TempDir receives uploads while they are processed. Empty uses the
	// system temp directory.
	TempDir string `mapstructure:"temp_dir"`
	// DefaultLanguage applies when the form omits language.
	DefaultLanguage string `mapstructure:"default_language"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), DefaultExtensions...)
	}
	for i, ext := range c.Extensions {
		c.Extensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	for _, ext := range c.Extensions {
		if ext == "" || strings.ContainsAny(ext, "/\\") {
			return fmt.Errorf("api.extensions contains an invalid entry %q", ext)
		}
	}
	return nil
}
