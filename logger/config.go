package logger

import (
	"fmt"
	"slices"
)

var (
	levels  = []string{"trace", "debug", "info", "warn", "error", "fatal"}
	formats = []string{"json", FormatConsole, FormatPretty}
)

// Config is the logging section.
type Config struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// Output is stdout or stderr.
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
	// ServiceName tags JSON entries; the console prefix is its first
	// three letters.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// ApplyDefaults selects info-level console output on stdout. Timestamps
// are always on.
func (c *Config) ApplyDefaults() {
	setDefault(&c.Level, "info")
	setDefault(&c.Format, FormatConsole)
	setDefault(&c.Output, "stdout")
	c.Timestamp = true
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (c *Config) Validate() error {
	if !slices.Contains(levels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", levels, c.Level)
	}
	if !slices.Contains(formats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", formats, c.Format)
	}
	return nil
}
