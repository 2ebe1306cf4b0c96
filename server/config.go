package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/jbousquie/whisperx-api/server/middleware"
	"github.com/jbousquie/whisperx-api/util"
)

const defaultMaxBody = 500 << 20

// Config is the server section.
type Config struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	// WriteTimeout runs from the end of the request headers, so it has to
	// cover the upload, the decode and a whole pipeline run.
	ReadTimeout  time.Duration         `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration         `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration         `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"`
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

func (c *Config) ApplyDefaults() {
	c.Host = util.Coalesce(c.Host, "0.0.0.0")
	c.MaxBodySize = util.Coalesce(c.MaxBodySize, "500MB")
	if c.Port == 0 {
		c.Port = 8000
	}
	for _, d := range []struct {
		field *time.Duration
		value time.Duration
	}{
		{&c.ReadTimeout, 2 * time.Minute},
		{&c.WriteTimeout, 16 * time.Minute},
		{&c.IdleTimeout, time.Minute},
	} {
		if *d.field == 0 {
			*d.field = d.value
		}
	}

	if len(c.CORS.AllowedOrigins) > 0 {
		if len(c.CORS.AllowedMethods) == 0 {
			c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
		}
		if len(c.CORS.AllowedHeaders) == 0 {
			c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID}
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("server timeouts must be non-negative (read=%v write=%v idle=%v)",
			c.ReadTimeout, c.WriteTimeout, c.IdleTimeout))
	}
	if util.ParseSize(c.MaxBodySize, -1) <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size is not a valid size (got: %q)", c.MaxBodySize))
	}
	return errors.Join(errs...)
}

// MaxBodyBytes is MaxBodySize in bytes, 500MB when unparseable.
func (c *Config) MaxBodyBytes() int64 {
	return util.ParseSize(c.MaxBodySize, defaultMaxBody)
}
