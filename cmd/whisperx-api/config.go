package main

import (
	"fmt"

	"github.com/jbousquie/whisperx-api/api"
	"github.com/jbousquie/whisperx-api/audio"
	"github.com/jbousquie/whisperx-api/config"
	"github.com/jbousquie/whisperx-api/gate"
	"github.com/jbousquie/whisperx-api/models"
	"github.com/jbousquie/whisperx-api/observability"
	"github.com/jbousquie/whisperx-api/pipeline"
	"github.com/jbousquie/whisperx-api/server"
)

const serviceName = "whisperx-api"

// Config is the service configuration loaded from config.yml, .env and the
// environment.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Models    models.Config        `yaml:"models" mapstructure:"models"`
	Gate      gate.Config          `yaml:"gate" mapstructure:"gate"`
	Pipeline  pipeline.Config      `yaml:"pipeline" mapstructure:"pipeline"`
	Audio     audio.Config         `yaml:"audio" mapstructure:"audio"`
	API       api.Config           `yaml:"api" mapstructure:"api"`
	Server    server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Models.ApplyDefaults()
	c.Gate.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Audio.ApplyDefaults()
	if c.API.DefaultLanguage == "" {
		c.API.DefaultLanguage = c.Models.Language
	}
	c.API.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Models.Validate(); err != nil {
		return err
	}
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

// validateTimeouts keeps the timeouts nested: a request that queues too
// long must fail on the gate (ACCELERATOR_BUSY) before the pipeline
// deadline, and the response must be written before the server cuts the
// connection while the run still holds the accelerator.
func (c *Config) validateTimeouts() error {
	if c.Gate.QueueTimeout >= 0 && c.Pipeline.Timeout <= c.Gate.QueueTimeout {
		return fmt.Errorf("pipeline.timeout (%v) must exceed gate.queue_timeout (%v)",
			c.Pipeline.Timeout, c.Gate.QueueTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		return nil
	}
	if need := c.Server.ReadTimeout + c.Audio.Timeout + c.Pipeline.Timeout; c.Server.WriteTimeout <= need {
		return fmt.Errorf("server.write_timeout (%v) must exceed read_timeout + audio.timeout + pipeline.timeout (%v)",
			c.Server.WriteTimeout, need)
	}
	return nil
}
