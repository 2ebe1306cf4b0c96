package bootstrap

import "github.com/jbousquie/whisperx-api/config"

// Config is what NewApp needs from a service config. Embedding
// config.ServiceConfig with `mapstructure:",squash"` provides all three
// methods; services override ApplyDefaults and Validate to cover their own
// sections and call the embedded ones.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
