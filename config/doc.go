// Package config loads service configuration from a config.yml file, an
// optional .env file and the process environment.
//
// Viper reads the YAML file first; every environment variable is then bound
// under several dotted key variants so MODELS_DIARIZATION_TOKEN overrides
// models.diarization.token. Values loaded from .env (via godotenv) are bound
// the same way.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("whisperx-api", &cfg)
//
// Service configs embed ServiceConfig and add their own sections.
package config
