package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jbousquie/whisperx-api/logger"
)

// FileSystem abstracts the two file operations the loader needs.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem is the os-backed FileSystem.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// LoadEnv loads a dotenv file without overriding variables already set.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds the loader dependencies and explicit file paths.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the os-backed file system.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile uses path instead of searching for config.yml.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile uses path instead of searching for a .env file.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// ResolvedFiles are the files LoadConfig reads. Empty means none found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolver finds the config and env files of a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolveFiles returns the explicit paths of opts, searching for the
// missing ones.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(envCandidates(serviceName))
	}
	return files
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// configCandidates lists config.yml locations, most specific first: next
// to the binary's sources when run from the repo, then config/ and the
// working directory.
func configCandidates(serviceName string) []string {
	return []string{
		"./cmd/" + serviceName + "/config.yml",
		"../cmd/" + serviceName + "/config.yml",
		"../../cmd/" + serviceName + "/config.yml",
		"./config/config.yml",
		"../config/config.yml",
		"./config.yml",
	}
}

// envCandidates lists .env locations. A service-specific .env.<name> wins
// over a plain .env in the same set of directories.
func envCandidates(serviceName string) []string {
	dirs := []string{
		"./cmd/" + serviceName,
		"../cmd/" + serviceName,
		"./config",
		"../config",
		".",
		"..",
		"../..",
	}
	var out []string
	for _, name := range []string{".env." + serviceName, ".env"} {
		for _, dir := range dirs {
			out = append(out, filepath.ToSlash(dir+"/"+name))
		}
	}
	return out
}

// LoadConfig reads config.yml, then the process environment, then the .env
// file, and unmarshals the merged result into cfg. Missing files are not
// an error; a malformed config file is logged and skipped.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(serviceName, lc)
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("failed to load config file", logger.Fields("path", files.ConfigFile, logger.FieldError, err.Error()))
		}
	}

	v.AutomaticEnv()
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("failed to load .env file", logger.Fields("path", files.EnvFile, logger.FieldError, err.Error()))
		}
	}
	bindEnv(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config for %s: %w", serviceName, err)
	}
	return nil
}

// bindEnv sets every KEY=value under each dotted spelling of KEY so that
// MODELS_DIARIZATION_TOKEN reaches models.diarization.token without a
// per-field binding.
func bindEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		for _, variant := range generateEnvKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// maxJoinedParts bounds the exhaustive spelling search; longer keys only
// get their all-underscore and all-dot forms.
const maxJoinedParts = 6

// generateEnvKeyVariants returns the lowercase spellings of an environment
// key where each underscore is kept or turned into a dot:
//
//	MODELS_DIARIZATION_TOKEN -> models_diarization_token, models.diarization.token,
//	                            models.diarization_token, models_diarization.token
func generateEnvKeyVariants(envKey string) []string {
	parts := strings.Split(strings.ToLower(envKey), "_")
	if len(parts) == 1 {
		return parts
	}
	if len(parts) > maxJoinedParts {
		return []string{strings.Join(parts, "_"), strings.Join(parts, ".")}
	}

	variants := []string{parts[0]}
	for _, part := range parts[1:] {
		next := make([]string, 0, len(variants)*2)
		for _, prefix := range variants {
			next = append(next, prefix+"_"+part, prefix+"."+part)
		}
		variants = next
	}
	return variants
}
