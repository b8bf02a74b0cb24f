// Package config loads and validates the sync daemon's configuration.
//
// Settings are read from the environment, optionally layered on top of a
// YAML file (so a deployment can check in a base config and override
// individual fields with env vars, the same precedence cobra/viper-style
// tools use). The result is validated with go-playground/validator,
// mirroring the original implementation's pydantic Settings model:
// invalid configuration aborts startup rather than failing mid-run.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full set of settings the daemon needs to run one tick.
type Config struct {
	SourceLocale string `yaml:"sourceLocale" validate:"required"`
	SourceAPIURL string `yaml:"sourceApiUrl" validate:"required,url"`

	RedisHost     string `yaml:"redisHost" validate:"required"`
	RedisPort     int    `yaml:"redisPort" validate:"required,min=1,max=65535"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`
	LockKey       string `yaml:"lockKey" validate:"required"`
	ArtifactIndexKey string `yaml:"artifactIndexKey" validate:"required"`

	VectorStoreBaseURL string `yaml:"vectorStoreBaseUrl" validate:"required,url"`
	VectorStoreAPIKey  string `yaml:"vectorStoreApiKey" validate:"required"`
	CollectionName     string `yaml:"collectionName" validate:"required"`

	OutputDir        string `yaml:"outputDir" validate:"required"`
	TelemetrySinkURL string `yaml:"telemetrySinkUrl"`

	TickInterval       time.Duration `yaml:"tickInterval" validate:"required"`
	TickErrorBackoff   time.Duration `yaml:"tickErrorBackoff" validate:"required"`
	HarvestConcurrency int           `yaml:"harvestConcurrency" validate:"required,min=1"`
	UploadConcurrency  int           `yaml:"uploadConcurrency" validate:"required,min=1"`
	CallTimeout        time.Duration `yaml:"callTimeout" validate:"required"`

	ReconcileDeletes bool `yaml:"reconcileDeletes"`
	SlugSuffixWithID bool `yaml:"slugSuffixWithId"`

	LogLevel  string `yaml:"logLevel" validate:"required,oneof=debug info warn error"`
	LogJSON   bool   `yaml:"logJson"`
}

// Defaults returns a Config populated with the documented defaults, ready
// to be overridden from a file and/or the environment.
func Defaults() Config {
	return Config{
		SourceLocale:       "en-us",
		SourceAPIURL:       "https://support.optisigns.com/api/v2/help_center/",
		RedisPort:          6379,
		LockKey:            "lock:all",
		ArtifactIndexKey:   "article_openai_id",
		CollectionName:     "Financial Documents Store",
		OutputDir:          "./.tmp",
		TickInterval:       2 * time.Hour,
		TickErrorBackoff:   5 * time.Second,
		HarvestConcurrency: 16,
		UploadConcurrency:  20,
		CallTimeout:        30 * time.Second,
		LogLevel:           "info",
	}
}

// Load builds a Config from defaults, an optional YAML file (path taken
// from SYNC_CONFIG_FILE), and environment variable overrides, then
// validates it. A validation failure is meant to abort process startup.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("SYNC_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
