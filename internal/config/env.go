package config

import (
	"os"
	"strconv"
	"time"
)

// applyEnvOverrides layers environment variables on top of whatever the
// config file (or the defaults) already set. Env vars always win, so a
// deployment can check in a base YAML file and override secrets (Redis
// password, vector-store API key) per environment without editing it.
func applyEnvOverrides(cfg *Config) {
	strVar(&cfg.SourceLocale, "SOURCE_LOCALE")
	strVar(&cfg.SourceAPIURL, "SOURCE_API_URL")

	strVar(&cfg.RedisHost, "REDIS_HOST")
	intVar(&cfg.RedisPort, "REDIS_PORT")
	strVar(&cfg.RedisPassword, "REDIS_PASSWORD")
	intVar(&cfg.RedisDB, "REDIS_DB")
	strVar(&cfg.LockKey, "REDIS_LOCK_KEY")
	strVar(&cfg.ArtifactIndexKey, "REDIS_ARTIFACT_INDEX_KEY")

	strVar(&cfg.VectorStoreBaseURL, "VECTOR_STORE_BASE_URL")
	strVar(&cfg.VectorStoreAPIKey, "VECTOR_STORE_API_KEY")
	strVar(&cfg.CollectionName, "VECTOR_STORE_COLLECTION")

	strVar(&cfg.OutputDir, "SYNC_OUTPUT_DIR")
	strVar(&cfg.TelemetrySinkURL, "TELEMETRY_SINK_URL")

	durVar(&cfg.TickInterval, "SYNC_TICK_INTERVAL")
	durVar(&cfg.TickErrorBackoff, "SYNC_TICK_ERROR_BACKOFF")
	intVar(&cfg.HarvestConcurrency, "SYNC_HARVEST_CONCURRENCY")
	intVar(&cfg.UploadConcurrency, "SYNC_UPLOAD_CONCURRENCY")
	durVar(&cfg.CallTimeout, "SYNC_CALL_TIMEOUT")

	boolVar(&cfg.ReconcileDeletes, "SYNC_RECONCILE_DELETES")
	boolVar(&cfg.SlugSuffixWithID, "SYNC_SLUG_SUFFIX_WITH_ID")

	strVar(&cfg.LogLevel, "LOG_LEVEL")
	boolVar(&cfg.LogJSON, "LOG_JSON")
}

func strVar(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func intVar(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func durVar(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func boolVar(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
