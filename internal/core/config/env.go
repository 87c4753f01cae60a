package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ENVSCAN_[SECTION]_[KEY] (e.g., ENVSCAN_SCAN_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.ProjectRoot, "ENVSCAN_PROJECT_ROOT")
	setEnvString(&cfg.RuntimeVersion, "ENVSCAN_RUNTIME_VERSION")
	setEnvString(&cfg.Manifest, "ENVSCAN_MANIFEST")

	// Environment
	setEnvString(&cfg.Environment.Name, "ENVSCAN_ENVIRONMENT_NAME")
	setEnvString(&cfg.Environment.Manager, "ENVSCAN_ENVIRONMENT_MANAGER")
	setEnvString(&cfg.Environment.ExportPath, "ENVSCAN_ENVIRONMENT_EXPORT_PATH")

	setEnvString(&cfg.Stdlib.DataDir, "ENVSCAN_STDLIB_DATA_DIR")

	// Scan
	setEnvInt(&cfg.Scan.Workers, "ENVSCAN_SCAN_WORKERS")
	setEnvString(&cfg.Scan.MaxFileSize, "ENVSCAN_SCAN_MAX_FILE_SIZE")
	setEnvBoolPtr(&cfg.Scan.SkipVendored, "ENVSCAN_SCAN_SKIP_VENDORED")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "ENVSCAN_WATCH_DEBOUNCE")
	setEnvInt(&cfg.Watch.MaxRescansPerMinute, "ENVSCAN_WATCH_MAX_RESCANS_PER_MINUTE")

	// History
	setEnvBool(&cfg.History.Enabled, "ENVSCAN_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "ENVSCAN_HISTORY_PATH")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "ENVSCAN_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "ENVSCAN_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
