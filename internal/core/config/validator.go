package config

import (
	"fmt"
	"strings"

	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/engine/stdlib"
	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

// validateRuntime only checks the shape; whether a listing exists for the
// version is decided by the classifier at scan time.
func validateRuntime(cfg *Config) error {
	if !stdlib.ValidVersion(cfg.RuntimeVersion) {
		return fmt.Errorf("runtime_version must look like <major>.<minor>, got %q", cfg.RuntimeVersion)
	}
	if strings.TrimSpace(cfg.Manifest) == "" {
		return fmt.Errorf("manifest must not be empty")
	}
	return nil
}

func validateEnvironment(cfg *Config) error {
	env := cfg.Environment
	if strings.ContainsAny(env.Name, " \t/") {
		return fmt.Errorf("environment.name %q must not contain whitespace or slashes", env.Name)
	}
	for i, ch := range env.Channels {
		if strings.TrimSpace(ch) == "" {
			return fmt.Errorf("environment.channels[%d] must not be empty", i)
		}
	}
	switch strings.ToLower(strings.TrimSpace(env.Manager)) {
	case "conda", "mamba":
	default:
		return fmt.Errorf("environment.manager must be one of: conda, mamba")
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be >= 1, got %d", cfg.Scan.Workers)
	}
	for i, ext := range cfg.Scan.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return fmt.Errorf("scan.extensions must not include empty values")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Scan.Extensions[i] = strings.ToLower(ext)
	}
	size, err := parseSize(cfg.Scan.MaxFileSize)
	if err != nil {
		return err
	}
	cfg.Scan.maxFileSizeBytes = size
	return nil
}

func validateExclude(cfg *Config) error {
	for _, p := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
	}
	for _, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRescansPerMinute < 1 {
		return fmt.Errorf("watch.max_rescans_per_minute must be >= 1, got %d", cfg.Watch.MaxRescansPerMinute)
	}
	return nil
}
