package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when the file is
// missing and allowMissing is set.
func LoadOrDefault(path string, allowMissing bool) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !allowMissing || !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	slog.Debug("config file not found, using defaults", "path", path)
	cfg = &Config{}
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finalize(cfg *Config) error {
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)

	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateRuntime(cfg); err != nil {
		return err
	}
	if err := validateEnvironment(cfg); err != nil {
		return err
	}
	if err := validateScan(cfg); err != nil {
		return err
	}
	if err := validateExclude(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.ProjectRoot) == "" {
		cfg.ProjectRoot = "."
	}
	if strings.TrimSpace(cfg.RuntimeVersion) == "" {
		cfg.RuntimeVersion = "3.12"
	}
	if strings.TrimSpace(cfg.Manifest) == "" {
		cfg.Manifest = "environment.yml"
	}

	if strings.TrimSpace(cfg.Environment.Name) == "" {
		cfg.Environment.Name = defaultEnvironmentName(cfg.ProjectRoot)
	}
	if cfg.Environment.Channels == nil {
		cfg.Environment.Channels = []string{"conda-forge"}
	}
	if strings.TrimSpace(cfg.Environment.Manager) == "" {
		cfg.Environment.Manager = "conda"
	}

	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = []string{".py"}
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 1
	}
	if strings.TrimSpace(cfg.Scan.MaxFileSize) == "" {
		cfg.Scan.MaxFileSize = "2 MiB"
	}

	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = []string{".git", "__pycache__", ".venv", "venv", "node_modules", ".tox"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRescansPerMinute == 0 {
		cfg.Watch.MaxRescansPerMinute = 30
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = filepath.Join(".envscan", "history.db")
	}
}

func defaultEnvironmentName(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "envscan"
	}
	name := filepath.Base(abs)
	if name == "" || name == string(filepath.Separator) || name == "." {
		return "envscan"
	}
	return name
}

func parseSize(raw string) (uint64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("scan.max_file_size %q: %w", raw, err)
	}
	return n, nil
}
