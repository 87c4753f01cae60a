package config

import (
	"time"
)

const DefaultFileName = "envscan.toml"

type Config struct {
	Version        int           `toml:"version"`
	ProjectRoot    string        `toml:"project_root"`
	RuntimeVersion string        `toml:"runtime_version"`
	Manifest       string        `toml:"manifest"`
	Environment    Environment   `toml:"environment"`
	Stdlib         Stdlib        `toml:"stdlib"`
	Scan           Scan          `toml:"scan"`
	Exclude        Exclude       `toml:"exclude"`
	Watch          Watch         `toml:"watch"`
	History        History       `toml:"history"`
	Observability  Observability `toml:"observability"`
}

type Environment struct {
	Name       string   `toml:"name"`
	Channels   []string `toml:"channels"`
	Manager    string   `toml:"manager"`
	ExportPath string   `toml:"export_path"`
}

type Stdlib struct {
	// DataDir holds <version>.txt listings; empty uses the embedded listing.
	DataDir string `toml:"data_dir"`
}

type Scan struct {
	Extensions  []string `toml:"extensions"`
	Workers     int      `toml:"workers"`
	MaxFileSize string   `toml:"max_file_size"`
	// SkipVendored drops directories enry classifies as vendored (site-packages, third_party, ...).
	SkipVendored *bool `toml:"skip_vendored"`

	maxFileSizeBytes uint64
}

func (s Scan) SkipsVendored() bool {
	if s.SkipVendored == nil {
		return true
	}
	return *s.SkipVendored
}

// MaxFileSizeBytes is the parsed form of MaxFileSize, set during Load.
func (s Scan) MaxFileSizeBytes() uint64 {
	return s.maxFileSizeBytes
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce            time.Duration `toml:"debounce"`
	MaxRescansPerMinute int           `toml:"max_rescans_per_minute"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	OTLPInsecure *bool  `toml:"otlp_insecure"`
}

func (o Observability) Insecure() bool {
	if o.OTLPInsecure == nil {
		return true
	}
	return *o.OTLPInsecure
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
