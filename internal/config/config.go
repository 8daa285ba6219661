// Package config provides configuration types, defaults, and persistence for templar.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/templar/internal/log"
)

// BackupConfig controls pre-migration snapshot capture.
type BackupConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"` // created recursively on first backup
}

// HistoryConfig controls the SQLite migration-run history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // database file path
}

// CacheConfig controls the resolver's resolution cache.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLMinutes int  `mapstructure:"ttl_minutes"`
}

// TracingConfig configures the OpenTelemetry tracing subsystem.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the export backend: "none", "file", "stdout", "otlp".
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls the fraction of traces to sample (1.0 = all).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Config holds all configuration options for templar.
type Config struct {
	// ManifestPath locates the templar.yaml manifest declaring template
	// versions, requirements, and declarative migrations.
	ManifestPath string `mapstructure:"manifest_path"`

	// AllowPrerelease lets resolution and latest-version lookups pick
	// prerelease versions.
	AllowPrerelease bool `mapstructure:"allow_prerelease"`

	// Strict aborts a migration on the first failing step instead of
	// accumulating failures across the whole path.
	Strict bool `mapstructure:"strict"`

	Backup  BackupConfig  `mapstructure:"backup"`
	History HistoryConfig `mapstructure:"history"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ManifestPath:    "templar.yaml",
		AllowPrerelease: false,
		Strict:          true,
		Backup: BackupConfig{
			Enabled: true,
			Dir:     ".templar/backups",
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    ".templar/history.db",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLMinutes: 10,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// DefaultConfigTemplate returns the commented YAML written on first run.
func DefaultConfigTemplate() string {
	return `# Templar Configuration

# Path to the template manifest (versions, requirements, migrations)
manifest_path: templar.yaml

# Let resolution and latest-version lookups pick prerelease versions
allow_prerelease: false

# Abort a migration on the first failing step; set false to run the whole
# path and collect failures instead
strict: true

# Pre-migration snapshots
backup:
  enabled: true
  dir: .templar/backups

# Record every migration run in a local SQLite database
history:
  enabled: false
  path: .templar/history.db

# Resolution cache
cache:
  enabled: true
  ttl_minutes: 10

# OpenTelemetry tracing around migration execution
tracing:
  enabled: false
  exporter: file          # none, file, stdout, otlp
  # file_path: .templar/traces.jsonl
  # otlp_endpoint: localhost:4317
  sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

// Validate rejects configurations the engine cannot honor.
func (c Config) Validate() error {
	if c.Backup.Enabled && c.Backup.Dir == "" {
		return fmt.Errorf("backup.dir is required when backups are enabled")
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	if c.Cache.Enabled && c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache.ttl_minutes must be positive, got %d", c.Cache.TTLMinutes)
	}
	switch c.Tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("unsupported tracing exporter: %s", c.Tracing.Exporter)
	}
	return nil
}
