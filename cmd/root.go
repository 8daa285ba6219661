// Package cmd implements the templar command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/templar/internal/cachemanager"
	"github.com/zjrosen/templar/internal/config"
	"github.com/zjrosen/templar/internal/log"
	"github.com/zjrosen/templar/internal/manifest"
	"github.com/zjrosen/templar/internal/migration"
	"github.com/zjrosen/templar/internal/paths"
	"github.com/zjrosen/templar/internal/registry"
	"github.com/zjrosen/templar/internal/resolver"
)

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "templar",
	Short:   "Version and migration management for configuration templates",
	Long: `Templar manages versioned configuration templates: it registers semantic
versions per template, resolves a consistent version set across templates with
conflicting range constraints, and migrates a template document across version
boundaries with backup-and-rollback safety.

Template versions, resolution requirements, and declarative migrations are
declared in a templar.yaml manifest.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .templar/config.yaml, then ~/.config/templar/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write debug logs to .templar/debug.log")
	rootCmd.PersistentFlags().String("manifest", "",
		"manifest file (default: templar.yaml)")

	_ = viper.BindPFlag("manifest_path", rootCmd.PersistentFlags().Lookup("manifest"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("manifest_path", defaults.ManifestPath)
	viper.SetDefault("allow_prerelease", defaults.AllowPrerelease)
	viper.SetDefault("strict", defaults.Strict)
	viper.SetDefault("backup.enabled", defaults.Backup.Enabled)
	viper.SetDefault("backup.dir", defaults.Backup.Dir)
	viper.SetDefault("history.enabled", defaults.History.Enabled)
	viper.SetDefault("history.path", defaults.History.Path)
	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.ttl_minutes", defaults.Cache.TTLMinutes)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .templar/config.yaml (current directory)
		// 2. ~/.config/templar/config.yaml (user config)
		local := filepath.Join(paths.DataDirName, "config.yaml")
		if _, err := os.Stat(local); err == nil {
			viper.SetConfigFile(local)
		} else {
			viper.AddConfigPath(filepath.Dir(paths.UserConfigFile()))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .templar/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := filepath.Join(paths.DataDirName, "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)

	if debug {
		logPath := filepath.Join(paths.DataDirName, "debug.log")
		_ = os.MkdirAll(filepath.Dir(logPath), 0o750)
		if cleanup, err := log.Init(logPath); err == nil {
			cobra.OnFinalize(cleanup)
		}
	}
}

// engine is everything a command needs after the manifest is loaded.
type engine struct {
	manifest   *manifest.Manifest
	versions   *registry.Registry
	migrations *migration.Registry
	resolver   *resolver.Resolver
}

// loadEngine validates the configuration, loads the manifest from disk, and
// registers its contents.
func loadEngine() (*engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dir, file := filepath.Split(cfg.ManifestPath)
	if dir == "" {
		dir = "."
	}
	m, err := manifest.Load(os.DirFS(dir), file)
	if err != nil {
		return nil, err
	}

	versions := registry.NewRegistry()
	migrations := migration.NewRegistry()
	if err := m.Apply(versions, migrations); err != nil {
		return nil, fmt.Errorf("applying manifest: %w", err)
	}

	opts := resolver.Options{IncludePrerelease: cfg.AllowPrerelease}
	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
		opts.Cache = cachemanager.NewInMemoryCacheManager[string, resolver.Result](
			"resolution", ttl, cachemanager.DefaultCleanupInterval)
		opts.CacheTTL = ttl
	}

	return &engine{
		manifest:   m,
		versions:   versions,
		migrations: migrations,
		resolver:   resolver.NewResolver(versions, opts),
	}, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
