// Package config provides configuration types and defaults for gitglance.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Host transport modes.
const (
	HostModeLocal = "local"
	HostModeGRPC  = "grpc"
)

// Tracing exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config holds all configuration options for gitglance.
type Config struct {
	RepoPath            string        `mapstructure:"repo_path"`
	CommitLimit         int           `mapstructure:"commit_limit"` // 0 lists every commit
	AutoRefresh         bool          `mapstructure:"auto_refresh"`
	AutoRefreshDebounce time.Duration `mapstructure:"auto_refresh_debounce"`
	Host                HostConfig    `mapstructure:"host"`
	Cache               CacheConfig   `mapstructure:"cache"`
	Tracing             TracingConfig `mapstructure:"tracing"`
	Log                 LogConfig     `mapstructure:"log"`
}

// HostConfig selects where commands execute.
type HostConfig struct {
	// Mode is "local" (in-process) or "grpc" (remote host at Address).
	Mode    string `mapstructure:"mode"`
	Address string `mapstructure:"address"`
	// Listen is the address `gitglance serve` binds to.
	Listen string `mapstructure:"listen"`
}

// CacheConfig tunes the query cache.
type CacheConfig struct {
	GCTime time.Duration `mapstructure:"gc_time"`
}

// TracingConfig configures OpenTelemetry export of gateway spans.
type TracingConfig struct {
	Exporter string `mapstructure:"exporter"`
	Endpoint string `mapstructure:"endpoint"` // otlp collector, host:port
}

// LogConfig configures the debug log file.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		CommitLimit:         200,
		AutoRefresh:         true,
		AutoRefreshDebounce: 300 * time.Millisecond,
		Host: HostConfig{
			Mode:    HostModeLocal,
			Address: "127.0.0.1:7419",
			Listen:  "127.0.0.1:7419",
		},
		Cache: CacheConfig{
			GCTime: 5 * time.Minute,
		},
		Tracing: TracingConfig{
			Exporter: ExporterNone,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.CommitLimit < 0 {
		return fmt.Errorf("commit_limit must not be negative, got %d", c.CommitLimit)
	}
	if c.AutoRefreshDebounce < 0 {
		return fmt.Errorf("auto_refresh_debounce must not be negative, got %s", c.AutoRefreshDebounce)
	}
	if c.Cache.GCTime < 0 {
		return fmt.Errorf("cache.gc_time must not be negative, got %s", c.Cache.GCTime)
	}

	switch c.Host.Mode {
	case HostModeLocal:
	case HostModeGRPC:
		if c.Host.Address == "" {
			return fmt.Errorf("host.address is required when host.mode is %q", HostModeGRPC)
		}
	default:
		return fmt.Errorf("host.mode: unknown mode %q (want %q or %q)", c.Host.Mode, HostModeLocal, HostModeGRPC)
	}

	switch c.Tracing.Exporter {
	case "", ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter: unknown exporter %q", c.Tracing.Exporter)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}

// DefaultConfigPath returns ~/.config/gitglance/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gitglance", "config.yaml"), nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# gitglance configuration

# Repository to browse (default: current directory)
# repo_path: /path/to/repo

# Number of commits to list, newest first. 0 lists every commit.
commit_limit: 200

# Refresh the commit list when branches move
auto_refresh: true
auto_refresh_debounce: 300ms

# Where commands run
host:
  mode: local              # local | grpc
  address: 127.0.0.1:7419  # remote host when mode is grpc
  listen: 127.0.0.1:7419   # bind address for 'gitglance serve'

# Query cache
cache:
  gc_time: 5m  # how long unused results stay cached

# OpenTelemetry spans for host commands
tracing:
  exporter: none  # none | stdout | otlp
  # endpoint: localhost:4317

# Debug log (the terminal belongs to the UI, so logs go to a file)
log:
  level: info
  # file: /tmp/gitglance.log
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
