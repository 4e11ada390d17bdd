package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// SetDefaults registers every default with v so keys missing from the file
// and environment fall back to Defaults().
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("repo_path", d.RepoPath)
	v.SetDefault("commit_limit", d.CommitLimit)
	v.SetDefault("auto_refresh", d.AutoRefresh)
	v.SetDefault("auto_refresh_debounce", d.AutoRefreshDebounce)
	v.SetDefault("host.mode", d.Host.Mode)
	v.SetDefault("host.address", d.Host.Address)
	v.SetDefault("host.listen", d.Host.Listen)
	v.SetDefault("cache.gc_time", d.Cache.GCTime)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Load reads the config file v points at, if any, and returns the validated
// result. A missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
