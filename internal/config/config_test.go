package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, HostModeLocal, cfg.Host.Mode)
	assert.Equal(t, ExporterNone, cfg.Tracing.Exporter)
	assert.True(t, cfg.AutoRefresh)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative limit", func(c *Config) { c.CommitLimit = -1 }, "commit_limit"},
		{"negative debounce", func(c *Config) { c.AutoRefreshDebounce = -time.Second }, "auto_refresh_debounce"},
		{"negative gc time", func(c *Config) { c.Cache.GCTime = -time.Second }, "gc_time"},
		{"unknown host mode", func(c *Config) { c.Host.Mode = "carrier-pigeon" }, "host.mode"},
		{"grpc without address", func(c *Config) { c.Host.Mode = HostModeGRPC; c.Host.Address = "" }, "host.address"},
		{"unknown exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	cfg := Defaults()
	cfg.CommitLimit = 0
	require.NoError(t, cfg.Validate(), "zero limit lists every commit")
}

func TestLoad_FromYAML(t *testing.T) {
	cfg := loadConfigFromYAML(t, `
repo_path: /src/project
commit_limit: 50
auto_refresh: false
auto_refresh_debounce: 2s
host:
  mode: grpc
  address: build-box:7419
cache:
  gc_time: 30s
tracing:
  exporter: otlp
  endpoint: collector:4317
log:
  level: debug
  file: /tmp/gitglance.log
`)

	assert.Equal(t, "/src/project", cfg.RepoPath)
	assert.Equal(t, 50, cfg.CommitLimit)
	assert.False(t, cfg.AutoRefresh)
	assert.Equal(t, 2*time.Second, cfg.AutoRefreshDebounce)
	assert.Equal(t, HostModeGRPC, cfg.Host.Mode)
	assert.Equal(t, "build-box:7419", cfg.Host.Address)
	assert.Equal(t, Defaults().Host.Listen, cfg.Host.Listen)
	assert.Equal(t, 30*time.Second, cfg.Cache.GCTime)
	assert.Equal(t, ExporterOTLP, cfg.Tracing.Exporter)
	assert.Equal(t, "collector:4317", cfg.Tracing.Endpoint)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/gitglance.log", cfg.Log.File)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg := loadConfigFromYAML(t, "commit_limit: 10\n")

	want := Defaults()
	want.CommitLimit = 10
	assert.Equal(t, want, cfg)
}

func TestLoad_InvalidRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host:\n  mode: smoke-signals\n"), 0644))

	v := viper.New()
	v.SetConfigFile(path)
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoad_NoConfigFile(t *testing.T) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(t.TempDir())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load(v)
	require.Error(t, err)
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	cfg := loadConfigFromYAML(t, DefaultConfigTemplate())
	assert.Equal(t, Defaults(), cfg)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gitglance", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigTemplate(), string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func loadConfigFromYAML(t *testing.T, yaml string) Config {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configPath, []byte(yaml), 0644)
	require.NoError(t, err)

	v := viper.New()
	v.SetConfigFile(configPath)
	cfg, err := Load(v)
	require.NoError(t, err)

	return cfg
}
