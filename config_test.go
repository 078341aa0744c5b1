package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/x/exp/golden"
	"github.com/stretchr/testify/require"
)

func TestDecodeSettings(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		cfg := defaultConfig()
		require.NoError(t, decodeSettings("config.yml", []byte("timeout: 1m\ncache-ttl: 90\nformat: json\nconcurrency: 8\n"), &cfg))
		require.Equal(t, seconds(time.Minute), cfg.Timeout)
		require.Equal(t, seconds(90*time.Second), cfg.CacheTTL)
		require.Equal(t, formatJSON, cfg.Format)
		require.Equal(t, 8, cfg.Concurrency)
		require.True(t, cfg.CacheEnabled)
	})

	t.Run("json with underscores", func(t *testing.T) {
		cfg := defaultConfig()
		require.NoError(t, decodeSettings("config.json", []byte(`{"api_key":"sk-or-1","cache":false,"TIMEOUT":10}`), &cfg))
		require.Equal(t, "sk-or-1", cfg.APIKey)
		require.False(t, cfg.CacheEnabled)
		require.Equal(t, seconds(10*time.Second), cfg.Timeout)
	})

	t.Run("toml", func(t *testing.T) {
		cfg := defaultConfig()
		require.NoError(t, decodeSettings("config.toml", []byte("base_url = \"http://localhost:8080\"\nmax-retries = 0\ncache-ttl = \"2h\"\n"), &cfg))
		require.Equal(t, "http://localhost:8080", cfg.BaseURL)
		require.Equal(t, 0, cfg.MaxRetries)
		require.Equal(t, seconds(2*time.Hour), cfg.CacheTTL)
	})

	t.Run("invalid", func(t *testing.T) {
		cfg := defaultConfig()
		require.Error(t, decodeSettings("config.yml", []byte("timeout: soon"), &cfg))
		require.Error(t, decodeSettings("config.toml", []byte("timeout = "), &cfg))
	})
}

func TestEnsureConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("format: yaml\ntimeout: 5\n"), 0o600))

	t.Setenv("OPENROUTER_API_KEY", "sk-or-env")
	t.Setenv("OPENROUTER_TIMEOUT", "12")
	t.Setenv("OPENROUTER_CACHE_PATH", "/tmp/inspector")

	cfg, err := ensureConfig(path)
	require.NoError(t, err)
	require.Equal(t, path, cfg.SettingsPath)
	require.Equal(t, "sk-or-env", cfg.APIKey)
	require.Equal(t, formatYAML, cfg.Format)
	require.Equal(t, seconds(12*time.Second), cfg.Timeout)
	require.Equal(t, "/tmp/inspector", cfg.CachePath)
}

func TestEnsureConfigMissingFile(t *testing.T) {
	_, err := ensureConfig(filepath.Join(t.TempDir(), "nope.yml"))
	var ierr inspectorError
	require.ErrorAs(t, err, &ierr)
	require.Equal(t, "Could not read settings file.", ierr.Reason())
}

func TestConfigFileArg(t *testing.T) {
	for name, tc := range map[string]struct {
		args []string
		want string
	}{
		"none":      {[]string{"list", "-f", "json"}, ""},
		"separate":  {[]string{"--config-file", "a.yml", "list"}, "a.yml"},
		"equals":    {[]string{"list", "--config-file=b.toml"}, "b.toml"},
		"dangling":  {[]string{"list", "--config-file"}, ""},
		"after end": {[]string{"ping", "--", "--config-file", "c.yml"}, ""},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, configFileArg(tc.args))
		})
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := defaultConfig()
	for _, f := range outputFormats {
		cfg.Format = f
		require.NoError(t, validateConfig(cfg))
	}

	cfg.Format = "xml"
	err := validateConfig(cfg)
	var ierr inspectorError
	require.ErrorAs(t, err, &ierr)
	require.Equal(t, "Invalid output format.", ierr.Reason())
	require.Contains(t, err.Error(), `"xml"`)
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, writeConfigFile(path))

	bts, err := os.ReadFile(path)
	require.NoError(t, err)
	golden.RequireEqual(t, bts)

	t.Run("decodes to defaults", func(t *testing.T) {
		var cfg Config
		require.NoError(t, decodeSettings(path, bts, &cfg))
		require.Equal(t, defaultConfig(), cfg)
	})

	t.Run("existing file is kept", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("format: json\n"), 0o600))
		require.NoError(t, writeConfigFile(path))
		bts, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "format: json\n", string(bts))
	})
}
