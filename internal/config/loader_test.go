package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalYAML = `
server:
  port: 8081
  mode: release
database:
  user: litfed
providers:
  springer:
    enabled: true
    api_key: yaml-key
  scopus:
    enabled: true
    timeout: 10s
log:
  level: debug
`

func TestLoad(t *testing.T) {
	path := writeConfigFile(t, minimalYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "litfed", cfg.Database.User)
	assert.True(t, cfg.Providers.Springer.Enabled)
	assert.Equal(t, "yaml-key", cfg.Providers.Springer.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Providers.Scopus.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Defaults filled for everything the file omits.
	assert.Equal(t, DefaultSpringerEndpoint, cfg.Providers.Springer.Endpoint)
	assert.Equal(t, DefaultElsevierEndpoint, cfg.Providers.Scopus.Endpoint)
	assert.Equal(t, DefaultFederationPageLength, cfg.Federation.DefaultPageLength)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  mode: bogus
database:
  user: litfed
providers:
  springer:
    enabled: true
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	// Env overrides apply to keys present in the file.
	t.Setenv("LITFED_DATABASE_USER", "override-user")
	path := writeConfigFile(t, minimalYAML)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "override-user", cfg.Database.User)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() { MustLoad("/nonexistent/config.yaml") })
}
