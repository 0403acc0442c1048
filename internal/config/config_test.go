package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yaml := `
general:
  instance_id: "test-node"
  environment: "development"
  log_level: "debug"

server:
  listen_addr: ":9090"

provider:
  api_key: "test-key"
  timeout: 5s

cache:
  enabled: true
  addr: "localhost:16379"

summary:
  enabled: true
  api_key: "sk-test"

live:
  enabled: true
  sweep_interval: 10s
  window_seconds: 120
`
	tmpFile, err := os.CreateTemp("", "ttt-config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(yaml)
	require.NoError(t, err)
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	require.NoError(t, err)

	assert.Equal(t, "test-node", cfg.General.InstanceID)
	assert.Equal(t, "debug", cfg.General.LogLevel)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "test-key", cfg.Provider.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "localhost:16379", cfg.Cache.Addr)
	assert.True(t, cfg.Summary.Enabled)
	assert.Equal(t, int64(120), cfg.Live.WindowSeconds)
}

func TestLoadConfigDefaults(t *testing.T) {
	yaml := `
general:
  log_level: "info"
`
	tmpFile, err := os.CreateTemp("", "ttt-config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(yaml)
	require.NoError(t, err)
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	require.NoError(t, err)

	assert.Equal(t, "ttt-1", cfg.General.InstanceID)
	assert.Equal(t, "development", cfg.General.Environment)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "https://mainnet.helius-rpc.com", cfg.Provider.RPCURL)
	assert.Equal(t, 15*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.False(t, cfg.Summary.Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.Summary.Model)
	assert.Equal(t, 30*time.Second, cfg.Live.SweepInterval)
	assert.Equal(t, int64(300), cfg.Live.WindowSeconds)
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	os.Setenv("TEST_TTT_API_KEY", "env-key")
	defer os.Unsetenv("TEST_TTT_API_KEY")

	yaml := `
provider:
  api_key: "${TEST_TTT_API_KEY}"
`
	tmpFile, err := os.CreateTemp("", "ttt-config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(yaml)
	require.NoError(t, err)
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Provider.APIKey)
}
