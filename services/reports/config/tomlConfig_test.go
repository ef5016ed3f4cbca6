package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigString = `
ListenAddress = "0.0.0.0:8080"
RetentionSeconds = 604800
NumHistory = 100
`

func TestConfig(t *testing.T) {
	t.Parallel()

	expectedCfg := Config{
		ListenAddress:    "0.0.0.0:8080",
		RetentionSeconds: 604800,
		NumHistory:       100,
	}

	cfg := Config{}

	err := toml.Unmarshal([]byte(testConfigString), &cfg)
	assert.Nil(t, err)
	assert.Equal(t, expectedCfg, cfg)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Contains(t, err.Error(), "failed to read config file")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.Nil(t, os.WriteFile(path, []byte(testConfigString), 0644))

	cfg, err := LoadConfig(path)
	require.Nil(t, err)
	assert.Equal(t, 100, cfg.NumHistory)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddress)
}
