package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DIRECTORY_BASE_URL", "MOCK_DATA_ENABLED", "ENGINE_REQUEST_TIMEOUT", "GRAPH_URI", "GRAPH_QUERY_TIMEOUT", "DIRECTORY_RATE_LIMIT", "SERVER_ALLOW_CREDENTIALS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.HTTP.Port)
	assert.Equal(t, "https://api.ethos.network", cfg.Directory.BaseURL)
	assert.Equal(t, defaultDirectoryClient, cfg.Directory.ClientName)
	assert.Zero(t, cfg.Directory.RateLimit)
	assert.True(t, cfg.Data.MockEnabled)
	assert.Empty(t, cfg.Graph.URI)
	assert.Equal(t, 5*time.Second, cfg.Graph.QueryTimeout)
	assert.False(t, cfg.HTTP.AllowCredentials)
	assert.Equal(t, defaultRequestTimeout, cfg.Engine.RequestTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DIRECTORY_BASE_URL", "http://directory.local")
	t.Setenv("DIRECTORY_TIMEOUT", "3s")
	t.Setenv("DIRECTORY_RATE_LIMIT", "2.5")
	t.Setenv("ENGINE_REQUEST_TIMEOUT", "750ms")
	t.Setenv("MOCK_DATA_ENABLED", "false")
	t.Setenv("STATIC_DATASET_PATH", "/data/static.yaml")
	t.Setenv("SERVER_ALLOW_CREDENTIALS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "http://directory.local", cfg.Directory.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Directory.Timeout)
	assert.InDelta(t, 2.5, cfg.Directory.RateLimit, 1e-9)
	assert.Equal(t, 750*time.Millisecond, cfg.Engine.RequestTimeout)
	assert.False(t, cfg.Data.MockEnabled)
	assert.Equal(t, "/data/static.yaml", cfg.Data.StaticDatasetPath)
	assert.True(t, cfg.HTTP.AllowCredentials)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"SERVER_PORT":            "70000",
		"ENGINE_REQUEST_TIMEOUT": "soon",
		"DIRECTORY_RATE_LIMIT":   "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
