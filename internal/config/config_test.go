// internal/config/config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// clearEnv unsets every override variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "SERVER_NAME", "HEADLINES_TRANSPORT", "HEADLINES_NEWS_BASE_URL",
		"HEADLINES_NEWS_TIMEOUT", "HEADLINES_LOG_LEVEL", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, 10*time.Second, cfg.News.Timeout)
	assert.Equal(t, "https://techcrunch.com", cfg.News.BaseURL)
	assert.Equal(t, DefaultUserAgent, cfg.News.UserAgent)
	assert.Empty(t, cfg.Telemetry.Endpoint)
}

func TestLoadFromFile_Succeeds_When_ValidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  name: "Test Server"
  port: 9090
  transport: stdio
  request_timeout: 5s
news:
  site_name: Example
  base_url: "http://news.example.test"
  timeout: 3s
logging:
  level: debug
  format: text
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Test Server", cfg.Server.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout, "unset keys keep their defaults")
	assert.Equal(t, "Example", cfg.News.SiteName)
	assert.Equal(t, "http://news.example.test", cfg.News.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.News.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadFromFile_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("SERVER_NAME", "From Env")
	t.Setenv("HEADLINES_NEWS_BASE_URL", "http://env.example.test")
	t.Setenv("HEADLINES_NEWS_TIMEOUT", "2s")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	path := writeConfig(t, "server:\n  name: From File\n  port: 9090\n")
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "From Env", cfg.Server.Name)
	assert.Equal(t, "http://env.example.test", cfg.News.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.News.Timeout)
	assert.Equal(t, "localhost:4318", cfg.Telemetry.Endpoint)
}

func TestLoadFromFile_IgnoresInvalidEnvPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "not-a-port")

	cfg, err := LoadFromFile(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadFromFile_Fails_When_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty name", "server:\n  name: \"\"\n", "server.name"},
		{"negative port", "server:\n  port: -1\n", "server.port"},
		{"unknown transport", "server:\n  transport: carrier-pigeon\n", "server.transport"},
		{"relative base url", "news:\n  base_url: /relative\n", "news.base_url"},
		{"zero timeout", "news:\n  timeout: 0s\n", "news.timeout"},
		{"bad yaml", "server: [unclosed\n", "parse config file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadFromFile_Fails_When_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
