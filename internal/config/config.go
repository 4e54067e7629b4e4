// Package config handles loading, parsing, and validating application configuration.
// It defines the structure for configuration settings, provides default values,
// loads settings from YAML files, and applies overrides from environment variables.
// file: internal/config/config.go.
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/logging"
	"gopkg.in/yaml.v3"
)

// Transport names accepted by ServerConfig.Transport.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// ServerConfig contains settings specific to the MCP server component.
type ServerConfig struct {
	// Name is advertised in the initialize result and the health check.
	Name string `yaml:"name"`
	// Port is the network port the server listens on when using HTTP transport. Ignored for stdio.
	Port int `yaml:"port"`
	// Transport selects "http" or "stdio".
	Transport string `yaml:"transport"`
	// RequestTimeout bounds reading one HTTP request and dispatching it.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// ShutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// NewsConfig holds settings for the fetch_news tool.
type NewsConfig struct {
	// SiteName is used in every text the tool returns.
	SiteName string `yaml:"site_name"`
	// BaseURL is the site root; category pages live under <base>/tag/<category>/.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds the single outbound GET.
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent is sent with every fetch.
	UserAgent string `yaml:"user_agent"`
	// MaxBodyBytes caps how much of the response body is read.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// LoggingConfig controls the default slog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig controls OpenTelemetry tracing. Tracing is off unless an
// endpoint is set.
type TelemetryConfig struct {
	// Endpoint is an OTLP/HTTP collector host:port, e.g. "localhost:4318".
	Endpoint string `yaml:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`
	// ServiceName overrides the service.name resource attribute.
	ServiceName string `yaml:"service_name"`
}

// Config is the root configuration structure for the headlines server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	News      NewsConfig      `yaml:"news"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DefaultUserAgent is a desktop browser identity; some news sites refuse
// requests from obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultConfig returns a configuration populated with default values, with
// environment overrides applied.
func DefaultConfig() *Config {
	cfg := defaults()
	applyEnvironmentOverrides(cfg, logging.GetLogger("config_default"))
	return cfg
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:            "TechCrunch News Server",
			Port:            8000,
			Transport:       TransportHTTP,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		News: NewsConfig{
			SiteName:     "TechCrunch",
			BaseURL:      "https://techcrunch.com",
			Timeout:      10 * time.Second,
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: 5 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "headlines",
		},
	}
}

// LoadFromFile loads configuration from the specified YAML file path.
// It starts with default values, merges the values from the YAML file,
// applies environment variable overrides and validates the result.
// Supports '~' expansion in the file path.
func LoadFromFile(path string) (*Config, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path comes from command-line flag, considered trusted input.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file YAML: %s", path)
	}

	applyEnvironmentOverrides(cfg, logging.GetLogger("config_load"))

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration in %s", path)
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late, at serve time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Name) == "" {
		return errors.New("server.name must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Transport {
	case TransportHTTP, TransportStdio:
	default:
		return errors.Newf("server.transport %q must be %q or %q", c.Server.Transport, TransportHTTP, TransportStdio)
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	if c.News.Timeout <= 0 {
		return errors.New("news.timeout must be positive")
	}
	if c.News.MaxBodyBytes <= 0 {
		return errors.New("news.max_body_bytes must be positive")
	}
	u, err := url.Parse(c.News.BaseURL)
	if err != nil {
		return errors.Wrap(err, "news.base_url")
	}
	if !u.IsAbs() || u.Host == "" {
		return errors.Newf("news.base_url %q must be an absolute http(s) URL", c.News.BaseURL)
	}
	return nil
}

// applyEnvironmentOverrides applies configuration overrides from environment variables.
// Environment variables take precedence over values set in configuration files or defaults.
func applyEnvironmentOverrides(config *Config, logger logging.Logger) {
	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 && port < 65536 {
			logger.Debug("Overriding server port from environment.", "envVar", "SERVER_PORT", "value", port)
			config.Server.Port = port
		} else {
			logger.Warn("Invalid SERVER_PORT environment variable ignored.", "value", portStr, "error", err)
		}
	}
	if serverName := os.Getenv("SERVER_NAME"); serverName != "" {
		logger.Debug("Overriding server name from environment.", "envVar", "SERVER_NAME", "value", serverName)
		config.Server.Name = serverName
	}
	if transport := os.Getenv("HEADLINES_TRANSPORT"); transport != "" {
		logger.Debug("Overriding transport from environment.", "envVar", "HEADLINES_TRANSPORT", "value", transport)
		config.Server.Transport = strings.ToLower(transport)
	}

	if baseURL := os.Getenv("HEADLINES_NEWS_BASE_URL"); baseURL != "" {
		logger.Debug("Overriding news base URL from environment.", "envVar", "HEADLINES_NEWS_BASE_URL", "value", baseURL)
		config.News.BaseURL = baseURL
	}
	if timeoutStr := os.Getenv("HEADLINES_NEWS_TIMEOUT"); timeoutStr != "" {
		if d, err := time.ParseDuration(timeoutStr); err == nil && d > 0 {
			logger.Debug("Overriding news timeout from environment.", "envVar", "HEADLINES_NEWS_TIMEOUT", "value", d)
			config.News.Timeout = d
		} else {
			logger.Warn("Invalid HEADLINES_NEWS_TIMEOUT environment variable ignored.", "value", timeoutStr, "error", err)
		}
	}

	if lvl := os.Getenv("HEADLINES_LOG_LEVEL"); lvl != "" {
		config.Logging.Level = lvl
	}

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		logger.Debug("Enabling tracing from environment.", "envVar", "OTEL_EXPORTER_OTLP_ENDPOINT", "value", endpoint)
		config.Telemetry.Endpoint = endpoint
	}
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory to expand path")
	}
	return filepath.Join(homeDir, path[1:]), nil
}
