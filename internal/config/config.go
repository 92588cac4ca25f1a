package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ctxfilter/ollama-context-filter/internal/monitoring"
)

// Config is the full proxy configuration. Loaded once at startup and treated
// as immutable for the process lifetime.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Upstream   UpstreamConfig            `yaml:"upstream"`
	Filter     FilterConfig              `yaml:"filter"`
	Reporter   monitoring.ReporterConfig `yaml:"reporter"`
	Monitoring MonitoringConfig          `yaml:"monitoring"`
}

// ServerConfig holds the listen side.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// UpstreamConfig holds the forward side (the Ollama server).
type UpstreamConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// URL returns the upstream base URL.
func (u UpstreamConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", u.Host, u.Port)
}

// FilterConfig holds the model allow-list.
type FilterConfig struct {
	Enabled bool     `yaml:"enabled"`
	Models  []string `yaml:"models"`
}

// MonitoringConfig holds telemetry sink settings.
type MonitoringConfig struct {
	Telemetry     monitoring.TelemetryConfig `yaml:"telemetry"`
	HistoryDBPath string                     `yaml:"history_db_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         DefaultProxyPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultServerWriteTimeout,
		},
		Upstream: UpstreamConfig{
			Host:    DefaultUpstreamHost,
			Port:    DefaultUpstreamPort,
			Timeout: DefaultUpstreamTimeout,
		},
		Filter: FilterConfig{
			Enabled: true,
			Models:  append([]string(nil), DefaultAllowedModels...),
		},
		Reporter: monitoring.ReporterConfig{
			Detailed:        true,
			ShowFullContent: false,
			MaxPreviewLen:   monitoring.DefaultMaxPreviewLen,
		},
		Monitoring: MonitoringConfig{
			Telemetry: monitoring.TelemetryConfig{
				Enabled:     true,
				LogToStdout: true,
			},
		},
	}
}

// Load reads a YAML config file over the defaults. Environment variable
// references in values are expanded before parsing. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := ExpandEnvWithDefaults(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Upstream.Port <= 0 || c.Upstream.Port > 65535 {
		return fmt.Errorf("upstream.port out of range: %d", c.Upstream.Port)
	}
	if c.Upstream.Host == "" {
		return fmt.Errorf("upstream.host is required")
	}
	if c.Server.Port == c.Upstream.Port && c.Upstream.Host == DefaultUpstreamHost {
		return fmt.Errorf("server.port and upstream.port must differ (%d)", c.Server.Port)
	}
	if c.Reporter.MaxPreviewLen < 0 {
		return fmt.Errorf("reporter.max_preview_len must be >= 0")
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// ExpandEnvWithDefaults expands ${VAR} and ${VAR:-default} references in s.
// Unset variables without a default expand to the empty string.
func ExpandEnvWithDefaults(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name, def := groups[1], groups[3]
		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val
		}
		if strings.Contains(match, ":-") {
			return def
		}
		return ""
	})
}
