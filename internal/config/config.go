package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the OpenAI dashboard billing usage endpoint.
const DefaultBaseURL = "https://api.openai.com/v1/dashboard/billing/usage"

// Config holds the spendgate configuration. It is read once at startup and never mutated afterwards.
type Config struct {
	Listener ListenerConfig `yaml:"listener"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Ops      OpsConfig      `yaml:"ops"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// ListenerConfig holds the breaker TCP listener settings.
type ListenerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	MaxLineBytes    int    `yaml:"max_line_bytes"`
}

// Addr returns host:port for net.Listen.
func (l ListenerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// ReadTimeout returns the per-connection read deadline.
func (l ListenerConfig) ReadTimeout() time.Duration {
	return time.Duration(l.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns the per-connection write deadline.
func (l ListenerConfig) WriteTimeout() time.Duration {
	return time.Duration(l.WriteTimeoutSec) * time.Second
}

// UpstreamConfig holds the billing API settings.
type UpstreamConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
}

// Timeout returns the upstream HTTP timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSec) * time.Second
}

// OpsConfig holds the health/metrics HTTP endpoint settings.
type OpsConfig struct {
	Enabled     *bool `yaml:"enabled"` // nil = enabled
	Port        int   `yaml:"port"`
	ShutdownSec int   `yaml:"shutdown_timeout_sec"`
}

// IsEnabled reports whether the ops endpoint should be started.
func (o OpsConfig) IsEnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config bytes, expanding ${VAR} references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Listener.Host == "" {
		c.Listener.Host = "0.0.0.0"
	}
	if c.Listener.Port == 0 {
		c.Listener.Port = 5555
	}
	if c.Listener.ReadTimeoutSec <= 0 {
		c.Listener.ReadTimeoutSec = 10
	}
	if c.Listener.WriteTimeoutSec <= 0 {
		c.Listener.WriteTimeoutSec = 10
	}
	if c.Listener.MaxLineBytes <= 0 {
		c.Listener.MaxLineBytes = 1024
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = DefaultBaseURL
	}
	if c.Upstream.TimeoutSec <= 0 {
		c.Upstream.TimeoutSec = 10
	}
	if c.Ops.Port == 0 {
		c.Ops.Port = 9555
	}
	if c.Ops.ShutdownSec <= 0 {
		c.Ops.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Listener.Port <= 0 || c.Listener.Port > 65535 {
		return fmt.Errorf("listener.port must be between 1 and 65535, got %d", c.Listener.Port)
	}
	if c.Ops.IsEnabled() {
		if c.Ops.Port <= 0 || c.Ops.Port > 65535 {
			return fmt.Errorf("ops.port must be between 1 and 65535, got %d", c.Ops.Port)
		}
		if c.Ops.Port == c.Listener.Port {
			return fmt.Errorf("ops.port must differ from listener.port (%d)", c.Listener.Port)
		}
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil {
		return fmt.Errorf("upstream.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upstream.base_url must be http or https, got %q", c.Upstream.BaseURL)
	}
	if c.Upstream.RequestsPerSecond < 0 {
		return fmt.Errorf("upstream.requests_per_second must not be negative, got %v", c.Upstream.RequestsPerSecond)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, filename)
	}

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and `go run` from subdirectories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := strings.TrimSpace(os.Getenv(varName))
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
