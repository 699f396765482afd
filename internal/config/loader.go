package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

// Loader handles configuration loading and parsing.
type Loader struct {
	envPattern *regexp.Regexp
}

// NewLoader creates a configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPattern: regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`),
	}
}

// Load reads and parses a configuration file.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return l.Parse(data)
}

// Parse parses configuration from YAML bytes, expanding ${ENV_VAR}
// references, layering the result over defaults and validating it.
func (l *Loader) Parse(data []byte) (*Config, error) {
	expanded := l.expandEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} with environment variable values.
// Unset variables expand to the empty string.
func (l *Loader) expandEnvVars(input string) string {
	return l.envPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return ""
	})
}

func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must not be empty")
	}
	if cfg.Cache.SlidingWindow <= 0 {
		return fmt.Errorf("cache.sliding_window must be positive, got %v", cfg.Cache.SlidingWindow)
	}
	if r := cfg.Filters.DefaultErrorRate; r <= 0 || r >= 1 {
		return fmt.Errorf("filters.default_error_rate must be in (0, 1), got %g", r)
	}
	if cfg.Filters.DefaultCapacity <= 0 {
		return fmt.Errorf("filters.default_capacity must be positive, got %d", cfg.Filters.DefaultCapacity)
	}
	if cfg.Maintenance.Interval <= 0 {
		return fmt.Errorf("maintenance.interval must be positive, got %v", cfg.Maintenance.Interval)
	}
	if cfg.Maintenance.SessionTTL <= 0 {
		return fmt.Errorf("maintenance.session_ttl must be positive, got %v", cfg.Maintenance.SessionTTL)
	}
	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", cfg.Logging.Level)
	}
	return nil
}
