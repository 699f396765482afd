// Package config defines the YAML configuration surface and its loader.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Redis       RedisConfig       `yaml:"redis"`
	Cache       CacheConfig       `yaml:"cache"`
	Filters     FiltersConfig     `yaml:"filters"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RedisConfig configures the store connection.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PoolSize     int           `yaml:"pool_size"`

	// Optional store provisioning applied once at startup. Eviction under
	// memory pressure is owned by the store; these only set its knobs.
	MaxMemory       string `yaml:"max_memory"`        // e.g. "100mb", empty = leave as is
	MaxMemoryPolicy string `yaml:"max_memory_policy"` // e.g. "allkeys-lru"
}

// CacheConfig configures the expiration policy engine.
type CacheConfig struct {
	SlidingWindow time.Duration `yaml:"sliding_window"`
}

// FiltersConfig carries defaults for membership filter creation.
type FiltersConfig struct {
	DefaultErrorRate float64 `yaml:"default_error_rate"`
	DefaultCapacity  int64   `yaml:"default_capacity"`
}

// MaintenanceConfig configures the periodic maintenance schedule.
type MaintenanceConfig struct {
	Interval         time.Duration `yaml:"interval"`
	TransientPattern string        `yaml:"transient_pattern"`
	TransientMarker  string        `yaml:"transient_marker"`
	SessionPattern   string        `yaml:"session_pattern"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // empty = stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Addr:        "127.0.0.1:6379",
			DialTimeout: 2 * time.Second,
			ReadTimeout: 2 * time.Second,
			PoolSize:    10,
		},
		Cache: CacheConfig{
			SlidingWindow: time.Minute,
		},
		Filters: FiltersConfig{
			DefaultErrorRate: 0.01,
			DefaultCapacity:  10000,
		},
		Maintenance: MaintenanceConfig{
			Interval:         time.Minute,
			TransientPattern: "cache:temp:*",
			TransientMarker:  ":temp:",
			SessionPattern:   "session:*",
			SessionTTL:       time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
