// Package config loads service configuration from the environment, with an
// optional YAML overlay for deployments that prefer a file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST,default=0.0.0.0" yaml:"host"`
	Port            int           `env:"SERVER_PORT,default=8080" yaml:"port"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=15s" yaml:"read_timeout"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=30s" yaml:"write_timeout"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT,default=60s" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `env:"SERVER_MAX_BODY_BYTES,default=1048576" yaml:"max_body_bytes"`
}

// DatabaseConfig controls the PostgreSQL connection pool. The pool is the
// only backpressure mechanism: when MaxOpenConns are busy, requests queue
// for a connection.
type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER,default=postgres" yaml:"driver"`
	DSN             string        `env:"DATABASE_URL" yaml:"dsn"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=20" yaml:"max_open_conns"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m" yaml:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s" yaml:"connect_timeout"`
	EnsureSchema    bool          `env:"DB_ENSURE_SCHEMA,default=true" yaml:"ensure_schema"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL,default=info" yaml:"level"`
	Format     string `env:"LOG_FORMAT,default=json" yaml:"format"`
	Output     string `env:"LOG_OUTPUT,default=stdout" yaml:"output"`
	FilePrefix string `env:"LOG_FILE_PREFIX,default=abie" yaml:"file_prefix"`
}

// RateLimitConfig controls the per-IP request budgets.
type RateLimitConfig struct {
	GeneralLimit  int           `env:"RATE_LIMIT_GENERAL,default=100" yaml:"general_limit"`
	GeneralWindow time.Duration `env:"RATE_LIMIT_GENERAL_WINDOW,default=15m" yaml:"general_window"`
	StrictLimit   int           `env:"RATE_LIMIT_STRICT,default=5" yaml:"strict_limit"`
	StrictWindow  time.Duration `env:"RATE_LIMIT_STRICT_WINDOW,default=1h" yaml:"strict_window"`
}

// CORSConfig controls the origin allow-list. Origins are separated by ";"
// in the environment variable.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=*" yaml:"allowed_origins"`
}

// Load builds the configuration from environment variables (falling back to
// defaults), then applies the YAML file named by CONFIG_FILE on top if set.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
