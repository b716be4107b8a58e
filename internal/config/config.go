// Package config loads the didlink TOML configuration file and applies
// defaults and validation before the values reach the server.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Store kinds accepted in the config file.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreS3       = "s3"
)

// Config is the didlink.toml schema.
type Config struct {
	// Listen is the TCP address of the line protocol.
	Listen string `toml:"listen"`

	// Admin is the admin HTTP address. Empty disables the admin server.
	Admin string `toml:"admin"`

	// MaxConns caps concurrent connections. 0 means no limit.
	MaxConns int `toml:"max_conns"`

	// ShutdownTimeout bounds graceful shutdown, e.g. "10s".
	ShutdownTimeout duration `toml:"shutdown_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	Store StoreConfig `toml:"store"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	// Kind is memory, postgres, or s3.
	Kind string `toml:"kind"`

	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
}

// PostgresConfig mirrors the postgres store connection settings.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"ssl_mode"`
}

// S3Config mirrors the s3 store settings.
type S3Config struct {
	Bucket string `toml:"bucket"`
	Prefix string `toml:"prefix"`
	Region string `toml:"region"`
}

// duration decodes TOML strings like "10s" into a time.Duration.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:          ":7323",
		Admin:           ":7380",
		ShutdownTimeout: duration{10 * time.Second},
		LogLevel:        "info",
		Store: StoreConfig{
			Kind: StoreMemory,
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
	}
}

// Load reads path over the defaults. Fields absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a working server.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch c.Store.Kind {
	case StoreMemory:
	case StorePostgres:
		if c.Store.Postgres.Database == "" {
			return fmt.Errorf("postgres store requires a database name")
		}
	case StoreS3:
		if c.Store.S3.Bucket == "" {
			return fmt.Errorf("s3 store requires a bucket")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("max_conns must be >= 0, got %d", c.MaxConns)
	}
	return nil
}
