package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "didlink.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
listen = ":9000"
shutdown_timeout = "3s"
log_level = "debug"

[store]
kind = "postgres"

[store.postgres]
database = "didlink"
user = "didlink"
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Listen != ":9000" {
			t.Errorf("Listen = %q", cfg.Listen)
		}
		if cfg.ShutdownTimeout.Duration != 3*time.Second {
			t.Errorf("ShutdownTimeout = %s", cfg.ShutdownTimeout)
		}
		if cfg.Store.Kind != StorePostgres {
			t.Errorf("Store.Kind = %q", cfg.Store.Kind)
		}
		// Unset fields keep their defaults.
		if cfg.Admin != ":7380" {
			t.Errorf("Admin = %q", cfg.Admin)
		}
		if cfg.Store.Postgres.Port != 5432 {
			t.Errorf("Postgres.Port = %d", cfg.Store.Postgres.Port)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Fatal("Load succeeded on a missing file")
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeConfig(t, `shutdown_timeout = "banana"`)
		if _, err := Load(path); err == nil {
			t.Fatal("Load accepted an unparseable duration")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"empty listen", func(c *Config) { c.Listen = "" }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"unknown store kind", func(c *Config) { c.Store.Kind = "redis" }, true},
		{"postgres without database", func(c *Config) { c.Store.Kind = StorePostgres }, true},
		{"s3 without bucket", func(c *Config) { c.Store.Kind = StoreS3 }, true},
		{"s3 with bucket", func(c *Config) {
			c.Store.Kind = StoreS3
			c.Store.S3.Bucket = "documents"
		}, false},
		{"negative max conns", func(c *Config) { c.MaxConns = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
