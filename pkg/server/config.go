package server

import (
	"fmt"
	"net/http"
	"time"
)

// Config holds configuration for the TCP listener and the admin HTTP
// surface.
type Config struct {
	// Address is the TCP address the line protocol listens on.
	// Default: ":7323".
	Address string

	// AdminAddress is the address of the admin HTTP server
	// (healthz, readyz, metrics, ws). Empty disables the admin server;
	// DefaultConfig enables it on ":7380".
	AdminAddress string

	// MaxConns caps concurrent connections across both listeners.
	// 0 means no limit.
	// Default: 0 (no limit).
	MaxConns int

	// ShutdownTimeout is the maximum time to wait for connections to
	// drain on graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout is the admin server's header read timeout.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// CheckOrigin validates the origin of WebSocket upgrade requests.
	// Default: allows all origins (not recommended for production).
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":7323",
		AdminAddress:      ":7380",
		MaxConns:          0,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		CheckOrigin:       func(*http.Request) bool { return true },
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	defaults := DefaultConfig()
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	return &out
}

// Validate reports configuration errors that would only surface at listen
// time otherwise.
func (c *Config) Validate() error {
	if c.MaxConns < 0 {
		return fmt.Errorf("max conns must be >= 0, got %d", c.MaxConns)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout must be >= 0, got %s", c.ShutdownTimeout)
	}
	return nil
}
