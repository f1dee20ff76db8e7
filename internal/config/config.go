// Package config provides centralized configuration for the comparison
// service. It loads settings from environment variables with sensible
// defaults and validates everything on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Workspace WorkspaceConfig
	Rate      RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings for the web surface.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// Prefix is the URL path prefix for reverse-proxy deployment,
	// e.g. "excel-compare". Empty mounts the app at the root.
	Prefix string `env:"SERVER_PREFIX"`

	// ReadTimeout is the maximum duration for reading the request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 2m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m,
	// comparing large workbooks takes a while)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// UploadConfig holds workbook upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed workbook size in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`
}

// WorkspaceConfig controls the working directories that hold uploaded
// workbooks and comparison artifacts.
type WorkspaceConfig struct {
	// Dir is the parent directory for workspace entries. Empty means a
	// fresh directory under the OS temp dir, removed on shutdown.
	Dir string `env:"WORKSPACE_DIR"`

	// TTL is how long uploads and results are kept before the janitor
	// removes them (default: 1h)
	TTL time.Duration `env:"WORKSPACE_TTL" default:"1h"`

	// SweepInterval is how often the janitor runs (default: 5m)
	SweepInterval time.Duration `env:"WORKSPACE_SWEEP_INTERVAL" default:"5m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}
