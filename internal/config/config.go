// Package config loads the service configuration from environment variables
// with defaults, and validates it on startup so misconfiguration fails fast.
//
// Variables are grouped by prefix: SERVER_*, DB_*, CACHE_*, VIEW_*,
// RATE_LIMIT_*, SECURITY_*, LOG_* and ACADEMIC_*.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig    `envconfig:"SERVER"`
	Database DatabaseConfig  `envconfig:"DB"`
	Cache    CacheConfig     `envconfig:"CACHE"`
	View     ViewConfig      `envconfig:"VIEW"`
	Rate     RateLimitConfig `envconfig:"RATE_LIMIT"`
	Security SecurityConfig  `envconfig:"SECURITY"`
	Logging  LoggingConfig   `envconfig:"LOG"`
	Academic AcademicConfig  `envconfig:"ACADEMIC"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `split_words:"true" default:"0.0.0.0"`
	Port int    `split_words:"true" default:"8080"`

	ReadTimeout     time.Duration `split_words:"true" default:"15s"`
	WriteTimeout    time.Duration `split_words:"true" default:"30s"`
	IdleTimeout     time.Duration `split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`

	// RequestTimeout bounds each request through the Timeout middleware.
	RequestTimeout time.Duration `split_words:"true" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. DATABASE_URL is accepted
	// when DB_URL is unset.
	URL string `split_words:"true"`

	MaxConns        int           `split_words:"true" default:"10"`
	MinConns        int           `split_words:"true" default:"2"`
	MaxConnLifetime time.Duration `split_words:"true" default:"1h"`
	MaxConnIdleTime time.Duration `split_words:"true" default:"30m"`

	// Migrate applies the embedded schema on startup.
	Migrate bool `split_words:"true" default:"true"`
}

// CacheConfig holds the row cache settings.
type CacheConfig struct {
	Enabled         bool          `split_words:"true" default:"true"`
	TTL             time.Duration `split_words:"true" default:"5m"`
	CleanupInterval time.Duration `split_words:"true" default:"10m"`
}

// ViewConfig holds data-view defaults.
type ViewConfig struct {
	PageSize    int    `split_words:"true" default:"10"`
	MaxPageSize int    `split_words:"true" default:"100"`
	DateLayout  string `split_words:"true" default:"02/01/2006"`
	// Language is the BCP 47 tag used to collate text columns.
	Language string `split_words:"true" default:"fr"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	Enabled           bool `split_words:"true" default:"true"`
	RequestsPerMinute int  `split_words:"true" default:"300"`
	// ActionsPerMinute limits the write endpoints.
	ActionsPerMinute int `split_words:"true" default:"60"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers are honored.
	TrustedProxies []string `split_words:"true"`
	EnableCSP      bool     `split_words:"true" default:"true"`
	RequireAPIKey  bool     `split_words:"true" default:"false"`
	APIKeys        []string `split_words:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `split_words:"true" default:"info"`
	Format string `split_words:"true" default:"text"`
}

// AcademicConfig selects the academic year every screen is scoped to.
type AcademicConfig struct {
	// Year such as "2024-2025". Defaults to the year in progress.
	Year string `split_words:"true"`
}

// APIKeyEnforced reports whether API requests must carry a key.
func (c *SecurityConfig) APIKeyEnforced() bool {
	return c.RequireAPIKey || len(c.APIKeys) > 0
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// CurrentAcademicYear returns the academic year in progress at t. A new
// year starts in September.
func CurrentAcademicYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.September {
		start--
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(start+1)
}
