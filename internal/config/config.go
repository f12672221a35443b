// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver      string `env:"COHESION_DB_DRIVER" envDefault:"sqlite"`
	DBPath        string `env:"COHESION_DB_PATH" envDefault:"./data/cohesion.db"`
	MySQLDSN      string `env:"COHESION_MYSQL_DSN"` // e.g. user:pass@tcp(host:3306)/cohesion
	SessionSecret string `env:"COHESION_SESSION_SECRET,required"`
	ServerHost    string `env:"COHESION_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"COHESION_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"COHESION_ENV" envDefault:"development"`
	LogLevel      string `env:"COHESION_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"COHESION_UPLOADS_DIR" envDefault:"./uploads"`
	MaxUploadMB   int64  `env:"COHESION_MAX_UPLOAD_MB" envDefault:"512"`

	// Bearer token accepted by write endpoints of the JSON API (used by taxonomyctl).
	APIToken string `env:"COHESION_API_TOKEN"`

	// Cache configuration
	RedisURL     string `env:"COHESION_REDIS_URL"`                           // Optional Redis URL for distributed caching
	CachePrefix  string `env:"COHESION_CACHE_PREFIX" envDefault:"cohesion:"` // Redis key prefix
	CacheTTL     int    `env:"COHESION_CACHE_TTL" envDefault:"600"`          // Default cache TTL in seconds
	CacheMaxSize int    `env:"COHESION_CACHE_MAX_SIZE" envDefault:"10000"`   // Max memory cache entries

	// Taxonomy flattening
	FlattenConcurrency int    `env:"COHESION_FLATTEN_CONCURRENCY" envDefault:"8"`
	FlattenMaxDepth    int    `env:"COHESION_FLATTEN_MAX_DEPTH" envDefault:"32"`
	FlattenRefresh     string `env:"COHESION_FLATTEN_REFRESH" envDefault:"@every 10m"` // cron spec
	EventRetentionDays int    `env:"COHESION_EVENT_RETENTION_DAYS" envDefault:"30"`

	// Rate limiting for /api routes, per client IP
	APIRateLimit float64 `env:"COHESION_API_RATE_LIMIT" envDefault:"20"`
	APIRateBurst int     `env:"COHESION_API_RATE_BURST" envDefault:"40"`

	// Seeding configuration
	DoSeed bool `env:"COHESION_DO_SEED" envDefault:"false"` // Seed the starter taxonomy
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseMySQL returns true if the MySQL driver is selected.
func (c Config) UseMySQL() bool {
	return c.DBDriver == "mysql"
}

// DBSource returns the path or DSN for the selected driver.
func (c Config) DBSource() string {
	if c.UseMySQL() {
		return c.MySQLDSN
	}
	return c.DBPath
}

// CacheTTLDuration returns the default cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("COHESION_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("COHESION_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("COHESION_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "mysql":
		if cfg.MySQLDSN == "" {
			return nil, fmt.Errorf("COHESION_MYSQL_DSN is required when COHESION_DB_DRIVER=mysql")
		}
	default:
		return nil, fmt.Errorf("COHESION_DB_DRIVER must be sqlite or mysql, got %q", cfg.DBDriver)
	}

	if cfg.FlattenConcurrency < 1 {
		return nil, fmt.Errorf("COHESION_FLATTEN_CONCURRENCY must be at least 1, got %d", cfg.FlattenConcurrency)
	}
	if cfg.FlattenMaxDepth < 1 {
		return nil, fmt.Errorf("COHESION_FLATTEN_MAX_DEPTH must be at least 1, got %d", cfg.FlattenMaxDepth)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
