// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Once loaded, configuration is read-only and passed to core components via constructors.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Archivum API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). Empty disables the version read cache.
	RedisURL string `env:"REDIS_URL"`

	// CacheTTL bounds how long an immutable version record stays cached.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	// Public key used to verify bearer tokens issued by the identity provider
	JWTPubKeyPath string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Paging
	PageDefaultLimit int `env:"PAGE_DEFAULT_LIMIT" envDefault:"10"`
	PageMaxLimit     int `env:"PAGE_MAX_LIMIT"     envDefault:"500"`

	// VersionRetryLimit is the number of attempts to allocate a version number
	// before a write is reported as a transient failure.
	VersionRetryLimit int `env:"VERSION_RETRY_LIMIT" envDefault:"5"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.PageDefaultLimit < 1 || c.PageMaxLimit < c.PageDefaultLimit {
		return fmt.Errorf("config: PAGE_DEFAULT_LIMIT must be in [1, PAGE_MAX_LIMIT], got %d/%d", c.PageDefaultLimit, c.PageMaxLimit)
	}
	if c.VersionRetryLimit < 1 {
		return fmt.Errorf("config: VERSION_RETRY_LIMIT must be positive, got %d", c.VersionRetryLimit)
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the extra CORS origins configured in EXTRA_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
