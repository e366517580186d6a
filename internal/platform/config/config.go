// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config loads the service configuration from environment variables with
caarlos0/env.

Only DATABASE_URL and JWT_PUBLIC_KEY_PATH are required. Without REDIS_URL transient
blobs live in process memory; without JWT_PRIVATE_KEY_PATH the server verifies tokens
but cannot mint them (cmd/devtoken needs it).

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dast-sv/lectoflip/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the API server. It is read-only after [Load].
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// PublicBaseURL prefixes every URL handed to clients (blob and file URLs).
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Books and pages (PostgreSQL)
	DatabaseURL   string `env:"DATABASE_URL,required"`
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Transient blobs (Redis). Empty keeps them in process memory.
	RedisURL string `env:"REDIS_URL"`

	// Owner tokens
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Local object storage for covers, page images and source PDFs.
	StorageRoot string `env:"STORAGE_ROOT" envDefault:"./data/files"`

	// PDF imports
	BlobTTL      time.Duration `env:"BLOB_TTL"       envDefault:"2h"`
	ImportTTL    time.Duration `env:"IMPORT_TTL"     envDefault:"1h"`
	PDFMaxBytes  int64         `env:"PDF_MAX_BYTES"`
	RasterDPI    float64       `env:"RASTER_DPI"     envDefault:"110"`
	MaxPageWidth int           `env:"MAX_PAGE_WIDTH" envDefault:"1400"`

	// Trash
	TrashRetention time.Duration `env:"TRASH_RETENTION" envDefault:"720h"`
	PurgeInterval  time.Duration `env:"PURGE_INTERVAL"  envDefault:"1h"`

	// Cross-Origin Resource Sharing and websocket origins
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"lectoflip.app"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] and checks the values env cannot.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.PDFMaxBytes <= 0 {
		cfg.PDFMaxBytes = constants.MaxPDFBytes
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.RasterDPI <= 0 {
		errs = append(errs, errors.New("RASTER_DPI must be positive"))
	}
	if c.MaxPageWidth <= 0 {
		errs = append(errs, errors.New("MAX_PAGE_WIDTH must be positive"))
	}
	if c.BlobTTL < c.ImportTTL {
		errs = append(errs, errors.New("BLOB_TTL must not be shorter than IMPORT_TTL"))
	}
	if c.PurgeInterval <= 0 {
		errs = append(errs, errors.New("PURGE_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginSuffix is the allowed CORS origin suffix outside development.
func (c *Config) OriginSuffix() string {
	return c.AllowedOriginSuffix
}
