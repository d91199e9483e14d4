// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

// Package config loads and validates Plotshare configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables (highest priority).
package config

import "time"

// Config is the root configuration for the Plotshare server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Geocode   GeocodeConfig   `koanf:"geocode"`
	Recommend RecommendConfig `koanf:"recommend"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP listen port.
	Port int `koanf:"port"`

	// Host is the HTTP listen address.
	Host string `koanf:"host"`

	// Timeout applies to request read and write deadlines.
	Timeout time.Duration `koanf:"timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment selects development or production behaviour.
	Environment string `koanf:"environment"`
}

// DatabaseConfig holds embedded DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file, or ":memory:" for an in-memory store.
	Path string `koanf:"path"`

	// MaxMemory limits DuckDB memory usage (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`

	// SeedDemoData inserts demo users and listings on startup.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// GeocodeConfig holds postcode resolution settings.
type GeocodeConfig struct {
	// DataDir is the directory of per-prefix postcode CSV shards.
	DataDir string `koanf:"data_dir"`

	// CacheTTL bounds how long a parsed shard index stays in memory.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// PersistentCache enables the on-disk cache of resolved postcodes.
	PersistentCache bool `koanf:"persistent_cache"`

	// PersistentCachePath is the badger directory for the persistent cache.
	PersistentCachePath string `koanf:"persistent_cache_path"`

	// BreakerThreshold is the consecutive shard read failures that open
	// the circuit breaker.
	BreakerThreshold uint32 `koanf:"breaker_threshold"`

	// BreakerCooldown is how long the breaker stays open before probing.
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// SearchRadius is the neighbourhood radius in scaled grid units.
	SearchRadius float64 `koanf:"search_radius"`

	// DefaultSuggestions is the suggestion count when the client does not
	// ask for a specific number.
	DefaultSuggestions int `koanf:"default_suggestions"`
}

// APIConfig holds pagination limits for list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	// RateLimitReqs is the allowed requests per window per client IP.
	RateLimitReqs int `koanf:"rate_limit_reqs"`

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns rate limiting off entirely.
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`
}

// EventsConfig holds the in-process event relay settings.
type EventsConfig struct {
	// BufferSize is the gochannel subscriber buffer.
	BufferSize int64 `koanf:"buffer_size"`

	// CloseTimeout bounds relay shutdown.
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
