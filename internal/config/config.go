// Package config defines service configuration loaded from defaults,
// an optional YAML file, and TAXI_-prefixed environment variables.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration for all binaries.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Cleaning  CleaningConfig  `koanf:"cleaning"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string `koanf:"host"`
	Port            int    `koanf:"port"`
	ReadTimeoutSec  int    `koanf:"read_timeout_sec"`
	WriteTimeoutSec int    `koanf:"write_timeout_sec"`
	IdleTimeoutSec  int    `koanf:"idle_timeout_sec"`
}

// ReadTimeout returns the configured read timeout as a duration.
func (c ServerConfig) ReadTimeout() time.Duration { return time.Duration(c.ReadTimeoutSec) * time.Second }

// WriteTimeout returns the configured write timeout as a duration.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSec) * time.Second
}

// IdleTimeout returns the configured idle timeout as a duration.
func (c ServerConfig) IdleTimeout() time.Duration { return time.Duration(c.IdleTimeoutSec) * time.Second }

// DatabaseConfig configures the PostgreSQL connection pool.
type DatabaseConfig struct {
	Host               string `koanf:"host"`
	Port               int    `koanf:"port"`
	User               string `koanf:"user"`
	Password           string `koanf:"password"`
	Database           string `koanf:"database"`
	SSLMode            string `koanf:"ssl_mode"`
	MaxOpenConns       int    `koanf:"max_open_conns"`
	MaxIdleConns       int    `koanf:"max_idle_conns"`
	ConnMaxLifetimeMin int    `koanf:"conn_max_lifetime_min"`
	ConnMaxIdleMin     int    `koanf:"conn_max_idle_min"`
}

// ConnMaxLifetime returns the connection lifetime as a duration.
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMin) * time.Minute
}

// ConnMaxIdleTime returns the idle connection lifetime as a duration.
func (c DatabaseConfig) ConnMaxIdleTime() time.Duration {
	return time.Duration(c.ConnMaxIdleMin) * time.Minute
}

// CleaningConfig holds the row-level cleaning thresholds. The defaults
// are documented plausibility bounds for yellow taxi trips.
type CleaningConfig struct {
	MaxTripDistanceMiles   float64 `koanf:"max_trip_distance_miles"`
	MaxTripDurationMinutes float64 `koanf:"max_trip_duration_minutes"`
	MaxPassengerCount      int     `koanf:"max_passenger_count"`
	StrictPaymentCodes     bool    `koanf:"strict_payment_codes"`
}

// AnalyticsConfig holds fixed parameters of the aggregate queries.
type AnalyticsConfig struct {
	FareBucketWidth float64 `koanf:"fare_bucket_width"`
	FareBucketCount int     `koanf:"fare_bucket_count"`
	TopZonesLimit   int     `koanf:"top_zones_limit"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 30,
			IdleTimeoutSec:  60,
		},
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               5432,
			User:               "taxi",
			Password:           "taxi",
			Database:           "taxi_analytics",
			SSLMode:            "disable",
			MaxOpenConns:       25,
			MaxIdleConns:       5,
			ConnMaxLifetimeMin: 30,
			ConnMaxIdleMin:     5,
		},
		Cleaning: CleaningConfig{
			MaxTripDistanceMiles:   100,
			MaxTripDurationMinutes: 360,
			MaxPassengerCount:      8,
			StrictPaymentCodes:     false,
		},
		Analytics: AnalyticsConfig{
			FareBucketWidth: 5,
			FareBucketCount: 16,
			TopZonesLimit:   10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host must not be empty")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name must not be empty")
	}
	if c.Cleaning.MaxTripDistanceMiles <= 0 {
		return fmt.Errorf("max trip distance must be positive, got %v", c.Cleaning.MaxTripDistanceMiles)
	}
	if c.Cleaning.MaxTripDurationMinutes <= 0 {
		return fmt.Errorf("max trip duration must be positive, got %v", c.Cleaning.MaxTripDurationMinutes)
	}
	if c.Analytics.FareBucketWidth <= 0 || c.Analytics.FareBucketCount <= 0 {
		return fmt.Errorf("fare histogram parameters must be positive")
	}
	if c.Analytics.TopZonesLimit <= 0 {
		return fmt.Errorf("top zones limit must be positive, got %d", c.Analytics.TopZonesLimit)
	}
	return nil
}
