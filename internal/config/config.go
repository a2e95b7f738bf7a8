package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service. Carrier credentials live
// in the database, not here; the environment only carries service-level
// settings.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Database
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"host=localhost user=mirsal password=mirsal dbname=mirsal port=5432 sslmode=disable"`

	// Carrier health checks
	HealthCheckInterval time.Duration `envconfig:"HEALTH_CHECK_INTERVAL" default:"60s"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://otel-collector.soukly.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"mirsal"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
	}
}
