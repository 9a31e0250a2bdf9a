package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// stagingBaseURL is the provider's sandbox environment.
const stagingBaseURL = "https://staging-express.shiprocket.in/v1/external"

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Shiprocket account
	APIBaseURL            string `envconfig:"SHIPROCKET_API_BASE_URL" default:"https://apiv2.shiprocket.in/v1/external"`
	Staging               bool   `envconfig:"SHIPROCKET_STAGING" default:"false"`
	Email                 string `envconfig:"SHIPROCKET_EMAIL"`
	Password              string `envconfig:"SHIPROCKET_PASSWORD"`
	DefaultPickupLocation string `envconfig:"SHIPROCKET_DEFAULT_PICKUP_LOCATION" default:"Primary"`
	DefaultChannelID      string `envconfig:"SHIPROCKET_CHANNEL_ID" default:"custom"`
	UseMock               bool   `envconfig:"SHIPROCKET_USE_MOCK" default:"false"`

	// Integration hooks
	BackendURL string `envconfig:"SHIPROCKET_BACKEND_URL"`
	CronSecret string `envconfig:"CRON_SECRET"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"shipbridge"`
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

// BaseURL is the provider base URL, honoring the staging switch.
func (c *Config) BaseURL() string {
	if c.Staging {
		return stagingBaseURL
	}
	return c.APIBaseURL
}

// IsStaging reports whether the sandbox environment is targeted.
func (c *Config) IsStaging() bool {
	return c.Staging || c.APIBaseURL == stagingBaseURL
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("shiprocket.staging", c.IsStaging()),
		attribute.Bool("shiprocket.mock", c.UseMock),
	}
}
