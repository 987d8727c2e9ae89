// Package bus provides a high-level wrapper around NATS for the
// coach pipeline.
//
// This package handles:
//   - Connection management with automatic reconnection
//   - Subject naming for the pipeline channels
//   - Publishing and subscribing with message counters
//   - An embedded broker for single-process runs
package bus

import (
	"fmt"
	"time"
)

// Config holds bus client configuration.
type Config struct {
	// URL is the NATS server URL.
	// Examples: "nats://127.0.0.1:4222", "nats://broker:4222"
	URL string `yaml:"url" json:"url"`

	// Name is the client connection name shown in broker monitoring.
	Name string `yaml:"name" json:"name"`

	// Prefix is the subject prefix for all pipeline channels.
	// Default: "coach"
	Prefix string `yaml:"prefix" json:"prefix"`

	// ReconnectWait is how long the client waits between reconnect attempts.
	ReconnectWait time.Duration `yaml:"reconnect_wait" json:"reconnect_wait"`

	// MaxReconnects is the maximum number of reconnection attempts.
	// -1 means unlimited.
	MaxReconnects int `yaml:"max_reconnects" json:"max_reconnects"`

	// ConnectRetryInterval is how often ConnectWithRetry re-dials a broker
	// that refused the initial connection.
	ConnectRetryInterval time.Duration `yaml:"connect_retry_interval" json:"connect_retry_interval"`

	// MaxConnectAttempts bounds ConnectWithRetry. 0 means unlimited.
	MaxConnectAttempts int `yaml:"max_connect_attempts" json:"max_connect_attempts"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:                  "nats://127.0.0.1:4222",
		Name:                 "coach",
		Prefix:               "coach",
		ReconnectWait:        2 * time.Second,
		MaxReconnects:        -1, // Unlimited
		ConnectRetryInterval: 2 * time.Second,
		MaxConnectAttempts:   0, // Unlimited
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.Prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if c.ReconnectWait <= 0 {
		return fmt.Errorf("reconnect_wait must be positive, got %s", c.ReconnectWait)
	}
	return nil
}
