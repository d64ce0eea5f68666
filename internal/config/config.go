// Package config provides configuration parsing and validation for the
// alert engine.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration parameters for the alert engine.
type Config struct {
	KafkaBrokers    string
	DirectivesTopic string
	ConsumerGroupID string
	PostgresDSN     string
	RedisAddr       string
	TSDBURL         string
	Organization    string

	RefreshInterval     time.Duration
	NotifierIdleTimeout time.Duration
}

// Validate checks that all required configuration fields are set and have valid values.
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.DirectivesTopic == "" {
		return fmt.Errorf("directives-topic cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.TSDBURL == "" {
		return fmt.Errorf("tsdb-url cannot be empty")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh-interval must be positive, got %v", c.RefreshInterval)
	}
	if c.NotifierIdleTimeout <= 0 {
		return fmt.Errorf("notifier-idle-timeout must be positive, got %v", c.NotifierIdleTimeout)
	}
	return nil
}
