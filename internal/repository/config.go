package repository

import (
	"fmt"
	"time"
)

// Config bounds the polling done by consistency-aware reads.
type Config struct {
	// MaxReadAttempts is how many replica reads a minimum-version read makes
	// before giving up.
	// Default: 20
	MaxReadAttempts uint

	// ReadRetryInterval is the fixed delay between replica reads.
	// Default: 25ms
	ReadRetryInterval time.Duration
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.MaxReadAttempts == 0 {
		c.MaxReadAttempts = 20
	}
	if c.ReadRetryInterval == 0 {
		c.ReadRetryInterval = 25 * time.Millisecond
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxReadAttempts > 1000 {
		return fmt.Errorf("max read attempts (%d) exceeds 1000", c.MaxReadAttempts)
	}
	if c.ReadRetryInterval < 0 {
		return fmt.Errorf("read retry interval must not be negative")
	}
	return nil
}

// InMemoryConfig suits the in-memory store, whose replica lag is a few
// milliseconds.
func InMemoryConfig() Config {
	return Config{
		MaxReadAttempts:   10,
		ReadRetryInterval: 10 * time.Millisecond,
	}
}
