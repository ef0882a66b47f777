package postgres

import (
	"fmt"
)

// StoreConfig holds configuration for the PostgreSQL document store.
// Pool tuning is shared between the primary and replica pools.
type StoreConfig struct {
	// Primary is the pool every write goes to.
	Primary PoolConfig

	// ReplicaConnString points reads at a streaming read replica.
	// Empty means reads are served by the primary pool.
	ReplicaConnString string

	// AutoMigrate runs the embedded migrations against the primary on startup.
	AutoMigrate bool

	// QueryTimeoutSeconds is the maximum time a query can run before timing out.
	// Default: 10 seconds
	// Set to 0 to use context timeouts only (no additional timeout)
	QueryTimeoutSeconds int32
}

// Validate checks that the configuration is valid.
func (c *StoreConfig) Validate() error {
	if err := c.Primary.Validate(); err != nil {
		return fmt.Errorf("primary: %w", err)
	}

	if c.QueryTimeoutSeconds < 0 {
		return fmt.Errorf("query timeout must not be negative")
	}

	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *StoreConfig) ApplyDefaults() {
	c.Primary.ApplyDefaults()

	if c.QueryTimeoutSeconds == 0 {
		c.QueryTimeoutSeconds = 10 // 10 seconds
	}
}

// replicaPoolConfig returns the primary pool tuning pointed at the replica.
func (c *StoreConfig) replicaPoolConfig() *PoolConfig {
	replica := c.Primary
	replica.ConnString = c.ReplicaConnString
	return &replica
}
