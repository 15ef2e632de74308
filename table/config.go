package table

import "time"

// Config holds configuration for the DynamoDB backend.
type Config struct {
	// TablePrefix is prepended to every logical table name to form the
	// DynamoDB table name (e.g. "prod-" gives "prod-entities").
	// Default: ""
	TablePrefix string

	// ConsistentRead enables strongly consistent reads for Get and Query.
	// Identity resolution depends on reading the latest claim row, so this
	// should stay enabled outside of read-only deployments.
	// Default: true
	ConsistentRead bool

	// CreateTimeout bounds how long EnsureTables waits for a new table to
	// become active.
	// Default: 2m
	CreateTimeout time.Duration

	// StreamTables lists the logical tables EnsureTables creates with a
	// NEW_IMAGE stream. Existing tables are not modified.
	// Default: none
	StreamTables []string
}

// DefaultConfig returns the default DynamoDB backend configuration.
func DefaultConfig() Config {
	return Config{
		ConsistentRead: true,
		CreateTimeout:  2 * time.Minute,
	}
}

func (c Config) streamed(name string) bool {
	for _, t := range c.StreamTables {
		if t == name {
			return true
		}
	}
	return false
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.CreateTimeout <= 0 {
		c.CreateTimeout = 2 * time.Minute
	}
}
