package idempotency

import (
	"fmt"
	"time"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and tunes the response cache.
type Config struct {
	Backend string        `yaml:"backend" mapstructure:"backend"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// SweepInterval applies to the memory backend; redis expires natively.
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
	KeyPrefix     string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// ApplyDefaults fills zero fields: memory backend, 5m TTL, 1m sweep.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "voxboard:resp"
	}
}

// Validate checks the backend name.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis:
		return nil
	default:
		return fmt.Errorf("cache backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Backend)
	}
}
