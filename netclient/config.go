package netclient

import (
	"fmt"
	"time"

	"github.com/kbukum/voxboard/security"
)

// Class picks the timeout budget of a call.
type Class int

const (
	// Short covers text-only formatting calls.
	Short Class = iota
	// Long covers audio upload, transcription and formatting chained
	// server-side.
	Long
)

func (c Class) String() string {
	if c == Long {
		return "long"
	}
	return "short"
}

// Config points the client at a backend.
type Config struct {
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey       string        `yaml:"api_key" mapstructure:"api_key"`
	ShortTimeout time.Duration `yaml:"short_timeout" mapstructure:"short_timeout"`
	LongTimeout  time.Duration `yaml:"long_timeout" mapstructure:"long_timeout"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	// MaxAttempts counts the first try.
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	// TLS is for backends behind a private CA or requiring client certs.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults sets 20s/90s call budgets, a 10s dial timeout and two
// attempts one second apart.
func (c *Config) ApplyDefaults() {
	if c.ShortTimeout <= 0 {
		c.ShortTimeout = 20 * time.Second
	}
	if c.LongTimeout <= 0 {
		c.LongTimeout = 90 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.DialTimeout > c.ShortTimeout {
		return fmt.Errorf("backend.dial_timeout (%s) exceeds short_timeout (%s)", c.DialTimeout, c.ShortTimeout)
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("backend.%w", err)
	}
	if c.MaxAttempts > 5 {
		return fmt.Errorf("backend.max_attempts must be at most 5 (got: %d)", c.MaxAttempts)
	}
	return nil
}

func (c *Config) timeout(class Class) time.Duration {
	if class == Long {
		return c.LongTimeout
	}
	return c.ShortTimeout
}
