package local

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds local filesystem storage configuration.
type Config struct {
	// BasePath is the root directory for temporary artifacts.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
	// MaxAge is how old an artifact must be before the janitor removes it.
	MaxAge time.Duration `yaml:"max_age" mapstructure:"max_age"`
	// SweepInterval is how often the janitor runs.
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = filepath.Join(os.TempDir(), "voxboard-audio")
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 15 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
}

// Validate checks that the local configuration is valid.
func (c *Config) Validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("storage.base_path is required")
	}
	return nil
}
