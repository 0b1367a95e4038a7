package recorder

import (
	"fmt"
	"time"

	"github.com/kbukum/voxboard/transcription"
)

// Config holds per-session settings.
type Config struct {
	// Variant is "cloud" or "on_device".
	Variant  string `yaml:"variant" mapstructure:"variant"`
	Language string `yaml:"language" mapstructure:"language"`
	Template string `yaml:"template" mapstructure:"template"`
	Mode     string `yaml:"mode" mapstructure:"mode"`
	// DisableFormatting inserts the raw transcript.
	DisableFormatting bool `yaml:"disable_formatting" mapstructure:"disable_formatting"`

	CloudTimeout    time.Duration `yaml:"cloud_timeout" mapstructure:"cloud_timeout"`
	OnDeviceTimeout time.Duration `yaml:"on_device_timeout" mapstructure:"on_device_timeout"`
	SettleDelay     time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
}

// ApplyDefaults sets the processing budgets (75s cloud, 35s on-device) and
// a 300ms settle delay.
func (c *Config) ApplyDefaults() {
	if c.Language == "" {
		c.Language = "auto"
	}
	if c.CloudTimeout <= 0 {
		c.CloudTimeout = 75 * time.Second
	}
	if c.OnDeviceTimeout <= 0 {
		c.OnDeviceTimeout = 35 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 300 * time.Millisecond
	}
}

// Validate checks the variant name.
func (c *Config) Validate() error {
	if _, err := transcription.ParseVariant(c.Variant); err != nil {
		return fmt.Errorf("session.variant: %w", err)
	}
	return nil
}

func (c *Config) timeout(v transcription.Variant) time.Duration {
	if v == transcription.OnDevice {
		return c.OnDeviceTimeout
	}
	return c.CloudTimeout
}
