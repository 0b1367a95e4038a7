package main

import (
	"fmt"

	"github.com/kbukum/voxboard/config"
	"github.com/kbukum/voxboard/netclient"
	"github.com/kbukum/voxboard/recorder"
	"github.com/kbukum/voxboard/transcription"
	"github.com/kbukum/voxboard/transcription/ondevice"
	"github.com/kbukum/voxboard/transcription/whisper"
)

// Config is the dictation client's configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Backend netclient.Config `yaml:"backend" mapstructure:"backend"`
	Session recorder.Config  `yaml:"session" mapstructure:"session"`
	// Whisper is the local engine behind the on-device variant.
	Whisper  whisper.Config  `yaml:"whisper" mapstructure:"whisper"`
	OnDevice ondevice.Config `yaml:"on_device" mapstructure:"on_device"`
	// LocalFallback lets the cloud variant recognize locally when the
	// backend is unreachable.
	LocalFallback bool `yaml:"local_fallback" mapstructure:"local_fallback"`
	// CaptureDir holds in-progress recordings. Empty uses the OS temp dir.
	CaptureDir string `yaml:"capture_dir" mapstructure:"capture_dir"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Backend.ApplyDefaults()
	c.Session.ApplyDefaults()
	c.Whisper.ApplyDefaults()
	c.OnDevice.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return nil
}

// needsLocal reports whether a local recognizer must be built.
func (c *Config) needsLocal() (bool, error) {
	v, err := transcription.ParseVariant(c.Session.Variant)
	if err != nil {
		return false, fmt.Errorf("session.variant: %w", err)
	}
	return v == transcription.OnDevice || c.LocalFallback, nil
}
