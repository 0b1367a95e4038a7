package main

import (
	"fmt"
	"time"

	"github.com/kbukum/voxboard/config"
	"github.com/kbukum/voxboard/formatting"
	"github.com/kbukum/voxboard/idempotency"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/observability"
	"github.com/kbukum/voxboard/orchestrator"
	"github.com/kbukum/voxboard/redis"
	"github.com/kbukum/voxboard/server"
	"github.com/kbukum/voxboard/server/middleware"
	"github.com/kbukum/voxboard/storage/local"
)

// Config is the server binary's configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server    server.Config              `yaml:"server" mapstructure:"server"`
	Auth      middleware.APIKeyConfig    `yaml:"auth" mapstructure:"auth"`
	RateLimit middleware.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	// Pipeline contributes the limits, format_retry and transcriptions sections.
	Pipeline      orchestrator.Config  `yaml:",inline" mapstructure:",squash"`
	Cache         idempotency.Config   `yaml:"cache" mapstructure:"cache"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Storage       local.Config         `yaml:"storage" mapstructure:"storage"`
	Transcription BackendConfig        `yaml:"transcription" mapstructure:"transcription"`
	Formatting    FormatterConfig      `yaml:"formatting" mapstructure:"formatting"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// BackendConfig picks a registered provider and passes it its settings.
type BackendConfig struct {
	Provider string         `yaml:"provider" mapstructure:"provider"`
	Settings map[string]any `yaml:"settings" mapstructure:"settings"`
}

// FormatterConfig adds the prompt knobs of the LLM formatter to the backend
// choice. Unset fields keep the formatter's defaults.
type FormatterConfig struct {
	BackendConfig `yaml:",inline" mapstructure:",squash"`
	SystemPrompt  string   `yaml:"system_prompt" mapstructure:"system_prompt"`
	Temperature   *float64 `yaml:"temperature" mapstructure:"temperature"`
}

// Validate bounds the temperature to what the chat backends accept.
func (f *FormatterConfig) Validate() error {
	if t := f.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("temperature must be within [0,2], got %v", *t)
	}
	return nil
}

func (f *FormatterConfig) options(log *logger.Logger) []formatting.Option {
	opts := []formatting.Option{formatting.WithLogger(log)}
	if f.SystemPrompt != "" {
		opts = append(opts, formatting.WithSystemPrompt(f.SystemPrompt))
	}
	if f.Temperature != nil {
		opts = append(opts, formatting.WithTemperature(*f.Temperature))
	}
	return opts
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.RateLimit.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Cache.ApplyDefaults()
	if c.Cache.Backend == idempotency.BackendRedis {
		c.Redis.Enabled = true
	}
	c.Redis.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Observability.ApplyDefaults()
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "gemini"
	}
	if c.Formatting.Provider == "" {
		c.Formatting.Provider = "openai"
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"service", c.ServiceConfig.Validate},
		{"server", c.Server.Validate},
		{"auth", c.Auth.Validate},
		{"rate_limit", c.RateLimit.Validate},
		{"pipeline", c.Pipeline.Validate},
		{"cache", c.Cache.Validate},
		{"redis", c.Redis.Validate},
		{"storage", c.Storage.Validate},
		{"formatting", c.Formatting.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.section, err)
		}
	}
	return nil
}

// gracefulTimeout gives shutdown room to drain HTTP and still run the
// components stopped after the server.
func (c *Config) gracefulTimeout() time.Duration {
	return c.Server.ShutdownTimeout + 5*time.Second
}
