package main

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/voxboard/formatting"
	"github.com/kbukum/voxboard/idempotency"
	"github.com/kbukum/voxboard/llm"
	"github.com/kbukum/voxboard/logger"
)

func validConfig() Config {
	var c Config
	c.Name = serviceName
	c.Auth.Keys = []string{"k1"}
	return c
}

func TestConfigDefaults(t *testing.T) {
	c := validConfig()
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Transcription.Provider != "gemini" || c.Formatting.Provider != "openai" {
		t.Fatalf("providers = %q/%q", c.Transcription.Provider, c.Formatting.Provider)
	}
	if c.Redis.Enabled {
		t.Fatal("redis enabled for the memory cache")
	}
	if c.Pipeline.Limits.MaxAudioBytes != 10<<20 {
		t.Fatalf("max audio = %d", c.Pipeline.Limits.MaxAudioBytes)
	}
}

func TestConfigRedisBackendEnablesClient(t *testing.T) {
	c := validConfig()
	c.Cache.Backend = idempotency.BackendRedis
	c.ApplyDefaults()
	if !c.Redis.Enabled {
		t.Fatal("redis not enabled")
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no api keys", func(c *Config) { c.Auth.Keys = nil }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"missing name", func(c *Config) { c.Name = "" }},
		{"temperature too high", func(c *Config) { c.Formatting.Temperature = ptr(2.5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.ApplyDefaults()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func ptr(f float64) *float64 { return &f }

type recordingLLM struct{ got llm.CompletionRequest }

func (r *recordingLLM) Name() string                     { return "recording" }
func (r *recordingLLM) IsAvailable(context.Context) bool { return true }
func (r *recordingLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	r.got = req
	return &llm.CompletionResponse{Content: "ok"}, nil
}

func TestFormatterOptions(t *testing.T) {
	tests := []struct {
		name       string
		cfg        FormatterConfig
		wantPrompt string
		wantTemp   float64
	}{
		{"defaults", FormatterConfig{}, formatting.DefaultSystemPrompt, 0.2},
		{"overrides", FormatterConfig{SystemPrompt: "Be terse.", Temperature: ptr(0)}, "Be terse.", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingLLM{}
			f := formatting.NewLLMFormatter(rec, tt.cfg.options(logger.NewNop())...)
			if _, err := f.Format(context.Background(), formatting.Request{Transcript: "hello"}); err != nil {
				t.Fatal(err)
			}
			if rec.got.SystemPrompt != tt.wantPrompt {
				t.Errorf("system prompt = %q, want %q", rec.got.SystemPrompt, tt.wantPrompt)
			}
			if rec.got.Temperature == nil || *rec.got.Temperature != tt.wantTemp {
				t.Errorf("temperature = %v, want %v", rec.got.Temperature, tt.wantTemp)
			}
		})
	}
}

func TestGracefulTimeoutOutlastsServerShutdown(t *testing.T) {
	c := validConfig()
	c.ApplyDefaults()
	if got := c.gracefulTimeout(); got != 15*time.Second {
		t.Fatalf("graceful timeout = %v, want 15s", got)
	}
	c.Server.ShutdownTimeout = time.Minute
	if got := c.gracefulTimeout(); got <= c.Server.ShutdownTimeout {
		t.Fatalf("graceful timeout %v does not outlast shutdown %v", got, c.Server.ShutdownTimeout)
	}
}
