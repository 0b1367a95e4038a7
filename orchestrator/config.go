package orchestrator

import (
	"fmt"
	"time"

	"github.com/kbukum/voxboard/resilience"
)

// Limits bound caller input. Lengths are in characters (runes).
type Limits struct {
	MaxTranscriptChars int   `yaml:"max_transcript_chars" mapstructure:"max_transcript_chars"`
	MaxTemplateChars   int   `yaml:"max_template_chars" mapstructure:"max_template_chars"`
	MaxModeChars       int   `yaml:"max_mode_chars" mapstructure:"max_mode_chars"`
	MaxAudioBytes      int64 `yaml:"max_audio_bytes" mapstructure:"max_audio_bytes"`
}

// ApplyDefaults sets 8000 / 4000 / 200 characters and 10 MiB of audio.
func (l *Limits) ApplyDefaults() {
	if l.MaxTranscriptChars <= 0 {
		l.MaxTranscriptChars = 8000
	}
	if l.MaxTemplateChars <= 0 {
		l.MaxTemplateChars = 4000
	}
	if l.MaxModeChars <= 0 {
		l.MaxModeChars = 200
	}
	if l.MaxAudioBytes <= 0 {
		l.MaxAudioBytes = 10 << 20
	}
}

// Config tunes the pipeline.
type Config struct {
	Limits Limits `yaml:"limits" mapstructure:"limits"`
	// FormatRetry governs retries of faulted formatting calls.
	FormatRetry resilience.RetryConfig `yaml:"format_retry" mapstructure:"format_retry"`
	// Transcriptions bounds concurrent speech-to-text calls.
	Transcriptions resilience.BulkheadConfig `yaml:"transcriptions" mapstructure:"transcriptions"`
}

// DefaultFormatRetry is 3 attempts with 500ms, 1s backoff, capped at 4s.
func DefaultFormatRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     4 * time.Second,
		BackoffFactor:  2,
		Jitter:         0.1,
	}
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	c.Limits.ApplyDefaults()
	d := DefaultFormatRetry()
	if c.FormatRetry.MaxAttempts <= 0 {
		c.FormatRetry.MaxAttempts = d.MaxAttempts
	}
	if c.FormatRetry.InitialBackoff <= 0 {
		c.FormatRetry.InitialBackoff = d.InitialBackoff
	}
	if c.FormatRetry.MaxBackoff <= 0 {
		c.FormatRetry.MaxBackoff = d.MaxBackoff
	}
	if c.FormatRetry.BackoffFactor <= 0 {
		c.FormatRetry.BackoffFactor = d.BackoffFactor
	}
	if c.Transcriptions.MaxConcurrent <= 0 {
		c.Transcriptions.MaxConcurrent = 8
	}
	if c.Transcriptions.MaxWait <= 0 {
		c.Transcriptions.MaxWait = 5 * time.Second
	}
	c.Transcriptions.Name = "transcription"
}

// Validate rejects nonsensical bounds.
func (c *Config) Validate() error {
	if c.FormatRetry.MaxAttempts > 10 {
		return fmt.Errorf("format_retry.max_attempts must be <= 10, got %d", c.FormatRetry.MaxAttempts)
	}
	if c.FormatRetry.Jitter < 0 || c.FormatRetry.Jitter > 1 {
		return fmt.Errorf("format_retry.jitter must be within [0,1], got %v", c.FormatRetry.Jitter)
	}
	return nil
}
