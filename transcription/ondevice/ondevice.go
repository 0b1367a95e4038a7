package ondevice

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/transcription"
)

// ProviderName is the registered name for the on-device adapter.
const ProviderName = "on_device"

// Config bounds the restart loop.
type Config struct {
	// MaxRestarts caps restarts after transient errors. Default 5.
	MaxRestarts int `yaml:"max_restarts" mapstructure:"max_restarts"`
	// MaxRecreations caps recognizer rebuilds after other errors. Default 1.
	MaxRecreations int `yaml:"max_recreations" mapstructure:"max_recreations"`
	// MaxSessionDuration caps one Transcribe call. Default 60s.
	MaxSessionDuration time.Duration `yaml:"max_session_duration" mapstructure:"max_session_duration"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.MaxRestarts <= 0 {
		c.MaxRestarts = 5
	}
	if c.MaxRecreations < 0 {
		c.MaxRecreations = 0
	} else if c.MaxRecreations == 0 {
		c.MaxRecreations = 1
	}
	if c.MaxSessionDuration <= 0 {
		c.MaxSessionDuration = 60 * time.Second
	}
}

// Provider adapts a push-based Recognizer to transcription.Provider.
type Provider struct {
	cfg     Config
	factory Factory
	log     *logger.Logger
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates the adapter.
func NewProvider(cfg Config, factory Factory, log *logger.Logger) *Provider {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Provider{cfg: cfg, factory: factory, log: log.WithComponent("ondevice")}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether a recognizer factory is installed.
func (p *Provider) IsAvailable(context.Context) bool { return p.factory != nil }

// Transcribe runs recognition passes until the input ends, the restart or
// recreation budget is spent, or MaxSessionDuration elapses. Final segments
// from every pass are joined with spaces.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	if p.factory == nil {
		return nil, transcription.Unavailable(ProviderName, nil)
	}
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, p.cfg.MaxSessionDuration)
	defer cancel()

	rec, err := p.factory(ctx, req.Audio)
	if err != nil {
		return nil, transcription.Unavailable(ProviderName, err)
	}
	defer func() { _ = rec.Close() }()

	lang := transcription.ResolveLanguage(req.Language).Primary
	var segments []string
	restarts, recreations := 0, 0
	start := time.Now()

	for {
		out, err := p.pass(ctx, rec, lang)
		segments = append(segments, out.finals...)

		switch {
		case err != nil:
			if parent.Err() == nil && stderrors.Is(err, context.DeadlineExceeded) {
				// session cap reached; keep what was heard
				return p.result(segments, lang, start, restarts, recreations), nil
			}
			return nil, err
		case out.ended:
			return p.result(segments, lang, start, restarts, recreations), nil
		case out.errKind == "" || out.errKind.Transient():
			// a pass that closed without End spends the same budget as NO_MATCH
			restarts++
			if restarts > p.cfg.MaxRestarts {
				p.log.Debug("restart budget spent", logger.Fields("restarts", restarts-1))
				return p.result(segments, lang, start, restarts-1, recreations), nil
			}
			p.log.Debug("restarting recognizer", logger.Fields("reason", reason(out.errKind), "restart", restarts))
		default:
			recreations++
			if recreations > p.cfg.MaxRecreations {
				return nil, transcription.Failed(ProviderName, string(out.errKind), nil)
			}
			p.log.Warn("recreating recognizer", logger.Fields("reason", string(out.errKind)))
			fresh, err := p.factory(ctx, req.Audio)
			if err != nil {
				return nil, transcription.Failed(ProviderName, "recreate recognizer", err)
			}
			_ = rec.Close()
			rec = fresh
		}
	}
}

func reason(k ErrorKind) string {
	if k == "" {
		return "pass closed"
	}
	return string(k)
}

type passOutcome struct {
	finals  []string
	errKind ErrorKind
	ended   bool
}

func (p *Provider) pass(ctx context.Context, rec Recognizer, lang string) (passOutcome, error) {
	var out passOutcome
	events, err := rec.Listen(ctx, lang)
	if err != nil {
		return out, transcription.Failed(ProviderName, "listen", err)
	}
	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return out, nil
			}
			switch ev.Kind {
			case EventFinal:
				if t := strings.TrimSpace(ev.Text); t != "" {
					out.finals = append(out.finals, t)
				}
			case EventError:
				out.errKind = ev.Error
			case EventEnd:
				out.ended = true
			}
		}
	}
}

func (p *Provider) result(segments []string, lang string, start time.Time, restarts, recreations int) *transcription.Result {
	return &transcription.Result{
		Text:     strings.Join(segments, " "),
		Language: lang,
		Metadata: map[string]any{
			"provider":    ProviderName,
			"restarts":    restarts,
			"recreations": recreations,
			"latency_ms":  time.Since(start).Milliseconds(),
		},
	}
}

// String is for logs.
func (p *Provider) String() string {
	return fmt.Sprintf("ondevice(restarts=%d, recreations=%d)", p.cfg.MaxRestarts, p.cfg.MaxRecreations)
}
