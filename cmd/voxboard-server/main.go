// Command voxboard-server serves the dictation formatting API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/voxboard/api"
	"github.com/kbukum/voxboard/bootstrap"
	"github.com/kbukum/voxboard/config"
	"github.com/kbukum/voxboard/contract"
	"github.com/kbukum/voxboard/formatting"
	"github.com/kbukum/voxboard/idempotency"
	"github.com/kbukum/voxboard/llm"
	llmgemini "github.com/kbukum/voxboard/llm/gemini"
	"github.com/kbukum/voxboard/llm/ollama"
	llmopenai "github.com/kbukum/voxboard/llm/openai"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/observability"
	"github.com/kbukum/voxboard/orchestrator"
	"github.com/kbukum/voxboard/redis"
	"github.com/kbukum/voxboard/server"
	"github.com/kbukum/voxboard/storage/local"
	"github.com/kbukum/voxboard/transcription"
	sttgemini "github.com/kbukum/voxboard/transcription/gemini"
	sttopenai "github.com/kbukum/voxboard/transcription/openai"
	"github.com/kbukum/voxboard/transcription/whisper"
	"github.com/kbukum/voxboard/version"
)

const serviceName = "voxboard-server"

func main() {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := run(context.Background(), &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config) error {
	cfg.ApplyDefaults()
	app, err := bootstrap.NewApp(cfg, bootstrap.WithGracefulTimeout(cfg.gracefulTimeout()))
	if err != nil {
		return err
	}
	log := app.Logger
	build := version.Get()
	log.Info("starting", logger.Fields("version", build.String(), "environment", cfg.Environment))

	shutdown, err := observability.Setup(ctx, cfg.Observability, app.Name, build.Version, cfg.Environment)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	app.OnStop(shutdown)
	metrics, err := observability.NewMetrics(observability.Meter(app.Name))
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	cache, err := newCache(app, cfg)
	if err != nil {
		return err
	}
	stt, err := newTranscriber(ctx, cfg.Transcription)
	if err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	formatter, err := newFormatter(ctx, cfg.Formatting, log)
	if err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	log.Info("providers selected", logger.Fields("transcription", stt.Name(), "formatting", formatter.Name()))

	svc, err := orchestrator.New(cfg.Pipeline, stt, formatter, cache,
		orchestrator.WithLogger(log), orchestrator.WithMetrics(metrics))
	if err != nil {
		return err
	}

	store, err := local.NewStorage(cfg.Storage.BasePath)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := app.RegisterComponent(local.NewJanitor(store, cfg.Storage, log)); err != nil {
		return err
	}

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware(cfg.Auth, cfg.RateLimit)
	srv.RegisterDefaultEndpoints(app.Name, app.Components.HealthAll)
	api.NewHandler(svc, store, cfg.Pipeline.Limits.MaxAudioBytes, log).Register(srv.Engine())
	if err := app.RegisterComponent(srv); err != nil {
		return err
	}

	return app.Run(ctx)
}

func newCache(app *bootstrap.App[*Config], cfg *Config) (idempotency.Cache[contract.Envelope], error) {
	if cfg.Cache.Backend == idempotency.BackendRedis {
		rc, err := redis.NewComponent(cfg.Redis, app.Logger)
		if err != nil {
			return nil, err
		}
		if err := app.RegisterComponent(rc); err != nil {
			return nil, err
		}
		return idempotency.NewRedisCache[contract.Envelope](rc.Client(), cfg.Cache.KeyPrefix, cfg.Cache.TTL), nil
	}

	mc := idempotency.NewMemoryCache[contract.Envelope](cfg.Cache.TTL, cfg.Cache.SweepInterval,
		idempotency.WithLogger(app.Logger))
	if err := app.RegisterComponent(mc); err != nil {
		return nil, err
	}
	return mc, nil
}

func newTranscriber(ctx context.Context, b BackendConfig) (transcription.Provider, error) {
	reg := transcription.NewRegistry()
	reg.RegisterFactory(sttgemini.ProviderName, sttgemini.Factory(ctx))
	reg.RegisterFactory(sttopenai.ProviderName, sttopenai.Factory())
	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())
	return reg.Create(b.Provider, b.Settings)
}

func newFormatter(ctx context.Context, b FormatterConfig, log *logger.Logger) (formatting.Provider, error) {
	reg := llm.NewRegistry()
	reg.RegisterFactory(llmopenai.ProviderName, llmopenai.Factory())
	reg.RegisterFactory(llmgemini.ProviderName, llmgemini.Factory(ctx))
	reg.RegisterFactory(ollama.ProviderName, ollama.Factory())
	p, err := reg.Create(b.Provider, b.Settings)
	if err != nil {
		return nil, err
	}
	return formatting.NewLLMFormatter(p, b.options(log)...), nil
}
