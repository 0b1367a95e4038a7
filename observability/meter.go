package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res)), nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics are the dictation pipeline instruments.
type Metrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	operationActive   metric.Int64UpDownCounter
	errorTotal        metric.Int64Counter
	cacheLookups      metric.Int64Counter
	providerDuration  metric.Float64Histogram
	retryTotal        metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.operationTotal, err = meter.Int64Counter("voxboard.operation.total",
		metric.WithDescription("Completed pipeline operations by outcome")); err != nil {
		return nil, fmt.Errorf("creating operation.total: %w", err)
	}
	if m.operationDuration, err = meter.Float64Histogram("voxboard.operation.duration",
		metric.WithDescription("Pipeline operation latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating operation.duration: %w", err)
	}
	if m.operationActive, err = meter.Int64UpDownCounter("voxboard.operation.active",
		metric.WithDescription("Pipeline operations in flight")); err != nil {
		return nil, fmt.Errorf("creating operation.active: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("voxboard.error.total",
		metric.WithDescription("Failed operations by error code")); err != nil {
		return nil, fmt.Errorf("creating error.total: %w", err)
	}
	if m.cacheLookups, err = meter.Int64Counter("voxboard.cache.lookups",
		metric.WithDescription("Idempotency cache lookups by result")); err != nil {
		return nil, fmt.Errorf("creating cache.lookups: %w", err)
	}
	if m.providerDuration, err = meter.Float64Histogram("voxboard.provider.duration",
		metric.WithDescription("Transcription and formatting backend latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating provider.duration: %w", err)
	}
	if m.retryTotal, err = meter.Int64Counter("voxboard.retry.total",
		metric.WithDescription("Provider call retries")); err != nil {
		return nil, fmt.Errorf("creating retry.total: %w", err)
	}
	return &m, nil
}

// OperationStarted marks an operation in flight.
func (m *Metrics) OperationStarted(ctx context.Context, operation string) {
	m.operationActive.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOperation, operation)))
}

// OperationFinished records the outcome ("ok" or an error code).
func (m *Metrics) OperationFinished(ctx context.Context, operation, outcome string, d time.Duration) {
	op := attribute.String(AttrOperation, operation)
	m.operationActive.Add(ctx, -1, metric.WithAttributes(op))
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(op, attribute.String(AttrOutcome, outcome)))
	m.operationDuration.Record(ctx, d.Seconds(), metric.WithAttributes(op))
	if outcome != OutcomeOK {
		m.errorTotal.Add(ctx, 1, metric.WithAttributes(op, attribute.String(AttrErrorCode, outcome)))
	}
}

// CacheLookup counts a hit or miss.
func (m *Metrics) CacheLookup(ctx context.Context, operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperation, operation),
		attribute.String("result", result),
	))
}

// ProviderCall records one backend call.
func (m *Metrics) ProviderCall(ctx context.Context, kind, provider, outcome string, d time.Duration) {
	m.providerDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("provider", provider),
		attribute.String(AttrOutcome, outcome),
	))
}

// Retry counts a retried backend call.
func (m *Metrics) Retry(ctx context.Context, kind string) {
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
