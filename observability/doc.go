// Package observability wires OpenTelemetry tracing and metrics for the
// dictation pipeline.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "voxboard", version, env)
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("voxboard"))
//	metrics.CacheLookup(ctx, "format", true)
package observability
