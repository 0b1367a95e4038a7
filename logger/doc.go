// Package logger provides structured logging on top of zerolog.
//
// Loggers are scoped by component and carry structured fields:
//
//	log := logger.GetGlobalLogger().WithComponent("orchestrator")
//	log.Info("format completed", logger.DurationFields("format", elapsed))
package logger
