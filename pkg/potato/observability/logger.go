// Package observability provides structured logging, metrics and tracing
// for the expression engine.
//
// Logging goes through log/slog. Metrics and spans go through
// OpenTelemetry and use the global providers. Every feature is opt-in and
// has a no-op implementation.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger returns a logger that tags every record with the
// expression ID and its source text.
//
//	logger = EnrichLogger(logger, id, "$a + 1")
//	logger.Debug("evaluating") // includes expression_id and source
func EnrichLogger(logger *slog.Logger, exprID, source string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("expression_id", exprID),
		slog.String("source", source),
	)
}

// LogCompileStart logs the start of a compilation.
func LogCompileStart(logger *slog.Logger, source string) {
	if logger == nil {
		return
	}
	logger.Debug("compile starting",
		slog.String("source", source),
	)
}

// LogCompileComplete logs a successful compilation.
func LogCompileComplete(logger *slog.Logger, durationMs float64, instructions, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("compile completed",
		slog.Float64("duration_ms", durationMs),
		slog.Int("instructions", instructions),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogCompileError logs a failed compilation.
func LogCompileError(logger *slog.Logger, source string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("compile failed",
		slog.String("source", source),
		slog.String("error", err.Error()),
	)
}

// LogEvaluateComplete logs a successful evaluation.
func LogEvaluateComplete(logger *slog.Logger, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Debug("evaluation completed",
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogEvaluateError logs a failed evaluation.
func LogEvaluateError(logger *slog.Logger, err error, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Warn("evaluation failed",
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogSlowEvaluation logs an evaluation that took longer than threshold.
func LogSlowEvaluation(logger *slog.Logger, source string, elapsed, threshold time.Duration) {
	if logger == nil {
		return
	}
	logger.Warn("slow evaluation",
		slog.String("source", source),
		slog.Duration("elapsed", elapsed),
		slog.Duration("threshold", threshold),
	)
}

// LogCacheHit logs a compilation served from the expression cache.
func LogCacheHit(logger *slog.Logger, source string) {
	if logger == nil {
		return
	}
	logger.Debug("expression cache hit",
		slog.String("source", source),
	)
}

// LogSnapshot logs a saved variable snapshot.
func LogSnapshot(logger *slog.Logger, id string, variables, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("snapshot saved",
		slog.String("snapshot_id", id),
		slog.Int("variables", variables),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogSnapshotError logs a snapshot failure.
func LogSnapshotError(logger *slog.Logger, id, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("snapshot failed",
		slog.String("snapshot_id", id),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
//
//	done := TimedOperation()
//	// ... do work ...
//	elapsed := done()
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
