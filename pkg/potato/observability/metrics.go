package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
)

// MetricsRecorder records engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCompile records a compilation with the size of the produced
	// program and its error status.
	RecordCompile(ctx context.Context, duration time.Duration, instructions int, err error)

	// RecordEvaluation records an evaluation with the number of executed
	// instructions and its error status.
	RecordEvaluation(ctx context.Context, duration time.Duration, steps int, err error)

	// RecordCacheLookup records an expression cache lookup.
	RecordCacheLookup(ctx context.Context, hit bool)
}

type otelMetrics struct {
	compiles      metric.Int64Counter
	compileTime   metric.Float64Histogram
	compileErrors metric.Int64Counter
	programSize   metric.Int64Histogram
	evaluations   metric.Int64Counter
	evalTime      metric.Float64Histogram
	evalErrors    metric.Int64Counter
	evalSteps     metric.Int64Histogram
	cacheLookups  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("potato")
	m := &otelMetrics{}
	var err error

	if m.compiles, err = meter.Int64Counter("potato.compile.count",
		metric.WithDescription("Number of compilations"),
	); err != nil {
		return nil, err
	}
	if m.compileTime, err = meter.Float64Histogram("potato.compile.latency_ms",
		metric.WithDescription("Compilation latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.compileErrors, err = meter.Int64Counter("potato.compile.errors",
		metric.WithDescription("Number of failed compilations"),
	); err != nil {
		return nil, err
	}
	if m.programSize, err = meter.Int64Histogram("potato.compile.instructions",
		metric.WithDescription("Instructions per compiled expression"),
	); err != nil {
		return nil, err
	}
	if m.evaluations, err = meter.Int64Counter("potato.eval.count",
		metric.WithDescription("Number of evaluations"),
	); err != nil {
		return nil, err
	}
	if m.evalTime, err = meter.Float64Histogram("potato.eval.latency_ms",
		metric.WithDescription("Evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.evalErrors, err = meter.Int64Counter("potato.eval.errors",
		metric.WithDescription("Number of failed evaluations by error kind"),
	); err != nil {
		return nil, err
	}
	if m.evalSteps, err = meter.Int64Histogram("potato.eval.steps",
		metric.WithDescription("Instructions executed per evaluation"),
	); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = meter.Int64Counter("potato.cache.lookups",
		metric.WithDescription("Expression cache lookups"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func errorKind(err error) string {
	if kind, ok := perr.Classify(err); ok {
		return kind.String()
	}
	return "unknown"
}

func (m *otelMetrics) RecordCompile(ctx context.Context, duration time.Duration, instructions int, err error) {
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	m.compiles.Add(ctx, 1, attrs)
	m.compileTime.Record(ctx, Milliseconds(duration), attrs)
	if err != nil {
		m.compileErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", errorKind(err))))
		return
	}
	m.programSize.Record(ctx, int64(instructions))
}

func (m *otelMetrics) RecordEvaluation(ctx context.Context, duration time.Duration, steps int, err error) {
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	m.evaluations.Add(ctx, 1, attrs)
	m.evalTime.Record(ctx, Milliseconds(duration), attrs)
	m.evalSteps.Record(ctx, int64(steps), attrs)
	if err != nil {
		m.evalErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", errorKind(err))))
	}
}

func (m *otelMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}
