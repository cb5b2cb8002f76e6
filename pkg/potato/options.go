package potato

import (
	"log/slog"
	"time"

	"github.com/tlauterbach/potato-eval/pkg/potato/config"
	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/observability"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// DefaultCacheSize is the number of compiled expressions an Engine keeps
// unless WithCache overrides it.
const DefaultCacheSize = config.DefaultCacheSize

// Option configures an Engine.
type Option func(*Engine)

// WithConverter sets the typing and conversion policy used at run time.
func WithConverter(c value.Converter) Option {
	return func(e *Engine) {
		e.conv = c
	}
}

// WithCompilePolicy sets how lex and parse errors are surfaced.
// Silent is treated as Collect: a failed compilation is always reported.
func WithCompilePolicy(p perr.Policy) Option {
	return func(e *Engine) {
		e.compilePolicy = p
	}
}

// WithEvaluatePolicy sets how runtime errors are surfaced. Default: Collect.
func WithEvaluatePolicy(p perr.Policy) Option {
	return func(e *Engine) {
		e.evalPolicy = p
	}
}

// WithStepLimit aborts evaluations that run more than n instructions.
// Zero means unlimited.
func WithStepLimit(n int) Option {
	return func(e *Engine) {
		e.stepLimit = n
	}
}

// WithMaxDepth bounds expression nesting at compile time. Zero means
// unbounded.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// WithCache keeps up to size compiled expressions keyed by source text.
// Zero disables caching.
//
//	engine := potato.New(potato.WithCache(1024))
func WithCache(size int) Option {
	return func(e *Engine) {
		e.cacheSize = size
	}
}

// WithLogger sets the logger. Default: slog.Default(). Pass nil to disable
// logging.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records compile, evaluation and cache metrics.
//
//	engine := potato.New(potato.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithTracing wraps compilations and evaluations in spans.
func WithTracing(s observability.SpanManager) Option {
	return func(e *Engine) {
		if s != nil {
			e.spans = s
		}
	}
}

// WithSlowThreshold logs a warning for evaluations slower than d.
// Zero disables the check.
func WithSlowThreshold(d time.Duration) Option {
	return func(e *Engine) {
		e.slow = d
	}
}
