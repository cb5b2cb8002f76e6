package potato

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/bytecode"
	"github.com/tlauterbach/potato-eval/pkg/potato/compiler"
	"github.com/tlauterbach/potato-eval/pkg/potato/config"
	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/observability"
	"github.com/tlauterbach/potato-eval/pkg/potato/registry"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
	"github.com/tlauterbach/potato-eval/pkg/potato/vm"
)

// Engine compiles and evaluates expressions.
//
// An Engine is safe for concurrent use. Each compilation gets its own
// compiler and each evaluation borrows a VM from a pool. The contexts
// passed to Evaluate are not synchronized by the engine.
type Engine struct {
	conv          value.Converter
	compilePolicy perr.Policy
	evalPolicy    perr.Policy
	stepLimit     int
	maxDepth      int
	cacheSize     int
	slow          time.Duration
	logger        *slog.Logger
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager

	cache *registry.Registry[string, *bytecode.Block]
	vms   sync.Pool
}

// New creates an Engine.
//
// Defaults: weak checked converter, Collect for compile and evaluation
// errors, nesting depth 256, no step limit, a cache of 512 expressions,
// slog.Default() logging, no metrics and no tracing.
func New(opts ...Option) *Engine {
	e := &Engine{
		conv:          value.DefaultConverter,
		compilePolicy: perr.PolicyCollect,
		evalPolicy:    perr.PolicyCollect,
		maxDepth:      compiler.DefaultMaxDepth,
		cacheSize:     DefaultCacheSize,
		logger:        slog.Default(),
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.cacheSize > 0 {
		e.cache = registry.New(registry.WithCapacity[string, *bytecode.Block](e.cacheSize))
	}

	vmOpts := []vm.Option{
		vm.WithConverter(e.conv),
		vm.WithPolicy(e.evalPolicy),
		vm.WithStepLimit(e.stepLimit),
	}
	if e.logger != nil {
		vmOpts = append(vmOpts, vm.WithLogger(e.logger))
	}
	e.vms.New = func() any {
		return vm.New(vmOpts...)
	}
	return e
}

// NewFromSettings creates an Engine from decoded configuration. Extra
// options are applied after the settings.
func NewFromSettings(s config.Settings, opts ...Option) *Engine {
	base := []Option{
		WithConverter(s.Converter),
		WithCompilePolicy(s.CompilePolicy),
		WithEvaluatePolicy(s.EvaluatePolicy),
		WithStepLimit(s.StepLimit),
		WithMaxDepth(s.MaxDepth),
		WithSlowThreshold(s.SlowThreshold),
	}
	if s.CacheEnabled {
		base = append(base, WithCache(s.CacheSize))
	} else {
		base = append(base, WithCache(0))
	}
	if s.Metrics {
		base = append(base, WithMetrics(observability.NewMetricsRecorder()))
	}
	if s.Tracing {
		base = append(base, WithTracing(observability.NewSpanManager()))
	}
	return New(append(base, opts...)...)
}

// Converter returns the engine's runtime converter.
func (e *Engine) Converter() value.Converter {
	return e.conv
}

// Compile turns src into an immutable Block, serving repeated sources from
// the cache. The returned Block may be shared between goroutines.
func (e *Engine) Compile(ctx context.Context, src string) (*bytecode.Block, error) {
	if e.cache != nil {
		block, ok := e.cache.Get(src)
		e.metrics.RecordCacheLookup(ctx, ok)
		if ok {
			observability.LogCacheHit(e.logger, src)
			return block, nil
		}
	}

	id := uuid.NewString()
	logger := observability.EnrichLogger(e.logger, id, src)
	ctx, span := e.spans.StartCompileSpan(ctx, id, src)

	observability.LogCompileStart(logger, src)
	done := observability.TimedOperation()

	opts := []compiler.Option{
		compiler.WithPolicy(e.compilePolicy),
		compiler.WithMaxDepth(e.maxDepth),
	}
	if logger != nil {
		opts = append(opts, compiler.WithLogger(logger))
	}
	block, err := compiler.New(opts...).Compile(src)

	elapsed := done()
	instructions := 0
	if block != nil {
		instructions = block.Len()
	}
	e.metrics.RecordCompile(ctx, elapsed, instructions, err)
	e.spans.EndSpanWithError(span, err)

	if err != nil {
		observability.LogCompileError(logger, src, err)
		return nil, err
	}
	observability.LogCompileComplete(logger, observability.Milliseconds(elapsed), block.Len(), block.Size())

	if e.cache != nil {
		e.cache.Register(src, block)
	}
	return block, nil
}

// Evaluate runs block against scope. scope may be nil for expressions that
// reference no names.
func (e *Engine) Evaluate(ctx context.Context, block *bytecode.Block, scope binding.Context) (result value.Value, err error) {
	source := ""
	if block != nil {
		source = block.Source()
	}
	ctx, span := e.spans.StartEvaluateSpan(ctx, source)
	defer func() {
		e.spans.EndSpanWithError(span, err)
	}()

	m := e.vms.Get().(*vm.VM)
	defer e.vms.Put(m)

	done := observability.TimedOperation()
	result, err = m.Evaluate(ctx, block, scope)
	elapsed := done()

	e.metrics.RecordEvaluation(ctx, elapsed, m.Steps(), err)
	if e.slow > 0 && elapsed > e.slow {
		observability.LogSlowEvaluation(e.logger, source, elapsed, e.slow)
	}
	if err != nil {
		observability.LogEvaluateError(e.logger, err, observability.Milliseconds(elapsed), m.Steps())
		return result, err
	}
	observability.LogEvaluateComplete(e.logger, observability.Milliseconds(elapsed), m.Steps())
	return result, nil
}

// Eval compiles src, through the cache, and evaluates it against scope.
func (e *Engine) Eval(ctx context.Context, src string, scope binding.Context) (value.Value, error) {
	block, err := e.Compile(ctx, src)
	if err != nil {
		return value.Void, err
	}
	return e.Evaluate(ctx, block, scope)
}

// CacheStats reports expression cache usage. The zero Stats is returned
// when caching is disabled.
func (e *Engine) CacheStats() registry.Stats {
	if e.cache == nil {
		return registry.Stats{}
	}
	return e.cache.Stats()
}

// ClearCache drops every cached compilation.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}
