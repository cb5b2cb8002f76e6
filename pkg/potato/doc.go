// Package potato is an embeddable expression engine.
//
// Source text is tokenized, compiled by a precedence-climbing parser into a
// compact bytecode Block, and evaluated by a stack machine against a
// host-supplied context of named members.
//
// # Quick Start
//
//	scope := binding.NewTable()
//	scope.DeclareVariable("speed", value.Number(3))
//	scope.DeclareFunction("double", func(args []value.Value) (value.Value, error) {
//		f, err := value.DefaultConverter.ToNumber(args[0])
//		return value.Number(2 * f), err
//	})
//
//	result, err := potato.Eval("double($speed) + 1", scope)
//	// result.String() == "7"
//
// # Names and Values
//
// A bare identifier is an address, not a value: `speed` names a member and
// `$speed` reads it. Dotted paths such as `$player.stats.hp` walk nested
// contexts. Assignment writes through the address on its left:
//
//	potato.Eval("speed += 2", scope)
//
// # Engines
//
// The package-level helpers share a default Engine. Create your own to pick
// a converter, error policies, limits, caching, logging, metrics or tracing:
//
//	engine := potato.New(
//		potato.WithConverter(value.Converter{Typing: value.Strong, Conversion: value.Checked}),
//		potato.WithEvaluatePolicy(perr.PolicyRaise),
//		potato.WithStepLimit(10_000),
//		potato.WithMetrics(observability.NewMetricsRecorder()),
//	)
//	block, err := engine.Compile(ctx, "$a * $b")
//	v, err := engine.Evaluate(ctx, block, scope)
//
// Compiled blocks are immutable and may be evaluated concurrently. An
// Engine caches compiled blocks by source text; see WithCache.
//
// # Error Handling
//
// Each layer reports through an errors.Sink whose policy decides whether
// the first error is returned (Raise), all errors are returned together
// (Collect), or errors are dropped (Silent). Errors carry a Kind and wrap a
// sentinel that errors.Is can match:
//
//	_, err := engine.Eval(ctx, "1 / 0", nil)
//	if errors.Is(err, perr.ErrDivideByZero) {
//		...
//	}
//
// # Configuration
//
// config.Decode turns a YAML or JSON document into Settings, and
// NewFromSettings builds an Engine from them.
//
// # Subpackages
//
//   - value: the Value variant, addresses and the Converter
//   - lexer, compiler, bytecode: source to Block
//   - vm: the stack machine
//   - binding: contexts, the Table implementation and function libraries
//   - errors: error kinds, sentinels and sinks
//   - template: ${expr} interpolation in strings
//   - snapshot: persisting and restoring variable state
//   - config, observability, registry: ambient support
package potato
