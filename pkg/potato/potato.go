package potato

import (
	"context"

	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/bytecode"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// defaultEngine backs the package-level helpers. It uses New() defaults
// except that it does not log.
var defaultEngine = New(WithLogger(nil))

// Compile compiles src with the default engine.
func Compile(src string) (*bytecode.Block, error) {
	return defaultEngine.Compile(context.Background(), src)
}

// Evaluate evaluates block against scope with the default engine.
func Evaluate(block *bytecode.Block, scope binding.Context) (value.Value, error) {
	return defaultEngine.Evaluate(context.Background(), block, scope)
}

// Eval compiles and evaluates src with the default engine.
func Eval(src string, scope binding.Context) (value.Value, error) {
	return defaultEngine.Eval(context.Background(), src, scope)
}
