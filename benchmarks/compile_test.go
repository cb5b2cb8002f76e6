package benchmarks

import (
	"testing"

	"github.com/tlauterbach/potato-eval/pkg/potato/compiler"
	"github.com/tlauterbach/potato-eval/pkg/potato/lexer"
)

// BenchmarkTokenize_Scoped measures lexing alone.
func BenchmarkTokenize_Scoped(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = lexer.Tokenize(scopedExpr, nil)
	}
}

// BenchmarkCompile_Simple compiles a literal expression with a fresh compiler.
func BenchmarkCompile_Simple(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = compiler.Compile(simpleExpr)
	}
}

// BenchmarkCompile_Scoped compiles a conditional over nested reads.
func BenchmarkCompile_Scoped(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = compiler.Compile(scopedExpr)
	}
}

// BenchmarkCompile_Reuse compiles with one compiler reused across calls.
func BenchmarkCompile_Reuse(b *testing.B) {
	c := compiler.New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Compile(scopedExpr)
	}
}

// BenchmarkCompile_Long_100 compiles a 100-term sum.
func BenchmarkCompile_Long_100(b *testing.B) {
	src := longExpr(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiler.Compile(src)
	}
}
