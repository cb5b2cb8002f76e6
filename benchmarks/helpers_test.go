package benchmarks

import (
	"strings"
	"testing"

	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

const (
	simpleExpr   = "1 + 2 * 3"
	scopedExpr   = "$player.hp * 2 + $bonus > 10 ? \"strong\" : \"weak\""
	compoundExpr = "player.hp += clamp($bonus, 0, 5)"
)

// longExpr returns a sum of n variable reads.
func longExpr(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$bonus"
	}
	return strings.Join(parts, " + ")
}

func newScope(b *testing.B) *binding.Table {
	b.Helper()
	root := binding.NewTable()
	player := binding.NewTable()
	must(b, player.DeclareVariable("hp", value.Number(7)))
	must(b, root.DeclareContext("player", player))
	must(b, root.DeclareVariable("bonus", value.Number(2)))
	must(b, root.DeclareFunction("clamp", func(args []value.Value) (value.Value, error) {
		v, _ := value.DefaultConverter.ToNumber(args[0])
		lo, _ := value.DefaultConverter.ToNumber(args[1])
		hi, _ := value.DefaultConverter.ToNumber(args[2])
		return value.Number(min(max(v, lo), hi)), nil
	}))
	return root
}

func must(b *testing.B, err error) {
	b.Helper()
	if err != nil {
		b.Fatal(err)
	}
}
