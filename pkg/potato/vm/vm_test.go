package vm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/bytecode"
	"github.com/tlauterbach/potato-eval/pkg/potato/compiler"
	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// declareAccessors binds set, get and delete functions that operate on tbl
// through addresses passed as arguments.
func declareAccessors(t *testing.T, tbl *binding.Table) {
	t.Helper()
	addr := func(v value.Value) (value.Address, error) {
		return value.DefaultConverter.ToAddress(v)
	}
	require.NoError(t, tbl.DeclareFunction("set", func(args []value.Value) (value.Value, error) {
		a, err := addr(args[0])
		if err != nil {
			return value.Void, err
		}
		return args[1], binding.Set(tbl, a, args[1])
	}))
	require.NoError(t, tbl.DeclareFunction("get", func(args []value.Value) (value.Value, error) {
		a, err := addr(args[0])
		if err != nil {
			return value.Void, err
		}
		return binding.Get(tbl, a)
	}))
	require.NoError(t, tbl.DeclareFunction("delete", func(args []value.Value) (value.Value, error) {
		a, err := addr(args[0])
		if err != nil {
			return value.Void, err
		}
		n, err := tbl.ConvertAddress(a)
		if err != nil {
			return value.Void, err
		}
		ok, err := n.DeleteValue()
		return value.Boolean(ok), err
	}))
}

func newScope(t *testing.T) *binding.Table {
	t.Helper()
	root := binding.NewTable(binding.WithName("root"))
	declareAccessors(t, root)
	require.NoError(t, root.DeclareFunction("num5", func([]value.Value) (value.Value, error) {
		return value.Number(5), nil
	}))

	sub := binding.NewTable(binding.WithName("context"))
	declareAccessors(t, sub)
	require.NoError(t, root.DeclareContext("context", sub))
	return root
}

func eval(t *testing.T, m *VM, scope binding.Context, src string) (value.Value, error) {
	t.Helper()
	block, err := compiler.Compile(src)
	require.NoError(t, err, src)
	return m.Evaluate(context.Background(), block, scope)
}

func TestEvaluate_Operators(t *testing.T) {
	tests := []struct {
		src  string
		want value.Value
	}{
		{"2 + 4 * 8 / 16 % 32", value.Number(4)},
		{"1 << 5", value.Number(32)},
		{"-8 >> 1", value.Number(-4)},
		{"~0", value.Number(-1)},
		{"4 & 5", value.Number(4)},
		{"4 | 1", value.Number(5)},
		{"6 ^ 3", value.Number(5)},
		{"7 % 4", value.Number(3)},
		{"-(2 + 3)", value.Number(-5)},
		{"true && (false || true && true)", value.Boolean(true)},
		{"false && true", value.Boolean(false)},
		{"true || false", value.Boolean(true)},
		{"!(1 < 2)", value.Boolean(false)},
		{"true ? 1 : 0", value.Number(1)},
		{"false ? 1 : 0", value.Number(0)},
		{"false ? 1 : true ? 2 : 3", value.Number(2)},
		{"!(-1)", value.Boolean(true)},
		{"!0.5", value.Boolean(false)},
		{"-2 ? 1 : 0", value.Number(0)},
		{`"0.5" ? 1 : 0`, value.Number(1)},
		{`"-3" ? 1 : 0`, value.Number(0)},
		{"1 <= 1 && 2 >= 3 == false", value.Boolean(true)},
		{`"a" < "b"`, value.Boolean(true)},
		{`"b" >= "a"`, value.Boolean(true)},
		{`"a" + "b"`, value.String("ab")},
		{`"n" + 1`, value.String("n1")},
		{`1 == "1"`, value.Boolean(true)},
		{`true == 1`, value.Boolean(true)},
		{`undefined == 0`, value.Boolean(false)},
		{`undefined == undefined`, value.Boolean(true)},
		{`"x" != "y"`, value.Boolean(true)},
		{"undefined", value.Void},
	}

	m := New()
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := eval(t, m, nil, tt.src)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want.Inspect(), got.Inspect())
		})
	}
}

func TestEvaluate_Assignment(t *testing.T) {
	m := New()
	scope := newScope(t)

	got, err := eval(t, m, scope, "foo = 5")
	require.NoError(t, err)
	assert.Equal(t, value.Number(5), got)

	got, err = eval(t, m, scope, "$foo")
	require.NoError(t, err)
	assert.Equal(t, value.Number(5), got)

	for _, src := range []string{"foo += 5", "foo -= 5", "foo *= 5", "foo /= 25"} {
		_, err = eval(t, m, scope, src)
		require.NoError(t, err, src)
	}
	got, err = eval(t, m, scope, "$foo")
	require.NoError(t, err)
	assert.Equal(t, value.Number(1), got)

	got, err = eval(t, m, scope, "a = b = 2")
	require.NoError(t, err)
	assert.Equal(t, value.Number(2), got)
	got, err = eval(t, m, scope, "$a + $b")
	require.NoError(t, err)
	assert.Equal(t, value.Number(4), got)
}

func TestEvaluate_AddressesAreNotValues(t *testing.T) {
	m := New()
	scope := newScope(t)

	_, err := eval(t, m, scope, "foo = 7")
	require.NoError(t, err)

	got, err := eval(t, m, scope, "set(id, foo)")
	require.NoError(t, err)
	assert.Equal(t, value.KindAddress, got.Kind())
	assert.True(t, got.Equal(value.FromAddress(value.MustParseAddress("foo"))))

	got, err = eval(t, m, scope, "get(get(id))")
	require.NoError(t, err)
	assert.Equal(t, value.Number(7), got)
}

func TestEvaluate_SubContext(t *testing.T) {
	m := New()
	scope := newScope(t)

	_, err := eval(t, m, scope, "context.set(foo, 3)")
	require.NoError(t, err)

	got, err := eval(t, m, scope, "$context.foo")
	require.NoError(t, err)
	assert.Equal(t, value.Number(3), got)

	got, err = eval(t, m, scope, "num5() + $context.foo")
	require.NoError(t, err)
	assert.Equal(t, value.Number(8), got)

	got, err = eval(t, m, scope, "context.foo += 1")
	require.NoError(t, err)
	assert.Equal(t, value.Number(4), got)
}

func TestEvaluate_Delete(t *testing.T) {
	m := New()
	scope := newScope(t)

	_, err := eval(t, m, scope, "foo = 1")
	require.NoError(t, err)

	got, err := eval(t, m, scope, "delete(foo)")
	require.NoError(t, err)
	assert.Equal(t, value.Boolean(true), got)

	_, err = scope.GetValue(value.NewIdentifier("foo"))
	assert.ErrorIs(t, err, perr.ErrUndefinedMember)

	got, err = eval(t, m, scope, "$foo")
	assert.ErrorIs(t, err, perr.ErrUndefinedMember)
	kind, _ := perr.Classify(err)
	assert.Equal(t, perr.KindBinding, kind)
	assert.True(t, got.IsVoid())
}

func TestEvaluate_Deterministic(t *testing.T) {
	scope := newScope(t)
	_, err := eval(t, New(), scope, "x = 3")
	require.NoError(t, err)

	const src = "$x * 2 + num5() - ($x > 2 ? 1 : 0)"
	first, err := compiler.Compile(src)
	require.NoError(t, err)
	second, err := compiler.Compile(src)
	require.NoError(t, err)
	assert.Equal(t, first.Instructions(), second.Instructions())

	m := New()
	a, err := m.Evaluate(context.Background(), first, scope)
	require.NoError(t, err)
	b, err := m.Evaluate(context.Background(), first, scope)
	require.NoError(t, err)
	c, err := m.Evaluate(context.Background(), second, scope)
	require.NoError(t, err)
	assert.Equal(t, value.Number(10), a)
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestEvaluate_DivideByZero(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		policy perr.Policy
		want   value.Value
	}{
		{"collect divide", "5 / 0", perr.PolicyCollect, value.Void},
		{"silent divide", "5 / 0", perr.PolicySilent, value.Number(0)},
		{"collect modulo", "5 % 0", perr.PolicyCollect, value.Void},
		{"silent modulo", "5 % 0", perr.PolicySilent, value.Number(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval(t, New(WithPolicy(tt.policy)), nil, tt.src)
			assert.Equal(t, tt.want, got)
			if tt.policy == perr.PolicySilent {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, perr.ErrDivideByZero)
			kind, _ := perr.Classify(err)
			assert.Equal(t, perr.KindArithmetic, kind)
		})
	}
}

func TestEvaluate_Policies(t *testing.T) {
	t.Run("raise returns the first error", func(t *testing.T) {
		_, err := eval(t, New(WithPolicy(perr.PolicyRaise)), nil, "1 / 0")
		var e *perr.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "divide", e.Op)
		_, isList := err.(perr.List)
		assert.False(t, isList)
	})

	t.Run("collect halts after the first error", func(t *testing.T) {
		_, err := eval(t, New(), nil, "1 / 0 + 2 / 0")
		var list perr.List
		require.ErrorAs(t, err, &list)
		assert.Len(t, list, 1)
	})

	t.Run("silent continues with fallbacks", func(t *testing.T) {
		got, err := eval(t, New(WithPolicy(perr.PolicySilent)), nil, "1 / 0 + 2 / 0 + 3")
		require.NoError(t, err)
		assert.Equal(t, value.Number(3), got)
	})

	t.Run("hook sees recorded errors", func(t *testing.T) {
		var seen []*perr.Error
		m := New(WithHook(func(e *perr.Error) { seen = append(seen, e) }))
		_, err := eval(t, m, nil, "1 / 0")
		require.Error(t, err)
		require.Len(t, seen, 1)
		assert.Equal(t, perr.KindArithmetic, seen[0].Kind)
	})

	t.Run("errors do not leak into the next evaluation", func(t *testing.T) {
		m := New()
		_, err := eval(t, m, nil, "1 / 0")
		require.Error(t, err)
		got, err := eval(t, m, nil, "1 + 1")
		require.NoError(t, err)
		assert.Equal(t, value.Number(2), got)
	})
}

func TestEvaluate_ContextPolicies(t *testing.T) {
	t.Run("collecting context halts the evaluation", func(t *testing.T) {
		scope := binding.NewTable(binding.WithPolicy(perr.PolicyCollect))
		got, err := eval(t, New(), scope, "$missing + 1")
		assert.True(t, got.IsVoid())
		var list perr.List
		require.ErrorAs(t, err, &list)
		require.Len(t, list, 1)
		assert.ErrorIs(t, err, perr.ErrUndefinedMember)
		assert.Len(t, scope.Sink().Errors(), 1, "the context keeps its own record")
	})

	t.Run("nested collecting context", func(t *testing.T) {
		inner := binding.NewTable(binding.WithPolicy(perr.PolicyCollect))
		root := binding.NewTable()
		require.NoError(t, root.DeclareContext("inner", inner))
		_, err := eval(t, New(), root, "$inner.missing * 2")
		assert.ErrorIs(t, err, perr.ErrUndefinedMember)
	})

	t.Run("raising context keeps no history", func(t *testing.T) {
		scope := binding.NewTable()
		m := New()
		for range 1000 {
			_, err := eval(t, m, scope, "$missing")
			require.ErrorIs(t, err, perr.ErrUndefinedMember)
		}
		assert.Empty(t, scope.Sink().Errors())
	})

	t.Run("silent context yields defaults", func(t *testing.T) {
		scope := binding.NewTable(binding.WithPolicy(perr.PolicySilent))
		got, err := eval(t, New(), scope, "$missing + 1")
		require.NoError(t, err)
		assert.Equal(t, value.Number(1), got)
	})
}

// aliasScope resolves addresses starting with "me" against the lead
// table, leaving every other lookup to the embedded table.
type aliasScope struct {
	*binding.Table
	lead *binding.Table
}

func (a aliasScope) ConvertAddress(addr value.Address) (binding.Narrowed, error) {
	if addr.Len() > 1 && addr.At(0).Name() == "me" {
		rest, err := value.ParseAddress(addr.String()[len("me."):])
		if err != nil {
			return binding.Narrowed{}, err
		}
		return binding.Walk(a.lead, rest)
	}
	return a.Table.ConvertAddress(addr)
}

func TestEvaluate_HostAddressResolution(t *testing.T) {
	root := binding.NewTable(binding.WithName("root"))
	lead := binding.NewTable(binding.WithName("lead"))
	require.NoError(t, lead.DeclareVariable("hp", value.Number(30)))
	require.NoError(t, root.DeclareVariable("bonus", value.Number(5)))
	scope := aliasScope{Table: root, lead: lead}

	m := New()
	got, err := eval(t, m, scope, "$me.hp + $bonus")
	require.NoError(t, err)
	assert.Equal(t, value.Number(35), got)

	require.NoError(t, lead.DeclareFunction("heal", func(args []value.Value) (value.Value, error) {
		n, err := value.DefaultConverter.ToNumber(args[0])
		if err != nil {
			return value.Void, err
		}
		return value.Void, lead.SetValue(value.NewIdentifier("hp"), value.Number(n))
	}))
	_, err = eval(t, m, scope, "me.heal(12)")
	require.NoError(t, err)
	v, err := lead.GetValue(value.NewIdentifier("hp"))
	require.NoError(t, err)
	assert.Equal(t, value.Number(12), v)

	got, err = binding.Get(scope, value.MustParseAddress("me.hp"))
	require.NoError(t, err)
	assert.Equal(t, value.Number(12), got)
}

func TestEvaluate_StrongTyping(t *testing.T) {
	strong := New(WithConverter(value.Converter{Typing: value.Strong}))

	tests := []struct {
		src string
		op  string
	}{
		{"1 + true", "add"},
		{`"a" + 1`, "add"},
		{`1 - "1"`, "subtract"},
		{"!1", "not"},
		{"1 && true", "logical and"},
		{"1 ? 2 : 3", "conditional"},
		{`-"x"`, "negate"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := eval(t, strong, nil, tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, perr.ErrOperandKind)
			var list perr.List
			require.ErrorAs(t, err, &list)
			assert.Equal(t, perr.KindType, list[0].Kind)
			assert.Equal(t, tt.op, list[0].Op)
		})
	}

	got, err := eval(t, strong, nil, `1 == "1"`)
	require.NoError(t, err)
	assert.Equal(t, value.Boolean(false), got, "mixed kinds are never equal")
}

func TestEvaluate_Narrowing(t *testing.T) {
	_, err := eval(t, New(), nil, "100000000000000000000000000000 | 0")
	require.Error(t, err)
	assert.ErrorIs(t, err, perr.ErrOverflow)
	kind, _ := perr.Classify(err)
	assert.Equal(t, perr.KindConversion, kind)

	unchecked := New(WithConverter(value.Converter{Conversion: value.Unchecked}))
	_, err = eval(t, unchecked, nil, "100000000000000000000000000000 | 0")
	assert.NoError(t, err)
}

func TestEvaluate_StructuralErrors(t *testing.T) {
	m := New()

	t.Run("missing operators", func(t *testing.T) {
		block := bytecode.NewBlock("1 2", []bytecode.Instruction{
			bytecode.WithNumber(bytecode.LoadNumber, 1),
			bytecode.WithNumber(bytecode.LoadNumber, 2),
		}, nil)
		got, err := m.Evaluate(context.Background(), block, nil)
		assert.True(t, got.IsVoid())
		assert.ErrorIs(t, err, perr.ErrMissingOperators)
		kind, _ := perr.Classify(err)
		assert.Equal(t, perr.KindStructural, kind)
	})

	t.Run("empty block", func(t *testing.T) {
		got, err := m.Evaluate(context.Background(), bytecode.NewBlock("", nil, nil), nil)
		require.NoError(t, err)
		assert.True(t, got.IsVoid())
	})

	t.Run("nil block", func(t *testing.T) {
		_, err := m.Evaluate(context.Background(), nil, nil)
		assert.ErrorIs(t, err, perr.ErrInvalidProgram)
	})

	t.Run("stack underflow", func(t *testing.T) {
		block := bytecode.NewBlock("", []bytecode.Instruction{bytecode.Simple(bytecode.Add)}, nil)
		_, err := m.Evaluate(context.Background(), block, nil)
		assert.ErrorIs(t, err, perr.ErrStackUnderflow)
	})

	t.Run("jump out of range", func(t *testing.T) {
		block := bytecode.NewBlock("", []bytecode.Instruction{bytecode.WithOffset(bytecode.Jump, 10)}, nil)
		_, err := m.Evaluate(context.Background(), block, nil)
		assert.ErrorIs(t, err, perr.ErrInvalidProgram)
	})

	t.Run("bad string index", func(t *testing.T) {
		block := bytecode.NewBlock("", []bytecode.Instruction{bytecode.WithIndex(bytecode.LoadString, 3)}, nil)
		_, err := m.Evaluate(context.Background(), block, nil)
		assert.ErrorIs(t, err, perr.ErrInvalidProgram)
	})

	t.Run("no scope", func(t *testing.T) {
		_, err := eval(t, m, nil, "$foo")
		assert.ErrorIs(t, err, perr.ErrUndefinedMember)
	})

	t.Run("access requires addresses", func(t *testing.T) {
		block := bytecode.NewBlock("", []bytecode.Instruction{
			bytecode.WithNumber(bytecode.LoadNumber, 1),
			bytecode.WithIndex(bytecode.LoadIdentifier, 0),
			bytecode.Simple(bytecode.Access),
		}, []string{"x"})
		_, err := m.Evaluate(context.Background(), block, nil)
		assert.ErrorIs(t, err, perr.ErrOperandKind)
	})
}

func TestEvaluate_Limits(t *testing.T) {
	long := strings.Repeat("1 + ", 700) + "1"

	t.Run("step limit", func(t *testing.T) {
		m := New(WithStepLimit(10))
		_, err := eval(t, m, nil, long)
		assert.ErrorIs(t, err, perr.ErrStepLimit)
		kind, _ := perr.Classify(err)
		assert.Equal(t, perr.KindLimit, kind)

		got, err := eval(t, m, nil, "1 + 2")
		require.NoError(t, err)
		assert.Equal(t, value.Number(3), got)
		assert.Equal(t, 3, m.Steps())
	})

	t.Run("step limit halts under silent", func(t *testing.T) {
		m := New(WithStepLimit(10), WithPolicy(perr.PolicySilent))
		_, err := eval(t, m, nil, long)
		assert.NoError(t, err)
		assert.Equal(t, 11, m.Steps())
	})

	t.Run("cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		block, err := compiler.Compile(long)
		require.NoError(t, err)
		_, err = New().Evaluate(ctx, block, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestVM_Accessors(t *testing.T) {
	conv := value.Converter{Typing: value.Strong, Conversion: value.Unchecked}
	m := New(WithConverter(conv), WithPolicy(perr.PolicyRaise))
	assert.Equal(t, conv, m.Converter())
	assert.Equal(t, perr.PolicyRaise, m.Policy())
}
