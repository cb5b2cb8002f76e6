package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// hostLibrary builds the functions the REPL exposes to expressions. The
// address-taking functions resolve against root.
func hostLibrary(root binding.Context, out io.Writer, rng *rand.Rand) *binding.Library {
	conv := value.DefaultConverter

	target := func(args []value.Value, n int, name string) (value.Address, error) {
		if len(args) != n {
			return value.Empty, fmt.Errorf("%s takes %d arguments, got %d", name, n, len(args))
		}
		if args[0].Kind() != value.KindAddress {
			return value.Empty, fmt.Errorf("%s: first argument must be a name, got %s", name, args[0].Kind())
		}
		return conv.ToAddress(args[0])
	}

	return binding.NewLibrary().
		MustRegister("set", func(args []value.Value) (value.Value, error) {
			addr, err := target(args, 2, "set")
			if err != nil {
				return value.Void, err
			}
			return args[1], binding.Set(root, addr, args[1])
		}).
		MustRegister("get", func(args []value.Value) (value.Value, error) {
			addr, err := target(args, 1, "get")
			if err != nil {
				return value.Void, err
			}
			return binding.Get(root, addr)
		}).
		MustRegister("delete", func(args []value.Value) (value.Value, error) {
			addr, err := target(args, 1, "delete")
			if err != nil {
				return value.Void, err
			}
			n, err := root.ConvertAddress(addr)
			if err != nil {
				return value.Void, err
			}
			ok, err := n.DeleteValue()
			return value.Boolean(ok), err
		}).
		MustRegister("print", func(args []value.Value) (value.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.String()
			}
			_, err := fmt.Fprintln(out, strings.Join(parts, " "))
			return value.Void, err
		}).
		MustRegister("len", func(args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return value.Void, fmt.Errorf("len takes 1 argument, got %d", len(args))
			}
			s, err := conv.ToString(args[0])
			if err != nil {
				return value.Void, err
			}
			return value.Number(float64(len([]rune(s)))), nil
		}).
		MustRegister("rand", func(args []value.Value) (value.Value, error) {
			switch len(args) {
			case 0:
				return value.Number(rng.Float64()), nil
			case 1:
				f, err := conv.ToNumber(args[0])
				if err != nil {
					return value.Void, err
				}
				n, err := value.NarrowSigned[int64](conv.Conversion, f)
				if err != nil {
					return value.Void, err
				}
				if n <= 0 {
					return value.Void, fmt.Errorf("rand: bound must be positive, got %d", n)
				}
				return value.Number(float64(rng.Int64N(n))), nil
			default:
				return value.Void, fmt.Errorf("rand takes at most 1 argument, got %d", len(args))
			}
		})
}
