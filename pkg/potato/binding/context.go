// Package binding implements the hierarchical environment expressions are
// evaluated against: contexts holding named members, dotted address
// resolution and reusable host function libraries.
package binding

import (
	"strings"

	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// Context is one scope of named bindings.
//
// Implementations decide how violations are reported. A returned error
// halts the evaluation that made the call and is recorded in the
// evaluator's sink under the evaluator's policy. The built-in Table returns
// violations under Raise and Collect; under Silent it returns the
// kind-appropriate default (Void, false, nil) with a nil error.
type Context interface {
	GetValue(id value.Identifier) (value.Value, error)
	SetValue(id value.Identifier, v value.Value) error
	DeleteValue(id value.Identifier) (bool, error)
	Invoke(id value.Identifier, args []value.Value) (value.Value, error)
	GetContext(id value.Identifier) (Context, error)

	// ConvertAddress narrows addr, relative to this context, to the context
	// holding its last segment. Most implementations delegate to Walk.
	ConvertAddress(addr value.Address) (Narrowed, error)
}

// Func is a host callback invocable from expressions.
type Func func(args []value.Value) (value.Value, error)

// Narrowed is a transient view of a single binding: the context that holds
// the final segment of an address, and that segment. It must not be kept
// across mutations of the context tree.
type Narrowed struct {
	Context Context
	ID      value.Identifier
}

// Walk resolves every segment of addr except the last through successive
// GetContext calls starting at base.
func Walk(base Context, addr value.Address) (Narrowed, error) {
	if addr.IsEmpty() {
		return Narrowed{}, perr.New(perr.KindBinding, "resolve", perr.ErrEmptyAddress,
			"cannot resolve the empty address")
	}
	ctx := base
	for i := 0; i < addr.Len()-1; i++ {
		seg := addr.At(i)
		next, err := ctx.GetContext(seg)
		if err != nil {
			return Narrowed{}, err
		}
		if next == nil {
			return Narrowed{}, perr.New(perr.KindBinding, "resolve", perr.ErrUndefinedMember,
				"%s is not a context", prefix(addr, i+1))
		}
		ctx = next
	}
	return Narrowed{Context: ctx, ID: addr.Last()}, nil
}

func prefix(addr value.Address, n int) string {
	names := make([]string, n)
	for i := range n {
		names[i] = addr.At(i).Name()
	}
	return strings.Join(names, ".")
}

// GetValue reads the binding.
func (n Narrowed) GetValue() (value.Value, error) {
	return n.Context.GetValue(n.ID)
}

// SetValue writes the binding, declaring a variable if it is unbound.
func (n Narrowed) SetValue(v value.Value) error {
	return n.Context.SetValue(n.ID, v)
}

// DeleteValue removes the binding.
func (n Narrowed) DeleteValue() (bool, error) {
	return n.Context.DeleteValue(n.ID)
}

// Invoke calls the bound function.
func (n Narrowed) Invoke(args []value.Value) (value.Value, error) {
	return n.Context.Invoke(n.ID, args)
}

// GetContext returns the bound sub-context.
func (n Narrowed) GetContext() (Context, error) {
	return n.Context.GetContext(n.ID)
}

// Get resolves addr against base and reads the bound value.
func Get(base Context, addr value.Address) (value.Value, error) {
	n, err := base.ConvertAddress(addr)
	if err != nil {
		return value.Void, err
	}
	return n.GetValue()
}

// Set resolves addr against base and writes v.
func Set(base Context, addr value.Address, v value.Value) error {
	n, err := base.ConvertAddress(addr)
	if err != nil {
		return err
	}
	return n.SetValue(v)
}
