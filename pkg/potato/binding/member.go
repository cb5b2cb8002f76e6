package binding

import (
	"errors"

	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// MemberKind tags the variant of a Member.
type MemberKind uint8

const (
	MemberConstant MemberKind = iota
	MemberVariable
	MemberGetter
	MemberFunction
	MemberContext
)

// String returns the member kind name.
func (k MemberKind) String() string {
	switch k {
	case MemberConstant:
		return "constant"
	case MemberVariable:
		return "variable"
	case MemberGetter:
		return "getter"
	case MemberFunction:
		return "function"
	case MemberContext:
		return "context"
	default:
		return "unknown"
	}
}

// Member is one named binding. Every variant implements the whole capability
// set; operations illegal for the variant return an ErrUnsupported error.
//
// The set of variants is closed: Constant, *Variable, Getter, Function and
// SubContext.
type Member interface {
	Kind() MemberKind
	Get() (value.Value, error)
	Set(v value.Value) error
	Delete() error
	Context() (Context, error)
	Invoke(args []value.Value) (value.Value, error)

	member()
}

// unsupported provides the illegal-operation defaults shared by variants.
type unsupported struct{}

func (unsupported) member() {}

func (unsupported) Get() (value.Value, error) {
	return value.Void, errNotSupported("get")
}

func (unsupported) Set(value.Value) error {
	return errNotSupported("set")
}

func (unsupported) Delete() error {
	return errNotSupported("delete")
}

func (unsupported) Context() (Context, error) {
	return nil, errNotSupported("get context")
}

func (unsupported) Invoke([]value.Value) (value.Value, error) {
	return value.Void, errNotSupported("invoke")
}

// errNotSupported is decorated with the member name and kind by the Table.
func errNotSupported(op string) error {
	return &unsupportedOp{op: op}
}

type unsupportedOp struct{ op string }

func (e *unsupportedOp) Error() string { return "unsupported operation " + e.op }
func (e *unsupportedOp) Unwrap() error { return perr.ErrUnsupported }

// Constant is an immutable value.
type Constant struct {
	unsupported
	Value value.Value
}

// Kind implements Member.
func (Constant) Kind() MemberKind { return MemberConstant }

// Get implements Member.
func (c Constant) Get() (value.Value, error) { return c.Value, nil }

// Variable is a mutable value. Deleting it clears the value and the Table
// removes the binding.
type Variable struct {
	unsupported
	Value value.Value
}

// Kind implements Member.
func (*Variable) Kind() MemberKind { return MemberVariable }

// Get implements Member.
func (v *Variable) Get() (value.Value, error) { return v.Value, nil }

// Set implements Member.
func (v *Variable) Set(x value.Value) error {
	v.Value = x
	return nil
}

// Delete implements Member.
func (v *Variable) Delete() error {
	v.Value = value.Void
	return nil
}

// Getter computes its value on every read.
type Getter struct {
	unsupported
	Fn func() (value.Value, error)
}

// Kind implements Member.
func (Getter) Kind() MemberKind { return MemberGetter }

// Get implements Member.
func (g Getter) Get() (value.Value, error) {
	v, err := g.Fn()
	if err != nil {
		return value.Void, hostError(err)
	}
	return v, nil
}

// Function is a host callback.
type Function struct {
	unsupported
	Fn Func
}

// Kind implements Member.
func (Function) Kind() MemberKind { return MemberFunction }

// Invoke implements Member.
func (f Function) Invoke(args []value.Value) (value.Value, error) {
	v, err := f.Fn(args)
	if err != nil {
		return value.Void, hostError(err)
	}
	return v, nil
}

// SubContext is a nested scope.
type SubContext struct {
	unsupported
	Scope Context
}

// Kind implements Member.
func (SubContext) Kind() MemberKind { return MemberContext }

// Context implements Member.
func (s SubContext) Context() (Context, error) { return s.Scope, nil }

// hostErr marks an error returned by host code.
type hostErr struct{ err error }

func (e *hostErr) Error() string { return e.err.Error() }
func (e *hostErr) Unwrap() error { return e.err }

func hostError(err error) error {
	var pe *perr.Error
	if errors.As(err, &pe) {
		return err
	}
	return &hostErr{err: err}
}
