package binding

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// Table is the built-in map-backed Context.
//
// A Table is plain mutable state with no internal locking. Hosts that share
// one across goroutines must serialize access themselves.
type Table struct {
	name    string
	members map[value.Identifier]Member
	sink    *perr.Sink
	policy  perr.Policy
	logger  *slog.Logger
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithName sets the name used in error messages and logs.
func WithName(name string) TableOption {
	return func(t *Table) {
		t.name = name
	}
}

// WithSink routes violations to an existing sink, overriding WithPolicy.
func WithSink(sink *perr.Sink) TableOption {
	return func(t *Table) {
		t.sink = sink
	}
}

// WithPolicy gives the table its own sink with the given policy.
func WithPolicy(p perr.Policy) TableOption {
	return func(t *Table) {
		t.policy = p
	}
}

// WithLogger sets a logger for declarations and recorded violations.
func WithLogger(logger *slog.Logger) TableOption {
	return func(t *Table) {
		t.logger = logger
	}
}

// NewTable creates an empty Table. Violations are raised unless another
// policy or sink is configured.
//
// A table's own sink keeps no history under Raise. Under Collect it keeps
// every violation until Sink().Reset is called.
func NewTable(opts ...TableOption) *Table {
	t := &Table{members: make(map[value.Identifier]Member), policy: perr.PolicyRaise}
	for _, opt := range opts {
		opt(t)
	}
	if t.sink == nil {
		sinkOpts := []perr.SinkOption{perr.WithoutHistory()}
		if t.logger != nil {
			sinkOpts = append(sinkOpts, perr.WithSinkLogger(t.logger))
		}
		t.sink = perr.NewSink(t.policy, sinkOpts...)
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Sink returns the sink violations are reported to.
func (t *Table) Sink() *perr.Sink {
	return t.sink
}

// Len returns the number of bound names.
func (t *Table) Len() int {
	return len(t.members)
}

// Names returns the bound names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.members))
	for id := range t.members {
		names = append(names, id.Name())
	}
	slices.Sort(names)
	return names
}

// Lookup returns the member bound to id.
func (t *Table) Lookup(id value.Identifier) (Member, bool) {
	m, ok := t.members[id]
	return m, ok
}

// Declare binds name to m. Declaring a bound name fails with
// ErrMemberExists regardless of policy.
func (t *Table) Declare(name string, m Member) error {
	if m == nil {
		return fmt.Errorf("binding: nil member for %q", name)
	}
	if _, err := value.NewAddress(name); err != nil {
		return perr.New(perr.KindBinding, "declare", err, "invalid member name %q", name)
	}
	id := value.NewIdentifier(name)
	if existing, ok := t.members[id]; ok {
		return perr.New(perr.KindBinding, "declare", perr.ErrMemberExists,
			"%s already declared as %s", t.qualify(id), existing.Kind())
	}
	t.members[id] = m
	if t.logger != nil {
		t.logger.Debug("member declared",
			slog.String("table", t.name),
			slog.String("name", name),
			slog.String("kind", m.Kind().String()),
		)
	}
	return nil
}

// DeclareConstant binds an immutable value.
func (t *Table) DeclareConstant(name string, v value.Value) error {
	return t.Declare(name, Constant{Value: v})
}

// DeclareVariable binds a mutable value.
func (t *Table) DeclareVariable(name string, v value.Value) error {
	return t.Declare(name, &Variable{Value: v})
}

// DeclareGetter binds a value computed on every read.
func (t *Table) DeclareGetter(name string, fn func() (value.Value, error)) error {
	return t.Declare(name, Getter{Fn: fn})
}

// DeclareFunction binds a host callback.
func (t *Table) DeclareFunction(name string, fn Func) error {
	return t.Declare(name, Function{Fn: fn})
}

// DeclareContext binds a nested scope.
func (t *Table) DeclareContext(name string, ctx Context) error {
	return t.Declare(name, SubContext{Scope: ctx})
}

// Undeclare removes the binding for name and reports whether it existed.
func (t *Table) Undeclare(name string) bool {
	id := value.NewIdentifier(name)
	if _, ok := t.members[id]; !ok {
		return false
	}
	delete(t.members, id)
	return true
}

// Import declares every function of lib. It stops at the first name that
// is already bound.
func (t *Table) Import(lib *Library) error {
	for _, name := range lib.Names() {
		fn, _ := lib.Get(name)
		if err := t.DeclareFunction(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// GetValue implements Context.
func (t *Table) GetValue(id value.Identifier) (value.Value, error) {
	m, ok := t.members[id]
	if !ok {
		return value.Void, t.undefined("get", id)
	}
	v, err := m.Get()
	if err != nil {
		return value.Void, t.violation("get", id, m, err)
	}
	return v, nil
}

// SetValue implements Context. Setting an unbound name declares a Variable.
func (t *Table) SetValue(id value.Identifier, v value.Value) error {
	m, ok := t.members[id]
	if !ok {
		t.members[id] = &Variable{Value: v}
		return nil
	}
	if err := m.Set(v); err != nil {
		return t.violation("set", id, m, err)
	}
	return nil
}

// DeleteValue implements Context. A deleted Variable is unbound.
func (t *Table) DeleteValue(id value.Identifier) (bool, error) {
	m, ok := t.members[id]
	if !ok {
		return false, t.undefined("delete", id)
	}
	if err := m.Delete(); err != nil {
		return false, t.violation("delete", id, m, err)
	}
	delete(t.members, id)
	return true, nil
}

// Invoke implements Context.
func (t *Table) Invoke(id value.Identifier, args []value.Value) (value.Value, error) {
	m, ok := t.members[id]
	if !ok {
		return value.Void, t.undefined("invoke", id)
	}
	v, err := m.Invoke(args)
	if err != nil {
		return value.Void, t.violation("invoke", id, m, err)
	}
	return v, nil
}

// GetContext implements Context.
func (t *Table) GetContext(id value.Identifier) (Context, error) {
	m, ok := t.members[id]
	if !ok {
		return nil, t.undefined("get context", id)
	}
	ctx, err := m.Context()
	if err != nil {
		return nil, t.violation("get context", id, m, err)
	}
	return ctx, nil
}

// ConvertAddress resolves addr relative to this table.
func (t *Table) ConvertAddress(addr value.Address) (Narrowed, error) {
	return Walk(t, addr)
}

func (t *Table) qualify(id value.Identifier) string {
	if t.name == "" {
		return fmt.Sprintf("%q", id.Name())
	}
	return fmt.Sprintf("%q in %s", id.Name(), t.name)
}

func (t *Table) undefined(op string, id value.Identifier) error {
	return t.report(perr.New(perr.KindBinding, op, perr.ErrUndefinedMember,
		"undefined member %s", t.qualify(id)))
}

// report records pe in the table sink. Raised and collected violations are
// both handed back so the evaluation running against the table records them
// in its own sink and halts; silent ones are dropped.
func (t *Table) report(pe *perr.Error) error {
	if err := t.sink.Report(pe); err != nil {
		return err
	}
	if t.sink.Policy() == perr.PolicySilent {
		return nil
	}
	return pe
}

func (t *Table) violation(op string, id value.Identifier, m Member, err error) error {
	var (
		pe   *perr.Error
		host *hostErr
	)
	switch {
	case errors.As(err, &pe):
	case errors.Is(err, perr.ErrUnsupported):
		pe = perr.New(perr.KindBinding, op, perr.ErrUnsupported,
			"%s %s does not support %s", m.Kind(), t.qualify(id), op)
	case errors.As(err, &host):
		pe = perr.New(perr.KindInvocation, op, host.err,
			"%s %s failed: %v", m.Kind(), t.qualify(id), host.err)
	default:
		pe = perr.Wrap(err, perr.KindBinding, op)
	}
	return t.report(pe)
}
