// Package vm executes compiled expressions.
//
// The machine has two stacks: the operand stack every opcode works on and a
// small storage stack used by compound assignment to park the right-hand
// side while the old value is fetched. Both are cleared at the start of each
// evaluation.
package vm

import (
	"context"
	"log/slog"

	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/bytecode"
	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// cancelCheckInterval is how many instructions run between context checks.
const cancelCheckInterval = 1024

// VM evaluates blocks. It keeps its stacks between calls and is not safe for
// concurrent use; pool instances or create one per goroutine.
type VM struct {
	conv      value.Converter
	policy    perr.Policy
	stepLimit int
	logger    *slog.Logger
	hook      func(*perr.Error)

	sink    *perr.Sink
	stack   []value.Value
	storage []value.Value
	steps   int
	scope   binding.Context
}

// Option configures a VM.
type Option func(*VM)

// WithConverter sets the typing and conversion policy.
func WithConverter(c value.Converter) Option {
	return func(m *VM) {
		m.conv = c
	}
}

// WithPolicy sets how runtime errors are surfaced. The default is Collect.
func WithPolicy(p perr.Policy) Option {
	return func(m *VM) {
		m.policy = p
	}
}

// WithStepLimit aborts evaluation with a limit error once more than n
// instructions have run. Zero or negative means unlimited.
func WithStepLimit(n int) Option {
	return func(m *VM) {
		m.stepLimit = n
	}
}

// WithLogger logs every recorded runtime error at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(m *VM) {
		m.logger = logger
	}
}

// WithHook calls fn for every recorded runtime error.
func WithHook(fn func(*perr.Error)) Option {
	return func(m *VM) {
		m.hook = fn
	}
}

// New creates a VM. Defaults: weak checked converter, Collect policy, no
// step limit.
func New(opts ...Option) *VM {
	m := &VM{
		conv:   value.DefaultConverter,
		policy: perr.PolicyCollect,
		stack:  make([]value.Value, 0, 16),
	}
	for _, opt := range opts {
		opt(m)
	}
	var sinkOpts []perr.SinkOption
	if m.logger != nil {
		sinkOpts = append(sinkOpts, perr.WithSinkLogger(m.logger))
	}
	if m.hook != nil {
		sinkOpts = append(sinkOpts, perr.WithHook(m.hook))
	}
	m.sink = perr.NewSink(m.policy, sinkOpts...)
	return m
}

// Converter returns the VM's converter.
func (m *VM) Converter() value.Converter {
	return m.conv
}

// Policy returns the VM's error policy.
func (m *VM) Policy() perr.Policy {
	return m.policy
}

// Steps returns the number of instructions run by the last evaluation.
func (m *VM) Steps() int {
	return m.steps
}

// Evaluate runs block against scope and returns its single result.
//
// Under Raise the first error is returned; under Collect every error
// recorded before the machine halted is returned as an errors.List. In both
// cases the value is Void. Under Silent errors are dropped and the
// fallback values produced by failing operations flow on.
func (m *VM) Evaluate(ctx context.Context, block *bytecode.Block, scope binding.Context) (value.Value, error) {
	m.reset(scope)
	defer func() { m.scope = nil }()

	if block == nil {
		m.report(perr.New(perr.KindStructural, "evaluate", perr.ErrInvalidProgram, "no block to evaluate"))
		return value.Void, m.sink.Err()
	}

	m.run(ctx, block)

	if m.sink.Failed() {
		return value.Void, m.sink.Err()
	}
	switch len(m.stack) {
	case 0:
		return value.Void, nil
	case 1:
		return m.pop(), nil
	default:
		m.report(perr.New(perr.KindStructural, "evaluate", perr.ErrMissingOperators,
			"expression left %d values, missing operators", len(m.stack)))
		return value.Void, m.sink.Err()
	}
}

func (m *VM) reset(scope binding.Context) {
	clear(m.stack)
	m.stack = m.stack[:0]
	clear(m.storage)
	m.storage = m.storage[:0]
	m.steps = 0
	m.scope = scope
	m.sink.Reset()
}

func (m *VM) run(ctx context.Context, block *bytecode.Block) {
	n := block.Len()
	for pc := 0; pc < n; {
		m.steps++
		if m.stepLimit > 0 && m.steps > m.stepLimit {
			m.report(perr.New(perr.KindLimit, "evaluate", perr.ErrStepLimit,
				"exceeded %d instructions", m.stepLimit))
			return
		}
		if ctx != nil && m.steps%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				m.report(perr.New(perr.KindLimit, "evaluate", err, "evaluation cancelled: %v", err))
				return
			}
		}

		ins := block.At(pc)
		pc++

		switch ins.Op {
		case bytecode.Jump, bytecode.JumpIfFalse, bytecode.JumpIfFalseOrPop, bytecode.JumpIfTrueOrPop:
			if m.branch(ins) {
				pc += ins.Offset()
				if pc < 0 || pc > n {
					m.report(perr.New(perr.KindStructural, "jump", perr.ErrInvalidProgram,
						"jump target %d outside program", pc))
					return
				}
			}
		default:
			m.exec(block, ins)
		}

		if m.sink.Failed() {
			return
		}
	}
}

// report records err in the VM sink.
func (m *VM) report(err *perr.Error) {
	_ = m.sink.Report(err)
}

func (m *VM) push(v value.Value) {
	m.stack = append(m.stack, v)
}

func (m *VM) pop() value.Value {
	if len(m.stack) == 0 {
		m.report(perr.New(perr.KindStructural, "pop", perr.ErrStackUnderflow, "operand stack is empty"))
		return value.Void
	}
	v := m.stack[len(m.stack)-1]
	m.stack[len(m.stack)-1] = value.Void
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *VM) peek() value.Value {
	if len(m.stack) == 0 {
		m.report(perr.New(perr.KindStructural, "peek", perr.ErrStackUnderflow, "operand stack is empty"))
		return value.Void
	}
	return m.stack[len(m.stack)-1]
}

// branch reports whether the jump ins is taken, adjusting the stack as the
// jump kind requires.
func (m *VM) branch(ins bytecode.Instruction) bool {
	switch ins.Op {
	case bytecode.Jump:
		return true
	case bytecode.JumpIfFalse:
		return !m.boolean("conditional", m.pop())
	case bytecode.JumpIfFalseOrPop:
		if !m.boolean("logical and", m.peek()) {
			return true
		}
		m.pop()
		return false
	default:
		if m.boolean("logical or", m.peek()) {
			return true
		}
		m.pop()
		return false
	}
}
