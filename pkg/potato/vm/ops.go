package vm

import (
	"errors"
	"math"
	"strings"

	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/bytecode"
	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// exec runs every non-jump opcode.
func (m *VM) exec(block *bytecode.Block, ins bytecode.Instruction) {
	switch ins.Op {
	case bytecode.LoadVoid:
		m.push(value.Void)
	case bytecode.LoadNumber:
		m.push(value.Number(ins.Number()))
	case bytecode.LoadBoolean:
		m.push(value.Boolean(ins.Bool()))
	case bytecode.LoadString, bytecode.LoadIdentifier:
		s, ok := block.Str(ins.Index())
		if !ok {
			m.report(perr.New(perr.KindStructural, opName(ins.Op), perr.ErrInvalidProgram,
				"string index %d out of range", ins.Index()))
			m.push(value.Void)
			return
		}
		if ins.Op == bytecode.LoadString {
			m.push(value.String(s))
		} else {
			m.push(value.FromIdentifier(value.NewIdentifier(s)))
		}

	case bytecode.Access:
		right, left := m.pop(), m.pop()
		l, lok := m.address("access", left)
		r, rok := m.address("access", right)
		if !lok || !rok {
			m.push(value.Void)
			return
		}
		m.push(value.FromAddress(l.Enqueue(r)))
	case bytecode.ValueOf:
		m.push(m.valueOf(m.pop()))
	case bytecode.Assign:
		v, target := m.pop(), m.pop()
		m.assign(target, v)
		m.push(v)
	case bytecode.Invoke:
		m.push(m.invoke(ins.Index()))

	case bytecode.Duplicate:
		m.push(m.peek())
	case bytecode.PushStorage:
		m.storage = append(m.storage, m.pop())
	case bytecode.PopStorage:
		if len(m.storage) == 0 {
			m.report(perr.New(perr.KindStructural, "pop storage", perr.ErrStackUnderflow, "storage stack is empty"))
			m.push(value.Void)
			return
		}
		v := m.storage[len(m.storage)-1]
		m.storage = m.storage[:len(m.storage)-1]
		m.push(v)

	case bytecode.Negate:
		f, _ := m.number("negate", m.pop())
		m.push(value.Number(-f))
	case bytecode.Not:
		m.push(value.Boolean(!m.boolean("not", m.pop())))
	case bytecode.Complement:
		i, _ := m.integer("complement", m.pop())
		m.push(value.Number(float64(^i)))

	case bytecode.Add:
		right, left := m.pop(), m.pop()
		m.push(m.add(left, right))
	case bytecode.Subtract, bytecode.Multiply, bytecode.Divide, bytecode.Modulo:
		right, left := m.pop(), m.pop()
		m.push(m.arithmetic(ins.Op, left, right))

	case bytecode.And, bytecode.Or:
		right, left := m.pop(), m.pop()
		l := m.boolean(opName(ins.Op), left)
		r := m.boolean(opName(ins.Op), right)
		if ins.Op == bytecode.And {
			m.push(value.Boolean(l && r))
		} else {
			m.push(value.Boolean(l || r))
		}

	case bytecode.BitAnd, bytecode.BitOr, bytecode.BitXor, bytecode.ShiftLeft, bytecode.ShiftRight:
		right, left := m.pop(), m.pop()
		m.push(m.bitwise(ins.Op, left, right))

	case bytecode.Equal, bytecode.NotEqual:
		right, left := m.pop(), m.pop()
		eq := m.equal(left, right)
		m.push(value.Boolean(eq == (ins.Op == bytecode.Equal)))
	case bytecode.Less, bytecode.LessEqual, bytecode.Greater, bytecode.GreaterEqual:
		right, left := m.pop(), m.pop()
		m.push(value.Boolean(m.compare(ins.Op, left, right)))

	default:
		m.report(perr.New(perr.KindStructural, "decode", perr.ErrInvalidProgram,
			"unknown opcode %s", ins.Op))
	}
}

func opName(op bytecode.Opcode) string {
	return strings.ReplaceAll(strings.ToLower(op.String()), "_", " ")
}

func (m *VM) typeError(op, want string, got value.Value) {
	m.report(perr.New(perr.KindType, op, perr.ErrOperandKind,
		"%s requires operands to be %s, got %s", op, want, got.Kind()))
}

func (m *VM) conversionError(op string, err error) {
	pe := *perr.Wrap(err, perr.KindConversion, op)
	pe.Op = op
	m.report(&pe)
}

// bindingError records a failure returned by the scope in the VM sink,
// whatever policy the scope itself runs.
func (m *VM) bindingError(op string, err error) {
	m.report(perr.Wrap(err, perr.KindBinding, op))
}

func (m *VM) number(op string, v value.Value) (float64, bool) {
	if !m.conv.IsNumber(v) {
		m.typeError(op, "numbers", v)
		return 0, false
	}
	f, err := m.conv.ToNumber(v)
	if err != nil {
		m.conversionError(op, err)
		return 0, false
	}
	return f, true
}

func (m *VM) boolean(op string, v value.Value) bool {
	if !m.conv.IsBoolean(v) {
		m.typeError(op, "booleans", v)
		return false
	}
	b, err := m.conv.ToBoolean(v)
	if err != nil {
		m.conversionError(op, err)
		return false
	}
	return b
}

func (m *VM) integer(op string, v value.Value) (int64, bool) {
	f, ok := m.number(op, v)
	if !ok {
		return 0, false
	}
	i, err := value.NarrowSigned[int64](m.conv.Conversion, f)
	if err != nil {
		m.conversionError(op, err)
		return 0, false
	}
	return i, true
}

// address requires v to already be an Address; names are never coerced
// from strings at run time.
func (m *VM) address(op string, v value.Value) (value.Address, bool) {
	if v.Kind() != value.KindAddress {
		m.typeError(op, "addresses", v)
		return value.Empty, false
	}
	a, err := m.conv.ToAddress(v)
	if err != nil {
		m.conversionError(op, err)
		return value.Empty, false
	}
	return a, true
}

func (m *VM) narrow(op string, target value.Value) (binding.Narrowed, bool) {
	addr, ok := m.address(op, target)
	if !ok {
		return binding.Narrowed{}, false
	}
	if m.scope == nil {
		m.report(perr.New(perr.KindBinding, op, perr.ErrUndefinedMember,
			"no context to resolve %s", addr))
		return binding.Narrowed{}, false
	}
	n, err := m.scope.ConvertAddress(addr)
	if err != nil {
		m.bindingError(op, err)
		return binding.Narrowed{}, false
	}
	return n, true
}

func (m *VM) valueOf(target value.Value) value.Value {
	n, ok := m.narrow("value of", target)
	if !ok {
		return value.Void
	}
	v, err := n.GetValue()
	if err != nil {
		m.bindingError("value of", err)
		return value.Void
	}
	return v
}

func (m *VM) assign(target, v value.Value) {
	n, ok := m.narrow("assign", target)
	if !ok {
		return
	}
	if err := n.SetValue(v); err != nil {
		m.bindingError("assign", err)
	}
}

// invoke pops argc arguments, restores call order, pops the callee address
// and calls it.
func (m *VM) invoke(argc int) value.Value {
	if argc > len(m.stack) {
		m.report(perr.New(perr.KindStructural, "invoke", perr.ErrStackUnderflow,
			"invoke needs %d arguments, stack holds %d", argc, len(m.stack)))
		return value.Void
	}
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = m.pop()
	}
	n, ok := m.narrow("invoke", m.pop())
	if !ok {
		return value.Void
	}
	v, err := n.Invoke(args)
	if err != nil {
		var pe *perr.Error
		if !errors.As(err, &pe) {
			pe = perr.New(perr.KindInvocation, "invoke", err, "%s: %v", n.ID, err)
		}
		m.report(pe)
		return value.Void
	}
	return v
}

// add concatenates when either side is a string and sums otherwise.
func (m *VM) add(left, right value.Value) value.Value {
	if left.Kind() == value.KindString || right.Kind() == value.KindString {
		l, lerr := m.conv.ToString(left)
		r, rerr := m.conv.ToString(right)
		if lerr != nil || rerr != nil {
			bad := left
			if lerr == nil {
				bad = right
			}
			m.typeError("add", "strings", bad)
			return value.String("")
		}
		return value.String(l + r)
	}
	l, lok := m.number("add", left)
	r, rok := m.number("add", right)
	if !lok || !rok {
		return value.Number(0)
	}
	return value.Number(l + r)
}

func (m *VM) arithmetic(op bytecode.Opcode, left, right value.Value) value.Value {
	name := opName(op)
	l, lok := m.number(name, left)
	r, rok := m.number(name, right)
	if !lok || !rok {
		return value.Number(0)
	}
	switch op {
	case bytecode.Subtract:
		return value.Number(l - r)
	case bytecode.Multiply:
		return value.Number(l * r)
	case bytecode.Divide:
		if r == 0 {
			m.report(perr.New(perr.KindArithmetic, name, perr.ErrDivideByZero,
				"%s divided by zero", value.Number(l)))
			return value.Number(0)
		}
		return value.Number(l / r)
	default:
		if r == 0 {
			m.report(perr.New(perr.KindArithmetic, name, perr.ErrDivideByZero,
				"%s modulo zero", value.Number(l)))
			return left
		}
		return value.Number(math.Mod(l, r))
	}
}

func (m *VM) bitwise(op bytecode.Opcode, left, right value.Value) value.Value {
	name := opName(op)
	l, lok := m.integer(name, left)
	r, rok := m.integer(name, right)
	if !lok || !rok {
		return value.Number(0)
	}
	var out int64
	switch op {
	case bytecode.BitAnd:
		out = l & r
	case bytecode.BitOr:
		out = l | r
	case bytecode.BitXor:
		out = l ^ r
	case bytecode.ShiftLeft:
		out = l << (uint64(r) & 63)
	default:
		out = l >> (uint64(r) & 63)
	}
	return value.Number(float64(out))
}

// equal compares same-kind values structurally. Mixed kinds are unequal
// under strong typing; under weak typing a number on either side compares
// numerically and anything else compares by string form. Void only equals
// Void.
func (m *VM) equal(left, right value.Value) bool {
	if left.Kind() == right.Kind() {
		return left.Equal(right)
	}
	if m.conv.Typing == value.Strong || left.IsVoid() || right.IsVoid() {
		return false
	}
	if left.Kind() == value.KindNumber || right.Kind() == value.KindNumber {
		l, lerr := m.conv.ToNumber(left)
		r, rerr := m.conv.ToNumber(right)
		return lerr == nil && rerr == nil && l == r
	}
	return left.String() == right.String()
}

// compare orders two strings lexically and anything else numerically.
func (m *VM) compare(op bytecode.Opcode, left, right value.Value) bool {
	name := opName(op)
	if left.Kind() == value.KindString && right.Kind() == value.KindString {
		c := strings.Compare(left.String(), right.String())
		switch op {
		case bytecode.Less:
			return c < 0
		case bytecode.LessEqual:
			return c <= 0
		case bytecode.Greater:
			return c > 0
		default:
			return c >= 0
		}
	}
	l, lok := m.number(name, left)
	r, rok := m.number(name, right)
	if !lok || !rok {
		return false
	}
	switch op {
	case bytecode.Less:
		return l < r
	case bytecode.LessEqual:
		return l <= r
	case bytecode.Greater:
		return l > r
	default:
		return l >= r
	}
}
