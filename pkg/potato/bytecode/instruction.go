package bytecode

import (
	"fmt"
	"math"
)

// Instruction is one fixed 8-byte VM instruction: an opcode, three bytes of
// zero padding and a 32-bit payload.
//
// Numeric literals are stored as single-precision floats. The VM computes
// in double precision, so a literal such as 0.1 is widened from its float32
// value rather than parsed exactly.
type Instruction struct {
	Op      Opcode
	_       [3]byte
	Payload uint32
}

// Simple returns an instruction without a payload.
func Simple(op Opcode) Instruction {
	return Instruction{Op: op}
}

// WithNumber returns an instruction carrying f narrowed to float32.
func WithNumber(op Opcode, f float64) Instruction {
	return Instruction{Op: op, Payload: math.Float32bits(float32(f))}
}

// WithBool returns an instruction carrying b as 0 or 1.
func WithBool(op Opcode, b bool) Instruction {
	var p uint32
	if b {
		p = 1
	}
	return Instruction{Op: op, Payload: p}
}

// WithIndex returns an instruction carrying an unsigned index or count.
func WithIndex(op Opcode, idx uint32) Instruction {
	return Instruction{Op: op, Payload: idx}
}

// WithOffset returns an instruction carrying a signed relative offset.
func WithOffset(op Opcode, off int32) Instruction {
	return Instruction{Op: op, Payload: uint32(off)}
}

// Number decodes a numeric literal payload.
func (i Instruction) Number() float64 {
	return float64(math.Float32frombits(i.Payload))
}

// Bool decodes a boolean payload.
func (i Instruction) Bool() bool {
	return i.Payload != 0
}

// Index decodes a string-table index or argument count.
func (i Instruction) Index() int {
	return int(i.Payload)
}

// Offset decodes a signed jump offset.
func (i Instruction) Offset() int {
	return int(int32(i.Payload))
}

// String formats the instruction without resolving string-table entries.
func (i Instruction) String() string {
	switch i.Op.Operand() {
	case OperandNumber:
		return fmt.Sprintf("%s %g", i.Op, i.Number())
	case OperandBoolean:
		return fmt.Sprintf("%s %t", i.Op, i.Bool())
	case OperandString:
		return fmt.Sprintf("%s #%d", i.Op, i.Index())
	case OperandCount:
		return fmt.Sprintf("%s %d", i.Op, i.Index())
	case OperandOffset:
		return fmt.Sprintf("%s %+d", i.Op, i.Offset())
	default:
		return i.Op.String()
	}
}
