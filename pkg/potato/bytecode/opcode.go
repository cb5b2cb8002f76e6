// Package bytecode defines the compiled form of an expression: fixed-width
// instructions plus an interned string table.
package bytecode

import "fmt"

// Opcode identifies a VM operation.
type Opcode uint8

const (
	// Loads.
	LoadVoid Opcode = iota
	LoadNumber
	LoadBoolean
	LoadString
	LoadIdentifier

	// Binding.
	Access
	ValueOf
	Assign
	Invoke

	// Stack shuffling.
	Duplicate
	PushStorage
	PopStorage

	// Control flow. Payload is a signed offset relative to the next instruction.
	Jump
	JumpIfFalse
	JumpIfFalseOrPop
	JumpIfTrueOrPop

	// Unary.
	Negate
	Not
	Complement

	// Arithmetic.
	Add
	Subtract
	Multiply
	Divide
	Modulo

	// Logical.
	And
	Or

	// Bitwise.
	BitAnd
	BitOr
	BitXor
	ShiftLeft
	ShiftRight

	// Comparison.
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual

	opcodeCount
)

// Operand describes how an instruction payload is interpreted.
type Operand uint8

const (
	OperandNone Operand = iota
	OperandNumber
	OperandBoolean
	OperandString
	OperandCount
	OperandOffset
)

type opcodeInfo struct {
	name    string
	operand Operand
}

var opcodes = [opcodeCount]opcodeInfo{
	LoadVoid:         {"LOAD_VOID", OperandNone},
	LoadNumber:       {"LOAD_NUMBER", OperandNumber},
	LoadBoolean:      {"LOAD_BOOLEAN", OperandBoolean},
	LoadString:       {"LOAD_STRING", OperandString},
	LoadIdentifier:   {"LOAD_IDENTIFIER", OperandString},
	Access:           {"ACCESS", OperandNone},
	ValueOf:          {"VALUE_OF", OperandNone},
	Assign:           {"ASSIGN", OperandNone},
	Invoke:           {"INVOKE", OperandCount},
	Duplicate:        {"DUP", OperandNone},
	PushStorage:      {"PUSH_STORAGE", OperandNone},
	PopStorage:       {"POP_STORAGE", OperandNone},
	Jump:             {"JUMP", OperandOffset},
	JumpIfFalse:      {"JUMP_IF_FALSE", OperandOffset},
	JumpIfFalseOrPop: {"JUMP_IF_FALSE_OR_POP", OperandOffset},
	JumpIfTrueOrPop:  {"JUMP_IF_TRUE_OR_POP", OperandOffset},
	Negate:           {"NEGATE", OperandNone},
	Not:              {"NOT", OperandNone},
	Complement:       {"COMPLEMENT", OperandNone},
	Add:              {"ADD", OperandNone},
	Subtract:         {"SUBTRACT", OperandNone},
	Multiply:         {"MULTIPLY", OperandNone},
	Divide:           {"DIVIDE", OperandNone},
	Modulo:           {"MODULO", OperandNone},
	And:              {"AND", OperandNone},
	Or:               {"OR", OperandNone},
	BitAnd:           {"BIT_AND", OperandNone},
	BitOr:            {"BIT_OR", OperandNone},
	BitXor:           {"BIT_XOR", OperandNone},
	ShiftLeft:        {"SHIFT_LEFT", OperandNone},
	ShiftRight:       {"SHIFT_RIGHT", OperandNone},
	Equal:            {"EQUAL", OperandNone},
	NotEqual:         {"NOT_EQUAL", OperandNone},
	Less:             {"LESS", OperandNone},
	LessEqual:        {"LESS_EQUAL", OperandNone},
	Greater:          {"GREATER", OperandNone},
	GreaterEqual:     {"GREATER_EQUAL", OperandNone},
}

// String returns the mnemonic used by the disassembler.
func (op Opcode) String() string {
	if op < opcodeCount {
		return opcodes[op].name
	}
	return fmt.Sprintf("OP(%d)", uint8(op))
}

// Operand returns how the payload of op is interpreted.
func (op Opcode) Operand() Operand {
	if op < opcodeCount {
		return opcodes[op].operand
	}
	return OperandNone
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	return op < opcodeCount
}

// IsJump reports whether op carries a relative jump offset.
func (op Opcode) IsJump() bool {
	return op.Operand() == OperandOffset
}
