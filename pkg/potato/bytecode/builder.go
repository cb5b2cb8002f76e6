package bytecode

import (
	"fmt"
	"math"
)

// Builder accumulates instructions for one compilation. It is not safe for
// concurrent use.
type Builder struct {
	code    []Instruction
	strings []string
	index   map[string]uint32
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]uint32)}
}

// Reset clears the builder for reuse.
func (b *Builder) Reset() {
	b.code = b.code[:0]
	b.strings = nil
	clear(b.index)
}

// Len returns the number of instructions emitted so far.
func (b *Builder) Len() int {
	return len(b.code)
}

// At returns the instruction at index i.
func (b *Builder) At(i int) Instruction {
	return b.code[i]
}

// Set overwrites the instruction at index i.
func (b *Builder) Set(i int, ins Instruction) {
	b.code[i] = ins
}

// Emit appends ins and returns its index.
func (b *Builder) Emit(ins Instruction) int {
	b.code = append(b.code, ins)
	return len(b.code) - 1
}

// EmitOp appends an instruction without payload.
func (b *Builder) EmitOp(op Opcode) int {
	return b.Emit(Simple(op))
}

// EmitNumber appends LoadNumber for f.
func (b *Builder) EmitNumber(f float64) int {
	return b.Emit(WithNumber(LoadNumber, f))
}

// EmitBool appends LoadBoolean for v.
func (b *Builder) EmitBool(v bool) int {
	return b.Emit(WithBool(LoadBoolean, v))
}

// EmitString interns s and appends op referencing it.
func (b *Builder) EmitString(op Opcode, s string) int {
	return b.Emit(WithIndex(op, b.Intern(s)))
}

// EmitInvoke appends Invoke with the given argument count.
func (b *Builder) EmitInvoke(argc int) int {
	return b.Emit(WithIndex(Invoke, uint32(argc)))
}

// EmitJump appends a jump with a placeholder offset and returns its index
// for a later Patch.
func (b *Builder) EmitJump(op Opcode) int {
	return b.Emit(WithOffset(op, -1))
}

// Patch points the jump at index at to the next instruction to be emitted.
func (b *Builder) Patch(at int) error {
	if at < 0 || at >= len(b.code) || !b.code[at].Op.IsJump() {
		return fmt.Errorf("bytecode: no jump at %d", at)
	}
	off := len(b.code) - (at + 1)
	if off > math.MaxInt32 {
		return fmt.Errorf("bytecode: jump at %d too large", at)
	}
	b.code[at].Payload = uint32(int32(off))
	return nil
}

// Intern returns the string-table index of s, adding it once.
func (b *Builder) Intern(s string) uint32 {
	if idx, ok := b.index[s]; ok {
		return idx
	}
	idx := uint32(len(b.strings))
	b.strings = append(b.strings, s)
	b.index[s] = idx
	return idx
}

// Build returns an immutable Block holding a copy of the emitted program.
func (b *Builder) Build(source string) *Block {
	code := make([]Instruction, len(b.code))
	copy(code, b.code)
	strs := make([]string, len(b.strings))
	copy(strs, b.strings)
	return &Block{code: code, strings: strs, source: source}
}

// NewBlock assembles a Block directly, mainly for tests and tooling.
func NewBlock(source string, code []Instruction, strings []string) *Block {
	return &Block{
		code:    append([]Instruction(nil), code...),
		strings: append([]string(nil), strings...),
		source:  source,
	}
}
