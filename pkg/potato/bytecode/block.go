package bytecode

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"unsafe"
)

// InstructionSize is the encoded width of one Instruction in bytes.
const InstructionSize = int(unsafe.Sizeof(Instruction{}))

// Block is an immutable compiled expression. It holds no reference to any
// binding context and may be evaluated concurrently by independent VMs.
type Block struct {
	code    []Instruction
	strings []string
	source  string
}

// Len returns the number of instructions.
func (b *Block) Len() int {
	return len(b.code)
}

// At returns the instruction at index i.
func (b *Block) At(i int) Instruction {
	return b.code[i]
}

// Str returns the interned string at index i.
func (b *Block) Str(i int) (string, bool) {
	if i < 0 || i >= len(b.strings) {
		return "", false
	}
	return b.strings[i], true
}

// Strings returns a copy of the string table.
func (b *Block) Strings() []string {
	return slices.Clone(b.strings)
}

// Instructions returns a copy of the instruction array.
func (b *Block) Instructions() []Instruction {
	return slices.Clone(b.code)
}

// Source returns the text the block was compiled from.
func (b *Block) Source() string {
	return b.source
}

// Size returns the approximate in-memory footprint in bytes: the encoded
// instructions plus the string table payloads.
func (b *Block) Size() int {
	n := len(b.code) * InstructionSize
	for _, s := range b.strings {
		n += len(s)
	}
	return n
}

// Disassemble writes one line per instruction: index, mnemonic and the
// decoded operand. String operands are resolved, jump operands show their
// absolute target.
func (b *Block) Disassemble(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, ins := range b.code {
		fmt.Fprintf(bw, "%04d  %-22s", i, ins.Op)
		switch ins.Op.Operand() {
		case OperandNumber:
			fmt.Fprintf(bw, "%g", ins.Number())
		case OperandBoolean:
			fmt.Fprintf(bw, "%t", ins.Bool())
		case OperandString:
			s, ok := b.Str(ins.Index())
			if ok {
				fmt.Fprintf(bw, "#%d %q", ins.Index(), s)
			} else {
				fmt.Fprintf(bw, "#%d <invalid>", ins.Index())
			}
		case OperandCount:
			fmt.Fprintf(bw, "argc=%d", ins.Index())
		case OperandOffset:
			fmt.Fprintf(bw, "%+d -> %04d", ins.Offset(), i+1+ins.Offset())
		}
		bw.WriteByte('\n')
	}
	if len(b.strings) > 0 {
		fmt.Fprintf(bw, "strings:\n")
		for i, s := range b.strings {
			fmt.Fprintf(bw, "  #%d %q\n", i, s)
		}
	}
	return bw.Flush()
}
