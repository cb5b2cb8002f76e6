// Package errors provides the error taxonomy and the reporting sink shared by
// every stage of the expression pipeline.
//
// The package implements a layered approach:
//   - Classification: every failure carries a Kind (lex, parse, binding, ...)
//   - Reporting: stages report failures to a Sink instead of returning early
//   - Policy: the Sink decides whether a report raises, is collected, or is dropped
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error by the stage or rule that produced it.
type Kind int

const (
	// KindLex indicates an unrecognized character or malformed literal.
	KindLex Kind = iota

	// KindParse indicates an unexpected or missing token.
	KindParse

	// KindBinding indicates an undefined member, a member of the wrong kind,
	// a duplicate declaration, or an empty address dereference.
	KindBinding

	// KindType indicates an operand of the wrong value kind for an opcode.
	KindType

	// KindConversion indicates a checked narrowing overflow or an
	// unparseable weak coercion.
	KindConversion

	// KindArithmetic indicates division or modulo by zero.
	// Arithmetic errors substitute a value and are never fatal by themselves.
	KindArithmetic

	// KindStructural indicates the expression did not reduce to one value.
	KindStructural

	// KindInvocation indicates a host function returned an error.
	KindInvocation

	// KindLimit indicates a configured step or nesting limit was exceeded.
	KindLimit
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lex"
	case KindParse:
		return "parse"
	case KindBinding:
		return "binding"
	case KindType:
		return "type"
	case KindConversion:
		return "conversion"
	case KindArithmetic:
		return "arithmetic"
	case KindStructural:
		return "structural"
	case KindInvocation:
		return "invocation"
	case KindLimit:
		return "limit"
	default:
		return "unknown"
	}
}

// Sentinel errors wrapped by Error.Err so callers can use errors.Is.
var (
	// ErrUnrecognized indicates the lexer found no matching token pattern.
	ErrUnrecognized = errors.New("unrecognized character")

	// ErrUnexpectedToken indicates the parser found a token it cannot use here.
	ErrUnexpectedToken = errors.New("unexpected token")

	// ErrUnexpectedEnd indicates the token stream ended prematurely.
	ErrUnexpectedEnd = errors.New("unexpected end of expression")

	// ErrUndefinedMember indicates a name with no binding in its context.
	ErrUndefinedMember = errors.New("undefined member")

	// ErrUnsupported indicates the member kind does not allow the operation.
	ErrUnsupported = errors.New("operation not supported by member")

	// ErrMemberExists indicates a declaration collided with an existing binding.
	ErrMemberExists = errors.New("member already exists")

	// ErrEmptyAddress indicates an attempt to resolve Address.Empty.
	ErrEmptyAddress = errors.New("empty address")

	// ErrOperandKind indicates an operand of the wrong value kind.
	ErrOperandKind = errors.New("wrong operand kind")

	// ErrOverflow indicates a checked narrowing conversion overflowed.
	ErrOverflow = errors.New("numeric overflow")

	// ErrNotConvertible indicates a value could not be coerced to the target kind.
	ErrNotConvertible = errors.New("value not convertible")

	// ErrDivideByZero indicates division or modulo by zero.
	ErrDivideByZero = errors.New("division by zero")

	// ErrMissingOperators indicates more than one value remained after execution.
	ErrMissingOperators = errors.New("missing operators")

	// ErrStackUnderflow indicates malformed bytecode popped an empty stack.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrInvalidProgram indicates bytecode the evaluator cannot execute,
	// such as an unknown opcode or a jump outside the program.
	ErrInvalidProgram = errors.New("invalid program")

	// ErrStepLimit indicates the evaluator exceeded its instruction budget.
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrDepthLimit indicates the compiler exceeded its nesting budget.
	ErrDepthLimit = errors.New("nesting limit exceeded")
)

// Error is a classified pipeline error.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Op names the operation that failed (e.g. "lex", "add", "get").
	Op string

	// Pos is the byte offset in the source text, or -1 when unknown.
	Pos int

	// Message is a human readable description.
	Message string

	// Err is the underlying sentinel or host error.
	Err error
}

// New creates an Error with an unknown position.
func New(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Pos:     -1,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// At returns a copy of e positioned at pos.
func (e *Error) At(pos int) *Error {
	cp := *e
	cp.Pos = pos
	return &cp
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Pos >= 0 {
		fmt.Fprintf(&b, " at %d", e.Pos)
	}
	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	if e.Message != "" {
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify returns the Kind of err, and false when err carries no *Error.
func Classify(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Wrap converts an arbitrary error into an *Error of the given kind,
// returning err unchanged when it already is one.
func Wrap(err error, kind Kind, op string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: kind, Op: op, Pos: -1, Message: err.Error(), Err: err}
}
