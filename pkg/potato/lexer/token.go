// Package lexer converts expression source text into tokens.
package lexer

import "fmt"

// Kind identifies a token class.
type Kind int

const (
	// EOF marks the end of the token stream.
	EOF Kind = iota

	// Literals and names.
	Number
	String
	Identifier
	True
	False
	Undefined

	// Punctuation.
	Dot
	Dollar
	LParen
	RParen
	Comma
	Question
	Colon

	// Assignment.
	Assign
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
	AndAssign
	OrAssign
	XorAssign
	ShlAssign
	ShrAssign

	// Comparison.
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual

	// Logical.
	LogicalAnd
	LogicalOr
	Bang

	// Arithmetic.
	Plus
	Minus
	Star
	Slash
	Percent

	// Bitwise.
	Ampersand
	Pipe
	Caret
	Tilde
	ShiftLeft
	ShiftRight
)

var kindNames = map[Kind]string{
	EOF:          "end of expression",
	Number:       "number",
	String:       "string",
	Identifier:   "identifier",
	True:         "true",
	False:        "false",
	Undefined:    "undefined",
	Dot:          ".",
	Dollar:       "$",
	LParen:       "(",
	RParen:       ")",
	Comma:        ",",
	Question:     "?",
	Colon:        ":",
	Assign:       "=",
	AddAssign:    "+=",
	SubAssign:    "-=",
	MulAssign:    "*=",
	DivAssign:    "/=",
	ModAssign:    "%=",
	AndAssign:    "&=",
	OrAssign:     "|=",
	XorAssign:    "^=",
	ShlAssign:    "<<=",
	ShrAssign:    ">>=",
	Equal:        "==",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
	LogicalAnd:   "&&",
	LogicalOr:    "||",
	Bang:         "!",
	Plus:         "+",
	Minus:        "-",
	Star:         "*",
	Slash:        "/",
	Percent:      "%",
	Ampersand:    "&",
	Pipe:         "|",
	Caret:        "^",
	Tilde:        "~",
	ShiftLeft:    "<<",
	ShiftRight:   ">>",
}

// String returns the token class as it appears in error messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is one lexeme with its source offset.
type Token struct {
	Kind Kind
	// Text is the token payload: the digits of a number, the unescaped
	// body of a string, the name of an identifier, or the symbol itself.
	Text string
	// Pos is the byte offset of the first character.
	Pos int
}

// String returns a debugging representation.
func (t Token) String() string {
	switch t.Kind {
	case Number, Identifier:
		return fmt.Sprintf("%s(%s)@%d", t.Kind, t.Text, t.Pos)
	case String:
		return fmt.Sprintf("string(%q)@%d", t.Text, t.Pos)
	default:
		return fmt.Sprintf("%q@%d", t.Kind.String(), t.Pos)
	}
}
