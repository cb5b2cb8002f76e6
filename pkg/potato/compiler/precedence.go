package compiler

import (
	"github.com/tlauterbach/potato-eval/pkg/potato/bytecode"
	"github.com/tlauterbach/potato-eval/pkg/potato/lexer"
)

// Binding powers, lowest first.
const (
	precNone = iota
	precAssign
	precConditional
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

type prefixFn func(c *Compiler, tok lexer.Token) error

type infixFn func(c *Compiler, tok lexer.Token) error

type infixRule struct {
	power int
	parse infixFn
}

var prefixRules map[lexer.Kind]prefixFn

var infixRules map[lexer.Kind]infixRule

func init() {
	prefixRules = map[lexer.Kind]prefixFn{
		lexer.Number:     (*Compiler).number,
		lexer.String:     (*Compiler).str,
		lexer.Identifier: (*Compiler).identifier,
		lexer.True:       (*Compiler).boolean,
		lexer.False:      (*Compiler).boolean,
		lexer.Undefined:  (*Compiler).undefined,
		lexer.LParen:     (*Compiler).group,
		lexer.Bang:       unary(bytecode.Not),
		lexer.Minus:      unary(bytecode.Negate),
		lexer.Tilde:      unary(bytecode.Complement),
		lexer.Dollar:     unary(bytecode.ValueOf),
	}

	infixRules = map[lexer.Kind]infixRule{
		lexer.Assign:       {precAssign, (*Compiler).assign},
		lexer.AddAssign:    {precAssign, compound(bytecode.Add)},
		lexer.SubAssign:    {precAssign, compound(bytecode.Subtract)},
		lexer.MulAssign:    {precAssign, compound(bytecode.Multiply)},
		lexer.DivAssign:    {precAssign, compound(bytecode.Divide)},
		lexer.ModAssign:    {precAssign, compound(bytecode.Modulo)},
		lexer.AndAssign:    {precAssign, compound(bytecode.BitAnd)},
		lexer.OrAssign:     {precAssign, compound(bytecode.BitOr)},
		lexer.XorAssign:    {precAssign, compound(bytecode.BitXor)},
		lexer.ShlAssign:    {precAssign, compound(bytecode.ShiftLeft)},
		lexer.ShrAssign:    {precAssign, compound(bytecode.ShiftRight)},
		lexer.Question:     {precConditional, (*Compiler).conditional},
		lexer.LogicalOr:    {precOr, logical(bytecode.JumpIfTrueOrPop, bytecode.Or, precOr)},
		lexer.LogicalAnd:   {precAnd, logical(bytecode.JumpIfFalseOrPop, bytecode.And, precAnd)},
		lexer.Pipe:         {precBitOr, binary(bytecode.BitOr, precBitOr)},
		lexer.Caret:        {precBitXor, binary(bytecode.BitXor, precBitXor)},
		lexer.Ampersand:    {precBitAnd, binary(bytecode.BitAnd, precBitAnd)},
		lexer.Equal:        {precEquality, binary(bytecode.Equal, precEquality)},
		lexer.NotEqual:     {precEquality, binary(bytecode.NotEqual, precEquality)},
		lexer.Less:         {precRelational, binary(bytecode.Less, precRelational)},
		lexer.LessEqual:    {precRelational, binary(bytecode.LessEqual, precRelational)},
		lexer.Greater:      {precRelational, binary(bytecode.Greater, precRelational)},
		lexer.GreaterEqual: {precRelational, binary(bytecode.GreaterEqual, precRelational)},
		lexer.ShiftLeft:    {precShift, binary(bytecode.ShiftLeft, precShift)},
		lexer.ShiftRight:   {precShift, binary(bytecode.ShiftRight, precShift)},
		lexer.Plus:         {precAdditive, binary(bytecode.Add, precAdditive)},
		lexer.Minus:        {precAdditive, binary(bytecode.Subtract, precAdditive)},
		lexer.Star:         {precMultiplicative, binary(bytecode.Multiply, precMultiplicative)},
		lexer.Slash:        {precMultiplicative, binary(bytecode.Divide, precMultiplicative)},
		lexer.Percent:      {precMultiplicative, binary(bytecode.Modulo, precMultiplicative)},
		lexer.Dot:          {precPostfix, binary(bytecode.Access, precPostfix)},
		lexer.LParen:       {precPostfix, (*Compiler).call},
	}
}

// rightAssoc returns the power passed to the right operand of a
// right-associative operator.
func rightAssoc(power int) int {
	return power - 1
}

// power returns the binding power of k in infix position, zero if k cannot
// continue an expression.
func power(k lexer.Kind) int {
	if r, ok := infixRules[k]; ok {
		return r.power
	}
	return precNone
}
