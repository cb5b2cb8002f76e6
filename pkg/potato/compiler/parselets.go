package compiler

import (
	"math"
	"strconv"

	"github.com/tlauterbach/potato-eval/pkg/potato/bytecode"
	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/lexer"
)

func (c *Compiler) number(tok lexer.Token) error {
	f, err := strconv.ParseFloat(tok.Text, 64)
	if err != nil {
		return c.fail(perr.New(perr.KindParse, "parse", err,
			"invalid number %q", tok.Text).At(tok.Pos))
	}
	if math.Abs(f) > math.MaxFloat32 {
		return c.fail(perr.New(perr.KindParse, "parse", perr.ErrOverflow,
			"number %s exceeds single precision", tok.Text).At(tok.Pos))
	}
	c.b.EmitNumber(f)
	return nil
}

func (c *Compiler) str(tok lexer.Token) error {
	c.b.EmitString(bytecode.LoadString, tok.Text)
	return nil
}

// identifier loads the name as an address; resolution happens at run time.
func (c *Compiler) identifier(tok lexer.Token) error {
	c.b.EmitString(bytecode.LoadIdentifier, tok.Text)
	return nil
}

func (c *Compiler) boolean(tok lexer.Token) error {
	c.b.EmitBool(tok.Kind == lexer.True)
	return nil
}

func (c *Compiler) undefined(lexer.Token) error {
	c.b.EmitOp(bytecode.LoadVoid)
	return nil
}

func (c *Compiler) group(lexer.Token) error {
	if err := c.parseExpression(precNone); err != nil {
		return err
	}
	return c.expect(lexer.RParen)
}

// unary emits its operand then op. Minus on a number literal and ! on a
// boolean literal are folded into the literal.
func unary(op bytecode.Opcode) prefixFn {
	return func(c *Compiler, _ lexer.Token) error {
		start := c.b.Len()
		if err := c.parseExpression(rightAssoc(precUnary)); err != nil {
			return err
		}
		if c.b.Len() == start+1 {
			last := c.b.At(start)
			switch {
			case op == bytecode.Negate && last.Op == bytecode.LoadNumber:
				c.b.Set(start, bytecode.WithNumber(bytecode.LoadNumber, -last.Number()))
				return nil
			case op == bytecode.Not && last.Op == bytecode.LoadBoolean:
				c.b.Set(start, bytecode.WithBool(bytecode.LoadBoolean, !last.Bool()))
				return nil
			}
		}
		c.b.EmitOp(op)
		return nil
	}
}

// binary emits the right operand then op; the left operand is already on
// the stack.
func binary(op bytecode.Opcode, power int) infixFn {
	return func(c *Compiler, _ lexer.Token) error {
		if err := c.parseExpression(power); err != nil {
			return err
		}
		c.b.EmitOp(op)
		return nil
	}
}

// logical emits a short-circuiting && or ||:
//
//	<left> DUP JUMP_IF_x_OR_POP end <right> end: op
//
// When the jump is taken the duplicated left value stays on the stack and
// becomes both operands of op.
func logical(jump, op bytecode.Opcode, power int) infixFn {
	return func(c *Compiler, _ lexer.Token) error {
		c.b.EmitOp(bytecode.Duplicate)
		at := c.b.EmitJump(jump)
		if err := c.parseExpression(power); err != nil {
			return err
		}
		if err := c.patch(at); err != nil {
			return err
		}
		c.b.EmitOp(op)
		return nil
	}
}

// conditional emits cond ? a : b.
//
//	<cond> JUMP_IF_FALSE else <a> JUMP end else: <b> end:
func (c *Compiler) conditional(lexer.Token) error {
	elseJump := c.b.EmitJump(bytecode.JumpIfFalse)
	if err := c.parseExpression(precNone); err != nil {
		return err
	}
	if err := c.expect(lexer.Colon); err != nil {
		return err
	}
	endJump := c.b.EmitJump(bytecode.Jump)
	if err := c.patch(elseJump); err != nil {
		return err
	}
	if err := c.parseExpression(rightAssoc(precConditional)); err != nil {
		return err
	}
	return c.patch(endJump)
}

func (c *Compiler) assign(lexer.Token) error {
	if err := c.parseExpression(rightAssoc(precAssign)); err != nil {
		return err
	}
	c.b.EmitOp(bytecode.Assign)
	return nil
}

// compound emits a op= b as fetch, combine and store:
//
//	<a> <b> PUSH_STORAGE DUP VALUE_OF POP_STORAGE op ASSIGN
func compound(op bytecode.Opcode) infixFn {
	return func(c *Compiler, _ lexer.Token) error {
		if err := c.parseExpression(rightAssoc(precAssign)); err != nil {
			return err
		}
		c.b.EmitOp(bytecode.PushStorage)
		c.b.EmitOp(bytecode.Duplicate)
		c.b.EmitOp(bytecode.ValueOf)
		c.b.EmitOp(bytecode.PopStorage)
		c.b.EmitOp(op)
		c.b.EmitOp(bytecode.Assign)
		return nil
	}
}

// call emits the arguments left to right then INVOKE argc. The callee
// address is already on the stack.
func (c *Compiler) call(lexer.Token) error {
	argc := 0
	if !c.match(lexer.RParen) {
		for {
			if err := c.parseExpression(precNone); err != nil {
				return err
			}
			argc++
			if !c.match(lexer.Comma) {
				break
			}
		}
		if err := c.expect(lexer.RParen); err != nil {
			return err
		}
	}
	c.b.EmitInvoke(argc)
	return nil
}
