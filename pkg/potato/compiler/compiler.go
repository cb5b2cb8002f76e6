// Package compiler turns expression source into bytecode in a single pass.
//
// Parsing is precedence climbing over two tables of parselets keyed by token
// kind: prefix parselets start an expression, infix parselets continue it and
// carry a binding power. Each parselet emits instructions directly; no syntax
// tree is built.
package compiler

import (
	"log/slog"
	"strconv"

	"github.com/tlauterbach/potato-eval/pkg/potato/bytecode"
	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
	"github.com/tlauterbach/potato-eval/pkg/potato/lexer"
)

// DefaultMaxDepth bounds parselet recursion unless WithMaxDepth overrides it.
const DefaultMaxDepth = 256

// Compiler compiles expressions. A Compiler keeps scratch state between
// calls and is not safe for concurrent use.
type Compiler struct {
	policy   perr.Policy
	logger   *slog.Logger
	maxDepth int

	sink   *perr.Sink
	b      *bytecode.Builder
	tokens []lexer.Token
	pos    int
	depth  int
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithPolicy sets how compile errors are surfaced. Compilation always stops
// at the first error; Silent is treated as Collect because a partially
// compiled block is never usable.
func WithPolicy(p perr.Policy) Option {
	return func(c *Compiler) {
		c.policy = p
	}
}

// WithMaxDepth bounds parselet recursion. Zero or negative disables the
// bound.
func WithMaxDepth(n int) Option {
	return func(c *Compiler) {
		c.maxDepth = n
	}
}

// WithLogger logs every compile error at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// New creates a Compiler. The default policy is Collect.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		policy:   perr.PolicyCollect,
		maxDepth: DefaultMaxDepth,
		b:        bytecode.NewBuilder(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy == perr.PolicySilent {
		c.policy = perr.PolicyCollect
	}
	var sinkOpts []perr.SinkOption
	if c.logger != nil {
		sinkOpts = append(sinkOpts, perr.WithSinkLogger(c.logger))
	}
	c.sink = perr.NewSink(c.policy, sinkOpts...)
	return c
}

// Compile compiles src into an immutable Block. On failure the block is nil
// and the error is the first error (Raise) or an errors.List (Collect).
func (c *Compiler) Compile(src string) (*bytecode.Block, error) {
	c.sink.Reset()
	c.b.Reset()
	c.pos = 0
	c.depth = 0

	tokens, err := lexer.Tokenize(src, c.sink)
	if err != nil {
		return nil, err
	}
	c.tokens = append(tokens, lexer.Token{Kind: lexer.EOF, Pos: len(src)})

	if err := c.parseExpression(precNone); err == nil {
		if tok := c.peek(); tok.Kind != lexer.EOF {
			c.fail(perr.New(perr.KindParse, "parse", perr.ErrUnexpectedToken,
				"unexpected %s after expression", describe(tok)).At(tok.Pos))
		}
	}
	if c.sink.Failed() {
		return nil, c.sink.Err()
	}
	return c.b.Build(src), nil
}

// Compile compiles src with a fresh Compiler.
func Compile(src string, opts ...Option) (*bytecode.Block, error) {
	return New(opts...).Compile(src)
}

func (c *Compiler) parseExpression(min int) error {
	c.depth++
	defer func() { c.depth-- }()
	if c.maxDepth > 0 && c.depth > c.maxDepth {
		tok := c.peek()
		return c.fail(perr.New(perr.KindLimit, "parse", perr.ErrDepthLimit,
			"expression nests deeper than %d", c.maxDepth).At(tok.Pos))
	}

	tok := c.next()
	prefix, ok := prefixRules[tok.Kind]
	if !ok {
		if tok.Kind == lexer.EOF {
			return c.fail(perr.New(perr.KindParse, "parse", perr.ErrUnexpectedEnd,
				"unexpected end of expression").At(tok.Pos))
		}
		return c.fail(perr.New(perr.KindParse, "parse", perr.ErrUnexpectedToken,
			"could not parse %s", describe(tok)).At(tok.Pos))
	}
	if err := prefix(c, tok); err != nil {
		return err
	}

	for min < power(c.peek().Kind) {
		tok = c.next()
		if err := infixRules[tok.Kind].parse(c, tok); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) peek() lexer.Token {
	return c.tokens[c.pos]
}

// next consumes a token. The trailing EOF is never consumed past.
func (c *Compiler) next() lexer.Token {
	tok := c.tokens[c.pos]
	if tok.Kind != lexer.EOF {
		c.pos++
	}
	return tok
}

func (c *Compiler) match(k lexer.Kind) bool {
	if c.peek().Kind != k {
		return false
	}
	c.next()
	return true
}

func (c *Compiler) expect(k lexer.Kind) error {
	tok := c.peek()
	if tok.Kind == k {
		c.next()
		return nil
	}
	cause := perr.ErrUnexpectedToken
	if tok.Kind == lexer.EOF {
		cause = perr.ErrUnexpectedEnd
	}
	return c.fail(perr.New(perr.KindParse, "parse", cause,
		"expected %q but found %s", k.String(), describe(tok)).At(tok.Pos))
}

// fail records err and returns it so the caller unwinds; compilation never
// continues past an error whatever the policy.
func (c *Compiler) fail(err *perr.Error) error {
	_ = c.sink.Report(err)
	return err
}

func (c *Compiler) patch(at int) error {
	if err := c.b.Patch(at); err != nil {
		return c.fail(perr.Wrap(err, perr.KindLimit, "patch"))
	}
	return nil
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.EOF:
		return "end of expression"
	case lexer.Number, lexer.Identifier:
		return tok.Kind.String() + " " + tok.Text
	case lexer.String:
		return "string " + strconv.Quote(tok.Text)
	default:
		return strconv.Quote(tok.Kind.String())
	}
}
