package template

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tlauterbach/potato-eval/pkg/potato/binding"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// dollarPattern matches $name or $a.b.c at the start of the input. The
// trailing \b stops $port from matching a prefix of $portNumber.
var dollarPattern = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\b`)

// Evaluator compiles and evaluates expression text against a scope.
type Evaluator interface {
	Eval(ctx context.Context, src string, scope binding.Context) (value.Value, error)
}

// Expander interpolates expressions into strings.
//
// ${expr} is replaced by the result of evaluating expr. $a.b is replaced by
// the value bound at address a.b. $$ renders a literal dollar sign. A
// placeholder whose evaluation fails or yields undefined is unresolved and
// handled per the MissingAction.
//
// Expander is safe for concurrent use if its Evaluator is.
type Expander struct {
	eval          Evaluator
	missingAction MissingAction
	braceStyle    bool
	dollarStyle   bool
}

// NewExpander creates an Expander. eval may be nil, in which case every
// ${expr} placeholder is unresolved.
func NewExpander(eval Evaluator, opts ...Option) *Expander {
	e := &Expander{
		eval:          eval,
		missingAction: MissingKeep,
		braceStyle:    true,
		dollarStyle:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand interpolates every placeholder in s.
//
// An error is returned only under MissingError, together with the string
// rendered with unresolved placeholders kept.
func (e *Expander) Expand(ctx context.Context, s string, scope binding.Context) (string, error) {
	var (
		out        strings.Builder
		unresolved *UnresolvedError
	)
	for i := 0; i < len(s); {
		c := s[i]
		if c != '$' || i+1 >= len(s) {
			out.WriteByte(c)
			i++
			continue
		}

		switch {
		case s[i+1] == '$':
			out.WriteByte('$')
			i += 2
			continue

		case s[i+1] == '{' && e.braceStyle:
			end := closingBrace(s, i+2)
			if end < 0 {
				out.WriteString(s[i:])
				i = len(s)
				continue
			}
			placeholder := s[i : end+1]
			v, err := e.evaluate(ctx, s[i+2:end], scope)
			e.render(&out, placeholder, v, err, &unresolved)
			i = end + 1
			continue

		case e.dollarStyle:
			if m := dollarPattern.FindStringSubmatchIndex(s[i:]); m != nil {
				placeholder := s[i : i+m[1]]
				v, err := e.lookup(s[i+m[2]:i+m[3]], scope)
				e.render(&out, placeholder, v, err, &unresolved)
				i += m[1]
				continue
			}
		}
		out.WriteByte(c)
		i++
	}

	if unresolved != nil {
		return out.String(), unresolved
	}
	return out.String(), nil
}

// closingBrace returns the index of the } ending a placeholder whose body
// starts at from, skipping braces inside double-quoted string literals.
// The expression language has no single-quoted strings, so an apostrophe
// is an ordinary character.
func closingBrace(s string, from int) int {
	inString := false
	for i := from; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '}':
			return i
		}
	}
	return -1
}

var errNoEvaluator = errors.New("no evaluator configured")

func (e *Expander) evaluate(ctx context.Context, src string, scope binding.Context) (value.Value, error) {
	if e.eval == nil {
		return value.Void, errNoEvaluator
	}
	return e.eval.Eval(ctx, src, scope)
}

func (e *Expander) lookup(path string, scope binding.Context) (value.Value, error) {
	if scope == nil {
		return value.Void, fmt.Errorf("no scope to resolve %s", path)
	}
	addr, err := value.ParseAddress(path)
	if err != nil {
		return value.Void, err
	}
	return binding.Get(scope, addr)
}

func (e *Expander) render(out *strings.Builder, placeholder string, v value.Value, err error, unresolved **UnresolvedError) {
	if err == nil && !v.IsVoid() {
		out.WriteString(v.String())
		return
	}
	switch e.missingAction {
	case MissingEmpty:
		return
	case MissingError:
		if *unresolved == nil {
			*unresolved = &UnresolvedError{}
		}
		(*unresolved).add(placeholder, err)
	}
	out.WriteString(placeholder)
}

// ExpandAll expands every string in ss. Under MissingError it returns nil
// and the first error.
func (e *Expander) ExpandAll(ctx context.Context, ss []string, scope binding.Context) ([]string, error) {
	if ss == nil {
		return nil, nil
	}
	results := make([]string, len(ss))
	for i, s := range ss {
		expanded, err := e.Expand(ctx, s, scope)
		if err != nil {
			return nil, err
		}
		results[i] = expanded
	}
	return results, nil
}

// ExpandMap expands every string value of m, recursing into nested maps.
// Other values are copied as-is.
func (e *Expander) ExpandMap(ctx context.Context, m map[string]any, scope binding.Context) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			expanded, err := e.Expand(ctx, val, scope)
			if err != nil {
				return nil, err
			}
			result[k] = expanded
		case map[string]any:
			expanded, err := e.ExpandMap(ctx, val, scope)
			if err != nil {
				return nil, err
			}
			result[k] = expanded
		default:
			result[k] = v
		}
	}
	return result, nil
}

// UnresolvedError lists placeholders that could not be rendered.
type UnresolvedError struct {
	Placeholders []string
	Errs         []error
}

func (e *UnresolvedError) add(placeholder string, err error) {
	e.Placeholders = append(e.Placeholders, placeholder)
	if err != nil {
		e.Errs = append(e.Errs, err)
	}
}

// Error implements the error interface.
func (e *UnresolvedError) Error() string {
	if len(e.Placeholders) == 1 {
		return fmt.Sprintf("unresolved placeholder: %s", e.Placeholders[0])
	}
	return fmt.Sprintf("unresolved placeholders: %s", strings.Join(e.Placeholders, ", "))
}

// Unwrap returns the evaluation errors behind the unresolved placeholders.
func (e *UnresolvedError) Unwrap() []error {
	return e.Errs
}
