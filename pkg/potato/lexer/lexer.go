package lexer

import (
	"iter"
	"strings"

	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
)

// matcher tries to recognise a token at src[pos:].
// It returns the token and the number of bytes consumed; zero means no match.
type matcher func(src string, pos int) (Token, int, *perr.Error)

// matchers are tried in order and the first match wins, so keywords come
// before identifiers and longer symbols before their prefixes.
var matchers = []matcher{
	matchKeyword,
	matchIdentifier,
	matchNumber,
	matchString,
	matchSymbol,
}

var keywords = []struct {
	text string
	kind Kind
}{
	{"undefined", Undefined},
	{"true", True},
	{"false", False},
}

// symbols is ordered longest first.
var symbols = []struct {
	text string
	kind Kind
}{
	{"<<=", ShlAssign},
	{">>=", ShrAssign},
	{"==", Equal},
	{"!=", NotEqual},
	{">=", GreaterEqual},
	{"<=", LessEqual},
	{"&&", LogicalAnd},
	{"||", LogicalOr},
	{"<<", ShiftLeft},
	{">>", ShiftRight},
	{"+=", AddAssign},
	{"-=", SubAssign},
	{"*=", MulAssign},
	{"/=", DivAssign},
	{"%=", ModAssign},
	{"&=", AndAssign},
	{"|=", OrAssign},
	{"^=", XorAssign},
	{".", Dot},
	{"$", Dollar},
	{"(", LParen},
	{")", RParen},
	{",", Comma},
	{"=", Assign},
	{">", Greater},
	{"<", Less},
	{"!", Bang},
	{"+", Plus},
	{"-", Minus},
	{"*", Star},
	{"/", Slash},
	{"%", Percent},
	{"&", Ampersand},
	{"|", Pipe},
	{"^", Caret},
	{"~", Tilde},
	{"?", Question},
	{":", Colon},
}

// Lexer produces tokens from one source text on demand.
//
// A Lexer is one-shot and not safe for concurrent use; create a new one to
// scan the text again.
type Lexer struct {
	src    string
	pos    int
	sink   *perr.Sink
	done   bool
	failed bool
}

// New creates a Lexer over src that reports failures to sink.
func New(src string, sink *perr.Sink) *Lexer {
	return &Lexer{src: src, sink: sink}
}

// Next returns the next token. The final token of a well formed text is
// EOF; ok is false once the stream has ended, either after EOF or because
// a lexical error was reported.
func (l *Lexer) Next() (tok Token, ok bool) {
	if l.done {
		return Token{Kind: EOF, Pos: len(l.src)}, false
	}
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		l.done = true
		return Token{Kind: EOF, Pos: l.pos}, true
	}
	for _, m := range matchers {
		tok, n, err := m(l.src, l.pos)
		if err != nil {
			l.fail(err)
			return Token{Kind: EOF, Pos: l.pos}, false
		}
		if n > 0 {
			l.pos += n
			return tok, true
		}
	}
	l.fail(perr.New(perr.KindLex, "lex", perr.ErrUnrecognized,
		"unrecognized character %q", l.src[l.pos]).At(l.pos))
	return Token{Kind: EOF, Pos: l.pos}, false
}

// All returns the remaining tokens, excluding EOF, as a lazy sequence.
// The sequence stops early when a lexical error is reported.
func (l *Lexer) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			tok, ok := l.Next()
			if !ok || tok.Kind == EOF {
				return
			}
			if !yield(tok) {
				return
			}
		}
	}
}

// Failed reports whether scanning stopped on an error.
func (l *Lexer) Failed() bool {
	return l.failed
}

func (l *Lexer) fail(err *perr.Error) {
	l.done = true
	l.failed = true
	if l.sink != nil {
		_ = l.sink.Report(err)
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			l.pos++
		default:
			return
		}
	}
}

// Tokenize scans all of src. On failure no tokens are returned, only the
// error recorded by sink (or a fresh collecting sink when sink is nil).
func Tokenize(src string, sink *perr.Sink) ([]Token, error) {
	if sink == nil {
		sink = perr.NewSink(perr.PolicyCollect)
	}
	l := New(src, sink)
	var tokens []Token
	for tok := range l.All() {
		tokens = append(tokens, tok)
	}
	if l.Failed() {
		if err := sink.Err(); err != nil {
			return nil, err
		}
		return nil, perr.New(perr.KindLex, "lex", perr.ErrUnrecognized, "lexing stopped at %d", l.pos).At(l.pos)
	}
	return tokens, nil
}

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func matchKeyword(src string, pos int) (Token, int, *perr.Error) {
	for _, kw := range keywords {
		if !strings.HasPrefix(src[pos:], kw.text) {
			continue
		}
		end := pos + len(kw.text)
		if end < len(src) && (isLetter(src[end]) || isDigit(src[end])) {
			continue
		}
		return Token{Kind: kw.kind, Text: kw.text, Pos: pos}, len(kw.text), nil
	}
	return Token{}, 0, nil
}

func matchIdentifier(src string, pos int) (Token, int, *perr.Error) {
	if !isLetter(src[pos]) {
		return Token{}, 0, nil
	}
	end := pos + 1
	for end < len(src) && (isLetter(src[end]) || isDigit(src[end])) {
		end++
	}
	return Token{Kind: Identifier, Text: src[pos:end], Pos: pos}, end - pos, nil
}

// matchNumber accepts digits with at most one decimal point. A leading
// point is allowed when a digit follows it; a trailing point is left for
// the symbol matcher.
func matchNumber(src string, pos int) (Token, int, *perr.Error) {
	end := pos
	for end < len(src) && isDigit(src[end]) {
		end++
	}
	if end < len(src)-1 && src[end] == '.' && isDigit(src[end+1]) {
		end++
		for end < len(src) && isDigit(src[end]) {
			end++
		}
	}
	if end == pos {
		return Token{}, 0, nil
	}
	return Token{Kind: Number, Text: src[pos:end], Pos: pos}, end - pos, nil
}

// matchString accepts a double-quoted string. A backslash only escapes the
// closing quote; every other backslash is kept verbatim.
func matchString(src string, pos int) (Token, int, *perr.Error) {
	if src[pos] != '"' {
		return Token{}, 0, nil
	}
	var b strings.Builder
	for i := pos + 1; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src) && src[i+1] == '"':
			b.WriteByte('"')
			i++
		case c == '"':
			return Token{Kind: String, Text: b.String(), Pos: pos}, i + 1 - pos, nil
		default:
			b.WriteByte(c)
		}
	}
	return Token{}, 0, perr.New(perr.KindLex, "lex", perr.ErrUnrecognized, "unterminated string").At(pos)
}

func matchSymbol(src string, pos int) (Token, int, *perr.Error) {
	for _, sym := range symbols {
		if strings.HasPrefix(src[pos:], sym.text) {
			return Token{Kind: sym.kind, Text: sym.text, Pos: pos}, len(sym.text), nil
		}
	}
	return Token{}, 0, nil
}
