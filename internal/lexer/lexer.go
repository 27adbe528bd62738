// Package lexer turns source bytes into the flat [token.Token] stream the builder consumes. It
// holds no parsing state beyond the current and next rune, the same shape as a DOT or JSON
// scanner: cur/next rune lookahead, a line counter, and one exported pull method.
package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/bsm/erlfmt/token"
)

// wordOperators are reserved words that behave as operators (§4.3 item 17 joins on them) rather
// than as ordinary call targets, so the lexer reports them as [token.Op] instead of [token.Atom].
var wordOperators = map[string]bool{
	"and": true, "or": true, "not": true, "xor": true,
	"div": true, "rem": true,
	"bnot": true, "band": true, "bor": true, "bxor": true, "bsl": true, "bsr": true,
}

// Lexer tokenizes source text into a stream of [token.Token] values.
type Lexer struct {
	r    *bufio.Reader
	cur  rune
	next rune
	line int
	eof  bool
}

// New creates a lexer reading from r.
func New(r io.Reader) (*Lexer, error) {
	lx := &Lexer{r: bufio.NewReader(r), line: 1}
	if err := lx.readRune(); err != nil {
		return nil, err
	}
	if err := lx.readRune(); err != nil {
		return nil, err
	}
	return lx, nil
}

func (lx *Lexer) readRune() error {
	if lx.eof && lx.cur == 0 {
		return nil
	}
	r, _, err := lx.r.ReadRune()
	if err != nil {
		if err != io.EOF {
			return fmt.Errorf("lexer: read rune: %w", err)
		}
		r = 0
		lx.eof = true
	}
	if lx.cur == '\n' {
		lx.line++
	}
	lx.cur = lx.next
	lx.next = r
	return nil
}

func (lx *Lexer) atEOF() bool { return lx.eof && lx.cur == 0 }

func (lx *Lexer) skipWhitespace() error {
	for !lx.atEOF() && isSpace(lx.cur) {
		if err := lx.readRune(); err != nil {
			return err
		}
	}
	return nil
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\r' || r == '\n' }

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '@'
}

// Next returns the next token in the stream. It returns a [token.EOF] token, with no error, once
// the underlying reader is exhausted.
func (lx *Lexer) Next() (token.Token, error) {
	if err := lx.skipWhitespace(); err != nil {
		return token.Token{}, err
	}
	line := lx.line
	if lx.atEOF() {
		return token.Token{Kind: token.EOF, Line: line}, nil
	}

	switch {
	case lx.cur == '%':
		return lx.lexComment(line)
	case lx.cur == '\'':
		return lx.lexQuoted(line, '\'', token.Atom)
	case lx.cur == '"':
		return lx.lexQuoted(line, '"', token.Str)
	case lx.cur == '$':
		return lx.lexChar(line)
	case unicode.IsDigit(lx.cur):
		return lx.lexNumber(line)
	case unicode.IsUpper(lx.cur) || lx.cur == '_':
		return lx.lexVarOrWildcard(line)
	case unicode.IsLower(lx.cur):
		return lx.lexWordAtom(line)
	default:
		return lx.lexPunct(line)
	}
}

func (lx *Lexer) single(line int, kind token.Kind) (token.Token, error) {
	if err := lx.readRune(); err != nil {
		return token.Token{}, err
	}
	return token.Token{Kind: kind, Line: line}, nil
}

func (lx *Lexer) two(line int, kind token.Kind) (token.Token, error) {
	if err := lx.readRune(); err != nil {
		return token.Token{}, err
	}
	if err := lx.readRune(); err != nil {
		return token.Token{}, err
	}
	return token.Token{Kind: kind, Line: line}, nil
}

func (lx *Lexer) lexPunct(line int) (token.Token, error) {
	switch lx.cur {
	case '(':
		return lx.single(line, token.LParen)
	case ')':
		return lx.single(line, token.RParen)
	case '{':
		return lx.single(line, token.LBrace)
	case '}':
		return lx.single(line, token.RBrace)
	case '[':
		return lx.single(line, token.LBracket)
	case ']':
		return lx.single(line, token.RBracket)
	case ',':
		return lx.single(line, token.Comma)
	case ';':
		return lx.single(line, token.Semicolon)
	case '.':
		return lx.single(line, token.Dot)
	case '#':
		return lx.single(line, token.Hash)
	case '?':
		return lx.single(line, token.Question)
	case '<':
		if lx.next == '<' {
			return lx.two(line, token.DoubleLAngle)
		}
		return lx.lexOpRune(line, "<")
	case '>':
		if lx.next == '>' {
			return lx.two(line, token.DoubleRAngle)
		}
		if lx.next == '=' {
			return lx.lexOpRunes(line, ">=")
		}
		return lx.lexOpRune(line, ">")
	case '-':
		if lx.next == '>' {
			return lx.two(line, token.Arrow)
		}
		return lx.lexOpRune(line, "-")
	case ':':
		if lx.next == ':' {
			return lx.two(line, token.ColonColon)
		}
		return lx.single(line, token.Colon)
	case '|':
		if lx.next == '|' {
			return lx.two(line, token.DoublePipe)
		}
		return lx.single(line, token.Pipe)
	case '/':
		if lx.next == '=' {
			return lx.lexOpRunes(line, "/=")
		}
		return lx.single(line, token.Slash)
	case '=':
		return lx.lexEqual(line)
	default:
		return lx.lexOpRune(line, string(lx.cur))
	}
}

// lexOpRune consumes exactly one rune (already known to be text) and reports it as a generic
// operator: +, *, !, unary -, and anything else §4.3 item 17 joins on with a plain space.
func (lx *Lexer) lexOpRune(line int, text string) (token.Token, error) {
	if err := lx.readRune(); err != nil {
		return token.Token{}, err
	}
	return token.Token{Kind: token.Op, Literal: text, Line: line}, nil
}

func (lx *Lexer) lexOpRunes(line int, text string) (token.Token, error) {
	for range text {
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
	}
	return token.Token{Kind: token.Op, Literal: text, Line: line}, nil
}

// lexEqual disambiguates "=", "==", "=:=", "=/=", "=<", and "=>", the only multi-char operators
// that start with "=".
func (lx *Lexer) lexEqual(line int) (token.Token, error) {
	if err := lx.readRune(); err != nil { // consume '='
		return token.Token{}, err
	}
	switch lx.cur {
	case '=':
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
		return token.Token{Kind: token.EqualEqual, Line: line}, nil
	case '<':
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
		return token.Token{Kind: token.Op, Literal: "=<", Line: line}, nil
	case '>':
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
		return token.Token{Kind: token.Op, Literal: "=>", Line: line}, nil
	case ':':
		if lx.next == '=' {
			if err := lx.readRune(); err != nil {
				return token.Token{}, err
			}
			if err := lx.readRune(); err != nil {
				return token.Token{}, err
			}
			return token.Token{Kind: token.ExactEqual, Line: line}, nil
		}
	case '/':
		if lx.next == '=' {
			if err := lx.readRune(); err != nil {
				return token.Token{}, err
			}
			if err := lx.readRune(); err != nil {
				return token.Token{}, err
			}
			return token.Token{Kind: token.ExactNEqual, Line: line}, nil
		}
	}
	return token.Token{Kind: token.Equal, Line: line}, nil
}

func (lx *Lexer) lexComment(line int) (token.Token, error) {
	var b strings.Builder
	for !lx.atEOF() && lx.cur != '\n' {
		b.WriteRune(lx.cur)
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
	}
	return token.Token{Kind: token.Comment, Literal: b.String(), Line: line}, nil
}

func (lx *Lexer) lexVarOrWildcard(line int) (token.Token, error) {
	var b strings.Builder
	for !lx.atEOF() && isIdentRune(lx.cur) {
		b.WriteRune(lx.cur)
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
	}
	return token.Token{Kind: token.Var, Literal: b.String(), Line: line}, nil
}

func (lx *Lexer) lexWordAtom(line int) (token.Token, error) {
	var b strings.Builder
	for !lx.atEOF() && isIdentRune(lx.cur) {
		b.WriteRune(lx.cur)
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
	}
	text := b.String()
	if kind, ok := token.Lookup(text); ok {
		return token.Token{Kind: kind, Literal: text, Line: line}, nil
	}
	if wordOperators[text] {
		return token.Token{Kind: token.Op, Literal: text, Line: line}, nil
	}
	return token.Token{Kind: token.Atom, Literal: text, Line: line}, nil
}

func (lx *Lexer) lexNumber(line int) (token.Token, error) {
	var b strings.Builder
	isFloat := false
	for !lx.atEOF() && (unicode.IsDigit(lx.cur) || lx.cur == '_') {
		if lx.cur != '_' {
			b.WriteRune(lx.cur)
		}
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
	}
	// Nbase#digits integer literal, e.g. 16#FF.
	if lx.cur == '#' && isIdentRune(lx.next) {
		b.WriteRune('#')
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
		for !lx.atEOF() && isIdentRune(lx.cur) {
			b.WriteRune(lx.cur)
			if err := lx.readRune(); err != nil {
				return token.Token{}, err
			}
		}
		return token.Token{Kind: token.Int, Literal: b.String(), Line: line}, nil
	}
	if lx.cur == '.' && unicode.IsDigit(lx.next) {
		isFloat = true
		b.WriteRune('.')
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
		for !lx.atEOF() && unicode.IsDigit(lx.cur) {
			b.WriteRune(lx.cur)
			if err := lx.readRune(); err != nil {
				return token.Token{}, err
			}
		}
	}
	if lx.cur == 'e' || lx.cur == 'E' {
		isFloat = true
		b.WriteRune(lx.cur)
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
		if lx.cur == '+' || lx.cur == '-' {
			b.WriteRune(lx.cur)
			if err := lx.readRune(); err != nil {
				return token.Token{}, err
			}
		}
		for !lx.atEOF() && unicode.IsDigit(lx.cur) {
			b.WriteRune(lx.cur)
			if err := lx.readRune(); err != nil {
				return token.Token{}, err
			}
		}
	}
	kind := token.Int
	if isFloat {
		kind = token.Float
	}
	return token.Token{Kind: kind, Literal: b.String(), Line: line}, nil
}

func (lx *Lexer) lexQuoted(line int, delim rune, kind token.Kind) (token.Token, error) {
	if err := lx.readRune(); err != nil { // consume opening delimiter
		return token.Token{}, err
	}
	var b strings.Builder
	for !lx.atEOF() && lx.cur != delim {
		if lx.cur == '\\' {
			r, err := lx.readEscape()
			if err != nil {
				return token.Token{}, err
			}
			b.WriteRune(r)
			continue
		}
		b.WriteRune(lx.cur)
		if err := lx.readRune(); err != nil {
			return token.Token{}, err
		}
	}
	if err := lx.readRune(); err != nil { // consume closing delimiter
		return token.Token{}, err
	}
	return token.Token{Kind: kind, Literal: b.String(), Line: line}, nil
}

func (lx *Lexer) lexChar(line int) (token.Token, error) {
	if err := lx.readRune(); err != nil { // consume '$'
		return token.Token{}, err
	}
	if lx.cur == '\\' {
		r, err := lx.readEscape()
		if err != nil {
			return token.Token{}, err
		}
		return token.Token{Kind: token.Char, Literal: string(r), Line: line}, nil
	}
	r := lx.cur
	if err := lx.readRune(); err != nil {
		return token.Token{}, err
	}
	return token.Token{Kind: token.Char, Literal: string(r), Line: line}, nil
}

// readEscape consumes a backslash escape sequence (lx.cur == '\\') and returns the rune it
// decodes to. Named (\n, \t, \s, ...), hex (\xHH or \x{H...}), octal (\DDD) and control (\^C)
// escapes are recognised; any other escaped character passes through unchanged.
func (lx *Lexer) readEscape() (rune, error) {
	if err := lx.readRune(); err != nil { // consume '\\'
		return 0, err
	}
	switch lx.cur {
	case 'n':
		return '\n', lx.readRune()
	case 't':
		return '\t', lx.readRune()
	case 'r':
		return '\r', lx.readRune()
	case 'b':
		return '\b', lx.readRune()
	case 'f':
		return '\f', lx.readRune()
	case 'v':
		return '\v', lx.readRune()
	case 's':
		return ' ', lx.readRune()
	case 'd':
		return 127, lx.readRune()
	case 'e':
		return 27, lx.readRune()
	case '\\', '\'', '"', '$':
		r := lx.cur
		return r, lx.readRune()
	case 'x':
		return lx.readHexEscape()
	case '^':
		if err := lx.readRune(); err != nil {
			return 0, err
		}
		r := unicode.ToUpper(lx.cur) - '@'
		return r, lx.readRune()
	default:
		if unicode.IsDigit(lx.cur) {
			return lx.readOctalEscape()
		}
		r := lx.cur
		return r, lx.readRune()
	}
}

func (lx *Lexer) readHexEscape() (rune, error) {
	if err := lx.readRune(); err != nil { // consume 'x'
		return 0, err
	}
	braced := lx.cur == '{'
	if braced {
		if err := lx.readRune(); err != nil {
			return 0, err
		}
	}
	var v rune
	for isHexDigit(lx.cur) {
		v = v*16 + hexVal(lx.cur)
		if err := lx.readRune(); err != nil {
			return 0, err
		}
	}
	if braced && lx.cur == '}' {
		if err := lx.readRune(); err != nil {
			return 0, err
		}
	} else if !braced && lx.cur == '.' {
		if err := lx.readRune(); err != nil {
			return 0, err
		}
	}
	return v, nil
}

func (lx *Lexer) readOctalEscape() (rune, error) {
	var v rune
	for n := 0; n < 3 && lx.cur >= '0' && lx.cur <= '7'; n++ {
		v = v*8 + (lx.cur - '0')
		if err := lx.readRune(); err != nil {
			return 0, err
		}
	}
	return v, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func hexVal(r rune) rune {
	switch {
	case r >= '0' && r <= '9':
		return r - '0'
	case r >= 'a' && r <= 'f':
		return r - 'a' + 10
	default:
		return r - 'A' + 10
	}
}

// All tokenizes src in full.
func All(r io.Reader) ([]token.Token, error) {
	lx, err := New(r)
	if err != nil {
		return nil, err
	}
	var toks []token.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}
