package lex

import (
	"bytes"
	"context"
	"unicode/utf8"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"
)

type (
	lexer struct {
		b    []byte
		line int
	}
)

// Lex splits src into tokens. The last token is always EOF.
// The first illegal character aborts lexing and no tokens are returned.
func Lex(ctx context.Context, src []byte) (toks []Token, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lex", "size", len(src))
	defer tr.Finish("err", &err)

	l := &lexer{
		b:    src,
		line: 1,
	}

	for i := 0; ; {
		var t Token

		t, i, err = l.next(ctx, i)
		if err != nil {
			return nil, err
		}

		toks = append(toks, t)

		if t.Kind == EOF {
			tr.Printw("tokens", "n", len(toks), "lines", l.line)

			return toks, nil
		}
	}
}

func (l *lexer) next(ctx context.Context, st int) (t Token, i int, err error) {
	if tr := tlog.SpanFromContext(ctx); tr.If("lex_token") {
		defer func(st int) {
			tr.Printw("next token", "st", st, "tok", t, "i", i, "from", loc.Callers(1, 3))
		}(st)
	}

	b := l.b

	i = l.skipSpaces(st)

	if i == len(b) {
		return Token{Kind: EOF, Line: l.line, Pos: i}, i, nil
	}

	tok := func(k Kind, end int) (Token, int, error) {
		return Token{Kind: k, Text: string(b[i:end]), Line: l.line, Pos: i}, end, nil
	}

	c := b[i]

	switch {
	case isDigit(c) || c == '.' && i+1 < len(b) && isDigit(b[i+1]):
		if e := scanFloat(b, i); e > i {
			return tok(FLOAT, e)
		}

		return tok(NUMBER, scanNumber(b, i))
	case isIdentStart(c):
		e := skipIdent(b, i+1)

		if k, ok := keywords[string(b[i:e])]; ok {
			return tok(k, e)
		}

		return tok(NAME, e)
	case c == '"' || c == '\'':
		e := bytes.IndexByte(b[i+1:], c)
		if e >= 0 && bytes.IndexByte(b[i+1:i+1+e], '\n') < 0 {
			return tok(STRING, i+1+e+1)
		}
	}

	if i+1 < len(b) {
		var k Kind

		switch string(b[i : i+2]) {
		case "<<":
			k = LSHIFT
		case ">>":
			k = RSHIFT
		case "<=":
			k = LE
		case ">=":
			k = GE
		case "==":
			k = EQEQ
		case "!=":
			k = NE
		}

		if k != EOF {
			return tok(k, i+2)
		}
	}

	var k Kind

	switch c {
	case '+':
		k = PLUS
	case '-':
		k = MINUS
	case '*':
		k = TIMES
	case '/':
		k = DIVIDE
	case '%':
		k = MOD
	case '<':
		k = LT
	case '>':
		k = GT
	case '=':
		k = EQ
	case '&':
		k = AND
	case '|':
		k = OR
	case '^':
		k = XOR
	case '(':
		k = LPAREN
	case ')':
		k = RPAREN
	case '{':
		k = LBRACE
	case '}':
		k = RBRACE
	case ':':
		k = COLON
	case ',':
		k = COMMA
	case ';':
		k = SEMI
	default:
		r, _ := utf8.DecodeRune(b[i:])

		return Token{}, i, &Error{Char: r, Line: l.line, Pos: i}
	}

	return tok(k, i+1)
}

// skipSpaces skips whitespace and comments, counting lines.
func (l *lexer) skipSpaces(i int) int {
	b := l.b

	for i < len(b) {
		switch c := b[i]; {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '\n':
			l.line++
			i++
		case c == '#':
			i = skipLine(b, i)
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			i = skipLine(b, i)
		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			e := bytes.Index(b[i+2:], []byte("*/"))
			if e < 0 {
				return i // not a comment: '/' and '*' tokens
			}

			e += i + 4

			l.line += bytes.Count(b[i:e], []byte{'\n'})
			i = e
		default:
			return i
		}
	}

	return i
}

// scanFloat returns the end of a point-float or exponent-float starting at i, or i.
func scanFloat(b []byte, i int) int {
	e := digits(b, i, isDigit)

	if e < len(b) && b[e] == '.' {
		if e == i {
			f := digits(b, e+1, isDigit)
			if f == e+1 {
				return i
			}

			e = f
		} else {
			e = digits(b, e+1, isDigit)
		}

		return exponent(b, e)
	}

	if e == i {
		return i
	}

	if x := exponent(b, e); x > e {
		return x
	}

	return i
}

func exponent(b []byte, i int) int {
	if i == len(b) || b[i] != 'e' && b[i] != 'E' {
		return i
	}

	j := i + 1
	if j < len(b) && (b[j] == '+' || b[j] == '-') {
		j++
	}

	e := digits(b, j, isDigit)
	if e == j {
		return i
	}

	return e
}

// scanNumber scans hex, binary, octal and decimal integers in that order.
func scanNumber(b []byte, i int) int {
	if b[i] == '0' && i+1 < len(b) {
		var pred func(byte) bool

		switch b[i+1] {
		case 'x', 'X':
			pred = isHex
		case 'b', 'B':
			pred = isBin
		case 'o', 'O':
			pred = isOct
		}

		if pred != nil {
			if e := prefixed(b, i+2, pred); e > i+2 {
				return e
			}
		}
	}

	if b[i] != '0' {
		return digits(b, i, isDigit)
	}

	i++

	for i < len(b) {
		switch {
		case b[i] == '0':
			i++
		case b[i] == '_' && i+1 < len(b) && b[i+1] == '0':
			i += 2
		default:
			return i
		}
	}

	return i
}

// digits matches d(_?d)*.
func digits(b []byte, i int, pred func(byte) bool) int {
	if i == len(b) || !pred(b[i]) {
		return i
	}

	return prefixed(b, i+1, pred)
}

// prefixed matches (_?d)*.
func prefixed(b []byte, i int, pred func(byte) bool) int {
	for {
		j := i
		if j < len(b) && b[j] == '_' {
			j++
		}

		if j == len(b) || !pred(b[j]) {
			return i
		}

		i = j + 1
	}
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && (isIdentStart(b[i]) || isDigit(b[i])) {
		i++
	}

	return i
}

func skipLine(b []byte, i int) int {
	for i < len(b) && b[i] != '\n' {
		i++
	}

	return i
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isOct(c byte) bool   { return c >= '0' && c <= '7' }
func isBin(c byte) bool   { return c == '0' || c == '1' }

func isHex(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
