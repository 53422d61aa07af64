package lex

import (
	"fmt"
	"strconv"
	"strings"

	"tlog.app/go/errors"
)

type (
	Kind int

	Token struct {
		Kind Kind
		Text string

		Line int
		Pos  int // byte offset
	}

	// Error reports a character no token starts with.
	Error struct {
		Char rune
		Line int
		Pos  int
	}
)

const (
	EOF Kind = iota

	NAME
	NUMBER
	FLOAT
	STRING

	IF
	ELSE
	DEF
	RETURN
	WHILE
	UNTIL
	BREAK
	CONTINUE

	PLUS
	MINUS
	TIMES
	DIVIDE
	MOD
	LSHIFT
	RSHIFT
	LT
	LE
	GT
	GE
	EQEQ
	NE
	AND
	OR
	XOR
	EQ

	LPAREN
	RPAREN
	LBRACE
	RBRACE
	COLON
	COMMA
	SEMI
)

var kindNames = [...]string{
	EOF:      "EOF",
	NAME:     "NAME",
	NUMBER:   "NUMBER",
	FLOAT:    "FLOAT",
	STRING:   "STRING",
	IF:       "IF",
	ELSE:     "ELSE",
	DEF:      "DEF",
	RETURN:   "RETURN",
	WHILE:    "WHILE",
	UNTIL:    "UNTIL",
	BREAK:    "BREAK",
	CONTINUE: "CONTINUE",
	PLUS:     "+",
	MINUS:    "-",
	TIMES:    "*",
	DIVIDE:   "/",
	MOD:      "%",
	LSHIFT:   "<<",
	RSHIFT:   ">>",
	LT:       "<",
	LE:       "<=",
	GT:       ">",
	GE:       ">=",
	EQEQ:     "==",
	NE:       "!=",
	AND:      "&",
	OR:       "|",
	XOR:      "^",
	EQ:       "=",
	LPAREN:   "(",
	RPAREN:   ")",
	LBRACE:   "{",
	RBRACE:   "}",
	COLON:    ":",
	COMMA:    ",",
	SEMI:     ";",
}

var keywords = map[string]Kind{
	"if":       IF,
	"else":     ELSE,
	"def":      DEF,
	"return":   RETURN,
	"while":    WHILE,
	"until":    UNTIL,
	"break":    BREAK,
	"continue": CONTINUE,
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

// Int decodes a NUMBER token: hex, binary, octal or decimal with optional '_' separators.
func (t Token) Int() (int64, error) {
	if t.Kind != NUMBER {
		return 0, errors.New("not a number: %v", t.Kind)
	}

	v, err := strconv.ParseInt(t.Text, 0, 64)
	if err != nil {
		return 0, errors.Wrap(err, "number %q", t.Text)
	}

	return v, nil
}

func (t Token) Float() (float64, error) {
	if t.Kind != FLOAT {
		return 0, errors.New("not a float: %v", t.Kind)
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(t.Text, "_", ""), 64)
	if err != nil {
		return 0, errors.Wrap(err, "float %q", t.Text)
	}

	return v, nil
}

func (t Token) String() string {
	switch t.Kind {
	case NAME, NUMBER, FLOAT, STRING:
		return fmt.Sprintf("%v %s", t.Kind, t.Text)
	case EOF:
		return "EOF"
	default:
		return fmt.Sprintf("%q", t.Text)
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("illegal character %q at line %d, index %d", e.Char, e.Line, e.Pos)
}
