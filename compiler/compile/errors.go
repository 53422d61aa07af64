package compile

import (
	"strconv"

	"github.com/plang/plang/compiler/ast"
	"github.com/plang/plang/compiler/tp"
)

type (
	UndefinedSymbolError struct {
		Name string
		Pos  ast.Pos
	}

	// UnsupportedOperandsError is an operator applied to types it has no lowering for.
	UnsupportedOperandsError struct {
		Op   string
		L, R tp.Type
		Pos  ast.Pos
	}

	TypeMismatchError struct {
		What string // return, assignment, condition, argument
		Name string

		Want tp.Type
		Got  tp.Type

		Pos ast.Pos
	}

	// Error is any other compile-time diagnostic.
	Error struct {
		Msg string
		Pos ast.Pos
	}
)

func (e *UndefinedSymbolError) Error() string {
	return "undefined symbol: " + e.Name + atLine(e.Pos)
}

func (e *UnsupportedOperandsError) Error() string {
	return "unsupported operands for " + e.Op + ": " + tp.Name(e.L) + " and " + tp.Name(e.R) + atLine(e.Pos)
}

func (e *TypeMismatchError) Error() string {
	msg := e.What + " type mismatch"

	if e.Name != "" {
		msg += " for " + e.Name
	}

	return msg + ": want " + tp.Name(e.Want) + ", got " + tp.Name(e.Got) + atLine(e.Pos)
}

func (e *Error) Error() string {
	return e.Msg + atLine(e.Pos)
}

func newError(pos ast.Pos, msg string) *Error {
	return &Error{Msg: msg, Pos: pos}
}

func atLine(p ast.Pos) string {
	if p.Line == 0 {
		return ""
	}

	return " at line " + strconv.Itoa(p.Line)
}
