package parse

import (
	"context"
	"math"

	"github.com/plang/plang/compiler/ast"
	"github.com/plang/plang/compiler/lex"
)

const nonassoc = 1

// precedence from lowest to highest. Level 1 operators don't chain.
// & binds tighter than comparisons so x & 1 == 0 tests the masked value.
var precedence = map[lex.Kind]int{
	lex.NE:   nonassoc,
	lex.LT:   nonassoc,
	lex.LE:   nonassoc,
	lex.GT:   nonassoc,
	lex.GE:   nonassoc,
	lex.EQEQ: nonassoc,
	lex.XOR:  nonassoc,
	lex.OR:   nonassoc,

	lex.AND: 2,

	lex.PLUS:  3,
	lex.MINUS: 3,

	lex.TIMES:  4,
	lex.DIVIDE: 4,
	lex.MOD:    4,

	lex.LSHIFT: 5,
	lex.RSHIFT: 5,
}

var operandStart = []lex.Kind{lex.NAME, lex.NUMBER, lex.FLOAT, lex.STRING, lex.LPAREN, lex.MINUS}

func (p *Parser) parseExpr(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	return p.parseBinary(ctx, st, nonassoc)
}

func (p *Parser) parseBinary(ctx context.Context, st, min int) (x ast.Expr, i int, err error) {
	x, i, err = p.parseOperand(ctx, st)
	if err != nil {
		return
	}

	for {
		op := p.tok(i)

		prec, ok := precedence[op.Kind]
		if !ok || prec < min {
			return x, i, nil
		}

		var y ast.Expr

		y, i, err = p.parseBinary(ctx, i+1, prec+1)
		if err != nil {
			return
		}

		x = ast.NewExpression(pos(op), op.Text, x, y)

		if prec != nonassoc {
			continue
		}

		if n := p.tok(i); precedence[n.Kind] == nonassoc {
			return nil, i, &SyntaxError{Token: n, Msg: "operator " + n.Text + " does not chain after " + op.Text}
		}
	}
}

func (p *Parser) parseOperand(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	t := p.tok(st)

	switch t.Kind {
	case lex.NAME:
		if p.tok(st+1).Kind == lex.LPAREN {
			c, i, err := p.parseCall(ctx, st)
			if err != nil {
				return nil, i, err
			}

			return c, i, nil
		}

		return ast.NewName(pos(t), t.Text), st + 1, nil
	case lex.NUMBER, lex.FLOAT:
		x, err = literal(t, false)
		if err != nil {
			return nil, st, err
		}

		return x, st + 1, nil
	case lex.MINUS:
		switch n := p.tok(st + 1); n.Kind {
		case lex.NUMBER, lex.FLOAT:
			x, err = literal(n, true)
		default:
			return nil, st + 1, NewUnexpected(n, lex.NUMBER, lex.FLOAT)
		}

		if err != nil {
			return nil, st, err
		}

		return x, st + 2, nil
	case lex.STRING:
		return ast.NewString(pos(t), t.Text), st + 1, nil
	case lex.LPAREN:
		x, i, err = p.parseExpr(ctx, st+1)
		if err != nil {
			return
		}

		_, i, err = p.expect(i, lex.RPAREN)
		if err != nil {
			return nil, i, err
		}

		return x, i, nil
	default:
		return nil, st, NewUnexpected(t, operandStart...)
	}
}

// parseCall parses NAME ( args ). A single empty slot means no arguments.
func (p *Parser) parseCall(ctx context.Context, st int) (x *ast.FuncCall, i int, err error) {
	name := p.tok(st)

	_, i, err = p.expect(st+1, lex.LPAREN)
	if err != nil {
		return
	}

	var args []ast.Expr
	slots := 0
	empty := -1

	for {
		slots++

		if k := p.tok(i).Kind; k == lex.COMMA || k == lex.RPAREN {
			if empty < 0 {
				empty = i
			}
		} else {
			var a ast.Expr

			a, i, err = p.parseExpr(ctx, i)
			if err != nil {
				return nil, i, err
			}

			args = append(args, a)
		}

		if p.tok(i).Kind != lex.COMMA {
			break
		}

		i++
	}

	if empty >= 0 && slots > 1 {
		return nil, empty, NewUnexpected(p.tok(empty), operandStart...)
	}

	_, i, err = p.expect(i, lex.RPAREN)
	if err != nil {
		return nil, i, err
	}

	return ast.NewFuncCall(pos(name), name.Text, args), i, nil
}

// literal folds an optional leading minus into a NUMBER or FLOAT.
// Integers must fit in 32 bits; unsigned bit patterns wrap.
func literal(t lex.Token, neg bool) (ast.Expr, error) {
	if t.Kind == lex.FLOAT {
		v, err := t.Float()
		if err != nil {
			return nil, &SyntaxError{Token: t, Msg: "bad float literal " + t.Text}
		}

		if neg {
			v = -v
		}

		return ast.NewFloat(pos(t), v), nil
	}

	v, err := t.Int()
	if err != nil {
		return nil, &SyntaxError{Token: t, Msg: "integer literal " + t.Text + " overflows int"}
	}

	if neg {
		v = -v
	}

	switch {
	case v >= math.MinInt32 && v <= math.MaxInt32:
	case v > 0 && v <= math.MaxUint32:
		v = int64(int32(uint32(v)))
	default:
		return nil, &SyntaxError{Token: t, Msg: "integer literal " + t.Text + " overflows int"}
	}

	return ast.NewNumber(pos(t), v), nil
}
