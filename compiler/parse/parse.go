package parse

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/plang/plang/compiler/ast"
	"github.com/plang/plang/compiler/lex"
)

type (
	Parser struct {
		toks []lex.Token
	}

	// SyntaxError is any token sequence no grammar rule matches.
	SyntaxError struct {
		Token lex.Token
		Want  []lex.Kind
		Msg   string
	}
)

var stmtStart = []lex.Kind{lex.DEF, lex.RETURN, lex.IF, lex.WHILE, lex.UNTIL, lex.BREAK, lex.CONTINUE, lex.NAME}

// Source lexes and parses src.
func Source(ctx context.Context, src []byte) (*ast.Module, error) {
	toks, err := lex.Lex(ctx, src)
	if err != nil {
		return nil, err
	}

	return Parse(ctx, toks)
}

func Parse(ctx context.Context, toks []lex.Token) (*ast.Module, error) {
	return New(toks).Parse(ctx)
}

func New(toks []lex.Token) *Parser {
	if len(toks) == 0 || toks[len(toks)-1].Kind != lex.EOF {
		toks = append(toks[:len(toks):len(toks)], lex.Token{Kind: lex.EOF})
	}

	return &Parser{toks: toks}
}

func (p *Parser) Parse(ctx context.Context) (m *ast.Module, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "tokens", len(p.toks))
	defer tr.Finish("err", &err)

	body, _, err := p.parseStatements(ctx, 0, lex.EOF)
	if err != nil {
		return nil, err
	}

	return ast.NewModule(body), nil
}

// parseStatements parses one or more statements up to the end token, which is not consumed.
func (p *Parser) parseStatements(ctx context.Context, st int, end lex.Kind) (l []ast.Stmt, i int, err error) {
	i = st

	for {
		var x ast.Stmt

		x, i, err = p.parseStatement(ctx, i)
		if err != nil {
			return nil, i, err
		}

		l = append(l, x)

		if p.tok(i).Kind == end {
			return l, i, nil
		}
	}
}

func (p *Parser) parseStatement(ctx context.Context, st int) (x ast.Stmt, i int, err error) {
	t := p.tok(st)

	switch t.Kind {
	case lex.RETURN:
		var v ast.Expr

		v, i, err = p.parseExpr(ctx, st+1)
		if err != nil {
			return nil, i, err
		}

		x = ast.NewReturn(pos(t), v)
	case lex.DEF:
		x, i, err = p.parseDef(ctx, st)
	case lex.IF:
		x, i, err = p.parseIf(ctx, st)
	case lex.WHILE, lex.UNTIL:
		x, i, err = p.parseLoop(ctx, st)
	case lex.BREAK:
		x, i = ast.NewBreak(pos(t)), st+1
	case lex.CONTINUE:
		x, i = ast.NewContinue(pos(t)), st+1
	case lex.NAME:
		switch n := p.tok(st + 1); n.Kind {
		case lex.EQ:
			var v ast.Expr

			v, i, err = p.parseExpr(ctx, st+2)
			if err != nil {
				return nil, i, err
			}

			x = ast.NewVarAssign(pos(t), t.Text, v)
		case lex.LPAREN:
			x, i, err = p.parseCall(ctx, st)
		default:
			return nil, st + 1, NewUnexpected(n, lex.EQ, lex.LPAREN)
		}
	default:
		return nil, st, NewUnexpected(t, stmtStart...)
	}

	if err != nil {
		return nil, i, err
	}

	if p.tok(i).Kind == lex.SEMI {
		i++
	}

	if tr := tlog.SpanFromContext(ctx); tr.If("parse_stmt") {
		tr.Printw("statement", "line", t.Line, "typ", tlog.NextAsType, x, "stmt", x)
	}

	return x, i, nil
}

func (p *Parser) parseDef(ctx context.Context, st int) (x *ast.Def, i int, err error) {
	name, i, err := p.expect(st+1, lex.NAME)
	if err != nil {
		return
	}

	_, i, err = p.expect(i, lex.LPAREN)
	if err != nil {
		return
	}

	params, i, err := p.parseParams(ctx, i)
	if err != nil {
		return
	}

	_, i, err = p.expect(i, lex.RPAREN)
	if err != nil {
		return
	}

	_, i, err = p.expect(i, lex.COLON)
	if err != nil {
		return
	}

	ret, i, err := p.expect(i, lex.NAME)
	if err != nil {
		return
	}

	body, i, err := p.parseBlock(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "def %v", name.Text)
	}

	return ast.NewDef(pos(p.tok(st)), name.Text, params, ret.Text, body), i, nil
}

// parseParams parses name:type slots. A single empty slot means no parameters.
func (p *Parser) parseParams(ctx context.Context, st int) (l []ast.Param, i int, err error) {
	i = st
	slots := 0
	empty := -1

	for {
		slots++

		if t := p.tok(i); t.Kind == lex.NAME {
			var typ lex.Token

			_, i, err = p.expect(i+1, lex.COLON)
			if err != nil {
				return
			}

			typ, i, err = p.expect(i, lex.NAME)
			if err != nil {
				return
			}

			l = append(l, ast.Param{Name: t.Text, Type: typ.Text})
		} else if empty < 0 {
			empty = i
		}

		if p.tok(i).Kind != lex.COMMA {
			break
		}

		i++
	}

	if empty >= 0 && slots > 1 {
		return nil, empty, NewUnexpected(p.tok(empty), lex.NAME)
	}

	return l, i, nil
}

func (p *Parser) parseIf(ctx context.Context, st int) (x *ast.If, i int, err error) {
	test, i, err := p.parseExpr(ctx, st+1)
	if err != nil {
		return
	}

	body, i, err := p.parseBlock(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "if")
	}

	var orelse []ast.Stmt

	if p.tok(i).Kind == lex.ELSE {
		orelse, i, err = p.parseBlock(ctx, i+1)
		if err != nil {
			return nil, i, errors.Wrap(err, "else")
		}
	}

	return ast.NewIf(pos(p.tok(st)), test, body, orelse), i, nil
}

func (p *Parser) parseLoop(ctx context.Context, st int) (x ast.Stmt, i int, err error) {
	t := p.tok(st)

	test, i, err := p.parseExpr(ctx, st+1)
	if err != nil {
		return
	}

	body, i, err := p.parseBlock(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "%v", strings.ToLower(t.Kind.String()))
	}

	if t.Kind == lex.UNTIL {
		return ast.NewUntil(pos(t), test, body), i, nil
	}

	return ast.NewWhile(pos(t), test, body), i, nil
}

func (p *Parser) parseBlock(ctx context.Context, st int) (l []ast.Stmt, i int, err error) {
	_, i, err = p.expect(st, lex.LBRACE)
	if err != nil {
		return
	}

	l, i, err = p.parseStatements(ctx, i, lex.RBRACE)
	if err != nil {
		return
	}

	return l, i + 1, nil
}

func (p *Parser) expect(st int, k lex.Kind) (t lex.Token, i int, err error) {
	t = p.tok(st)
	if t.Kind != k {
		return t, st, NewUnexpected(t, k)
	}

	return t, st + 1, nil
}

func (p *Parser) tok(i int) lex.Token {
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}

	return p.toks[i]
}

func pos(t lex.Token) ast.Pos {
	return ast.Pos{Line: t.Line, Offset: t.Pos}
}

func NewUnexpected(got lex.Token, want ...lex.Kind) error {
	return &SyntaxError{
		Token: got,
		Want:  want,
	}
}

func (e *SyntaxError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("syntax error at line %d: %s", e.Token.Line, e.Msg)
	}

	l := make([]string, len(e.Want))

	for i, k := range e.Want {
		l[i] = k.String()
	}

	return fmt.Sprintf("syntax error at line %d: unexpected %v, want: %v", e.Token.Line, e.Token, strings.Join(l, ", "))
}
