package format

import (
	"context"
	"strconv"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/plang/plang/compiler/ast"
	"github.com/plang/plang/compiler/lex"
)

// Format appends source text for x. The result parses back to an equal tree.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ast.Module:
		return formatModule(ctx, b, x, d)
	case ast.Stmt:
		return formatBlock(ctx, b, []ast.Stmt{x}, d)
	case ast.Expr:
		return formatExpr(ctx, b, x, d)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatModule(ctx context.Context, b []byte, x *ast.Module, d int) (_ []byte, err error) {
	for i, s := range x.Body {
		if _, ok := s.(*ast.Def); ok && i != 0 {
			b = append(b, '\n')
		}

		b, err = formatBlock(ctx, b, x.Body[i:i+1], d)
		if err != nil {
			return nil, errors.Wrap(err, "stmt %d", i)
		}
	}

	return b, nil
}

func formatDef(ctx context.Context, b []byte, x *ast.Def, d int) ([]byte, error) {
	if err := checkName(x.Name); err != nil {
		return nil, err
	}

	b = app(b, d, "def %v(", x.Name)

	for i, a := range x.Params {
		if err := checkName(a.Name); err != nil {
			return nil, errors.Wrap(err, "param %d", i)
		}

		if i != 0 {
			b = append(b, ", "...)
		}

		b = app(b, 0, "%v:%v", a.Name, a.Type)
	}

	b = app(b, 0, "): %v {\n", x.Return)

	b, err := formatBlock(ctx, b, x.Body, d+1)
	if err != nil {
		return nil, errors.Wrap(err, "body")
	}

	b = app(b, d, "}\n")

	return b, nil
}

func formatBlock(ctx context.Context, b []byte, l []ast.Stmt, d int) (_ []byte, err error) {
	for _, s := range l {
		switch s := s.(type) {
		case *ast.Def:
			b, err = formatDef(ctx, b, s, d)
			if err != nil {
				return nil, errors.Wrap(err, "def %v", s.Name)
			}
		case *ast.Return:
			b = app(b, d, "return ")

			b, err = formatExpr(ctx, b, s.Value, d)
			if err != nil {
				return nil, errors.Wrap(err, "expr")
			}

			b = append(b, "\n"...)
		case *ast.VarAssign:
			if err = checkName(s.Name); err != nil {
				return nil, err
			}

			b = app(b, d, "%v = ", s.Name)

			b, err = formatExpr(ctx, b, s.Value, d)
			if err != nil {
				return nil, errors.Wrap(err, "rhs")
			}

			b = append(b, "\n"...)
		case *ast.FuncCall:
			b = app(b, d, "")

			b, err = formatExpr(ctx, b, s, d)
			if err != nil {
				return nil, errors.Wrap(err, "call")
			}

			b = append(b, "\n"...)
		case *ast.If:
			b, err = formatCond(ctx, b, "if", s.Test, s.Body, d)
			if err != nil {
				return nil, err
			}

			if len(s.Orelse) != 0 {
				b = app(b, d, "} else {\n")

				b, err = formatBlock(ctx, b, s.Orelse, d+1)
				if err != nil {
					return nil, errors.Wrap(err, "else block")
				}
			}

			b = app(b, d, "}\n")
		case *ast.While:
			b, err = formatCond(ctx, b, "while", s.Test, s.Body, d)
			if err != nil {
				return nil, err
			}

			b = app(b, d, "}\n")
		case *ast.Until:
			b, err = formatCond(ctx, b, "until", s.Test, s.Body, d)
			if err != nil {
				return nil, err
			}

			b = app(b, d, "}\n")
		case *ast.Break:
			b = app(b, d, "break\n")
		case *ast.Continue:
			b = app(b, d, "continue\n")
		default:
			return nil, errors.New("unsupported stmt: %T", s)
		}
	}

	return b, nil
}

func formatCond(ctx context.Context, b []byte, kw string, test ast.Expr, body []ast.Stmt, d int) (_ []byte, err error) {
	b = app(b, d, "%s ", kw)

	b, err = formatExpr(ctx, b, test, d)
	if err != nil {
		return nil, errors.Wrap(err, "cond")
	}

	b = append(b, " {\n"...)

	b, err = formatBlock(ctx, b, body, d+1)
	if err != nil {
		return nil, errors.Wrap(err, "%s block", kw)
	}

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, x ast.Expr, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Name:
		if err = checkName(x.Value); err != nil {
			return nil, err
		}

		b = append(b, x.Value...)
	case *ast.Number:
		b = strconv.AppendInt(b, x.Value, 10)
	case *ast.Float:
		st := len(b)
		b = strconv.AppendFloat(b, x.Value, 'g', -1, 64)

		if !strings.ContainsAny(string(b[st:]), ".eE") {
			b = append(b, ".0"...)
		}
	case *ast.String:
		b = append(b, x.Value...)
	case *ast.FuncCall:
		if err = checkName(x.Name); err != nil {
			return nil, err
		}

		b = append(b, x.Name...)
		b = append(b, '(')

		for i, a := range x.Params {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatExpr(ctx, b, a, d)
			if err != nil {
				return nil, errors.Wrap(err, "arg %d", i)
			}
		}

		b = append(b, ')')
	case *ast.Expression:
		b, err = formatOperand(ctx, b, x.Lhs, d)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		b = app(b, 0, " %s ", x.Op)

		b, err = formatOperand(ctx, b, x.Rhs, d)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

func formatOperand(ctx context.Context, b []byte, x ast.Expr, d int) (_ []byte, err error) {
	if _, ok := x.(*ast.Expression); !ok {
		return formatExpr(ctx, b, x, d)
	}

	b = append(b, '(')

	b, err = formatExpr(ctx, b, x, d)
	if err != nil {
		return nil, err
	}

	return append(b, ')'), nil
}

// checkName rejects names that would not parse back as identifiers.
func checkName(n string) error {
	if n == "" || lex.IsKeyword(n) {
		return errors.New("bad name %q", n)
	}

	return nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	for i := 0; i < d; i++ {
		b = append(b, '\t')
	}

	b = hfmt.Appendf(b, f, args...)
	return b
}
