package compile

import (
	"bytes"
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/plang/plang/compiler/ast"
	"github.com/plang/plang/compiler/ir"
	"github.com/plang/plang/compiler/tp"
)

type (
	opKey struct {
		Op   string
		L, R tp.Type
	}

	opImpl struct {
		Op   ir.Op
		Pred string // comparisons only
	}
)

var operators = operatorTable()

func operatorTable() map[opKey]opImpl {
	t := map[opKey]opImpl{}

	add := func(typ tp.Type, op string, impl opImpl) {
		t[opKey{Op: op, L: typ, R: typ}] = impl
	}

	add(tp.Int32, "+", opImpl{Op: ir.OpAdd})
	add(tp.Int32, "-", opImpl{Op: ir.OpSub})
	add(tp.Int32, "*", opImpl{Op: ir.OpMul})
	add(tp.Int32, "/", opImpl{Op: ir.OpSDiv})
	add(tp.Int32, "%", opImpl{Op: ir.OpSRem})
	add(tp.Int32, "&", opImpl{Op: ir.OpAnd})
	add(tp.Int32, "|", opImpl{Op: ir.OpOr})
	add(tp.Int32, "^", opImpl{Op: ir.OpXor})
	add(tp.Int32, "<<", opImpl{Op: ir.OpShl})
	add(tp.Int32, ">>", opImpl{Op: ir.OpAShr})

	for op, pred := range map[string]string{"<": "slt", "<=": "sle", ">": "sgt", ">=": "sge", "!=": "ne", "==": "eq"} {
		add(tp.Int32, op, opImpl{Op: ir.OpICmp, Pred: pred})
	}

	add(tp.Bool, "==", opImpl{Op: ir.OpICmp, Pred: "eq"})
	add(tp.Bool, "!=", opImpl{Op: ir.OpICmp, Pred: "ne"})
	add(tp.Bool, "&", opImpl{Op: ir.OpAnd})
	add(tp.Bool, "|", opImpl{Op: ir.OpOr})
	add(tp.Bool, "^", opImpl{Op: ir.OpXor})

	for _, ft := range []tp.Type{tp.Float32, tp.Double} {
		add(ft, "+", opImpl{Op: ir.OpFAdd})
		add(ft, "-", opImpl{Op: ir.OpFSub})
		add(ft, "*", opImpl{Op: ir.OpFMul})
		add(ft, "/", opImpl{Op: ir.OpFDiv})
		add(ft, "%", opImpl{Op: ir.OpFRem})

		for op, pred := range map[string]string{"<": "olt", "<=": "ole", ">": "ogt", ">=": "oge", "!=": "one", "==": "oeq"} {
			add(ft, op, opImpl{Op: ir.OpFCmp, Pred: pred})
		}
	}

	return t
}

func (c *Context) compileExpr(ctx context.Context, x ast.Expr) (v ir.Value, t tp.Type, err error) {
	switch x := x.(type) {
	case *ast.Number:
		return ir.ConstInt(tp.Int32, x.Value), tp.Int32, nil
	case *ast.Float:
		return ir.ConstFloat(tp.Float32, x.Value), tp.Float32, nil
	case *ast.String:
		s := materialize(x.Value)
		return ir.ConstBytes(s), tp.Str(len(s)), nil
	case *ast.Name:
		sym, ok := c.Symtab.Lookup(x.Value)
		if !ok {
			return nil, nil, &UndefinedSymbolError{Name: x.Value, Pos: x.Pos}
		}

		if sym.IsFunc() {
			return nil, nil, newError(x.Pos, "function "+x.Value+" used as value")
		}

		slot := c.Symtab.Slot(sym.Slot)

		return c.b.Load(slot.Type, slot.Ptr), slot.Type, nil
	case *ast.FuncCall:
		return c.compileCall(ctx, x)
	case *ast.Expression:
		return c.compileBinary(ctx, x)
	default:
		return nil, nil, errors.New("unsupported expression: %T", x)
	}
}

func (c *Context) compileBinary(ctx context.Context, x *ast.Expression) (v ir.Value, t tp.Type, err error) {
	l, lt, err := c.compileExpr(ctx, x.Lhs)
	if err != nil {
		return nil, nil, err
	}

	r, rt, err := c.compileExpr(ctx, x.Rhs)
	if err != nil {
		return nil, nil, err
	}

	impl, ok := operators[opKey{Op: x.Op, L: lt, R: rt}]
	if !ok {
		return nil, nil, &UnsupportedOperandsError{Op: x.Op, L: lt, R: rt, Pos: x.Pos}
	}

	switch impl.Op {
	case ir.OpICmp:
		return c.b.ICmp(impl.Pred, l, r), tp.Bool, nil
	case ir.OpFCmp:
		return c.b.FCmp(impl.Pred, l, r), tp.Bool, nil
	default:
		return c.b.BinOp(impl.Op, l, r), lt, nil
	}
}

func (c *Context) compileCall(ctx context.Context, x *ast.FuncCall) (v ir.Value, t tp.Type, err error) {
	sym, ok := c.Symtab.Lookup(x.Name)
	if !ok {
		return nil, nil, &UndefinedSymbolError{Name: x.Name, Pos: x.Pos}
	}

	if !sym.IsFunc() {
		return nil, nil, newError(x.Pos, x.Name+" is not a function")
	}

	args := make([]ir.Value, len(x.Params))
	types := make([]tp.Type, len(x.Params))

	for i, a := range x.Params {
		args[i], types[i], err = c.compileExpr(ctx, a)
		if err != nil {
			return nil, nil, err
		}

		if tp.IsVoid(types[i]) {
			return nil, nil, newError(a.Position(), "void value passed to "+x.Name)
		}
	}

	if sym.Func == c.printf {
		return c.compilePrintf(ctx, x, args, types)
	}

	if tr := tlog.SpanFromContext(ctx); tr.If("compile_call") {
		tr.Printw("call", "name", x.Name, "args", len(args), "line", x.Line)
	}

	return c.b.Call(sym.Func, args...), sym.Type, nil
}

// compilePrintf passes the format by pointer and applies C vararg promotions to the rest.
func (c *Context) compilePrintf(ctx context.Context, x *ast.FuncCall, args []ir.Value, types []tp.Type) (v ir.Value, t tp.Type, err error) {
	if len(args) == 0 || !tp.IsStr(types[0]) {
		got := tp.Type(tp.Void{})
		if len(types) != 0 {
			got = types[0]
		}

		return nil, nil, &TypeMismatchError{What: "argument", Name: Printf + " format", Want: tp.Str(1), Got: got, Pos: x.Pos}
	}

	out := make([]ir.Value, len(args))

	for i, a := range args {
		switch typ := types[i]; {
		case tp.IsStr(typ):
			out[i] = c.stringPtr(a)
		case tp.Equal(typ, tp.Float32):
			out[i] = c.b.FPExt(a, tp.Double)
		case tp.Equal(typ, tp.Bool):
			out[i] = c.b.ZExt(a, tp.Int32)
		default:
			out[i] = a
		}
	}

	return c.b.Call(c.printf, out...), tp.Int32, nil
}

// stringPtr stores a byte array to a fresh slot and returns the address of its first byte.
func (c *Context) stringPtr(v ir.Value) ir.Value {
	t := v.Type()

	ptr := c.b.Alloca(t)
	c.b.Store(v, ptr)

	return c.b.GEP0(t, ptr)
}

// materialize converts a quoted literal into NUL terminated bytes.
// The two character sequence \n becomes a newline followed by NUL.
func materialize(lit string) []byte {
	s := []byte(lit)

	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}

	s = bytes.ReplaceAll(s, []byte(`\n`), []byte("\n\x00"))

	return append(s, 0)
}
