package back

import (
	"bytes"
	"context"
	"io"
	"math"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/plang/plang/compiler/ir"
	"github.com/plang/plang/compiler/tp"
)

type (
	// Interp executes IR in process.
	Interp struct {
		Stdout io.Writer

		MaxDepth int
	}

	machine struct {
		ctx context.Context
		m   *ir.Module
		w   io.Writer

		depth    int
		maxDepth int
		steps    int
	}

	frame struct {
		f    *ir.Func
		args []value
		vals map[*ir.Instr]value
	}

	// value is a register value. Integers of any width are kept
	// sign-extended in i, floats in f, byte arrays in b.
	value struct {
		i int64
		f float64
		b []byte
		p *pointer
	}

	cell struct {
		typ tp.Type
		v   value
	}

	// pointer addresses a cell. Element pointers into arrays always point
	// to the first element.
	pointer struct {
		c *cell
	}
)

const DefaultMaxDepth = 10000

var (
	ErrUnreachable   = errors.New("unreachable executed")
	ErrDepthExceeded = errors.New("call depth exceeded")
	ErrDivByZero     = errors.New("integer division by zero")
	ErrNilPointer    = errors.New("nil pointer dereference")
)

func (x *Interp) Run(ctx context.Context, m *ir.Module, entry string) (res int64, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "interp", "entry", entry)
	defer tr.Finish("res", &res, "err", &err)

	f := m.Func(entry)
	if f == nil || f.Decl() {
		return 0, errors.New("no function %v", entry)
	}

	if len(f.Params) != 0 {
		return 0, errors.New("entry function %v takes arguments", entry)
	}

	w := x.Stdout
	if w == nil {
		w = os.Stdout
	}

	mc := &machine{
		ctx:      ctx,
		m:        m,
		w:        w,
		maxDepth: x.MaxDepth,
	}

	if mc.maxDepth == 0 {
		mc.maxDepth = DefaultMaxDepth
	}

	v, err := mc.call(f, nil)
	if err != nil {
		return 0, err
	}

	tr.Printw("finished", "steps", mc.steps)

	return v.i, nil
}

func (mc *machine) call(f *ir.Func, args []value) (value, error) {
	if mc.depth >= mc.maxDepth {
		return value{}, errors.Wrap(ErrDepthExceeded, "%v", f.Name)
	}

	mc.depth++
	defer func() { mc.depth-- }()

	fr := &frame{
		f:    f,
		args: args,
		vals: make(map[*ir.Instr]value),
	}

	b := f.Entry()

	for {
		next, ret, done, err := mc.block(fr, b)
		if err != nil {
			return value{}, errors.Wrap(err, "%v: %v", f.Name, b.Name)
		}

		if done {
			return ret, nil
		}

		b = next
	}
}

func (mc *machine) block(fr *frame, b *ir.Block) (next *ir.Block, ret value, done bool, err error) {
	for _, in := range b.Instrs {
		mc.steps++

		if mc.steps&0xffff == 0 {
			if err = mc.ctx.Err(); err != nil {
				return
			}
		}

		switch op := in.Op; {
		case op == ir.OpBr:
			return in.Targets[0], value{}, false, nil
		case op == ir.OpCondBr:
			if fr.get(in.Args[0]).i&1 != 0 {
				return in.Targets[0], value{}, false, nil
			}

			return in.Targets[1], value{}, false, nil
		case op == ir.OpRet:
			if len(in.Args) != 0 {
				ret = fr.get(in.Args[0])
			}

			return nil, ret, true, nil
		case op == ir.OpUnreachable:
			return nil, value{}, false, ErrUnreachable
		}

		v, err := mc.exec(fr, in)
		if err != nil {
			return nil, value{}, false, errors.Wrap(err, "%v", in)
		}

		if in.Name != "" {
			fr.vals[in] = v
		}
	}

	return nil, value{}, false, errors.New("block %v fell through", b.Name)
}

func (mc *machine) exec(fr *frame, in *ir.Instr) (v value, err error) {
	arg := func(i int) value { return fr.get(in.Args[i]) }

	switch op := in.Op; {
	case op == ir.OpAlloca:
		return value{p: &pointer{c: &cell{typ: in.Elem}}}, nil
	case op == ir.OpLoad:
		p := arg(0).p
		if p == nil {
			return v, ErrNilPointer
		}

		return p.load(), nil
	case op == ir.OpStore:
		p := arg(1).p
		if p == nil {
			return v, ErrNilPointer
		}

		p.store(arg(0))

		return v, nil
	case op == ir.OpGEP:
		p := arg(0).p
		if p == nil {
			return v, ErrNilPointer
		}

		return value{p: &pointer{c: p.c}}, nil
	case op.IsIntBinary():
		return intOp(op, in.Typ.(tp.Int), arg(0).i, arg(1).i)
	case op.IsFloatBinary():
		return floatOp(op, in.Typ.(tp.Float), arg(0).f, arg(1).f), nil
	case op == ir.OpICmp:
		t := in.Args[0].Type().(tp.Int)
		return boolValue(icmp(in.Pred, t, arg(0).i, arg(1).i)), nil
	case op == ir.OpFCmp:
		return boolValue(fcmp(in.Pred, arg(0).f, arg(1).f)), nil
	case op == ir.OpFPExt:
		return value{f: arg(0).f}, nil
	case op == ir.OpZExt:
		t := in.Args[0].Type().(tp.Int)
		return value{i: int64(uint64(arg(0).i) & mask(t.Bits))}, nil
	case op == ir.OpCall:
		args := make([]value, len(in.Args))
		for i := range in.Args {
			args[i] = arg(i)
		}

		if in.Callee.Decl() {
			return mc.external(in, args)
		}

		return mc.call(in.Callee, args)
	default:
		return v, errors.New("unsupported instruction %v", op)
	}
}

// external runs a declared function. Argument kinds follow the operand types.
func (mc *machine) external(in *ir.Instr, args []value) (value, error) {
	f := in.Callee

	switch f.Name {
	case "printf":
		if len(args) == 0 || args[0].p == nil {
			return value{}, errors.New("printf: bad format")
		}

		vals := make([]any, len(args)-1)

		for i, a := range args[1:] {
			switch t := in.Args[i+1].Type(); {
			case tp.IsFloat(t):
				vals[i] = a.f
			case a.p != nil:
				vals[i] = a.p.cstring()
			default:
				vals[i] = a.i
			}
		}

		n, err := Printf(mc.w, args[0].p.cstring(), vals)
		if err != nil {
			return value{}, errors.Wrap(err, "printf")
		}

		return value{i: int64(n)}, nil
	default:
		return value{}, errors.New("undefined external function %v", f.Name)
	}
}

func (fr *frame) get(v ir.Value) value {
	switch v := v.(type) {
	case *ir.Instr:
		return fr.vals[v]
	case *ir.Param:
		return fr.args[v.Index]
	case *ir.Const:
		switch t := v.Typ.(type) {
		case tp.Float:
			if t.Bits == 32 {
				return value{f: float64(float32(v.Float))}
			}

			return value{f: v.Float}
		case tp.Array:
			return value{b: v.Bytes}
		case tp.Int:
			return value{i: wrap(t, v.Int)}
		}
	}

	return value{}
}

func (p *pointer) load() value {
	return p.c.v
}

func (p *pointer) store(v value) {
	if v.b != nil {
		v.b = append([]byte(nil), v.b...)
	}

	p.c.v = v
}

func (p *pointer) cstring() []byte {
	b := p.c.v.b

	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return b
}

func intOp(op ir.Op, t tp.Int, x, y int64) (value, error) {
	var r int64

	switch op {
	case ir.OpAdd:
		r = x + y
	case ir.OpSub:
		r = x - y
	case ir.OpMul:
		r = x * y
	case ir.OpSDiv, ir.OpSRem:
		if y == 0 {
			return value{}, ErrDivByZero
		}

		if op == ir.OpSDiv {
			r = x / y
		} else {
			r = x % y
		}
	case ir.OpAnd:
		r = x & y
	case ir.OpOr:
		r = x | y
	case ir.OpXor:
		r = x ^ y
	case ir.OpShl, ir.OpAShr:
		s := uint64(y) & mask(t.Bits)

		switch {
		case s >= uint64(t.Bits) && op == ir.OpShl:
			r = 0
		case s >= uint64(t.Bits):
			r = x >> 63
		case op == ir.OpShl:
			r = x << s
		default:
			r = x >> s
		}
	}

	return value{i: wrap(t, r)}, nil
}

func floatOp(op ir.Op, t tp.Float, x, y float64) value {
	var r float64

	switch op {
	case ir.OpFAdd:
		r = x + y
	case ir.OpFSub:
		r = x - y
	case ir.OpFMul:
		r = x * y
	case ir.OpFDiv:
		r = x / y
	case ir.OpFRem:
		r = math.Mod(x, y)
	}

	if t.Bits == 32 {
		r = float64(float32(r))
	}

	return value{f: r}
}

func icmp(pred string, t tp.Int, x, y int64) bool {
	ux, uy := uint64(x)&mask(t.Bits), uint64(y)&mask(t.Bits)

	switch pred {
	case "eq":
		return ux == uy
	case "ne":
		return ux != uy
	case "slt":
		return x < y
	case "sle":
		return x <= y
	case "sgt":
		return x > y
	case "sge":
		return x >= y
	case "ult":
		return ux < uy
	case "ule":
		return ux <= uy
	case "ugt":
		return ux > uy
	case "uge":
		return ux >= uy
	}

	return false
}

func fcmp(pred string, x, y float64) bool {
	uno := math.IsNaN(x) || math.IsNaN(y)

	var r bool

	switch pred[1:] {
	case "eq":
		r = x == y
	case "ne":
		r = x != y
	case "lt":
		r = x < y
	case "le":
		r = x <= y
	case "gt":
		r = x > y
	case "ge":
		r = x >= y
	case "rd":
		return !uno
	case "no":
		return uno
	}

	if pred[0] == 'o' {
		return !uno && r
	}

	return uno || r
}

func boolValue(b bool) value {
	if b {
		return value{i: 1}
	}

	return value{}
}

func mask(bits int16) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}

	return 1<<uint(bits) - 1
}

// wrap truncates x to t.Bits. i1 is kept as 0 or 1, wider types sign-extended.
func wrap(t tp.Int, x int64) int64 {
	switch t.Bits {
	case 1:
		return x & 1
	case 8:
		return int64(int8(x))
	case 16:
		return int64(int16(x))
	case 32:
		return int64(int32(x))
	default:
		return x
	}
}
