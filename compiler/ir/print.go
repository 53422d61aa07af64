package ir

import (
	"math"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"

	"github.com/plang/plang/compiler/tp"
)

// String renders the module as textual LLVM IR.
func (m *Module) String() string {
	return string(m.AppendText(nil))
}

func (m *Module) AppendText(b []byte) []byte {
	b = hfmt.Appendf(b, "; ModuleID = %s\n", strconv.Quote(m.Name))

	if m.Triple != "" {
		b = hfmt.Appendf(b, "target triple = %s\n", strconv.Quote(m.Triple))
	}

	for _, f := range m.Funcs {
		b = append(b, '\n')
		b = f.AppendText(b)
	}

	return b
}

func (f *Func) String() string {
	return string(f.AppendText(nil))
}

func (f *Func) AppendText(b []byte) []byte {
	if f.Decl() {
		b = hfmt.Appendf(b, "declare %v %s(", f.Sig.Out, f.Ident())

		for i, t := range f.Sig.In {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = append(b, t.String()...)
		}

		if f.Sig.Variadic {
			if len(f.Sig.In) != 0 {
				b = append(b, ", "...)
			}

			b = append(b, "..."...)
		}

		return append(b, ")\n"...)
	}

	b = hfmt.Appendf(b, "define %v %s(", f.Sig.Out, f.Ident())

	for i, p := range f.Params {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = hfmt.Appendf(b, "%v %s", p.Typ, p.Ident())
	}

	b = append(b, ") {\n"...)

	for i, bl := range f.Blocks {
		if i != 0 {
			b = append(b, '\n')
		}

		b = hfmt.Appendf(b, "%s:\n", quoteName(bl.Name))

		for _, in := range bl.Instrs {
			b = append(b, "  "...)
			b = in.AppendText(b)
			b = append(b, '\n')
		}
	}

	return append(b, "}\n"...)
}

func (x *Instr) String() string {
	return string(x.AppendText(nil))
}

func (x *Instr) AppendText(b []byte) []byte {
	if x.Name != "" {
		b = hfmt.Appendf(b, "%s = ", x.Ident())
	}

	switch op := x.Op; {
	case op == OpAlloca:
		b = hfmt.Appendf(b, "alloca %v", x.Elem)
	case op == OpLoad:
		b = hfmt.Appendf(b, "load %v, ", x.Typ)
		b = appendOperand(b, x.Args[0])
	case op == OpStore:
		b = append(b, "store "...)
		b = appendOperand(b, x.Args[0])
		b = append(b, ", "...)
		b = appendOperand(b, x.Args[1])
	case op.IsIntBinary(), op.IsFloatBinary():
		b = hfmt.Appendf(b, "%v %v %s, %s", op, x.Typ, ident(x.Args[0]), ident(x.Args[1]))
	case op == OpICmp, op == OpFCmp:
		b = hfmt.Appendf(b, "%v %s %v %s, %s", op, x.Pred, x.Args[0].Type(), ident(x.Args[0]), ident(x.Args[1]))
	case op == OpGEP:
		b = hfmt.Appendf(b, "getelementptr %v", x.Elem)

		for _, a := range x.Args {
			b = append(b, ", "...)
			b = appendOperand(b, a)
		}
	case op == OpFPExt, op == OpZExt:
		b = hfmt.Appendf(b, "%v ", op)
		b = appendOperand(b, x.Args[0])
		b = hfmt.Appendf(b, " to %v", x.Typ)
	case op == OpCall:
		b = x.appendCall(b)
	case op == OpBr:
		b = hfmt.Appendf(b, "br label %s", blockRef(x.Targets[0]))
	case op == OpCondBr:
		b = append(b, "br "...)
		b = appendOperand(b, x.Args[0])
		b = hfmt.Appendf(b, ", label %s, label %s", blockRef(x.Targets[0]), blockRef(x.Targets[1]))
	case op == OpRet:
		if len(x.Args) == 0 {
			return append(b, "ret void"...)
		}

		b = append(b, "ret "...)
		b = appendOperand(b, x.Args[0])
	case op == OpUnreachable:
		b = append(b, "unreachable"...)
	default:
		b = hfmt.Appendf(b, "; %v", op)
	}

	return b
}

func (x *Instr) appendCall(b []byte) []byte {
	sig := x.Callee.Sig

	if sig.Variadic {
		b = hfmt.Appendf(b, "call %v %s(", sig, x.Callee.Ident())
	} else {
		b = hfmt.Appendf(b, "call %v %s(", sig.Out, x.Callee.Ident())
	}

	for i, a := range x.Args {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = appendOperand(b, a)
	}

	return append(b, ')')
}

func appendOperand(b []byte, v Value) []byte {
	return hfmt.Appendf(b, "%v %s", v.Type(), ident(v))
}

func ident(v Value) string {
	return v.Ident()
}

func blockRef(b *Block) string {
	return "%" + quoteName(b.Name)
}

// Ident renders the constant the way it appears as an operand.
func (c *Const) Ident() string {
	switch t := c.Typ.(type) {
	case tp.Int:
		if t.Bits == 1 {
			if c.Int != 0 {
				return "true"
			}

			return "false"
		}

		return strconv.FormatInt(c.Int, 10)
	case tp.Float:
		// LLVM wants exact values, hex is always exact.
		v := c.Float
		if t.Bits == 32 {
			v = float64(float32(v))
		}

		return "0x" + hex16(math.Float64bits(v))
	case tp.Array:
		return string(appendCString(nil, c.Bytes))
	}

	return "undef"
}

func hex16(x uint64) string {
	const digits = "0123456789ABCDEF"

	var b [16]byte

	for i := 15; i >= 0; i-- {
		b[i] = digits[x&0xf]
		x >>= 4
	}

	return string(b[:])
}

func appendCString(b, s []byte) []byte {
	const digits = "0123456789ABCDEF"

	b = append(b, 'c', '"')

	for _, c := range s {
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			b = append(b, c)
			continue
		}

		b = append(b, '\\', digits[c>>4], digits[c&0xf])
	}

	return append(b, '"')
}

func quoteName(n string) string {
	if n == "" {
		return `""`
	}

	for i := 0; i < len(n); i++ {
		c := n[i]

		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '.', c == '$', c == '-':
		case c >= '0' && c <= '9' && i != 0:
		default:
			return strconv.Quote(n)
		}
	}

	return n
}
