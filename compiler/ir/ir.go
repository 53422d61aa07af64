package ir

import (
	"strconv"

	"github.com/plang/plang/compiler/tp"
)

type (
	// Value is an instruction operand.
	Value interface {
		Type() tp.Type
		Ident() string
	}

	Module struct {
		Name   string
		Triple string

		Funcs []*Func
	}

	Func struct {
		Name   string
		Sig    *tp.Func
		Params []*Param
		Blocks []*Block

		names map[string]struct{}
		tmp   int
	}

	Param struct {
		Typ   tp.Type
		Name  string
		Index int
	}

	Block struct {
		Name string
		Func *Func

		Instrs []*Instr
	}

	Const struct {
		Typ tp.Type

		Int   int64
		Float float64
		Bytes []byte
	}

	Op int

	Instr struct {
		Op   Op
		Typ  tp.Type // result type, Void if none
		Name string

		Args []Value

		Pred    string  // icmp/fcmp
		Elem    tp.Type // alloca/load/store/gep element type
		Callee  *Func
		Targets []*Block

		Block *Block
	}
)

const (
	OpAlloca Op = iota
	OpLoad
	OpStore

	OpAdd
	OpSub
	OpMul
	OpSDiv
	OpSRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpAShr

	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFRem

	OpICmp
	OpFCmp

	OpGEP
	OpFPExt
	OpZExt
	OpCall

	OpBr
	OpCondBr
	OpRet
	OpUnreachable
)

var opNames = [...]string{
	OpAlloca:      "alloca",
	OpLoad:        "load",
	OpStore:       "store",
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpSDiv:        "sdiv",
	OpSRem:        "srem",
	OpAnd:         "and",
	OpOr:          "or",
	OpXor:         "xor",
	OpShl:         "shl",
	OpAShr:        "ashr",
	OpFAdd:        "fadd",
	OpFSub:        "fsub",
	OpFMul:        "fmul",
	OpFDiv:        "fdiv",
	OpFRem:        "frem",
	OpICmp:        "icmp",
	OpFCmp:        "fcmp",
	OpGEP:         "getelementptr",
	OpFPExt:       "fpext",
	OpZExt:        "zext",
	OpCall:        "call",
	OpBr:          "br",
	OpCondBr:      "br",
	OpRet:         "ret",
	OpUnreachable: "unreachable",
}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}

	return "Op(" + strconv.Itoa(int(op)) + ")"
}

func (op Op) IsTerminator() bool {
	return op >= OpBr
}

func (op Op) IsIntBinary() bool {
	return op >= OpAdd && op <= OpAShr
}

func (op Op) IsFloatBinary() bool {
	return op >= OpFAdd && op <= OpFRem
}

func NewModule(name string) *Module {
	return &Module{Name: name}
}

// NewFunc adds a function with a body to be built.
func (m *Module) NewFunc(name string, sig *tp.Func, params ...string) *Func {
	f := &Func{
		Name:  name,
		Sig:   sig,
		names: map[string]struct{}{},
	}

	for i, t := range sig.In {
		n := ""
		if i < len(params) {
			n = params[i]
		}

		if n == "" {
			n = "arg" + strconv.Itoa(i)
		}

		f.Params = append(f.Params, &Param{Typ: t, Name: f.uniq(n), Index: i})
	}

	m.Funcs = append(m.Funcs, f)

	return f
}

// Declare adds an external function.
func (m *Module) Declare(name string, sig *tp.Func) *Func {
	f := m.NewFunc(name, sig)
	f.Params = nil

	return f
}

func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// Decl reports whether f is only declared.
func (f *Func) Decl() bool {
	return len(f.Blocks) == 0
}

// AppendBlock adds a block at the end of f. Names are made unique.
func (f *Func) AppendBlock(name string) *Block {
	b := &Block{
		Name: f.uniq(name),
		Func: f,
	}

	f.Blocks = append(f.Blocks, b)

	return b
}

func (f *Func) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}

	return f.Blocks[0]
}

func (f *Func) uniq(name string) string {
	if f.names == nil {
		f.names = map[string]struct{}{}
	}

	n := name

	for i := 1; ; i++ {
		if _, ok := f.names[n]; !ok {
			break
		}

		n = name + "." + strconv.Itoa(i)
	}

	f.names[n] = struct{}{}

	return n
}

func (f *Func) tempName() string {
	f.tmp++
	return "." + strconv.Itoa(f.tmp)
}

func (b *Block) Terminated() bool {
	return len(b.Instrs) != 0 && b.Instrs[len(b.Instrs)-1].Op.IsTerminator()
}

func (b *Block) Terminator() *Instr {
	if !b.Terminated() {
		return nil
	}

	return b.Instrs[len(b.Instrs)-1]
}

func ConstInt(t tp.Type, v int64) *Const {
	return &Const{Typ: t, Int: v}
}

func ConstBool(v bool) *Const {
	c := &Const{Typ: tp.Bool}
	if v {
		c.Int = 1
	}

	return c
}

func ConstFloat(t tp.Type, v float64) *Const {
	return &Const{Typ: t, Float: v}
}

// ConstBytes is a byte array constant of len(b).
func ConstBytes(b []byte) *Const {
	return &Const{Typ: tp.Str(len(b)), Bytes: b}
}

func (f *Func) Type() tp.Type  { return tp.Ptr{} }
func (f *Func) Ident() string  { return "@" + quoteName(f.Name) }
func (p *Param) Type() tp.Type { return p.Typ }
func (p *Param) Ident() string { return "%" + quoteName(p.Name) }
func (c *Const) Type() tp.Type { return c.Typ }
func (x *Instr) Type() tp.Type { return x.Typ }
func (x *Instr) Ident() string { return "%" + quoteName(x.Name) }
