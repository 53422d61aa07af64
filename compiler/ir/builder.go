package ir

import (
	"github.com/plang/plang/compiler/tp"
)

type (
	// Builder appends instructions to the end of the current block.
	Builder struct {
		b *Block

		allocas int
		entry   *Block
	}
)

func NewBuilder(b *Block) *Builder {
	x := &Builder{}
	x.PositionAtEnd(b)

	return x
}

func (x *Builder) PositionAtEnd(b *Block) {
	x.b = b

	if e := b.Func.Entry(); e != x.entry {
		x.entry = e
		x.allocas = 0

		for _, in := range e.Instrs {
			if in.Op != OpAlloca {
				break
			}

			x.allocas++
		}
	}
}

func (x *Builder) Block() *Block { return x.b }
func (x *Builder) Func() *Func   { return x.b.Func }

// AppendBlock adds a new block to the current function.
// The insertion point does not move.
func (x *Builder) AppendBlock(name string) *Block {
	return x.b.Func.AppendBlock(name)
}

func (x *Builder) insert(in *Instr) *Instr {
	in.Block = x.b

	if in.Typ == nil {
		in.Typ = tp.Void{}
	}

	if !tp.IsVoid(in.Typ) {
		in.Name = x.b.Func.tempName()
	}

	x.b.Instrs = append(x.b.Instrs, in)

	return in
}

// Alloca reserves a stack slot. Slots always go to the top of the entry block
// so they dominate every use.
func (x *Builder) Alloca(t tp.Type) *Instr {
	in := &Instr{
		Op:    OpAlloca,
		Typ:   tp.Ptr{},
		Elem:  t,
		Block: x.entry,
		Name:  x.b.Func.tempName(),
	}

	e := x.entry
	e.Instrs = append(e.Instrs, nil)
	copy(e.Instrs[x.allocas+1:], e.Instrs[x.allocas:])
	e.Instrs[x.allocas] = in
	x.allocas++

	return in
}

func (x *Builder) Load(t tp.Type, ptr Value) *Instr {
	return x.insert(&Instr{Op: OpLoad, Typ: t, Elem: t, Args: []Value{ptr}})
}

func (x *Builder) Store(v, ptr Value) *Instr {
	return x.insert(&Instr{Op: OpStore, Elem: v.Type(), Args: []Value{v, ptr}})
}

// BinOp creates a two operand arithmetic or bitwise instruction.
// The result has the type of l.
func (x *Builder) BinOp(op Op, l, r Value) *Instr {
	return x.insert(&Instr{Op: op, Typ: l.Type(), Args: []Value{l, r}})
}

func (x *Builder) ICmp(pred string, l, r Value) *Instr {
	return x.insert(&Instr{Op: OpICmp, Typ: tp.Bool, Pred: pred, Args: []Value{l, r}})
}

func (x *Builder) FCmp(pred string, l, r Value) *Instr {
	return x.insert(&Instr{Op: OpFCmp, Typ: tp.Bool, Pred: pred, Args: []Value{l, r}})
}

// Not flips all bits of an integer value.
func (x *Builder) Not(v Value) *Instr {
	return x.BinOp(OpXor, v, ConstInt(v.Type(), -1))
}

// GEP0 returns the address of the first element of an array at ptr.
func (x *Builder) GEP0(elem tp.Type, ptr Value) *Instr {
	return x.insert(&Instr{
		Op:   OpGEP,
		Typ:  tp.Ptr{},
		Elem: elem,
		Args: []Value{ptr, ConstInt(tp.Int32, 0), ConstInt(tp.Int32, 0)},
	})
}

func (x *Builder) FPExt(v Value, t tp.Type) *Instr {
	return x.insert(&Instr{Op: OpFPExt, Typ: t, Args: []Value{v}})
}

func (x *Builder) ZExt(v Value, t tp.Type) *Instr {
	return x.insert(&Instr{Op: OpZExt, Typ: t, Args: []Value{v}})
}

func (x *Builder) Call(f *Func, args ...Value) *Instr {
	return x.insert(&Instr{Op: OpCall, Typ: f.Sig.Out, Callee: f, Args: args})
}

func (x *Builder) Br(b *Block) *Instr {
	return x.insert(&Instr{Op: OpBr, Targets: []*Block{b}})
}

func (x *Builder) CondBr(cond Value, then, otherwise *Block) *Instr {
	return x.insert(&Instr{Op: OpCondBr, Args: []Value{cond}, Targets: []*Block{then, otherwise}})
}

func (x *Builder) Ret(v Value) *Instr {
	return x.insert(&Instr{Op: OpRet, Args: []Value{v}})
}

func (x *Builder) RetVoid() *Instr {
	return x.insert(&Instr{Op: OpRet})
}

func (x *Builder) Unreachable() *Instr {
	return x.insert(&Instr{Op: OpUnreachable})
}

// IfThen emits a conditional block and continues after it.
func (x *Builder) IfThen(cond Value, then func() error) error {
	cur := x.b

	bif := x.AppendBlock(cur.Name + ".if")
	bend := x.AppendBlock(cur.Name + ".endif")

	x.CondBr(cond, bif, bend)

	x.PositionAtEnd(bif)

	if err := then(); err != nil {
		return err
	}

	if !x.b.Terminated() {
		x.Br(bend)
	}

	x.PositionAtEnd(bend)

	return nil
}

// IfElse emits both arms and continues after them.
func (x *Builder) IfElse(cond Value, then, otherwise func() error) error {
	cur := x.b

	bif := x.AppendBlock(cur.Name + ".if")
	belse := x.AppendBlock(cur.Name + ".else")
	bend := x.AppendBlock(cur.Name + ".endif")

	x.CondBr(cond, bif, belse)

	x.PositionAtEnd(bif)

	if err := then(); err != nil {
		return err
	}

	if !x.b.Terminated() {
		x.Br(bend)
	}

	x.PositionAtEnd(belse)

	if err := otherwise(); err != nil {
		return err
	}

	if !x.b.Terminated() {
		x.Br(bend)
	}

	x.PositionAtEnd(bend)

	return nil
}
