package ir

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plang/plang/compiler/tp"
)

func TestPrintFunc(t *testing.T) {
	m := NewModule("main")
	m.Triple = "x86_64-unknown-linux-gnu"

	printf := m.Declare("printf", &tp.Func{In: []tp.Type{tp.Ptr{}}, Out: tp.Int32, Variadic: true})

	f := m.NewFunc("add", &tp.Func{In: []tp.Type{tp.Int32, tp.Int32}, Out: tp.Int32}, "a", "b")
	b := NewBuilder(f.AppendBlock("add_entry"))

	s := b.Alloca(tp.Int32)
	b.Store(b.BinOp(OpAdd, f.Params[0], f.Params[1]), s)
	v := b.Load(tp.Int32, s)

	str := b.Alloca(tp.Str(4))
	b.Store(ConstBytes([]byte("%d\n\x00")), str)
	p := b.GEP0(tp.Str(4), str)
	b.Call(printf, p, v)
	b.Ret(v)

	require.NoError(t, Verify(m))

	want := `; ModuleID = "main"
target triple = "x86_64-unknown-linux-gnu"

declare i32 @printf(ptr, ...)

define i32 @add(i32 %a, i32 %b) {
add_entry:
  %.1 = alloca i32
  %.4 = alloca [4 x i8]
  %.2 = add i32 %a, %b
  store i32 %.2, ptr %.1
  %.3 = load i32, ptr %.1
  store [4 x i8] c"%d\0A\00", ptr %.4
  %.5 = getelementptr [4 x i8], ptr %.4, i32 0, i32 0
  %.6 = call i32 (ptr, ...) @printf(ptr %.5, i32 %.3)
  ret i32 %.3
}
`

	assert.Equal(t, want, m.String())
}

func TestConstIdent(t *testing.T) {
	assert.Equal(t, "true", ConstBool(true).Ident())
	assert.Equal(t, "false", ConstBool(false).Ident())
	assert.Equal(t, "-7", ConstInt(tp.Int32, -7).Ident())
	assert.Equal(t, "0x3FF0000000000000", ConstFloat(tp.Double, 1).Ident())
	assert.Equal(t, "0x4004000000000000", ConstFloat(tp.Float32, 2.5).Ident())
	assert.Equal(t, "0x3FB99999A0000000", ConstFloat(tp.Float32, 0.1).Ident())
	assert.Equal(t, `c"a\22b\5C\00"`, ConstBytes([]byte("a\"b\\\x00")).Ident())
}

func TestIfElseBlocks(t *testing.T) {
	m := NewModule("m")
	f := m.NewFunc("f", &tp.Func{In: []tp.Type{tp.Bool}, Out: tp.Int32}, "c")
	b := NewBuilder(f.AppendBlock("f_entry"))

	err := b.IfElse(f.Params[0], func() error {
		b.Ret(ConstInt(tp.Int32, 1))
		return nil
	}, func() error {
		return nil
	})
	require.NoError(t, err)

	err = b.IfThen(ConstBool(true), func() error { return nil })
	require.NoError(t, err)

	b.Ret(ConstInt(tp.Int32, 2))

	var names []string
	for _, bl := range f.Blocks {
		names = append(names, bl.Name)
	}

	assert.Equal(t, []string{"f_entry", "f_entry.if", "f_entry.else", "f_entry.endif", "f_entry.endif.if", "f_entry.endif.endif"}, names)

	// then arm returned, so it has no branch to endif
	assert.Len(t, f.Blocks[1].Instrs, 1)
	assert.Equal(t, OpBr, f.Blocks[2].Terminator().Op)

	require.NoError(t, Verify(m))
}

func TestUniqueBlockNames(t *testing.T) {
	m := NewModule("m")
	f := m.NewFunc("f", &tp.Func{Out: tp.Void{}})

	a := f.AppendBlock("loop")
	b := f.AppendBlock("loop")
	c := f.AppendBlock("loop")

	assert.Equal(t, "loop", a.Name)
	assert.Equal(t, "loop.1", b.Name)
	assert.Equal(t, "loop.2", c.Name)
}

func TestVerifyErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		build func(m *Module, f *Func, b *Builder)
		msg   string
	}{
		{"unterminated", func(m *Module, f *Func, b *Builder) {
			b.Alloca(tp.Int32)
		}, "not terminated"},
		{"middle", func(m *Module, f *Func, b *Builder) {
			b.Ret(ConstInt(tp.Int32, 1))
			b.Ret(ConstInt(tp.Int32, 1))
		}, "middle"},
		{"ret_type", func(m *Module, f *Func, b *Builder) {
			b.Ret(ConstFloat(tp.Float32, 1))
		}, "returned float, want i32"},
		{"binop", func(m *Module, f *Func, b *Builder) {
			b.Ret(b.BinOp(OpAdd, ConstInt(tp.Int32, 1), ConstFloat(tp.Float32, 1)))
		}, "mismatch"},
		{"fadd_int", func(m *Module, f *Func, b *Builder) {
			b.Ret(b.BinOp(OpFAdd, ConstInt(tp.Int32, 1), ConstInt(tp.Int32, 1)))
		}, "not allowed"},
		{"store", func(m *Module, f *Func, b *Builder) {
			s := b.Alloca(tp.Int32)
			b.Store(ConstFloat(tp.Float32, 1), s)
			b.Ret(ConstInt(tp.Int32, 1))
		}, "slot type"},
		{"cond", func(m *Module, f *Func, b *Builder) {
			x := f.AppendBlock("x")
			b.CondBr(ConstInt(tp.Int32, 1), x, x)
			b.PositionAtEnd(x)
			b.Ret(ConstInt(tp.Int32, 1))
		}, "conditional"},
		{"call_arity", func(m *Module, f *Func, b *Builder) {
			b.Call(f, ConstInt(tp.Int32, 1))
			b.Ret(ConstInt(tp.Int32, 1))
		}, "number of arguments"},
		{"foreign_block", func(m *Module, f *Func, b *Builder) {
			g := m.NewFunc("g", &tp.Func{Out: tp.Void{}})
			b.Br(g.AppendBlock("g_entry"))
		}, "foreign block"},
		{"empty", func(m *Module, f *Func, b *Builder) {
			b.Ret(ConstInt(tp.Int32, 1))
			f.AppendBlock("dangling")
		}, "empty block"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := NewModule("m")
			f := m.NewFunc("f", &tp.Func{Out: tp.Int32})
			b := NewBuilder(f.AppendBlock("f_entry"))

			tc.build(m, f, b)

			err := Verify(m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.True(t, strings.Contains(err.Error(), tc.msg), "%v", err)
		})
	}
}

func TestReachable(t *testing.T) {
	m := NewModule("m")
	f := m.NewFunc("f", &tp.Func{Out: tp.Int32})

	entry := f.AppendBlock("entry")
	a := f.AppendBlock("a")
	dead := f.AppendBlock("dead")
	c := f.AppendBlock("c")

	b := NewBuilder(entry)
	b.CondBr(ConstBool(true), a, c)

	b.PositionAtEnd(a)
	b.Br(c)

	b.PositionAtEnd(dead)
	b.Br(c)

	b.PositionAtEnd(c)
	b.Ret(ConstInt(tp.Int32, 0))

	s := Reachable(f)

	assert.Equal(t, 3, s.Size())
	assert.True(t, s.Has(f.Index(c)))
	assert.False(t, s.Has(f.Index(dead)))
	assert.False(t, s.Has(-1))

	var idx []int

	s.Range(func(i int) bool {
		idx = append(idx, i)
		return true
	})

	assert.Equal(t, []int{0, 1, 3}, idx)
}
