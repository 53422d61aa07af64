package compile

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plang/plang/compiler/ir"
	"github.com/plang/plang/compiler/parse"
	"github.com/plang/plang/compiler/tp"
)

func compileString(t *testing.T, src string) *ir.Module {
	t.Helper()

	ctx := context.Background()

	m, err := parse.Source(ctx, []byte(src))
	require.NoError(t, err)

	mod, err := Compile(ctx, m, Options{})
	require.NoError(t, err)

	require.NoError(t, ir.Verify(mod), "%v", mod)

	return mod
}

func compileError(t *testing.T, src string) error {
	t.Helper()

	ctx := context.Background()

	m, err := parse.Source(ctx, []byte(src))
	require.NoError(t, err)

	mod, err := Compile(ctx, m, Options{})
	require.Error(t, err)
	assert.Nil(t, mod)

	return err
}

func blockNames(f *ir.Func) (l []string) {
	for _, b := range f.Blocks {
		l = append(l, b.Name)
	}

	return l
}

func TestReturnConst(t *testing.T) {
	mod := compileString(t, `def main(): int { return 41 + 1 }`)

	require.Len(t, mod.Funcs, 2)
	assert.Equal(t, "printf", mod.Funcs[0].Name)
	assert.True(t, mod.Funcs[0].Decl())

	f := mod.Func("main")
	require.NotNil(t, f)

	text := f.String()
	assert.Contains(t, text, "define i32 @main() {")
	assert.Contains(t, text, "main_entry:")
	assert.Contains(t, text, "add i32 41, 1")
	assert.Contains(t, text, "ret i32 %.1")

	assert.Contains(t, mod.String(), "declare i32 @printf(ptr, ...)")
}

func TestParams(t *testing.T) {
	mod := compileString(t, `def add(a:int, b:float): float { x = b; return x }`)

	f := mod.Func("add")
	assert.Equal(t, &tp.Func{In: []tp.Type{tp.Int32, tp.Float32}, Out: tp.Float32}, f.Sig)

	entry := f.Entry()

	var allocas int
	for _, in := range entry.Instrs {
		if in.Op == ir.OpAlloca {
			allocas++
		}
	}

	assert.Equal(t, 3, allocas)
}

func TestIndependentLocals(t *testing.T) {
	mod := compileString(t, `
def a(): int {
	x = 1
	return x
}

def b(): int {
	x = 2.5
	x = 3.5
	return 7
}`)

	fa, fb := mod.Func("a"), mod.Func("b")

	for _, in := range fa.Entry().Instrs {
		for _, arg := range in.Args {
			if a, ok := arg.(*ir.Instr); ok {
				assert.Equal(t, fa, a.Block.Func)
			}
		}
	}

	assert.Contains(t, fb.String(), "alloca float")
}

func TestRecursion(t *testing.T) {
	mod := compileString(t, `
def fact(n:int): int {
	if n <= 1 {
		return 1
	}
	return n * fact(n - 1)
}`)

	f := mod.Func("fact")
	assert.Contains(t, f.String(), "call i32 @fact(i32 %.")
	assert.Equal(t, []string{"fact_entry", "fact_entry.if", "fact_entry.endif"}, blockNames(f))
}

func TestLoops(t *testing.T) {
	mod := compileString(t, `
def main(): int {
	x = 0
	while x < 5 { x = x + 1 }
	until x >= 10 { x = x + 1 }
	while x < 20 {
		x = x + 1
		while x < 3 { x = x + 1 }
	}
	return x
}`)

	f := mod.Func("main")

	assert.Equal(t, []string{
		"main_entry",
		"while_loop_entry1", "while_loop_otherwise1",
		"until_loop_entry2", "until_loop_otherwise2",
		"while_loop_entry3", "while_loop_otherwise3",
		"while_loop_entry4", "while_loop_otherwise4",
	}, blockNames(f))

	text := f.String()
	assert.Contains(t, text, "xor i1 %")
	assert.Contains(t, text, ", true")
	assert.Contains(t, text, "icmp sge i32")
}

func TestLabelCounterPerCompilation(t *testing.T) {
	src := `def main(): int { x = 0; while x < 5 { x = x + 1 }; return x }`

	for i := 0; i < 2; i++ {
		mod := compileString(t, src)
		assert.Contains(t, blockNames(mod.Func("main")), "while_loop_entry1")
	}
}

func TestBreakContinue(t *testing.T) {
	mod := compileString(t, `
def main(): int {
	x = 0
	while x < 10 {
		x = x + 1
		if x == 3 {
			continue
		}
		if x == 7 {
			break
		}
	}
	return x
}`)

	f := mod.Func("main")

	var brToPost, condBrs int

	for _, b := range f.Blocks {
		term := b.Terminator()
		require.NotNil(t, term, b.Name)

		switch term.Op {
		case ir.OpBr:
			if term.Targets[0].Name == "while_loop_otherwise1" {
				brToPost++
			}
		case ir.OpCondBr:
			if term.Targets[0].Name == "while_loop_entry1" {
				condBrs++
			}
		}
	}

	assert.Equal(t, 1, brToPost)
	assert.Equal(t, 3, condBrs) // entry, continue and body tail
}

func TestBitwiseKeepsWidth(t *testing.T) {
	mod := compileString(t, `
def main(): int {
	x = (6 & 3) + (1 << 4) + (9 >> 1) + (5 | 2) + (5 ^ 1)
	b = (1 < 2) & (2 < 3)
	if b { return x }
	return 0
}`)

	text := mod.Func("main").String()
	assert.Contains(t, text, "and i32 6, 3")
	assert.Contains(t, text, "shl i32 1, 4")
	assert.Contains(t, text, "ashr i32 9, 1")
	assert.Contains(t, text, "and i1 ")
}

func TestFloatOps(t *testing.T) {
	mod := compileString(t, `
def main(): int {
	x = 1.5 * 2.0 - 0.5
	if x > 2.0 { return 1 }
	return 0
}`)

	text := mod.Func("main").String()
	assert.Contains(t, text, "fmul float 0x3FF8000000000000, 0x4000000000000000")
	assert.Contains(t, text, "fcmp ogt float")
}

func TestPrintf(t *testing.T) {
	mod := compileString(t, `
def main(): int {
	n = printf("%d %f %d %s\n", 7, 2.5, 1 < 2, 'hi')
	return n
}`)

	text := mod.Func("main").String()

	assert.Contains(t, text, `c"%d %f %d %s\0A\00\00"`)
	assert.Contains(t, text, "alloca [14 x i8]")
	assert.Contains(t, text, "getelementptr [14 x i8], ptr %")
	assert.Contains(t, text, "fpext float 0x4004000000000000 to double")
	assert.Contains(t, text, "zext i1 %")
	assert.Contains(t, text, `c"hi\00"`)
	assert.Contains(t, text, "call i32 (ptr, ...) @printf(ptr %")
}

func TestMaterialize(t *testing.T) {
	assert.Equal(t, []byte("%d\n\x00\x00"), materialize(`"%d\n"`))
	assert.Equal(t, []byte("abc\x00"), materialize(`'abc'`))
	assert.Equal(t, []byte("\x00"), materialize(`""`))
	assert.Equal(t, []byte("a\n\x00b\x00"), materialize(`"a\nb"`))
}

func TestVoidFunc(t *testing.T) {
	mod := compileString(t, `
def hello(): void {
	printf("hello\n")
}

def main(): int {
	hello()
	return 0
}`)

	text := mod.Func("hello").String()
	assert.Contains(t, text, "define void @hello() {")
	assert.Contains(t, text, "ret void")
	assert.Contains(t, mod.Func("main").String(), "call void @hello()")
}

func TestUnreachableTail(t *testing.T) {
	mod := compileString(t, `
def sign(x:int): int {
	if x < 0 {
		return -1
	} else {
		return 1
	}
}`)

	f := mod.Func("sign")
	last := f.Blocks[len(f.Blocks)-1]

	assert.Equal(t, "sign_entry.endif", last.Name)
	assert.Equal(t, ir.OpUnreachable, last.Terminator().Op)
}

func TestMixedOperands(t *testing.T) {
	err := compileError(t, `def main(): int { x = 1 + 2.0; return 0 }`)

	var e *UnsupportedOperandsError
	require.ErrorAs(t, err, &e)

	assert.Equal(t, "+", e.Op)
	assert.Equal(t, tp.Int32, e.L)
	assert.Equal(t, tp.Float32, e.R)
	assert.Equal(t, 1, e.Pos.Line)
	assert.Contains(t, err.Error(), "int and float")
}

func TestUnsupportedOperands(t *testing.T) {
	for _, src := range []string{
		`def main(): int { x = 1.0 << 2.0; return 0 }`,
		`def main(): int { x = (1 < 2) + (2 < 3); return 0 }`,
		`def main(): int { x = 'a' + 'b'; return 0 }`,
	} {
		err := compileError(t, src)

		var e *UnsupportedOperandsError
		assert.ErrorAs(t, err, &e, src)
	}
}

func TestUndefinedSymbol(t *testing.T) {
	for _, tc := range []struct {
		src  string
		name string
		line int
	}{
		{"def main(): int {\n return y\n}", "y", 2},
		{"def main(): int {\n\n return nope(1)\n}", "nope", 3},
		{"def f(): int { x = 1; return x }\ndef main(): int {\n return x\n}", "x", 3},
	} {
		err := compileError(t, tc.src)

		var e *UndefinedSymbolError
		require.ErrorAs(t, err, &e, tc.src)

		assert.Equal(t, tc.name, e.Name)
		assert.Equal(t, tc.line, e.Pos.Line)
	}
}

func TestTypeMismatch(t *testing.T) {
	for _, tc := range []struct {
		src  string
		what string
	}{
		{`def main(): int { return 1.5 }`, "return"},
		{`def main(): int { x = 1; x = 2.5; return x }`, "assignment"},
		{`def main(): int { if 1 { return 1 }; return 0 }`, "if condition"},
		{`def main(): int { while 1 { return 1 }; return 0 }`, "while condition"},
		{`def main(): int { printf(1); return 0 }`, "argument"},
	} {
		err := compileError(t, tc.src)

		var e *TypeMismatchError
		require.ErrorAs(t, err, &e, tc.src)
		assert.Equal(t, tc.what, e.What, tc.src)
	}
}

func TestCompileErrors(t *testing.T) {
	for _, tc := range []struct {
		src string
		msg string
	}{
		{`x = 1`, "top-level assignment"},
		{`def main(): int { return 1 }; def main(): int { return 2 }`, "redefined"},
		{`def main(): nope { return 1 }`, `unknown type "nope"`},
		{`def main(): int { x = 1 }`, "missing return"},
		{`def main(): int { return 1; x = 2 }`, "unreachable code"},
		{`def main(): int { break }`, "break outside of loop"},
		{`def main(): int { continue }`, "continue outside of loop"},
		{`def main(): int { while 1 < 2 { break; x = 1 }; return 0 }`, "unreachable code"},
		{`def main(): int { x = main; return 0 }`, "used as value"},
		{`def main(): int { x = 1; return x(2) }`, "is not a function"},
		{`def main(): int { main = 1; return 0 }`, "cannot assign to function"},
		{`def main(): int { printf = 3; return 0 }`, "cannot assign to function printf"},
		{"def g(): int { return 1 }\ndef main(): int { g = 2; return g }", "cannot assign to function g"},
		{`def f(printf:int): int { return printf }`, "parameter printf shadows function"},
		{`def f(a:int, a:int): int { return a }`, "duplicate parameter"},
		{`def f(): void { printf("x") }` + "\n" + `def main(): int { x = f(); return 0 }`, "void value"},
		{`def main(): int { def g(): int { return 1 }; return 0 }`, "nested def"},
	} {
		err := compileError(t, tc.src)
		assert.True(t, strings.Contains(err.Error(), tc.msg), "%v: %v", tc.src, err)
	}
}

func TestOptions(t *testing.T) {
	ctx := context.Background()

	m, err := parse.Source(ctx, []byte(`def main(): int { return 0 }`))
	require.NoError(t, err)

	mod, err := Compile(ctx, m, Options{ModuleName: "prog", Triple: "x86_64-pc-linux-gnu"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(mod.String(), "; ModuleID = \"prog\"\ntarget triple = \"x86_64-pc-linux-gnu\"\n"))
}
