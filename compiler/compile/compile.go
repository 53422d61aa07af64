package compile

import (
	"context"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/plang/plang/compiler/ast"
	"github.com/plang/plang/compiler/ir"
	"github.com/plang/plang/compiler/tp"
)

type (
	Options struct {
		ModuleName string
		Triple     string
	}

	// Context is the state of one compilation.
	Context struct {
		Module *ir.Module
		Symtab *Symtab

		b   *ir.Builder
		fn  *ir.Func
		def *ast.Def

		label int
		loops []loop

		printf *ir.Func
	}

	loop struct {
		until bool
		test  ast.Expr

		body *ir.Block
		post *ir.Block
	}
)

const Printf = "printf"

// Compile lowers m into an IR module with one function per def.
func Compile(ctx context.Context, m *ast.Module, opts Options) (_ *ir.Module, err error) {
	c := New(opts)

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "module", c.Module.Name)
	defer tr.Finish("err", &err)

	for _, s := range m.Body {
		d, ok := s.(*ast.Def)
		if !ok {
			return nil, newError(s.Position(), "top-level "+stmtKind(s)+", want def")
		}

		err = c.compileDef(ctx, d)
		if err != nil {
			return nil, errors.Wrap(err, "def %v", d.Name)
		}
	}

	tr.Printw("compiled", "funcs", len(c.Module.Funcs))

	return c.Module, nil
}

func New(opts Options) *Context {
	name := opts.ModuleName
	if name == "" {
		name = "main"
	}

	c := &Context{
		Module: ir.NewModule(name),
		Symtab: NewSymtab(),
	}

	c.Module.Triple = opts.Triple

	c.printf = c.Module.Declare(Printf, &tp.Func{In: []tp.Type{tp.Ptr{}}, Out: tp.Int32, Variadic: true})
	c.Symtab.BindGlobalFunc(Printf, c.printf, tp.Int32)

	return c
}

func (c *Context) compileDef(ctx context.Context, d *ast.Def) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile def", "name", d.Name, "line", d.Line)
	defer tr.Finish("err", &err)

	if _, ok := c.Symtab.Lookup(d.Name); ok {
		return newError(d.Pos, "function "+d.Name+" redefined")
	}

	ret, err := resolveType(d.Pos, d.Return)
	if err != nil {
		return err
	}

	sig := &tp.Func{Out: ret}
	names := make([]string, len(d.Params))

	for i, p := range d.Params {
		t, err := resolveType(d.Pos, p.Type)
		if err != nil {
			return errors.Wrap(err, "param %v", p.Name)
		}

		if tp.IsVoid(t) {
			return newError(d.Pos, "void parameter "+p.Name)
		}

		sig.In = append(sig.In, t)
		names[i] = p.Name
	}

	f := c.Module.NewFunc(d.Name, sig, names...)

	c.Symtab.BindFunc(d.Name, f, ret)

	c.Symtab.Push()
	defer c.Symtab.Pop()

	c.Symtab.BindFunc(d.Name, f, ret)

	c.fn, c.def = f, d
	c.b = ir.NewBuilder(f.AppendBlock(d.Name + "_entry"))

	defer func() {
		c.fn, c.def, c.b = nil, nil, nil
	}()

	for i, p := range d.Params {
		if sym, ok := c.Symtab.Lookup(p.Name); ok && sym.IsFunc() && p.Name != d.Name {
			return newError(d.Pos, "parameter "+p.Name+" shadows function")
		}

		sym, created := c.Symtab.Assign(p.Name, sig.In[i])
		if !created {
			return newError(d.Pos, "duplicate parameter "+p.Name)
		}

		ptr := c.b.Alloca(sig.In[i])
		c.Symtab.SetPtr(sym.Slot, ptr)
		c.b.Store(f.Params[i], ptr)
	}

	err = c.compileBlock(ctx, d.Body)
	if err != nil {
		return err
	}

	end := c.b.Block()

	switch {
	case end.Terminated():
	case tp.IsVoid(ret):
		c.b.RetVoid()
	case !reachable(f, end):
		c.b.Unreachable()
	default:
		return newError(d.Pos, "missing return in "+d.Name)
	}

	live := ir.Reachable(f)

	tr.Printw("function", "blocks", len(f.Blocks), "reachable", live.Size(), "slots", len(c.Symtab.slots))

	return nil
}

func (c *Context) compileBlock(ctx context.Context, l []ast.Stmt) (err error) {
	for _, s := range l {
		if c.b.Block().Terminated() {
			return newError(s.Position(), "unreachable code")
		}

		err = c.compileStmt(ctx, s)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Context) compileStmt(ctx context.Context, s ast.Stmt) (err error) {
	if tr := tlog.SpanFromContext(ctx); tr.If("compile_stmt") {
		tr.Printw("statement", "line", s.Position().Line, "block", c.b.Block().Name, "typ", tlog.NextAsType, s)
	}

	switch s := s.(type) {
	case *ast.Def:
		return newError(s.Pos, "nested def "+s.Name)
	case *ast.VarAssign:
		return c.compileAssign(ctx, s)
	case *ast.Return:
		return c.compileReturn(ctx, s)
	case *ast.If:
		return c.compileIf(ctx, s)
	case *ast.While:
		return c.compileLoop(ctx, s.Pos, false, s.Test, s.Body)
	case *ast.Until:
		return c.compileLoop(ctx, s.Pos, true, s.Test, s.Body)
	case *ast.Break:
		l, ok := c.innerLoop()
		if !ok {
			return newError(s.Pos, "break outside of loop")
		}

		c.b.Br(l.post)

		return nil
	case *ast.Continue:
		l, ok := c.innerLoop()
		if !ok {
			return newError(s.Pos, "continue outside of loop")
		}

		return c.loopBack(ctx, l)
	case *ast.FuncCall:
		_, _, err = c.compileCall(ctx, s)
		return err
	default:
		return errors.New("unsupported statement: %T", s)
	}
}

func (c *Context) compileAssign(ctx context.Context, s *ast.VarAssign) error {
	v, t, err := c.compileExpr(ctx, s.Value)
	if err != nil {
		return err
	}

	if tp.IsVoid(t) {
		return newError(s.Pos, "void value assigned to "+s.Name)
	}

	if sym, ok := c.Symtab.Lookup(s.Name); ok && sym.IsFunc() {
		return newError(s.Pos, "cannot assign to function "+s.Name)
	}

	sym, created := c.Symtab.Assign(s.Name, t)

	if created {
		ptr := c.b.Alloca(t)
		c.Symtab.SetPtr(sym.Slot, ptr)
		c.b.Store(v, ptr)

		return nil
	}

	slot := c.Symtab.Slot(sym.Slot)

	if !tp.Equal(slot.Type, t) {
		return &TypeMismatchError{What: "assignment", Name: s.Name, Want: slot.Type, Got: t, Pos: s.Pos}
	}

	c.b.Store(v, slot.Ptr)

	return nil
}

func (c *Context) compileReturn(ctx context.Context, s *ast.Return) error {
	v, t, err := c.compileExpr(ctx, s.Value)
	if err != nil {
		return err
	}

	want := c.fn.Sig.Out

	if !tp.Equal(want, t) {
		return &TypeMismatchError{What: "return", Name: c.def.Name, Want: want, Got: t, Pos: s.Pos}
	}

	if tp.IsVoid(t) {
		c.b.RetVoid()
	} else {
		c.b.Ret(v)
	}

	return nil
}

func (c *Context) compileIf(ctx context.Context, s *ast.If) error {
	test, err := c.compileCond(ctx, s.Test, "if")
	if err != nil {
		return err
	}

	then := func() error {
		return c.compileBlock(ctx, s.Body)
	}

	if len(s.Orelse) == 0 {
		return c.b.IfThen(test, then)
	}

	return c.b.IfElse(test, then, func() error {
		return c.compileBlock(ctx, s.Orelse)
	})
}

// compileLoop emits
//
//	test; br test, body, post
//	body: ...; test; br test, body, post
//	post:
//
// until loops invert the test.
func (c *Context) compileLoop(ctx context.Context, pos ast.Pos, until bool, test ast.Expr, body []ast.Stmt) error {
	kind := "while"
	if until {
		kind = "until"
	}

	cond, err := c.loopTest(ctx, kind, until, test)
	if err != nil {
		return err
	}

	n := strconv.Itoa(c.nextLabel())

	l := loop{
		until: until,
		test:  test,
		body:  c.b.AppendBlock(kind + "_loop_entry" + n),
		post:  c.b.AppendBlock(kind + "_loop_otherwise" + n),
	}

	c.b.CondBr(cond, l.body, l.post)
	c.b.PositionAtEnd(l.body)

	c.loops = append(c.loops, l)

	err = c.compileBlock(ctx, body)

	c.loops = c.loops[:len(c.loops)-1]

	if err != nil {
		return errors.Wrap(err, "%v loop at line %d", kind, pos.Line)
	}

	if !c.b.Block().Terminated() {
		err = c.loopBack(ctx, l)
		if err != nil {
			return err
		}
	}

	c.b.PositionAtEnd(l.post)

	return nil
}

// loopBack re-evaluates the loop test and branches to the body or out of the loop.
func (c *Context) loopBack(ctx context.Context, l loop) error {
	kind := "while"
	if l.until {
		kind = "until"
	}

	cond, err := c.loopTest(ctx, kind, l.until, l.test)
	if err != nil {
		return err
	}

	c.b.CondBr(cond, l.body, l.post)

	return nil
}

func (c *Context) loopTest(ctx context.Context, kind string, until bool, test ast.Expr) (ir.Value, error) {
	cond, err := c.compileCond(ctx, test, kind)
	if err != nil {
		return nil, err
	}

	if until {
		cond = c.b.Not(cond)
	}

	return cond, nil
}

func (c *Context) compileCond(ctx context.Context, x ast.Expr, what string) (ir.Value, error) {
	v, t, err := c.compileExpr(ctx, x)
	if err != nil {
		return nil, err
	}

	if !tp.Equal(t, tp.Bool) {
		return nil, &TypeMismatchError{What: what + " condition", Want: tp.Bool, Got: t, Pos: x.Position()}
	}

	return v, nil
}

func (c *Context) innerLoop() (loop, bool) {
	if len(c.loops) == 0 {
		return loop{}, false
	}

	return c.loops[len(c.loops)-1], true
}

func (c *Context) nextLabel() int {
	c.label++
	return c.label
}

func resolveType(pos ast.Pos, name string) (tp.Type, error) {
	t, ok := tp.ByName(name)
	if !ok {
		return nil, newError(pos, "unknown type "+strconv.Quote(name))
	}

	return t, nil
}

func reachable(f *ir.Func, b *ir.Block) bool {
	s := ir.Reachable(f)

	return s.Has(f.Index(b))
}

func stmtKind(s ast.Stmt) string {
	switch s.(type) {
	case *ast.VarAssign:
		return "assignment"
	case *ast.Return:
		return "return"
	case *ast.If:
		return "if"
	case *ast.While:
		return "while"
	case *ast.Until:
		return "until"
	case *ast.Break:
		return "break"
	case *ast.Continue:
		return "continue"
	case *ast.FuncCall:
		return "call"
	case *ast.Def:
		return "def"
	default:
		return "statement"
	}
}
