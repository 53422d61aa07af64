package compiler

import (
	"context"
	"os"
	"time"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/plang/plang/compiler/ast"
	"github.com/plang/plang/compiler/back"
	"github.com/plang/plang/compiler/compile"
	"github.com/plang/plang/compiler/ir"
	"github.com/plang/plang/compiler/lex"
	"github.com/plang/plang/compiler/parse"
)

type (
	Result struct {
		Value   int64
		Elapsed time.Duration
	}
)

const Entry = "main"

func CompileFile(ctx context.Context, name string) (m *ir.Module, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text)
}

// Compile turns program text into a verified module.
func Compile(ctx context.Context, name string, text []byte) (m *ir.Module, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile_file", "name", name)
	defer tr.Finish("err", &err)

	x, err := ParseText(ctx, text)
	if err != nil {
		return nil, err
	}

	m, err = compile.Compile(ctx, x, compile.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "compile")
	}

	err = ir.Verify(m)
	if err != nil {
		return nil, errors.Wrap(err, "verify")
	}

	return m, nil
}

// ParseText lexes and parses text into a module AST.
func ParseText(ctx context.Context, text []byte) (*ast.Module, error) {
	toks, err := lex.Lex(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}

	x, err := parse.Parse(ctx, toks)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	return x, nil
}

// Run executes the module entry point with the engine.
func Run(ctx context.Context, m *ir.Module, e back.Engine) (res Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "run", "module", m.Name)
	defer tr.Finish("res", &res.Value, "err", &err)

	start := time.Now()

	res.Value, err = e.Run(ctx, m, Entry)
	res.Elapsed = time.Since(start)
	if err != nil {
		return res, errors.Wrap(err, "run %v", Entry)
	}

	return res, nil
}
