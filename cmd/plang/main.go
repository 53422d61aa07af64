package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/plang/plang/compiler"
	"github.com/plang/plang/compiler/back"
	"github.com/plang/plang/compiler/format"
	"github.com/plang/plang/compiler/lex"
)

const usage = "usage: plang [flags] <file>"

func main() {
	runCmd := &cli.Command{
		Name:        "run",
		Description: "compile file, print ir, run main",
		Action:      runAct,
		Args:        cli.Args{},
	}

	irCmd := &cli.Command{
		Name:        "ir",
		Description: "compile file and print ir",
		Action:      irAct,
		Args:        cli.Args{},
	}

	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "parse file and print formatted ast",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	tokensCmd := &cli.Command{
		Name:        "tokens",
		Description: "print file tokens",
		Action:      tokensAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "plang",
		Description: "plang compiles and runs plang source files",
		Action:      runAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("engine", "interp", "execution engine: interp, lli, clang"),
			cli.NewFlag("verbose,v", "", "tlog verbosity topics (lex,parse,compile)"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			runCmd,
			irCmd,
			parseCmd,
			tokensCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func setup(c *cli.Command) (context.Context, string, error) {
	if len(c.Args) != 1 {
		fmt.Fprintln(os.Stderr, usage)

		return nil, "", errors.New("want one file, got %d args", len(c.Args))
	}

	tlog.SetVerbosity(c.String("verbose"))

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return ctx, c.Args[0], nil
}

func runAct(c *cli.Command) (err error) {
	ctx, name, err := setup(c)
	if err != nil {
		return err
	}

	e, err := back.New(c.String("engine"), os.Stdout)
	if err != nil {
		return errors.Wrap(err, "engine")
	}

	m, err := compiler.CompileFile(ctx, name)
	if err != nil {
		return errors.Wrap(err, "compile %v", name)
	}

	fmt.Printf("%s\n", m)

	res, err := compiler.Run(ctx, m, e)
	if err != nil {
		return errors.Wrap(err, "%v", name)
	}

	fmt.Printf("It returns %d\n", res.Value)
	fmt.Printf("Executed in %f sec\n", res.Elapsed.Seconds())

	return nil
}

func irAct(c *cli.Command) (err error) {
	ctx, name, err := setup(c)
	if err != nil {
		return err
	}

	m, err := compiler.CompileFile(ctx, name)
	if err != nil {
		return errors.Wrap(err, "compile %v", name)
	}

	fmt.Printf("%s", m)

	return nil
}

func parseAct(c *cli.Command) (err error) {
	ctx, name, err := setup(c)
	if err != nil {
		return err
	}

	text, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "read file")
	}

	x, err := compiler.ParseText(ctx, text)
	if err != nil {
		return errors.Wrap(err, "%v", name)
	}

	b, err := format.Format(ctx, nil, x)
	if err != nil {
		return errors.Wrap(err, "format")
	}

	_, err = os.Stdout.Write(b)

	return err
}

func tokensAct(c *cli.Command) (err error) {
	ctx, name, err := setup(c)
	if err != nil {
		return err
	}

	text, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "read file")
	}

	toks, err := lex.Lex(ctx, text)
	if err != nil {
		return errors.Wrap(err, "%v", name)
	}

	for _, t := range toks {
		fmt.Printf("%4d  %v\n", t.Line, t)
	}

	return nil
}
