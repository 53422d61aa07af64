// Package cases extracts compiler test cases from markdown documents.
//
// A case starts with a heading "Test: <name>" followed by one plang fence
// with the program and one or more assertion fences:
//
//	returns        value main returns
//	execute        exact program output
//	compile-error  substring of the compile error
//	ir             lines that must appear in the IR, in order
package cases

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"tlog.app/go/errors"
)

type (
	AssertionType string

	Assertion struct {
		Type    AssertionType
		Content string
		Line    int
	}

	TestCase struct {
		Name  string
		Input string
		Line  int

		Assertions []Assertion
	}
)

const InputFence = "plang"

const (
	Returns      AssertionType = "returns"
	Execute      AssertionType = "execute"
	CompileError AssertionType = "compile-error"
	IR           AssertionType = "ir"
)

const headingPrefix = "Test: "

// Extract parses a markdown document and returns its test cases in order.
func Extract(src []byte) (tcs []TestCase, err error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var cur *TestCase

	flush := func() error {
		if cur == nil {
			return nil
		}

		if cur.Input == "" {
			return errors.New("line %d: test %q has no %v fence", cur.Line, cur.Name, InputFence)
		}

		if len(cur.Assertions) == 0 {
			return errors.New("line %d: test %q has no assertions", cur.Line, cur.Name)
		}

		tcs = append(tcs, *cur)
		cur = nil

		return nil
	}

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := n.(type) {
		case *ast.Heading:
			title := nodeText(n, src)
			if !strings.HasPrefix(title, headingPrefix) {
				return ast.WalkSkipChildren, nil
			}

			if err := flush(); err != nil {
				return ast.WalkStop, err
			}

			cur = &TestCase{
				Name: strings.TrimPrefix(title, headingPrefix),
				Line: lineOf(n, src),
			}

			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			lang := string(n.Language(src))
			line := lineOf(n, src)

			if lang == "" {
				return ast.WalkContinue, nil
			}

			if cur == nil {
				return ast.WalkStop, errors.New("line %d: %v fence outside of test case", line, lang)
			}

			content := fenceContent(n, src)

			switch t := AssertionType(lang); t {
			case Returns, Execute, CompileError, IR:
				if t != Execute {
					content = strings.TrimRight(content, "\n")
				}

				cur.Assertions = append(cur.Assertions, Assertion{Type: t, Content: content, Line: line})
			default:
				if lang != InputFence {
					return ast.WalkStop, errors.New("line %d: unknown fence %q in test %q", line, lang, cur.Name)
				}

				if cur.Input != "" {
					return ast.WalkStop, errors.New("line %d: second %v fence in test %q", line, lang, cur.Name)
				}

				cur.Input = content
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	if err = flush(); err != nil {
		return nil, err
	}

	return tcs, nil
}

func nodeText(n ast.Node, src []byte) string {
	var b bytes.Buffer

	_ = ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
		}

		return ast.WalkContinue, nil
	})

	return b.String()
}

func fenceContent(n *ast.FencedCodeBlock, src []byte) string {
	var b bytes.Buffer

	lines := n.Lines()

	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}

	return b.String()
}

func lineOf(n ast.Node, src []byte) int {
	var pos int

	switch {
	case n.Lines().Len() != 0:
		pos = n.Lines().At(0).Start
	case n.HasChildren():
		if t, ok := n.FirstChild().(*ast.Text); ok {
			pos = t.Segment.Start
		}
	}

	if pos > len(src) {
		pos = len(src)
	}

	return 1 + bytes.Count(src[:pos], []byte{'\n'})
}
