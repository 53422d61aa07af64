package format

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plang/plang/compiler/ast"
	"github.com/plang/plang/compiler/parse"
)

const src = `def fact(n:int): int {
	if n <= 1 {
		return 1
	}
	return n * fact(n - 1)
}

def main(): int {
	x = 0
	y = 1.0
	until x >= 5 {
		x = x + 1
		if x == 2 {
			continue
		} else {
			y = y * 2.5
		}
	}
	while (x & 1) == 1 {
		break
	}
	printf("%d %s\n", fact(x), 'ok')
	return (x << 2) - -3
}
`

func TestFormatRoundTrip(t *testing.T) {
	ctx := context.Background()

	m, err := parse.Source(ctx, []byte(src))
	require.NoError(t, err)

	b, err := Format(ctx, nil, m)
	require.NoError(t, err)

	assert.Equal(t, src, string(b))

	m2, err := parse.Source(ctx, b)
	require.NoError(t, err)

	b2, err := Format(ctx, nil, m2)
	require.NoError(t, err)

	assert.Equal(t, string(b), string(b2))
}

func TestFormatExpr(t *testing.T) {
	ctx := context.Background()

	x := ast.NewExpression(ast.Pos{}, "+",
		ast.NewFloat(ast.Pos{}, 2),
		ast.NewExpression(ast.Pos{}, "*", ast.NewName(ast.Pos{}, "a"), ast.NewNumber(ast.Pos{}, -4)),
	)

	b, err := Format(ctx, nil, x)
	require.NoError(t, err)
	assert.Equal(t, "2.0 + (a * -4)", string(b))

	_, err = Format(ctx, nil, 3)
	assert.Error(t, err)
}

func TestFormatDeepNesting(t *testing.T) {
	ctx := context.Background()

	const depth = 20

	var sb strings.Builder

	sb.WriteString("def main(): int {\n\tx = 0\n")

	for i := 0; i < depth; i++ {
		sb.WriteString(strings.Repeat("\t", i+1) + "if x == 0 {\n")
	}

	sb.WriteString(strings.Repeat("\t", depth+1) + "return 1\n")

	for i := depth - 1; i >= 0; i-- {
		sb.WriteString(strings.Repeat("\t", i+1) + "}\n")
	}

	sb.WriteString("\treturn 0\n}\n")

	m, err := parse.Source(ctx, []byte(sb.String()))
	require.NoError(t, err)

	b, err := Format(ctx, nil, m)
	require.NoError(t, err)

	assert.Equal(t, sb.String(), string(b))
}

func TestFormatKeywordNames(t *testing.T) {
	ctx := context.Background()

	for _, x := range []any{
		ast.NewName(ast.Pos{}, "while"),
		ast.NewFuncCall(ast.Pos{}, "return", nil),
		ast.NewVarAssign(ast.Pos{}, "if", ast.NewNumber(ast.Pos{}, 1)),
		ast.NewDef(ast.Pos{}, "f", []ast.Param{{Name: "def", Type: "int"}}, "int", []ast.Stmt{ast.NewReturn(ast.Pos{}, ast.NewNumber(ast.Pos{}, 1))}),
	} {
		_, err := Format(ctx, nil, x)
		assert.Error(t, err, "%T", x)
	}
}
