package lex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) (r []Kind) {
	for _, t := range toks {
		r = append(r, t.Kind)
	}

	return r
}

func TestNumbers(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		src string
		val int64
	}{
		{"0", 0},
		{"00", 0},
		{"0_0", 0},
		{"7", 7},
		{"42", 42},
		{"1_000_000", 1000000},
		{"0x1F", 31},
		{"0X_ff", 255},
		{"0b1011", 11},
		{"0B_1_0", 2},
		{"0o17", 15},
		{"0O777", 511},
		{"2147483647", 2147483647},
	} {
		toks, err := Lex(ctx, []byte(tc.src))
		require.NoError(t, err, tc.src)
		require.Equal(t, []Kind{NUMBER, EOF}, kinds(toks), tc.src)

		v, err := toks[0].Int()
		require.NoError(t, err, tc.src)
		assert.Equal(t, tc.val, v, tc.src)
	}
}

func TestFloats(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		src string
		val float64
	}{
		{"1.5", 1.5},
		{"1.", 1},
		{".25", 0.25},
		{"1e3", 1000},
		{"2.5E-1", 0.25},
		{"1_0.0_1", 10.01},
	} {
		toks, err := Lex(ctx, []byte(tc.src))
		require.NoError(t, err, tc.src)
		require.Equal(t, []Kind{FLOAT, EOF}, kinds(toks), tc.src)

		v, err := toks[0].Float()
		require.NoError(t, err, tc.src)
		assert.InDelta(t, tc.val, v, 1e-12, tc.src)
	}
}

func TestNumberSplits(t *testing.T) {
	ctx := context.Background()

	toks, err := Lex(ctx, []byte("012 0x 1e"))
	require.NoError(t, err)

	var texts []string
	for _, tk := range toks[:len(toks)-1] {
		texts = append(texts, tk.Text)
	}

	assert.Equal(t, []string{"0", "12", "0", "x", "1", "e"}, texts)
	assert.Equal(t, []Kind{NUMBER, NUMBER, NUMBER, NAME, NUMBER, NAME, EOF}, kinds(toks))
}

func TestKeywordsAndNames(t *testing.T) {
	toks, err := Lex(context.Background(), []byte("if else def return while until break continue iffy _x1 Def"))
	require.NoError(t, err)

	assert.Equal(t, []Kind{IF, ELSE, DEF, RETURN, WHILE, UNTIL, BREAK, CONTINUE, NAME, NAME, NAME, EOF}, kinds(toks))
	assert.True(t, IsKeyword("until"))
	assert.False(t, IsKeyword("printf"))
}

func TestOperators(t *testing.T) {
	toks, err := Lex(context.Background(), []byte("<< >> <= >= == != < > = + - * / % & | ^ ( ) { } : , ;"))
	require.NoError(t, err)

	assert.Equal(t, []Kind{
		LSHIFT, RSHIFT, LE, GE, EQEQ, NE, LT, GT, EQ,
		PLUS, MINUS, TIMES, DIVIDE, MOD, AND, OR, XOR,
		LPAREN, RPAREN, LBRACE, RBRACE, COLON, COMMA, SEMI, EOF,
	}, kinds(toks))

	toks, err = Lex(context.Background(), []byte("a<<=b"))
	require.NoError(t, err)
	assert.Equal(t, []Kind{NAME, LSHIFT, EQ, NAME, EOF}, kinds(toks))
}

func TestStrings(t *testing.T) {
	toks, err := Lex(context.Background(), []byte(`printf("a" 'b"c' "")`))
	require.NoError(t, err)

	require.Equal(t, []Kind{NAME, LPAREN, STRING, STRING, STRING, RPAREN, EOF}, kinds(toks))
	assert.Equal(t, `"a"`, toks[2].Text)
	assert.Equal(t, `'b"c'`, toks[3].Text)
	assert.Equal(t, `""`, toks[4].Text)

	_, err = Lex(context.Background(), []byte("x = \"abc\ndef\""))
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, '"', lerr.Char)
	assert.Equal(t, 1, lerr.Line)
}

func TestCommentsAndLines(t *testing.T) {
	src := `# hash comment
x = 1 // slash comment
/* one line */ y = 2
/* multi
   line */
z = 3`

	toks, err := Lex(context.Background(), []byte(src))
	require.NoError(t, err)

	require.Equal(t, []Kind{NAME, EQ, NUMBER, NAME, EQ, NUMBER, NAME, EQ, NUMBER, EOF}, kinds(toks))
	assert.Equal(t, 2, toks[0].Line)
	assert.Equal(t, 3, toks[3].Line)
	assert.Equal(t, 6, toks[6].Line)
}

func TestUnclosedCommentIsOperators(t *testing.T) {
	toks, err := Lex(context.Background(), []byte("a /* b"))
	require.NoError(t, err)
	assert.Equal(t, []Kind{NAME, DIVIDE, TIMES, NAME, EOF}, kinds(toks))
}

func TestIllegalCharacter(t *testing.T) {
	src := "def main(): int {\n  return 1 @ 2\n}"

	toks, err := Lex(context.Background(), []byte(src))
	assert.Nil(t, toks)

	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, '@', lerr.Char)
	assert.Equal(t, 2, lerr.Line)
	assert.Equal(t, 29, lerr.Pos)
	assert.Equal(t, `illegal character '@' at line 2, index 29`, err.Error())

	for _, src := range []string{"!", "$", "a.b", "[1]"} {
		_, err := Lex(context.Background(), []byte(src))
		assert.Error(t, err, src)
	}
}

func TestIllegalMultibyteCharacter(t *testing.T) {
	_, err := Lex(context.Background(), []byte("x = é"))

	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 'é', lerr.Char)
	assert.Equal(t, 4, lerr.Pos)
	assert.Equal(t, `illegal character 'é' at line 1, index 4`, err.Error())
}
