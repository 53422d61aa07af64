package tp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByName(t *testing.T) {
	for _, tc := range []struct {
		name string
		llvm string
	}{
		{"bool", "i1"},
		{"int", "i32"},
		{"float", "float"},
		{"double", "double"},
		{"void", "void"},
		{"str", "[1 x i8]"},
	} {
		x, ok := ByName(tc.name)
		if assert.True(t, ok, tc.name) {
			assert.Equal(t, tc.llvm, x.String(), tc.name)
			assert.Equal(t, tc.name, Name(x))
		}
	}

	_, ok := ByName("long")
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int32, Int{Bits: 32, Signed: true}))
	assert.False(t, Equal(Int32, Bool))
	assert.True(t, Equal(Str(4), Array{X: I8, Len: 4}))
	assert.False(t, Equal(Str(4), Str(5)))

	f := &Func{In: []Type{Int32, Float32}, Out: Void{}}
	g := &Func{In: []Type{Int32, Float32}, Out: Void{}}
	assert.True(t, Equal(f, g))

	g.Variadic = true
	assert.False(t, Equal(f, g))
}

func TestFuncString(t *testing.T) {
	f := &Func{In: []Type{Ptr{}}, Out: Int32, Variadic: true}
	assert.Equal(t, "i32 (ptr, ...)", f.String())

	f = &Func{Out: Double}
	assert.Equal(t, "double ()", f.String())
}
