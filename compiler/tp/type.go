package tp

import (
	"strconv"
	"strings"
)

type (
	Type interface {
		Size() int
		String() string
	}

	Void struct{}

	Int struct {
		Bits   int16
		Signed bool
	}

	Float struct {
		Bits int16
	}

	// Ptr is an opaque pointer.
	Ptr struct{}

	Array struct {
		X   Type
		Len int
	}

	Func struct {
		In  []Type
		Out Type

		Variadic bool
	}
)

var (
	Bool    Type = Int{Bits: 1}
	I8      Type = Int{Bits: 8}
	Int32   Type = Int{Bits: 32, Signed: true}
	Float32 Type = Float{Bits: 32}
	Double  Type = Float{Bits: 64}
)

// ByName resolves a type name used in source code.
func ByName(name string) (Type, bool) {
	switch name {
	case "bool":
		return Bool, true
	case "int":
		return Int32, true
	case "float":
		return Float32, true
	case "double":
		return Double, true
	case "void":
		return Void{}, true
	case "str":
		return Str(1), true
	}

	return nil, false
}

// Str is the type of a materialized string of n bytes including the terminator.
func Str(n int) Array {
	return Array{X: I8, Len: n}
}

// Name returns the source-level name of the type if it has one.
func Name(t Type) string {
	switch t := t.(type) {
	case Int:
		switch t.Bits {
		case 1:
			return "bool"
		case 32:
			return "int"
		}
	case Float:
		switch t.Bits {
		case 32:
			return "float"
		case 64:
			return "double"
		}
	case Void:
		return "void"
	case Array:
		if Equal(t.X, I8) {
			return "str"
		}
	}

	if t == nil {
		return "<nil>"
	}

	return t.String()
}

func IsInt(t Type) bool {
	_, ok := t.(Int)
	return ok
}

func IsFloat(t Type) bool {
	_, ok := t.(Float)
	return ok
}

func IsVoid(t Type) bool {
	_, ok := t.(Void)
	return ok
}

func IsStr(t Type) bool {
	a, ok := t.(Array)
	return ok && Equal(a.X, I8)
}

func Equal(a, b Type) bool {
	switch a := a.(type) {
	case Array:
		b, ok := b.(Array)
		return ok && a.Len == b.Len && Equal(a.X, b.X)
	case *Func:
		b, ok := b.(*Func)
		if !ok || a.Variadic != b.Variadic || len(a.In) != len(b.In) || !Equal(a.Out, b.Out) {
			return false
		}

		for i := range a.In {
			if !Equal(a.In[i], b.In[i]) {
				return false
			}
		}

		return true
	case nil:
		return b == nil
	default:
		return a == b
	}
}

func (x Void) Size() int { return 0 }

func (x Int) Size() int {
	return (int(x.Bits) + 7) / 8
}

func (x Float) Size() int {
	return int(x.Bits) / 8
}

func (x Ptr) Size() int {
	return 8
}

func (x Array) Size() int {
	return x.X.Size() * x.Len
}

func (x *Func) Size() int {
	return 8
}

func (x Void) String() string { return "void" }

func (x Int) String() string {
	return "i" + strconv.Itoa(int(x.Bits))
}

func (x Float) String() string {
	if x.Bits == 64 {
		return "double"
	}

	return "float"
}

func (x Ptr) String() string { return "ptr" }

func (x Array) String() string {
	return "[" + strconv.Itoa(x.Len) + " x " + x.X.String() + "]"
}

func (x *Func) String() string {
	var b strings.Builder

	b.WriteString(x.Out.String())
	b.WriteString(" (")

	for i, t := range x.In {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(t.String())
	}

	if x.Variadic {
		if len(x.In) != 0 {
			b.WriteString(", ")
		}

		b.WriteString("...")
	}

	b.WriteString(")")

	return b.String()
}
