package compile

import (
	"github.com/plang/plang/compiler/ir"
	"github.com/plang/plang/compiler/tp"
)

type (
	SlotID int

	// Symbol is either a variable backed by a slot or a function.
	Symbol struct {
		Name string
		Type tp.Type // variable type or function return type

		Slot SlotID
		Func *ir.Func
	}

	Slot struct {
		Ptr  ir.Value
		Type tp.Type
	}

	// Symtab is a stack of scopes over an arena of storage slots.
	// Scopes are opened per function, not per block.
	Symtab struct {
		slots  []Slot
		scopes []map[string]Symbol
	}
)

const NoSlot SlotID = -1

func NewSymtab() *Symtab {
	return &Symtab{
		scopes: []map[string]Symbol{{}},
	}
}

func (s *Symtab) Push() {
	s.scopes = append(s.scopes, map[string]Symbol{})
}

func (s *Symtab) Pop() {
	if len(s.scopes) == 1 {
		panic("pop global scope")
	}

	s.scopes = s.scopes[:len(s.scopes)-1]
}

// Lookup searches scopes from the innermost outwards.
func (s *Symtab) Lookup(name string) (Symbol, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if sym, ok := s.scopes[i][name]; ok {
			return sym, true
		}
	}

	return Symbol{}, false
}

// Assign returns the binding of name in the innermost scope,
// creating a variable with a fresh slot if there is none.
// The slot pointer of a created variable is set by SetPtr.
func (s *Symtab) Assign(name string, typ tp.Type) (sym Symbol, created bool) {
	top := s.scopes[len(s.scopes)-1]

	if sym, ok := top[name]; ok {
		return sym, false
	}

	id := SlotID(len(s.slots))
	s.slots = append(s.slots, Slot{Type: typ})

	sym = Symbol{
		Name: name,
		Type: typ,
		Slot: id,
	}

	top[name] = sym

	return sym, true
}

func (s *Symtab) SetPtr(id SlotID, ptr ir.Value) {
	s.slots[id].Ptr = ptr
}

func (s *Symtab) Slot(id SlotID) Slot {
	return s.slots[id]
}

// BindFunc binds name to a function in the innermost scope.
func (s *Symtab) BindFunc(name string, f *ir.Func, ret tp.Type) {
	s.scopes[len(s.scopes)-1][name] = Symbol{
		Name: name,
		Type: ret,
		Slot: NoSlot,
		Func: f,
	}
}

// BindGlobalFunc binds name to a function in the outermost scope.
func (s *Symtab) BindGlobalFunc(name string, f *ir.Func, ret tp.Type) {
	s.scopes[0][name] = Symbol{
		Name: name,
		Type: ret,
		Slot: NoSlot,
		Func: f,
	}
}

func (sym Symbol) IsFunc() bool { return sym.Func != nil }
