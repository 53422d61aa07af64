package ir

import (
	"tlog.app/go/errors"

	"github.com/plang/plang/compiler/tp"
)

type (
	VerifyError struct {
		Func  string
		Block string
		Instr string
		Msg   string
	}
)

// Verify checks structural well-formedness of m:
// every block ends with exactly one terminator, operand types agree,
// branch targets belong to the same function, and calls match signatures.
func Verify(m *Module) error {
	seen := map[string]struct{}{}

	for _, f := range m.Funcs {
		if _, ok := seen[f.Name]; ok {
			return &VerifyError{Func: f.Name, Msg: "function redefined"}
		}

		seen[f.Name] = struct{}{}

		err := verifyFunc(m, f)
		if err != nil {
			return err
		}
	}

	return nil
}

func verifyFunc(m *Module, f *Func) error {
	if f.Decl() {
		return nil
	}

	owner := map[*Block]struct{}{}
	defined := map[*Instr]struct{}{}

	for _, b := range f.Blocks {
		owner[b] = struct{}{}

		for _, in := range b.Instrs {
			defined[in] = struct{}{}
		}
	}

	for _, b := range f.Blocks {
		if len(b.Instrs) == 0 {
			return &VerifyError{Func: f.Name, Block: b.Name, Msg: "empty block"}
		}

		for i, in := range b.Instrs {
			last := i == len(b.Instrs)-1

			if in.Op.IsTerminator() != last {
				msg := "terminator in the middle of block"
				if last {
					msg = "block is not terminated"
				}

				return &VerifyError{Func: f.Name, Block: b.Name, Instr: in.String(), Msg: msg}
			}

			for _, a := range in.Args {
				switch a := a.(type) {
				case *Instr:
					if _, ok := defined[a]; !ok {
						return &VerifyError{Func: f.Name, Block: b.Name, Instr: in.String(), Msg: "operand defined outside of function"}
					}
				case *Param:
					if a.Index >= len(f.Params) || f.Params[a.Index] != a {
						return &VerifyError{Func: f.Name, Block: b.Name, Instr: in.String(), Msg: "foreign parameter"}
					}
				}
			}

			for _, t := range in.Targets {
				if _, ok := owner[t]; !ok {
					return &VerifyError{Func: f.Name, Block: b.Name, Instr: in.String(), Msg: "branch to foreign block"}
				}
			}

			if msg := verifyInstr(m, f, in); msg != "" {
				return &VerifyError{Func: f.Name, Block: b.Name, Instr: in.String(), Msg: msg}
			}
		}
	}

	return nil
}

func verifyInstr(m *Module, f *Func, in *Instr) string {
	arg := func(i int) tp.Type { return in.Args[i].Type() }

	need := func(n int) bool { return len(in.Args) == n }

	switch op := in.Op; {
	case op == OpAlloca:
		if in.Elem == nil || tp.IsVoid(in.Elem) {
			return "bad alloca type"
		}
	case op == OpLoad:
		if !need(1) || !isPtr(arg(0)) {
			return "load from non-pointer"
		}
	case op == OpStore:
		if !need(2) || !isPtr(arg(1)) {
			return "store to non-pointer"
		}

		if p, ok := in.Args[1].(*Instr); ok && p.Op == OpAlloca && !tp.Equal(p.Elem, arg(0)) {
			return "stored value type " + arg(0).String() + " does not match slot type " + p.Elem.String()
		}
	case op.IsIntBinary(), op.IsFloatBinary():
		if !need(2) || !tp.Equal(arg(0), arg(1)) || !tp.Equal(arg(0), in.Typ) {
			return "operand types mismatch"
		}

		if op.IsIntBinary() && !tp.IsInt(in.Typ) || op.IsFloatBinary() && !tp.IsFloat(in.Typ) {
			return "operand type " + in.Typ.String() + " not allowed"
		}
	case op == OpICmp, op == OpFCmp:
		if !need(2) || !tp.Equal(arg(0), arg(1)) {
			return "compared types mismatch"
		}

		if op == OpICmp && !tp.IsInt(arg(0)) || op == OpFCmp && !tp.IsFloat(arg(0)) {
			return "bad compared type " + arg(0).String()
		}

		if _, ok := preds[op][in.Pred]; !ok {
			return "bad predicate " + in.Pred
		}
	case op == OpGEP:
		if len(in.Args) < 1 || !isPtr(arg(0)) {
			return "gep on non-pointer"
		}
	case op == OpFPExt:
		if !need(1) || !tp.IsFloat(arg(0)) || !tp.IsFloat(in.Typ) || arg(0).Size() >= in.Typ.Size() {
			return "bad fpext"
		}
	case op == OpZExt:
		if !need(1) || !tp.IsInt(arg(0)) || !tp.IsInt(in.Typ) || arg(0).(tp.Int).Bits >= in.Typ.(tp.Int).Bits {
			return "bad zext"
		}
	case op == OpCall:
		return verifyCall(m, in)
	case op == OpCondBr:
		if !need(1) || !tp.Equal(arg(0), tp.Bool) || len(in.Targets) != 2 {
			return "bad conditional branch"
		}
	case op == OpBr:
		if len(in.Targets) != 1 {
			return "bad branch"
		}
	case op == OpRet:
		out := f.Sig.Out

		if tp.IsVoid(out) {
			if len(in.Args) != 0 {
				return "value returned from void function"
			}

			break
		}

		if !need(1) {
			return "missing return value"
		}

		if !tp.Equal(arg(0), out) {
			return "returned " + arg(0).String() + ", want " + out.String()
		}
	}

	return ""
}

func verifyCall(m *Module, in *Instr) string {
	c := in.Callee
	if c == nil || m.Func(c.Name) != c {
		return "call to unknown function"
	}

	sig := c.Sig

	if len(in.Args) < len(sig.In) || !sig.Variadic && len(in.Args) != len(sig.In) {
		return "wrong number of arguments"
	}

	for i, t := range sig.In {
		if !tp.Equal(in.Args[i].Type(), t) {
			return "argument " + in.Args[i].Type().String() + ", want " + t.String()
		}
	}

	if !tp.Equal(in.Typ, sig.Out) {
		return "call result type mismatch"
	}

	return ""
}

var preds = map[Op]map[string]struct{}{
	OpICmp: set("eq", "ne", "slt", "sle", "sgt", "sge", "ult", "ule", "ugt", "uge"),
	OpFCmp: set("oeq", "one", "olt", "ole", "ogt", "oge", "ueq", "une", "ult", "ule", "ugt", "uge", "ord", "uno"),
}

func set(l ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(l))

	for _, s := range l {
		m[s] = struct{}{}
	}

	return m
}

func isPtr(t tp.Type) bool {
	_, ok := t.(tp.Ptr)
	return ok
}

func (e *VerifyError) Error() string {
	msg := "func " + e.Func

	if e.Block != "" {
		msg += ": block " + e.Block
	}

	if e.Instr != "" {
		msg += ": " + e.Instr
	}

	return msg + ": " + e.Msg
}

// ErrInvalid is matched by every *VerifyError.
var ErrInvalid = errors.New("invalid module")

func (e *VerifyError) Is(target error) bool {
	return target == ErrInvalid
}
