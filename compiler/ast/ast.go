package ast

type (
	Node interface {
		Position() Pos
		node()
	}

	Stmt interface {
		Node
		stmt()
	}

	Expr interface {
		Node
		expr()
	}

	Pos struct {
		Line   int
		Offset int
	}

	Module struct {
		Pos `tlog:",embed"`

		Body []Stmt
	}

	Param struct {
		Name string
		Type string
	}

	Def struct {
		Pos `tlog:",embed"`

		Name   string
		Return string
		Params []Param
		Body   []Stmt
	}

	VarAssign struct {
		Pos `tlog:",embed"`

		Name  string
		Value Expr
	}

	Return struct {
		Pos `tlog:",embed"`

		Value Expr
	}

	If struct {
		Pos `tlog:",embed"`

		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}

	While struct {
		Pos `tlog:",embed"`

		Test Expr
		Body []Stmt
	}

	Until struct {
		Pos `tlog:",embed"`

		Test Expr
		Body []Stmt
	}

	Break struct {
		Pos `tlog:",embed"`
	}

	Continue struct {
		Pos `tlog:",embed"`
	}

	// FuncCall is both a statement and an expression.
	FuncCall struct {
		Pos `tlog:",embed"`

		Name   string
		Params []Expr
	}

	Expression struct {
		Pos `tlog:",embed"`

		Op  string
		Lhs Expr
		Rhs Expr
	}

	Name struct {
		Pos `tlog:",embed"`

		Value string
	}

	Number struct {
		Pos `tlog:",embed"`

		Value int64
	}

	Float struct {
		Pos `tlog:",embed"`

		Value float64
	}

	// String holds the literal as written, quotes included.
	String struct {
		Pos `tlog:",embed"`

		Value string
	}
)

func (p Pos) Position() Pos { return p }

func (*Module) node()     {}
func (*Def) node()        {}
func (*VarAssign) node()  {}
func (*Return) node()     {}
func (*If) node()         {}
func (*While) node()      {}
func (*Until) node()      {}
func (*Break) node()      {}
func (*Continue) node()   {}
func (*FuncCall) node()   {}
func (*Expression) node() {}
func (*Name) node()       {}
func (*Number) node()     {}
func (*Float) node()      {}
func (*String) node()     {}

func (*Def) stmt()       {}
func (*VarAssign) stmt() {}
func (*Return) stmt()    {}
func (*If) stmt()        {}
func (*While) stmt()     {}
func (*Until) stmt()     {}
func (*Break) stmt()     {}
func (*Continue) stmt()  {}
func (*FuncCall) stmt()  {}

func (*FuncCall) expr()   {}
func (*Expression) expr() {}
func (*Name) expr()       {}
func (*Number) expr()     {}
func (*Float) expr()      {}
func (*String) expr()     {}
