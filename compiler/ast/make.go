package ast

func NewModule(body []Stmt) *Module {
	return &Module{Body: body}
}

// NewDef never leaves Params nil so zero-arity functions look the same however they were built.
func NewDef(pos Pos, name string, params []Param, ret string, body []Stmt) *Def {
	if params == nil {
		params = []Param{}
	}

	return &Def{Pos: pos, Name: name, Return: ret, Params: params, Body: body}
}

func NewVarAssign(pos Pos, name string, value Expr) *VarAssign {
	return &VarAssign{Pos: pos, Name: name, Value: value}
}

func NewReturn(pos Pos, value Expr) *Return {
	return &Return{Pos: pos, Value: value}
}

func NewIf(pos Pos, test Expr, body, orelse []Stmt) *If {
	if orelse == nil {
		orelse = []Stmt{}
	}

	return &If{Pos: pos, Test: test, Body: body, Orelse: orelse}
}

func NewWhile(pos Pos, test Expr, body []Stmt) *While {
	return &While{Pos: pos, Test: test, Body: body}
}

func NewUntil(pos Pos, test Expr, body []Stmt) *Until {
	return &Until{Pos: pos, Test: test, Body: body}
}

func NewBreak(pos Pos) *Break {
	return &Break{Pos: pos}
}

func NewContinue(pos Pos) *Continue {
	return &Continue{Pos: pos}
}

func NewFuncCall(pos Pos, name string, params []Expr) *FuncCall {
	if params == nil {
		params = []Expr{}
	}

	return &FuncCall{Pos: pos, Name: name, Params: params}
}

func NewExpression(pos Pos, op string, lhs, rhs Expr) *Expression {
	return &Expression{Pos: pos, Op: op, Lhs: lhs, Rhs: rhs}
}

func NewName(pos Pos, value string) *Name {
	return &Name{Pos: pos, Value: value}
}

func NewNumber(pos Pos, value int64) *Number {
	return &Number{Pos: pos, Value: value}
}

func NewFloat(pos Pos, value float64) *Float {
	return &Float{Pos: pos, Value: value}
}

func NewString(pos Pos, value string) *String {
	return &String{Pos: pos, Value: value}
}
