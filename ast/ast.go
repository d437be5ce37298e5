// Package ast defines the typed tree the code generator walks. Every
// node here corresponds directly to a grammar production; there is no
// separate "resolved" tree — names are still bare strings, resolved
// against the scope's environment while the generator walks the tree.
package ast

// UnOp names a unary operator.
type UnOp int

const (
	Add1 UnOp = iota
	Sub1
	IsNum
	IsBool
)

// BinOp names a binary operator.
type BinOp int

const (
	Plus BinOp = iota
	Minus
	Times
	Equal
	Greater
	Less
	GreaterEqual
	LessEqual
)

// Binding is one (name expr) pair inside a let form.
type Binding struct {
	Name string
	Expr Expr
}

// Expr is any expression node. The interface carries no behaviour of
// its own; it exists purely to let the generator switch over concrete
// types.
type Expr interface {
	exprNode()
}

type Number struct{ Value int64 }

type Boolean struct{ Value bool }

type Id struct{ Name string }

type Let struct {
	Bindings []Binding
	Body     Expr
}

type UnaryOp struct {
	Op      UnOp
	Operand Expr
}

type BinaryOp struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

type Block struct{ Exprs []Expr }

type Set struct {
	Name string
	Expr Expr
}

type Loop struct{ Body Expr }

type Break struct{ Expr Expr }

type Call struct {
	Name string
	Args []Expr
}

type Tuple struct{ Elems []Expr }

type Index struct {
	Tuple Expr
	Index Expr
}

func (*Number) exprNode()   {}
func (*Boolean) exprNode()  {}
func (*Id) exprNode()       {}
func (*Let) exprNode()      {}
func (*UnaryOp) exprNode()  {}
func (*BinaryOp) exprNode() {}
func (*If) exprNode()       {}
func (*Block) exprNode()    {}
func (*Set) exprNode()      {}
func (*Loop) exprNode()     {}
func (*Break) exprNode()    {}
func (*Call) exprNode()     {}
func (*Tuple) exprNode()    {}
func (*Index) exprNode()    {}

// Func is a top-level function definition.
type Func struct {
	Name   string
	Params []string
	Body   Expr
}

// Program is the full parsed source: zero or more function definitions
// followed by exactly one trailing expression.
type Program struct {
	Funcs []*Func
	Trail Expr
}
