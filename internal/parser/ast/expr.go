package ast

import "github.com/fruti-lang/fruti/internal/lexer"

// LiteralKind distinguishes literal forms.
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
	LiteralChar
	LiteralBool
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralInt:
		return "int"
	case LiteralFloat:
		return "float"
	case LiteralString:
		return "string"
	case LiteralChar:
		return "char"
	case LiteralBool:
		return "bool"
	default:
		return "unknown"
	}
}

// LiteralExpr is a literal value.
//
// Value holds the decoded value:
//   - uint64 for integer literals
//   - float64 for float literals
//   - string for string literals
//   - rune for char literals
//   - bool for boolean literals
type LiteralExpr struct {
	BaseNode
	Kind  LiteralKind
	Token lexer.Token
	Value interface{}
}

// IdentifierExpr is a reference to a named variable, parameter or function.
type IdentifierExpr struct {
	BaseNode
	Name string
}

// BinaryExpr is left op right, including the short-circuit operators.
type BinaryExpr struct {
	BaseNode
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

// UnaryExpr is a prefix operator applied to an operand: -x, !x, not x.
type UnaryExpr struct {
	BaseNode
	Operator lexer.Token
	Operand  Expr
}

// CallExpr is callee(args...).
type CallExpr struct {
	BaseNode
	Callee Expr
	Args   []Expr
}

// CalleeName returns the called name when the callee is a plain identifier.
func (c *CallExpr) CalleeName() (string, bool) {
	if id, ok := c.Callee.(*IdentifierExpr); ok {
		return id.Name, true
	}
	return "", false
}

// IndexExpr is target[index].
type IndexExpr struct {
	BaseNode
	Target Expr
	Index  Expr
}

// FieldAccessExpr is target.field.
type FieldAccessExpr struct {
	BaseNode
	Target Expr
	Field  *IdentifierExpr
}

// StructLiteralExpr builds a struct value: Name { field: value, ... }.
type StructLiteralExpr struct {
	BaseNode
	Name   *IdentifierExpr
	Fields []*FieldInit
}

// FieldInit is one "field: value" entry of a struct literal.
type FieldInit struct {
	Name  *IdentifierExpr
	Value Expr
}

// ErrorExpr stands in for an expression that failed to parse.
type ErrorExpr struct {
	BaseNode
}

func (*LiteralExpr) exprNode()       {}
func (*IdentifierExpr) exprNode()    {}
func (*BinaryExpr) exprNode()        {}
func (*UnaryExpr) exprNode()         {}
func (*CallExpr) exprNode()          {}
func (*IndexExpr) exprNode()         {}
func (*FieldAccessExpr) exprNode()   {}
func (*StructLiteralExpr) exprNode() {}
func (*ErrorExpr) exprNode()         {}
