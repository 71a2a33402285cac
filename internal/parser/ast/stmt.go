package ast

import "github.com/fruti-lang/fruti/internal/lexer"

// BlockStmt is a brace-delimited statement list. It opens a scope.
type BlockStmt struct {
	BaseNode
	Stmts []Stmt
}

// VarDeclStmt is let [mut] name [: Type] = value;
type VarDeclStmt struct {
	BaseNode
	Mutable bool
	Name    *IdentifierExpr
	Type    *TypeExpr // nil when the type is inferred
	Value   Expr
}

// AssignStmt is target op value; where op is "=" or a compound assignment.
type AssignStmt struct {
	BaseNode
	Target   Expr
	Operator lexer.Token
	Value    Expr
}

// ExprStmt is an expression evaluated for its effects.
type ExprStmt struct {
	BaseNode
	X Expr
}

// IfStmt is if cond { ... } [else ...]. Else is nil, an *IfStmt or a
// *BlockStmt.
type IfStmt struct {
	BaseNode
	Cond Expr
	Then *BlockStmt
	Else Stmt
}

// WhileStmt is while cond { ... }. A "loop { ... }" statement is a
// WhileStmt with a nil Cond.
type WhileStmt struct {
	BaseNode
	Cond Expr
	Body *BlockStmt
}

// ForStmt is for var in start..stop { ... } (or ..= when Inclusive).
type ForStmt struct {
	BaseNode
	Var       *IdentifierExpr
	Start     Expr
	Stop      Expr
	Inclusive bool
	Body      *BlockStmt
}

// ReturnStmt is return [value];
type ReturnStmt struct {
	BaseNode
	Value Expr // nil for a bare return
}

// BreakStmt is break;
type BreakStmt struct {
	BaseNode
}

// ContinueStmt is continue;
type ContinueStmt struct {
	BaseNode
}

func (*BlockStmt) stmtNode()    {}
func (*VarDeclStmt) stmtNode()  {}
func (*AssignStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()     {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*ReturnStmt) stmtNode()   {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
