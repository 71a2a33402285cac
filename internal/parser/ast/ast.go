// Package ast defines the syntax tree produced by the parser.
//
// The node set is closed. Expressions, statements and declarations are each
// an interface with an unexported marker method, so only the types in this
// package satisfy them and consumers match them with exhaustive type
// switches. Every node records the span of source it was parsed from.
package ast

import "github.com/fruti-lang/fruti/internal/source"

// Node is implemented by every syntax tree node.
type Node interface {
	Span() source.Span
	Pos() source.Position
	End() source.Position
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is a top-level declaration node.
type Decl interface {
	Node
	declNode()
	// DeclName returns the declared identifier.
	DeclName() *IdentifierExpr
}

// BaseNode carries the span shared by all nodes.
type BaseNode struct {
	Range source.Span
}

func (b *BaseNode) Span() source.Span    { return b.Range }
func (b *BaseNode) Pos() source.Position { return b.Range.Start }
func (b *BaseNode) End() source.Position { return b.Range.End }

// File is the root of the tree for one source file.
type File struct {
	BaseNode
	Filename string
	Decls    []Decl
}

// TypeExpr is a reference to a type by name, as written in annotations.
type TypeExpr struct {
	BaseNode
	Name string
}

// Inspect walks the tree rooted at node in depth-first order. f is called for
// each node; when it returns false the node's children are skipped. Nil
// children are not visited.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || isNil(node) || !f(node) {
		return
	}

	switch n := node.(type) {
	case *File:
		for _, d := range n.Decls {
			Inspect(d, f)
		}

	case *FuncDecl:
		Inspect(n.Name, f)
		for _, p := range n.Params {
			Inspect(p, f)
		}
		inspectType(n.ReturnType, f)
		inspectBlock(n.Body, f)
	case *Param:
		Inspect(n.Name, f)
		inspectType(n.Type, f)
	case *StructDecl:
		Inspect(n.Name, f)
		for _, fld := range n.Fields {
			Inspect(fld, f)
		}
	case *Field:
		Inspect(n.Name, f)
		inspectType(n.Type, f)
	case *TypeAliasDecl:
		Inspect(n.Name, f)
		inspectType(n.Type, f)

	case *BlockStmt:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *VarDeclStmt:
		Inspect(n.Name, f)
		inspectType(n.Type, f)
		Inspect(n.Value, f)
	case *AssignStmt:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *ExprStmt:
		Inspect(n.X, f)
	case *IfStmt:
		Inspect(n.Cond, f)
		inspectBlock(n.Then, f)
		Inspect(n.Else, f)
	case *WhileStmt:
		Inspect(n.Cond, f)
		inspectBlock(n.Body, f)
	case *ForStmt:
		Inspect(n.Var, f)
		Inspect(n.Start, f)
		Inspect(n.Stop, f)
		inspectBlock(n.Body, f)
	case *ReturnStmt:
		Inspect(n.Value, f)

	case *BinaryExpr:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *UnaryExpr:
		Inspect(n.Operand, f)
	case *CallExpr:
		Inspect(n.Callee, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *IndexExpr:
		Inspect(n.Target, f)
		Inspect(n.Index, f)
	case *FieldAccessExpr:
		Inspect(n.Target, f)
		Inspect(n.Field, f)
	case *StructLiteralExpr:
		Inspect(n.Name, f)
		for _, fi := range n.Fields {
			Inspect(fi.Name, f)
			Inspect(fi.Value, f)
		}
	}
}

func inspectType(t *TypeExpr, f func(Node) bool) {
	if t != nil {
		Inspect(t, f)
	}
}

func inspectBlock(b *BlockStmt, f func(Node) bool) {
	if b != nil {
		Inspect(b, f)
	}
}

// isNil reports whether node is an interface holding a nil pointer.
func isNil(node Node) bool {
	switch n := node.(type) {
	case *IdentifierExpr:
		return n == nil
	case *BlockStmt:
		return n == nil
	case *TypeExpr:
		return n == nil
	case *IfStmt:
		return n == nil
	}
	return false
}
