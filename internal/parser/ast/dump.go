package ast

import (
	"fmt"
	"strings"
)

// Dump renders a node as an S-expression, for example
// "(+ 1 (* 2 3))". Parenthesised source expressions leave no trace, so two
// trees dump identically exactly when they are structurally equal.
func Dump(node Node) string {
	var sb strings.Builder
	dump(&sb, node)
	return sb.String()
}

func dump(sb *strings.Builder, node Node) {
	if node == nil || isNil(node) {
		sb.WriteString("<nil>")
		return
	}

	switch n := node.(type) {
	case *File:
		sb.WriteString("(file")
		for _, d := range n.Decls {
			sb.WriteString("\n  ")
			dump(sb, d)
		}
		sb.WriteString(")")

	case *FuncDecl:
		sb.WriteString("(fn ")
		sb.WriteString(n.Name.Name)
		sb.WriteString(" (")
		for i, p := range n.Params {
			if i > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(sb, "(%s %s)", p.Name.Name, typeName(p.Type))
		}
		sb.WriteString(") ")
		sb.WriteString(typeName(n.ReturnType))
		sb.WriteString(" ")
		dump(sb, n.Body)
		sb.WriteString(")")
	case *StructDecl:
		sb.WriteString("(struct ")
		sb.WriteString(n.Name.Name)
		for _, f := range n.Fields {
			fmt.Fprintf(sb, " (%s %s)", f.Name.Name, typeName(f.Type))
		}
		sb.WriteString(")")
	case *TypeAliasDecl:
		fmt.Fprintf(sb, "(type %s %s)", n.Name.Name, typeName(n.Type))

	case *BlockStmt:
		sb.WriteString("(block")
		for _, s := range n.Stmts {
			sb.WriteString(" ")
			dump(sb, s)
		}
		sb.WriteString(")")
	case *VarDeclStmt:
		sb.WriteString("(let ")
		if n.Mutable {
			sb.WriteString("mut ")
		}
		sb.WriteString(n.Name.Name)
		if n.Type != nil {
			sb.WriteString(" ")
			sb.WriteString(n.Type.Name)
		}
		sb.WriteString(" ")
		dump(sb, n.Value)
		sb.WriteString(")")
	case *AssignStmt:
		fmt.Fprintf(sb, "(%s ", n.Operator.Type.Symbol())
		dump(sb, n.Target)
		sb.WriteString(" ")
		dump(sb, n.Value)
		sb.WriteString(")")
	case *ExprStmt:
		sb.WriteString("(expr ")
		dump(sb, n.X)
		sb.WriteString(")")
	case *IfStmt:
		sb.WriteString("(if ")
		dump(sb, n.Cond)
		sb.WriteString(" ")
		dump(sb, n.Then)
		if n.Else != nil {
			sb.WriteString(" ")
			dump(sb, n.Else)
		}
		sb.WriteString(")")
	case *WhileStmt:
		if n.Cond == nil {
			sb.WriteString("(loop ")
		} else {
			sb.WriteString("(while ")
			dump(sb, n.Cond)
			sb.WriteString(" ")
		}
		dump(sb, n.Body)
		sb.WriteString(")")
	case *ForStmt:
		rangeOp := ".."
		if n.Inclusive {
			rangeOp = "..="
		}
		fmt.Fprintf(sb, "(for %s (%s ", n.Var.Name, rangeOp)
		dump(sb, n.Start)
		sb.WriteString(" ")
		dump(sb, n.Stop)
		sb.WriteString(") ")
		dump(sb, n.Body)
		sb.WriteString(")")
	case *ReturnStmt:
		if n.Value == nil {
			sb.WriteString("(return)")
			return
		}
		sb.WriteString("(return ")
		dump(sb, n.Value)
		sb.WriteString(")")
	case *BreakStmt:
		sb.WriteString("(break)")
	case *ContinueStmt:
		sb.WriteString("(continue)")

	case *LiteralExpr:
		switch n.Kind {
		case LiteralString:
			fmt.Fprintf(sb, "%q", n.Value)
		case LiteralBool:
			fmt.Fprintf(sb, "%v", n.Value)
		default:
			sb.WriteString(n.Token.Lexeme)
		}
	case *IdentifierExpr:
		sb.WriteString(n.Name)
	case *BinaryExpr:
		fmt.Fprintf(sb, "(%s ", n.Operator.Type.Symbol())
		dump(sb, n.Left)
		sb.WriteString(" ")
		dump(sb, n.Right)
		sb.WriteString(")")
	case *UnaryExpr:
		fmt.Fprintf(sb, "(%s ", n.Operator.Type.Symbol())
		dump(sb, n.Operand)
		sb.WriteString(")")
	case *CallExpr:
		sb.WriteString("(call ")
		dump(sb, n.Callee)
		for _, a := range n.Args {
			sb.WriteString(" ")
			dump(sb, a)
		}
		sb.WriteString(")")
	case *IndexExpr:
		sb.WriteString("(index ")
		dump(sb, n.Target)
		sb.WriteString(" ")
		dump(sb, n.Index)
		sb.WriteString(")")
	case *FieldAccessExpr:
		sb.WriteString("(. ")
		dump(sb, n.Target)
		sb.WriteString(" ")
		sb.WriteString(n.Field.Name)
		sb.WriteString(")")
	case *StructLiteralExpr:
		sb.WriteString("(new ")
		sb.WriteString(n.Name.Name)
		for _, f := range n.Fields {
			fmt.Fprintf(sb, " (%s ", f.Name.Name)
			dump(sb, f.Value)
			sb.WriteString(")")
		}
		sb.WriteString(")")
	case *ErrorExpr:
		sb.WriteString("<error>")

	case *TypeExpr:
		sb.WriteString(n.Name)
	case *Param:
		fmt.Fprintf(sb, "(%s %s)", n.Name.Name, typeName(n.Type))
	case *Field:
		fmt.Fprintf(sb, "(%s %s)", n.Name.Name, typeName(n.Type))

	default:
		fmt.Fprintf(sb, "<%T>", node)
	}
}

func typeName(t *TypeExpr) string {
	if t == nil {
		return "void"
	}
	return t.Name
}
