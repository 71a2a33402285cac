package semantic

import (
	"github.com/fruti-lang/fruti/internal/parser/ast"
)

// Reachability
//
// A statement "completes" when control can continue with the statement after
// it. A non-void function whose body completes can reach its closing brace
// without returning, which is a MissingReturn error.
//
// The analysis is exact for the statement forms of the language:
//   - return, break and continue never complete
//   - a block completes when every statement in it does
//   - if completes when either branch does, or when there is no else
//   - while with a condition and for may run zero times, so they complete
//   - loop, and while with the literal condition true, complete only when
//     their body contains a break that targets them
//
// Conditions are not evaluated beyond the literal true.

// canFallThrough reports whether control can reach the end of a function
// body.
func canFallThrough(body *ast.BlockStmt) bool {
	return completes(body)
}

func completes(stmt ast.Stmt) bool {
	switch s := stmt.(type) {
	case *ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt:
		return false
	case *ast.BlockStmt:
		if s == nil {
			return true
		}
		for _, inner := range s.Stmts {
			if !completes(inner) {
				return false
			}
		}
		return true
	case *ast.IfStmt:
		if s.Else == nil {
			return true
		}
		return completes(s.Then) || completes(s.Else)
	case *ast.WhileStmt:
		if s.Cond != nil && !isTrueLiteral(s.Cond) {
			return true
		}
		return hasBreak(s.Body)
	default:
		return true
	}
}

// hasBreak reports whether a break inside stmt leaves the loop stmt belongs
// to. Breaks inside nested loops leave those loops instead.
func hasBreak(stmt ast.Stmt) bool {
	switch s := stmt.(type) {
	case *ast.BreakStmt:
		return true
	case *ast.BlockStmt:
		if s == nil {
			return false
		}
		for _, inner := range s.Stmts {
			if hasBreak(inner) {
				return true
			}
		}
		return false
	case *ast.IfStmt:
		return hasBreak(s.Then) || (s.Else != nil && hasBreak(s.Else))
	default:
		return false
	}
}

func isTrueLiteral(e ast.Expr) bool {
	lit, ok := e.(*ast.LiteralExpr)
	if !ok || lit.Kind != ast.LiteralBool {
		return false
	}
	v, _ := lit.Value.(bool)
	return v
}
