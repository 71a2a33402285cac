package semantic

import (
	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/semantic/types"
	"github.com/fruti-lang/fruti/internal/source"
	"github.com/fruti-lang/fruti/internal/symtab"
)

// Statement checking

func (c *checker) checkStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.checkStmt(s)
	}
}

func (c *checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDeclStmt:
		c.checkVarDecl(s)
	case *ast.AssignStmt:
		c.checkAssign(s)
	case *ast.ExprStmt:
		c.expr(s.X, nil)
	case *ast.BlockStmt:
		c.checkBlock(s, symtab.ScopeBlock)
	case *ast.IfStmt:
		c.checkIf(s)
	case *ast.WhileStmt:
		c.checkWhile(s)
	case *ast.ForStmt:
		c.checkFor(s)
	case *ast.ReturnStmt:
		c.checkReturn(s)
	case *ast.BreakStmt:
		if !c.table.InLoop() {
			c.errorf(diag.KindInvalidControlFlow, s.Span(), "`break` outside of a loop")
		}
	case *ast.ContinueStmt:
		if !c.table.InLoop() {
			c.errorf(diag.KindInvalidControlFlow, s.Span(), "`continue` outside of a loop")
		}
	}
}

// checkBlock checks b in a fresh scope of the given kind.
func (c *checker) checkBlock(b *ast.BlockStmt, kind symtab.ScopeKind) {
	if b == nil {
		return
	}
	c.enterScope(kind)
	c.checkStmts(b.Stmts)
	c.exitScope()
}

// checkVarDecl checks a let binding. The initializer is checked before the
// name is declared, so `let x = x + 1;` reads an outer x.
func (c *checker) checkVarDecl(s *ast.VarDeclStmt) {
	var declared types.Type
	if s.Type != nil {
		declared = c.a.resolveValueType(s.Type, "variable "+s.Name.Name, c.res.diags)
	}

	var varType types.Type
	value := c.expr(s.Value, declared)
	switch {
	case declared != nil:
		varType = declared
		if !types.IsError(declared) && !types.IsError(value) && !value.AssignableTo(declared) {
			c.errorf(diag.KindTypeMismatch, s.Value.Span(),
				"cannot use value of type %s as %s in declaration of `%s`", value, declared, s.Name.Name)
		}
	case isVoid(value):
		c.errorf(diag.KindTypeMismatch, s.Value.Span(),
			"cannot declare `%s` with a value of type void", s.Name.Name)
		varType = types.Error
	default:
		varType = value
	}

	sym := &symtab.Symbol{
		Name:    s.Name.Name,
		Kind:    symtab.SymbolVariable,
		Type:    varType,
		Span:    s.Name.Span(),
		Mutable: s.Mutable,
	}
	c.define(s.Name, sym)
	c.res.locals = append(c.res.locals, sym)
}

// checkAssign checks plain and compound assignment.
//
// RULES:
// - the target must be declared and its root variable declared `let mut`
// - `=` needs a value of the target's type
// - `op=` follows the arithmetic rule for op
func (c *checker) checkAssign(s *ast.AssignStmt) {
	compound := s.Operator.Type != lexer.TokenAssign

	var target types.Type
	if id, ok := s.Target.(*ast.IdentifierExpr); ok && !compound {
		// A plain store does not read the variable.
		target = c.identifier(id, false)
	} else {
		target = c.expr(s.Target, nil)
	}
	c.checkMutable(s.Target)

	value := c.expr(s.Value, target)
	if types.IsError(target) || types.IsError(value) {
		return
	}

	if !compound {
		if !value.AssignableTo(target) {
			c.errorf(diag.KindTypeMismatch, s.Value.Span(),
				"cannot assign value of type %s to %s", value, target)
		}
		return
	}

	base, _ := s.Operator.Type.CompoundBase()
	c.arithmetic(base, s.Span(), target, value)
}

// checkMutable reports ImmutableAssign when the variable at the root of the
// target was not declared `let mut`.
func (c *checker) checkMutable(target ast.Expr) {
	switch t := target.(type) {
	case *ast.IdentifierExpr:
		// Undefined names and non-values were reported when the target was
		// resolved.
		sym := c.table.Lookup(t.Name)
		if sym == nil || !sym.IsValue() || types.IsError(sym.Type) {
			return
		}
		if !sym.CanAssign() {
			c.errorf(diag.KindImmutableAssign, t.Span(),
				"cannot assign to immutable %s `%s`", sym.Kind, t.Name)
		}
	case *ast.FieldAccessExpr:
		c.checkMutable(t.Target)
	case *ast.IndexExpr:
		if types.IsError(c.res.types[t]) {
			return
		}
		c.errorf(diag.KindImmutableAssign, t.Span(), "cannot assign to an element of an immutable str")
	}
}

func (c *checker) checkIf(s *ast.IfStmt) {
	c.condition(s.Cond)
	c.checkBlock(s.Then, symtab.ScopeBlock)
	if s.Else != nil {
		c.checkStmt(s.Else)
	}
}

func (c *checker) checkWhile(s *ast.WhileStmt) {
	if s.Cond != nil {
		c.condition(s.Cond)
	}
	c.checkBlock(s.Body, symtab.ScopeLoop)
}

// checkFor checks `for i in a..b`. Both bounds must have the same integer
// type, which becomes the type of i in a loop scope around the body.
func (c *checker) checkFor(s *ast.ForStmt) {
	var start, stop types.Type
	if isUntypedLiteral(s.Start) && !isUntypedLiteral(s.Stop) {
		stop = c.expr(s.Stop, nil)
		start = c.expr(s.Start, stop)
	} else {
		start = c.expr(s.Start, nil)
		stop = c.expr(s.Stop, start)
	}

	varType := start
	switch {
	case types.IsError(start) || types.IsError(stop):
		varType = types.Error
	case !types.IsInteger(start) || !start.Equals(stop):
		c.errorf(diag.KindTypeMismatch, source.Join(s.Start.Span(), s.Stop.Span()),
			"range bounds must be the same integer type, found %s and %s", start, stop)
		varType = types.Error
	}

	c.enterScope(symtab.ScopeLoop)
	sym := &symtab.Symbol{
		Name: s.Var.Name,
		Kind: symtab.SymbolVariable,
		Type: varType,
		Span: s.Var.Span(),
	}
	c.define(s.Var, sym)
	c.res.locals = append(c.res.locals, sym)
	c.checkBlock(s.Body, symtab.ScopeBlock)
	c.exitScope()
}

func (c *checker) checkReturn(s *ast.ReturnStmt) {
	want := c.fn.Type.Return
	name := c.fn.Name()

	if s.Value == nil {
		if !isVoid(want) && !types.IsError(want) {
			c.errorf(diag.KindTypeMismatch, s.Span(),
				"missing return value; function `%s` returns %s", name, want)
		}
		return
	}

	if isVoid(want) {
		c.expr(s.Value, nil)
		c.errorf(diag.KindTypeMismatch, s.Span(), "function `%s` does not return a value", name)
		return
	}

	got := c.expr(s.Value, want)
	if types.IsError(got) || types.IsError(want) {
		return
	}
	if !got.AssignableTo(want) {
		c.errorf(diag.KindTypeMismatch, s.Span(),
			"cannot return %s from function `%s` returning %s", got, name, want)
	}
}

// condition checks an if or while condition.
func (c *checker) condition(cond ast.Expr) {
	t := c.expr(cond, types.Bool)
	if !types.IsError(t) && !types.IsBool(t) {
		c.errorf(diag.KindConditionNotBool, cond.Span(), "condition must be bool, found %s", t)
	}
}
