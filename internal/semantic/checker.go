package semantic

import (
	"strings"

	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/semantic/types"
	"github.com/fruti-lang/fruti/internal/source"
	"github.com/fruti-lang/fruti/internal/symtab"
)

// bodyResult is everything checking one function body produced.
type bodyResult struct {
	fn     *FuncInfo
	diags  *diag.Collector
	unused []diag.Diagnostic

	params []*symtab.Symbol
	locals []*symtab.Symbol

	types map[ast.Expr]types.Type
	uses  map[*ast.IdentifierExpr]*symtab.Symbol
	defs  map[*ast.IdentifierExpr]*symtab.Symbol
}

// checker checks a single function body. It reads the analyzer's global
// state and writes only to its own result.
type checker struct {
	a     *Analyzer
	fn    *FuncInfo
	table *symtab.Table
	res   *bodyResult
}

func (a *Analyzer) checkBody(fn *FuncInfo) *bodyResult {
	c := &checker{
		a:     a,
		fn:    fn,
		table: symtab.NewTableWithGlobal(a.globals.Global()),
		res: &bodyResult{
			fn:    fn,
			diags: diag.NewCollector(),
			types: make(map[ast.Expr]types.Type),
			uses:  make(map[*ast.IdentifierExpr]*symtab.Symbol),
			defs:  make(map[*ast.IdentifierExpr]*symtab.Symbol),
		},
	}

	decl := fn.Decl
	c.enterScope(symtab.ScopeFunction)
	for i, p := range decl.Params {
		sym := &symtab.Symbol{
			Name: p.Name.Name,
			Kind: symtab.SymbolParameter,
			Type: fn.Type.Params[i],
			Span: p.Name.Span(),
		}
		c.define(p.Name, sym)
		c.res.params = append(c.res.params, sym)
	}
	if decl.Body != nil {
		c.checkStmts(decl.Body.Stmts)
	}
	c.exitScope()

	if decl.Body != nil && !types.IsError(fn.Type.Return) && !isVoid(fn.Type.Return) && canFallThrough(decl.Body) {
		c.errorf(diag.KindMissingReturn, decl.Name.Span(),
			"function `%s` must return %s on every path", decl.Name.Name, fn.Type.Return)
	}
	return c.res
}

// enterScope creates a new scope
func (c *checker) enterScope(kind symtab.ScopeKind) {
	c.table.Push(kind)
}

// exitScope returns to the enclosing scope, noting bindings that were never
// read.
func (c *checker) exitScope() {
	scope := c.table.Pop()
	if scope == nil {
		return
	}
	for _, sym := range scope.UnusedSymbols() {
		if sym.Kind != symtab.SymbolVariable || strings.HasPrefix(sym.Name, "_") {
			continue
		}
		c.res.unused = append(c.res.unused, diag.Diagnostic{
			Severity: diag.SeverityWarning,
			Phase:    diag.PhaseSemantic,
			Kind:     diag.KindUnusedVariable,
			Message:  "unused variable `" + sym.Name + "`",
			Span:     sym.Span,
		})
	}
}

// define declares a local in the current scope and records it.
func (c *checker) define(name *ast.IdentifierExpr, sym *symtab.Symbol) {
	if existing, ok := c.table.Define(sym); !ok {
		c.errorf(diag.KindDuplicateDeclaration, name.Span(),
			"`%s` is already declared in this scope at %s", name.Name, existing.Span.Start)
	}
	c.res.defs[name] = sym
}

func (c *checker) errorf(kind diag.Kind, span source.Span, format string, args ...any) {
	c.res.diags.Errorf(diag.PhaseSemantic, kind, span, format, args...)
}

func isVoid(t types.Type) bool {
	return types.KindOf(t) == types.KindVoid
}
