package semantic

import (
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/semantic/types"
	"github.com/fruti-lang/fruti/internal/symtab"
)

// Info holds the results of analysis. The AST is never modified; everything
// the code generator needs is recorded here, keyed by node.
type Info struct {
	// Types maps every checked expression to its type. Expressions that
	// failed to check map to types.Error.
	Types map[ast.Expr]types.Type

	// Uses maps identifier references, including call callees, to the
	// symbol they resolve to.
	Uses map[*ast.IdentifierExpr]*symtab.Symbol

	// Defs maps the declaring identifier of every parameter, let binding and
	// for variable to its symbol.
	Defs map[*ast.IdentifierExpr]*symtab.Symbol

	// Funcs holds one entry per function declaration, in source order.
	Funcs []*FuncInfo

	// Structs holds the declared struct types in source order.
	Structs []*types.StructType

	// Globals is the global scope after the collection pass.
	Globals *symtab.Scope

	byDecl map[*ast.FuncDecl]*FuncInfo
}

// FuncInfo describes one function declaration.
type FuncInfo struct {
	Decl   *ast.FuncDecl
	Symbol *symtab.Symbol
	Type   *types.FunctionType

	// Params are the parameter symbols in order.
	Params []*symtab.Symbol

	// Locals are the let and for bindings of the body in declaration order.
	Locals []*symtab.Symbol
}

// Name returns the function's name.
func (f *FuncInfo) Name() string {
	return f.Decl.Name.Name
}

func newInfo() *Info {
	return &Info{
		Types:  make(map[ast.Expr]types.Type),
		Uses:   make(map[*ast.IdentifierExpr]*symtab.Symbol),
		Defs:   make(map[*ast.IdentifierExpr]*symtab.Symbol),
		byDecl: make(map[*ast.FuncDecl]*FuncInfo),
	}
}

// TypeOf returns the type recorded for e, or types.Error when e was never
// checked.
func (i *Info) TypeOf(e ast.Expr) types.Type {
	if t, ok := i.Types[e]; ok {
		return t
	}
	return types.Error
}

// Func returns the information for a function declaration.
func (i *Info) Func(decl *ast.FuncDecl) *FuncInfo {
	return i.byDecl[decl]
}

// Lookup returns the global symbol with the given name, or nil.
func (i *Info) Lookup(name string) *symtab.Symbol {
	if i.Globals == nil {
		return nil
	}
	return i.Globals.LookupLocal(name)
}
