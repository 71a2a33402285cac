// Package semantic implements semantic analysis for the compiler.
//
// SEMANTIC ANALYSIS:
// After parsing, we have an AST, but it might not be semantically valid.
// Semantic analysis checks:
// 1. Name resolution - is every name declared before use?
// 2. Type checking - do operations use compatible types?
// 3. Control flow - are break/continue/return used correctly, and does every
// non-void function return on all paths?
//
// PASSES:
// Pass 1 collects every top-level name into the global scope: struct names,
// then type aliases, then struct fields, then function signatures. Forward
// references between declarations therefore work in any order.
// Pass 2 checks each function body against the now read-only global scope.
// Bodies are independent of each other, so they may be checked concurrently
// (see parallel.go).
//
// ERROR MODEL:
// Every mistake is reported to the diagnostics collector and analysis goes
// on. An expression that fails to check gets types.Error, and every rule that
// sees types.Error on an input stays silent, so one mistake yields one
// diagnostic.
package semantic

import (
	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/semantic/types"
	"github.com/fruti-lang/fruti/internal/source"
	"github.com/fruti-lang/fruti/internal/symtab"
)

// DefaultMaxErrors is the semantic error limit used when Config.MaxErrors is
// not positive.
const DefaultMaxErrors = 100

// Config controls the analyzer.
type Config struct {
	// MaxErrors is the number of semantic errors recorded before the rest
	// are dropped and a single TooManyErrors note is added.
	MaxErrors int

	// Jobs is the number of function bodies checked concurrently. Values
	// below 2 check bodies sequentially. The diagnostics are the same either
	// way.
	Jobs int
}

// Analyzer holds the state shared by every function body: the global scope
// and the results of the collection pass.
type Analyzer struct {
	cfg Config

	// globals is only written during pass 1.
	globals *symtab.Table

	// diags buffers pass 1 diagnostics until they are merged.
	diags *diag.Collector

	info *Info

	// aliases maps an alias symbol to its declaration while it is resolved.
	aliases   map[*symtab.Symbol]*ast.TypeAliasDecl
	resolving map[*symtab.Symbol]bool
}

// Analyze checks file and reports problems to diags. The returned Info is
// complete for every declaration that could be resolved, even when errors
// were reported.
func Analyze(file *ast.File, diags *diag.Collector, cfg Config) *Info {
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = DefaultMaxErrors
	}

	a := newAnalyzer(cfg)
	a.declareBuiltins()
	if file != nil {
		a.collect(file)
	}

	results := a.checkBodies(a.info.Funcs)
	a.merge(diags, results)
	return a.info
}

func newAnalyzer(cfg Config) *Analyzer {
	a := &Analyzer{
		cfg:       cfg,
		globals:   symtab.NewTable(),
		diags:     diag.NewCollector(),
		info:      newInfo(),
		aliases:   make(map[*symtab.Symbol]*ast.TypeAliasDecl),
		resolving: make(map[*symtab.Symbol]bool),
	}
	a.info.Globals = a.globals.Global()
	return a
}

// builtinFuncs are the functions every program can call.
var builtinFuncs = []string{"print", "println"}

var builtinTypeNames = []string{
	"i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64",
	"f32", "f64", "bool", "char", "str", "void",
}

// declareBuiltins predeclares the primitive type names and the built-in
// functions, so user declarations that reuse them are duplicates.
func (a *Analyzer) declareBuiltins() {
	for _, name := range builtinTypeNames {
		t, _ := types.Builtin(name)
		a.globals.Define(&symtab.Symbol{Name: name, Kind: symtab.SymbolType, Type: t, Builtin: true})
	}
	for _, name := range builtinFuncs {
		a.globals.Define(&symtab.Symbol{
			Name:    name,
			Kind:    symtab.SymbolFunction,
			Type:    types.NewFunction([]types.Type{types.Str}, types.Void),
			Builtin: true,
		})
	}
}

// collect is pass 1.
func (a *Analyzer) collect(file *ast.File) {
	var structs []*ast.StructDecl
	var aliases []*ast.TypeAliasDecl
	var funcs []*ast.FuncDecl
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.StructDecl:
			structs = append(structs, d)
		case *ast.TypeAliasDecl:
			aliases = append(aliases, d)
		case *ast.FuncDecl:
			funcs = append(funcs, d)
		}
	}

	// Struct names first so fields, aliases and signatures can refer to any
	// struct regardless of declaration order.
	declared := make(map[*ast.StructDecl]*types.StructType)
	for _, d := range structs {
		st := types.NewStruct(d.Name.Name, nil)
		if a.declareGlobal(d.Name, symtab.SymbolType, st) != nil {
			declared[d] = st
			a.info.Structs = append(a.info.Structs, st)
		}
	}

	var aliasSyms []*symtab.Symbol
	for _, d := range aliases {
		if sym := a.declareGlobal(d.Name, symtab.SymbolType, nil); sym != nil {
			a.aliases[sym] = d
			aliasSyms = append(aliasSyms, sym)
		}
	}
	for _, sym := range aliasSyms {
		a.resolveAlias(sym)
	}

	for _, d := range structs {
		if st, ok := declared[d]; ok {
			a.collectFields(d, st)
		}
	}
	for _, d := range structs {
		if st, ok := declared[d]; ok && containsStruct(st, st, make(map[*types.StructType]bool)) {
			a.diags.Errorf(diag.PhaseSemantic, diag.KindTypeMismatch, d.Name.Span(),
				"struct %s contains itself", st.Name)
		}
	}

	for _, d := range funcs {
		a.collectFunc(d)
	}
}

// declareGlobal defines a top-level name. It returns nil and reports
// DuplicateDeclaration when the name is taken.
func (a *Analyzer) declareGlobal(name *ast.IdentifierExpr, kind symtab.SymbolKind, t types.Type) *symtab.Symbol {
	sym := &symtab.Symbol{Name: name.Name, Kind: kind, Type: t, Span: name.Span()}
	if existing, ok := a.globals.Define(sym); !ok {
		a.duplicate(a.diags, name, existing)
		return nil
	}
	return sym
}

func (a *Analyzer) duplicate(diags *diag.Collector, name *ast.IdentifierExpr, existing *symtab.Symbol) {
	if existing.Builtin {
		diags.Errorf(diag.PhaseSemantic, diag.KindDuplicateDeclaration, name.Span(),
			"`%s` is already declared as a built-in %s", name.Name, existing.Kind)
		return
	}
	diags.Errorf(diag.PhaseSemantic, diag.KindDuplicateDeclaration, name.Span(),
		"`%s` is already declared at %s", name.Name, existing.Span.Start)
}

// resolveAlias fills in the type an alias stands for. Aliases may refer to
// aliases declared later; a cycle resolves to types.Error.
func (a *Analyzer) resolveAlias(sym *symtab.Symbol) types.Type {
	if sym.Type != nil {
		return sym.Type
	}
	d := a.aliases[sym]
	if a.resolving[sym] {
		a.diags.Errorf(diag.PhaseSemantic, diag.KindUndefinedType, d.Name.Span(),
			"type alias `%s` refers to itself", sym.Name)
		sym.Type = types.Error
		return sym.Type
	}

	a.resolving[sym] = true
	t := a.resolveType(d.Type, a.diags)
	delete(a.resolving, sym)
	if sym.Type == nil {
		sym.Type = t
	}
	return sym.Type
}

func (a *Analyzer) collectFields(d *ast.StructDecl, st *types.StructType) {
	seen := make(map[string]*ast.Field)
	for _, f := range d.Fields {
		if prev, ok := seen[f.Name.Name]; ok {
			a.diags.Errorf(diag.PhaseSemantic, diag.KindDuplicateDeclaration, f.Name.Span(),
				"field `%s` is already declared at %s", f.Name.Name, prev.Name.Pos())
			continue
		}
		seen[f.Name.Name] = f
		t := a.resolveValueType(f.Type, "field "+f.Name.Name, a.diags)
		st.Fields = append(st.Fields, types.StructField{Name: f.Name.Name, Type: t})
	}
}

// containsStruct reports whether st holds target by value, directly or
// through nested struct fields.
func containsStruct(st, target *types.StructType, seen map[*types.StructType]bool) bool {
	if seen[st] {
		return false
	}
	seen[st] = true
	for _, f := range st.Fields {
		inner, ok := f.Type.(*types.StructType)
		if !ok {
			continue
		}
		if inner == target || containsStruct(inner, target, seen) {
			return true
		}
	}
	return false
}

func (a *Analyzer) collectFunc(d *ast.FuncDecl) {
	params := make([]types.Type, len(d.Params))
	for i, p := range d.Params {
		params[i] = a.resolveValueType(p.Type, "parameter "+p.Name.Name, a.diags)
	}
	var ret types.Type = types.Void
	if d.ReturnType != nil {
		ret = a.resolveType(d.ReturnType, a.diags)
	}
	ft := types.NewFunction(params, ret)

	fn := &FuncInfo{Decl: d, Type: ft}
	fn.Symbol = a.declareGlobal(d.Name, symtab.SymbolFunction, ft)
	if fn.Symbol == nil {
		// Duplicates are still checked, against a symbol nobody can call.
		fn.Symbol = &symtab.Symbol{Name: d.Name.Name, Kind: symtab.SymbolFunction, Type: ft, Span: d.Name.Span()}
	}
	a.info.Funcs = append(a.info.Funcs, fn)
	a.info.byDecl[d] = fn
}

// resolveType looks a type name up in the global scope. Unknown names report
// UndefinedType and resolve to types.Error.
func (a *Analyzer) resolveType(te *ast.TypeExpr, diags *diag.Collector) types.Type {
	if te == nil {
		return types.Error
	}
	return a.resolveTypeName(te.Name, te.Span(), diags)
}

func (a *Analyzer) resolveTypeName(name string, span source.Span, diags *diag.Collector) types.Type {
	sym := a.globals.Global().LookupLocal(name)
	if sym == nil {
		diags.Errorf(diag.PhaseSemantic, diag.KindUndefinedType, span, "undefined type `%s`", name)
		return types.Error
	}
	if sym.Kind != symtab.SymbolType {
		diags.Errorf(diag.PhaseSemantic, diag.KindUndefinedType, span, "`%s` is a %s, not a type", name, sym.Kind)
		return types.Error
	}
	if sym.Type == nil {
		return a.resolveAlias(sym)
	}
	return sym.Type
}

// resolveValueType resolves the type of a parameter, field or variable, which
// cannot be void.
func (a *Analyzer) resolveValueType(te *ast.TypeExpr, what string, diags *diag.Collector) types.Type {
	t := a.resolveType(te, diags)
	if _, ok := t.(*types.VoidType); ok {
		diags.Errorf(diag.PhaseSemantic, diag.KindTypeMismatch, te.Span(), "%s cannot have type void", what)
		return types.Error
	}
	return t
}

// merge copies pass 1 diagnostics and the per-body results into diags and the
// Info, in declaration order, applying the error limit.
func (a *Analyzer) merge(diags *diag.Collector, results []*bodyResult) {
	lim := &limiter{out: diags, max: a.cfg.MaxErrors}
	lim.addAll(a.diags.All())

	var unused []diag.Diagnostic
	for _, r := range results {
		lim.addAll(r.diags.All())
		unused = append(unused, r.unused...)

		r.fn.Params = r.params
		r.fn.Locals = r.locals
		for e, t := range r.types {
			a.info.Types[e] = t
		}
		for id, sym := range r.uses {
			a.info.Uses[id] = sym
		}
		for id, sym := range r.defs {
			a.info.Defs[id] = sym
		}
	}

	// Unused bindings are only worth mentioning in a unit that is otherwise
	// clean; after an error they are often a consequence of it.
	if !diags.HasErrors() {
		for _, d := range unused {
			diags.Add(d)
		}
	}
}

// limiter forwards diagnostics and drops semantic errors past the limit.
type limiter struct {
	out     *diag.Collector
	max     int
	errors  int
	tripped bool
}

func (l *limiter) addAll(ds []diag.Diagnostic) {
	for _, d := range ds {
		l.add(d)
	}
}

func (l *limiter) add(d diag.Diagnostic) {
	if !d.IsError() {
		l.out.Add(d)
		return
	}
	if l.errors >= l.max {
		if !l.tripped {
			l.tripped = true
			l.out.Notef(diag.PhaseSemantic, diag.KindTooManyErrors, d.Span,
				"too many errors; stopped reporting after %d", l.max)
		}
		return
	}
	l.errors++
	l.out.Add(d)
}
