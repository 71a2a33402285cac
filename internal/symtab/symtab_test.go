package symtab

import (
	"strings"
	"testing"

	"github.com/fruti-lang/fruti/internal/semantic/types"
	"github.com/fruti-lang/fruti/internal/source"
)

// Test Symbol

func TestSymbol_String(t *testing.T) {
	symbol := &Symbol{
		Name: "x",
		Kind: SymbolVariable,
		Type: types.I32,
		Span: source.Span{Start: source.Position{Filename: "test.fr", Line: 1, Column: 5}},
	}

	expected := "variable x: i32 at test.fr:1:5"
	result := symbol.String()
	if result != expected {
		t.Errorf("Symbol.String() = %q, want %q", result, expected)
	}
}

func TestSymbol_CanAssign(t *testing.T) {
	tests := []struct {
		name     string
		symbol   *Symbol
		expected bool
	}{
		{"mutable variable can be assigned", &Symbol{Kind: SymbolVariable, Mutable: true}, true},
		{"immutable variable cannot be assigned", &Symbol{Kind: SymbolVariable}, false},
		{"parameter cannot be assigned", &Symbol{Kind: SymbolParameter}, false},
		{"function cannot be assigned", &Symbol{Kind: SymbolFunction}, false},
		{"type cannot be assigned", &Symbol{Kind: SymbolType, Mutable: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.symbol.CanAssign()
			if result != tt.expected {
				t.Errorf("Symbol.CanAssign() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSymbolKind_String(t *testing.T) {
	tests := []struct {
		kind     SymbolKind
		expected string
	}{
		{SymbolVariable, "variable"},
		{SymbolParameter, "parameter"},
		{SymbolFunction, "function"},
		{SymbolType, "type"},
		{SymbolKind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("SymbolKind.String() = %q, want %q", got, tt.expected)
		}
	}
}

// Test Table

func TestTable_DefineAndLookup(t *testing.T) {
	table := NewTable()

	if _, ok := table.Define(&Symbol{Name: "main", Kind: SymbolFunction, Type: types.Void}); !ok {
		t.Fatal("expected main to be defined")
	}

	table.Push(ScopeFunction)
	table.Define(&Symbol{Name: "x", Kind: SymbolParameter, Type: types.I32})

	x := table.Lookup("x")
	if x == nil {
		t.Fatal("expected to find x")
	}
	if x.Depth != 1 || x.IsGlobal() {
		t.Errorf("expected x at depth 1, got %d", x.Depth)
	}

	main := table.Lookup("main")
	if main == nil || !main.IsGlobal() {
		t.Error("expected main to be visible as a global")
	}

	if table.Lookup("missing") != nil {
		t.Error("expected nil for an undeclared name")
	}
}

func TestTable_DuplicateReturnsExisting(t *testing.T) {
	table := NewTable()
	table.Push(ScopeBlock)

	first := &Symbol{Name: "x", Kind: SymbolVariable, Type: types.I32}
	table.Define(first)

	existing, ok := table.Define(&Symbol{Name: "x", Kind: SymbolVariable, Type: types.Bool})
	if ok {
		t.Fatal("expected redeclaration in the same scope to fail")
	}
	if existing != first {
		t.Error("expected the existing symbol to be returned")
	}
	if !table.Lookup("x").Type.Equals(types.I32) {
		t.Error("expected the first declaration to stay in effect")
	}
}

func TestTable_ShadowingAndPop(t *testing.T) {
	table := NewTable()
	table.Push(ScopeFunction)
	outer := &Symbol{Name: "x", Kind: SymbolVariable, Type: types.I32}
	table.Define(outer)

	table.Push(ScopeBlock)
	inner := &Symbol{Name: "x", Kind: SymbolVariable, Type: types.Str}
	if _, ok := table.Define(inner); !ok {
		t.Fatal("expected shadowing in a nested scope to succeed")
	}
	if table.Lookup("x") != inner {
		t.Error("expected the innermost declaration to win")
	}
	if table.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", table.Depth())
	}

	popped := table.Pop()
	if popped == nil || popped.LookupLocal("x") != inner {
		t.Error("expected Pop to return the block scope")
	}
	if table.Lookup("x") != outer {
		t.Error("expected the outer declaration after pop")
	}
}

func TestTable_VariableGoneAfterPop(t *testing.T) {
	table := NewTable()
	table.Push(ScopeFunction)
	table.Push(ScopeBlock)
	table.Define(&Symbol{Name: "inner", Kind: SymbolVariable, Type: types.I32})
	table.Pop()

	if table.Lookup("inner") != nil {
		t.Error("expected inner to be out of scope")
	}
}

func TestTable_PopNeverRemovesGlobal(t *testing.T) {
	table := NewTable()
	if table.Pop() != nil {
		t.Error("expected Pop on the global scope to return nil")
	}
	if table.Depth() != 0 || table.Current() != table.Global() {
		t.Error("expected the global scope to remain")
	}
}

func TestTable_InLoop(t *testing.T) {
	table := NewTable()
	if table.InLoop() {
		t.Error("expected global scope not to be in a loop")
	}

	table.Push(ScopeFunction)
	table.Push(ScopeLoop)
	table.Push(ScopeBlock)
	if !table.InLoop() {
		t.Error("expected a block inside a loop to be in a loop")
	}

	table.Pop()
	table.Pop()
	if table.InLoop() {
		t.Error("expected function body not to be in a loop")
	}
}

func TestTable_SharedGlobal(t *testing.T) {
	global := NewScope(ScopeGlobal)
	base := NewTableWithGlobal(global)
	base.Define(&Symbol{Name: "f", Kind: SymbolFunction, Type: types.NewFunction(nil, types.Void)})

	a := NewTableWithGlobal(global)
	b := NewTableWithGlobal(global)
	a.Push(ScopeFunction)
	a.Define(&Symbol{Name: "local", Kind: SymbolVariable, Type: types.I32})

	if b.Lookup("f") == nil {
		t.Error("expected the shared global to be visible")
	}
	if b.Lookup("local") != nil {
		t.Error("expected locals not to leak between tables")
	}
}

func TestScope_UnusedSymbolsInOrder(t *testing.T) {
	table := NewTable()
	table.Push(ScopeBlock)
	for _, name := range []string{"c", "a", "b"} {
		table.Define(&Symbol{Name: name, Kind: SymbolVariable, Type: types.I32})
	}
	table.Lookup("a").MarkUsed()

	var names []string
	for _, s := range table.Current().UnusedSymbols() {
		names = append(names, s.Name)
	}
	if strings.Join(names, ",") != "c,b" {
		t.Errorf("expected c,b, got %v", names)
	}
	if got := len(table.Current().LocalSymbols()); got != 3 {
		t.Errorf("expected 3 local symbols, got %d", got)
	}
}

func TestTable_DebugString(t *testing.T) {
	table := NewTable()
	table.Define(&Symbol{Name: "main", Kind: SymbolFunction, Type: types.NewFunction(nil, types.I32)})
	table.Push(ScopeFunction)
	table.Define(&Symbol{Name: "n", Kind: SymbolParameter, Type: types.I32})

	out := table.DebugString()
	for _, want := range []string{"global scope (1 symbols)", "function main: fn() -> i32", "  function scope (1 symbols)", "parameter n: i32"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}
