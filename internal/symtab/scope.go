package symtab

import (
	"fmt"
	"strings"
)

// ScopeKind represents the kind of scope.
type ScopeKind int

const (
	// ScopeGlobal holds functions, structs, aliases and built-ins.
	ScopeGlobal ScopeKind = iota

	// ScopeFunction holds a function's parameters.
	ScopeFunction

	// ScopeBlock is a { ... } block.
	ScopeBlock

	// ScopeLoop is a loop body; break and continue are valid inside it.
	ScopeLoop
)

// String returns a human-readable representation of the scope kind.
func (sk ScopeKind) String() string {
	switch sk {
	case ScopeGlobal:
		return "global"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeLoop:
		return "loop"
	default:
		return "unknown"
	}
}

// Scope is one flat level of the scope stack.
type Scope struct {
	// Kind is the kind of scope
	Kind ScopeKind

	// Symbols maps names to their symbols in this scope
	Symbols map[string]*Symbol

	// order keeps declaration order for deterministic iteration.
	order []*Symbol
}

// NewScope creates an empty scope of the given kind.
func NewScope(kind ScopeKind) *Scope {
	return &Scope{
		Kind:    kind,
		Symbols: make(map[string]*Symbol),
	}
}

// LookupLocal finds a symbol by name only in this scope.
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.Symbols[name]
}

// LocalSymbols returns the symbols declared in this scope in declaration
// order.
func (s *Scope) LocalSymbols() []*Symbol {
	symbols := make([]*Symbol, len(s.order))
	copy(symbols, s.order)
	return symbols
}

// UnusedSymbols returns the symbols in this scope that were never used, in
// declaration order.
func (s *Scope) UnusedSymbols() []*Symbol {
	unused := make([]*Symbol, 0)
	for _, symbol := range s.order {
		if !symbol.Used {
			unused = append(unused, symbol)
		}
	}
	return unused
}

// String returns a human-readable representation of the scope.
func (s *Scope) String() string {
	return fmt.Sprintf("%s scope (%d symbols)", s.Kind, len(s.Symbols))
}

// Table is the scope stack. The bottom entry is always the global scope.
type Table struct {
	scopes []*Scope
}

// NewTable creates a table holding only a fresh global scope.
func NewTable() *Table {
	return NewTableWithGlobal(NewScope(ScopeGlobal))
}

// NewTableWithGlobal creates a table over an existing global scope. Several
// tables may share one global scope as long as none of them defines into it.
func NewTableWithGlobal(global *Scope) *Table {
	return &Table{scopes: []*Scope{global}}
}

// Push enters a new scope of the given kind.
func (t *Table) Push(kind ScopeKind) *Scope {
	scope := NewScope(kind)
	t.scopes = append(t.scopes, scope)
	return scope
}

// Pop leaves the innermost scope and returns it. The global scope is never
// popped; Pop returns nil when only it remains.
func (t *Table) Pop() *Scope {
	if len(t.scopes) == 1 {
		return nil
	}
	top := t.scopes[len(t.scopes)-1]
	t.scopes[len(t.scopes)-1] = nil
	t.scopes = t.scopes[:len(t.scopes)-1]
	return top
}

// Depth returns the number of scopes above the global one.
func (t *Table) Depth() int {
	return len(t.scopes) - 1
}

// Current returns the innermost scope.
func (t *Table) Current() *Scope {
	return t.scopes[len(t.scopes)-1]
}

// Global returns the global scope.
func (t *Table) Global() *Scope {
	return t.scopes[0]
}

// Define adds a symbol to the innermost scope and records its depth.
//
// NOTE: only the innermost scope is checked. Shadowing an outer declaration is
// allowed:
//
//	let x = 1;
//	{
//	    let x = 2; // OK, shadows outer x
//	}
//
// When the name is already declared in the same scope the existing symbol is
// returned with ok false and the table is unchanged.
func (t *Table) Define(symbol *Symbol) (existing *Symbol, ok bool) {
	scope := t.Current()
	if prev, found := scope.Symbols[symbol.Name]; found {
		return prev, false
	}
	symbol.Depth = t.Depth()
	scope.Symbols[symbol.Name] = symbol
	scope.order = append(scope.order, symbol)
	return symbol, true
}

// Lookup finds a symbol by name, scanning from the innermost scope to the
// global one. It returns nil when the name is not declared.
func (t *Table) Lookup(name string) *Symbol {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if symbol, ok := t.scopes[i].Symbols[name]; ok {
			return symbol
		}
	}
	return nil
}

// LookupLocal finds a symbol by name in the innermost scope only.
func (t *Table) LookupLocal(name string) *Symbol {
	return t.Current().LookupLocal(name)
}

// InLoop reports whether a loop scope encloses the current position within
// the innermost function.
func (t *Table) InLoop() bool {
	for i := len(t.scopes) - 1; i > 0; i-- {
		switch t.scopes[i].Kind {
		case ScopeLoop:
			return true
		case ScopeFunction:
			return false
		}
	}
	return false
}

// DebugString returns the scope stack from outermost to innermost, one scope
// per line followed by its symbols.
//
// EXAMPLE OUTPUT:
//
//	global scope (2 symbols)
//	  function main: fn() -> i32 at main.fr:1:4
//	  function println: fn(str) -> void at :0:0
//	  function scope (1 symbols)
//	    parameter n: i32 at main.fr:1:9
func (t *Table) DebugString() string {
	var sb strings.Builder
	for depth, scope := range t.scopes {
		prefix := strings.Repeat("  ", depth)
		sb.WriteString(prefix + scope.String() + "\n")
		for _, symbol := range scope.LocalSymbols() {
			sb.WriteString(prefix + "  " + symbol.String() + "\n")
		}
	}
	return sb.String()
}
