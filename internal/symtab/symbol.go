// Package symtab implements symbol table management for name resolution and
// scoping.
//
// The table is an explicit stack of flat scopes. Entering a function, loop
// body or block pushes a scope and leaving it pops one. Lookup scans from the
// innermost scope outwards and the first hit wins, so an inner declaration
// silently shadows an outer one. Scopes hold no parent pointers; a scope that
// has been popped is unreachable from the table.
package symtab

import (
	"github.com/fruti-lang/fruti/internal/semantic/types"
	"github.com/fruti-lang/fruti/internal/source"
)

// SymbolKind represents the kind of symbol.
type SymbolKind int

const (
	// SymbolVariable is a local introduced by let or a for loop.
	SymbolVariable SymbolKind = iota

	// SymbolParameter is a function parameter.
	SymbolParameter

	// SymbolFunction is a declared or built-in function.
	SymbolFunction

	// SymbolType is a struct or a type alias.
	SymbolType
)

// String returns a human-readable representation of the symbol kind.
func (sk SymbolKind) String() string {
	switch sk {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	case SymbolType:
		return "type"
	default:
		return "unknown"
	}
}

// Symbol represents a named entity in the program.
type Symbol struct {
	// Name is the symbol's identifier
	Name string

	// Kind is what kind of symbol this is
	Kind SymbolKind

	// Type is the symbol's type: the variable type, the function signature
	// or, for SymbolType, the type the name denotes.
	Type types.Type

	// Span is the declaring identifier; zero for built-ins.
	Span source.Span

	// Depth is the scope depth the symbol was defined at; 0 is global.
	Depth int

	// Mutable is set for let mut bindings.
	Mutable bool

	// Used is set when the symbol is read. Only local symbols are marked, so
	// the global scope stays read-only while bodies are checked.
	Used bool

	// Builtin marks symbols predeclared by the compiler.
	Builtin bool
}

// String returns a human-readable representation of the symbol.
// Format: "kind name: type at position"
// Example: "variable x: i32 at main.fr:4:9"
func (s *Symbol) String() string {
	return s.Kind.String() + " " + s.Name + ": " + s.Type.String() + " at " + s.Span.Start.String()
}

// IsGlobal returns true if this symbol is declared at global scope.
func (s *Symbol) IsGlobal() bool {
	return s.Depth == 0
}

// IsLocal returns true if this symbol is declared in a local scope.
func (s *Symbol) IsLocal() bool {
	return !s.IsGlobal()
}

// IsValue reports whether the symbol names a runtime value, as opposed to a
// function or a type.
func (s *Symbol) IsValue() bool {
	return s.Kind == SymbolVariable || s.Kind == SymbolParameter
}

// CanAssign returns true if this symbol can be assigned to.
//
// RULES:
// - let mut variables can be assigned
// - let variables, parameters and loop variables cannot
// - functions and types cannot
func (s *Symbol) CanAssign() bool {
	return s.Kind == SymbolVariable && s.Mutable
}

// MarkUsed marks this symbol as used.
func (s *Symbol) MarkUsed() {
	s.Used = true
}
