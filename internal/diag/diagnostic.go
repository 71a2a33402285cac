// Package diag holds the structured diagnostics produced by every phase of the
// compiler. Phases never print or abort on user errors; they append to a
// Collector that the caller owns and inspects when the pipeline ends.
package diag

import (
	"fmt"

	"github.com/fruti-lang/fruti/internal/source"
)

// Severity classifies how serious a diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Phase names the compiler phase that produced a diagnostic.
type Phase string

const (
	PhaseLexer    Phase = "lexer"
	PhaseParser   Phase = "parser"
	PhaseSemantic Phase = "semantic"
	PhaseCodegen  Phase = "codegen"
)

// Kind is the stable machine-readable identity of a diagnostic.
type Kind string

// Lexer kinds.
const (
	KindUnterminatedString  Kind = "UnterminatedString"
	KindUnterminatedChar    Kind = "UnterminatedChar"
	KindUnterminatedComment Kind = "UnterminatedComment"
	KindInvalidCharacter    Kind = "InvalidCharacter"
	KindInvalidChar         Kind = "InvalidChar"
	KindInvalidEscape       Kind = "InvalidEscape"
	KindInvalidNumber       Kind = "InvalidNumber"
)

// Parser kinds.
const (
	KindUnexpectedToken     Kind = "UnexpectedToken"
	KindExpectedToken       Kind = "ExpectedToken"
	KindInvalidAssignTarget Kind = "InvalidAssignTarget"
	KindNestingTooDeep      Kind = "NestingTooDeep"
)

// Semantic kinds.
const (
	KindUndefinedVariable    Kind = "UndefinedVariable"
	KindUndefinedFunction    Kind = "UndefinedFunction"
	KindUndefinedType        Kind = "UndefinedType"
	KindDuplicateDeclaration Kind = "DuplicateDeclaration"
	KindTypeMismatch         Kind = "TypeMismatch"
	KindArityMismatch        Kind = "ArityMismatch"
	KindMissingReturn        Kind = "MissingReturn"
	KindConditionNotBool     Kind = "ConditionNotBool"
	KindInvalidControlFlow   Kind = "InvalidControlFlow"
	KindUnknownField         Kind = "UnknownField"
	KindMissingField         Kind = "MissingField"
	KindImmutableAssign      Kind = "ImmutableAssign"
	KindUnusedVariable       Kind = "UnusedVariable"
	KindTooManyErrors        Kind = "TooManyErrors"
)

// KindInternalError marks a broken compiler invariant.
const KindInternalError Kind = "InternalError"

// Diagnostic is one message about the source.
type Diagnostic struct {
	Severity Severity
	Phase    Phase
	Kind     Kind
	Message  string
	Span     source.Span
}

// IsError reports whether the diagnostic has error severity.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// String renders the diagnostic as "file:line:col: severity: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span.Start, d.Severity, d.Message)
}

// Error lets a Diagnostic be returned where an error is expected.
func (d Diagnostic) Error() string {
	return d.String()
}
