package parser

import (
	"github.com/fruti-lang/fruti/internal/lexer"
)

// Precedence represents operator precedence levels.
//
// Levels from lowest to highest:
//  1. Assignment (=, +=, -=, *=, /=, %=)
//  2. Logical OR (||, or)
//  3. Logical AND (&&, and)
//  4. Equality (==, !=)
//  5. Comparison (<, <=, >, >=)
//  6. Addition/Subtraction (+, -)
//  7. Multiplication/Division (*, /, %)
//  8. Unary (-, !, not)
//  9. Call, index and member access ((), [], .)
//
// Assignment is only valid at statement level; expressions start climbing at
// PrecOr, so an assignment operator always ends an expression.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =, +=, -=, etc.
	PrecOr                    // ||
	PrecAnd                   // &&
	PrecEquality              // ==, !=
	PrecComparison            // <, <=, >, >=
	PrecTerm                  // +, -
	PrecFactor                // *, /, %
	PrecUnary                 // -, !
	PrecCall                  // ., [], ()
	PrecPrimary               // literals, identifiers, grouping
)

var precedenceNames = [...]string{
	PrecNone:       "none",
	PrecAssignment: "assignment",
	PrecOr:         "or",
	PrecAnd:        "and",
	PrecEquality:   "equality",
	PrecComparison: "comparison",
	PrecTerm:       "term",
	PrecFactor:     "factor",
	PrecUnary:      "unary",
	PrecCall:       "call",
	PrecPrimary:    "primary",
}

func (p Precedence) String() string {
	if p >= 0 && int(p) < len(precedenceNames) {
		return precedenceNames[p]
	}
	return "unknown"
}

// getPrecedence returns the precedence level of a token in infix position.
// Tokens that cannot continue an expression return PrecNone.
func getPrecedence(tokenType lexer.TokenType) Precedence {
	switch tokenType {
	// Assignment operators (lowest precedence)
	case lexer.TokenAssign,
		lexer.TokenPlusEq,
		lexer.TokenMinusEq,
		lexer.TokenStarEq,
		lexer.TokenSlashEq,
		lexer.TokenPercentEq:
		return PrecAssignment

	case lexer.TokenOr:
		return PrecOr

	case lexer.TokenAnd:
		return PrecAnd

	case lexer.TokenEqual, lexer.TokenNotEqual:
		return PrecEquality

	case lexer.TokenLess,
		lexer.TokenLessEqual,
		lexer.TokenGreater,
		lexer.TokenGreaterEqual:
		return PrecComparison

	case lexer.TokenPlus, lexer.TokenMinus:
		return PrecTerm

	case lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		return PrecFactor

	// Member access, indexing, function calls
	case lexer.TokenDot, lexer.TokenLeftBracket, lexer.TokenLeftParen:
		return PrecCall

	default:
		return PrecNone
	}
}

// isRightAssociative reports whether the operator groups to the right.
// Only the assignment operators do: a = b = c would be a = (b = c).
func isRightAssociative(tokenType lexer.TokenType) bool {
	return tokenType.IsAssignOp()
}

// isBinaryOperator reports whether the token is a binary operator handled by
// precedence climbing, as opposed to a postfix form such as a call.
func isBinaryOperator(tokenType lexer.TokenType) bool {
	prec := getPrecedence(tokenType)
	return prec >= PrecOr && prec <= PrecFactor
}
