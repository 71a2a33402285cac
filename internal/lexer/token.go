package lexer

import "github.com/fruti-lang/fruti/internal/source"

// TokenType identifies the lexical class of a token.
type TokenType int

// Token types, grouped as special tokens, literals, identifiers and keywords,
// operators, then delimiters. The range checks in IsKeyword, IsOperator and
// IsLiteral rely on this ordering.
const (
	TokenEOF TokenType = iota

	// TokenInvalid is never produced by Tokenize.
	TokenInvalid

	// Literals
	TokenInt
	TokenFloat
	TokenString
	TokenChar
	TokenTrue
	TokenFalse

	TokenIdentifier

	// Keywords
	TokenFn
	TokenLet
	TokenMut
	TokenStruct
	TokenTypeKeyword
	TokenIf
	TokenElse
	TokenWhile
	TokenFor
	TokenIn
	TokenLoop
	TokenBreak
	TokenContinue
	TokenReturn

	// Operators - arithmetic
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %

	// Operators - comparison
	TokenEqual        // ==
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Operators - logical; "and", "or" and "not" lex to these as well
	TokenAnd // &&
	TokenOr  // ||
	TokenNot // !

	// Operators - assignment
	TokenAssign    // =
	TokenPlusEq    // +=
	TokenMinusEq   // -=
	TokenStarEq    // *=
	TokenSlashEq   // /=
	TokenPercentEq // %=

	// Operators - other
	TokenDot        // .
	TokenDotDot     // ..
	TokenDotDotEq   // ..=
	TokenArrow      // ->
	TokenColon      // :
	TokenColonColon // ::

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenSemicolon    // ;
	TokenComma        // ,
)

// Token is a single lexical unit.
//
// Lexeme is the exact source text. Value is the decoded payload for literals:
// the unescaped contents of string and char literals and the digits of numeric
// literals with separators removed. For all other tokens Value equals Lexeme.
type Token struct {
	Type   TokenType
	Lexeme string
	Value  string
	Span   source.Span
}

// String returns "TYPE(lexeme) at file:line:col", for debugging.
func (t Token) String() string {
	return t.Type.String() + "(" + t.Lexeme + ") at " + t.Span.Start.String()
}

// Pos returns the start position of the token.
func (t Token) Pos() source.Position {
	return t.Span.Start
}

var tokenNames = [...]string{
	TokenEOF:          "EOF",
	TokenInvalid:      "INVALID",
	TokenInt:          "INT",
	TokenFloat:        "FLOAT",
	TokenString:       "STRING",
	TokenChar:         "CHAR",
	TokenTrue:         "TRUE",
	TokenFalse:        "FALSE",
	TokenIdentifier:   "IDENTIFIER",
	TokenFn:           "FN",
	TokenLet:          "LET",
	TokenMut:          "MUT",
	TokenStruct:       "STRUCT",
	TokenTypeKeyword:  "TYPE",
	TokenIf:           "IF",
	TokenElse:         "ELSE",
	TokenWhile:        "WHILE",
	TokenFor:          "FOR",
	TokenIn:           "IN",
	TokenLoop:         "LOOP",
	TokenBreak:        "BREAK",
	TokenContinue:     "CONTINUE",
	TokenReturn:       "RETURN",
	TokenPlus:         "PLUS",
	TokenMinus:        "MINUS",
	TokenStar:         "STAR",
	TokenSlash:        "SLASH",
	TokenPercent:      "PERCENT",
	TokenEqual:        "EQUAL",
	TokenNotEqual:     "NOTEQUAL",
	TokenLess:         "LESS",
	TokenLessEqual:    "LESSEQUAL",
	TokenGreater:      "GREATER",
	TokenGreaterEqual: "GREATEREQUAL",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenNot:          "NOT",
	TokenAssign:       "ASSIGN",
	TokenPlusEq:       "PLUSEQ",
	TokenMinusEq:      "MINUSEQ",
	TokenStarEq:       "STAREQ",
	TokenSlashEq:      "SLASHEQ",
	TokenPercentEq:    "PERCENTEQ",
	TokenDot:          "DOT",
	TokenDotDot:       "DOTDOT",
	TokenDotDotEq:     "DOTDOTEQ",
	TokenArrow:        "ARROW",
	TokenColon:        "COLON",
	TokenColonColon:   "COLONCOLON",
	TokenLeftParen:    "LPAREN",
	TokenRightParen:   "RPAREN",
	TokenLeftBrace:    "LBRACE",
	TokenRightBrace:   "RBRACE",
	TokenLeftBracket:  "LBRACKET",
	TokenRightBracket: "RBRACKET",
	TokenSemicolon:    "SEMICOLON",
	TokenComma:        "COMMA",
}

// String returns the upper-case name of the token type.
func (tt TokenType) String() string {
	if tt >= 0 && int(tt) < len(tokenNames) && tokenNames[tt] != "" {
		return tokenNames[tt]
	}
	return "UNKNOWN"
}

var tokenSpellings = map[TokenType]string{
	TokenFn:           "fn",
	TokenLet:          "let",
	TokenMut:          "mut",
	TokenStruct:       "struct",
	TokenTypeKeyword:  "type",
	TokenIf:           "if",
	TokenElse:         "else",
	TokenWhile:        "while",
	TokenFor:          "for",
	TokenIn:           "in",
	TokenLoop:         "loop",
	TokenBreak:        "break",
	TokenContinue:     "continue",
	TokenReturn:       "return",
	TokenTrue:         "true",
	TokenFalse:        "false",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenPercent:      "%",
	TokenEqual:        "==",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenAnd:          "&&",
	TokenOr:           "||",
	TokenNot:          "!",
	TokenAssign:       "=",
	TokenPlusEq:       "+=",
	TokenMinusEq:      "-=",
	TokenStarEq:       "*=",
	TokenSlashEq:      "/=",
	TokenPercentEq:    "%=",
	TokenDot:          ".",
	TokenDotDot:       "..",
	TokenDotDotEq:     "..=",
	TokenArrow:        "->",
	TokenColon:        ":",
	TokenColonColon:   "::",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBrace:    "{",
	TokenRightBrace:   "}",
	TokenLeftBracket:  "[",
	TokenRightBracket: "]",
	TokenSemicolon:    ";",
	TokenComma:        ",",
}

// Describe returns the user-facing spelling of a token type for messages,
// e.g. "`;`" or "identifier".
func (tt TokenType) Describe() string {
	if s, ok := tokenSpellings[tt]; ok {
		return "`" + s + "`"
	}
	switch tt {
	case TokenEOF:
		return "end of file"
	case TokenInt:
		return "integer literal"
	case TokenFloat:
		return "float literal"
	case TokenString:
		return "string literal"
	case TokenChar:
		return "char literal"
	case TokenIdentifier:
		return "identifier"
	default:
		return tt.String()
	}
}

// keywords maps reserved words to their token types. The natural-language
// logical operators share token types with their symbolic forms.
var keywords = map[string]TokenType{
	"fn":       TokenFn,
	"let":      TokenLet,
	"mut":      TokenMut,
	"struct":   TokenStruct,
	"type":     TokenTypeKeyword,
	"if":       TokenIf,
	"else":     TokenElse,
	"while":    TokenWhile,
	"for":      TokenFor,
	"in":       TokenIn,
	"loop":     TokenLoop,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"return":   TokenReturn,
	"true":     TokenTrue,
	"false":    TokenFalse,
	"and":      TokenAnd,
	"or":       TokenOr,
	"not":      TokenNot,
}

// LookupKeyword returns the keyword token type for identifier, or
// TokenIdentifier when it is not reserved.
func LookupKeyword(identifier string) TokenType {
	if tokenType, ok := keywords[identifier]; ok {
		return tokenType
	}
	return TokenIdentifier
}

// IsKeyword reports whether the token type is a keyword.
func (tt TokenType) IsKeyword() bool {
	return tt >= TokenFn && tt <= TokenReturn
}

// IsOperator reports whether the token type is an operator.
func (tt TokenType) IsOperator() bool {
	return tt >= TokenPlus && tt <= TokenColonColon
}

// IsLiteral reports whether the token type is a literal.
func (tt TokenType) IsLiteral() bool {
	return tt >= TokenInt && tt <= TokenFalse
}

// IsAssignOp reports whether the token type is "=" or a compound assignment.
func (tt TokenType) IsAssignOp() bool {
	return tt >= TokenAssign && tt <= TokenPercentEq
}

// CompoundBase maps a compound assignment operator to its arithmetic
// operator, e.g. TokenPlusEq to TokenPlus. ok is false for other types.
func (tt TokenType) CompoundBase() (base TokenType, ok bool) {
	switch tt {
	case TokenPlusEq:
		return TokenPlus, true
	case TokenMinusEq:
		return TokenMinus, true
	case TokenStarEq:
		return TokenStar, true
	case TokenSlashEq:
		return TokenSlash, true
	case TokenPercentEq:
		return TokenPercent, true
	default:
		return tt, false
	}
}

// Symbol returns the canonical source spelling of a keyword, operator or
// delimiter, or "" for other token types. The word operators report their
// symbolic form.
func (tt TokenType) Symbol() string {
	return tokenSpellings[tt]
}
