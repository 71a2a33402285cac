// Package parser implements a recursive descent parser for fruti.
//
// Statements and declarations are parsed by recursive descent, one function
// per grammar rule. Expressions use precedence climbing over the level table
// in precedence.go.
//
// Syntax errors never stop the parse. They are reported to the diagnostics
// collector; a failed consume unwinds to the enclosing statement or
// declaration with panic/recover, which skips ahead to a synchronization point
// and resumes. Unparseable expressions become ast.ErrorExpr nodes, so the
// returned tree is always structurally complete.
package parser

import (
	"fmt"

	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/source"
)

// maxNestingDepth bounds expression and block nesting so that hostile input
// cannot exhaust the goroutine stack.
const maxNestingDepth = 1000

// bailout is the panic value used to unwind to the nearest recovery point.
type bailout struct{}

// Parser converts a token slice into an AST.
type Parser struct {
	tokens []lexer.Token
	pos    int

	// current is the token being examined, previous the last one consumed.
	current  lexer.Token
	previous lexer.Token

	diags *diag.Collector

	// panicMode suppresses further diagnostics until the parser resynchronizes,
	// so one mistake yields one message.
	panicMode bool

	depth int

	// noStructLiteral is set while parsing if/while/for headers, where
	// "name {" starts the body rather than a struct literal.
	noStructLiteral bool
}

// Parse parses a whole file. It never panics and always returns a tree; syntax
// errors are added to diags. An empty or unterminated token slice is given a
// synthetic end-of-file token.
func Parse(tokens []lexer.Token, diags *diag.Collector) *ast.File {
	return New(tokens, diags).ParseFile()
}

// New creates a parser over tokens. A nil collector is replaced by a fresh one.
func New(tokens []lexer.Token, diags *diag.Collector) *Parser {
	if diags == nil {
		diags = diag.NewCollector()
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokenEOF {
		var end source.Span
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1].Span.End
			end = source.Span{Start: last, End: last}
		}
		// Copy so the caller's slice is never written through.
		tokens = append(tokens[:len(tokens):len(tokens)], lexer.Token{Type: lexer.TokenEOF, Span: end})
	}

	p := &Parser{
		tokens: tokens,
		diags:  diags,
	}
	p.current = tokens[0]
	return p
}

// ParseFile parses declarations until end of file.
//
// GRAMMAR:
//
//	file = decl* EOF
func (p *Parser) ParseFile() *ast.File {
	start := p.current.Span
	file := &ast.File{
		Filename: start.Start.Filename,
		Decls:    make([]ast.Decl, 0),
	}

	for !p.isAtEnd() {
		before := p.pos
		if decl := p.parseDecl(); decl != nil {
			file.Decls = append(file.Decls, decl)
		}
		if p.pos == before {
			p.advance()
		}
	}

	file.Range = source.Join(start, p.current.Span)
	return file
}

// parseDecl parses one top-level declaration. On a syntax error it skips to
// the next declaration keyword and returns nil.
func (p *Parser) parseDecl() (decl ast.Decl) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.synchronizeDecl()
			decl = nil
		}
	}()

	p.panicMode = false
	switch p.current.Type {
	case lexer.TokenFn:
		return p.parseFuncDecl()
	case lexer.TokenStruct:
		return p.parseStructDecl()
	case lexer.TokenTypeKeyword:
		return p.parseTypeAliasDecl()
	}

	p.errorAtCurrent(diag.KindUnexpectedToken,
		"expected declaration (`fn`, `struct` or `type`), found %s", p.current.Type.Describe())
	panic(bailout{})
}

// parseFuncDecl parses a function declaration.
//
// GRAMMAR:
//
//	funcDecl = "fn" IDENT "(" params? ")" ("->" type)? block
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.current.Span
	p.advance() // fn

	name := p.consumeIdent("expected function name")
	p.consume(lexer.TokenLeftParen, "expected `(` after function name")
	params := p.parseParameters()

	var returnType *ast.TypeExpr
	if p.match(lexer.TokenArrow) {
		returnType = p.parseType()
	}

	body := p.parseBlock()
	return &ast.FuncDecl{
		BaseNode:   ast.BaseNode{Range: p.spanFrom(start)},
		Name:       name,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
	}
}

// parseParameters parses a parameter list after its opening parenthesis and
// consumes the closing one. A trailing comma is allowed.
//
// GRAMMAR:
//
//	params = param ("," param)* ","?
//	param  = IDENT ":" type
func (p *Parser) parseParameters() []*ast.Param {
	params := make([]*ast.Param, 0)
	for !p.check(lexer.TokenRightParen) && !p.isAtEnd() {
		start := p.current.Span
		name := p.consumeIdent("expected parameter name")
		p.consume(lexer.TokenColon, "expected `:` after parameter name")
		typ := p.parseType()
		params = append(params, &ast.Param{
			BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
			Name:     name,
			Type:     typ,
		})
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRightParen, "expected `)` after parameters")
	return params
}

// parseStructDecl parses a struct declaration.
//
// GRAMMAR:
//
//	structDecl = "struct" IDENT "{" (field ("," field)* ","?)? "}"
//	field      = IDENT ":" type
func (p *Parser) parseStructDecl() *ast.StructDecl {
	start := p.current.Span
	p.advance() // struct

	name := p.consumeIdent("expected struct name")
	p.consume(lexer.TokenLeftBrace, "expected `{` after struct name")

	fields := make([]*ast.Field, 0)
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		fieldStart := p.current.Span
		fieldName := p.consumeIdent("expected field name")
		p.consume(lexer.TokenColon, "expected `:` after field name")
		typ := p.parseType()
		fields = append(fields, &ast.Field{
			BaseNode: ast.BaseNode{Range: p.spanFrom(fieldStart)},
			Name:     fieldName,
			Type:     typ,
		})
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRightBrace, "expected `}` after struct fields")

	return &ast.StructDecl{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Name:     name,
		Fields:   fields,
	}
}

// parseTypeAliasDecl parses a type alias.
//
// GRAMMAR:
//
//	typeAlias = "type" IDENT "=" type ";"
func (p *Parser) parseTypeAliasDecl() *ast.TypeAliasDecl {
	start := p.current.Span
	p.advance() // type

	name := p.consumeIdent("expected type name")
	p.consume(lexer.TokenAssign, "expected `=` after type name")
	typ := p.parseType()
	p.consume(lexer.TokenSemicolon, "expected `;` after type alias")

	return &ast.TypeAliasDecl{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Name:     name,
		Type:     typ,
	}
}

// parseType parses a type reference. Only named types exist.
func (p *Parser) parseType() *ast.TypeExpr {
	tok := p.consume(lexer.TokenIdentifier, "expected type")
	return &ast.TypeExpr{
		BaseNode: ast.BaseNode{Range: tok.Span},
		Name:     tok.Lexeme,
	}
}

// Helper methods

func (p *Parser) advance() {
	p.previous = p.current
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.current = p.tokens[p.pos]
}

func (p *Parser) check(tokenType lexer.TokenType) bool {
	return p.current.Type == tokenType
}

func (p *Parser) match(tokenTypes ...lexer.TokenType) bool {
	for _, tt := range tokenTypes {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances past a token of the given type, or reports message and
// unwinds to the nearest recovery point.
func (p *Parser) consume(tokenType lexer.TokenType, message string) lexer.Token {
	if p.check(tokenType) {
		p.advance()
		return p.previous
	}
	p.errorAtCurrent(diag.KindExpectedToken, "%s, found %s", message, p.current.Type.Describe())
	panic(bailout{})
}

func (p *Parser) consumeIdent(message string) *ast.IdentifierExpr {
	tok := p.consume(lexer.TokenIdentifier, message)
	return &ast.IdentifierExpr{
		BaseNode: ast.BaseNode{Range: tok.Span},
		Name:     tok.Lexeme,
	}
}

func (p *Parser) isAtEnd() bool {
	return p.current.Type == lexer.TokenEOF
}

// spanFrom returns the span from start through the last consumed token.
func (p *Parser) spanFrom(start source.Span) source.Span {
	return source.Join(start, p.previous.Span)
}

// enter records one more level of nesting, reporting NestingTooDeep and
// unwinding when the limit is reached. Every successful enter is paired with
// a leave.
func (p *Parser) enter() {
	if p.depth >= maxNestingDepth {
		p.errorAtCurrent(diag.KindNestingTooDeep, "nesting exceeds the limit of %d levels", maxNestingDepth)
		panic(bailout{})
	}
	p.depth++
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) errorAtCurrent(kind diag.Kind, format string, args ...any) {
	p.errorAt(p.current.Span, kind, format, args...)
}

func (p *Parser) errorAt(span source.Span, kind diag.Kind, format string, args ...any) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.diags.Add(diag.Diagnostic{
		Severity: diag.SeverityError,
		Phase:    diag.PhaseParser,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// synchronize skips tokens until a statement boundary: a `;` (consumed), a
// `}` (left in place) or a keyword that starts a statement or declaration.
// A `{` met on the way is skipped together with its balanced contents so the
// enclosing block is not closed early.
func (p *Parser) synchronize() {
	p.panicMode = false

	for !p.isAtEnd() {
		switch p.current.Type {
		case lexer.TokenSemicolon:
			p.advance()
			return
		case lexer.TokenLeftBrace:
			p.skipBalanced()
			continue
		case lexer.TokenRightBrace,
			lexer.TokenLet, lexer.TokenIf, lexer.TokenWhile, lexer.TokenLoop,
			lexer.TokenFor, lexer.TokenReturn, lexer.TokenBreak, lexer.TokenContinue,
			lexer.TokenFn, lexer.TokenStruct, lexer.TokenTypeKeyword:
			return
		}
		p.advance()
	}
}

// atDeclStart reports whether the current token starts a top-level
// declaration. None of these keywords can begin a statement.
func (p *Parser) atDeclStart() bool {
	switch p.current.Type {
	case lexer.TokenFn, lexer.TokenStruct, lexer.TokenTypeKeyword:
		return true
	}
	return false
}

// synchronizeDecl skips tokens until the next declaration keyword.
func (p *Parser) synchronizeDecl() {
	p.panicMode = false

	for !p.isAtEnd() && !p.atDeclStart() {
		p.advance()
	}
}

// skipBalanced skips from a `{` through its matching `}`, or to end of file.
func (p *Parser) skipBalanced() {
	depth := 0
	for !p.isAtEnd() {
		switch p.current.Type {
		case lexer.TokenLeftBrace:
			depth++
		case lexer.TokenRightBrace:
			depth--
		}
		p.advance()
		if depth == 0 {
			return
		}
	}
}
