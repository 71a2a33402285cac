package parser

import (
	"strconv"
	"unicode/utf8"

	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/source"
)

// parseExpression parses a full expression. Assignment is a statement, so
// climbing starts one level above it.
func (p *Parser) parseExpression() ast.Expr {
	return p.parsePrecedence(PrecOr)
}

// parseHeaderExpr parses the expression of an if, while or for header, where
// an identifier followed by `{` is not a struct literal.
func (p *Parser) parseHeaderExpr() ast.Expr {
	saved := p.noStructLiteral
	p.noStructLiteral = true
	defer func() { p.noStructLiteral = saved }()
	return p.parseExpression()
}

// parsePrecedence parses an expression whose binary operators all bind at
// least as tightly as minPrec.
//
// This is the core of precedence climbing: parse a unary operand, then fold
// in operators while they are strong enough. A left-associative operator
// parses its right operand one level higher so that equal operators group
// to the left.
func (p *Parser) parsePrecedence(minPrec Precedence) ast.Expr {
	p.enter()
	defer p.leave()

	start := p.current.Span
	left := p.parseUnary()

	for {
		prec := getPrecedence(p.current.Type)
		if prec == PrecNone || prec < minPrec {
			return left
		}

		if prec == PrecCall {
			left = p.parsePostfix(start, left)
			continue
		}
		if !isBinaryOperator(p.current.Type) {
			return left
		}

		operator := p.current
		p.advance()

		next := prec + 1
		if isRightAssociative(operator.Type) {
			next = prec
		}
		right := p.parsePrecedence(next)

		left = &ast.BinaryExpr{
			BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
			Left:     left,
			Operator: operator,
			Right:    right,
		}
	}
}

// parseUnary parses prefix operators. The operand is parsed at unary level,
// so -f(x) negates the call and -a * b multiplies the negation.
func (p *Parser) parseUnary() ast.Expr {
	switch p.current.Type {
	case lexer.TokenMinus, lexer.TokenNot:
		operator := p.current
		p.advance()
		operand := p.parsePrecedence(PrecUnary)
		return &ast.UnaryExpr{
			BaseNode: ast.BaseNode{Range: p.spanFrom(operator.Span)},
			Operator: operator,
			Operand:  operand,
		}
	default:
		return p.parsePrimary()
	}
}

// parsePostfix parses one call, index or member access applied to left.
// start is where left began.
func (p *Parser) parsePostfix(start source.Span, left ast.Expr) ast.Expr {
	switch p.current.Type {
	case lexer.TokenLeftParen:
		return p.parseCall(start, left)
	case lexer.TokenLeftBracket:
		return p.parseIndex(start, left)
	default:
		return p.parseMember(start, left)
	}
}

// parsePrimary parses literals, identifiers, struct literals and
// parenthesized expressions. Anything else is reported and replaced by an
// ErrorExpr without consuming the offending token.
func (p *Parser) parsePrimary() ast.Expr {
	switch p.current.Type {
	case lexer.TokenInt:
		return p.parseIntLiteral()
	case lexer.TokenFloat:
		return p.parseFloatLiteral()
	case lexer.TokenString:
		tok := p.current
		p.advance()
		return newLiteral(tok, ast.LiteralString, tok.Value)
	case lexer.TokenChar:
		tok := p.current
		p.advance()
		r, _ := utf8.DecodeRuneInString(tok.Value)
		if tok.Value == "" {
			r = 0
		}
		return newLiteral(tok, ast.LiteralChar, r)
	case lexer.TokenTrue, lexer.TokenFalse:
		tok := p.current
		p.advance()
		return newLiteral(tok, ast.LiteralBool, tok.Type == lexer.TokenTrue)

	case lexer.TokenIdentifier:
		return p.parseIdentifier()

	case lexer.TokenLeftParen:
		return p.parseGrouping()
	}

	p.errorAtCurrent(diag.KindUnexpectedToken, "expected expression, found %s", p.current.Type.Describe())
	return &ast.ErrorExpr{BaseNode: ast.BaseNode{Range: p.current.Span}}
}

func newLiteral(tok lexer.Token, kind ast.LiteralKind, value interface{}) *ast.LiteralExpr {
	return &ast.LiteralExpr{
		BaseNode: ast.BaseNode{Range: tok.Span},
		Kind:     kind,
		Token:    tok,
		Value:    value,
	}
}

func (p *Parser) parseIntLiteral() ast.Expr {
	tok := p.current
	p.advance()

	value, err := parseUint(tok.Value)
	if err != nil {
		p.errorAt(tok.Span, diag.KindInvalidNumber, "integer literal %s is too large", tok.Lexeme)
		value = 0
	}
	return newLiteral(tok, ast.LiteralInt, value)
}

// parseUint decodes the value of an integer token: decimal, or 0x, 0b and 0o
// prefixed.
func parseUint(s string) (uint64, error) {
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x':
			return strconv.ParseUint(s[2:], 16, 64)
		case 'b':
			return strconv.ParseUint(s[2:], 2, 64)
		case 'o':
			return strconv.ParseUint(s[2:], 8, 64)
		}
	}
	return strconv.ParseUint(s, 10, 64)
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	tok := p.current
	p.advance()

	value, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		p.errorAt(tok.Span, diag.KindInvalidNumber, "float literal %s is out of range", tok.Lexeme)
		value = 0
	}
	return newLiteral(tok, ast.LiteralFloat, value)
}

// parseIdentifier parses a name, or a struct literal when the name is
// followed by `{` outside a statement header.
func (p *Parser) parseIdentifier() ast.Expr {
	tok := p.current
	p.advance()

	ident := &ast.IdentifierExpr{
		BaseNode: ast.BaseNode{Range: tok.Span},
		Name:     tok.Lexeme,
	}
	if p.check(lexer.TokenLeftBrace) && !p.noStructLiteral {
		return p.parseStructLiteral(ident)
	}
	return ident
}

// parseGrouping parses a parenthesized expression. The parentheses only
// affect grouping and leave no node behind.
func (p *Parser) parseGrouping() ast.Expr {
	p.advance() // (

	saved := p.noStructLiteral
	p.noStructLiteral = false
	defer func() { p.noStructLiteral = saved }()

	expr := p.parseExpression()
	p.consume(lexer.TokenRightParen, "expected `)` after expression")
	return expr
}

// parseStructLiteral parses the field list of a struct literal after its
// type name.
//
// GRAMMAR:
//
//	structLit = IDENT "{" (IDENT ":" expr ("," IDENT ":" expr)* ","?)? "}"
func (p *Parser) parseStructLiteral(name *ast.IdentifierExpr) ast.Expr {
	p.advance() // {

	fields := make([]*ast.FieldInit, 0)
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		fieldName := p.consumeIdent("expected field name in struct literal")
		p.consume(lexer.TokenColon, "expected `:` after field name")
		value := p.parseExpression()
		fields = append(fields, &ast.FieldInit{Name: fieldName, Value: value})
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRightBrace, "expected `}` after struct literal fields")

	return &ast.StructLiteralExpr{
		BaseNode: ast.BaseNode{Range: p.spanFrom(name.Span())},
		Name:     name,
		Fields:   fields,
	}
}

// parseCall parses an argument list. A trailing comma is allowed.
//
// GRAMMAR:
//
//	call = expr "(" (expr ("," expr)* ","?)? ")"
func (p *Parser) parseCall(start source.Span, callee ast.Expr) ast.Expr {
	p.advance() // (

	saved := p.noStructLiteral
	p.noStructLiteral = false
	defer func() { p.noStructLiteral = saved }()

	args := make([]ast.Expr, 0)
	for !p.check(lexer.TokenRightParen) && !p.isAtEnd() {
		args = append(args, p.parseExpression())
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRightParen, "expected `)` after arguments")

	return &ast.CallExpr{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Callee:   callee,
		Args:     args,
	}
}

// parseIndex parses target[index].
func (p *Parser) parseIndex(start source.Span, target ast.Expr) ast.Expr {
	p.advance() // [

	saved := p.noStructLiteral
	p.noStructLiteral = false
	defer func() { p.noStructLiteral = saved }()

	index := p.parseExpression()
	p.consume(lexer.TokenRightBracket, "expected `]` after index")

	return &ast.IndexExpr{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Target:   target,
		Index:    index,
	}
}

// parseMember parses target.field.
func (p *Parser) parseMember(start source.Span, target ast.Expr) ast.Expr {
	p.advance() // .

	field := p.consumeIdent("expected field name after `.`")
	return &ast.FieldAccessExpr{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Target:   target,
		Field:    field,
	}
}
