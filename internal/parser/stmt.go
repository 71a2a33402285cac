package parser

import (
	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/parser/ast"
)

// parseStmt parses one statement, dispatching on its leading token. On a
// syntax error it synchronizes and returns nil.
func (p *Parser) parseStmt() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()

	p.panicMode = false
	switch p.current.Type {
	case lexer.TokenLet:
		return p.parseVarDecl()
	case lexer.TokenIf:
		return p.parseIfStmt()
	case lexer.TokenWhile:
		return p.parseWhileStmt()
	case lexer.TokenLoop:
		return p.parseLoopStmt()
	case lexer.TokenFor:
		return p.parseForStmt()
	case lexer.TokenReturn:
		return p.parseReturnStmt()
	case lexer.TokenBreak:
		return p.parseBreakStmt()
	case lexer.TokenContinue:
		return p.parseContinueStmt()
	case lexer.TokenLeftBrace:
		return p.parseBlock()
	default:
		return p.parseSimpleStmt()
	}
}

// parseBlock parses a brace-delimited block. A missing closing brace, at end
// of file or before the next top-level declaration, is reported once without
// unwinding, so both the enclosing declaration and the next one are kept.
//
// GRAMMAR:
//
//	block = "{" stmt* "}"
func (p *Parser) parseBlock() *ast.BlockStmt {
	p.enter()
	defer p.leave()

	start := p.current.Span
	p.consume(lexer.TokenLeftBrace, "expected `{`")

	stmts := make([]ast.Stmt, 0)
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() && !p.atDeclStart() {
		before := p.pos
		if stmt := p.parseStmt(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.pos == before {
			p.advance()
		}
	}

	if !p.match(lexer.TokenRightBrace) {
		p.errorAtCurrent(diag.KindExpectedToken, "expected `}` to close block, found %s", p.current.Type.Describe())
	}

	return &ast.BlockStmt{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Stmts:    stmts,
	}
}

// parseVarDecl parses a variable declaration. The initializer is mandatory.
//
// GRAMMAR:
//
//	varDecl = "let" "mut"? IDENT (":" type)? "=" expr ";"
func (p *Parser) parseVarDecl() *ast.VarDeclStmt {
	start := p.current.Span
	p.advance() // let

	mutable := p.match(lexer.TokenMut)
	name := p.consumeIdent("expected variable name after `let`")

	var typ *ast.TypeExpr
	if p.match(lexer.TokenColon) {
		typ = p.parseType()
	}

	p.consume(lexer.TokenAssign, "expected `=` in variable declaration")
	value := p.parseExpression()
	p.consume(lexer.TokenSemicolon, "expected `;` after variable declaration")

	return &ast.VarDeclStmt{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Mutable:  mutable,
		Name:     name,
		Type:     typ,
		Value:    value,
	}
}

// parseIfStmt parses an if statement with an optional else branch, which is
// either another if statement or a block.
//
// GRAMMAR:
//
//	ifStmt = "if" expr block ("else" (ifStmt | block))?
func (p *Parser) parseIfStmt() *ast.IfStmt {
	p.enter()
	defer p.leave()

	start := p.current.Span
	p.advance() // if

	cond := p.parseHeaderExpr()
	then := p.parseBlock()

	var elseStmt ast.Stmt
	if p.match(lexer.TokenElse) {
		if p.check(lexer.TokenIf) {
			elseStmt = p.parseIfStmt()
		} else {
			elseStmt = p.parseBlock()
		}
	}

	return &ast.IfStmt{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Cond:     cond,
		Then:     then,
		Else:     elseStmt,
	}
}

// parseWhileStmt parses a while loop.
//
// GRAMMAR:
//
//	whileStmt = "while" expr block
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.current.Span
	p.advance() // while

	cond := p.parseHeaderExpr()
	body := p.parseBlock()

	return &ast.WhileStmt{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Cond:     cond,
		Body:     body,
	}
}

// parseLoopStmt parses an unconditional loop as a WhileStmt with no
// condition.
//
// GRAMMAR:
//
//	loopStmt = "loop" block
func (p *Parser) parseLoopStmt() *ast.WhileStmt {
	start := p.current.Span
	p.advance() // loop

	body := p.parseBlock()
	return &ast.WhileStmt{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Body:     body,
	}
}

// parseForStmt parses a range loop.
//
// GRAMMAR:
//
//	forStmt = "for" IDENT "in" expr (".." | "..=") expr block
func (p *Parser) parseForStmt() *ast.ForStmt {
	start := p.current.Span
	p.advance() // for

	variable := p.consumeIdent("expected loop variable after `for`")
	p.consume(lexer.TokenIn, "expected `in` after loop variable")

	from := p.parseHeaderExpr()
	inclusive := false
	switch {
	case p.match(lexer.TokenDotDot):
	case p.match(lexer.TokenDotDotEq):
		inclusive = true
	default:
		p.errorAtCurrent(diag.KindExpectedToken, "expected `..` or `..=` in range, found %s", p.current.Type.Describe())
		panic(bailout{})
	}
	to := p.parseHeaderExpr()
	body := p.parseBlock()

	return &ast.ForStmt{
		BaseNode:  ast.BaseNode{Range: p.spanFrom(start)},
		Var:       variable,
		Start:     from,
		Stop:      to,
		Inclusive: inclusive,
		Body:      body,
	}
}

// parseReturnStmt parses a return with an optional value.
//
// GRAMMAR:
//
//	returnStmt = "return" expr? ";"
func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.current.Span
	p.advance() // return

	var value ast.Expr
	if !p.check(lexer.TokenSemicolon) {
		value = p.parseExpression()
	}
	p.consume(lexer.TokenSemicolon, "expected `;` after return")

	return &ast.ReturnStmt{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		Value:    value,
	}
}

func (p *Parser) parseBreakStmt() *ast.BreakStmt {
	start := p.current.Span
	p.advance() // break
	p.consume(lexer.TokenSemicolon, "expected `;` after `break`")
	return &ast.BreakStmt{BaseNode: ast.BaseNode{Range: p.spanFrom(start)}}
}

func (p *Parser) parseContinueStmt() *ast.ContinueStmt {
	start := p.current.Span
	p.advance() // continue
	p.consume(lexer.TokenSemicolon, "expected `;` after `continue`")
	return &ast.ContinueStmt{BaseNode: ast.BaseNode{Range: p.spanFrom(start)}}
}

// parseSimpleStmt parses an assignment or an expression statement. The two
// share a prefix; an assignment operator after the expression decides.
//
// GRAMMAR:
//
//	simpleStmt = expr (assignOp expr)? ";"
func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.current.Span
	expr := p.parseExpression()

	if p.current.Type.IsAssignOp() {
		op := p.current
		p.advance()
		if !isAssignable(expr) {
			p.errorAt(expr.Span(), diag.KindInvalidAssignTarget, "invalid assignment target")
		}
		value := p.parseExpression()
		p.consume(lexer.TokenSemicolon, "expected `;` after assignment")
		return &ast.AssignStmt{
			BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
			Target:   expr,
			Operator: op,
			Value:    value,
		}
	}

	p.consume(lexer.TokenSemicolon, "expected `;` after expression")
	return &ast.ExprStmt{
		BaseNode: ast.BaseNode{Range: p.spanFrom(start)},
		X:        expr,
	}
}

// isAssignable reports whether expr denotes a place. A field access is a
// place only when the value it selects from is one, so `mk().x` and
// `S { x: 1 }.x` are rejected. An ErrorExpr counts so that one syntax error
// is not reported twice.
func isAssignable(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.IdentifierExpr, *ast.IndexExpr, *ast.ErrorExpr:
		return true
	case *ast.FieldAccessExpr:
		return isAssignable(e.Target)
	default:
		return false
	}
}
