package semantic

import (
	"math"

	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/semantic/types"
	"github.com/fruti-lang/fruti/internal/source"
)

// Expression checking
//
// expr computes the type of an expression and records it. want is the type
// the context expects, or nil. It only steers numeric literals: an integer
// literal takes want when want is an integer type and a float literal takes
// it when it is a float type. Everything else ignores want, and callers still
// compare the result against what they need.

func (c *checker) expr(e ast.Expr, want types.Type) types.Type {
	if e == nil {
		return types.Error
	}
	t := c.check(e, want)
	c.res.types[e] = t
	return t
}

func (c *checker) check(e ast.Expr, want types.Type) types.Type {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		return c.literal(e, want, false)
	case *ast.IdentifierExpr:
		return c.identifier(e, true)
	case *ast.BinaryExpr:
		return c.binary(e, want)
	case *ast.UnaryExpr:
		return c.unary(e, want)
	case *ast.CallExpr:
		return c.call(e)
	case *ast.IndexExpr:
		return c.index(e)
	case *ast.FieldAccessExpr:
		return c.fieldAccess(e)
	case *ast.StructLiteralExpr:
		return c.structLiteral(e)
	default:
		// *ast.ErrorExpr was reported by the parser.
		return types.Error
	}
}

// literal types a literal. negative is set when the literal is the operand
// of a unary minus, which widens the range of signed integers by one.
func (c *checker) literal(lit *ast.LiteralExpr, want types.Type, negative bool) types.Type {
	switch lit.Kind {
	case ast.LiteralInt:
		t := types.DefaultInt
		if it, ok := want.(*types.IntType); ok {
			t = it
		}
		magnitude, _ := lit.Value.(uint64)
		if !t.Fits(magnitude, negative) {
			sign := ""
			if negative {
				sign = "-"
			}
			c.errorf(diag.KindTypeMismatch, lit.Span(), "integer literal %s%d overflows %s", sign, magnitude, t)
			return types.Error
		}
		return t

	case ast.LiteralFloat:
		t := types.DefaultFloat
		if ft, ok := want.(*types.FloatType); ok {
			t = ft
		}
		value, _ := lit.Value.(float64)
		if t.Bits == 32 && value > math.MaxFloat32 {
			c.errorf(diag.KindTypeMismatch, lit.Span(), "float literal %s overflows f32", lit.Token.Lexeme)
			return types.Error
		}
		return t

	case ast.LiteralString:
		return types.Str
	case ast.LiteralChar:
		return types.Char
	case ast.LiteralBool:
		return types.Bool
	}
	return types.Error
}

// identifier resolves a name used as a value. read marks the symbol used.
func (c *checker) identifier(id *ast.IdentifierExpr, read bool) types.Type {
	sym := c.table.Lookup(id.Name)
	if sym == nil {
		c.errorf(diag.KindUndefinedVariable, id.Span(), "undefined variable `%s`", id.Name)
		return c.record(id, types.Error)
	}
	c.res.uses[id] = sym
	if !sym.IsValue() {
		c.errorf(diag.KindTypeMismatch, id.Span(), "%s `%s` cannot be used as a value", sym.Kind, id.Name)
		return c.record(id, types.Error)
	}
	if read && sym.IsLocal() {
		sym.MarkUsed()
	}
	return c.record(id, sym.Type)
}

// record stores t for e. expr does the same for the expressions it visits;
// this covers identifiers checked outside of expr.
func (c *checker) record(e ast.Expr, t types.Type) types.Type {
	c.res.types[e] = t
	return t
}

// isUntypedLiteral reports whether e is a numeric literal, possibly negated,
// whose type comes from context.
func isUntypedLiteral(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		return e.Kind == ast.LiteralInt || e.Kind == ast.LiteralFloat
	case *ast.UnaryExpr:
		return e.Operator.Type == lexer.TokenMinus && isUntypedLiteral(e.Operand)
	}
	return false
}

// operands checks both sides of a binary expression. When only the left side
// is a bare literal the right side is checked first so the literal takes the
// type of the other operand: in `1 + x` with x: u8, 1 is a u8.
func (c *checker) operands(e *ast.BinaryExpr, want types.Type) (left, right types.Type) {
	if isUntypedLiteral(e.Left) && !isUntypedLiteral(e.Right) {
		right = c.expr(e.Right, want)
		left = c.expr(e.Left, right)
		return left, right
	}
	left = c.expr(e.Left, want)
	right = c.expr(e.Right, left)
	return left, right
}

func (c *checker) binary(e *ast.BinaryExpr, want types.Type) types.Type {
	op := e.Operator.Type
	switch op {
	case lexer.TokenAnd, lexer.TokenOr:
		left := c.expr(e.Left, types.Bool)
		right := c.expr(e.Right, types.Bool)
		if types.IsError(left) || types.IsError(right) {
			return types.Error
		}
		if !types.IsBool(left) || !types.IsBool(right) {
			c.errorf(diag.KindTypeMismatch, e.Span(),
				"operator `%s` requires bool operands, found %s and %s", op.Symbol(), left, right)
			return types.Error
		}
		return types.Bool

	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		left, right := c.operands(e, want)
		return c.arithmetic(op, e.Span(), left, right)

	case lexer.TokenEqual, lexer.TokenNotEqual:
		left, right := c.operands(e, nil)
		if types.IsError(left) || types.IsError(right) {
			return types.Error
		}
		if !types.Comparable(left, right) {
			c.errorf(diag.KindTypeMismatch, e.Span(), "cannot compare %s and %s", left, right)
			return types.Error
		}
		return types.Bool

	case lexer.TokenLess, lexer.TokenLessEqual, lexer.TokenGreater, lexer.TokenGreaterEqual:
		left, right := c.operands(e, nil)
		if types.IsError(left) || types.IsError(right) {
			return types.Error
		}
		if !types.IsOrdered(left) || !types.Comparable(left, right) {
			c.errorf(diag.KindTypeMismatch, e.Span(),
				"operator `%s` cannot order %s and %s", op.Symbol(), left, right)
			return types.Error
		}
		return types.Bool
	}

	c.errorf(diag.KindTypeMismatch, e.Operator.Span, "unknown binary operator `%s`", e.Operator.Lexeme)
	return types.Error
}

// arithmetic applies the rule shared by binary and compound assignment
// operators: both operands have the same numeric type, which is the result.
func (c *checker) arithmetic(op lexer.TokenType, span source.Span, left, right types.Type) types.Type {
	if types.IsError(left) || types.IsError(right) {
		return types.Error
	}
	if !types.IsNumeric(left) || !types.IsNumeric(right) {
		c.errorf(diag.KindTypeMismatch, span,
			"operator `%s` requires numeric operands, found %s and %s", op.Symbol(), left, right)
		return types.Error
	}
	if !left.Equals(right) {
		c.errorf(diag.KindTypeMismatch, span, "mismatched types %s and %s for operator `%s`", left, right, op.Symbol())
		return types.Error
	}
	return left
}

func (c *checker) unary(e *ast.UnaryExpr, want types.Type) types.Type {
	switch e.Operator.Type {
	case lexer.TokenMinus:
		if lit, ok := e.Operand.(*ast.LiteralExpr); ok && lit.Kind == ast.LiteralInt {
			return c.record(lit, c.literal(lit, want, true))
		}
		t := c.expr(e.Operand, want)
		if types.IsError(t) {
			return t
		}
		if !types.IsNumeric(t) {
			c.errorf(diag.KindTypeMismatch, e.Span(), "operator `-` requires a numeric operand, found %s", t)
			return types.Error
		}
		return t

	case lexer.TokenNot:
		t := c.expr(e.Operand, types.Bool)
		if types.IsError(t) {
			return t
		}
		if !types.IsBool(t) {
			c.errorf(diag.KindTypeMismatch, e.Span(), "operator `!` requires a bool operand, found %s", t)
			return types.Error
		}
		return types.Bool
	}

	c.errorf(diag.KindTypeMismatch, e.Operator.Span, "unknown unary operator `%s`", e.Operator.Lexeme)
	return types.Error
}

// call checks a direct call by name.
//
// RULES:
// 1. the callee must name a function (UndefinedFunction otherwise)
// 2. the argument count must match (ArityMismatch)
// 3. each argument must match its parameter (TypeMismatch)
func (c *checker) call(e *ast.CallExpr) types.Type {
	id, ok := e.Callee.(*ast.IdentifierExpr)
	if !ok {
		callee := c.expr(e.Callee, nil)
		c.args(e.Args, nil)
		if !types.IsError(callee) {
			c.errorf(diag.KindTypeMismatch, e.Callee.Span(), "cannot call a value of type %s", callee)
		}
		return types.Error
	}

	sym := c.table.Lookup(id.Name)
	if sym == nil {
		c.errorf(diag.KindUndefinedFunction, id.Span(), "undefined function `%s`", id.Name)
		c.record(id, types.Error)
		c.args(e.Args, nil)
		return types.Error
	}
	c.res.uses[id] = sym
	c.record(id, sym.Type)

	ft, ok := sym.Type.(*types.FunctionType)
	if !ok {
		if !types.IsError(sym.Type) {
			c.errorf(diag.KindTypeMismatch, id.Span(), "`%s` is a %s of type %s, not a function", id.Name, sym.Kind, sym.Type)
		}
		c.args(e.Args, nil)
		return types.Error
	}
	if sym.IsLocal() {
		sym.MarkUsed()
	}

	if len(e.Args) != len(ft.Params) {
		c.errorf(diag.KindArityMismatch, e.Span(),
			"function `%s` expects %d %s, found %d", id.Name, len(ft.Params), plural(len(ft.Params), "argument"), len(e.Args))
	}
	for i, arg := range e.Args {
		if i >= len(ft.Params) {
			c.expr(arg, nil)
			continue
		}
		param := ft.Params[i]
		got := c.expr(arg, param)
		if types.IsError(got) || types.IsError(param) {
			continue
		}
		if !got.AssignableTo(param) {
			c.errorf(diag.KindTypeMismatch, arg.Span(),
				"argument %d of `%s` has type %s, expected %s", i+1, id.Name, got, param)
		}
	}
	return ft.Return
}

// args checks arguments of a call that could not be resolved, so mistakes
// inside them are still reported.
func (c *checker) args(args []ast.Expr, want types.Type) {
	for _, arg := range args {
		c.expr(arg, want)
	}
}

// index checks s[i]. Only strings are indexable; the result is the byte.
func (c *checker) index(e *ast.IndexExpr) types.Type {
	target := c.expr(e.Target, nil)
	idx := c.expr(e.Index, nil)
	if types.IsError(target) || types.IsError(idx) {
		return types.Error
	}
	if !target.Equals(types.Str) {
		c.errorf(diag.KindTypeMismatch, e.Target.Span(), "cannot index a value of type %s", target)
		return types.Error
	}
	if !types.IsInteger(idx) {
		c.errorf(diag.KindTypeMismatch, e.Index.Span(), "index must be an integer, found %s", idx)
		return types.Error
	}
	return types.U8
}

func (c *checker) fieldAccess(e *ast.FieldAccessExpr) types.Type {
	target := c.expr(e.Target, nil)
	if types.IsError(target) {
		return types.Error
	}
	st, ok := target.(*types.StructType)
	if !ok {
		c.errorf(diag.KindTypeMismatch, e.Span(), "type %s has no fields", target)
		return types.Error
	}
	field, _ := st.LookupField(e.Field.Name)
	if field == nil {
		c.errorf(diag.KindUnknownField, e.Field.Span(), "struct %s has no field `%s`", st.Name, e.Field.Name)
		return types.Error
	}
	return field.Type
}

// structLiteral checks S { f: v, ... }. Every field must be initialized
// exactly once.
func (c *checker) structLiteral(e *ast.StructLiteralExpr) types.Type {
	t := c.a.resolveTypeName(e.Name.Name, e.Name.Span(), c.res.diags)
	if types.IsError(t) {
		for _, f := range e.Fields {
			c.expr(f.Value, nil)
		}
		return types.Error
	}
	st, ok := t.(*types.StructType)
	if !ok {
		c.errorf(diag.KindTypeMismatch, e.Name.Span(), "%s is not a struct type", t)
		for _, f := range e.Fields {
			c.expr(f.Value, nil)
		}
		return types.Error
	}
	if sym := c.a.globals.Global().LookupLocal(e.Name.Name); sym != nil {
		c.res.uses[e.Name] = sym
	}

	seen := make(map[string]bool, len(e.Fields))
	for _, init := range e.Fields {
		field, _ := st.LookupField(init.Name.Name)
		if field == nil {
			c.errorf(diag.KindUnknownField, init.Name.Span(), "struct %s has no field `%s`", st.Name, init.Name.Name)
			c.expr(init.Value, nil)
			continue
		}
		if seen[field.Name] {
			c.errorf(diag.KindDuplicateDeclaration, init.Name.Span(), "field `%s` is initialized more than once", field.Name)
		}
		seen[field.Name] = true

		got := c.expr(init.Value, field.Type)
		if types.IsError(got) || types.IsError(field.Type) {
			continue
		}
		if !got.AssignableTo(field.Type) {
			c.errorf(diag.KindTypeMismatch, init.Value.Span(),
				"field `%s` of %s has type %s, found %s", field.Name, st.Name, field.Type, got)
		}
	}
	for _, field := range st.Fields {
		if !seen[field.Name] {
			c.errorf(diag.KindMissingField, e.Span(), "missing field `%s` in %s literal", field.Name, st.Name)
		}
	}
	return st
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
