package ir

import (
	"strconv"

	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/semantic/types"
	"github.com/fruti-lang/fruti/internal/source"
)

// Expression lowering. Every build method returns the value of the
// expression, or nil after recording an error.

// buildExpr generates IR for an expression.
func (b *Builder) buildExpr(expr ast.Expr) Value {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return b.buildLiteral(e, false)
	case *ast.IdentifierExpr:
		return b.buildIdentifier(e)
	case *ast.BinaryExpr:
		return b.buildBinary(e)
	case *ast.UnaryExpr:
		return b.buildUnary(e)
	case *ast.CallExpr:
		return b.buildCall(e)
	case *ast.IndexExpr:
		return b.buildIndex(e)
	case *ast.FieldAccessExpr:
		return b.buildFieldAccess(e)
	case *ast.StructLiteralExpr:
		return b.buildStructLiteral(e)
	case nil:
		b.error(source.Span{}, "missing expression")
		return nil
	default:
		b.error(expr.Span(), "unexpected expression %T", expr)
		return nil
	}
}

// buildLiteral returns the constant for a literal. negative folds a leading
// unary minus into integer and float constants.
func (b *Builder) buildLiteral(lit *ast.LiteralExpr, negative bool) Value {
	t := b.info.TypeOf(lit)
	switch v := lit.Value.(type) {
	case uint64:
		if _, ok := t.(*types.IntType); !ok {
			break
		}
		c := ConstUint(b.lower(t), v)
		if negative && v != 0 {
			c.Text = "-" + c.Text
		}
		return c
	case float64:
		ft, ok := b.lower(t).(*FloatType)
		if !ok {
			break
		}
		if negative {
			v = -v
		}
		return ConstFloat(ft, v)
	case string:
		return b.stringConst(v)
	case rune:
		return ConstInt(I32, int64(v))
	case bool:
		return ConstBool(v)
	}
	b.error(lit.Span(), "cannot lower %s literal of type %v", lit.Kind, t)
	return nil
}

// stringConst returns the hoisted constant holding s, creating it on first
// use. Equal literals share one constant.
func (b *Builder) stringConst(s string) Value {
	if g, ok := b.strings[s]; ok {
		return g
	}
	g := &Global{Name: ".str." + strconv.Itoa(len(b.module.Strings))}
	b.strings[s] = g
	b.module.Strings = append(b.module.Strings, &StringConst{Global: g, Data: s})
	return g
}

// buildIdentifier loads a variable from its slot.
func (b *Builder) buildIdentifier(id *ast.IdentifierExpr) Value {
	slot := b.slot(id, b.info.Uses[id])
	if slot == nil {
		return nil
	}
	dest := b.currentFunc.NewTemp(b.lower(b.info.TypeOf(id)))
	b.emit(&Load{Dest: dest, Addr: slot})
	return dest
}

// address returns the storage location of an assignment target.
func (b *Builder) address(target ast.Expr) Value {
	switch t := target.(type) {
	case *ast.IdentifierExpr:
		if slot := b.slot(t, b.info.Uses[t]); slot != nil {
			return slot
		}
		return nil
	case *ast.FieldAccessExpr:
		base := b.address(t.Target)
		if base == nil {
			return nil
		}
		st, index, ok := b.field(t)
		if !ok {
			return nil
		}
		dest := b.currentFunc.NewTemp(Ptr)
		b.emit(&GetElementPtr{
			Dest:    dest,
			Elem:    st,
			Base:    base,
			Indices: []Value{ConstInt(I32, 0), ConstInt(I32, int64(index))},
		})
		return dest
	default:
		b.error(target.Span(), "cannot assign to %T", target)
		return nil
	}
}

// field resolves a field access to the IR struct type and field index.
func (b *Builder) field(e *ast.FieldAccessExpr) (*StructType, int, bool) {
	st, ok := b.info.TypeOf(e.Target).(*types.StructType)
	if !ok {
		b.error(e.Span(), "field access on non-struct type %v", b.info.TypeOf(e.Target))
		return nil, 0, false
	}
	_, index := st.LookupField(e.Field.Name)
	if index < 0 {
		b.error(e.Field.Span(), "struct %s has no field %s", st.Name, e.Field.Name)
		return nil, 0, false
	}
	irType, ok := b.lower(st).(*StructType)
	if !ok {
		return nil, 0, false
	}
	return irType, index, true
}

// buildBinary generates IR for a binary expression.
func (b *Builder) buildBinary(e *ast.BinaryExpr) Value {
	op := e.Operator.Type
	if op == lexer.TokenAnd || op == lexer.TokenOr {
		return b.buildLogical(e)
	}

	left := b.buildExpr(e.Left)
	right := b.buildExpr(e.Right)
	if left == nil || right == nil {
		return nil
	}
	lt, rt := b.info.TypeOf(e.Left), b.info.TypeOf(e.Right)

	switch op {
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		return b.arithmetic(e.Span(), op, lt, left, right)
	default:
		return b.compare(e.Span(), op, lt, rt, left, right)
	}
}

// arithmetic emits op on two operands of type t.
func (b *Builder) arithmetic(span source.Span, op lexer.TokenType, t types.Type, left, right Value) Value {
	opcode, ok := ArithOpcode(op, t)
	if !ok {
		b.error(span, "no %s instruction for %v", op.Symbol(), t)
		return nil
	}
	dest := b.currentFunc.NewTemp(left.Type())
	b.emit(&BinaryOp{Op: opcode, Dest: dest, Left: left, Right: right})
	return dest
}

// compare emits a comparison. Mixed numeric operands are first converted to
// their common type; strings compare through strcmp.
func (b *Builder) compare(span source.Span, op lexer.TokenType, lt, rt types.Type, left, right Value) Value {
	t := lt
	if types.IsNumeric(lt) && types.IsNumeric(rt) && !lt.Equals(rt) {
		t = types.CommonNumeric(lt, rt)
		left = b.convert(left, lt, t)
		right = b.convert(right, rt, t)
	}

	if _, ok := t.(*types.StrType); ok {
		cmp := b.currentFunc.NewTemp(I32)
		b.emit(&Call{Dest: cmp, Ret: I32, Callee: b.runtime("strcmp").Name, Args: []Value{left, right}})
		left, right = cmp, ConstInt(I32, 0)
	}

	pred, ok := CmpPredicate(op, t)
	if !ok {
		b.error(span, "no %s comparison for %v", op.Symbol(), t)
		return nil
	}
	dest := b.currentFunc.NewTemp(I1)
	b.emit(&Cmp{Float: types.IsFloat(t), Pred: pred, Dest: dest, Left: left, Right: right})
	return dest
}

// convert widens a numeric value from one type to another.
func (b *Builder) convert(v Value, from, to types.Type) Value {
	if from.Equals(to) {
		return v
	}

	var op CastOp
	switch f := from.(type) {
	case *types.IntType:
		switch t := to.(type) {
		case *types.IntType:
			if t.Bits == f.Bits {
				return v
			}
			op = CastZExt
			if f.Signed {
				op = CastSExt
			}
		case *types.FloatType:
			op = CastUIToFP
			if f.Signed {
				op = CastSIToFP
			}
		}
	case *types.FloatType:
		if t, ok := to.(*types.FloatType); ok && t.Bits > f.Bits {
			op = CastFPExt
		}
	}
	if op == "" {
		b.error(source.Span{}, "cannot convert %v to %v", from, to)
		return v
	}

	dest := b.currentFunc.NewTemp(b.lower(to))
	b.emit(&Cast{Op: op, Dest: dest, Operand: v})
	return dest
}

// buildLogical generates IR for && and ||, evaluating the right operand only
// when it decides the result.
//
//	        %l = ...
//	        br %l, and.rhs, and.end       (or: br %l, or.end, or.rhs)
//	and.rhs:
//	        %r = ...
//	        br and.end
//	and.end:
//	        %v = phi i1 [ false, %lhs ], [ %r, %rhs ]
func (b *Builder) buildLogical(e *ast.BinaryExpr) Value {
	isAnd := e.Operator.Type == lexer.TokenAnd
	prefix := "or"
	if isAnd {
		prefix = "and"
	}

	left := b.buildExpr(e.Left)
	if left == nil {
		return nil
	}
	leftEnd := b.currentBlock

	rhsBlock := b.currentFunc.NewBasicBlock(prefix + ".rhs")
	endBlock := b.currentFunc.NewBasicBlock(prefix + ".end")
	if isAnd {
		b.branch(left, rhsBlock, endBlock)
	} else {
		b.branch(left, endBlock, rhsBlock)
	}

	b.setBlock(rhsBlock)
	right := b.buildExpr(e.Right)
	if right == nil {
		return nil
	}
	rightEnd := b.currentBlock
	b.jump(endBlock)

	b.setBlock(endBlock)
	dest := b.currentFunc.NewTemp(I1)
	b.emit(&Phi{
		Dest: dest,
		Incoming: []PhiIncoming{
			{Value: ConstBool(!isAnd), Block: leftEnd},
			{Value: right, Block: rightEnd},
		},
	})
	return dest
}

// buildUnary generates IR for - and !.
func (b *Builder) buildUnary(e *ast.UnaryExpr) Value {
	if lit, ok := e.Operand.(*ast.LiteralExpr); ok && e.Operator.Type == lexer.TokenMinus {
		if lit.Kind == ast.LiteralInt || lit.Kind == ast.LiteralFloat {
			return b.buildLiteral(lit, true)
		}
	}

	operand := b.buildExpr(e.Operand)
	if operand == nil {
		return nil
	}
	t := b.info.TypeOf(e.Operand)
	dest := b.currentFunc.NewTemp(operand.Type())

	switch {
	case e.Operator.Type == lexer.TokenNot:
		b.emit(&BinaryOp{Op: OpXor, Dest: dest, Left: operand, Right: ConstBool(true)})
	case e.Operator.Type == lexer.TokenMinus && types.IsInteger(t):
		b.emit(&BinaryOp{Op: OpSub, Dest: dest, Left: ConstInt(operand.Type(), 0), Right: operand})
	case e.Operator.Type == lexer.TokenMinus && types.IsFloat(t):
		b.emit(&FNeg{Dest: dest, Operand: operand})
	default:
		b.error(e.Span(), "no unary %s for %v", e.Operator.Type.Symbol(), t)
		return nil
	}
	return dest
}

// buildCall generates a direct call. print and println lower to the C
// runtime.
func (b *Builder) buildCall(e *ast.CallExpr) Value {
	id, ok := e.Callee.(*ast.IdentifierExpr)
	if !ok {
		b.error(e.Span(), "indirect call")
		return nil
	}
	sym := b.info.Uses[id]
	if sym == nil {
		b.error(id.Span(), "unresolved function %s", id.Name)
		return nil
	}
	ft, ok := sym.Type.(*types.FunctionType)
	if !ok {
		b.error(id.Span(), "%s is not a function", id.Name)
		return nil
	}

	args := make([]Value, len(e.Args))
	for i, arg := range e.Args {
		if args[i] = b.buildExpr(arg); args[i] == nil {
			return nil
		}
	}

	if sym.Builtin {
		return b.buildBuiltinCall(e, id.Name, args)
	}

	call := &Call{Ret: b.lower(ft.Return), Callee: id.Name, Args: args}
	if _, void := call.Ret.(*VoidType); !void {
		call.Dest = b.currentFunc.NewTemp(call.Ret)
	}
	b.emit(call)
	if call.Dest == nil {
		return Undef(Void)
	}
	return call.Dest
}

// buildBuiltinCall lowers print to printf("%s", s) and println to puts(s).
func (b *Builder) buildBuiltinCall(e *ast.CallExpr, name string, args []Value) Value {
	if len(args) != 1 {
		b.error(e.Span(), "%s takes one argument", name)
		return nil
	}
	switch name {
	case "println":
		puts := b.runtime("puts")
		b.emit(&Call{Ret: puts.Return, Callee: puts.Name, Args: args})
	case "print":
		printf := b.runtime("printf")
		format := b.stringConst("%s")
		b.emit(&Call{
			Ret:    printf.Return,
			Sig:    printf.Sig(),
			Callee: printf.Name,
			Args:   []Value{format, args[0]},
		})
	default:
		b.error(e.Span(), "unknown builtin %s", name)
		return nil
	}
	return Undef(Void)
}

// runtime returns the declaration of a C runtime function, adding it to the
// module on first use.
func (b *Builder) runtime(name string) *Declare {
	if d := b.module.Declare(name); d != nil {
		return d
	}
	var d *Declare
	switch name {
	case "printf":
		d = &Declare{Name: name, Return: I32, Params: []Type{Ptr}, Variadic: true}
	case "puts":
		d = &Declare{Name: name, Return: I32, Params: []Type{Ptr}}
	case "strcmp":
		d = &Declare{Name: name, Return: I32, Params: []Type{Ptr, Ptr}}
	default:
		b.error(source.Span{}, "unknown runtime function %s", name)
		d = &Declare{Name: name, Return: I32}
	}
	b.module.Declares = append(b.module.Declares, d)
	return d
}

// buildIndex loads one byte of a string. The index is widened to i64 for the
// address computation.
func (b *Builder) buildIndex(e *ast.IndexExpr) Value {
	target := b.buildExpr(e.Target)
	index := b.buildExpr(e.Index)
	if target == nil || index == nil {
		return nil
	}
	index = b.convert(index, b.info.TypeOf(e.Index), types.I64)

	addr := b.currentFunc.NewTemp(Ptr)
	b.emit(&GetElementPtr{Dest: addr, Elem: I8, Base: target, Indices: []Value{index}})
	dest := b.currentFunc.NewTemp(I8)
	b.emit(&Load{Dest: dest, Addr: addr})
	return dest
}

// buildFieldAccess extracts a field from a struct value.
func (b *Builder) buildFieldAccess(e *ast.FieldAccessExpr) Value {
	agg := b.buildExpr(e.Target)
	if agg == nil {
		return nil
	}
	st, index, ok := b.field(e)
	if !ok {
		return nil
	}
	dest := b.currentFunc.NewTemp(st.Fields[index])
	b.emit(&ExtractValue{Dest: dest, Agg: agg, Index: index})
	return dest
}

// buildStructLiteral builds a struct value with insertvalue, starting from
// undef. Initializers are evaluated in source order and inserted in field
// order.
func (b *Builder) buildStructLiteral(e *ast.StructLiteralExpr) Value {
	st, ok := b.info.TypeOf(e).(*types.StructType)
	if !ok {
		b.error(e.Span(), "struct literal of non-struct type %v", b.info.TypeOf(e))
		return nil
	}
	irType, ok := b.lower(st).(*StructType)
	if !ok {
		return nil
	}

	values := make(map[string]Value, len(e.Fields))
	for _, init := range e.Fields {
		v := b.buildExpr(init.Value)
		if v == nil {
			return nil
		}
		values[init.Name.Name] = v
	}

	var agg Value = Undef(irType)
	for i, f := range st.Fields {
		v, ok := values[f.Name]
		if !ok {
			b.error(e.Span(), "missing field %s in %s literal", f.Name, st.Name)
			return nil
		}
		dest := b.currentFunc.NewTemp(irType)
		b.emit(&InsertValue{Dest: dest, Agg: agg, Elem: v, Index: i})
		agg = dest
	}
	return agg
}
