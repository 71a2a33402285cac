package ir

import (
	"errors"
	"fmt"

	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/semantic"
	"github.com/fruti-lang/fruti/internal/semantic/types"
	"github.com/fruti-lang/fruti/internal/source"
	"github.com/fruti-lang/fruti/internal/symtab"
)

// Generate lowers an analyzed file to an IR module named name. The file must
// have passed analysis without errors. Any inconsistency found while
// lowering, and any verification failure, is returned wrapping ErrInternal.
func Generate(file *ast.File, info *semantic.Info, name string) (*Module, error) {
	if file == nil || info == nil {
		return nil, fmt.Errorf("%w: nothing to generate", ErrInternal)
	}

	b := NewBuilder(info)
	m, errs := b.Build(file, name)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInternal, errors.Join(errs...))
	}
	if errs := m.Verify(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: malformed module: %w", ErrInternal, errors.Join(errs...))
	}
	return m, nil
}

// Builder constructs IR from an analyzed AST.
//
// The builder is a visitor that traverses the AST and emits IR instructions.
// It maintains:
// - Current function and basic block
// - Stack slots for the symbols of the current function
// - Control flow context (break/continue targets)
// - Module-level tables for struct types, strings and external functions
type Builder struct {
	// module is the IR module being built
	module *Module

	// info provides types and symbol resolution
	info *semantic.Info

	// currentFunc is the function being built
	currentFunc *Function

	// currentBlock is the basic block being built
	currentBlock *BasicBlock

	// slots maps parameter and local symbols to their allocas
	slots map[*symtab.Symbol]*Register

	// structs maps struct names to their IR types
	structs map[string]*StructType

	// strings maps literal contents to their hoisted constants
	strings map[string]*Global

	// breakTarget is the block to jump to on break
	breakTarget *BasicBlock

	// continueTarget is the block to jump to on continue
	continueTarget *BasicBlock

	// errors accumulates IR generation errors
	errors []error
}

// NewBuilder creates a new IR builder.
func NewBuilder(info *semantic.Info) *Builder {
	return &Builder{
		info:    info,
		structs: make(map[string]*StructType),
		strings: make(map[string]*Global),
	}
}

// Build generates IR for a file.
func (b *Builder) Build(file *ast.File, name string) (*Module, []error) {
	b.module = NewModule(name, file.Filename)

	b.buildStructs()
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			b.buildFunction(fn)
		}
	}

	return b.module, b.errors
}

// buildStructs defines one named IR type per struct, in declaration order.
// All names are created before any field is lowered, so fields may refer to
// structs declared later.
func (b *Builder) buildStructs() {
	for _, st := range b.info.Structs {
		t := &StructType{Name: st.Name}
		b.structs[st.Name] = t
		b.module.Types = append(b.module.Types, t)
	}
	for _, st := range b.info.Structs {
		t := b.structs[st.Name]
		t.Fields = make([]Type, len(st.Fields))
		for i, f := range st.Fields {
			t.Fields[i] = b.lower(f.Type)
		}
	}
}

// lower maps a checked type to its IR type.
func (b *Builder) lower(t types.Type) Type {
	switch t := t.(type) {
	case *types.IntType:
		return &IntType{Bits: t.Bits}
	case *types.FloatType:
		if t.Bits == 32 {
			return Float
		}
		return Double
	case *types.BoolType:
		return I1
	case *types.CharType:
		return I32
	case *types.StrType:
		return Ptr
	case *types.VoidType:
		return Void
	case *types.StructType:
		if st, ok := b.structs[t.Name]; ok {
			return st
		}
		b.error(source.Span{}, "unknown struct type %s", t.Name)
		return I32
	default:
		b.error(source.Span{}, "cannot lower type %v", t)
		return I32
	}
}

// buildFunction generates IR for a function.
//
// LAYOUT OF THE ENTRY BLOCK:
// 1. One alloca per parameter, then one per local in declaration order
// 2. A store of each incoming parameter into its slot
// 3. The lowered body
func (b *Builder) buildFunction(decl *ast.FuncDecl) {
	fi := b.info.Func(decl)
	if fi == nil || fi.Type == nil {
		b.error(decl.Span(), "function %s was not analyzed", decl.Name.Name)
		return
	}

	b.currentFunc = NewFunction(fi.Name(), b.lower(fi.Type.Return))
	b.currentBlock = b.currentFunc.Entry
	b.slots = make(map[*symtab.Symbol]*Register)

	params := make([]*Register, len(fi.Params))
	for i, sym := range fi.Params {
		params[i] = b.currentFunc.NewParam(sym.Name, b.lower(sym.Type))
	}
	for _, sym := range fi.Params {
		b.alloca(sym)
	}
	for _, sym := range fi.Locals {
		b.alloca(sym)
	}
	for i, sym := range fi.Params {
		b.emit(&Store{Val: params[i], Addr: b.slots[sym]})
	}

	b.buildBlock(decl.Body)

	terminate(b.currentFunc)
	removeUnreachableBlocks(b.currentFunc)
	b.module.AddFunction(b.currentFunc)

	b.currentFunc = nil
	b.currentBlock = nil
	b.slots = nil
}

// alloca reserves the stack slot of a parameter or local.
func (b *Builder) alloca(sym *symtab.Symbol) {
	slot := b.currentFunc.NewNamed(sym.Name+".addr", Ptr)
	b.emit(&Alloca{Dest: slot, Elem: b.lower(sym.Type)})
	b.slots[sym] = slot
}

// slot returns the stack slot of a resolved identifier.
func (b *Builder) slot(id *ast.IdentifierExpr, sym *symtab.Symbol) *Register {
	if sym == nil {
		b.error(id.Span(), "unresolved identifier %s", id.Name)
		return nil
	}
	s, ok := b.slots[sym]
	if !ok {
		b.error(id.Span(), "no storage for %s", id.Name)
		return nil
	}
	return s
}

// setBlock places bb in the current function and makes it the insertion
// point.
func (b *Builder) setBlock(bb *BasicBlock) {
	b.currentFunc.AppendBlock(bb)
	b.currentBlock = bb
}

// emit appends an instruction to the current block.
func (b *Builder) emit(instr Instruction) {
	b.currentBlock.AddInstruction(instr)
}

// jump ends the current block with an unconditional branch, unless it is
// already terminated.
func (b *Builder) jump(target *BasicBlock) {
	if b.currentBlock.IsTerminated() {
		return
	}
	b.emit(&Jump{Target: target})
	b.currentBlock.AddSuccessor(target)
}

// branch ends the current block with a conditional branch.
func (b *Builder) branch(cond Value, ifTrue, ifFalse *BasicBlock) {
	b.emit(&Branch{Cond: cond, TrueBlock: ifTrue, FalseBlock: ifFalse})
	b.currentBlock.AddSuccessor(ifTrue)
	b.currentBlock.AddSuccessor(ifFalse)
}

// buildBlock generates IR for the statements of a block. Statements after a
// return, break or continue are unreachable and are not lowered.
func (b *Builder) buildBlock(block *ast.BlockStmt) {
	if block == nil {
		return
	}
	for _, stmt := range block.Stmts {
		if b.currentBlock.IsTerminated() {
			return
		}
		b.buildStmt(stmt)
	}
}

// buildStmt generates IR for a statement.
func (b *Builder) buildStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDeclStmt:
		b.buildVarDecl(s)

	case *ast.AssignStmt:
		b.buildAssign(s)

	case *ast.ExprStmt:
		b.buildExpr(s.X)

	case *ast.BlockStmt:
		b.buildBlock(s)

	case *ast.IfStmt:
		b.buildIf(s)

	case *ast.WhileStmt:
		b.buildWhile(s)

	case *ast.ForStmt:
		b.buildFor(s)

	case *ast.ReturnStmt:
		b.buildReturn(s)

	case *ast.BreakStmt:
		if b.breakTarget == nil {
			b.error(s.Span(), "break outside of a loop")
			return
		}
		b.jump(b.breakTarget)

	case *ast.ContinueStmt:
		if b.continueTarget == nil {
			b.error(s.Span(), "continue outside of a loop")
			return
		}
		b.jump(b.continueTarget)

	default:
		b.error(stmt.Span(), "unexpected statement %T", stmt)
	}
}

// buildVarDecl stores the initializer into the binding's slot.
func (b *Builder) buildVarDecl(s *ast.VarDeclStmt) {
	value := b.buildExpr(s.Value)
	slot := b.slot(s.Name, b.info.Defs[s.Name])
	if slot == nil || value == nil {
		return
	}
	b.emit(&Store{Val: value, Addr: slot})
}

// buildAssign generates IR for `target = value` and `target op= value`.
// Compound assignment loads the target, applies op and stores the result.
func (b *Builder) buildAssign(s *ast.AssignStmt) {
	addr := b.address(s.Target)
	if addr == nil {
		return
	}

	base, compound := s.Operator.Type.CompoundBase()
	if !compound {
		value := b.buildExpr(s.Value)
		if value != nil {
			b.emit(&Store{Val: value, Addr: addr})
		}
		return
	}

	t := b.info.TypeOf(s.Target)
	current := b.currentFunc.NewTemp(b.lower(t))
	b.emit(&Load{Dest: current, Addr: addr})
	value := b.buildExpr(s.Value)
	if value == nil {
		return
	}
	result := b.arithmetic(s.Span(), base, t, current, value)
	if result != nil {
		b.emit(&Store{Val: result, Addr: addr})
	}
}

// buildIf generates IR for an if statement.
//
//	        br %cond, if.then, if.else (or if.end)
//	if.then:  ...  br if.end
//	if.else:  ...  br if.end
//	if.end:
func (b *Builder) buildIf(stmt *ast.IfStmt) {
	cond := b.buildExpr(stmt.Cond)
	if cond == nil {
		return
	}

	thenBlock := b.currentFunc.NewBasicBlock("if.then")
	var elseBlock *BasicBlock
	if stmt.Else != nil {
		elseBlock = b.currentFunc.NewBasicBlock("if.else")
	}
	endBlock := b.currentFunc.NewBasicBlock("if.end")

	if elseBlock != nil {
		b.branch(cond, thenBlock, elseBlock)
	} else {
		b.branch(cond, thenBlock, endBlock)
	}

	b.setBlock(thenBlock)
	b.buildBlock(stmt.Then)
	b.jump(endBlock)

	if elseBlock != nil {
		b.setBlock(elseBlock)
		b.buildStmt(stmt.Else)
		b.jump(endBlock)
	}

	b.setBlock(endBlock)
}

// buildWhile generates IR for while and loop.
//
//	while.cond:  br %cond, while.body, while.end
//	while.body:  ...  br while.cond
//	while.end:
//
// loop has no condition block; its body branches back to itself.
func (b *Builder) buildWhile(stmt *ast.WhileStmt) {
	prefix := "while"
	if stmt.Cond == nil {
		prefix = "loop"
	}

	var condBlock *BasicBlock
	if stmt.Cond != nil {
		condBlock = b.currentFunc.NewBasicBlock(prefix + ".cond")
	}
	bodyBlock := b.currentFunc.NewBasicBlock(prefix + ".body")
	endBlock := b.currentFunc.NewBasicBlock(prefix + ".end")

	head := bodyBlock
	if condBlock != nil {
		head = condBlock
	}

	b.jump(head)

	if condBlock != nil {
		b.setBlock(condBlock)
		cond := b.buildExpr(stmt.Cond)
		if cond == nil {
			return
		}
		b.branch(cond, bodyBlock, endBlock)
	}

	oldBreak, oldContinue := b.breakTarget, b.continueTarget
	b.breakTarget = endBlock
	b.continueTarget = head

	b.setBlock(bodyBlock)
	b.buildBlock(stmt.Body)
	b.jump(head)

	b.breakTarget, b.continueTarget = oldBreak, oldContinue

	b.setBlock(endBlock)
}

// buildFor generates IR for `for i in start..stop`. Both bounds are
// evaluated once, before the loop.
//
//	           store start, %i.addr
//	for.cond:  %c = icmp slt %i, stop          (sle for ..=)
//	           br %c, for.body, for.end
//	for.body:  ...  br for.step
//	for.step:  %i.next = add %i, 1; store; br for.cond
//	for.end:
//
// An inclusive range leaves from for.step once i reaches stop, so that a
// bound at the top of the type's range does not wrap around.
func (b *Builder) buildFor(stmt *ast.ForStmt) {
	t := b.info.TypeOf(stmt.Start)
	it, ok := t.(*types.IntType)
	if !ok {
		b.error(stmt.Span(), "range over non-integer type %v", t)
		return
	}
	irType := b.lower(it)

	start := b.buildExpr(stmt.Start)
	stop := b.buildExpr(stmt.Stop)
	slot := b.slot(stmt.Var, b.info.Defs[stmt.Var])
	if start == nil || stop == nil || slot == nil {
		return
	}
	b.emit(&Store{Val: start, Addr: slot})

	condBlock := b.currentFunc.NewBasicBlock("for.cond")
	bodyBlock := b.currentFunc.NewBasicBlock("for.body")
	stepBlock := b.currentFunc.NewBasicBlock("for.step")
	var incBlock *BasicBlock
	if stmt.Inclusive {
		incBlock = b.currentFunc.NewBasicBlock("for.inc")
	}
	endBlock := b.currentFunc.NewBasicBlock("for.end")

	oldBreak, oldContinue := b.breakTarget, b.continueTarget
	b.breakTarget = endBlock
	b.continueTarget = stepBlock

	b.jump(condBlock)

	b.setBlock(condBlock)
	current := b.currentFunc.NewTemp(irType)
	b.emit(&Load{Dest: current, Addr: slot})
	pred := PredSLT
	switch {
	case stmt.Inclusive && it.Signed:
		pred = PredSLE
	case stmt.Inclusive:
		pred = PredULE
	case !it.Signed:
		pred = PredULT
	}
	inRange := b.currentFunc.NewTemp(I1)
	b.emit(&Cmp{Pred: pred, Dest: inRange, Left: current, Right: stop})
	b.branch(inRange, bodyBlock, endBlock)

	b.setBlock(bodyBlock)
	b.buildBlock(stmt.Body)
	b.jump(stepBlock)

	b.setBlock(stepBlock)
	last := b.currentFunc.NewTemp(irType)
	b.emit(&Load{Dest: last, Addr: slot})
	if incBlock != nil {
		done := b.currentFunc.NewTemp(I1)
		b.emit(&Cmp{Pred: PredEQ, Dest: done, Left: last, Right: stop})
		b.branch(done, endBlock, incBlock)
		b.setBlock(incBlock)
	}
	next := b.currentFunc.NewTemp(irType)
	b.emit(&BinaryOp{Op: OpAdd, Dest: next, Left: last, Right: ConstInt(irType, 1)})
	b.emit(&Store{Val: next, Addr: slot})
	b.jump(condBlock)

	b.breakTarget, b.continueTarget = oldBreak, oldContinue

	b.setBlock(endBlock)
}

// buildReturn generates IR for a return statement.
func (b *Builder) buildReturn(stmt *ast.ReturnStmt) {
	if stmt.Value == nil {
		b.emit(&Return{})
		return
	}
	value := b.buildExpr(stmt.Value)
	if value == nil {
		return
	}
	b.emit(&Return{Value: value})
}

// error records an IR generation error.
func (b *Builder) error(span source.Span, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if span.IsValid() {
		msg = span.String() + ": " + msg
	}
	b.errors = append(b.errors, errors.New(msg))
}
