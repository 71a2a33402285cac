// Package ir implements the intermediate representation for the compiler and
// the code generator that produces it.
//
// WHAT IS IR?
// IR is a low-level representation of the program that sits between the AST
// and machine code. Ours is a textual dialect of LLVM IR: a module holds
// struct type definitions, string constants, external declarations and
// function definitions; a function is a list of basic blocks; a block is a
// list of typed instructions ending in exactly one terminator.
//
// MEMORY MODEL:
// Every parameter and local variable lives in a stack slot created by an
// alloca in the entry block. Reading a variable is a load, assigning it is a
// store. Temporaries are single-assignment registers. Registers are not
// promoted out of memory.
//
// EXAMPLE:
//
//	Source:  fn main() -> i32 { let x: i32 = 2; return x + 1; }
//	IR:      define i32 @main() {
//	         entry:
//	           %x.addr = alloca i32
//	           store i32 2, ptr %x.addr
//	           %t0 = load i32, ptr %x.addr
//	           %t1 = add i32 %t0, 1
//	           ret i32 %t1
//	         }
package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type is an IR type.
type Type interface {
	String() string
}

// IntType is an integer of the given width. Signedness lives in the
// instructions, not the type.
type IntType struct {
	Bits int
}

func (t *IntType) String() string { return "i" + strconv.Itoa(t.Bits) }

// FloatType is float (32 bits) or double (64 bits).
type FloatType struct {
	Bits int
}

func (t *FloatType) String() string {
	if t.Bits == 32 {
		return "float"
	}
	return "double"
}

// PtrType is the opaque pointer type.
type PtrType struct{}

func (t *PtrType) String() string { return "ptr" }

// VoidType is the return type of functions that return nothing.
type VoidType struct{}

func (t *VoidType) String() string { return "void" }

// ArrayType is a fixed-length array, used for string constants.
type ArrayType struct {
	Len  int
	Elem Type
}

func (t *ArrayType) String() string { return fmt.Sprintf("[%d x %s]", t.Len, t.Elem) }

// StructType is a named struct type. It prints as %Name; Definition prints
// the body.
type StructType struct {
	Name   string
	Fields []Type
}

func (t *StructType) String() string { return "%" + t.Name }

// Definition returns the module-level type definition line.
func (t *StructType) Definition() string {
	fields := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = f.String()
	}
	if len(fields) == 0 {
		return fmt.Sprintf("%%%s = type {}", t.Name)
	}
	return fmt.Sprintf("%%%s = type { %s }", t.Name, strings.Join(fields, ", "))
}

// Predefined types
var (
	I1     = &IntType{Bits: 1}
	I8     = &IntType{Bits: 8}
	I32    = &IntType{Bits: 32}
	I64    = &IntType{Bits: 64}
	Float  = &FloatType{Bits: 32}
	Double = &FloatType{Bits: 64}
	Ptr    = &PtrType{}
	Void   = &VoidType{}
)

// Value is an instruction operand.
type Value interface {
	// Type returns the value's IR type.
	Type() Type

	// Ident returns the value as written in an operand position, e.g. "%t3",
	// "42" or "@.str.0".
	Ident() string
}

// typed renders a value with its type, e.g. "i32 %t3".
func typed(v Value) string {
	return v.Type().String() + " " + v.Ident()
}

// Register is a named local value: a parameter, an alloca'd slot or an
// instruction result.
type Register struct {
	Name string
	Typ  Type
}

func (r *Register) Type() Type     { return r.Typ }
func (r *Register) Ident() string  { return "%" + r.Name }
func (r *Register) String() string { return r.Ident() }

// Const is a constant operand.
type Const struct {
	Typ  Type
	Text string
}

func (c *Const) Type() Type    { return c.Typ }
func (c *Const) Ident() string { return c.Text }

// Global is a module-level symbol. Its value is always a pointer.
type Global struct {
	Name string
}

func (g *Global) Type() Type    { return Ptr }
func (g *Global) Ident() string { return "@" + g.Name }

// ConstInt returns an integer constant.
func ConstInt(t Type, v int64) *Const {
	return &Const{Typ: t, Text: strconv.FormatInt(v, 10)}
}

// ConstUint returns an integer constant from an unsigned magnitude.
func ConstUint(t Type, v uint64) *Const {
	return &Const{Typ: t, Text: strconv.FormatUint(v, 10)}
}

// ConstBool returns an i1 constant.
func ConstBool(v bool) *Const {
	return &Const{Typ: I1, Text: strconv.FormatBool(v)}
}

// ConstFloat returns a float or double constant. Floats are written as the
// hexadecimal bits of the equivalent double, which is exact for both widths.
func ConstFloat(t *FloatType, v float64) *Const {
	if t.Bits == 32 {
		v = float64(float32(v))
	}
	return &Const{Typ: t, Text: fmt.Sprintf("0x%016X", math.Float64bits(v))}
}

// Undef returns the undefined value of t, the starting point for building an
// aggregate with insertvalue.
func Undef(t Type) *Const {
	return &Const{Typ: t, Text: "undef"}
}

// Instruction is one IR instruction.
type Instruction interface {
	// String returns the instruction as one line of IR text
	String() string

	// Operands returns all values read by this instruction
	Operands() []Value

	// Result returns the register written by this instruction, or nil
	Result() *Register
}

// Opcode is a binary operation.
type Opcode string

const (
	OpAdd  Opcode = "add"
	OpSub  Opcode = "sub"
	OpMul  Opcode = "mul"
	OpSDiv Opcode = "sdiv"
	OpUDiv Opcode = "udiv"
	OpSRem Opcode = "srem"
	OpURem Opcode = "urem"
	OpFAdd Opcode = "fadd"
	OpFSub Opcode = "fsub"
	OpFMul Opcode = "fmul"
	OpFDiv Opcode = "fdiv"
	OpFRem Opcode = "frem"
	OpXor  Opcode = "xor"
)

// BinaryOp computes dest = left op right. Both operands have the same type.
type BinaryOp struct {
	Op    Opcode
	Dest  *Register
	Left  Value
	Right Value
}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("%s = %s %s, %s", b.Dest, b.Op, typed(b.Left), b.Right.Ident())
}

func (b *BinaryOp) Operands() []Value { return []Value{b.Left, b.Right} }
func (b *BinaryOp) Result() *Register { return b.Dest }

// FNeg negates a float.
type FNeg struct {
	Dest    *Register
	Operand Value
}

func (f *FNeg) String() string    { return fmt.Sprintf("%s = fneg %s", f.Dest, typed(f.Operand)) }
func (f *FNeg) Operands() []Value { return []Value{f.Operand} }
func (f *FNeg) Result() *Register { return f.Dest }

// Predicate is a comparison condition.
type Predicate string

// Integer predicates
const (
	PredEQ  Predicate = "eq"
	PredNE  Predicate = "ne"
	PredSLT Predicate = "slt"
	PredSLE Predicate = "sle"
	PredSGT Predicate = "sgt"
	PredSGE Predicate = "sge"
	PredULT Predicate = "ult"
	PredULE Predicate = "ule"
	PredUGT Predicate = "ugt"
	PredUGE Predicate = "uge"
)

// Ordered float predicates
const (
	PredOEQ Predicate = "oeq"
	PredONE Predicate = "one"
	PredOLT Predicate = "olt"
	PredOLE Predicate = "ole"
	PredOGT Predicate = "ogt"
	PredOGE Predicate = "oge"
)

// Cmp compares two values of the same type into an i1. Float selects fcmp
// over icmp.
type Cmp struct {
	Float bool
	Pred  Predicate
	Dest  *Register
	Left  Value
	Right Value
}

func (c *Cmp) String() string {
	op := "icmp"
	if c.Float {
		op = "fcmp"
	}
	return fmt.Sprintf("%s = %s %s %s, %s", c.Dest, op, c.Pred, typed(c.Left), c.Right.Ident())
}

func (c *Cmp) Operands() []Value { return []Value{c.Left, c.Right} }
func (c *Cmp) Result() *Register { return c.Dest }

// CastOp is a conversion between numeric types.
type CastOp string

const (
	CastSExt   CastOp = "sext"
	CastZExt   CastOp = "zext"
	CastSIToFP CastOp = "sitofp"
	CastUIToFP CastOp = "uitofp"
	CastFPExt  CastOp = "fpext"
)

// Cast converts a value to Dest's type.
type Cast struct {
	Op      CastOp
	Dest    *Register
	Operand Value
}

func (c *Cast) String() string {
	return fmt.Sprintf("%s = %s %s to %s", c.Dest, c.Op, typed(c.Operand), c.Dest.Typ)
}

func (c *Cast) Operands() []Value { return []Value{c.Operand} }
func (c *Cast) Result() *Register { return c.Dest }

// Memory operations

// Alloca reserves a stack slot for one value of type Elem.
type Alloca struct {
	Dest *Register
	Elem Type
}

func (a *Alloca) String() string    { return fmt.Sprintf("%s = alloca %s", a.Dest, a.Elem) }
func (a *Alloca) Operands() []Value { return nil }
func (a *Alloca) Result() *Register { return a.Dest }

// Load reads a value of Dest's type from Addr.
type Load struct {
	Dest *Register
	Addr Value
}

func (l *Load) String() string    { return fmt.Sprintf("%s = load %s, %s", l.Dest, l.Dest.Typ, typed(l.Addr)) }
func (l *Load) Operands() []Value { return []Value{l.Addr} }
func (l *Load) Result() *Register { return l.Dest }

// Store writes Val to Addr.
type Store struct {
	Val  Value
	Addr Value
}

func (s *Store) String() string    { return fmt.Sprintf("store %s, %s", typed(s.Val), typed(s.Addr)) }
func (s *Store) Operands() []Value { return []Value{s.Val, s.Addr} }
func (s *Store) Result() *Register { return nil }

// GetElementPtr computes an address inside an aggregate or array.
type GetElementPtr struct {
	Dest    *Register
	Elem    Type
	Base    Value
	Indices []Value
}

func (g *GetElementPtr) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s = getelementptr inbounds %s, %s", g.Dest, g.Elem, typed(g.Base))
	for _, idx := range g.Indices {
		sb.WriteString(", ")
		sb.WriteString(typed(idx))
	}
	return sb.String()
}

func (g *GetElementPtr) Operands() []Value {
	return append([]Value{g.Base}, g.Indices...)
}

func (g *GetElementPtr) Result() *Register { return g.Dest }

// Aggregates

// ExtractValue reads field Index of a struct value.
type ExtractValue struct {
	Dest  *Register
	Agg   Value
	Index int
}

func (e *ExtractValue) String() string {
	return fmt.Sprintf("%s = extractvalue %s, %d", e.Dest, typed(e.Agg), e.Index)
}

func (e *ExtractValue) Operands() []Value { return []Value{e.Agg} }
func (e *ExtractValue) Result() *Register { return e.Dest }

// InsertValue returns a copy of a struct value with field Index replaced.
type InsertValue struct {
	Dest  *Register
	Agg   Value
	Elem  Value
	Index int
}

func (i *InsertValue) String() string {
	return fmt.Sprintf("%s = insertvalue %s, %s, %d", i.Dest, typed(i.Agg), typed(i.Elem), i.Index)
}

func (i *InsertValue) Operands() []Value { return []Value{i.Agg, i.Elem} }
func (i *InsertValue) Result() *Register { return i.Dest }

// Call is a direct call by name. Dest is nil when the result is unused or
// void. Sig is the full function type, needed only for variadic callees.
type Call struct {
	Dest   *Register
	Ret    Type
	Sig    string
	Callee string
	Args   []Value
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = typed(a)
	}
	fnType := c.Ret.String()
	if c.Sig != "" {
		fnType = c.Sig
	}
	call := fmt.Sprintf("call %s @%s(%s)", fnType, c.Callee, strings.Join(args, ", "))
	if c.Dest != nil {
		return c.Dest.Ident() + " = " + call
	}
	return call
}

func (c *Call) Operands() []Value { return c.Args }
func (c *Call) Result() *Register { return c.Dest }

// Phi selects a value by the predecessor control came from.
type Phi struct {
	Dest     *Register
	Incoming []PhiIncoming
}

// PhiIncoming is one [value, block] pair of a phi.
type PhiIncoming struct {
	Value Value
	Block *BasicBlock
}

func (p *Phi) String() string {
	pairs := make([]string, len(p.Incoming))
	for i, inc := range p.Incoming {
		pairs[i] = fmt.Sprintf("[ %s, %%%s ]", inc.Value.Ident(), inc.Block.Label)
	}
	return fmt.Sprintf("%s = phi %s %s", p.Dest, p.Dest.Typ, strings.Join(pairs, ", "))
}

func (p *Phi) Operands() []Value {
	operands := make([]Value, len(p.Incoming))
	for i, inc := range p.Incoming {
		operands[i] = inc.Value
	}
	return operands
}

func (p *Phi) Result() *Register { return p.Dest }

// Control flow

// Jump branches unconditionally to Target.
type Jump struct {
	Target *BasicBlock
}

func (j *Jump) String() string    { return "br label %" + j.Target.Label }
func (j *Jump) Operands() []Value { return nil }
func (j *Jump) Result() *Register { return nil }

// Branch branches to TrueBlock when Cond is true and FalseBlock otherwise.
type Branch struct {
	Cond       Value
	TrueBlock  *BasicBlock
	FalseBlock *BasicBlock
}

func (b *Branch) String() string {
	return fmt.Sprintf("br %s, label %%%s, label %%%s", typed(b.Cond), b.TrueBlock.Label, b.FalseBlock.Label)
}

func (b *Branch) Operands() []Value { return []Value{b.Cond} }
func (b *Branch) Result() *Register { return nil }

// Return leaves the function. Value is nil for ret void.
type Return struct {
	Value Value
}

func (r *Return) String() string {
	if r.Value == nil {
		return "ret void"
	}
	return "ret " + typed(r.Value)
}

func (r *Return) Operands() []Value {
	if r.Value != nil {
		return []Value{r.Value}
	}
	return nil
}

func (r *Return) Result() *Register { return nil }

// Unreachable marks a point control never reaches.
type Unreachable struct{}

func (u *Unreachable) String() string    { return "unreachable" }
func (u *Unreachable) Operands() []Value { return nil }
func (u *Unreachable) Result() *Register { return nil }

// IsTerminator reports whether instr ends a basic block.
func IsTerminator(instr Instruction) bool {
	switch instr.(type) {
	case *Jump, *Branch, *Return, *Unreachable:
		return true
	default:
		return false
	}
}

// Targets returns the blocks a terminator may transfer control to.
func Targets(instr Instruction) []*BasicBlock {
	switch t := instr.(type) {
	case *Jump:
		return []*BasicBlock{t.Target}
	case *Branch:
		return []*BasicBlock{t.TrueBlock, t.FalseBlock}
	default:
		return nil
	}
}
