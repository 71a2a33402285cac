package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// BasicBlock represents a sequence of instructions with single entry and exit.
//
// WHAT IS A BASIC BLOCK?
// A basic block is a straight-line code sequence with:
// - One entry point (its label)
// - One exit point (a br, ret or unreachable)
// - No jumps in or out in the middle
//
// EXAMPLE:
//
//	while.cond:
//	  %t0 = load i32, ptr %i.addr
//	  %t1 = icmp slt i32 %t0, 10
//	  br i1 %t1, label %while.body, label %while.end
type BasicBlock struct {
	// Label is the block name, unique within its function
	Label string

	// Instructions in this block (in order)
	Instructions []Instruction

	// Successors are blocks that can execute after this one, as named by
	// the terminator
	Successors []*BasicBlock

	// Predecessors are blocks that can jump to this one
	Predecessors []*BasicBlock

	// Index is the position in the function's block list, or -1 while the
	// block is not yet placed
	Index int
}

// NewBasicBlock creates a new, unplaced basic block with the given label.
func NewBasicBlock(label string) *BasicBlock {
	return &BasicBlock{
		Label: label,
		Index: -1,
	}
}

// AddInstruction adds an instruction to the end of this block.
func (bb *BasicBlock) AddInstruction(instr Instruction) {
	bb.Instructions = append(bb.Instructions, instr)
}

// AddSuccessor adds a successor block and updates its predecessor list.
func (bb *BasicBlock) AddSuccessor(succ *BasicBlock) {
	for _, s := range bb.Successors {
		if s == succ {
			return
		}
	}

	bb.Successors = append(bb.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, bb)
}

// Terminator returns the last instruction if it is a terminator, else nil.
func (bb *BasicBlock) Terminator() Instruction {
	if len(bb.Instructions) == 0 {
		return nil
	}
	last := bb.Instructions[len(bb.Instructions)-1]
	if IsTerminator(last) {
		return last
	}
	return nil
}

// IsTerminated returns true if this block has a terminator instruction.
func (bb *BasicBlock) IsTerminated() bool {
	return bb.Terminator() != nil
}

// String returns the block as IR text.
func (bb *BasicBlock) String() string {
	var sb strings.Builder

	sb.WriteString(bb.Label)
	sb.WriteString(":")
	if len(bb.Predecessors) > 0 {
		labels := make([]string, len(bb.Predecessors))
		for i, pred := range bb.Predecessors {
			labels[i] = "%" + pred.Label
		}
		sb.WriteString("  ; preds = ")
		sb.WriteString(strings.Join(labels, ", "))
	}
	sb.WriteString("\n")

	for _, instr := range bb.Instructions {
		sb.WriteString("  ")
		sb.WriteString(instr.String())
		sb.WriteString("\n")
	}

	return sb.String()
}

// Function represents a function definition in IR.
//
// Labels and register names share one namespace per function. Every name is
// handed out through unique, which appends a numeric suffix on reuse:
// if.then, if.then1, if.then2.
type Function struct {
	// Name is the function name, without the @ sigil
	Name string

	// Params are the incoming argument registers
	Params []*Register

	// ReturnType is the function's return type
	ReturnType Type

	// Blocks are the placed basic blocks; the first is always the entry block
	Blocks []*BasicBlock

	// Entry is the entry basic block
	Entry *BasicBlock

	used     map[string]bool
	suffix   map[string]int
	nextTemp int
}

// NewFunction creates a function with a placed entry block.
func NewFunction(name string, returnType Type) *Function {
	f := &Function{
		Name:       name,
		ReturnType: returnType,
		used:       make(map[string]bool),
		suffix:     make(map[string]int),
	}
	f.Entry = f.NewBasicBlock("entry")
	f.AppendBlock(f.Entry)
	return f
}

// unique reserves a name in the function's namespace.
func (f *Function) unique(base string) string {
	if !f.used[base] {
		f.used[base] = true
		return base
	}
	for {
		f.suffix[base]++
		name := base + strconv.Itoa(f.suffix[base])
		if !f.used[name] {
			f.used[name] = true
			return name
		}
	}
}

// NewParam adds an incoming parameter register.
func (f *Function) NewParam(name string, typ Type) *Register {
	r := &Register{Name: f.unique(name), Typ: typ}
	f.Params = append(f.Params, r)
	return r
}

// NewBasicBlock creates a block with a unique label. The block is not part of
// the function until AppendBlock places it.
func (f *Function) NewBasicBlock(label string) *BasicBlock {
	return NewBasicBlock(f.unique(label))
}

// AppendBlock places bb at the end of the function's block list.
func (f *Function) AppendBlock(bb *BasicBlock) {
	bb.Index = len(f.Blocks)
	f.Blocks = append(f.Blocks, bb)
}

// NewNamed creates a register whose name derives from base.
func (f *Function) NewNamed(base string, typ Type) *Register {
	return &Register{Name: f.unique(base), Typ: typ}
}

// NewTemp creates a new temporary register: %t0, %t1, ...
func (f *Function) NewTemp(typ Type) *Register {
	name := "t" + strconv.Itoa(f.nextTemp)
	f.nextTemp++
	return f.NewNamed(name, typ)
}

// Signature returns the define line without the opening brace.
func (f *Function) Signature() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = typed(p)
	}
	return fmt.Sprintf("define %s @%s(%s)", f.ReturnType, f.Name, strings.Join(params, ", "))
}

// String returns the function definition as IR text.
func (f *Function) String() string {
	var sb strings.Builder

	sb.WriteString(f.Signature())
	sb.WriteString(" {\n")
	for i, block := range f.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(block.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}

// StringConst is a hoisted string literal.
type StringConst struct {
	Global *Global
	Data   string
}

// Type returns the array type of the constant including its NUL terminator.
func (s *StringConst) Type() Type {
	return &ArrayType{Len: len(s.Data) + 1, Elem: I8}
}

// Definition returns the module-level constant line.
func (s *StringConst) Definition() string {
	return fmt.Sprintf("%s = private unnamed_addr constant %s c\"%s\\00\"",
		s.Global.Ident(), s.Type(), escapeBytes(s.Data))
}

// escapeBytes renders data for a c"..." literal: printable ASCII other than
// the quote and backslash is written as is, everything else as \XX.
func escapeBytes(data string) string {
	var sb strings.Builder
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", c)
	}
	return sb.String()
}

// Declare is an external function declaration.
type Declare struct {
	Name     string
	Return   Type
	Params   []Type
	Variadic bool
}

// Sig returns the declaration's function type, e.g. "i32 (ptr, ...)".
func (d *Declare) Sig() string {
	return fmt.Sprintf("%s (%s)", d.Return, d.paramList())
}

// String returns the declare line.
func (d *Declare) String() string {
	return fmt.Sprintf("declare %s @%s(%s)", d.Return, d.Name, d.paramList())
}

func (d *Declare) paramList() string {
	params := make([]string, 0, len(d.Params)+1)
	for _, p := range d.Params {
		params = append(params, p.String())
	}
	if d.Variadic {
		params = append(params, "...")
	}
	return strings.Join(params, ", ")
}

// Module represents a compilation unit.
type Module struct {
	// Name is the module identifier
	Name string

	// SourceFile is the file the module was compiled from
	SourceFile string

	// Types are the struct type definitions in declaration order
	Types []*StructType

	// Strings are the hoisted string constants in first-use order
	Strings []*StringConst

	// Declares are the external functions in first-use order
	Declares []*Declare

	// Functions are the function definitions in source order
	Functions []*Function
}

// NewModule creates a new module.
func NewModule(name, sourceFile string) *Module {
	return &Module{
		Name:       name,
		SourceFile: sourceFile,
	}
}

// AddFunction adds a function to the module.
func (m *Module) AddFunction(fn *Function) {
	m.Functions = append(m.Functions, fn)
}

// Function returns the defined function with the given name, or nil.
func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Declare returns the external declaration with the given name, or nil.
func (m *Module) Declare(name string) *Declare {
	for _, d := range m.Declares {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// String returns the module as IR text.
func (m *Module) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "; ModuleID = '%s'\n", m.Name)
	fmt.Fprintf(&sb, "source_filename = \"%s\"\n", escapeBytes(m.SourceFile))

	if len(m.Types) > 0 {
		sb.WriteString("\n")
		for _, t := range m.Types {
			sb.WriteString(t.Definition())
			sb.WriteString("\n")
		}
	}

	if len(m.Strings) > 0 {
		sb.WriteString("\n")
		for _, s := range m.Strings {
			sb.WriteString(s.Definition())
			sb.WriteString("\n")
		}
	}

	if len(m.Declares) > 0 {
		sb.WriteString("\n")
		for _, d := range m.Declares {
			sb.WriteString(d.String())
			sb.WriteString("\n")
		}
	}

	for _, fn := range m.Functions {
		sb.WriteString("\n")
		sb.WriteString(fn.String())
	}

	return sb.String()
}
