package ir

import (
	"strings"
	"testing"

	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/semantic/types"
)

func TestInstructionString(t *testing.T) {
	a := &Register{Name: "a", Typ: I32}
	b := &Register{Name: "b", Typ: I32}
	p := &Register{Name: "p", Typ: Ptr}
	point := &StructType{Name: "Point", Fields: []Type{I32, Double}}
	then := NewBasicBlock("if.then")
	end := NewBasicBlock("if.end")

	tests := []struct {
		name     string
		instr    Instruction
		expected string
	}{
		{"binary", &BinaryOp{Op: OpAdd, Dest: &Register{Name: "t0", Typ: I32}, Left: a, Right: b}, "%t0 = add i32 %a, %b"},
		{"binary const", &BinaryOp{Op: OpSub, Dest: &Register{Name: "t0", Typ: I32}, Left: ConstInt(I32, 0), Right: a}, "%t0 = sub i32 0, %a"},
		{"fneg", &FNeg{Dest: &Register{Name: "t0", Typ: Double}, Operand: &Register{Name: "x", Typ: Double}}, "%t0 = fneg double %x"},
		{"icmp", &Cmp{Pred: PredSLT, Dest: &Register{Name: "c", Typ: I1}, Left: a, Right: b}, "%c = icmp slt i32 %a, %b"},
		{"fcmp", &Cmp{Float: true, Pred: PredOGE, Dest: &Register{Name: "c", Typ: I1}, Left: &Register{Name: "x", Typ: Float}, Right: ConstFloat(Float, 1)}, "%c = fcmp oge float %x, 0x3FF0000000000000"},
		{"cast", &Cast{Op: CastSExt, Dest: &Register{Name: "w", Typ: I64}, Operand: a}, "%w = sext i32 %a to i64"},
		{"alloca", &Alloca{Dest: &Register{Name: "x.addr", Typ: Ptr}, Elem: point}, "%x.addr = alloca %Point"},
		{"load", &Load{Dest: &Register{Name: "t0", Typ: I32}, Addr: p}, "%t0 = load i32, ptr %p"},
		{"store", &Store{Val: a, Addr: p}, "store i32 %a, ptr %p"},
		{"gep", &GetElementPtr{Dest: &Register{Name: "f", Typ: Ptr}, Elem: point, Base: p, Indices: []Value{ConstInt(I32, 0), ConstInt(I32, 1)}}, "%f = getelementptr inbounds %Point, ptr %p, i32 0, i32 1"},
		{"extractvalue", &ExtractValue{Dest: &Register{Name: "x", Typ: I32}, Agg: &Register{Name: "s", Typ: point}, Index: 0}, "%x = extractvalue %Point %s, 0"},
		{"insertvalue", &InsertValue{Dest: &Register{Name: "s", Typ: point}, Agg: Undef(point), Elem: a, Index: 0}, "%s = insertvalue %Point undef, i32 %a, 0"},
		{"call", &Call{Dest: &Register{Name: "r", Typ: I32}, Ret: I32, Callee: "f", Args: []Value{a, b}}, "%r = call i32 @f(i32 %a, i32 %b)"},
		{"call void", &Call{Ret: Void, Callee: "g"}, "call void @g()"},
		{"call variadic", &Call{Ret: I32, Sig: "i32 (ptr, ...)", Callee: "printf", Args: []Value{&Global{Name: ".str.0"}}}, "call i32 (ptr, ...) @printf(ptr @.str.0)"},
		{"phi", &Phi{Dest: &Register{Name: "v", Typ: I1}, Incoming: []PhiIncoming{{ConstBool(false), then}, {ConstBool(true), end}}}, "%v = phi i1 [ false, %if.then ], [ true, %if.end ]"},
		{"jump", &Jump{Target: end}, "br label %if.end"},
		{"branch", &Branch{Cond: &Register{Name: "c", Typ: I1}, TrueBlock: then, FalseBlock: end}, "br i1 %c, label %if.then, label %if.end"},
		{"return", &Return{Value: a}, "ret i32 %a"},
		{"return void", &Return{}, "ret void"},
		{"unreachable", &Unreachable{}, "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.instr.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestConstFloat(t *testing.T) {
	tests := []struct {
		typ      *FloatType
		value    float64
		expected string
	}{
		{Double, 1.5, "0x3FF8000000000000"},
		{Double, 0.1, "0x3FB999999999999A"},
		{Float, 0.1, "0x3FB99999A0000000"},
		{Double, -2, "0xC000000000000000"},
	}

	for _, tt := range tests {
		if got := ConstFloat(tt.typ, tt.value).Ident(); got != tt.expected {
			t.Errorf("ConstFloat(%s, %v): expected %s, got %s", tt.typ, tt.value, tt.expected, got)
		}
	}
}

func TestArithOpcode(t *testing.T) {
	tests := []struct {
		op       lexer.TokenType
		typ      types.Type
		expected Opcode
	}{
		{lexer.TokenPlus, types.I32, OpAdd},
		{lexer.TokenMinus, types.U8, OpSub},
		{lexer.TokenStar, types.I64, OpMul},
		{lexer.TokenSlash, types.I16, OpSDiv},
		{lexer.TokenSlash, types.U16, OpUDiv},
		{lexer.TokenPercent, types.I8, OpSRem},
		{lexer.TokenPercent, types.U64, OpURem},
		{lexer.TokenPlus, types.F32, OpFAdd},
		{lexer.TokenMinus, types.F64, OpFSub},
		{lexer.TokenStar, types.F64, OpFMul},
		{lexer.TokenSlash, types.F32, OpFDiv},
		{lexer.TokenPercent, types.F64, OpFRem},
	}

	for _, tt := range tests {
		got, ok := ArithOpcode(tt.op, tt.typ)
		if !ok || got != tt.expected {
			t.Errorf("ArithOpcode(%s, %s): expected %s, got %s (ok=%v)", tt.op, tt.typ, tt.expected, got, ok)
		}
	}

	for _, typ := range []types.Type{types.Bool, types.Str, types.Char} {
		if _, ok := ArithOpcode(lexer.TokenPlus, typ); ok {
			t.Errorf("expected no + instruction for %s", typ)
		}
	}
}

func TestCmpPredicate(t *testing.T) {
	ops := []lexer.TokenType{
		lexer.TokenEqual, lexer.TokenNotEqual,
		lexer.TokenLess, lexer.TokenLessEqual,
		lexer.TokenGreater, lexer.TokenGreaterEqual,
	}
	tests := []struct {
		typ      types.Type
		expected []Predicate
	}{
		{types.I32, []Predicate{PredEQ, PredNE, PredSLT, PredSLE, PredSGT, PredSGE}},
		{types.U32, []Predicate{PredEQ, PredNE, PredULT, PredULE, PredUGT, PredUGE}},
		{types.Char, []Predicate{PredEQ, PredNE, PredULT, PredULE, PredUGT, PredUGE}},
		{types.F64, []Predicate{PredOEQ, PredONE, PredOLT, PredOLE, PredOGT, PredOGE}},
		{types.Bool, []Predicate{PredEQ, PredNE, "", "", "", ""}},
		{types.Str, []Predicate{PredEQ, PredNE, "", "", "", ""}},
	}

	for _, tt := range tests {
		for i, op := range ops {
			got, ok := CmpPredicate(op, tt.typ)
			want := tt.expected[i]
			if ok != (want != "") || got != want {
				t.Errorf("CmpPredicate(%s, %s): expected %q, got %q (ok=%v)", op, tt.typ, want, got, ok)
			}
		}
	}
}

func TestFunction_UniqueNames(t *testing.T) {
	fn := NewFunction("f", Void)

	labels := []string{
		fn.NewBasicBlock("if.then").Label,
		fn.NewBasicBlock("if.then").Label,
		fn.NewBasicBlock("if.then").Label,
		fn.NewBasicBlock("entry").Label,
	}
	expected := []string{"if.then", "if.then1", "if.then2", "entry1"}
	for i := range labels {
		if labels[i] != expected[i] {
			t.Errorf("label %d: expected %s, got %s", i, expected[i], labels[i])
		}
	}

	p := fn.NewParam("t0", I32)
	tmp := fn.NewTemp(I32)
	if p.Name == tmp.Name {
		t.Errorf("expected temporary to avoid parameter name %s", p.Name)
	}
}

func TestModule_StringSections(t *testing.T) {
	m := NewModule("demo", "demo.fr")
	m.Types = append(m.Types, &StructType{Name: "Empty"})
	m.Strings = append(m.Strings, &StringConst{Global: &Global{Name: ".str.0"}, Data: "tab\there"})
	m.Declares = append(m.Declares, &Declare{Name: "puts", Return: I32, Params: []Type{Ptr}})

	fn := NewFunction("main", Void)
	fn.Entry.AddInstruction(&Call{Ret: I32, Callee: "puts", Args: []Value{&Global{Name: ".str.0"}}})
	fn.Entry.AddInstruction(&Return{})
	m.AddFunction(fn)

	expected := `; ModuleID = 'demo'
source_filename = "demo.fr"

%Empty = type {}

@.str.0 = private unnamed_addr constant [9 x i8] c"tab\09here\00"

declare i32 @puts(ptr)

define void @main() {
entry:
  call i32 @puts(ptr @.str.0)
  ret void
}
`
	if got := m.String(); got != expected {
		t.Errorf("unexpected module text:\n%s\nexpected:\n%s", got, expected)
	}
	if errs := m.Verify(); len(errs) > 0 {
		t.Errorf("unexpected verify errors: %v", errs)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		build    func(m *Module)
		expected string
	}{
		{
			name: "missing terminator",
			build: func(m *Module) {
				fn := NewFunction("f", Void)
				m.AddFunction(fn)
			},
			expected: "has no terminator",
		},
		{
			name: "terminator not last",
			build: func(m *Module) {
				fn := NewFunction("f", Void)
				fn.Entry.AddInstruction(&Return{})
				fn.Entry.AddInstruction(&Return{})
				m.AddFunction(fn)
			},
			expected: "is not the last instruction",
		},
		{
			name: "foreign branch target",
			build: func(m *Module) {
				fn := NewFunction("f", Void)
				other := NewFunction("g", Void)
				fn.Entry.AddInstruction(&Jump{Target: other.Entry})
				other.Entry.AddInstruction(&Return{})
				m.AddFunction(fn)
				m.AddFunction(other)
			},
			expected: "outside the function",
		},
		{
			name: "unplaced branch target",
			build: func(m *Module) {
				fn := NewFunction("f", Void)
				fn.Entry.AddInstruction(&Jump{Target: fn.NewBasicBlock("lost")})
				m.AddFunction(fn)
			},
			expected: "branch to lost outside the function",
		},
		{
			name: "undeclared callee",
			build: func(m *Module) {
				fn := NewFunction("f", Void)
				fn.Entry.AddInstruction(&Call{Ret: I32, Callee: "puts"})
				fn.Entry.AddInstruction(&Return{})
				m.AddFunction(fn)
			},
			expected: "call to undeclared function @puts",
		},
		{
			name: "undefined operand",
			build: func(m *Module) {
				fn := NewFunction("f", I32)
				fn.Entry.AddInstruction(&Return{Value: &Register{Name: "ghost", Typ: I32}})
				m.AddFunction(fn)
			},
			expected: "use of undefined value %ghost",
		},
		{
			name: "duplicate definition",
			build: func(m *Module) {
				for i := 0; i < 2; i++ {
					fn := NewFunction("f", Void)
					fn.Entry.AddInstruction(&Return{})
					m.AddFunction(fn)
				}
			},
			expected: "function @f is defined twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule("test", "test.fr")
			tt.build(m)
			errs := m.Verify()
			if len(errs) == 0 {
				t.Fatalf("expected verify error containing %q", tt.expected)
			}
			found := false
			for _, err := range errs {
				if strings.Contains(err.Error(), tt.expected) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error containing %q, got %v", tt.expected, errs)
			}
		})
	}
}

func TestRemoveUnreachableBlocks(t *testing.T) {
	fn := NewFunction("f", I1)
	live := fn.NewBasicBlock("live")
	dead := fn.NewBasicBlock("dead")
	join := fn.NewBasicBlock("join")
	for _, bb := range []*BasicBlock{live, dead, join} {
		fn.AppendBlock(bb)
	}

	fn.Entry.AddInstruction(&Jump{Target: live})
	fn.Entry.AddSuccessor(live)
	live.AddInstruction(&Jump{Target: join})
	live.AddSuccessor(join)
	dead.AddInstruction(&Jump{Target: join})
	dead.AddSuccessor(join)

	result := &Register{Name: "v", Typ: I1}
	phi := &Phi{Dest: result, Incoming: []PhiIncoming{{ConstBool(true), live}, {ConstBool(false), dead}}}
	join.AddInstruction(phi)
	join.AddInstruction(&Return{Value: result})

	if !removeUnreachableBlocks(fn) {
		t.Fatal("expected blocks to be removed")
	}
	if len(fn.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(fn.Blocks))
	}
	for i, bb := range fn.Blocks {
		if bb == dead {
			t.Errorf("expected dead block to be removed")
		}
		if bb.Index != i {
			t.Errorf("block %s: expected index %d, got %d", bb.Label, i, bb.Index)
		}
	}
	if len(join.Predecessors) != 1 || join.Predecessors[0] != live {
		t.Errorf("expected join to keep only live as predecessor, got %d", len(join.Predecessors))
	}
	if len(phi.Incoming) != 1 || phi.Incoming[0].Block != live {
		t.Errorf("expected phi to keep only the live input, got %s", phi)
	}

	if removeUnreachableBlocks(fn) {
		t.Errorf("expected second run to change nothing")
	}
}
