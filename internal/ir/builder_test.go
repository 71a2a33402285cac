package ir

import (
	"errors"
	"strings"
	"testing"

	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/parser"
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/semantic"
)

func analyze(t *testing.T, src string) (*ast.File, *semantic.Info) {
	t.Helper()
	diags := diag.NewCollector()
	file := parser.Parse(lexer.Tokenize(src, "test.fr", diags), diags)
	info := semantic.Analyze(file, diags, semantic.Config{})
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.All())
	}
	return file, info
}

func generate(t *testing.T, src string) *Module {
	t.Helper()
	file, info := analyze(t, src)
	m, err := Generate(file, info, "test")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return m
}

func TestGenerate_Sum(t *testing.T) {
	m := generate(t, `fn main() -> i32 { let x: i32 = 2; let y: i32 = 3; return x + y; }`)

	expected := `; ModuleID = 'test'
source_filename = "test.fr"

define i32 @main() {
entry:
  %x.addr = alloca i32
  %y.addr = alloca i32
  store i32 2, ptr %x.addr
  store i32 3, ptr %y.addr
  %t0 = load i32, ptr %x.addr
  %t1 = load i32, ptr %y.addr
  %t2 = add i32 %t0, %t1
  ret i32 %t2
}
`
	if got := m.String(); got != expected {
		t.Errorf("unexpected IR:\n%s\nexpected:\n%s", got, expected)
	}
	if len(m.Functions) != 1 || m.Functions[0].Name != "main" {
		t.Errorf("expected one function main, got %d", len(m.Functions))
	}
}

func TestGenerate_Parameters(t *testing.T) {
	m := generate(t, `fn add(a: i32, b: i64) -> i64 { return b; }`)

	ir := m.String()
	for _, want := range []string{
		"define i64 @add(i32 %a, i64 %b) {",
		"  %a.addr = alloca i32\n  %b.addr = alloca i64\n  store i32 %a, ptr %a.addr\n  store i64 %b, ptr %b.addr\n",
	} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected IR to contain %q, got:\n%s", want, ir)
		}
	}
}

func TestGenerate_EveryBlockTerminated(t *testing.T) {
	programs := []string{
		`fn f(n: i32) -> i32 { if n > 0 { return 1; } else { return 2; } }`,
		`fn f(n: i32) -> i32 { if n > 0 { return 1; } return 0; }`,
		`fn f() -> i32 { while true { return 1; } }`,
		`fn f() -> i32 { loop { break; } return 0; }`,
		`fn f() { let mut i = 0; while i < 10 { if i == 5 { break; } i += 1; continue; } }`,
		`fn f() -> i32 { let mut t = 0; for i in 0..=9 { if i == 3 { continue; } t += i; } return t; }`,
		`fn f(a: bool, b: bool) -> bool { return a && (b || !a); }`,
		`fn f() { return; }`,
		`fn f() { }`,
	}

	for _, src := range programs {
		t.Run(src, func(t *testing.T) {
			m := generate(t, src)
			for _, fn := range m.Functions {
				for _, block := range fn.Blocks {
					terminators := 0
					for _, instr := range block.Instructions {
						if IsTerminator(instr) {
							terminators++
						}
					}
					if terminators != 1 || !block.IsTerminated() {
						t.Errorf("block %s: expected exactly one terminator at the end, got %d", block.Label, terminators)
					}
				}
			}
			if errs := m.Verify(); len(errs) > 0 {
				t.Errorf("unexpected verify errors: %v", errs)
			}
		})
	}
}

func TestGenerate_Contains(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected []string
	}{
		{
			name:     "signed division",
			src:      `fn f(a: i32, b: i32) -> i32 { return a / b % b; }`,
			expected: []string{"= sdiv i32 ", "= srem i32 "},
		},
		{
			name:     "unsigned division",
			src:      `fn f(a: u32, b: u32) -> u32 { return a / b % b; }`,
			expected: []string{"= udiv i32 ", "= urem i32 "},
		},
		{
			name:     "float arithmetic",
			src:      `fn f(a: f64, b: f32) -> f64 { let c = b * b; return a + 1.5 - a; }`,
			expected: []string{"%t4 = fadd double %t3, 0x3FF8000000000000", "= fsub double ", "= fmul float "},
		},
		{
			name:     "signed comparison",
			src:      `fn f(a: i32, b: i32) -> bool { return a <= b; }`,
			expected: []string{"= icmp sle i32 %t0, %t1"},
		},
		{
			name:     "unsigned comparison",
			src:      `fn f(a: u16, b: u16) -> bool { return a > b; }`,
			expected: []string{"= icmp ugt i16 %t0, %t1"},
		},
		{
			name:     "char comparison",
			src:      `fn f(c: char) -> bool { return c >= 'a'; }`,
			expected: []string{"= icmp uge i32 %t0, 97"},
		},
		{
			name:     "float comparison",
			src:      `fn f(a: f64) -> bool { return a != 0.0; }`,
			expected: []string{"= fcmp one double %t0, 0x0000000000000000"},
		},
		{
			name:     "bool equality",
			src:      `fn f(a: bool) -> bool { return a == true; }`,
			expected: []string{"= icmp eq i1 %t0, true"},
		},
		{
			name: "string equality",
			src:  `fn f(a: str) -> bool { return a == "x"; }`,
			expected: []string{
				"%t1 = call i32 @strcmp(ptr %t0, ptr @.str.0)",
				"%t2 = icmp eq i32 %t1, 0",
				"declare i32 @strcmp(ptr, ptr)",
			},
		},
		{
			name:     "mixed width comparison",
			src:      `fn f(a: i32, b: i64) -> bool { return a < b; }`,
			expected: []string{"%t2 = sext i32 %t0 to i64", "%t3 = icmp slt i64 %t2, %t1"},
		},
		{
			name:     "mixed signedness comparison",
			src:      `fn f(a: u8, b: i32) -> bool { return a == b; }`,
			expected: []string{"%t2 = zext i8 %t0 to i32", "%t3 = icmp eq i32 %t2, %t1"},
		},
		{
			name:     "unsigned widened to signed 64",
			src:      `fn f(a: u32, b: i64) -> bool { return a < b; }`,
			expected: []string{"%t2 = zext i32 %t0 to i64", "%t3 = icmp slt i64 %t2, %t1"},
		},
		{
			name:     "int and float comparison",
			src:      `fn f(a: i32, b: f64) -> bool { return a < b; }`,
			expected: []string{"%t2 = sitofp i32 %t0 to double", "%t3 = fcmp olt double %t2, %t1"},
		},
		{
			name:     "float widening",
			src:      `fn f(a: f32, b: f64) -> bool { return a > b; }`,
			expected: []string{"%t2 = fpext float %t0 to double", "fcmp ogt double"},
		},
		{
			name:     "negation",
			src:      `fn f(a: i32, b: f64) -> f64 { let c = -a; return -b; }`,
			expected: []string{"= sub i32 0, %t0", "= fneg double %t"},
		},
		{
			name:     "negative literal",
			src:      `fn f() -> i8 { return -128; }`,
			expected: []string{"ret i8 -128"},
		},
		{
			name:     "logical not",
			src:      `fn f(a: bool) -> bool { return !a; }`,
			expected: []string{"%t1 = xor i1 %t0, true"},
		},
		{
			name:     "compound assignment",
			src:      `fn f() -> i32 { let mut x = 1; x *= 3; return x; }`,
			expected: []string{"%t0 = load i32, ptr %x.addr", "%t1 = mul i32 %t0, 3", "store i32 %t1, ptr %x.addr"},
		},
		{
			name: "direct call",
			src:  `fn g(a: i32) -> i32 { return a; } fn f() -> i32 { return g(4); }`,
			expected: []string{
				"%t0 = call i32 @g(i32 4)",
				"ret i32 %t0",
			},
		},
		{
			name:     "void call",
			src:      `fn g() { } fn f() { g(); }`,
			expected: []string{"  call void @g()\n"},
		},
		{
			name: "struct literal and fields",
			src: `struct P { x: i32, y: i32 }
fn f() -> i32 { let mut p = P { y: 2, x: 1 }; p.y = 5; return p.x; }`,
			expected: []string{
				"%P = type { i32, i32 }",
				"%t0 = insertvalue %P undef, i32 1, 0",
				"%t1 = insertvalue %P %t0, i32 2, 1",
				"store %P %t1, ptr %p.addr",
				"%t2 = getelementptr inbounds %P, ptr %p.addr, i32 0, i32 1",
				"store i32 5, ptr %t2",
				"%t3 = load %P, ptr %p.addr",
				"%t4 = extractvalue %P %t3, 0",
			},
		},
		{
			name: "nested struct type",
			src: `struct Line { a: Point, b: Point }
struct Point { x: f32 }
fn f(l: Line) -> f32 { return l.b.x; }`,
			expected: []string{
				"%Line = type { %Point, %Point }\n%Point = type { float }",
				"%t1 = extractvalue %Line %t0, 1",
				"%t2 = extractvalue %Point %t1, 0",
			},
		},
		{
			name: "string index",
			src:  `fn f(s: str, i: i32) -> u8 { return s[i]; }`,
			expected: []string{
				"%t2 = sext i32 %t1 to i64",
				"%t3 = getelementptr inbounds i8, ptr %t0, i64 %t2",
				"%t4 = load i8, ptr %t3",
			},
		},
		{
			name: "exclusive range",
			src:  `fn f(n: u32) { for i in 0..n { } }`,
			expected: []string{
				"store i32 0, ptr %i.addr",
				"= icmp ult i32 ",
				"\nfor.body:",
				"\nfor.step:",
				"= add i32 ",
				"\nfor.end:",
			},
		},
		{
			name: "inclusive range",
			src:  `fn f() { for i in 1..=3 { } }`,
			expected: []string{
				"= icmp sle i32 ",
				"= icmp eq i32 ",
				"\nfor.inc:",
			},
		},
		{
			name: "while loop",
			src:  `fn f() { let mut i = 0; while i < 3 { i += 1; } }`,
			expected: []string{
				"  br label %while.cond\n",
				"br i1 %t1, label %while.body, label %while.end",
				"\nwhile.end:",
			},
		},
		{
			name:     "loop",
			src:      `fn f() { loop { break; } }`,
			expected: []string{"\nloop.body:", "br label %loop.end", "\nloop.end:"},
		},
		{
			name:     "unique labels",
			src:      `fn f(a: bool) { if a { } if a { } if a { } }`,
			expected: []string{"\nif.then:", "\nif.then1:", "\nif.then2:", "\nif.end2:"},
		},
		{
			name:     "implicit void return",
			src:      `fn f(a: bool) { if a { return; } }`,
			expected: []string{"\nif.end:", "  ret void\n"},
		},
		{
			name:     "unreachable fallback",
			src:      `fn f() -> i32 { while true { return 1; } }`,
			expected: []string{"\nwhile.end:", "  unreachable\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ir := generate(t, tt.src).String()
			for _, want := range tt.expected {
				if !strings.Contains(ir, want) {
					t.Errorf("expected IR to contain %q, got:\n%s", want, ir)
				}
			}
		})
	}
}

func TestGenerate_ShortCircuit(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected []string
	}{
		{
			name: "and",
			src:  `fn f(a: bool, b: bool) -> bool { return a && b; }`,
			expected: []string{
				"br i1 %t0, label %and.rhs, label %and.end",
				"%t2 = phi i1 [ false, %entry ], [ %t1, %and.rhs ]",
				"ret i1 %t2",
			},
		},
		{
			name: "or",
			src:  `fn f(a: bool, b: bool) -> bool { return a || b; }`,
			expected: []string{
				"br i1 %t0, label %or.end, label %or.rhs",
				"%t2 = phi i1 [ true, %entry ], [ %t1, %or.rhs ]",
			},
		},
		{
			name: "nested",
			src:  `fn f(a: bool, b: bool, c: bool) -> bool { return a && (b || c); }`,
			expected: []string{
				"%t3 = phi i1 [ true, %and.rhs ], [ %t2, %or.rhs ]",
				"%t4 = phi i1 [ false, %entry ], [ %t3, %or.end ]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ir := generate(t, tt.src).String()
			for _, want := range tt.expected {
				if !strings.Contains(ir, want) {
					t.Errorf("expected IR to contain %q, got:\n%s", want, ir)
				}
			}
		})
	}
}

func TestGenerate_Strings(t *testing.T) {
	m := generate(t, `fn main() { print("hi"); println("hi"); println("a\n\""); }`)

	if len(m.Strings) != 3 {
		t.Fatalf("expected 3 string constants, got %d", len(m.Strings))
	}

	ir := m.String()
	for _, want := range []string{
		`@.str.0 = private unnamed_addr constant [3 x i8] c"hi\00"`,
		`@.str.1 = private unnamed_addr constant [3 x i8] c"%s\00"`,
		`@.str.2 = private unnamed_addr constant [4 x i8] c"a\0A\22\00"`,
		"call i32 (ptr, ...) @printf(ptr @.str.1, ptr @.str.0)",
		"call i32 @puts(ptr @.str.0)",
		"call i32 @puts(ptr @.str.2)",
	} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected IR to contain %q, got:\n%s", want, ir)
		}
	}

	for _, decl := range []string{"declare i32 @printf(ptr, ...)", "declare i32 @puts(ptr)"} {
		if n := strings.Count(ir, decl); n != 1 {
			t.Errorf("expected %q once, got %d", decl, n)
		}
	}

	// Sections are ordered: strings, declarations, definitions.
	strIdx := strings.Index(ir, "@.str.0 =")
	declIdx := strings.Index(ir, "declare ")
	defIdx := strings.Index(ir, "define ")
	if !(strIdx < declIdx && declIdx < defIdx) {
		t.Errorf("unexpected section order: strings %d, declares %d, defines %d", strIdx, declIdx, defIdx)
	}
}

func TestGenerate_UnreachableBlocksRemoved(t *testing.T) {
	m := generate(t, `fn f(n: i32) -> i32 { if n > 0 { return 1; } else { return 2; } }`)

	fn := m.Function("f")
	if fn == nil {
		t.Fatal("expected function f")
	}
	for i, block := range fn.Blocks {
		if block.Label == "if.end" {
			t.Errorf("expected if.end to be removed")
		}
		if block.Index != i {
			t.Errorf("block %s: expected index %d, got %d", block.Label, i, block.Index)
		}
	}
	if len(fn.Blocks) != 3 {
		t.Errorf("expected 3 blocks, got %d", len(fn.Blocks))
	}
}

func TestGenerate_StatementsAfterReturnSkipped(t *testing.T) {
	m := generate(t, `fn f() -> i32 { let mut x = 1; return x; x = 2; }`)

	if strings.Contains(m.String(), "store i32 2") {
		t.Errorf("expected no code after return, got:\n%s", m)
	}
}

func TestGenerate_InternalErrors(t *testing.T) {
	if _, err := Generate(nil, nil, "test"); !errors.Is(err, ErrInternal) {
		t.Errorf("expected ErrInternal for nil input, got %v", err)
	}

	// Info from one file does not describe the declarations of another.
	_, info := analyze(t, `fn f() -> i32 { return 1; }`)
	other, _ := analyze(t, `fn f() -> i32 { return 1; }`)
	_, err := Generate(other, info, "test")
	if !errors.Is(err, ErrInternal) {
		t.Errorf("expected ErrInternal for mismatched info, got %v", err)
	}
}
