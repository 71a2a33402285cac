package types

import (
	"testing"
)

func TestPrimitiveType_String(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{I8, "i8"},
		{I32, "i32"},
		{U64, "u64"},
		{F32, "f32"},
		{F64, "f64"},
		{Bool, "bool"},
		{Char, "char"},
		{Str, "str"},
		{Void, "void"},
		{Error, "<error>"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.typ.String()
			if result != tt.expected {
				t.Errorf("Type.String() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestPrimitiveType_Equals(t *testing.T) {
	tests := []struct {
		name     string
		t1       Type
		t2       Type
		expected bool
	}{
		{"i32 equals i32", I32, I32, true},
		{"i32 equals fresh i32", I32, &IntType{Bits: 32, Signed: true}, true},
		{"i32 not equals u32", I32, U32, false},
		{"i32 not equals i64", I32, I64, false},
		{"f32 not equals f64", F32, F64, false},
		{"i32 not equals f32", I32, F32, false},
		{"bool not equals i32", Bool, I32, false},
		{"char not equals u32", Char, U32, false},
		{"error equals error", Error, Error, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.t1.Equals(tt.t2)
			if result != tt.expected {
				t.Errorf("%s.Equals(%s) = %v, want %v",
					tt.t1, tt.t2, result, tt.expected)
			}
		})
	}
}

func TestPrimitiveType_AssignableTo(t *testing.T) {
	tests := []struct {
		name     string
		value    Type
		target   Type
		expected bool
	}{
		{"i32 to i32", I32, I32, true},
		{"f64 to f64", F64, F64, true},
		{"i32 to i64 (no widening)", I32, I64, false},
		{"i32 to f64 (not allowed)", I32, F64, false},
		{"bool to i32 (not allowed)", Bool, I32, false},
		{"void to void", Void, Void, false},
		{"error to anything", Error, I32, false},
		{"anything to error", I32, Error, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.value.AssignableTo(tt.target)
			if result != tt.expected {
				t.Errorf("%s.AssignableTo(%s) = %v, want %v",
					tt.value, tt.target, result, tt.expected)
			}
		})
	}
}

func TestIntType_Fits(t *testing.T) {
	tests := []struct {
		typ       *IntType
		magnitude uint64
		negative  bool
		expected  bool
	}{
		{I8, 127, false, true},
		{I8, 128, false, false},
		{I8, 128, true, true},
		{I8, 129, true, false},
		{U8, 255, false, true},
		{U8, 256, false, false},
		{U8, 1, true, false},
		{U8, 0, true, true},
		{I32, 2147483647, false, true},
		{I32, 2147483648, false, false},
		{I64, 9223372036854775808, true, true},
		{I64, 9223372036854775808, false, false},
		{U64, 18446744073709551615, false, true},
	}

	for _, tt := range tests {
		if got := tt.typ.Fits(tt.magnitude, tt.negative); got != tt.expected {
			t.Errorf("%s.Fits(%d, %v) = %v, want %v", tt.typ, tt.magnitude, tt.negative, got, tt.expected)
		}
	}
}

func TestFunctionType(t *testing.T) {
	params := []Type{I32, F64}
	funcType := NewFunction(params, Bool)

	expected := "fn(i32, f64) -> bool"
	if funcType.String() != expected {
		t.Errorf("FunctionType.String() = %q, want %q", funcType.String(), expected)
	}

	if !funcType.Equals(NewFunction([]Type{I32, F64}, Bool)) {
		t.Error("Expected same function types to be equal")
	}
	if funcType.Equals(NewFunction([]Type{I32}, Bool)) {
		t.Error("Expected different arity to not be equal")
	}
	if funcType.Equals(NewFunction(params, Void)) {
		t.Error("Expected different return types to not be equal")
	}
	if funcType.Equals(I32) {
		t.Error("Expected function type to not equal primitive type")
	}
}

func TestStructType(t *testing.T) {
	fields := []StructField{
		{Name: "x", Type: I32},
		{Name: "y", Type: F64},
	}
	structType := NewStruct("Point", fields)

	if structType.String() != "Point" {
		t.Errorf("StructType.String() = %q, want %q", structType.String(), "Point")
	}

	field, index := structType.LookupField("y")
	if field == nil {
		t.Fatal("Expected to find field 'y'")
	}
	if field.Name != "y" || index != 1 {
		t.Errorf("Expected field y at index 1, got %s at %d", field.Name, index)
	}

	if field, index := structType.LookupField("z"); field != nil || index != -1 {
		t.Error("Expected nil, -1 for non-existent field 'z'")
	}

	if !structType.Equals(NewStruct("Point", nil)) {
		t.Error("Expected struct types with the same name to be equal")
	}
	if structType.Equals(NewStruct("Point2", fields)) {
		t.Error("Expected different struct names to not be equal")
	}
}

func TestBuiltin(t *testing.T) {
	for _, name := range []string{"i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64", "f32", "f64", "bool", "char", "str", "void"} {
		typ, ok := Builtin(name)
		if !ok {
			t.Errorf("expected builtin %s", name)
			continue
		}
		if typ.String() != name {
			t.Errorf("expected %s, got %s", name, typ)
		}
	}
	if _, ok := Builtin("int"); ok {
		t.Error("expected int not to be a builtin")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		typ                                       Type
		numeric, integer, float, equatable, order bool
	}{
		{I32, true, true, false, true, true},
		{U8, true, true, false, true, true},
		{F64, true, false, true, true, true},
		{Bool, false, false, false, true, false},
		{Char, false, false, false, true, true},
		{Str, false, false, false, true, false},
		{Void, false, false, false, false, false},
		{Error, false, false, false, false, false},
		{NewStruct("P", nil), false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if got := IsNumeric(tt.typ); got != tt.numeric {
				t.Errorf("IsNumeric = %v, want %v", got, tt.numeric)
			}
			if got := IsInteger(tt.typ); got != tt.integer {
				t.Errorf("IsInteger = %v, want %v", got, tt.integer)
			}
			if got := IsFloat(tt.typ); got != tt.float {
				t.Errorf("IsFloat = %v, want %v", got, tt.float)
			}
			if got := IsEquatable(tt.typ); got != tt.equatable {
				t.Errorf("IsEquatable = %v, want %v", got, tt.equatable)
			}
			if got := IsOrdered(tt.typ); got != tt.order {
				t.Errorf("IsOrdered = %v, want %v", got, tt.order)
			}
		})
	}

	if !IsError(Error) || IsError(Void) {
		t.Error("IsError should only accept the Error sentinel")
	}
	if !IsBool(Bool) || IsBool(I32) {
		t.Error("IsBool should only accept bool")
	}
	if KindOf(Str) != KindStr {
		t.Errorf("expected KindStr, got %v", KindOf(Str))
	}
}

func TestComparable(t *testing.T) {
	tests := []struct {
		a, b     Type
		expected bool
	}{
		{I32, I32, true},
		{I32, F64, true},
		{U8, I64, true},
		{U32, I64, true},
		{U64, U8, true},
		{U64, F64, true},
		{U64, I64, false},
		{I8, U64, false},
		{Bool, Bool, true},
		{Str, Str, true},
		{Char, Char, true},
		{Char, U32, false},
		{Bool, I32, false},
		{Str, Char, false},
		{Void, Void, false},
		{NewStruct("P", nil), NewStruct("P", nil), false},
	}

	for _, tt := range tests {
		if got := Comparable(tt.a, tt.b); got != tt.expected {
			t.Errorf("Comparable(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestCommonNumeric(t *testing.T) {
	tests := []struct {
		a, b     Type
		expected Type
	}{
		{I32, I32, I32},
		{I8, I32, I32},
		{U16, U64, U64},
		{I32, U8, I32},
		{I32, U32, I64},
		{U32, I64, I64},
		{F32, F64, F64},
		{I32, F32, F64},
		{F32, U8, F64},
	}

	for _, tt := range tests {
		if got := CommonNumeric(tt.a, tt.b); !got.Equals(tt.expected) {
			t.Errorf("CommonNumeric(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.expected)
		}
		if got := CommonNumeric(tt.b, tt.a); !got.Equals(tt.expected) {
			t.Errorf("CommonNumeric(%s, %s) = %s, want %s", tt.b, tt.a, got, tt.expected)
		}
	}
}
