// Package types implements the type system for fruti.
//
// The set of types is closed: sized integers, floats, bool, char, str, void,
// nominal structs, function signatures and the Error sentinel. Error is the
// type of any expression that failed to check; it is a real type, never nil,
// so every type-producing function stays total.
//
// There are no implicit conversions. Integer and float literals have no type
// of their own; the analyzer gives them the type their context expects.
package types

import (
	"fmt"
	"strings"
)

// Type is the interface that all types implement.
type Type interface {
	// String returns the type as it is spelled in source, e.g. "i32".
	String() string

	// Equals checks if this type is identical to another type.
	//
	// IDENTITY RULES:
	// - Integers: same width and signedness
	// - Floats: same width
	// - Structs: same name (nominal typing)
	// - Functions: same parameter and return types (structural)
	Equals(other Type) bool

	// AssignableTo reports whether a value of this type may be stored in a
	// location of the other type. Without implicit conversions this is
	// identity, except that void and Error values are never assignable.
	AssignableTo(other Type) bool

	kind() TypeKind
}

// TypeKind represents the kind of type.
type TypeKind int

const (
	KindError TypeKind = iota
	KindVoid
	KindInt
	KindFloat
	KindBool
	KindChar
	KindStr
	KindStruct
	KindFunction
)

// KindOf returns the kind of t.
func KindOf(t Type) TypeKind {
	return t.kind()
}

// ErrorType is the sentinel for expressions that failed to check. Checks that
// see it on an input stay silent so one mistake is reported once.
type ErrorType struct{}

func (e *ErrorType) String() string         { return "<error>" }
func (e *ErrorType) Equals(other Type) bool { _, ok := other.(*ErrorType); return ok }
func (e *ErrorType) AssignableTo(Type) bool { return false }
func (e *ErrorType) kind() TypeKind         { return KindError }

// VoidType is the result type of functions that return nothing.
type VoidType struct{}

func (v *VoidType) String() string         { return "void" }
func (v *VoidType) Equals(other Type) bool { _, ok := other.(*VoidType); return ok }
func (v *VoidType) AssignableTo(Type) bool { return false }
func (v *VoidType) kind() TypeKind         { return KindVoid }

// IntType is a fixed-width integer.
type IntType struct {
	Bits   int
	Signed bool
}

func (i *IntType) String() string {
	if i.Signed {
		return fmt.Sprintf("i%d", i.Bits)
	}
	return fmt.Sprintf("u%d", i.Bits)
}

func (i *IntType) Equals(other Type) bool {
	o, ok := other.(*IntType)
	return ok && o.Bits == i.Bits && o.Signed == i.Signed
}

func (i *IntType) AssignableTo(other Type) bool { return i.Equals(other) }
func (i *IntType) kind() TypeKind               { return KindInt }

// Fits reports whether the integer literal magnitude, negated when negative is
// set, is representable in the type.
func (i *IntType) Fits(magnitude uint64, negative bool) bool {
	if !i.Signed {
		if negative {
			return magnitude == 0
		}
		if i.Bits == 64 {
			return true
		}
		return magnitude <= 1<<uint(i.Bits)-1
	}
	limit := uint64(1) << uint(i.Bits-1)
	if negative {
		return magnitude <= limit
	}
	return magnitude <= limit-1
}

// FloatType is an IEEE 754 float.
type FloatType struct {
	Bits int
}

func (f *FloatType) String() string { return fmt.Sprintf("f%d", f.Bits) }

func (f *FloatType) Equals(other Type) bool {
	o, ok := other.(*FloatType)
	return ok && o.Bits == f.Bits
}

func (f *FloatType) AssignableTo(other Type) bool { return f.Equals(other) }
func (f *FloatType) kind() TypeKind               { return KindFloat }

// BoolType represents boolean type
type BoolType struct{}

func (b *BoolType) String() string               { return "bool" }
func (b *BoolType) Equals(other Type) bool       { _, ok := other.(*BoolType); return ok }
func (b *BoolType) AssignableTo(other Type) bool { return b.Equals(other) }
func (b *BoolType) kind() TypeKind               { return KindBool }

// CharType is a Unicode code point.
type CharType struct{}

func (c *CharType) String() string               { return "char" }
func (c *CharType) Equals(other Type) bool       { _, ok := other.(*CharType); return ok }
func (c *CharType) AssignableTo(other Type) bool { return c.Equals(other) }
func (c *CharType) kind() TypeKind               { return KindChar }

// StrType is an immutable byte string.
type StrType struct{}

func (s *StrType) String() string               { return "str" }
func (s *StrType) Equals(other Type) bool       { _, ok := other.(*StrType); return ok }
func (s *StrType) AssignableTo(other Type) bool { return s.Equals(other) }
func (s *StrType) kind() TypeKind               { return KindStr }

// StructType represents a struct type. Fields keep declaration order, which
// is also their layout order.
//
// NOMINAL TYPING: struct names are unique per compilation unit, so two struct
// types are equal exactly when their names are.
type StructType struct {
	Name   string
	Fields []StructField
}

// StructField represents a field in a struct
type StructField struct {
	Name string
	Type Type
}

func (s *StructType) String() string { return s.Name }

func (s *StructType) Equals(other Type) bool {
	o, ok := other.(*StructType)
	return ok && o.Name == s.Name
}

func (s *StructType) AssignableTo(other Type) bool { return s.Equals(other) }
func (s *StructType) kind() TypeKind               { return KindStruct }

// LookupField finds a field by name and returns it with its index. The index
// is -1 and the field nil when there is no such field.
func (s *StructType) LookupField(name string) (*StructField, int) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], i
		}
	}
	return nil, -1
}

// FunctionType represents a function signature.
type FunctionType struct {
	Params []Type
	Return Type
}

func (f *FunctionType) String() string {
	params := make([]string, len(f.Params))
	for i, param := range f.Params {
		params[i] = param.String()
	}
	return fmt.Sprintf("fn(%s) -> %s", strings.Join(params, ", "), f.Return)
}

func (f *FunctionType) Equals(other Type) bool {
	o, ok := other.(*FunctionType)
	if !ok || !f.Return.Equals(o.Return) || len(f.Params) != len(o.Params) {
		return false
	}
	for i, param := range f.Params {
		if !param.Equals(o.Params[i]) {
			return false
		}
	}
	return true
}

func (f *FunctionType) AssignableTo(other Type) bool { return f.Equals(other) }
func (f *FunctionType) kind() TypeKind               { return KindFunction }

// Predefined type instances (singletons)
var (
	Error = &ErrorType{}
	Void  = &VoidType{}
	Bool  = &BoolType{}
	Char  = &CharType{}
	Str   = &StrType{}

	I8  = &IntType{Bits: 8, Signed: true}
	I16 = &IntType{Bits: 16, Signed: true}
	I32 = &IntType{Bits: 32, Signed: true}
	I64 = &IntType{Bits: 64, Signed: true}
	U8  = &IntType{Bits: 8}
	U16 = &IntType{Bits: 16}
	U32 = &IntType{Bits: 32}
	U64 = &IntType{Bits: 64}

	F32 = &FloatType{Bits: 32}
	F64 = &FloatType{Bits: 64}
)

// DefaultInt and DefaultFloat are the types of literals with no context.
var (
	DefaultInt   = I32
	DefaultFloat = F64
)

var builtins = map[string]Type{
	"i8":   I8,
	"i16":  I16,
	"i32":  I32,
	"i64":  I64,
	"u8":   U8,
	"u16":  U16,
	"u32":  U32,
	"u64":  U64,
	"f32":  F32,
	"f64":  F64,
	"bool": Bool,
	"char": Char,
	"str":  Str,
	"void": Void,
}

// Builtin returns the predeclared type with the given name.
func Builtin(name string) (Type, bool) {
	t, ok := builtins[name]
	return t, ok
}

// Helper functions

// IsError reports whether t is the Error sentinel.
func IsError(t Type) bool {
	_, ok := t.(*ErrorType)
	return ok
}

// IsNumeric returns true if the type is an integer or float.
func IsNumeric(t Type) bool {
	switch t.(type) {
	case *IntType, *FloatType:
		return true
	default:
		return false
	}
}

// IsInteger returns true if the type is an integer.
func IsInteger(t Type) bool {
	_, ok := t.(*IntType)
	return ok
}

// IsFloat returns true if the type is a float.
func IsFloat(t Type) bool {
	_, ok := t.(*FloatType)
	return ok
}

// IsBool returns true if the type is boolean.
func IsBool(t Type) bool {
	_, ok := t.(*BoolType)
	return ok
}

// IsEquatable returns true if values of this type can be compared with == and
// != against values of the same type.
func IsEquatable(t Type) bool {
	switch t.(type) {
	case *IntType, *FloatType, *BoolType, *CharType, *StrType:
		return true
	default:
		return false
	}
}

// IsOrdered returns true if values of this type can be compared with <, <=,
// > and >=.
func IsOrdered(t Type) bool {
	switch t.(type) {
	case *IntType, *FloatType, *CharType:
		return true
	default:
		return false
	}
}

// Comparable reports whether a and b may be compared with == and !=: they are
// equal equatable types or both numeric. A u64 mixed with a signed integer is
// not comparable, since no integer type holds both operands.
func Comparable(a, b Type) bool {
	if IsNumeric(a) && IsNumeric(b) {
		return !mixedSign64(a, b)
	}
	return a.Equals(b) && IsEquatable(a)
}

// mixedSign64 reports whether one operand is u64 and the other a signed
// integer.
func mixedSign64(a, b Type) bool {
	ai, aInt := a.(*IntType)
	bi, bInt := b.(*IntType)
	if !aInt || !bInt || ai.Signed == bi.Signed {
		return false
	}
	if ai.Signed {
		return bi.Bits == 64
	}
	return ai.Bits == 64
}

// CommonNumeric returns the type two numeric operands are converted to before
// a mixed comparison. Mixing an integer with a float yields f64; two integers
// yield the wider one, signed if either is signed, doubling the width when
// signedness differs at equal width. Operands must be Comparable; a u64
// paired with a signed integer has no common type.
func CommonNumeric(a, b Type) Type {
	if a.Equals(b) {
		return a
	}
	af, aFloat := a.(*FloatType)
	bf, bFloat := b.(*FloatType)
	switch {
	case aFloat && bFloat:
		if af.Bits >= bf.Bits {
			return af
		}
		return bf
	case aFloat || bFloat:
		return F64
	}

	ai, bi := a.(*IntType), b.(*IntType)
	bits := ai.Bits
	if bi.Bits > bits {
		bits = bi.Bits
	}
	signed := ai.Signed || bi.Signed
	if ai.Signed != bi.Signed {
		// The unsigned operand must fit in the signed result.
		unsigned := ai
		if ai.Signed {
			unsigned = bi
		}
		if unsigned.Bits >= bits && bits < 64 {
			bits *= 2
		}
	}
	return intOf(bits, signed)
}

func intOf(bits int, signed bool) *IntType {
	name := fmt.Sprintf("u%d", bits)
	if signed {
		name = fmt.Sprintf("i%d", bits)
	}
	return builtins[name].(*IntType)
}

// NewStruct creates a new struct type
func NewStruct(name string, fields []StructField) *StructType {
	return &StructType{
		Name:   name,
		Fields: fields,
	}
}

// NewFunction creates a new function type
func NewFunction(params []Type, ret Type) *FunctionType {
	return &FunctionType{
		Params: params,
		Return: ret,
	}
}
